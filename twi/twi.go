// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package twi

import (
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/periphemu/i2cbus"
)

// Bus is the bus transport the controller drives as a master.
type Bus interface {
	// StartTransfer issues a START (or repeated START) and the address byte.
	// It returns an error if no slave acknowledged the address.
	StartTransfer(addr uint8, read bool) error
	// Send transmits one byte. It returns an error if it was not
	// acknowledged.
	Send(b byte) error
	// EndTransfer issues a STOP.
	EndTransfer()
}

// IRQ is the interrupt line of the controller.
type IRQ interface {
	Assert()
}

// IRQFunc adapts a function to IRQ.
type IRQFunc func()

// Assert implements IRQ.
func (f IRQFunc) Assert() {
	f()
}

// Phase is the transaction state of the controller.
type Phase uint8

// Transaction phases.
const (
	Idle Phase = iota
	// TransactionStarted follows a START; TWDR is expected to receive SLA+R/W.
	TransactionStarted
	// AddressPhase follows the address byte.
	AddressPhase
	// DataPhase follows the first data byte.
	DataPhase
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "Idle"
	case TransactionStarted:
		return "TransactionStarted"
	case AddressPhase:
		return "AddressPhase"
	case DataPhase:
		return "DataPhase"
	default:
		return "Phase(?)"
	}
}

// Opts defines the options for the controller.
type Opts struct {
	// CPUClock is the CPU clock the bit rate generator divides.
	CPUClock physic.Frequency
	// AckAddressNack reports TW_MT_SLA_ACK/TW_MR_SLA_ACK even when no slave
	// acknowledged the address, emulating a bus where every address answers.
	AckAddressNack bool
	// Logger receives diagnostics. Defaults to logrus.StandardLogger().
	Logger logrus.FieldLogger
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	CPUClock: 16 * physic.MegaHertz,
}

// State is a view of the registers and transaction state.
type State struct {
	TWBR TWBR
	TWSR TWSR
	TWAR TWAR
	TWDR TWDR
	TWCR TWCR

	InTransaction bool
	Enabled       bool
	Phase         Phase
}

// Controller is an emulated TWI controller.
type Controller struct {
	bus  Bus
	irq  IRQ
	opts Opts
	log  logrus.FieldLogger

	twbr TWBR
	twsr TWSR
	twar TWAR
	twdr TWDR
	twcr TWCR

	inTransaction bool
	enabled       bool
	phase         Phase
}

// New returns a controller in its power-on state mastering bus. irq may be
// nil.
func New(bus Bus, irq IRQ, opts *Opts) *Controller {
	if opts == nil {
		opts = &DefaultOpts
	}
	c := &Controller{bus: bus, irq: irq, opts: *opts}
	if c.opts.CPUClock <= 0 {
		c.opts.CPUClock = DefaultOpts.CPUClock
	}
	l := opts.Logger
	if l == nil {
		l = logrus.StandardLogger()
	}
	c.log = l.WithField("dev", "twi")
	c.Reset()
	return c
}

func (c *Controller) String() string {
	return "TWI"
}

// Halt implements conn.Resource.
//
// It releases the bus if a transaction is open.
func (c *Controller) Halt() error {
	if c.inTransaction {
		c.stop()
	}
	return nil
}

// Realize is the host hook called once the device is wired. It has no effect
// on the model.
func (c *Controller) Realize() {
	c.log.Debugf("realize %s", c)
}

// Reset restores the power-on register values.
func (c *Controller) Reset() {
	c.twbr = ParseTWBR(0)
	c.twsr = ParseTWSR(0xF8)
	c.twar = ParseTWAR(0xFE)
	c.twdr = ParseTWDR(0xFF)
	c.twcr = ParseTWCR(0)
	c.inTransaction = false
	c.enabled = false
	c.phase = Idle
}

// State returns the registers and transaction state.
func (c *Controller) State() State {
	return State{
		TWBR:          c.twbr,
		TWSR:          c.twsr,
		TWAR:          c.twar,
		TWDR:          c.twdr,
		TWCR:          c.twcr,
		InTransaction: c.inTransaction,
		Enabled:       c.enabled,
		Phase:         c.phase,
	}
}

// Snapshot returns a copy of the controller. It shares the bus and the
// interrupt line.
func (c *Controller) Snapshot() *Controller {
	n := *c
	return &n
}

// Phase returns the transaction phase.
func (c *Controller) Phase() Phase {
	return c.phase
}

// Frequency returns the SCL frequency configured by TWBR and the TWSR
// prescaler.
func (c *Controller) Frequency() physic.Frequency {
	div := 16 + 2*int64(c.twbr.Rate)<<(2*c.twsr.Prescaler)
	return c.opts.CPUClock / physic.Frequency(div)
}

// Read returns the register at off.
//
// Only TWSR and TWCR are readable; the other registers read as 0xFF.
func (c *Controller) Read(off Offset) byte {
	switch off {
	case TWSROffset:
		return c.twsr.Byte()
	case TWCROffset:
		return c.twcr.Byte()
	case TWBROffset, TWAROffset, TWDROffset, TWAMROffset:
		return 0xFF
	default:
		c.log.Warnf("read: bad offset %#x", uint8(off))
		return 0xFF
	}
}

// Write stores v in the register at off and runs the bus operation it
// triggers.
func (c *Controller) Write(off Offset, v byte) {
	switch off {
	case TWBROffset:
		c.twbr = ParseTWBR(v)
	case TWSROffset:
		// The status field is read-only. The prescaler bits are writable on
		// real hardware but the write is discarded here.
		// TODO(hw): retain TWPS once a firmware relies on prescaled bit rates.
		r := ParseTWSR(v)
		c.log.Debugf("write TWSR %#02x discarded (prescaler %d)", v, r.Prescaler)
	case TWAROffset:
		c.twar = ParseTWAR(v)
	case TWDROffset:
		c.twdr = ParseTWDR(v)
		c.dispatchData()
	case TWCROffset:
		c.writeControl(ParseTWCR(v))
	default:
		c.log.Warnf("write: bad offset %#x", uint8(off))
	}
}

// writeControl handles a TWCR write.
func (c *Controller) writeControl(r TWCR) {
	c.enabled = r.TWEN
	c.twcr.TWEN = r.TWEN
	c.twcr.TWIE = r.TWIE
	c.twcr.TWEA = r.TWEA
	c.twcr.TWINT = r.TWINT
	if r.TWSTA {
		c.twcr.TWSTA = true
	}

	if r.TWSTO {
		c.stop()
		return
	}
	if !r.TWINT || !r.TWEN {
		return
	}
	if !c.inTransaction {
		c.inTransaction = true
		c.setStatus(TW_START)
		c.twcr.TWEN = true
		c.phase = TransactionStarted
	} else if c.twcr.TWSTA {
		c.setStatus(TW_REP_START)
		c.phase = TransactionStarted
	}
	// Operations complete immediately.
	if c.irq != nil {
		c.irq.Assert()
	}
	c.twcr.TWINT = true
}

// dispatchData handles a TWDR write: the address byte after a START,
// otherwise a data byte.
func (c *Controller) dispatchData() {
	if !c.twcr.TWINT {
		c.twcr.TWWC = true
		c.log.Debug("write collision")
		return
	}

	if c.twcr.TWSTA {
		c.twcr.TWSTA = false
		c.advance(AddressPhase)
		addr := c.twdr.Data >> 1
		read := c.twdr.Data&0x01 != 0
		err := c.bus.StartTransfer(addr, read)
		if err != nil {
			c.log.Debugf("address %#02x: %v", addr, err)
		}
		ack := err == nil || c.opts.AckAddressNack
		switch {
		case read && ack:
			c.setStatus(TW_MR_SLA_ACK)
		case read:
			c.setStatus(TW_MR_SLA_NACK)
		case ack:
			c.setStatus(TW_MT_SLA_ACK)
		default:
			c.setStatus(TW_MT_SLA_NACK)
		}
		return
	}

	c.advance(DataPhase)
	if err := c.bus.Send(c.twdr.Data); err != nil {
		c.log.Debugf("data %#02x: %v", c.twdr.Data, err)
		c.setStatus(TW_MT_DATA_NACK)
		return
	}
	c.setStatus(TW_MT_DATA_ACK)
}

// advance moves to p. Outside a transaction the phase stays Idle.
func (c *Controller) advance(p Phase) {
	if c.inTransaction {
		c.phase = p
	}
}

func (c *Controller) stop() {
	c.bus.EndTransfer()
	c.inTransaction = false
	c.twcr.TWSTO = false
	c.twcr.TWINT = false
	c.phase = Idle
}

// setStatus changes the status field and keeps the prescaler.
func (c *Controller) setStatus(s StatusCode) {
	c.twsr.Status = s
}

var _ conn.Resource = &Controller{}
var _ Bus = &i2cbus.Bus{}
