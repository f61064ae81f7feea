// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package twi

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/periphemu/i2cbus"
)

// Registers is a TWI register window, a *Controller or a host wrapping one.
type Registers interface {
	Read(off Offset) byte
	Write(off Offset, v byte)
}

// ErrReadNotEmulated is returned by Wire.Tx for a read phase.
var ErrReadNotEmulated = errors.New("twi: master receiver mode is not emulated")

// maxPolls bounds the TWINT busy loop.
const maxPolls = 16

// Wire is an i2c.Bus that talks to the bus by programming TWI registers, the
// way firmware does.
type Wire struct {
	mu   sync.Mutex
	regs Registers
	cpu  physic.Frequency
}

// NewWire returns a bus master using regs. cpu is the clock the bit rate
// generator divides, used by SetSpeed.
func NewWire(regs Registers, cpu physic.Frequency) *Wire {
	if cpu <= 0 {
		cpu = DefaultOpts.CPUClock
	}
	return &Wire{regs: regs, cpu: cpu}
}

func (w *Wire) String() string {
	return "TWI"
}

// Tx implements i2c.Bus.
//
// The write phase runs the master transmitter sequence. A read phase issues
// a (repeated) START and SLA+R then fails with ErrReadNotEmulated.
func (w *Wire) Tx(addr uint16, wr, r []byte) error {
	if addr > 0x7f {
		return fmt.Errorf("%s: invalid address %#x", w, addr)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	defer w.stop()

	started := false
	if len(wr) != 0 || len(r) == 0 {
		if err := w.start(TW_START); err != nil {
			return err
		}
		started = true
		if err := w.transmit(byte(addr)<<1, TW_MT_SLA_ACK); err != nil {
			return err
		}
		for _, b := range wr {
			if err := w.transmit(b, TW_MT_DATA_ACK); err != nil {
				return err
			}
		}
	}
	if len(r) == 0 {
		return nil
	}
	want := TW_START
	if started {
		want = TW_REP_START
	}
	if err := w.start(want); err != nil {
		return err
	}
	if err := w.transmit(byte(addr)<<1|0x01, TW_MR_SLA_ACK); err != nil {
		return err
	}
	return ErrReadNotEmulated
}

// SetSpeed implements i2c.Bus.
//
// It programs TWBR with the prescaler at 1.
func (w *Wire) SetSpeed(f physic.Frequency) error {
	if f <= 0 {
		return fmt.Errorf("%s: invalid speed %s", w, f)
	}
	div := int64(w.cpu / f)
	if div < 16 {
		return fmt.Errorf("%s: speed %s too high for CPU clock %s", w, f, w.cpu)
	}
	rate := (div - 16) / 2
	if rate > 0xFF {
		return fmt.Errorf("%s: speed %s too low for CPU clock %s", w, f, w.cpu)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.regs.Write(TWBROffset, byte(rate))
	return nil
}

// Close implements i2c.BusCloser.
func (w *Wire) Close() error {
	return nil
}

func (w *Wire) start(want StatusCode) error {
	w.regs.Write(TWCROffset, bitTWINT|bitTWSTA|bitTWEN)
	return w.wait(want)
}

// transmit loads TWDR and clears TWINT to send it.
func (w *Wire) transmit(b byte, want StatusCode) error {
	w.regs.Write(TWDROffset, b)
	w.regs.Write(TWCROffset, bitTWINT|bitTWEN)
	return w.wait(want)
}

func (w *Wire) stop() {
	w.regs.Write(TWCROffset, bitTWINT|bitTWSTO|bitTWEN)
}

// wait polls TWINT and checks the status code.
func (w *Wire) wait(want StatusCode) error {
	for i := 0; ; i++ {
		if w.regs.Read(TWCROffset)&bitTWINT != 0 {
			break
		}
		if i == maxPolls {
			return fmt.Errorf("%s: timeout waiting for %s", w, want)
		}
	}
	got := StatusCode(w.regs.Read(TWSROffset) & 0xF8)
	switch {
	case got == want:
		return nil
	case got == TW_MT_SLA_NACK, got == TW_MR_SLA_NACK, got == TW_MT_DATA_NACK:
		return fmt.Errorf("%s: %s: %w", w, got, i2cbus.ErrNack)
	default:
		return fmt.Errorf("%s: got status %s, want %s", w, got, want)
	}
}

var _ i2c.BusCloser = &Wire{}
