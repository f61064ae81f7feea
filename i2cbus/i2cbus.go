// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package i2cbus

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
)

// Event is a bus condition delivered to a slave.
type Event int

// Bus conditions, in the order the host bus numbers them.
const (
	// StartRecv is a START (or repeated START) addressing the slave for a
	// master read; the slave transmits.
	StartRecv Event = iota
	// StartSend is a START (or repeated START) addressing the slave for a
	// master write; the slave receives.
	StartSend
	// Finish is a STOP.
	Finish
	// Nack is sent by the master after the last byte it reads.
	Nack
)

func (e Event) String() string {
	switch e {
	case StartRecv:
		return "StartRecv"
	case StartSend:
		return "StartSend"
	case Finish:
		return "Finish"
	case Nack:
		return "Nack"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

// Slave is an emulated device attached to a Bus.
type Slave interface {
	// Event reports a bus condition. Returning an error to a START event
	// NACKs the address.
	Event(e Event) error
	// Send delivers one byte written by the master. Returning an error NACKs
	// the byte.
	Send(b byte) error
	// Recv returns the next byte the master reads.
	Recv() byte
}

var (
	// ErrNack is returned when no slave acknowledges an address or a byte.
	ErrNack = errors.New("i2cbus: NACK")
	// ErrBusy is returned by Attach when the address is already taken.
	ErrBusy = errors.New("i2cbus: address already in use")
)

// Opts configures a Bus.
type Opts struct {
	// Name is returned by String and used as the i2creg name.
	Name string
	// Speed is the nominal bus speed. It has no effect on timing.
	Speed physic.Frequency
	// Logger receives diagnostics. Defaults to logrus.StandardLogger().
	Logger logrus.FieldLogger
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	Name:  "I2C0",
	Speed: 100 * physic.KiloHertz,
}

// Bus is an emulated I²C bus.
type Bus struct {
	name string
	log  logrus.FieldLogger

	// mu guards everything below. Slaves are called with it held.
	mu     sync.Mutex
	speed  physic.Frequency
	slaves map[uint16]Slave

	// Current transfer.
	active bool
	read   bool
	addr   uint16
	cur    Slave
}

// New returns an empty bus.
func New(opts *Opts) *Bus {
	if opts == nil {
		opts = &DefaultOpts
	}
	name := opts.Name
	if name == "" {
		name = DefaultOpts.Name
	}
	speed := opts.Speed
	if speed == 0 {
		speed = DefaultOpts.Speed
	}
	l := opts.Logger
	if l == nil {
		l = logrus.StandardLogger()
	}
	return &Bus{
		name:   name,
		log:    l.WithField("bus", name),
		speed:  speed,
		slaves: map[uint16]Slave{},
	}
}

func (b *Bus) String() string {
	return b.name
}

// Attach connects s at the 7-bit address addr.
func (b *Bus) Attach(addr uint16, s Slave) error {
	if addr > 0x7f {
		return fmt.Errorf("%s: invalid 7-bit address %#x", b, addr)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.slaves[addr]; ok {
		return fmt.Errorf("%s: %#x: %w", b, addr, ErrBusy)
	}
	b.slaves[addr] = s
	b.log.Debugf("attached slave at %#02x", addr)
	return nil
}

// Detach disconnects the slave at addr. A transfer open with it is stopped
// first.
func (b *Bus) Detach(addr uint16) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.active && b.addr == addr {
		b.endTransfer()
	}
	delete(b.slaves, addr)
}

// Addresses returns the addresses of the attached slaves in ascending order.
func (b *Bus) Addresses() []uint16 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Sorted(maps.Keys(b.slaves))
}

// Busy reports whether a transfer is open.
func (b *Bus) Busy() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// StartTransfer issues a START, or a repeated START when a transfer is
// already open, followed by the 7-bit address and the direction bit.
//
// It returns ErrNack when no slave answers at addr. The bus is then idle.
//
// The primitives are atomic one by one. A caller driving a whole
// transaction with them, like a TWI controller, serializes its own
// transactions; Tx is atomic as a whole.
func (b *Bus) StartTransfer(addr uint8, read bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.startTransfer(addr, read)
}

// Send writes one byte to the addressed slave.
func (b *Bus) Send(v byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.send(v)
}

// Recv reads one byte from the addressed slave.
func (b *Bus) Recv() (byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.recv()
}

// Nack signals the end of a read to the addressed slave.
func (b *Bus) Nack() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nack()
}

// EndTransfer issues a STOP. It is a no-op when the bus is idle.
func (b *Bus) EndTransfer() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.endTransfer()
}

// Tx implements i2c.Bus.
//
// A non-empty w is sent in a write transfer; a non-empty r is then filled in
// a read transfer started with a repeated START. A STOP always ends the
// transaction.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	if addr > 0x7f {
		return fmt.Errorf("%s: invalid 7-bit address %#x", b, addr)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	defer b.endTransfer()

	if len(w) != 0 || len(r) == 0 {
		if err := b.startTransfer(uint8(addr), false); err != nil {
			return err
		}
		for i, v := range w {
			if err := b.send(v); err != nil {
				return fmt.Errorf("%s: write byte %d: %w", b, i, err)
			}
		}
	}
	if len(r) != 0 {
		if err := b.startTransfer(uint8(addr), true); err != nil {
			return err
		}
		for i := range r {
			v, err := b.recv()
			if err != nil {
				return fmt.Errorf("%s: read byte %d: %w", b, i, err)
			}
			r[i] = v
		}
		b.nack()
	}
	return nil
}

// The lowercase primitives run with mu held.

func (b *Bus) startTransfer(addr uint8, read bool) error {
	a := uint16(addr & 0x7f)
	if b.active && b.addr != a {
		// Repeated START to another device: the previous one sees a STOP.
		b.finish()
	}
	s, ok := b.slaves[a]
	if !ok {
		b.active = false
		b.cur = nil
		return fmt.Errorf("%s: no device at %#02x: %w", b, a, ErrNack)
	}
	ev := StartSend
	if read {
		ev = StartRecv
	}
	if err := s.Event(ev); err != nil {
		b.active = false
		b.cur = nil
		return fmt.Errorf("%s: %#02x refused %s: %v: %w", b, a, ev, err, ErrNack)
	}
	b.active = true
	b.read = read
	b.addr = a
	b.cur = s
	return nil
}

func (b *Bus) send(v byte) error {
	if !b.active || b.read {
		return fmt.Errorf("%s: no write transfer open: %w", b, ErrNack)
	}
	if err := b.cur.Send(v); err != nil {
		return fmt.Errorf("%s: %#02x refused byte %#02x: %v: %w", b, b.addr, v, err, ErrNack)
	}
	return nil
}

func (b *Bus) recv() (byte, error) {
	if !b.active || !b.read {
		return 0xff, fmt.Errorf("%s: no read transfer open: %w", b, ErrNack)
	}
	return b.cur.Recv(), nil
}

func (b *Bus) nack() {
	if !b.active || !b.read {
		return
	}
	if err := b.cur.Event(Nack); err != nil {
		b.log.Warnf("%#02x: NACK event: %v", b.addr, err)
	}
}

func (b *Bus) endTransfer() {
	if !b.active {
		return
	}
	b.finish()
}

func (b *Bus) finish() {
	if err := b.cur.Event(Finish); err != nil {
		b.log.Warnf("%#02x: STOP event: %v", b.addr, err)
	}
	b.active = false
	b.cur = nil
}

// SetSpeed implements i2c.Bus.
//
// The speed is recorded but the emulated bus always completes transfers
// immediately.
func (b *Bus) SetSpeed(f physic.Frequency) error {
	if f <= 0 {
		return fmt.Errorf("%s: invalid speed %s", b, f)
	}
	b.mu.Lock()
	b.speed = f
	b.mu.Unlock()
	return nil
}

// Speed returns the last speed set.
func (b *Bus) Speed() physic.Frequency {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.speed
}

// Close implements i2c.BusCloser.
//
// The bus is shared by every opener so Close only terminates an open
// transfer.
func (b *Bus) Close() error {
	b.mu.Lock()
	b.endTransfer()
	b.mu.Unlock()
	return nil
}

// Register publishes bus in the i2creg registry under name.
func Register(name string, number int, bus i2c.BusCloser) error {
	return i2creg.Register(name, nil, number, func() (i2c.BusCloser, error) {
		return bus, nil
	})
}

var _ i2c.BusCloser = &Bus{}
