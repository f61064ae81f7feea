// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package board

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/periphemu/i2cbus"
	"github.com/GermanBionicSystems/periphemu/ssd1306"
	"github.com/GermanBionicSystems/periphemu/surface"
	"github.com/GermanBionicSystems/periphemu/twi"
)

// Opts defines the options for the board.
type Opts struct {
	// Name is the bus name used by String and Register.
	Name string
	// OLEDAddr is the address the SSD1306 is attached at.
	OLEDAddr uint16
	// Magnify is passed to the SSD1306.
	Magnify int
	// CPUClock drives the TWI bit rate generator.
	CPUClock physic.Frequency
	// AckAddressNack is passed to the TWI controller.
	AckAddressNack bool
	// OnIRQ is called, with the board lock held, every time the TWI
	// interrupt line is asserted.
	OnIRQ func()
	// Logger receives diagnostics of every device. Defaults to
	// logrus.StandardLogger().
	Logger logrus.FieldLogger
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	Name:     "TWI0",
	OLEDAddr: 0x3c,
	Magnify:  1,
	CPUClock: 16 * physic.MegaHertz,
}

// Board is an emulated machine.
type Board struct {
	// mu is the big lock.
	mu   sync.Mutex
	name string
	opts Opts
	log  logrus.FieldLogger

	bus  *i2cbus.Bus
	twi  *twi.Controller
	oled *ssd1306.Dev
	irqs int

	registered bool
}

// New builds and realizes the board.
func New(opts *Opts) (*Board, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	o := *opts
	if o.Name == "" {
		o.Name = DefaultOpts.Name
	}
	if o.OLEDAddr == 0 {
		o.OLEDAddr = DefaultOpts.OLEDAddr
	}
	if o.CPUClock <= 0 {
		o.CPUClock = DefaultOpts.CPUClock
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	b := &Board{
		name: o.Name,
		opts: o,
		log:  o.Logger.WithField("board", o.Name),
	}
	b.bus = i2cbus.New(&i2cbus.Opts{Name: o.Name, Logger: o.Logger})
	b.twi = twi.New(b.bus, twi.IRQFunc(b.assertIRQ), &twi.Opts{
		CPUClock:       o.CPUClock,
		AckAddressNack: o.AckAddressNack,
		Logger:         o.Logger,
	})
	b.oled = ssd1306.New(&ssd1306.Opts{Addr: o.OLEDAddr, Magnify: o.Magnify, Logger: o.Logger})
	if err := b.bus.Attach(b.oled.Addr(), b.oled); err != nil {
		return nil, fmt.Errorf("board: %w", err)
	}
	b.twi.Realize()
	b.oled.Realize()
	return b, nil
}

func (b *Board) String() string {
	return b.name
}

// Halt implements conn.Resource.
func (b *Board) Halt() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return errors.Join(b.twi.Halt(), b.oled.Halt())
}

// Close halts the board and unregisters it if Register was called.
func (b *Board) Close() error {
	err := b.Halt()
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.registered {
		b.registered = false
		err = errors.Join(err, i2creg.Unregister(b.name))
	}
	return err
}

// Reset resets every device. GDDRAM content survives.
func (b *Board) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bus.EndTransfer()
	b.twi.Reset()
	b.oled.Reset()
	b.log.Debug("reset")
}

// Read implements twi.Registers.
func (b *Board) Read(off twi.Offset) byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.twi.Read(off)
}

// Write implements twi.Registers.
func (b *Board) Write(off twi.Offset, v byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.twi.Write(off, v)
}

// ReadMMIO reads the TWI register window at addr. Only the low byte is
// meaningful; accesses past the window read as all ones.
func (b *Board) ReadMMIO(addr uint64, size uint) uint64 {
	if addr >= twi.WindowSize {
		b.log.Warnf("read %d bytes outside the TWI window at %#x", size, addr)
		return ones(size)
	}
	return uint64(b.Read(twi.Offset(addr)))
}

// WriteMMIO writes the low byte of v to the TWI register window at addr.
func (b *Board) WriteMMIO(addr, v uint64, size uint) {
	if addr >= twi.WindowSize {
		b.log.Warnf("write %d bytes outside the TWI window at %#x", size, addr)
		return
	}
	b.Write(twi.Offset(addr), byte(v))
}

func ones(size uint) uint64 {
	if size >= 8 {
		return ^uint64(0)
	}
	return 1<<(8*size) - 1
}

// Wire returns an i2c.Bus reaching the board's devices through the TWI
// registers.
func (b *Board) Wire() *twi.Wire {
	return twi.NewWire(b, b.opts.CPUClock)
}

// Register publishes Wire in the i2creg registry under the board name.
func (b *Board) Register() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.registered {
		return fmt.Errorf("board: %s already registered", b.name)
	}
	if err := i2cbus.Register(b.name, -1, b.Wire()); err != nil {
		return err
	}
	b.registered = true
	return nil
}

// IRQCount returns the number of interrupt assertions since New.
func (b *Board) IRQCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.irqs
}

// assertIRQ is called by the TWI controller with the lock held.
func (b *Board) assertIRQ() {
	b.irqs++
	if b.opts.OnIRQ != nil {
		b.opts.OnIRQ()
	}
}

// OLED returns the SSD1306. It must not be used concurrently with the board.
func (b *Board) OLED() *ssd1306.Dev {
	return b.oled
}

// TWI returns the TWI controller. It must not be used concurrently with the
// board.
func (b *Board) TWI() *twi.Controller {
	return b.twi
}

// Refresh renders the OLED into s.
func (b *Board) Refresh(s ssd1306.Surface) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.oled.Render(s)
}

// Run refreshes the display every interval and draws the frame on every
// drawer, until ctx is done. Draw errors are logged.
func (b *Board) Run(ctx context.Context, interval time.Duration, drawers ...display.Drawer) error {
	s := surface.New(ssd1306.Width, ssd1306.Height)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		b.Refresh(s)
		for _, d := range drawers {
			if err := d.Draw(d.Bounds(), s, image.Point{}); err != nil {
				b.log.Errorf("draw on %s: %v", d, err)
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

var _ conn.Resource = &Board{}
var _ twi.Registers = &Board{}
