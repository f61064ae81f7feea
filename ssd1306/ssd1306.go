// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1306

import (
	"errors"
	"fmt"
	"slices"

	"github.com/GermanBionicSystems/periphemu/i2cbus"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3"
)

const (
	// Width is the number of GDDRAM columns.
	Width = 128
	// Height is the number of display rows.
	Height = 64
	// Pages is the number of GDDRAM pages, each 8 rows high.
	Pages = Height / 8
)

// ErrNotImplemented is wrapped by the errors returned for protocol paths the
// model does not emulate.
var ErrNotImplemented = errors.New("ssd1306: not implemented")

// AddressingMode governs how the GDDRAM pointers advance after each data
// byte.
type AddressingMode byte

// Memory addressing modes, as selected by command 0x20.
const (
	// Horizontal increments the column pointer; past the column end address
	// it wraps to the column start address and the page pointer increments.
	Horizontal AddressingMode = 0
	// Vertical increments the page pointer; past the page end address it
	// wraps to the page start address and the column pointer increments.
	Vertical AddressingMode = 1
	// Page increments the column pointer; past the column end address it
	// wraps to the column start address and the page pointer is unchanged.
	Page AddressingMode = 2
)

func (m AddressingMode) String() string {
	switch m {
	case Horizontal:
		return "Horizontal"
	case Vertical:
		return "Vertical"
	case Page:
		return "Page"
	default:
		return fmt.Sprintf("AddressingMode(%d)", byte(m))
	}
}

// DataMode is the meaning of the bytes following the control byte of a
// transfer.
type DataMode byte

// Data modes, selected by the D/C# bit of the control byte.
const (
	// Command means the following bytes are commands and their parameters.
	Command DataMode = 0
	// Data means the following bytes are stored in GDDRAM.
	Data DataMode = 1
)

func (m DataMode) String() string {
	if m == Data {
		return "Data"
	}
	return "Command"
}

// Opts defines the options for the device.
type Opts struct {
	// Addr is the 7-bit I²C address the board attaches the device at.
	Addr uint16
	// Magnify is the integer scale factor applied to the surface size
	// requested from the host.
	Magnify int
	// Logger receives diagnostics. Defaults to logrus.StandardLogger().
	Logger logrus.FieldLogger
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	Addr:    0x3c,
	Magnify: 1,
}

// Config is the panel configuration set by commands.
type Config struct {
	Enabled        bool
	Contrast       byte
	MultiplexRatio byte
	DisplayOffset  byte
	StartLine      byte
	SegmentRemap   bool
	COMRemap       bool
	COMPins        byte
	ForceOn        bool
	Inverted       bool

	Mode        AddressingMode
	ColumnStart byte
	ColumnEnd   byte
	Column      byte
	PageStart   byte
	PageEnd     byte
	Page        byte
}

// Dev is an emulated SSD1306 controller.
type Dev struct {
	addr    uint16
	magnify int
	log     logrus.FieldLogger
	// err is the last fault recorded while driven over the bus.
	err error

	// I²C protocol state. Each transfer begins with a control byte.
	receivedDC bool
	dataMode   DataMode
	// inCommand is true while the parameters of command are being received.
	// The datasheet refers to them as A, B, C...
	inCommand    bool
	command      byte
	params       []byte
	paramsNumber int

	// Graphic Display Data RAM. Each byte is a column of 8 vertically stacked
	// pixels, LSB on top; page p starts at p*Width.
	gddram    [Width * Pages]byte
	mode      AddressingMode
	colStart  byte
	colEnd    byte
	colPtr    byte
	pageStart byte
	pageEnd   byte
	pagePtr   byte

	enabled        bool
	contrast       byte
	multiplexRatio byte
	displayOffset  byte
	startLine      byte
	segmentRemap   bool
	comRemap       bool
	comPins        byte
	forceOn        bool
	// inverted treats 1 in the RAM as OFF and 0 as ON.
	inverted bool
}

// New returns a powered-on controller with cleared GDDRAM.
func New(opts *Opts) *Dev {
	if opts == nil {
		opts = &DefaultOpts
	}
	addr := opts.Addr
	if addr == 0 {
		addr = DefaultOpts.Addr
	}
	magnify := opts.Magnify
	if magnify < 1 {
		magnify = 1
	}
	l := opts.Logger
	if l == nil {
		l = logrus.StandardLogger()
	}
	d := &Dev{
		addr:    addr,
		magnify: magnify,
		log:     l.WithField("dev", "ssd1306"),
		params:  make([]byte, 0, 8),
	}
	d.Reset()
	return d
}

func (d *Dev) String() string {
	return fmt.Sprintf("SSD1306{%#02x}", d.addr)
}

// Addr returns the I²C address of the device.
func (d *Dev) Addr() uint16 {
	return d.addr
}

// Halt implements conn.Resource.
//
// It turns the display off, like command 0xAE.
func (d *Dev) Halt() error {
	d.enabled = false
	return nil
}

// Realize is the host hook called once the device is wired. It has no effect
// on the model.
func (d *Dev) Realize() {
	d.log.Debugf("realize %s", d)
}

// Reset restores the power-on state. GDDRAM content is preserved.
func (d *Dev) Reset() {
	d.receivedDC = false
	d.dataMode = Command
	d.inCommand = false
	d.command = 0
	d.params = d.params[:0]
	d.paramsNumber = 0

	d.mode = Page
	d.colStart, d.colEnd, d.colPtr = 0, Width-1, 0
	d.pageStart, d.pageEnd, d.pagePtr = 0, Pages-1, 0

	d.enabled = false
	d.contrast = 0x7f
	d.multiplexRatio = Height - 1
	d.displayOffset = 0
	d.startLine = 0
	d.segmentRemap = false
	d.comRemap = false
	d.comPins = 0x12
	d.forceOn = false
	d.inverted = false
	d.err = nil
}

// Err returns the last fault recorded while the device was driven over the
// bus, nil if none since the last Reset.
func (d *Dev) Err() error {
	return d.err
}

// Config returns the current panel configuration and address pointers.
func (d *Dev) Config() Config {
	return Config{
		Enabled:        d.enabled,
		Contrast:       d.contrast,
		MultiplexRatio: d.multiplexRatio,
		DisplayOffset:  d.displayOffset,
		StartLine:      d.startLine,
		SegmentRemap:   d.segmentRemap,
		COMRemap:       d.comRemap,
		COMPins:        d.comPins,
		ForceOn:        d.forceOn,
		Inverted:       d.inverted,
		Mode:           d.mode,
		ColumnStart:    d.colStart,
		ColumnEnd:      d.colEnd,
		Column:         d.colPtr,
		PageStart:      d.pageStart,
		PageEnd:        d.pageEnd,
		Page:           d.pagePtr,
	}
}

// Snapshot returns a deep copy of the device state.
func (d *Dev) Snapshot() *Dev {
	n := *d
	n.params = slices.Clone(d.params)
	return &n
}

// Event implements i2cbus.Slave.
func (d *Dev) Event(e i2cbus.Event) error {
	switch e {
	case i2cbus.StartSend:
		d.TransferStarted()
	case i2cbus.Finish:
		d.fault(d.TransferEnded())
	}
	return nil
}

// Send implements i2cbus.Slave.
//
// Every byte is acknowledged; faults are logged and kept for Err.
func (d *Dev) Send(b byte) error {
	d.fault(d.Receive(b))
	return nil
}

// Recv implements i2cbus.Slave.
//
// It returns the status byte: bit 6 is set while the display is off and the
// low bits hold the 128x64 device ID.
func (d *Dev) Recv() byte {
	s := byte(statusID)
	if !d.enabled {
		s |= statusDisplayOff
	}
	return s
}

// TransferStarted prepares for a new transfer, which begins with a control
// byte.
func (d *Dev) TransferStarted() {
	d.receivedDC = false
}

// TransferEnded handles a STOP. A command still waiting for parameters runs
// with the parameters received so far.
func (d *Dev) TransferEnded() error {
	if !d.inCommand {
		return nil
	}
	d.inCommand = false
	d.log.Debugf("transfer ended with %d of %d parameters for command %#02x", len(d.params), d.paramsNumber, d.command)
	return d.dispatch()
}

// Receive interprets one byte written by the bus master.
//
// The first byte of a transfer is the control byte; its D/C# bit selects
// whether the rest of the transfer is commands or GDDRAM data. It only
// returns an error for paths the model does not implement.
func (d *Dev) Receive(b byte) error {
	if !d.receivedDC {
		d.receivedDC = true
		if b&controlDC == 0 {
			d.dataMode = Command
		} else {
			d.dataMode = Data
		}
		return nil
	}

	if d.dataMode == Data {
		return d.WriteRAM(b)
	}

	if d.inCommand {
		d.params = append(d.params, b)
		if len(d.params) == d.paramsNumber {
			d.inCommand = false
			return d.dispatch()
		}
		return nil
	}

	d.command = b
	d.params = d.params[:0]
	d.paramsNumber = paramCount(b)
	if d.paramsNumber == 0 {
		return d.dispatch()
	}
	d.inCommand = true
	return nil
}

func (d *Dev) fault(err error) {
	if err == nil {
		return
	}
	d.err = err
	d.log.Error(err)
}

const (
	// controlDC is the D/C# bit of the control byte.
	controlDC = 0x40

	statusDisplayOff = 0x40
	statusID         = 0x06
)

var _ conn.Resource = &Dev{}
var _ i2cbus.Slave = &Dev{}
