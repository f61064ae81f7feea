// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1306

import "fmt"

// Command opcodes. Page 28 of the datasheet lists them all.
const (
	_SETLOWCOLUMN        = 0x00
	_SETHIGHCOLUMN       = 0x10
	_MEMORYMODE          = 0x20
	_COLUMNADDR          = 0x21
	_PAGEADDR            = 0x22
	_RIGHT_SCROLL        = 0x26
	_LEFT_SCROLL         = 0x27
	_UP_RIGHT_SCROLL     = 0x29
	_UP_LEFT_SCROLL      = 0x2A
	_DEACTIVATE_SCROLL   = 0x2E
	_ACTIVATE_SCROLL     = 0x2F
	_SETSTARTLINE        = 0x40
	_SETCONTRAST         = 0x81
	_CHARGEPUMP          = 0x8D
	_SEGREMAP            = 0xA0
	_SETSEGMENTREMAP     = 0xA1
	_SET_VSCROLL_AREA    = 0xA3
	_DISPLAYALLON_RESUME = 0xA4
	_DISPLAYALLON        = 0xA5
	_NORMALDISPLAY       = 0xA6
	_INVERTDISPLAY       = 0xA7
	_SETMULTIPLEX        = 0xA8
	_DISPLAYOFF          = 0xAE
	_DISPLAYON           = 0xAF
	_PAGESTARTADDRESS    = 0xB0
	_COMSCANINC          = 0xC0
	_COMSCANDEC          = 0xC8
	_SETDISPLAYOFFSET    = 0xD3
	_SETDISPLAYCLOCKDIV  = 0xD5
	_SETPRECHARGE        = 0xD9
	_SETCOMPINS          = 0xDA
	_SETVCOMDETECT       = 0xDB
	_NOP                 = 0xE3
)

// paramCount returns the number of parameter bytes following cmd.
//
// For example 0x26 is followed by 6 bytes.
func paramCount(cmd byte) int {
	switch cmd {
	case _SETCONTRAST, 0x01, _MEMORYMODE, _SETDISPLAYOFFSET, _SETCOMPINS,
		_SETDISPLAYCLOCKDIV, _SETPRECHARGE, _SETVCOMDETECT, _SETMULTIPLEX, _CHARGEPUMP:
		return 1
	case _RIGHT_SCROLL, _LEFT_SCROLL:
		return 6
	case _UP_RIGHT_SCROLL, _UP_LEFT_SCROLL:
		return 5
	case _SET_VSCROLL_AREA, _COLUMNADDR, _PAGEADDR:
		return 2
	default:
		return 0
	}
}

// param returns the i-th parameter of the current command. A missing one is
// reported as a diagnostic.
func (d *Dev) param(i int, name string) (byte, bool) {
	if i < len(d.params) {
		return d.params[i], true
	}
	d.log.Warnf("command %#02x: expected parameter %q", d.command, name)
	return 0, false
}

// dispatch runs the current command with the parameters collected in
// d.params. The transfer may have ended early so the parameters can be
// incomplete.
func (d *Dev) dispatch() error {
	switch c := d.command; {
	// Fundamental commands.
	case c == _SETCONTRAST:
		if v, ok := d.param(0, "contrast"); ok {
			d.contrast = v
		}
	case c == _DISPLAYALLON_RESUME:
		d.forceOn = false
	case c == _DISPLAYALLON:
		d.forceOn = true
	case c == _NORMALDISPLAY:
		d.inverted = false
	case c == _INVERTDISPLAY:
		d.inverted = true
	case c == _DISPLAYOFF:
		d.enabled = false
	case c == _DISPLAYON:
		d.enabled = true

	// Addressing setting commands.
	case c <= _SETLOWCOLUMN|0x0F:
		return fmt.Errorf("%w: command %#02x (page mode column start low nibble)", ErrNotImplemented, c)
	case c <= _SETHIGHCOLUMN|0x0F:
		return fmt.Errorf("%w: command %#02x (page mode column start high nibble)", ErrNotImplemented, c)
	case c >= _PAGESTARTADDRESS && c <= _PAGESTARTADDRESS|0x07:
		return fmt.Errorf("%w: command %#02x (page mode page start)", ErrNotImplemented, c)
	case c == _MEMORYMODE:
		v, ok := d.param(0, "mode")
		if !ok {
			break
		}
		// The 2 LSBs are the mode.
		if m := AddressingMode(v & 0x3); m <= Page {
			d.mode = m
			d.log.Debugf("memory addressing mode %s", m)
		} else {
			d.log.Warnf("invalid memory addressing mode %#02x", v)
		}
	case c == _COLUMNADDR:
		if d.mode == Page {
			d.log.Warn("setting the column address is not allowed in page addressing mode")
			break
		}
		if v, ok := d.param(0, "column start"); ok {
			d.colStart = v & 0x7F
		}
		if v, ok := d.param(1, "column end"); ok {
			d.colEnd = v & 0x7F
		}
		d.colPtr = d.colStart
		d.warnWindow()
	case c == _PAGEADDR:
		if d.mode == Page {
			d.log.Warn("setting the page address is not allowed in page addressing mode")
			break
		}
		if v, ok := d.param(0, "page start"); ok {
			d.pageStart = v & 0x07
		}
		if v, ok := d.param(1, "page end"); ok {
			d.pageEnd = v & 0x07
		}
		d.pagePtr = d.pageStart
		d.warnWindow()

	// Hardware configuration commands.
	case c >= _SETSTARTLINE && c <= _SETSTARTLINE|0x3F:
		d.startLine = c & 0x3F
	case c == _SEGREMAP:
		d.segmentRemap = false
	case c == _SETSEGMENTREMAP:
		d.segmentRemap = true
	case c == _SETMULTIPLEX:
		v, ok := d.param(0, "ratio")
		if !ok {
			break
		}
		if r := v & 0x3F; r >= 16 {
			d.multiplexRatio = r
		} else {
			d.log.Warnf("unsupported multiplex ratio %d", r)
		}
	case c == _COMSCANINC:
		d.comRemap = false
	case c == _COMSCANDEC:
		d.comRemap = true
	case c == _SETDISPLAYOFFSET:
		if v, ok := d.param(0, "offset"); ok {
			d.displayOffset = v & 0x3F
		}
	case c == _SETCOMPINS:
		// A[4] selects the alternative COM pin configuration, A[5] the
		// left/right remap.
		if v, ok := d.param(0, "com pins"); ok {
			d.comPins = v&0x30 | 0x02
		}

	// Timing and driving scheme commands. Accepted, not modelled.
	case c == _SETDISPLAYCLOCKDIV:
		d.param(0, "ratio")
	case c == _SETPRECHARGE:
		d.param(0, "period")
	case c == _SETVCOMDETECT:
		d.param(0, "level")
	case c == _CHARGEPUMP:
		if v, ok := d.param(0, "charge pump"); ok {
			d.log.Debugf("charge pump %#02x", v)
		}
	case c == _NOP:

	case c == _RIGHT_SCROLL, c == _LEFT_SCROLL, c == _UP_RIGHT_SCROLL, c == _UP_LEFT_SCROLL,
		c == _SET_VSCROLL_AREA, c == _DEACTIVATE_SCROLL, c == _ACTIVATE_SCROLL:
		d.log.Warnf("command %#02x: scrolling is not emulated", c)
	default:
		d.log.Warnf("unknown command %#02x", c)
	}
	return nil
}

// warnWindow reports an addressing window with start past end. Writes then
// keep landing on the start address.
func (d *Dev) warnWindow() {
	if d.colStart > d.colEnd || d.pageStart > d.pageEnd {
		d.log.Warnf("empty addressing window columns %d-%d pages %d-%d", d.colStart, d.colEnd, d.pageStart, d.pageEnd)
	}
}
