// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1306

import "fmt"

// WriteRAM stores b at the current column and page pointers and advances them
// according to the addressing mode.
//
// Only the horizontal addressing mode is emulated; in the other modes nothing
// is written and an error wrapping ErrNotImplemented is returned.
func (d *Dev) WriteRAM(b byte) error {
	switch d.mode {
	case Horizontal:
		// The RAM is always 128 columns wide, regardless of colEnd.
		d.gddram[int(d.pagePtr&0x07)*Width+int(d.colPtr&0x7F)] = b
		d.colPtr++
		if d.colPtr > d.colEnd {
			d.colPtr = d.colStart
			d.pagePtr++
			if d.pagePtr > d.pageEnd {
				d.pagePtr = d.pageStart
			}
		}
		return nil
	case Vertical:
		return fmt.Errorf("%w: GDDRAM write in vertical addressing mode", ErrNotImplemented)
	default:
		return fmt.Errorf("%w: GDDRAM write in page addressing mode", ErrNotImplemented)
	}
}
