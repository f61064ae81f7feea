// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1306

import (
	"image"

	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Surface is the host display surface the panel is rendered into.
//
// Pixels are 32-bit ARGB words, row-major, Stride words per row.
type Surface interface {
	Size() image.Point
	Stride() int
	Pixels() []uint32
}

// Pixel values written by Render.
const (
	PixelOn  uint32 = 0xFFFFFFFF
	PixelOff uint32 = 0xFF000000
)

// SurfaceSize returns the surface size to request from the host: the panel
// size times the Magnify option.
func (d *Dev) SurfaceSize() image.Point {
	return image.Pt(Width*d.magnify, Height*d.magnify)
}

// Render draws the panel into s, one surface pixel per panel pixel at (x, y).
// Surfaces smaller than the panel are clipped, as are rows past the end of
// the pixel buffer.
//
// A display turned off is black. Command 0xA5 lights every pixel, command
// 0xA7 inverts the GDDRAM bits.
func (d *Dev) Render(s Surface) {
	size := s.Size()
	stride := s.Stride()
	pix := s.Pixels()
	if stride <= 0 {
		return
	}
	w := min(size.X, Width, stride)
	h := min(size.Y, Height)
	for y := 0; y < h; y++ {
		if y*stride+w > len(pix) {
			break
		}
		row := pix[y*stride : y*stride+w]
		page := y / 8
		bit := uint(y % 8)
		for x := range row {
			on := (d.gddram[page*Width+x]>>bit)&1 == 1
			switch {
			case !d.enabled:
				on = false
			case d.forceOn:
				on = true
			case d.inverted:
				on = !on
			}
			if on {
				row[x] = PixelOn
			} else {
				row[x] = PixelOff
			}
		}
	}
}

// Image returns a copy of the GDDRAM as an image. The layout of
// image1bit.VerticalLSB is the GDDRAM layout; the display state (on/off,
// inversion) is not applied.
func (d *Dev) Image() *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, Width, Height))
	copy(img.Pix, d.gddram[:])
	return img
}
