// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package surface implements the host display surface emulated displays
// render into: a fixed size buffer of 32-bit ARGB pixels, one word per pixel,
// row-major.
//
// ARGB also implements image.Image so a rendered frame can be drawn into any
// display.Drawer.
package surface

import (
	"image"
	"image/color"
)

// ARGB is a row-major buffer of 0xAARRGGBB pixels.
type ARGB struct {
	// Pix holds the pixels; pixel (x, y) is Pix[y*Rect.Dx()+x].
	Pix  []uint32
	Rect image.Rectangle
}

// New returns a w×h surface of transparent black pixels.
func New(w, h int) *ARGB {
	return &ARGB{
		Pix:  make([]uint32, w*h),
		Rect: image.Rect(0, 0, w, h),
	}
}

// Size returns the surface dimensions.
func (s *ARGB) Size() image.Point {
	return s.Rect.Size()
}

// Stride returns the number of words per row.
func (s *ARGB) Stride() int {
	return s.Rect.Dx()
}

// Pixels returns the pixel buffer.
func (s *ARGB) Pixels() []uint32 {
	return s.Pix
}

// ColorModel implements image.Image.
func (s *ARGB) ColorModel() color.Model {
	return color.NRGBAModel
}

// Bounds implements image.Image.
func (s *ARGB) Bounds() image.Rectangle {
	return s.Rect
}

// At implements image.Image.
func (s *ARGB) At(x, y int) color.Color {
	if !(image.Point{x, y}.In(s.Rect)) {
		return color.NRGBA{}
	}
	return toNRGBA(s.Pix[(y-s.Rect.Min.Y)*s.Rect.Dx()+x-s.Rect.Min.X])
}

// Fill sets every pixel to v.
func (s *ARGB) Fill(v uint32) {
	for i := range s.Pix {
		s.Pix[i] = v
	}
}

func toNRGBA(v uint32) color.NRGBA {
	return color.NRGBA{R: byte(v >> 16), G: byte(v >> 8), B: byte(v), A: byte(v >> 24)}
}

var _ image.Image = &ARGB{}
