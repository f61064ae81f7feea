// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package screen2d implements a 2D display.Drawer that outputs to the
// terminal using ANSI 256 color codes, one colored block per pixel.
//
// Useful to watch an emulated panel without a browser.
package screen2d

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/display"
)

// Opts represents the options available for this display.
type Opts struct {
	X, Y int
	// Step keeps one pixel out of Step on each axis, to fit a large image in
	// a terminal. Values below 1 mean 1.
	Step    int
	Palette *ansi256.Palette
	// Out is where the frames are written. Defaults to stdout.
	Out io.Writer

	_ struct{}
}

// Dev is a 2D display emulator that outputs to the console.
type Dev struct {
	w       io.Writer
	rect    image.Rectangle
	step    int
	palette ansi256.Palette

	pixels []color.NRGBA
	buf    bytes.Buffer
	// lines is the number of lines written by the last refresh.
	lines int
}

// New returns a Dev that displays at the console.
func New(opts *Opts) *Dev {
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.Out
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	step := opts.Step
	if step < 1 {
		step = 1
	}
	return &Dev{
		w:       w,
		rect:    image.Rect(0, 0, opts.X, opts.Y),
		step:    step,
		palette: *p,
		pixels:  make([]color.NRGBA, opts.X*opts.Y),
	}
}

func (d *Dev) String() string {
	return fmt.Sprintf("Screen2D{%d×%d}", d.rect.Dx(), d.rect.Dy())
}

// Halt implements conn.Resource.
//
// It resets the terminal colors.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\033[0m\n"))
	return err
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return color.NRGBAModel
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// Draw implements display.Drawer.
//
// Every call repaints the whole screen in place.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	r = r.Intersect(d.rect)
	delta := sp.Sub(r.Min)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			d.pixels[y*d.rect.Dx()+x] = color.NRGBAModel.Convert(src.At(x+delta.X, y+delta.Y)).(color.NRGBA)
		}
	}
	return d.refresh()
}

func (d *Dev) refresh() error {
	d.buf.Reset()
	if d.lines != 0 {
		// Move back to the top left corner of the previous frame.
		fmt.Fprintf(&d.buf, "\033[%dA", d.lines)
	}
	d.lines = 0
	w := d.rect.Dx()
	for y := 0; y < d.rect.Dy(); y += d.step {
		_, _ = d.buf.WriteString("\r")
		for x := 0; x < w; x += d.step {
			_, _ = io.WriteString(&d.buf, d.palette.Block(d.pixels[y*w+x]))
		}
		_, _ = d.buf.WriteString("\033[0m\n")
		d.lines++
	}
	_, err := d.buf.WriteTo(d.w)
	return err
}

var _ display.Drawer = &Dev{}
var _ fmt.Stringer = &Dev{}
