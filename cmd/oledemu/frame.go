// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"image"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/GermanBionicSystems/periphemu/ssd1306"
)

var banner font.Face

func init() {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
	banner = truetype.NewFace(f, &truetype.Options{Size: 18})
}

// compose draws the demo frame: a border, text in a TrueType face and the
// time of day below it.
func compose(text string, now time.Time) *image1bit.VerticalLSB {
	rect := image.Rect(0, 0, ssd1306.Width, ssd1306.Height)
	rgba := image.NewRGBA(rect)
	dc := gg.NewContextForRGBA(rgba)
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	dc.SetRGB(1, 1, 1)
	dc.SetLineWidth(1)
	dc.DrawRectangle(0.5, 0.5, float64(ssd1306.Width-1), float64(ssd1306.Height-1))
	dc.Stroke()
	dc.SetFontFace(banner)
	dc.DrawStringAnchored(text, ssd1306.Width/2, 24, 0.5, 0.5)

	clock := now.Format("15:04:05")
	f := basicfont.Face7x13
	d := font.Drawer{
		Dst:  rgba,
		Src:  image.White,
		Face: f,
	}
	w := d.MeasureString(clock)
	d.Dot = fixed.Point26_6{
		X: (fixed.I(ssd1306.Width) - w) / 2,
		Y: fixed.I(ssd1306.Height - 10),
	}
	d.DrawString(clock)

	img := image1bit.NewVerticalLSB(rect)
	draw.Draw(img, rect, rgba, image.Point{}, draw.Src)
	return img
}

// frameWindow selects the whole GDDRAM so a frame is one data transfer.
var frameWindow = []byte{0x00, 0x21, 0, ssd1306.Width - 1, 0x22, 0, ssd1306.Pages - 1}

// sendFrame writes img to the controller at dev in horizontal addressing
// mode.
func sendFrame(dev conn.Conn, img *image1bit.VerticalLSB) error {
	if err := dev.Tx(frameWindow, nil); err != nil {
		return err
	}
	return dev.Tx(append([]byte{0x40}, img.Pix...), nil)
}
