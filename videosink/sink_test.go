// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package videosink

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestNewHalt(t *testing.T) {
	s := New(&Opts{Width: 100, Height: 100})
	if err := s.Halt(); err != nil {
		t.Errorf("Halt() failed: %v", err)
	}
	if s.String() != "VideoSink" {
		t.Error(s.String())
	}
}

func TestDrawDedupe(t *testing.T) {
	s := New(&Opts{Width: 8, Height: 8})
	c := s.subscribe()
	defer s.unsubscribe(c)
	if got := s.Frames(); got != 1 {
		t.Fatalf("Frames() = %d", got)
	}

	// Black on black is not a change.
	if err := s.Draw(s.Bounds(), image.Black, image.Point{}); err != nil {
		t.Fatal(err)
	}
	select {
	case <-c.refresh:
		t.Fatal("client woken up without a change")
	default:
	}

	if err := s.Draw(image.Rect(2, 2, 3, 3), image.White, image.Point{}); err != nil {
		t.Fatal(err)
	}
	select {
	case <-c.refresh:
	default:
		t.Fatal("client not woken up")
	}
	if got := s.Frames(); got != 2 {
		t.Fatalf("Frames() = %d", got)
	}
	if s.Clients() != 1 {
		t.Fatalf("Clients() = %d", s.Clients())
	}
}

func TestScale(t *testing.T) {
	s := New(&Opts{Width: 4, Height: 2, Scale: 3})
	if got := s.Bounds().Size(); got != image.Pt(4, 2) {
		t.Fatalf("Bounds() size = %v", got)
	}
	if err := s.Draw(image.Rect(1, 0, 2, 1), image.White, image.Point{}); err != nil {
		t.Fatal(err)
	}
	b, err := s.grab(PNG)
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	if got := img.Bounds().Size(); got != image.Pt(12, 6) {
		t.Fatalf("image size = %v", got)
	}
	white := color.RGBAModel.Convert(color.White)
	black := color.RGBAModel.Convert(color.Black)
	for y := 0; y < 6; y++ {
		for x := 0; x < 12; x++ {
			want := black
			if x >= 3 && x < 6 && y < 3 {
				want = white
			}
			if got := color.RGBAModel.Convert(img.At(x, y)); got != want {
				t.Fatalf("pixel (%d, %d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestGrabCaches(t *testing.T) {
	s := New(&Opts{Width: 4, Height: 4, Format: JPEG, JPEGQuality: 50})
	a, err := s.grab(JPEG)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.snapshot) != 1 {
		t.Fatalf("%d cached frames", len(s.snapshot))
	}
	b, err := s.grab(JPEG)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Fatal("cached frame differs")
	}
	if _, err := s.grab(ImageFormat(7)); err == nil {
		t.Fatal("grab() with an unknown format succeeded")
	}
}
