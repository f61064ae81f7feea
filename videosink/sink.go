// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package videosink

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"sync"

	"github.com/cespare/xxhash"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
	"periph.io/x/conn/v3/display"
)

// Opts defines the options for a Sink.
type Opts struct {
	// Width and Height are the size of the drawing area.
	Width, Height int
	// Scale is the integer magnification of the images sent to clients.
	// Values below 1 mean 1.
	Scale int
	// Format specifies the image format sent to clients.
	Format ImageFormat
	// PNGCompression is the PNG compression level.
	PNGCompression png.CompressionLevel
	// JPEGQuality is the JPEG quality, 1 to 100. 0 means
	// jpeg.DefaultQuality.
	JPEGQuality int
	// Logger receives request failures. Defaults to logrus.StandardLogger().
	Logger logrus.FieldLogger
}

// Sink is a display.Drawer serving its content over HTTP.
type Sink struct {
	format ImageFormat
	enc    encoding
	scale  int
	log    logrus.FieldLogger

	mu sync.Mutex
	// frame is the drawing area; out is frame magnified by scale.
	frame *image.RGBA
	out   *image.RGBA
	// hash is the xxhash of frame.Pix.
	hash     uint64
	frames   int
	clients  map[*client]struct{}
	snapshot map[ImageFormat][]byte
}

// New returns a Sink with a black drawing area.
func New(opts *Opts) *Sink {
	scale := opts.Scale
	if scale < 1 {
		scale = 1
	}
	q := opts.JPEGQuality
	if q == 0 {
		q = jpeg.DefaultQuality
	}
	l := opts.Logger
	if l == nil {
		l = logrus.StandardLogger()
	}
	s := &Sink{
		log:      l.WithField("dev", "videosink"),
		format:   opts.Format,
		enc:      encoding{pngLevel: opts.PNGCompression, jpeg: jpeg.Options{Quality: q}},
		scale:    scale,
		frame:    image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height)),
		clients:  map[*client]struct{}{},
		snapshot: map[ImageFormat][]byte{},
	}
	// The alpha channel starts transparent; make it opaque.
	draw.Draw(s.frame, s.frame.Bounds(), image.Black, image.Point{}, draw.Src)
	s.out = s.frame
	if scale > 1 {
		s.out = image.NewRGBA(image.Rect(0, 0, opts.Width*scale, opts.Height*scale))
	}
	s.updateLocked()
	return s
}

func (s *Sink) String() string {
	return "VideoSink"
}

// Halt implements conn.Resource.
//
// It ends all running client requests asynchronously.
func (s *Sink) Halt() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.terminate <- struct{}{}:
		default:
		}
	}
	return nil
}

// ColorModel implements display.Drawer.
func (s *Sink) ColorModel() color.Model {
	return s.frame.ColorModel()
}

// Bounds implements display.Drawer.
func (s *Sink) Bounds() image.Rectangle {
	return s.frame.Bounds()
}

// Draw implements display.Drawer.
//
// Clients are only woken up when the drawing area changed.
func (s *Sink) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	draw.Draw(s.frame, r, src, sp, draw.Src)
	if xxhash.Sum64(s.frame.Pix) == s.hash {
		return nil
	}
	s.updateLocked()
	s.notifyLocked()
	return nil
}

// Frames returns the number of distinct frames drawn since New, the initial
// black frame included.
func (s *Sink) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Clients returns the number of connected clients.
func (s *Sink) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// updateLocked records a new frame and magnifies it into out.
func (s *Sink) updateLocked() {
	s.hash = xxhash.Sum64(s.frame.Pix)
	s.frames++
	if s.out != s.frame {
		draw.NearestNeighbor.Scale(s.out, s.out.Bounds(), s.frame, s.frame.Bounds(), draw.Src, nil)
	}
}

// notifyLocked drops the encoded frames and wakes up clients.
func (s *Sink) notifyLocked() {
	for f, b := range s.snapshot {
		putBuffer(b)
		delete(s.snapshot, f)
	}
	for c := range s.clients {
		select {
		case c.refresh <- struct{}{}:
		default:
		}
	}
}

// grab returns a copy of the current frame in format, encoding it once per
// frame. The caller owns the returned buffer.
func (s *Sink) grab(format ImageFormat) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.snapshot[format]
	if !ok {
		var err error
		if b, err = s.enc.encode(s.out, format); err != nil {
			return nil, err
		}
		s.snapshot[format] = b
	}
	return append(getBuffer(), b...), nil
}

// client is a connected request.
type client struct {
	refresh   chan struct{}
	terminate chan struct{}
}

func (s *Sink) subscribe() *client {
	c := &client{
		refresh:   make(chan struct{}, 1),
		terminate: make(chan struct{}, 1),
	}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	return c
}

func (s *Sink) unsubscribe(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
}

var _ display.Drawer = (*Sink)(nil)
var _ http.Handler = (*Sink)(nil)
