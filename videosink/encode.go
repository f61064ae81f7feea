// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package videosink

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"sync"
)

// bufferPool holds encoded frames.
var bufferPool = sync.Pool{
	New: func() interface{} {
		return []byte(nil)
	},
}

func getBuffer() []byte {
	return bufferPool.Get().([]byte)[:0]
}

func putBuffer(b []byte) {
	if b != nil {
		//lint:ignore SA6002 b is a slice and thus pointer-like
		bufferPool.Put(b)
	}
}

// pngBuffers implements png.EncoderBufferPool on a sync.Pool.
type pngBuffers struct {
	p sync.Pool
}

func (b *pngBuffers) Get() *png.EncoderBuffer {
	buf, _ := b.p.Get().(*png.EncoderBuffer)
	return buf
}

func (b *pngBuffers) Put(buf *png.EncoderBuffer) {
	b.p.Put(buf)
}

// pngEncoders shares one encoder per compression level, and one buffer pool
// between all of them.
var pngEncoders struct {
	mu   sync.Mutex
	bufs pngBuffers
	enc  map[png.CompressionLevel]*png.Encoder
}

func pngEncoder(level png.CompressionLevel) *png.Encoder {
	pngEncoders.mu.Lock()
	defer pngEncoders.mu.Unlock()
	if e := pngEncoders.enc[level]; e != nil {
		return e
	}
	if pngEncoders.enc == nil {
		pngEncoders.enc = map[png.CompressionLevel]*png.Encoder{}
	}
	e := &png.Encoder{CompressionLevel: level, BufferPool: &pngEncoders.bufs}
	pngEncoders.enc[level] = e
	return e
}

// encoding holds the encoder settings of a Sink.
type encoding struct {
	pngLevel png.CompressionLevel
	jpeg     jpeg.Options
}

// encode returns img in format in a buffer from bufferPool.
func (e *encoding) encode(img image.Image, format ImageFormat) ([]byte, error) {
	buf := bytes.NewBuffer(getBuffer())
	var err error
	switch format {
	case PNG:
		err = pngEncoder(e.pngLevel).Encode(buf, img)
	case JPEG:
		err = jpeg.Encode(buf, img, &e.jpeg)
	default:
		err = fmt.Errorf("videosink: unhandled image format %s", format)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
