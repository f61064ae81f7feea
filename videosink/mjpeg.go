// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package videosink

import (
	"bufio"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
)

// formatFromQuery returns the format requested by the "format" parameter.
func (s *Sink) formatFromQuery(values url.Values) (ImageFormat, error) {
	if v := values.Get("format"); v != "" {
		return ParseImageFormat(v)
	}
	return s.format, nil
}

// ServeHTTP handles GET requests with a never ending multipart response, one
// image per part: the current frame, then one per change. Clients can
// request PNG or JPEG images with the "format" parameter ("?format=png",
// "?format=jpeg").
func (s *Sink) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.Body.Close(); err != nil {
		s.log.Warnf("closing request body failed: %v", err)
	}
	if r.Method != http.MethodGet {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}
	format, err := s.formatFromQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	fs := newFrameStream(w, format)
	w.Header().Set("Content-Type", fs.contentType())

	c := s.subscribe()
	defer s.unsubscribe(c)
	for {
		payload, err := s.grab(format)
		if err != nil {
			s.log.Error(err)
			return
		}
		err = fs.send(payload)
		putBuffer(payload)
		if err != nil {
			// There is no way to report an error within an image stream.
			return
		}
		select {
		case <-c.refresh:
		case <-c.terminate:
			return
		case <-r.Context().Done():
			return
		}
	}
}

// frameStream is a multipart/x-mixed-replace body of frames in one format.
//
// Each part is terminated by the next delimiter as soon as it is sent, so
// the client displays a frame without waiting for the following one.
// mime/multipart.Writer only writes a delimiter when the next part starts.
type frameStream struct {
	w        io.Writer
	flusher  http.Flusher
	boundary string
	mimeType string
	frames   int
}

func newFrameStream(w io.Writer, format ImageFormat) *frameStream {
	fs := &frameStream{
		w: w,
		// The boundary generator is the only part of multipart.Writer used.
		boundary: multipart.NewWriter(io.Discard).Boundary(),
		mimeType: format.mimeType(),
	}
	fs.flusher, _ = w.(http.Flusher)
	return fs
}

// contentType is the value of the response Content-Type header.
func (fs *frameStream) contentType() string {
	return mime.FormatMediaType("multipart/x-mixed-replace", map[string]string{"boundary": fs.boundary})
}

// send writes frame as one part, closes it with a delimiter and flushes.
func (fs *frameStream) send(frame []byte) error {
	bw := bufio.NewWriterSize(fs.w, len(frame)+256)
	if fs.frames == 0 {
		bw.WriteString("--" + fs.boundary + "\r\n")
	}
	bw.WriteString("Content-Type: " + fs.mimeType + "\r\n")
	bw.WriteString("Content-Transfer-Encoding: binary\r\n")
	bw.WriteString("Content-Length: " + strconv.Itoa(len(frame)) + "\r\n\r\n")
	bw.Write(frame)
	bw.WriteString("\r\n--" + fs.boundary + "\r\n")
	if err := bw.Flush(); err != nil {
		return err
	}
	fs.frames++
	if fs.flusher != nil {
		fs.flusher.Flush()
	}
	return nil
}
