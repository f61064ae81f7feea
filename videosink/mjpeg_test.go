// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package videosink

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestFrameStream(t *testing.T) {
	var b bytes.Buffer
	fs := newFrameStream(&b, JPEG)
	if len(fs.boundary) < 30 {
		t.Fatalf("boundary %q is too short", fs.boundary)
	}
	if other := newFrameStream(&b, JPEG); other.boundary == fs.boundary {
		t.Fatal("boundaries are not random")
	}
	mt, params, err := mime.ParseMediaType(fs.contentType())
	if err != nil {
		t.Fatal(err)
	}
	if mt != "multipart/x-mixed-replace" || params["boundary"] != fs.boundary {
		t.Fatalf("contentType() = %q", fs.contentType())
	}
	for _, frame := range []string{"one", "second"} {
		if err := fs.send([]byte(frame)); err != nil {
			t.Fatal(err)
		}
	}
	d := "--" + fs.boundary + "\r\n"
	want := d +
		"Content-Type: image/jpeg\r\nContent-Transfer-Encoding: binary\r\nContent-Length: 3\r\n\r\none\r\n" + d +
		"Content-Type: image/jpeg\r\nContent-Transfer-Encoding: binary\r\nContent-Length: 6\r\n\r\nsecond\r\n" + d
	if got := b.String(); got != want {
		t.Fatalf("body %q, want %q", got, want)
	}
}

func decoder(mediaType string) func(io.Reader) (image.Image, error) {
	switch mediaType {
	case "image/png":
		return png.Decode
	case "image/jpeg":
		return jpeg.Decode
	default:
		return func(io.Reader) (image.Image, error) {
			return nil, errors.New("unknown image format")
		}
	}
}

// readParts decodes the parts of resp and calls onImage for each until it
// returns false.
func readParts(t *testing.T, resp *http.Response, wantMediaType string, onImage func(image.Image) bool) {
	t.Helper()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d, want %d", resp.StatusCode, http.StatusOK)
	}
	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		t.Fatal(err)
	}
	if mediaType != "multipart/x-mixed-replace" {
		t.Fatalf("Content-Type is %q", mediaType)
	}
	if b := params["boundary"]; len(b) < 50 {
		t.Fatalf("Insufficient boundary: %q", b)
	}
	mr := multipart.NewReader(resp.Body, params["boundary"])
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) || (err != nil && strings.HasSuffix(err.Error(), " EOF")) {
			return
		}
		if err != nil {
			t.Fatalf("NextPart() failed: %v", err)
		}
		n, err := strconv.Atoi(part.Header.Get("Content-Length"))
		if err != nil {
			t.Fatalf("Content-Length: %v", err)
		}
		mt, _, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if err != nil {
			t.Fatal(err)
		}
		if mt != wantMediaType {
			t.Fatalf("part Content-Type %q, want %q", mt, wantMediaType)
		}
		content, err := io.ReadAll(part)
		if err != nil {
			t.Fatal(err)
		}
		if len(content) != n {
			t.Fatalf("read %d bytes, Content-Length is %d", len(content), n)
		}
		img, err := decoder(mt)(bytes.NewReader(content))
		if err != nil {
			t.Fatalf("decoding image failed: %v", err)
		}
		if !onImage(img) {
			return
		}
	}
}

func TestMultipartResponse(t *testing.T) {
	for _, tc := range []struct {
		name          string
		opts          Opts
		target        string
		wantMediaType string
		wantSize      image.Point
	}{
		{"defaults", Opts{Width: 120, Height: 200}, "/", "image/png", image.Pt(120, 200)},
		{"default JPEG", Opts{Width: 200, Height: 100, Format: JPEG}, "/", "image/jpeg", image.Pt(200, 100)},
		{"format param PNG", Opts{Width: 234, Height: 123, Format: JPEG}, "/?format=png", "image/png", image.Pt(234, 123)},
		{"format param JPEG", Opts{Width: 123, Height: 456}, "/?format=jpeg", "image/jpeg", image.Pt(123, 456)},
		{"scaled", Opts{Width: 128, Height: 64, Scale: 2}, "/", "image/png", image.Pt(256, 128)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			t.Cleanup(cancel)

			s := New(&tc.opts)
			srv := httptest.NewServer(s)
			t.Cleanup(srv.Close)
			t.Cleanup(srv.CloseClientConnections)

			quit := make(chan struct{})
			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				// Alternate colors, identical frames are not sent.
				srcs := []image.Image{image.White, image.Black}
				for i := 0; ; i++ {
					if err := s.Draw(s.Bounds(), srcs[i%2], image.Point{}); err != nil {
						t.Errorf("Draw() failed: %v", err)
					}
					select {
					case <-quit:
						return
					case <-ctx.Done():
						return
					case <-time.After(10 * time.Millisecond):
					}
				}
			}()

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+tc.target, nil)
			if err != nil {
				t.Fatal(err)
			}
			resp, err := srv.Client().Do(req)
			if err != nil {
				t.Fatalf("Get() failed: %v", err)
			}
			defer resp.Body.Close()

			remaining := 10
			readParts(t, resp, tc.wantMediaType, func(img image.Image) bool {
				if got := img.Bounds().Size(); got != tc.wantSize {
					t.Errorf("image size %v, want %v", got, tc.wantSize)
				}
				if remaining--; remaining == 0 {
					if err := s.Halt(); err != nil {
						t.Errorf("Halt() failed: %v", err)
					}
				}
				return true
			})
			if remaining > 0 {
				t.Errorf("stream ended with %d images left", remaining)
			}
			close(quit)
			wg.Wait()
		})
	}
}

func TestRequestStatus(t *testing.T) {
	for _, tc := range []struct {
		name       string
		method     string
		target     string
		wantStatus int
	}{
		{"empty format", http.MethodGet, "/?format=", http.StatusOK},
		{"bad format", http.MethodGet, "/?format=bmp", http.StatusBadRequest},
		{"post", http.MethodPost, "/", http.StatusMethodNotAllowed},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := New(&Opts{Width: 16, Height: 16})
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			t.Cleanup(cancel)
			srv := httptest.NewServer(s)
			t.Cleanup(srv.Close)
			t.Cleanup(srv.CloseClientConnections)

			req, err := http.NewRequestWithContext(ctx, tc.method, srv.URL+tc.target, nil)
			if err != nil {
				t.Fatal(err)
			}
			resp, err := srv.Client().Do(req)
			if err != nil {
				t.Fatalf("Do() failed: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tc.wantStatus {
				t.Errorf("%s %s returned status %d, want %d", req.Method, req.URL, resp.StatusCode, tc.wantStatus)
			}
		})
	}
}
