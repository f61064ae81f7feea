// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package videosink

import "fmt"

// ImageFormat is the encoding of the frames sent to clients.
type ImageFormat int

// Supported formats.
const (
	PNG ImageFormat = iota
	JPEG

	// DefaultFormat is used when neither the options nor the request select
	// a format.
	DefaultFormat = PNG
)

// formats is indexed by ImageFormat. The name is the one accepted in the
// "format" URL parameter and on the command line.
var formats = [...]struct {
	name     string
	mimeType string
}{
	PNG:  {"png", "image/png"},
	JPEG: {"jpeg", "image/jpeg"},
}

func (f ImageFormat) valid() bool {
	return f >= 0 && int(f) < len(formats)
}

func (f ImageFormat) String() string {
	if !f.valid() {
		return fmt.Sprintf("ImageFormat(%d)", int(f))
	}
	return formats[f].name
}

// Set implements flag.Value.
func (f *ImageFormat) Set(value string) error {
	v, err := ParseImageFormat(value)
	if err == nil {
		*f = v
	}
	return err
}

func (f ImageFormat) mimeType() string {
	if !f.valid() {
		return "application/octet-stream"
	}
	return formats[f].mimeType
}

// ParseImageFormat returns the format named value. "jpg" is an alias of
// "jpeg".
func ParseImageFormat(value string) (ImageFormat, error) {
	if value == "jpg" {
		return JPEG, nil
	}
	for i, f := range formats {
		if f.name == value {
			return ImageFormat(i), nil
		}
	}
	return DefaultFormat, fmt.Errorf("videosink: unrecognized image format %q", value)
}
