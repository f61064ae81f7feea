// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package videosink

import (
	"flag"
	"testing"
)

func TestImageFormat(t *testing.T) {
	for _, tc := range []struct {
		format       ImageFormat
		wantString   string
		wantMimeType string
	}{
		{ImageFormat(-1), "ImageFormat(-1)", "application/octet-stream"},
		{DefaultFormat, "png", "image/png"},
		{PNG, "png", "image/png"},
		{JPEG, "jpeg", "image/jpeg"},
	} {
		t.Run(tc.wantString, func(t *testing.T) {
			if got := tc.format.String(); got != tc.wantString {
				t.Errorf("String() returned %q, want %q", got, tc.wantString)
			}
			if got := tc.format.mimeType(); got != tc.wantMimeType {
				t.Errorf("mimeType() returned %q, want %q", got, tc.wantMimeType)
			}
		})
	}
}

func TestParseImageFormat(t *testing.T) {
	for in, want := range map[string]ImageFormat{"png": PNG, "jpg": JPEG, "jpeg": JPEG} {
		if got, err := ParseImageFormat(in); err != nil || got != want {
			t.Errorf("ParseImageFormat(%q) = %s, %v", in, got, err)
		}
	}
	if _, err := ParseImageFormat("bmp"); err == nil {
		t.Error("ParseImageFormat(bmp) succeeded")
	}

	var f ImageFormat
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Var(&f, "format", "")
	if err := fs.Parse([]string{"-format", "jpeg"}); err != nil {
		t.Fatal(err)
	}
	if f != JPEG {
		t.Fatalf("flag value %s", f)
	}
}
