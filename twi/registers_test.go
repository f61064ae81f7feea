// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package twi

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTWCR(t *testing.T) {
	for _, tc := range []struct {
		v    byte
		want TWCR
	}{
		{0x00, TWCR{}},
		{0x01, TWCR{TWIE: true}},
		{0x02, TWCR{Reserved: true}},
		{0x04, TWCR{TWEN: true}},
		{0x08, TWCR{TWWC: true}},
		{0x10, TWCR{TWSTO: true}},
		{0x20, TWCR{TWSTA: true}},
		{0x40, TWCR{TWEA: true}},
		{0x80, TWCR{TWINT: true}},
		{0xA4, TWCR{TWINT: true, TWSTA: true, TWEN: true}},
		{0x94, TWCR{TWINT: true, TWSTO: true, TWEN: true}},
	} {
		got := ParseTWCR(tc.v)
		if diff := cmp.Diff(got, tc.want); diff != "" {
			t.Errorf("ParseTWCR(%#02x) difference (-got +want):\n%s", tc.v, diff)
		}
		if b := got.Byte(); b != tc.v {
			t.Errorf("ParseTWCR(%#02x).Byte() = %#02x", tc.v, b)
		}
	}
}

func TestTWSR(t *testing.T) {
	for _, tc := range []struct {
		v    byte
		want TWSR
	}{
		{0xF8, TWSR{Status: TW_NO_INFO}},
		{0x08, TWSR{Status: TW_START}},
		{0x1B, TWSR{Prescaler: 3, Status: TW_MT_SLA_ACK}},
		{0x04, TWSR{Reserved: true, Status: TW_BUS_ERROR}},
		{0x29, TWSR{Prescaler: 1, Status: TW_MT_DATA_ACK}},
	} {
		got := ParseTWSR(tc.v)
		if diff := cmp.Diff(got, tc.want); diff != "" {
			t.Errorf("ParseTWSR(%#02x) difference (-got +want):\n%s", tc.v, diff)
		}
		if b := got.Byte(); b != tc.v {
			t.Errorf("ParseTWSR(%#02x).Byte() = %#02x", tc.v, b)
		}
	}
}

func TestTWAR(t *testing.T) {
	for _, tc := range []struct {
		v    byte
		want TWAR
	}{
		{0xFE, TWAR{Addr: 0x7F}},
		{0x7B, TWAR{Addr: 0x3D, GeneralCall: true}},
		{0x01, TWAR{GeneralCall: true}},
	} {
		got := ParseTWAR(tc.v)
		if diff := cmp.Diff(got, tc.want); diff != "" {
			t.Errorf("ParseTWAR(%#02x) difference (-got +want):\n%s", tc.v, diff)
		}
		if b := got.Byte(); b != tc.v {
			t.Errorf("ParseTWAR(%#02x).Byte() = %#02x", tc.v, b)
		}
	}
}

func TestPlainRegisters(t *testing.T) {
	for v := 0; v < 256; v++ {
		if got := ParseTWBR(byte(v)).Byte(); got != byte(v) {
			t.Fatalf("TWBR %#02x round trip = %#02x", v, got)
		}
		if got := ParseTWDR(byte(v)).Byte(); got != byte(v) {
			t.Fatalf("TWDR %#02x round trip = %#02x", v, got)
		}
	}
}

func TestStrings(t *testing.T) {
	for _, tc := range []struct {
		got, want string
	}{
		{TW_START.String(), "TW_START"},
		{TW_MR_ARB_LOST.String(), "TW_MT_ARB_LOST"},
		{TW_BUS_ERROR.String(), "TW_BUS_ERROR"},
		{StatusCode(0x07).String(), "StatusCode(0x07)"},
		{TWCROffset.String(), "TWCR"},
		{Offset(9).String(), "Offset(9)"},
		{DataPhase.String(), "DataPhase"},
	} {
		if tc.got != tc.want {
			t.Errorf("got %q, want %q", tc.got, tc.want)
		}
	}
}
