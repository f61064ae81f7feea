// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package twi

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/periphemu/i2cbus"
)

func TestWireTx(t *testing.T) {
	for _, tc := range []struct {
		name    string
		bus     fakeBus
		w, r    []byte
		wantErr error
		calls   []call
	}{
		{
			name:  "write",
			w:     []byte{0x00, 0xAF},
			calls: []call{{op: "start", addr: 0x3D}, {op: "send", data: 0x00}, {op: "send", data: 0xAF}, {op: "end"}},
		},
		{
			name:  "probe",
			calls: []call{{op: "start", addr: 0x3D}, {op: "end"}},
		},
		{
			name:    "address nack",
			bus:     fakeBus{nackAddr: true},
			w:       []byte{0x00},
			wantErr: i2cbus.ErrNack,
			calls:   []call{{op: "start", addr: 0x3D}, {op: "end"}},
		},
		{
			name:    "data nack",
			bus:     fakeBus{nackBytes: true},
			w:       []byte{0x00, 0xAF},
			wantErr: i2cbus.ErrNack,
			calls:   []call{{op: "start", addr: 0x3D}, {op: "send", data: 0x00}, {op: "end"}},
		},
		{
			name:    "write then read",
			w:       []byte{0x00},
			r:       make([]byte, 1),
			wantErr: ErrReadNotEmulated,
			calls: []call{
				{op: "start", addr: 0x3D}, {op: "send", data: 0x00},
				{op: "start", addr: 0x3D, read: true}, {op: "end"},
			},
		},
		{
			name:    "read",
			r:       make([]byte, 1),
			wantErr: ErrReadNotEmulated,
			calls:   []call{{op: "start", addr: 0x3D, read: true}, {op: "end"}},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			bus := tc.bus
			c, _, _ := newTestController(&bus, DefaultOpts)
			w := NewWire(c, 0)
			err := w.Tx(0x3D, tc.w, tc.r)
			if tc.wantErr == nil && err != nil {
				t.Fatal(err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("Tx() = %v, want %v", err, tc.wantErr)
			}
			if diff := cmp.Diff(bus.calls, tc.calls, cmpopts.EquateEmpty(), cmp.AllowUnexported(call{})); diff != "" {
				t.Errorf("bus calls difference (-got +want):\n%s", diff)
			}
			if c.Phase() != Idle {
				t.Errorf("phase after Tx = %s", c.Phase())
			}
		})
	}
}

func TestWireInvalidAddress(t *testing.T) {
	bus := &fakeBus{}
	c, _, _ := newTestController(bus, DefaultOpts)
	d := i2c.Dev{Bus: NewWire(c, 0), Addr: 0x80}
	if err := d.Tx([]byte{0}, nil); err == nil {
		t.Fatal("Tx() to a 10-bit address succeeded")
	}
	if len(bus.calls) != 0 {
		t.Fatalf("bus calls = %v", bus.calls)
	}
}

func TestWireSetSpeed(t *testing.T) {
	for _, tc := range []struct {
		f       physic.Frequency
		want    byte
		wantErr bool
	}{
		{100 * physic.KiloHertz, 72, false},
		{400 * physic.KiloHertz, 12, false},
		{physic.MegaHertz, 0, false},
		{2 * physic.MegaHertz, 0, true},
		{physic.KiloHertz, 0, true},
		{0, 0, true},
	} {
		c, _, _ := newTestController(&fakeBus{}, DefaultOpts)
		w := NewWire(c, 16*physic.MegaHertz)
		err := w.SetSpeed(tc.f)
		if tc.wantErr {
			if err == nil {
				t.Errorf("SetSpeed(%s) succeeded", tc.f)
			}
			continue
		}
		if err != nil {
			t.Fatal(err)
		}
		if got := c.State().TWBR.Rate; got != tc.want {
			t.Errorf("SetSpeed(%s): TWBR = %d, want %d", tc.f, got, tc.want)
		}
		if got := c.Frequency(); got != tc.f {
			t.Errorf("SetSpeed(%s): Frequency() = %s", tc.f, got)
		}
	}
}

// stuckRegisters never completes an operation.
type stuckRegisters struct {
	status byte
	twint  bool
	writes int
}

func (s *stuckRegisters) Read(off Offset) byte {
	switch off {
	case TWCROffset:
		if s.twint {
			return bitTWINT
		}
		return 0
	case TWSROffset:
		return s.status
	default:
		return 0xFF
	}
}

func (s *stuckRegisters) Write(off Offset, v byte) {
	s.writes++
}

func TestWireFailures(t *testing.T) {
	r := &stuckRegisters{}
	err := NewWire(r, 0).Tx(0x3D, []byte{1}, nil)
	if err == nil || !strings.Contains(err.Error(), "timeout") {
		t.Fatalf("Tx() = %v, want a timeout", err)
	}

	r = &stuckRegisters{twint: true, status: byte(TW_BUS_ERROR)}
	err = NewWire(r, 0).Tx(0x3D, []byte{1}, nil)
	if err == nil || !strings.Contains(err.Error(), "TW_BUS_ERROR") {
		t.Fatalf("Tx() = %v, want a bus error", err)
	}
	// START then STOP.
	if r.writes != 2 {
		t.Fatalf("%d register writes", r.writes)
	}
}

func TestWireOverEmulatedBus(t *testing.T) {
	bus := i2cbus.New(&i2cbus.Opts{Name: "test", Logger: discard()})
	c := New(bus, nil, &Opts{Logger: discard()})
	w := NewWire(c, 0)
	if err := w.Tx(0x3D, []byte{1}, nil); !errors.Is(err, i2cbus.ErrNack) {
		t.Fatalf("Tx() to an empty bus = %v", err)
	}
	if bus.Busy() {
		t.Fatal("bus left busy")
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if w.String() != "TWI" {
		t.Fatal(w.String())
	}
}

func discard() *logrus.Logger {
	l, _ := logtest.NewNullLogger()
	return l
}
