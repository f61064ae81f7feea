// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package twi

import "fmt"

// Offset is a register offset in the TWI register window.
type Offset uint8

// Register offsets.
const (
	TWBROffset  Offset = 0 // Bit rate.
	TWSROffset  Offset = 1 // Status.
	TWAROffset  Offset = 2 // Slave address.
	TWDROffset  Offset = 3 // Data.
	TWCROffset  Offset = 4 // Control.
	TWAMROffset Offset = 5 // Slave address mask, not emulated.

	// WindowSize is the size of the register window in bytes.
	WindowSize = 6
)

func (o Offset) String() string {
	switch o {
	case TWBROffset:
		return "TWBR"
	case TWSROffset:
		return "TWSR"
	case TWAROffset:
		return "TWAR"
	case TWDROffset:
		return "TWDR"
	case TWCROffset:
		return "TWCR"
	case TWAMROffset:
		return "TWAMR"
	default:
		return fmt.Sprintf("Offset(%d)", uint8(o))
	}
}

// StatusCode is the value of the status field of TWSR, with the prescaler
// bits masked.
type StatusCode uint8

// Status codes, as named by avr-libc's <util/twi.h>.
const (
	TW_START                 StatusCode = 0x08
	TW_REP_START             StatusCode = 0x10
	TW_MT_SLA_ACK            StatusCode = 0x18
	TW_MT_SLA_NACK           StatusCode = 0x20
	TW_MT_DATA_ACK           StatusCode = 0x28
	TW_MT_DATA_NACK          StatusCode = 0x30
	TW_MT_ARB_LOST           StatusCode = 0x38
	TW_MR_ARB_LOST           StatusCode = 0x38
	TW_MR_SLA_ACK            StatusCode = 0x40
	TW_MR_SLA_NACK           StatusCode = 0x48
	TW_MR_DATA_ACK           StatusCode = 0x50
	TW_MR_DATA_NACK          StatusCode = 0x58
	TW_ST_SLA_ACK            StatusCode = 0xA8
	TW_ST_ARB_LOST_SLA_ACK   StatusCode = 0xB0
	TW_ST_DATA_ACK           StatusCode = 0xB8
	TW_ST_DATA_NACK          StatusCode = 0xC0
	TW_ST_LAST_DATA          StatusCode = 0xC8
	TW_SR_SLA_ACK            StatusCode = 0x60
	TW_SR_ARB_LOST_SLA_ACK   StatusCode = 0x68
	TW_SR_GCALL_ACK          StatusCode = 0x70
	TW_SR_ARB_LOST_GCALL_ACK StatusCode = 0x78
	TW_SR_DATA_ACK           StatusCode = 0x80
	TW_SR_DATA_NACK          StatusCode = 0x88
	TW_SR_GCALL_DATA_ACK     StatusCode = 0x90
	TW_SR_GCALL_DATA_NACK    StatusCode = 0x98
	TW_SR_STOP               StatusCode = 0xA0
	TW_NO_INFO               StatusCode = 0xF8
	TW_BUS_ERROR             StatusCode = 0x00
)

var statusNames = map[StatusCode]string{
	TW_START:                 "TW_START",
	TW_REP_START:             "TW_REP_START",
	TW_MT_SLA_ACK:            "TW_MT_SLA_ACK",
	TW_MT_SLA_NACK:           "TW_MT_SLA_NACK",
	TW_MT_DATA_ACK:           "TW_MT_DATA_ACK",
	TW_MT_DATA_NACK:          "TW_MT_DATA_NACK",
	TW_MT_ARB_LOST:           "TW_MT_ARB_LOST",
	TW_MR_SLA_ACK:            "TW_MR_SLA_ACK",
	TW_MR_SLA_NACK:           "TW_MR_SLA_NACK",
	TW_MR_DATA_ACK:           "TW_MR_DATA_ACK",
	TW_MR_DATA_NACK:          "TW_MR_DATA_NACK",
	TW_ST_SLA_ACK:            "TW_ST_SLA_ACK",
	TW_ST_ARB_LOST_SLA_ACK:   "TW_ST_ARB_LOST_SLA_ACK",
	TW_ST_DATA_ACK:           "TW_ST_DATA_ACK",
	TW_ST_DATA_NACK:          "TW_ST_DATA_NACK",
	TW_ST_LAST_DATA:          "TW_ST_LAST_DATA",
	TW_SR_SLA_ACK:            "TW_SR_SLA_ACK",
	TW_SR_ARB_LOST_SLA_ACK:   "TW_SR_ARB_LOST_SLA_ACK",
	TW_SR_GCALL_ACK:          "TW_SR_GCALL_ACK",
	TW_SR_ARB_LOST_GCALL_ACK: "TW_SR_ARB_LOST_GCALL_ACK",
	TW_SR_DATA_ACK:           "TW_SR_DATA_ACK",
	TW_SR_DATA_NACK:          "TW_SR_DATA_NACK",
	TW_SR_GCALL_DATA_ACK:     "TW_SR_GCALL_DATA_ACK",
	TW_SR_GCALL_DATA_NACK:    "TW_SR_GCALL_DATA_NACK",
	TW_SR_STOP:               "TW_SR_STOP",
	TW_NO_INFO:               "TW_NO_INFO",
	TW_BUS_ERROR:             "TW_BUS_ERROR",
}

func (s StatusCode) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("StatusCode(%#02x)", uint8(s))
}

// TWBR is the bit rate register.
type TWBR struct {
	Rate uint8
}

// ParseTWBR decodes a TWBR value.
func ParseTWBR(v byte) TWBR {
	return TWBR{Rate: v}
}

// Byte encodes the register.
func (r TWBR) Byte() byte {
	return r.Rate
}

// TWSR is the status register.
//
//	Bit   7..3   2        1..0
//	      TWS    reserved TWPS
type TWSR struct {
	// Prescaler is the 2-bit TWPS field; the bit rate prescaler is
	// 4^Prescaler.
	Prescaler uint8
	Reserved  bool
	// Status is the status code in bits 3-7, in place.
	Status StatusCode
}

// ParseTWSR decodes a TWSR value.
func ParseTWSR(v byte) TWSR {
	return TWSR{
		Prescaler: v & 0x03,
		Reserved:  v&0x04 != 0,
		Status:    StatusCode(v & 0xF8),
	}
}

// Byte encodes the register.
func (r TWSR) Byte() byte {
	v := r.Prescaler&0x03 | byte(r.Status)&0xF8
	if r.Reserved {
		v |= 0x04
	}
	return v
}

// TWAR is the slave address register.
//
//	Bit   7..1   0
//	      TWA    TWGCE
type TWAR struct {
	// Addr is the 7-bit slave address.
	Addr uint8
	// GeneralCall enables the recognition of the general call address.
	GeneralCall bool
}

// ParseTWAR decodes a TWAR value.
func ParseTWAR(v byte) TWAR {
	return TWAR{Addr: v >> 1, GeneralCall: v&0x01 != 0}
}

// Byte encodes the register.
func (r TWAR) Byte() byte {
	v := r.Addr << 1
	if r.GeneralCall {
		v |= 0x01
	}
	return v
}

// TWDR is the data register. In address phase it holds SLA+R/W.
type TWDR struct {
	Data uint8
}

// ParseTWDR decodes a TWDR value.
func ParseTWDR(v byte) TWDR {
	return TWDR{Data: v}
}

// Byte encodes the register.
func (r TWDR) Byte() byte {
	return r.Data
}

// TWCR is the control register.
type TWCR struct {
	TWIE     bool // Interrupt enable.
	Reserved bool
	TWEN     bool // Enable.
	TWWC     bool // Write collision.
	TWSTO    bool // STOP condition.
	TWSTA    bool // START condition.
	TWEA     bool // Enable acknowledge.
	TWINT    bool // Interrupt flag.
}

// TWCR bits.
const (
	bitTWIE = 1 << iota
	bitReserved
	bitTWEN
	bitTWWC
	bitTWSTO
	bitTWSTA
	bitTWEA
	bitTWINT
)

// ParseTWCR decodes a TWCR value.
func ParseTWCR(v byte) TWCR {
	return TWCR{
		TWIE:     v&bitTWIE != 0,
		Reserved: v&bitReserved != 0,
		TWEN:     v&bitTWEN != 0,
		TWWC:     v&bitTWWC != 0,
		TWSTO:    v&bitTWSTO != 0,
		TWSTA:    v&bitTWSTA != 0,
		TWEA:     v&bitTWEA != 0,
		TWINT:    v&bitTWINT != 0,
	}
}

// Byte encodes the register.
func (r TWCR) Byte() byte {
	var v byte
	for _, b := range []struct {
		set bool
		bit byte
	}{
		{r.TWIE, bitTWIE},
		{r.Reserved, bitReserved},
		{r.TWEN, bitTWEN},
		{r.TWWC, bitTWWC},
		{r.TWSTO, bitTWSTO},
		{r.TWSTA, bitTWSTA},
		{r.TWEA, bitTWEA},
		{r.TWINT, bitTWINT},
	} {
		if b.set {
			v |= b.bit
		}
	}
	return v
}
