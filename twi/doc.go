// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package twi emulates the Two-Wire Interface of an ATmega microcontroller: an
// I²C compatible bus controller programmed through five 8-bit registers.
//
// Controller interprets register writes as START, address, data and STOP
// operations on an emulated bus and reports their outcome through the status
// register and an interrupt line. Completion is immediate; no bus timing is
// simulated and only the master transmitter path drives the bus.
//
// Wire is the firmware side: an i2c.Bus that reaches a device by programming
// the registers the way avr-libc based firmware does.
//
// A Controller is not safe for concurrent use; the host serialises every
// access.
//
// # Datasheet
//
// https://ww1.microchip.com/downloads/en/DeviceDoc/Atmel-7810-Automotive-Microcontrollers-ATmega328P_Datasheet.pdf
//
// Section 22 describes the TWI, the status codes are listed in tables 22-2
// to 22-5.
package twi
