// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package board wires the emulated peripherals into a machine: a TWI
// controller mastering an emulated I²C bus with an SSD1306 OLED controller
// attached, an interrupt line, the register window firmware writes to and a
// display refresh loop.
//
// Every entry point takes the board lock, so the device models it owns never
// see concurrent accesses.
package board
