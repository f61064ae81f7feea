// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package periphemu is a container for emulated peripherals.
//
// Each sub-package models one chip at the protocol level, the way firmware
// observes it: ssd1306 is an I²C slave OLED controller, twi is the ATmega
// two-wire interface register block. i2cbus, surface and board provide the
// host side: the bus transport, the display surface and the big lock around
// the devices.
package periphemu
