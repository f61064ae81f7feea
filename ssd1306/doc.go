// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ssd1306 emulates a 128x64 SSD1306 monochrome OLED controller
// attached as an I²C slave.
//
// The model reproduces what firmware observes on the bus: the control byte
// (Co and D/C# bits), command and parameter collection, the command set that
// configures the panel, and the GDDRAM address pointers. The display content
// is pulled by the host on its refresh tick through Render.
//
// Every byte is acknowledged. Malformed input (unknown opcodes, missing
// parameters, commands not allowed in the current addressing mode) is logged
// and ignored. Paths the model does not implement (vertical and page
// addressing, the page mode pointer commands) report ErrNotImplemented,
// available from Err when driven over the bus.
//
// A Dev is not safe for concurrent use. The host must serialize bus traffic,
// resets and refreshes, usually with a single machine-wide lock.
//
// # Datasheets
//
// https://cdn-shop.adafruit.com/datasheets/SSD1306.pdf
//
// Product page:
//
// http://www.solomon-systech.com/en/product/display-ic/oled-driver-controller/ssd1306/
package ssd1306
