// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package i2cbus implements an emulated I²C bus that emulated slaves attach
// to.
//
// The bus exposes the transfer primitives a bus controller model needs
// (StartTransfer, Send, Recv, EndTransfer) and, on top of them, implements
// i2c.BusCloser so regular periph drivers can talk to emulated devices
// unchanged.
//
// Slaves see the traffic through the Slave interface: one Event per START,
// repeated START, NACK or STOP, and one Send or Recv call per byte.
//
// # Concurrency
//
// The transfer primitives are not safe for concurrent use; the host must
// serialize them with the rest of the emulated machine. Tx takes the bus
// lock for the whole transaction.
package i2cbus
