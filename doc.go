// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package thermo is a thermometer for an AM2301 (DHT21) humidity and
// temperature sensor connected to a single GPIO pin.
//
// The am2301 package is the driver, thermo holds the acquisition loop and the
// screen, and cmd/thermo is the program.
package thermo
