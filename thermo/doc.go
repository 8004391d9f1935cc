// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package thermo runs a thermometer application on top of an AM2301 sensor.
//
// A Poller owns the sensor and runs one exchange per interval on its own
// goroutine. It publishes what it learns into a Store. An App owns the
// display and the input events; it only reads the Store. The Store is the
// only state shared by the two.
package thermo
