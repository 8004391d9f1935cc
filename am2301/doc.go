// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package am2301 controls an AOSONG AM2301 (and the compatible AM2302/DHT22)
// temperature/humidity sensor over its single-wire bus.
//
// The sensor has no clock line. The host pulls the data line low for at least
// 18ms, releases it, and the sensor answers with an acknowledge pulse pair
// followed by 40 bits. Each bit is a low pulse of ~50µs followed by a high
// pulse whose width encodes the value: ~26µs for 0 and ~70µs for 1. The driver
// busy-polls the line and compares the two widths of every bit relative to
// each other, so no absolute timing threshold is needed.
//
// The five received bytes are humidity (big endian, 0.1%RH), temperature
// (big endian, 0.1°C, bit 15 is the sign) and an additive check byte.
//
// The am2301.Dev type implements the physic.SenseEnv interface. The pressure
// is never set.
//
// # Datasheet
//
// https://www.haoyuelectronics.com/Attachment/AM2301/AM2301.pdf
package am2301
