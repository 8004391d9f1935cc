// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package common contains functions used across multiple packages. For
// example, the 8-bit additive checksum used by single-wire AOSONG sensors.
package common

// Sum8 returns the sum of the byte slice parameter truncated to 8 bits. This
// is the check byte transmitted by AM2301/AM2302/DHT22 class sensors.
func Sum8(bytes []byte) byte {
	var sum byte
	for _, val := range bytes {
		sum += val
	}
	return sum
}
