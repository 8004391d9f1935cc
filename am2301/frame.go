// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package am2301

import (
	"fmt"

	"github.com/GermanBionicSystems/thermo/common"
	"periph.io/x/conn/v3/physic"
)

// FrameSize is the number of bytes sent by the sensor for one measurement.
const FrameSize = 5

const signBit uint16 = 1 << 15

// Frame is the raw response of the sensor, in wire order.
//
//	0: humidity MSB
//	1: humidity LSB
//	2: temperature MSB, bit 7 is the sign
//	3: temperature LSB
//	4: check byte
type Frame [FrameSize]byte

// HumidityRaw returns the humidity in 0.1%RH.
func (f Frame) HumidityRaw() uint16 {
	return uint16(f[0])<<8 | uint16(f[1])
}

// TemperatureRaw returns the temperature word as sent, sign bit included.
func (f Frame) TemperatureRaw() uint16 {
	return uint16(f[2])<<8 | uint16(f[3])
}

// Checksum returns the check byte sent by the sensor.
func (f Frame) Checksum() byte {
	return f[4]
}

// Sum returns the check byte computed over the data bytes.
func (f Frame) Sum() byte {
	return common.Sum8(f[:4])
}

// Valid reports whether the check byte matches the data bytes.
func (f Frame) Valid() bool {
	return f.Sum() == f.Checksum()
}

// temperatureTenths returns the signed temperature in 0.1°C.
func (f Frame) temperatureTenths() int {
	t := f.TemperatureRaw()
	if t&signBit != 0 {
		return -int(t &^ signBit)
	}
	return int(t)
}

// Reading converts the frame to whole units: both values are divided by 10
// with truncation toward zero before becoming floating point. The frame is
// not validated.
func (f Frame) Reading() Reading {
	return Reading{
		Temperature: float64(f.temperatureTenths() / 10),
		Humidity:    float64(f.HumidityRaw() / 10),
	}
}

// Env converts the frame to physic units at the full 0.1 resolution.
func (f Frame) Env(env *physic.Env) {
	env.Temperature = physic.ZeroCelsius + (physic.Celsius/10)*physic.Temperature(f.temperatureTenths())
	env.Humidity = physic.RelativeHumidity(f.HumidityRaw()) * physic.MilliRH
	env.Pressure = 0
}

func (f Frame) String() string {
	return fmt.Sprintf("%02x %02x %02x %02x %02x", f[0], f[1], f[2], f[3], f[4])
}

// Reading is one checksum-validated measurement.
type Reading struct {
	// Temperature in °C.
	Temperature float64
	// Humidity in %RH.
	Humidity float64
}

func (r Reading) String() string {
	return fmt.Sprintf("%.1f°C %.1f%%RH", r.Temperature, r.Humidity)
}
