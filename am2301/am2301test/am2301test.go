// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package am2301test emulates an AM2301 sensor behind a gpio.PinIO.
//
// The emulation is sample based: every Read() of the pin returns the next
// level of the response, so a response pulse of N samples is seen as N reads
// at that level whatever the speed of the host. This matches the way the
// driver measures pulses by counting samples.
package am2301test

import (
	"sync"

	"github.com/GermanBionicSystems/thermo/common"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

// Widths holds the width, in samples, of each part of a response.
type Widths struct {
	// Idle is the time the line stays high after the host released it.
	Idle int
	// AckLow and AckHigh are the acknowledge pulses.
	AckLow  int
	AckHigh int
	// BitLow is the low pulse in front of every bit.
	BitLow int
	// Zero and One are the high pulse widths encoding a bit.
	Zero int
	One  int
	// End is the final low pulse before the sensor releases the line.
	End int
}

// DefaultWidths uses the nominal datasheet timings at one sample per µs.
var DefaultWidths = Widths{Idle: 30, AckLow: 80, AckHigh: 80, BitLow: 50, Zero: 26, One: 70, End: 50}

// Fault simulates a wiring problem.
type Fault uint8

const (
	// NoFault is a connected, working sensor.
	NoFault Fault = iota
	// Disconnected leaves the line to the pull-up; it never changes.
	Disconnected
	// ShortedLow holds the line low forever.
	ShortedLow
)

type segment struct {
	level gpio.Level
	n     int
}

// Sensor is a gpio.PinIO with an emulated AM2301 on the other end.
//
// The embedded gpiotest.Pin provides the name and the unused parts of the
// interface.
type Sensor struct {
	gpiotest.Pin

	mu       sync.Mutex
	frame    [5]byte
	widths   Widths
	fault    Fault
	pull     gpio.Pull
	holding  bool
	script   []segment
	seg      int
	pos      int
	requests int
	reads    int
}

// NewSensor returns a sensor that answers every request with frame.
func NewSensor(name string, frame [5]byte) *Sensor {
	return &Sensor{
		Pin:    gpiotest.Pin{N: name, Num: -1, Fn: "AM2301"},
		frame:  frame,
		widths: DefaultWidths,
		pull:   gpio.Float,
	}
}

// Encode builds a valid frame from a humidity in 0.1%RH and a temperature in
// 0.1°C.
func Encode(humidity uint16, temperature int) [5]byte {
	t := uint16(temperature)
	if temperature < 0 {
		t = uint16(-temperature) | 1<<15
	}
	f := [5]byte{byte(humidity >> 8), byte(humidity), byte(t >> 8), byte(t)}
	f[4] = common.Sum8(f[:4])
	return f
}

// SetFrame changes the response sent for the following requests. The frame is
// sent as is; a wrong check byte is not corrected.
func (s *Sensor) SetFrame(frame [5]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = frame
}

// SetWidths changes the pulse widths of the following responses.
func (s *Sensor) SetWidths(w Widths) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.widths = w
}

// SetFault changes the wiring state. It applies immediately.
func (s *Sensor) SetFault(f Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = f
	if f != NoFault {
		s.script = nil
	}
}

// Requests returns the number of request pulses the host sent.
func (s *Sensor) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// Reads returns the number of samples taken by the host.
func (s *Sensor) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

// Released reports whether the host left the pin in its rest configuration:
// input without pull.
func (s *Sensor) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.holding && s.pull == gpio.Float
}

// Out implements gpio.PinOut. Driving the line low starts a request; the
// response starts once the line is released as an input.
func (s *Sensor) Out(l gpio.Level) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l == gpio.Low {
		s.holding = true
		s.script = nil
	}
	return nil
}

// In implements gpio.PinIn.
func (s *Sensor) In(pull gpio.Pull, edge gpio.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pull = pull
	if s.holding {
		s.holding = false
		s.requests++
		if pull == gpio.PullUp && s.fault == NoFault {
			s.respond()
		}
	}
	return nil
}

// Read implements gpio.PinIn.
func (s *Sensor) Read() gpio.Level {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	switch {
	case s.holding, s.fault == ShortedLow:
		return gpio.Low
	case s.seg < len(s.script):
		sg := s.script[s.seg]
		s.pos++
		if s.pos >= sg.n {
			s.seg++
			s.pos = 0
		}
		return sg.level
	default:
		return gpio.Level(s.pull == gpio.PullUp)
	}
}

// Pull implements gpio.PinIn.
func (s *Sensor) Pull() gpio.Pull {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pull
}

// respond builds the level script of one response. Must be called with mu
// held.
func (s *Sensor) respond() {
	w := s.widths
	sc := make([]segment, 0, 4+2*8*len(s.frame)+1)
	sc = append(sc,
		segment{gpio.High, w.Idle},
		segment{gpio.Low, w.AckLow},
		segment{gpio.High, w.AckHigh})
	for _, b := range s.frame {
		for bit := 7; bit >= 0; bit-- {
			high := w.Zero
			if b&(1<<bit) != 0 {
				high = w.One
			}
			sc = append(sc, segment{gpio.Low, w.BitLow}, segment{gpio.High, high})
		}
	}
	sc = append(sc, segment{gpio.Low, w.End})
	s.script = sc[:0]
	for _, sg := range sc {
		if sg.n > 0 {
			s.script = append(s.script, sg)
		}
	}
	s.seg = 0
	s.pos = 0
}

var _ gpio.PinIO = &Sensor{}
