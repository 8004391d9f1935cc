// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package am2301

import (
	"fmt"
	"strings"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Timing selects how pulse widths are measured.
type Timing uint8

const (
	// TimingLoops measures a pulse as the number of samples taken while the
	// level held. This is what a target without a free running timer does.
	TimingLoops Timing = iota
	// TimingClock measures a pulse as the wall time spent in the same bounded
	// poll. It is less sensitive to the cost of a single sample on hosts
	// where reading a pin goes through the kernel.
	TimingClock
)

func (t Timing) String() string {
	switch t {
	case TimingLoops:
		return "loops"
	case TimingClock:
		return "clock"
	default:
		return "unknown"
	}
}

// ParseTiming parses "loops" or "clock".
func ParseTiming(s string) (Timing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "loops", "":
		return TimingLoops, nil
	case "clock":
		return TimingClock, nil
	default:
		return 0, fmt.Errorf("am2301: invalid timing %q (allowed: loops, clock)", s)
	}
}

// Line drives a single open-drain data line.
//
// The line is never driven high. Drive(gpio.High) releases it as an input
// with the pull-up enabled and the sensor, or the pull-up, restores the high
// level.
type Line struct {
	pin    gpio.PinIO
	timing Timing
	driven bool
	level  gpio.Level
}

// NewLine returns a Line on pin. The pin configuration is not touched until
// the first Drive().
func NewLine(pin gpio.PinIO, timing Timing) *Line {
	return &Line{pin: pin, timing: timing}
}

// Drive sets the line to level. Calling it again with the level already set
// does nothing.
func (l *Line) Drive(level gpio.Level) error {
	if l.driven && l.level == level {
		return nil
	}
	var err error
	if level == gpio.Low {
		err = l.pin.Out(gpio.Low)
	} else {
		err = l.pin.In(gpio.PullUp, gpio.NoEdge)
	}
	if err != nil {
		l.driven = false
		return err
	}
	l.driven = true
	l.level = level
	return nil
}

// Read samples the current level of the line.
func (l *Line) Read() gpio.Level {
	return l.pin.Read()
}

// CountWhile samples the line while it reads level and returns the number of
// matching samples. It returns max once max samples matched, so it never
// takes more than max+1 samples even if the line is stuck.
func (l *Line) CountWhile(level gpio.Level, max uint16) uint16 {
	var n uint16
	for n < max && l.pin.Read() == level {
		n++
	}
	return n
}

// width measures how long the line holds level in the unit selected by the
// line timing. The poll is bounded by max samples in both modes; saturated is
// set when the bound was reached.
func (l *Line) width(level gpio.Level, max uint16) (w int64, saturated bool) {
	if l.timing == TimingClock {
		start := time.Now()
		n := l.CountWhile(level, max)
		return int64(time.Since(start)), n >= max
	}
	n := l.CountWhile(level, max)
	return int64(n), n >= max
}

// Release puts the pin in its rest configuration: input, no pull.
func (l *Line) Release() error {
	l.driven = false
	return l.pin.In(gpio.Float, gpio.NoEdge)
}

func (l *Line) String() string {
	return l.pin.String()
}
