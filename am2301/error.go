// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package am2301

import (
	"errors"
	"fmt"
)

var (
	// ErrChecksumMismatch is matched by errors.Is for every *ChecksumError.
	ErrChecksumMismatch = errors.New("am2301: checksum mismatch")
	// ErrHandshakeTimeout is matched by errors.Is for every
	// *HandshakeTimeoutError.
	ErrHandshakeTimeout = errors.New("am2301: handshake timeout")
	// ErrLineStuck is matched by errors.Is for every *StuckLineError.
	ErrLineStuck = errors.New("am2301: line stuck")
)

// ChecksumError is returned when the check byte of a frame does not match
// its data bytes. The frame is discarded.
type ChecksumError struct {
	Frame Frame
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("am2301: checksum mismatch: frame %s sums to 0x%02x", e.Frame, e.Frame.Sum())
}

func (e *ChecksumError) Is(target error) bool {
	return target == ErrChecksumMismatch
}

// HandshakeTimeoutError is returned in strict handshake mode when one of the
// acknowledge polls ran out of samples.
type HandshakeTimeoutError struct {
	Polls [handshakePolls]uint16
}

func (e *HandshakeTimeoutError) Error() string {
	return fmt.Sprintf("am2301: handshake timeout: polls %v (limit %d)", e.Polls, handshakeLimit)
}

func (e *HandshakeTimeoutError) Is(target error) bool {
	return target == ErrHandshakeTimeout
}

// StuckLineError is returned when the line held one level for the whole
// sample limit of a bit half. The frame is discarded.
type StuckLineError struct {
	// Halves is the number of saturated bit halves, out of 80.
	Halves int
}

func (e *StuckLineError) Error() string {
	return fmt.Sprintf("am2301: line stuck: %d of %d bit halves saturated (limit %d)", e.Halves, 2*8*FrameSize, bitLimit)
}

func (e *StuckLineError) Is(target error) bool {
	return target == ErrLineStuck
}
