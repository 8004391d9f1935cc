// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermo

import (
	"sync"

	"github.com/GermanBionicSystems/thermo/am2301"
)

// Snapshot is a consistent copy of the Store.
type Snapshot struct {
	// HasDevice is set once a sensor completed a handshake since the
	// acquisition started, and cleared when the acquisition stops.
	HasDevice bool
	// HasReading is set once Reading holds a checksum-valid measurement.
	HasReading bool
	// Reading is the last checksum-valid measurement. It is kept across
	// failed exchanges and across the end of the acquisition.
	Reading am2301.Reading
}

// Store holds the latest reading and the device presence.
//
// The zero value is ready to use: no device, no reading.
type Store struct {
	mu   sync.RWMutex
	snap Snapshot
}

// Write records a checksum-valid reading.
func (s *Store) Write(r am2301.Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Reading = r
	s.snap.HasReading = true
}

// MarkPresent records that a sensor answered.
func (s *Store) MarkPresent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.HasDevice = true
}

// MarkAbsent clears the presence. The last reading is kept.
func (s *Store) MarkAbsent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.HasDevice = false
}

// Read returns a copy of the current state.
func (s *Store) Read() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}
