// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermo

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/GermanBionicSystems/thermo/am2301"
	"github.com/GermanBionicSystems/thermo/am2301/am2301test"
	"github.com/google/go-cmp/cmp"
)

var (
	discard     = slog.New(slog.NewTextHandler(io.Discard, nil))
	fastPolling = PollerOpts{Interval: 5 * time.Millisecond, Settle: time.Millisecond}
)

func newSensor(t *testing.T, frame [5]byte) (*am2301.Dev, *am2301test.Sensor) {
	s := am2301test.NewSensor("AM2301", frame)
	dev, err := am2301.NewGPIO(s, &am2301.Opts{RequestPulse: time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	return dev, s
}

// waitFor polls cond until it holds or a few seconds elapsed.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestPoller(t *testing.T) {
	dev, s := newSensor(t, am2301test.Encode(500, -50))
	store := &Store{}
	p := NewPoller(dev, store, &fastPolling, discard)
	if err := p.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "a reading", func() bool { return store.Read().HasReading })
	want := Snapshot{HasDevice: true, HasReading: true, Reading: am2301.Reading{Temperature: -5, Humidity: 50}}
	if diff := cmp.Diff(store.Read(), want); diff != "" {
		t.Errorf("snapshot difference (-got +want):\n%s", diff)
	}

	p.Stop()
	snap := store.Read()
	if snap.HasDevice {
		t.Error("HasDevice still set after Stop()")
	}
	if !snap.HasReading {
		t.Error("the last reading must survive Stop()")
	}
	if !s.Released() {
		t.Error("line not released after Stop()")
	}
	// No exchange after Stop().
	n := s.Requests()
	time.Sleep(10 * fastPolling.Interval)
	if s.Requests() != n {
		t.Error("the sensor was polled after Stop()")
	}

	if err := p.Start(context.Background()); !errors.Is(err, ErrPollerStarted) {
		t.Errorf("restart returned %v", err)
	}
	// Stop is idempotent.
	p.Stop()
}

func TestPollerChecksumMismatchKeepsReading(t *testing.T) {
	dev, s := newSensor(t, am2301test.Encode(450, 215))
	store := &Store{}
	p := NewPoller(dev, store, &fastPolling, discard)
	if err := p.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer p.Stop()
	waitFor(t, "a reading", func() bool { return store.Read().HasReading })

	bad := am2301test.Encode(900, 900)
	bad[4] ^= 0xff
	s.SetFrame(bad)
	n := s.Requests()
	waitFor(t, "more exchanges", func() bool { return s.Requests() >= n+3 })

	want := am2301.Reading{Temperature: 21, Humidity: 45}
	if diff := cmp.Diff(store.Read().Reading, want); diff != "" {
		t.Errorf("reading changed by a corrupted frame (-got +want):\n%s", diff)
	}
	if !store.Read().HasDevice {
		t.Error("a corrupted frame after a handshake still proves the device")
	}
}

// TestPollerFaultAfterReading wires a fault once a sensor was seen: the
// presence stays set and the last reading is kept.
func TestPollerFaultAfterReading(t *testing.T) {
	for _, fault := range []am2301test.Fault{am2301test.Disconnected, am2301test.ShortedLow} {
		dev, s := newSensor(t, am2301test.Encode(450, 215))
		store := &Store{}
		p := NewPoller(dev, store, &fastPolling, discard)
		if err := p.Start(context.Background()); err != nil {
			t.Fatal(err)
		}
		waitFor(t, "a reading", func() bool { return store.Read().HasReading })

		s.SetFault(fault)
		n := s.Requests()
		waitFor(t, "3 exchanges", func() bool { return s.Requests() >= n+3 })

		want := Snapshot{HasDevice: true, HasReading: true, Reading: am2301.Reading{Temperature: 21, Humidity: 45}}
		if diff := cmp.Diff(store.Read(), want); diff != "" {
			t.Errorf("fault %d: snapshot difference (-got +want):\n%s", fault, diff)
		}
		p.Stop()
	}
}

func TestPollerNoSensor(t *testing.T) {
	for _, fault := range []am2301test.Fault{am2301test.Disconnected, am2301test.ShortedLow} {
		dev, s := newSensor(t, am2301test.Encode(500, 50))
		s.SetFault(fault)
		store := &Store{}
		p := NewPoller(dev, store, &fastPolling, discard)
		if err := p.Start(context.Background()); err != nil {
			t.Fatal(err)
		}
		waitFor(t, "3 exchanges", func() bool { return s.Requests() >= 3 })
		p.Stop()
		if diff := cmp.Diff(store.Read(), Snapshot{}); diff != "" {
			t.Errorf("fault %d: snapshot difference (-got +want):\n%s", fault, diff)
		}
	}
}

func TestPollerContextCancel(t *testing.T) {
	dev, _ := newSensor(t, am2301test.Encode(500, 50))
	store := &Store{}
	opts := PollerOpts{Interval: time.Hour}
	p := NewPoller(dev, store, &opts, discard)
	store.MarkPresent()
	ctx, cancel := context.WithCancel(context.Background())
	if err := p.Start(ctx); err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	cancel()
	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("cancellation not observed during the wait")
	}
	if d := time.Since(start); d > 500*time.Millisecond {
		t.Errorf("stop took %s", d)
	}
	if store.Read().HasDevice {
		t.Error("HasDevice still set after the loop ended")
	}
}

func TestPollerStopBeforeStart(t *testing.T) {
	dev, _ := newSensor(t, am2301test.Encode(500, 50))
	p := NewPoller(dev, &Store{}, nil, nil)
	p.Stop()
	if p.opts != DefaultPollerOpts {
		t.Errorf("unexpected defaults %+v", p.opts)
	}
}
