// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package keypad

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func TestTerminal(t *testing.T) {
	in := "x\x1b[A\x1b[Bq\r \x1b[C\x1b[Dz\x7f"
	term := NewReader(strings.NewReader(in))
	out := make(chan Event, 16)
	if err := term.Run(context.Background(), out); err != nil {
		t.Fatal(err)
	}
	close(out)
	var got []Event
	for e := range out {
		got = append(got, e)
	}
	want := []Event{
		{KeyUp, Short},
		{KeyDown, Short},
		{KeyBack, Short},
		{KeyOk, Short},
		{KeyOk, Short},
		{KeyRight, Short},
		{KeyLeft, Short},
		{KeyBack, Short},
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("events difference (-got +want):\n%s", diff)
	}
}

func TestTerminalLoneEsc(t *testing.T) {
	term := NewReader(strings.NewReader("\x1b"))
	out := make(chan Event, 1)
	if err := term.Run(context.Background(), out); err != nil {
		t.Fatal(err)
	}
	if e := <-out; e != (Event{KeyBack, Short}) {
		t.Errorf("got %s", e)
	}
}

func TestTerminalCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	term := NewReader(strings.NewReader("qqqq"))
	// Unbuffered and never read: Run must give up on ctx.
	if err := term.Run(ctx, make(chan Event)); err != nil {
		t.Fatal(err)
	}
}

func TestButton(t *testing.T) {
	p := &gpiotest.Pin{N: "BTN", Num: 17, EdgesChan: make(chan gpio.Level, 8)}
	b, err := NewButton(p, KeyBack, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	b.poll = 10 * time.Millisecond
	clock := time.Unix(0, 0)
	b.now = func() time.Time { return clock }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := make(chan Event, 16)
	done := make(chan error)
	go func() { done <- b.Run(ctx, out) }()

	next := func() Event {
		select {
		case e := <-out:
			return e
		case <-time.After(time.Second):
			t.Fatal("no event")
			return Event{}
		}
	}

	p.EdgesChan <- gpio.Low
	if e := next(); e != (Event{KeyBack, Press}) {
		t.Errorf("got %s", e)
	}
	clock = clock.Add(100 * time.Millisecond)
	p.EdgesChan <- gpio.High
	if e := next(); e != (Event{KeyBack, Release}) {
		t.Errorf("got %s", e)
	}
	if e := next(); e != (Event{KeyBack, Short}) {
		t.Errorf("got %s", e)
	}

	p.EdgesChan <- gpio.Low
	next()
	clock = clock.Add(2 * time.Second)
	p.EdgesChan <- gpio.High
	next()
	if e := next(); e != (Event{KeyBack, Long}) {
		t.Errorf("got %s", e)
	}

	cancel()
	if err := <-done; err != nil {
		t.Error(err)
	}
	if _, err := NewButton(nil, KeyOk, 0); err == nil {
		t.Error("NewButton() accepted a nil pin")
	}
}

func TestTerminalHalt(t *testing.T) {
	restored := 0
	term := NewReader(strings.NewReader(""))
	term.restore = func() { restored++ }
	if err := term.Halt(); err != nil {
		t.Fatal(err)
	}
	if err := term.Halt(); err != nil {
		t.Fatal(err)
	}
	if restored != 1 {
		t.Errorf("restored %d times", restored)
	}
}
