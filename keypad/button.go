// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package keypad

import (
	"context"
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
)

// DefaultLongPress is the hold time after which a press is reported as Long.
const DefaultLongPress = 500 * time.Millisecond

// Button is a normally open push button between a GPIO pin and ground. The
// internal pull-up holds the pin high while the button is up.
type Button struct {
	pin       gpio.PinIn
	key       Key
	longPress time.Duration
	poll      time.Duration
	now       func() time.Time
}

// NewButton configures pin for edge detection and returns a Button reporting
// key. A longPress of 0 uses DefaultLongPress.
func NewButton(pin gpio.PinIn, key Key, longPress time.Duration) (*Button, error) {
	if pin == nil {
		return nil, errors.New("keypad: pin is nil")
	}
	if longPress <= 0 {
		longPress = DefaultLongPress
	}
	if err := pin.In(gpio.PullUp, gpio.BothEdges); err != nil {
		return nil, fmt.Errorf("keypad: configure %s: %w", pin, err)
	}
	return &Button{pin: pin, key: key, longPress: longPress, poll: 100 * time.Millisecond, now: time.Now}, nil
}

// Run sends events to out until ctx is done. A press sends Press; the release
// sends Release followed by Short or Long.
func (b *Button) Run(ctx context.Context, out chan<- Event) error {
	var down bool
	var since time.Time
	for ctx.Err() == nil {
		if !b.pin.WaitForEdge(b.poll) {
			continue
		}
		pressed := b.pin.Read() == gpio.Low
		if pressed == down {
			// Bounce.
			continue
		}
		down = pressed
		if down {
			since = b.now()
			if !send(ctx, out, Event{Key: b.key, Type: Press}) {
				return nil
			}
			continue
		}
		kind := Short
		if b.now().Sub(since) >= b.longPress {
			kind = Long
		}
		if !send(ctx, out, Event{Key: b.key, Type: Release}) || !send(ctx, out, Event{Key: b.key, Type: kind}) {
			return nil
		}
	}
	return nil
}

// Halt implements conn.Resource.
func (b *Button) Halt() error {
	return b.pin.In(gpio.PullUp, gpio.NoEdge)
}

func (b *Button) String() string {
	return fmt.Sprintf("keypad: %s on %s", b.key, b.pin)
}

func send(ctx context.Context, out chan<- Event, e Event) bool {
	select {
	case out <- e:
		return true
	case <-ctx.Done():
		return false
	}
}

var _ conn.Resource = &Button{}
var _ conn.Resource = &Terminal{}
