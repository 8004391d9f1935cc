// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package keypad turns key presses into a stream of input events.
//
// Two sources are provided: Terminal reads keys from a terminal or any
// io.Reader, Button watches a push button wired between a GPIO pin and ground.
package keypad

import "fmt"

// Key identifies a key.
type Key uint8

const (
	KeyUp Key = iota
	KeyDown
	KeyLeft
	KeyRight
	KeyOk
	KeyBack
)

func (k Key) String() string {
	switch k {
	case KeyUp:
		return "Up"
	case KeyDown:
		return "Down"
	case KeyLeft:
		return "Left"
	case KeyRight:
		return "Right"
	case KeyOk:
		return "Ok"
	case KeyBack:
		return "Back"
	default:
		return fmt.Sprintf("Key(%d)", uint8(k))
	}
}

// Type is the kind of event.
type Type uint8

const (
	// Press is sent when a key goes down.
	Press Type = iota
	// Release is sent when a key goes up.
	Release
	// Short is sent after Release when the key was held less than the long
	// press threshold.
	Short
	// Long is sent after Release when the key was held at least the long
	// press threshold.
	Long
)

func (t Type) String() string {
	switch t {
	case Press:
		return "Press"
	case Release:
		return "Release"
	case Short:
		return "Short"
	case Long:
		return "Long"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// Event is one input event.
type Event struct {
	Key  Key
	Type Type
}

func (e Event) String() string {
	return e.Key.String() + "/" + e.Type.String()
}
