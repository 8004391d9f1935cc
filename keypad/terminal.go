// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package keypad

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
)

const (
	keyEsc       = 0x1b
	keyBackspace = 0x08
	keyDelete    = 0x7f
)

// Terminal reads keys from a terminal.
//
// q, Esc and Backspace map to KeyBack, Enter and space to KeyOk and the arrow
// keys to the direction keys. Every key produces a single Short event since a
// terminal does not report key releases.
type Terminal struct {
	r   *bufio.Reader
	fd  int
	tty bool

	mu      sync.Mutex
	restore func()
}

// NewTerminal returns a Terminal reading f. When f is a terminal it is put in
// non canonical mode without echo while Run is active.
func NewTerminal(f *os.File) *Terminal {
	fd := f.Fd()
	return &Terminal{
		r:   bufio.NewReader(f),
		fd:  int(fd),
		tty: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
	}
}

// NewReader returns a Terminal reading keys from r, without any terminal mode
// handling.
func NewReader(r io.Reader) *Terminal {
	return &Terminal{r: bufio.NewReader(r), fd: -1}
}

// Run sends events to out until ctx is done or the input ends. The input
// error, if any, is returned; io.EOF is not an error.
//
// A blocking read of the input cannot be interrupted; Run returns on ctx
// cancellation as soon as the pending read completes.
func (t *Terminal) Run(ctx context.Context, out chan<- Event) error {
	if t.tty {
		restore, err := makeRaw(t.fd)
		if err != nil {
			return err
		}
		t.mu.Lock()
		t.restore = restore
		t.mu.Unlock()
		defer t.Halt()
	}
	for {
		k, err := t.next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		select {
		case out <- Event{Key: k, Type: Short}:
		case <-ctx.Done():
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// Halt restores the terminal mode changed by Run. Run may still be blocked in
// a read afterward. Implements conn.Resource.
func (t *Terminal) Halt() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.restore != nil {
		t.restore()
		t.restore = nil
	}
	return nil
}

func (t *Terminal) String() string {
	return "Terminal"
}

// next returns the next recognized key. Unknown bytes are skipped.
func (t *Terminal) next() (Key, error) {
	for {
		b, err := t.r.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case 'q', 'Q', keyBackspace, keyDelete:
			return KeyBack, nil
		case '\r', '\n', ' ':
			return KeyOk, nil
		case 'w', 'k':
			return KeyUp, nil
		case 's', 'j':
			return KeyDown, nil
		case 'a', 'h':
			return KeyLeft, nil
		case 'd', 'l':
			return KeyRight, nil
		case keyEsc:
			// A lone Esc is Back, Esc [ X is an arrow key.
			if t.r.Buffered() < 2 {
				return KeyBack, nil
			}
			if c, _ := t.r.Peek(1); c[0] != '[' {
				return KeyBack, nil
			}
			_, _ = t.r.ReadByte()
			c, err := t.r.ReadByte()
			if err != nil {
				return 0, err
			}
			switch c {
			case 'A':
				return KeyUp, nil
			case 'B':
				return KeyDown, nil
			case 'C':
				return KeyRight, nil
			case 'D':
				return KeyLeft, nil
			}
		}
	}
}
