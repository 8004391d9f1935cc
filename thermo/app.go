// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermo

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/GermanBionicSystems/thermo/keypad"
	"periph.io/x/conn/v3/display"
)

// DefaultRefresh is the redraw period when no input arrives.
const DefaultRefresh = 500 * time.Millisecond

// App is the presentation loop. It owns the display; it reads the Store
// filled by the Poller.
type App struct {
	Store   *Store
	Poller  *Poller
	View    *View
	Display display.Drawer
	// Refresh is the redraw period. Default is DefaultRefresh.
	Refresh time.Duration
	Logger  *slog.Logger
}

// Run starts the Poller and redraws the display on every input event and
// every Refresh until a short Back press or ctx is done. It then stops the
// Poller, waits for it to release the sensor, draws a last frame and halts
// the display.
func (a *App) Run(ctx context.Context, events <-chan keypad.Event) error {
	if a.Store == nil || a.Poller == nil || a.View == nil || a.Display == nil {
		return errors.New("thermo: incomplete App")
	}
	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}
	refresh := a.Refresh
	if refresh <= 0 {
		refresh = DefaultRefresh
	}

	if err := a.Poller.Start(ctx); err != nil {
		if herr := a.Display.Halt(); herr != nil {
			logger.Warn("display halt failed", "display", a.Display, "err", herr)
		}
		return err
	}
	defer a.Poller.Stop()

	ticker := time.NewTicker(refresh)
	defer ticker.Stop()

	var drawErr error
	redraw := func() {
		if err := a.draw(); err != nil && drawErr == nil {
			drawErr = err
			logger.Warn("display update failed", "display", a.Display, "err", err)
		}
	}

	redraw()
	for running := true; running; {
		select {
		case <-ctx.Done():
			running = false
		case e, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			logger.Debug("input", "event", e.String())
			if e.Type == keypad.Short && e.Key == keypad.KeyBack {
				running = false
				continue
			}
			redraw()
		case <-ticker.C:
			redraw()
		}
	}

	a.Poller.Stop()
	redraw()
	if err := a.Display.Halt(); err != nil {
		return fmt.Errorf("thermo: halt display: %w", err)
	}
	return nil
}

func (a *App) draw() error {
	img := a.View.Render(a.Store.Read())
	return a.Display.Draw(a.Display.Bounds(), img, image.Point{})
}
