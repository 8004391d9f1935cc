// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermo

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/GermanBionicSystems/thermo/am2301"
)

// ErrPollerStarted is returned by Start when the Poller already ran. A Poller
// is not reusable.
var ErrPollerStarted = errors.New("thermo: poller already started")

// Sensor is the part of *am2301.Dev the Poller uses.
type Sensor interface {
	Cycle() (am2301.Cycle, error)
	Halt() error
	String() string
}

// PollerOpts holds the timing of the acquisition loop.
type PollerOpts struct {
	// Interval is the wait between two exchanges. Default is 1s.
	Interval time.Duration
	// Settle is a pause after every exchange. Default is 10ms.
	Settle time.Duration
}

// DefaultPollerOpts holds the default acquisition timing.
var DefaultPollerOpts = PollerOpts{
	Interval: time.Second,
	Settle:   10 * time.Millisecond,
}

// Poller runs the acquisition loop. It has exclusive use of the sensor while
// running.
type Poller struct {
	dev    Sensor
	store  *Store
	opts   PollerOpts
	logger *slog.Logger

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewPoller returns a Poller reading dev into store. The opts can be nil.
func NewPoller(dev Sensor, store *Store, opts *PollerOpts, logger *slog.Logger) *Poller {
	if opts == nil {
		opts = &DefaultPollerOpts
	}
	o := *opts
	if o.Interval <= 0 {
		o.Interval = DefaultPollerOpts.Interval
	}
	if o.Settle < 0 {
		o.Settle = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		dev:    dev,
		store:  store,
		opts:   o,
		logger: logger.With("sensor", dev.String()),
		done:   make(chan struct{}),
	}
}

// Start runs the loop on a new goroutine until ctx is done or Stop is called.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return ErrPollerStarted
	}
	p.started = true
	ctx, p.cancel = context.WithCancel(ctx)
	go func() {
		defer close(p.done)
		p.run(ctx)
	}()
	return nil
}

// Stop signals the loop and waits until it has released the sensor. An
// exchange in progress is completed first. Stop on a Poller that never
// started returns immediately.
func (p *Poller) Stop() {
	p.mu.Lock()
	started, cancel := p.started, p.cancel
	p.mu.Unlock()
	if !started {
		return
	}
	cancel()
	<-p.done
}

// Done returns a channel closed once the loop terminated.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

func (p *Poller) run(ctx context.Context) {
	p.logger.Debug("acquisition started", "interval", p.opts.Interval)
	timer := time.NewTimer(p.opts.Interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			p.shutdown()
			return
		case <-timer.C:
		}
		p.poll()
		time.Sleep(p.opts.Settle)
		timer.Reset(p.opts.Interval)
	}
}

// poll runs one exchange and publishes its outcome. No error is fatal.
func (p *Poller) poll() {
	c, err := p.dev.Cycle()
	if c.Present {
		p.store.MarkPresent()
	}
	if c.Timeouts != 0 {
		p.logger.Debug("handshake timeout", "polls", c.Handshake, "timeouts", c.Timeouts)
	}
	switch {
	case errors.Is(err, am2301.ErrChecksumMismatch):
		p.logger.Debug("fields checksum match failure", "frame", c.Frame.String())
		return
	case errors.Is(err, am2301.ErrLineStuck):
		p.logger.Debug("line stuck, frame discarded", "saturated", c.Stuck)
		return
	case err != nil:
		p.logger.Debug("exchange failed", "err", err)
		return
	}
	r := c.Frame.Reading()
	p.store.Write(r)
	p.logger.Debug("reading", "temperature", r.Temperature, "humidity", r.Humidity)
}

func (p *Poller) shutdown() {
	if err := p.dev.Halt(); err != nil {
		p.logger.Warn("failed to release the sensor line", "err", err)
	}
	p.store.MarkAbsent()
	p.logger.Debug("acquisition stopped")
}
