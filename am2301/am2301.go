// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package am2301

import (
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

const (
	// Number of acknowledge polls after the line is released. The expected
	// level alternates starting with low.
	handshakePolls = 4
	// Sample limit of one acknowledge poll.
	handshakeLimit uint16 = 500
	// Sample limit of one half of a data bit.
	bitLimit uint16 = 65535

	// MinInterval is the shortest SenseContinuous() interval. The sensor
	// samples once every 2 seconds.
	MinInterval = 2 * time.Second
)

// Opts holds the configuration options for the device.
type Opts struct {
	// RequestPulse is how long the line is held low to request a measurement.
	// The datasheet asks for at least 18ms. Default is 19ms.
	RequestPulse time.Duration
	// StrictHandshake aborts the cycle with a *HandshakeTimeoutError when an
	// acknowledge poll runs out of samples. By default the bits are read
	// anyway and the checksum decides.
	StrictHandshake bool
	// Timing selects how the width of a pulse is measured.
	Timing Timing
}

// DefaultOpts holds the default configuration options for the device.
var DefaultOpts = Opts{
	RequestPulse: 19 * time.Millisecond,
	Timing:       TimingLoops,
}

// Cycle is the outcome of one request/response exchange with the sensor.
type Cycle struct {
	// Frame holds the 40 bits as received, even when the check byte is wrong.
	Frame Frame
	// Handshake holds the sample count of each acknowledge poll.
	Handshake [handshakePolls]uint16
	// Timeouts is the number of acknowledge polls that reached their limit.
	Timeouts int
	// Present is set when every acknowledge poll saw the line change before
	// its limit. This alone proves a sensor answered.
	Present bool
	// Stuck is the number of bit halves that reached the sample limit. A
	// sensor never holds a level that long, the line is stuck.
	Stuck int
}

// Dev represents an AM2301 temperature/humidity sensor on a GPIO pin.
type Dev struct {
	line     *Line
	opts     Opts
	mu       sync.Mutex
	shutdown chan struct{}
}

// NewGPIO returns a Dev using pin as the data line. The line is released so
// the pull-up holds it high until the first request. The Opts can be nil.
func NewGPIO(pin gpio.PinIO, opts *Opts) (*Dev, error) {
	if pin == nil {
		return nil, errors.New("am2301: pin is nil")
	}
	if opts == nil {
		opts = &DefaultOpts
	}
	d := &Dev{line: NewLine(pin, opts.Timing), opts: *opts}
	if d.opts.RequestPulse <= 0 {
		d.opts.RequestPulse = DefaultOpts.RequestPulse
	}
	if err := d.line.Drive(gpio.High); err != nil {
		return nil, fmt.Errorf("am2301: failed to release %s: %w", pin, err)
	}
	return d, nil
}

// Cycle performs one complete exchange: request pulse, release, acknowledge
// handshake, 40 data bits and checksum verification.
//
// On a checksum mismatch the returned Cycle still carries the handshake
// result and the bad frame, and the error matches ErrChecksumMismatch. When a
// bit half reached its sample limit the frame is rejected with an error
// matching ErrLineStuck, whatever its check byte.
func (d *Dev) Cycle() (Cycle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cycle()
}

func (d *Dev) cycle() (Cycle, error) {
	var c Cycle
	if err := d.line.Drive(gpio.Low); err != nil {
		return c, fmt.Errorf("am2301: request: %w", err)
	}
	time.Sleep(d.opts.RequestPulse)

	// From here on the sensor drives the timing. Keep the scheduler and the
	// collector out of the way until the last bit.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	gcPercent := debug.SetGCPercent(-1)
	defer debug.SetGCPercent(gcPercent)

	if err := d.line.Drive(gpio.High); err != nil {
		return c, fmt.Errorf("am2301: release: %w", err)
	}

	level := gpio.Low
	for i := range c.Handshake {
		c.Handshake[i] = d.line.CountWhile(level, handshakeLimit)
		if c.Handshake[i] >= handshakeLimit {
			c.Timeouts++
		}
		level = !level
	}
	if c.Timeouts != 0 && d.opts.StrictHandshake {
		return c, &HandshakeTimeoutError{Polls: c.Handshake}
	}
	c.Present = c.Timeouts == 0

	for i := range c.Frame {
		for bit := 7; bit >= 0; bit-- {
			low, satLow := d.line.width(gpio.Low, bitLimit)
			high, satHigh := d.line.width(gpio.High, bitLimit)
			if satLow {
				c.Stuck++
			}
			if satHigh {
				c.Stuck++
			}
			if decodeBit(low, high) {
				c.Frame[i] |= 1 << bit
			}
		}
	}

	// A line held low decodes as an all zero frame, which sums correctly.
	if c.Stuck != 0 {
		return c, &StuckLineError{Halves: c.Stuck}
	}
	if !c.Frame.Valid() {
		return c, &ChecksumError{Frame: c.Frame}
	}
	return c, nil
}

// decodeBit returns true when the high half of a bit was longer than its low
// half.
func decodeBit(low, high int64) bool {
	return high > low
}

// Read performs one exchange and returns the reading in whole units.
func (d *Dev) Read() (Reading, error) {
	c, err := d.Cycle()
	if err != nil {
		return Reading{}, err
	}
	return c.Frame.Reading(), nil
}

// Sense performs one exchange and writes the temperature and humidity to env
// at the full 0.1 resolution. Implements physic.SenseEnv.
func (d *Dev) Sense(env *physic.Env) error {
	env.Temperature = 0
	env.Pressure = 0
	env.Humidity = 0

	c, err := d.Cycle()
	if err != nil {
		return err
	}
	c.Frame.Env(env)
	return nil
}

// SenseContinuous returns a channel that receives a value for every
// successful exchange. Failed exchanges are skipped. The minimum interval is
// MinInterval. To end the read, call Halt().
func (d *Dev) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	if interval < MinInterval {
		return nil, fmt.Errorf("am2301: invalid duration. minimum %s", MinInterval)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.shutdown != nil {
		return nil, errors.New("am2301: sense continuous already running")
	}

	d.shutdown = make(chan struct{})
	ch := make(chan physic.Env, 16)
	go func(shutdown <-chan struct{}) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		defer close(ch)
		for {
			select {
			case <-shutdown:
				return
			case <-ticker.C:
				e := physic.Env{}
				if d.senseTick(&e, shutdown) {
					select {
					case ch <- e:
					default:
					}
				}
			}
		}
	}(d.shutdown)
	return ch, nil
}

// senseTick runs one exchange of SenseContinuous. It does nothing once
// shutdown is closed, so a tick waiting on mu while Halt runs does not drive
// the line again after Halt released it.
func (d *Dev) senseTick(env *physic.Env, shutdown <-chan struct{}) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	select {
	case <-shutdown:
		return false
	default:
	}
	c, err := d.cycle()
	if err != nil {
		return false
	}
	c.Frame.Env(env)
	return true
}

// Halt interrupts a running SenseContinuous() and puts the line in its rest
// configuration, an input without pull. Implements conn.Resource.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.shutdown != nil {
		close(d.shutdown)
		d.shutdown = nil
	}
	if err := d.line.Release(); err != nil {
		return fmt.Errorf("am2301: halt: %w", err)
	}
	return nil
}

// Precision returns the resolution of the device for its measured parameters.
func (d *Dev) Precision(env *physic.Env) {
	env.Temperature = physic.Celsius / 10
	env.Pressure = 0
	env.Humidity = physic.MilliRH
}

func (d *Dev) String() string {
	if d.line == nil {
		return "am2301"
	}
	return fmt.Sprintf("am2301: %s", d.line)
}

var _ conn.Resource = &Dev{}
var _ physic.SenseEnv = &Dev{}
