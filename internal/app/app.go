// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package app wires the sensor, the display, the inputs and the optional
// MQTT publisher together.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/thermo/am2301"
	"github.com/GermanBionicSystems/thermo/am2301/am2301test"
	"github.com/GermanBionicSystems/thermo/internal/config"
	"github.com/GermanBionicSystems/thermo/internal/mqtt"
	"github.com/GermanBionicSystems/thermo/keypad"
	"github.com/GermanBionicSystems/thermo/termscreen"
	"github.com/GermanBionicSystems/thermo/thermo"
	"github.com/GermanBionicSystems/thermo/webscreen"
)

// Run blocks until the user quits or ctx is done. The sensor line and the
// display are released before it returns.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("host init: %w", err)
	}

	units, err := thermo.ParseUnits(cfg.Display.Units)
	if err != nil {
		return err
	}
	pin, err := sensorPin(cfg.Sensor)
	if err != nil {
		return err
	}
	timing, err := am2301.ParseTiming(cfg.Sensor.Timing)
	if err != nil {
		return err
	}
	dev, err := am2301.NewGPIO(pin, &am2301.Opts{
		RequestPulse:    am2301.DefaultOpts.RequestPulse,
		StrictHandshake: cfg.Sensor.StrictHandshake,
		Timing:          timing,
	})
	if err != nil {
		return err
	}
	defer dev.Halt()

	disp, closeDisplay, err := openDisplay(cfg.Display, logger)
	if err != nil {
		return err
	}
	defer closeDisplay()

	b := disp.Bounds()
	view, err := thermo.NewView(b.Dx(), b.Dy(), units, cfg.Sensor.Pin)
	if err != nil {
		return err
	}

	store := &thermo.Store{}
	poller := thermo.NewPoller(dev, store, &thermo.PollerOpts{
		Interval: cfg.Sensor.PollInterval,
		Settle:   thermo.DefaultPollerOpts.Settle,
	}, logger)

	// Inputs and the publisher stop with the App.
	inputCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	var wg sync.WaitGroup
	events := make(chan keypad.Event, 8)

	term := keypad.NewTerminal(os.Stdin)
	defer term.Halt()
	go func() {
		// Not in wg: a pending read of stdin cannot be interrupted.
		if err := term.Run(inputCtx, events); err != nil {
			logger.Warn("terminal input stopped", "error", err)
		}
	}()

	if cfg.Display.ButtonPin != "" {
		p := gpioreg.ByName(cfg.Display.ButtonPin)
		if p == nil {
			return fmt.Errorf("failed to find button pin %q", cfg.Display.ButtonPin)
		}
		btn, err := keypad.NewButton(p, keypad.KeyBack, keypad.DefaultLongPress)
		if err != nil {
			return err
		}
		defer btn.Halt()
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := btn.Run(inputCtx, events); err != nil {
				logger.Warn("button input stopped", "button", btn, "error", err)
			}
		}()
	}

	if cfg.MQTT.Broker != "" {
		client := mqtt.NewClient(cfg.MQTT, logger)
		pub := &mqtt.Publisher{
			Sink:      client,
			Store:     store,
			StationID: cfg.MQTT.StationID,
			Interval:  cfg.MQTT.PublishInterval,
			Logger:    logger,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer client.Disconnect()
			if err := client.Connect(inputCtx); err != nil {
				logger.Error("mqtt connect failed", "error", err)
				return
			}
			_ = pub.Run(inputCtx)
		}()
	}

	a := &thermo.App{
		Store:   store,
		Poller:  poller,
		View:    view,
		Display: disp,
		Logger:  logger,
	}
	err = a.Run(ctx, events)
	cancel()
	wg.Wait()
	return err
}

func sensorPin(cfg config.SensorConfig) (gpio.PinIO, error) {
	if cfg.Simulate {
		return am2301test.NewSensor("SIMULATED", am2301test.Encode(452, 215)), nil
	}
	p := gpioreg.ByName(cfg.Pin)
	if p == nil {
		return nil, fmt.Errorf("failed to find sensor pin %q", cfg.Pin)
	}
	return p, nil
}

// openDisplay returns the configured display and a function closing the
// resources it uses besides the display itself.
func openDisplay(cfg config.DisplayConfig, logger *slog.Logger) (display.Drawer, func(), error) {
	switch cfg.Kind {
	case "web":
		screen := webscreen.New(&webscreen.Opts{})
		srv := &http.Server{Addr: cfg.HTTPAddr, Handler: screen, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("web display stopped", "addr", cfg.HTTPAddr, "error", err)
			}
		}()
		logger.Info("web display listening", "addr", cfg.HTTPAddr)
		return screen, func() {
			// Streams end when the App halts the screen.
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}, nil
	case "ssd1306":
		bus, err := i2creg.Open(cfg.I2CBus)
		if err != nil {
			return nil, nil, fmt.Errorf("open i2c bus %q: %w", cfg.I2CBus, err)
		}
		opts := ssd1306.DefaultOpts
		d, err := ssd1306.NewI2C(bus, &opts)
		if err != nil {
			_ = bus.Close()
			return nil, nil, fmt.Errorf("ssd1306: %w", err)
		}
		return d, func() { _ = bus.Close() }, nil
	default:
		return termscreen.New(&termscreen.Opts{}), func() {}, nil
	}
}
