// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// thermo shows the temperature and humidity measured by an AM2301 sensor on a
// terminal or an SSD1306 OLED display, and optionally publishes them to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/GermanBionicSystems/thermo/internal/app"
	"github.com/GermanBionicSystems/thermo/internal/config"
	"github.com/GermanBionicSystems/thermo/internal/logging"
)

var version = "dev"
var appName = "thermo"

func main() {
	configPath := flag.String("config", "", "YAML configuration file; the environment overrides it")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// stdout may be the display.
	logger := logging.New(cfg, version, os.Stderr).With("app", appName)
	slog.SetDefault(logger)

	slog.Info("starting",
		"version", version,
		"env", cfg.AppEnv,
		"log_level", cfg.Level().String(),
		"pin", cfg.Sensor.Pin,
		"display", cfg.Display.Kind,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run failed", "err", err)
		os.Exit(1)
	}

	slog.Info("shutting down")
}
