// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package config

import (
	"fmt"

	"github.com/GermanBionicSystems/thermo/am2301"
	"github.com/GermanBionicSystems/thermo/thermo"
)

// Validate checks configuration correctness. It does not mutate cfg.
func Validate(cfg *Config) error {
	switch cfg.AppEnv {
	case "dev", "prod":
	default:
		return fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", cfg.AppEnv)
	}
	if _, err := parseLogLevel(cfg.LogLevel); err != nil {
		return err
	}

	if cfg.Sensor.Pin == "" && !cfg.Sensor.Simulate {
		return fmt.Errorf("sensor pin is required")
	}
	if cfg.Sensor.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", cfg.Sensor.PollInterval)
	}
	if _, err := am2301.ParseTiming(cfg.Sensor.Timing); err != nil {
		return err
	}

	if _, err := thermo.ParseUnits(cfg.Display.Units); err != nil {
		return err
	}
	switch cfg.Display.Kind {
	case "terminal", "ssd1306":
	case "web":
		if cfg.Display.HTTPAddr == "" {
			return fmt.Errorf("http_addr is required by the web display")
		}
	default:
		return fmt.Errorf("invalid display %q (allowed: terminal, ssd1306, web)", cfg.Display.Kind)
	}

	if cfg.MQTT.Broker == "" {
		return nil
	}
	if cfg.MQTT.Port <= 0 || cfg.MQTT.Port > 65535 {
		return fmt.Errorf("invalid MQTT port %d", cfg.MQTT.Port)
	}
	if cfg.MQTT.StationID == "" {
		return fmt.Errorf("mqtt station_id is required when a broker is set")
	}
	if cfg.MQTT.PublishInterval <= 0 {
		return fmt.Errorf("mqtt publish interval must be positive, got %v", cfg.MQTT.PublishInterval)
	}
	return nil
}
