// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config loads the thermometer configuration from an optional YAML
// file and the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the whole program configuration. The yaml tags name the keys of
// the optional configuration file.
type Config struct {
	AppEnv   string `yaml:"app_env"`
	LogLevel string `yaml:"log_level"`

	Sensor  SensorConfig  `yaml:"sensor"`
	Display DisplayConfig `yaml:"display"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
}

// ---- SENSOR ----

// SensorConfig selects the sensor pin and the acquisition timing.
type SensorConfig struct {
	Pin             string        `yaml:"pin"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	StrictHandshake bool          `yaml:"strict_handshake"`
	Timing          string        `yaml:"timing"`
	// Simulate replaces the GPIO pin with an emulated sensor.
	Simulate bool `yaml:"simulate"`
}

// ---- DISPLAY ----

// DisplayConfig selects the display, the temperature units and the inputs.
type DisplayConfig struct {
	// Kind is terminal, ssd1306 or web.
	Kind      string `yaml:"kind"`
	Units     string `yaml:"units"`
	I2CBus    string `yaml:"i2c_bus"`
	ButtonPin string `yaml:"button_pin"`
	// HTTPAddr is the listen address of the web display.
	HTTPAddr string `yaml:"http_addr"`
}

// ---- MQTT ----

// MQTTConfig is optional; an empty Broker disables publishing.
type MQTTConfig struct {
	Broker          string        `yaml:"broker"`
	Port            int           `yaml:"port"`
	ClientID        string        `yaml:"client_id"`
	StationID       string        `yaml:"station_id"`
	PublishInterval time.Duration `yaml:"publish_interval"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		AppEnv:   "dev",
		LogLevel: "info",
		Sensor: SensorConfig{
			Pin:          "GPIO4",
			PollInterval: time.Second,
			Timing:       "loops",
		},
		Display: DisplayConfig{
			Kind:     "terminal",
			Units:    "metric",
			HTTPAddr: ":8080",
		},
		MQTT: MQTTConfig{
			Port:            1883,
			ClientID:        "thermo",
			StationID:       "home",
			PublishInterval: 10 * time.Second,
		},
	}
}

// Load returns the defaults, overridden by the YAML file at path if path is
// not empty, overridden by the environment. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := Validate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Level returns the parsed LogLevel.
func (c *Config) Level() slog.Level {
	l, _ := parseLogLevel(c.LogLevel)
	return l
}

func applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	str("APP_ENV", &cfg.AppEnv)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("THERMO_PIN", &cfg.Sensor.Pin)
	str("THERMO_TIMING", &cfg.Sensor.Timing)
	str("THERMO_UNITS", &cfg.Display.Units)
	str("THERMO_DISPLAY", &cfg.Display.Kind)
	str("THERMO_I2C_BUS", &cfg.Display.I2CBus)
	str("THERMO_BUTTON_PIN", &cfg.Display.ButtonPin)
	str("THERMO_HTTP_ADDR", &cfg.Display.HTTPAddr)
	str("MQTT_BROKER", &cfg.MQTT.Broker)
	str("MQTT_CLIENT_ID", &cfg.MQTT.ClientID)
	str("MQTT_STATION_ID", &cfg.MQTT.StationID)

	for key, dst := range map[string]*bool{
		"THERMO_STRICT_HANDSHAKE": &cfg.Sensor.StrictHandshake,
		"THERMO_SIMULATE":         &cfg.Sensor.Simulate,
	} {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*dst = b
	}

	for key, dst := range map[string]*time.Duration{
		"THERMO_POLL_INTERVAL":  &cfg.Sensor.PollInterval,
		"MQTT_PUBLISH_INTERVAL": &cfg.MQTT.PublishInterval,
	} {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*dst = d
	}

	if v := strings.TrimSpace(os.Getenv("MQTT_PORT")); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MQTT_PORT %q: %w", v, err)
		}
		cfg.MQTT.Port = p
	}
	return nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
