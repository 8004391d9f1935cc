// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// clearEnv makes sure the test does not pick up the caller's environment.
func clearEnv(t *testing.T) {
	for _, k := range []string{
		"APP_ENV", "LOG_LEVEL", "THERMO_PIN", "THERMO_TIMING", "THERMO_UNITS",
		"THERMO_DISPLAY", "THERMO_I2C_BUS", "THERMO_BUTTON_PIN", "THERMO_HTTP_ADDR",
		"THERMO_STRICT_HANDSHAKE", "THERMO_SIMULATE", "THERMO_POLL_INTERVAL",
		"MQTT_BROKER", "MQTT_PORT", "MQTT_CLIENT_ID", "MQTT_STATION_ID",
		"MQTT_PUBLISH_INTERVAL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(cfg, Default()); diff != "" {
		t.Errorf("Load() difference (-got +want):\n%s", diff)
	}
	if cfg.Level() != slog.LevelInfo {
		t.Errorf("level %s", cfg.Level())
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "thermo.yaml")
	data := `
log_level: debug
sensor:
  pin: GPIO17
  poll_interval: 3s
  timing: clock
display:
  units: imperial
mqtt:
  broker: broker.local
  station_id: attic
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("THERMO_PIN", "GPIO27")
	t.Setenv("THERMO_STRICT_HANDSHAKE", "true")
	t.Setenv("MQTT_PORT", "8883")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := Default()
	want.LogLevel = "debug"
	want.Sensor.Pin = "GPIO27"
	want.Sensor.PollInterval = 3 * time.Second
	want.Sensor.Timing = "clock"
	want.Sensor.StrictHandshake = true
	want.Display.Units = "imperial"
	want.MQTT.Broker = "broker.local"
	want.MQTT.StationID = "attic"
	want.MQTT.Port = 8883
	if diff := cmp.Diff(cfg, want); diff != "" {
		t.Errorf("Load() difference (-got +want):\n%s", diff)
	}
	if cfg.Level() != slog.LevelDebug {
		t.Errorf("level %s", cfg.Level())
	}
}

func TestLoad_Errors(t *testing.T) {
	data := []struct {
		key, value string
	}{
		{"APP_ENV", "staging"},
		{"LOG_LEVEL", "verbose"},
		{"THERMO_UNITS", "kelvin"},
		{"THERMO_TIMING", "cycles"},
		{"THERMO_DISPLAY", "lcd"},
		{"THERMO_POLL_INTERVAL", "soon"},
		{"THERMO_POLL_INTERVAL", "-1s"},
		{"THERMO_SIMULATE", "maybe"},
		{"MQTT_PORT", "http"},
	}
	for _, line := range data {
		t.Run(line.key+"="+line.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(line.key, line.value)
			if _, err := Load(""); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error")
	}
}

func TestValidate_MQTT(t *testing.T) {
	cfg := Default()
	cfg.MQTT.Broker = "localhost"
	cfg.MQTT.Port = 0
	if err := Validate(&cfg); err == nil {
		t.Error("expected port error")
	}
	cfg.MQTT.Port = 1883
	cfg.MQTT.StationID = ""
	if err := Validate(&cfg); err == nil {
		t.Error("expected station error")
	}
	cfg.MQTT.Broker = ""
	if err := Validate(&cfg); err != nil {
		t.Errorf("MQTT settings must be ignored without a broker: %v", err)
	}
}
