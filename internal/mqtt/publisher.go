// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mqtt

import (
	"context"
	"log/slog"
	"time"

	"github.com/GermanBionicSystems/thermo/thermo"
)

// Sink receives the published messages. *Client implements it.
type Sink interface {
	PublishTelemetry(Telemetry) error
	PublishStationHealth(StationHealth) error
}

// Publisher periodically publishes the content of a thermo.Store. It only
// reads the Store.
type Publisher struct {
	Sink      Sink
	Store     *thermo.Store
	StationID string
	Interval  time.Duration
	Logger    *slog.Logger

	now func() time.Time
}

// Run publishes immediately then every Interval until ctx is done. Publish
// errors are logged and do not stop the loop.
func (p *Publisher) Run(ctx context.Context) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if p.now == nil {
		p.now = time.Now
	}
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	healthy, first := false, true
	for {
		snap := p.Store.Read()
		now := p.now()
		if err := p.Sink.PublishTelemetry(telemetryFromSnapshot(p.StationID, now, snap)); err != nil {
			logger.Warn("telemetry not published", "error", err)
		}
		if first || snap.HasDevice != healthy {
			h := StationHealth{StationID: p.StationID, LastSeen: now, Healthy: snap.HasDevice}
			if err := p.Sink.PublishStationHealth(h); err != nil {
				logger.Warn("health not published", "error", err)
			} else {
				healthy, first = snap.HasDevice, false
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func telemetryFromSnapshot(stationID string, now time.Time, snap thermo.Snapshot) Telemetry {
	t := Telemetry{StationID: stationID, Timestamp: now, DevicePresent: snap.HasDevice}
	if snap.HasReading {
		temp, hum := snap.Reading.Temperature, snap.Reading.Humidity
		t.Temperature = &temp
		t.Humidity = &hum
	}
	return t
}
