// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package mqtt publishes the thermometer readings to an MQTT broker.
//
// Two topics are used per station:
//
//	stations/<id>/telemetry  one Telemetry record per publish interval
//	stations/<id>/health     retained StationHealth, sent on presence changes
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/GermanBionicSystems/thermo/internal/config"
)

var (
	// ErrNotConnected is returned when publishing without a broker
	// connection. The message is dropped.
	ErrNotConnected = errors.New("mqtt: not connected")
	// ErrStopped is returned by Connect after Disconnect.
	ErrStopped = errors.New("mqtt: client stopped")
)

const (
	publishQoS     = 1
	publishTimeout = 5 * time.Second
	// Time given to in-flight messages on Disconnect, in ms.
	quiesce = 250
)

// Telemetry is one published measurement. Temperature and Humidity are
// omitted until the sensor produced a valid reading.
type Telemetry struct {
	StationID     string    `json:"station_id"`
	Timestamp     time.Time `json:"timestamp"`
	Temperature   *float64  `json:"temperature_c,omitempty"`
	Humidity      *float64  `json:"humidity_pct,omitempty"`
	DevicePresent bool      `json:"device_present"`
}

// StationHealth is the retained presence state of the sensor.
type StationHealth struct {
	StationID string    `json:"station_id"`
	LastSeen  time.Time `json:"last_seen"`
	Healthy   bool      `json:"healthy"`
}

// Client is a Sink publishing to an MQTT broker. paho reconnects on its own
// after the first connection; messages published while disconnected are
// dropped with ErrNotConnected.
type Client struct {
	client mqtt.Client
	logger *slog.Logger

	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewClient returns a Client for the broker in cfg. It does not connect; call
// Connect.
func NewClient(cfg config.MQTTConfig, logger *slog.Logger) *Client {
	c := &Client{logger: logger, stopCh: make(chan struct{})}
	opts := clientOptions(cfg)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		c.setConnected(true)
		logger.Info("mqtt connected", "broker", cfg.Broker, "port", cfg.Port)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		c.setConnected(false)
		logger.Warn("mqtt connection lost", "error", err)
	})
	c.client = mqtt.NewClient(opts)
	return c
}

// clientOptions maps cfg to the paho options, handlers excluded.
func clientOptions(cfg config.MQTTConfig) *mqtt.ClientOptions {
	return mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Broker, cfg.Port)).
		SetClientID(cfg.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetMaxReconnectInterval(time.Minute).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(10 * time.Second)
}

// Connect waits for the first connection to the broker. paho keeps retrying
// in the background; Connect returns early when ctx is done or Disconnect is
// called.
func (c *Client) Connect(ctx context.Context) error {
	select {
	case <-c.stopCh:
		return ErrStopped
	default:
	}
	if c.IsConnected() {
		return nil
	}
	token := c.client.Connect()
	for !token.WaitTimeout(200 * time.Millisecond) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopCh:
			return ErrStopped
		default:
		}
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt: connect: %w", err)
	}
	return nil
}

// PublishTelemetry publishes t on the telemetry topic of its station.
func (c *Client) PublishTelemetry(t Telemetry) error {
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now()
	}
	return c.publish(topic(t.StationID, "telemetry"), false, t)
}

// PublishStationHealth publishes h, retained, on the health topic of its
// station.
func (c *Client) PublishStationHealth(h StationHealth) error {
	if h.LastSeen.IsZero() {
		h.LastSeen = time.Now()
	}
	return c.publish(topic(h.StationID, "health"), true, h)
}

func topic(stationID, leaf string) string {
	return "stations/" + stationID + "/" + leaf
}

func (c *Client) publish(topic string, retained bool, v any) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("mqtt: marshal %s: %w", topic, err)
	}
	token := c.client.Publish(topic, publishQoS, retained, data)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("mqtt: publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt: publish %s: %w", topic, err)
	}
	c.logger.Debug("published", "topic", topic, "retained", retained)
	return nil
}

// IsConnected reports whether the broker connection is up.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected && c.client.IsConnected()
}

// Disconnect closes the connection and ends a pending Connect. It can be
// called more than once.
func (c *Client) Disconnect() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	c.client.Disconnect(quiesce)
	c.setConnected(false)
	c.logger.Info("mqtt disconnected")
}

func (c *Client) setConnected(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = v
}

var _ Sink = &Client{}
