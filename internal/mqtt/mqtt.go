// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/dht-sensor/internal/logic"
)

// Topic is the MQTT topic for sensor readings.
const Topic = "environment/dht/sensor/readings"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "environment/dht/sensor/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a reading to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Reading ReadingPayload `json:"reading"`
}

// ReadingPayload contains one decoded reading.
type ReadingPayload struct {
	Timestamp   string  `json:"timestamp"`
	Humidity    float64 `json:"humidity"`
	Temperature float64 `json:"temperature"`
	Edges       int     `json:"edges"`
}

// FormatPayload creates the JSON payload for a reading.
func FormatPayload(event logic.Event) ([]byte, error) {
	payload := Payload{
		Reading: ReadingPayload{
			Timestamp:   event.Timestamp.UTC().Format(time.RFC3339),
			Humidity:    event.Reading.Humidity,
			Temperature: event.Reading.Temperature,
			Edges:       event.Edges,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
