package mqtt

import (
	"github.com/sweeney/dht-sensor/internal/decode"
	"github.com/sweeney/dht-sensor/internal/logic"
)

// FakePublisher records what the daemon would send to the broker.
//
// Every accepted reading is kept twice: as the logic.Event handed to Publish
// and as the JSON payload FormatPayload produced for the readings topic.
// System events are kept the same way for the system topic. A publish that
// fails through PublishError or PublishSystemError records nothing.
type FakePublisher struct {
	// Events holds each published reading event, in publish order.
	Events []logic.Event

	// Payloads holds the readings topic payload for each entry in Events.
	Payloads [][]byte

	// SystemEvents holds each published system event (STARTUP, HEARTBEAT,
	// RECONNECTED, SHUTDOWN), in publish order.
	SystemEvents []SystemEvent

	// SystemPayloads holds the system topic payload for each entry in SystemEvents.
	SystemPayloads [][]byte

	// PublishError, if set, is returned by Publish.
	PublishError error

	// PublishSystemError, if set, is returned by PublishSystem.
	PublishSystemError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Publish records the reading event and its payload.
func (f *FakePublisher) Publish(event logic.Event) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}
	f.Events = append(f.Events, event)
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// PublishSystem records the system event and its payload.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	return nil
}

// Readings returns the decoded readings published so far.
func (f *FakePublisher) Readings() []decode.Reading {
	out := make([]decode.Reading, len(f.Events))
	for i, e := range f.Events {
		out[i] = e.Reading
	}
	return out
}

// LastReading returns the most recently published reading.
func (f *FakePublisher) LastReading() (decode.Reading, bool) {
	if len(f.Events) == 0 {
		return decode.Reading{}, false
	}
	return f.Events[len(f.Events)-1].Reading, true
}

// SystemEventNames returns the Event field of each published system event.
func (f *FakePublisher) SystemEventNames() []string {
	out := make([]string, len(f.SystemEvents))
	for i, e := range f.SystemEvents {
		out[i] = e.Event
	}
	return out
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports the Connected field.
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears everything recorded and any injected errors.
func (f *FakePublisher) Reset() {
	*f = FakePublisher{}
}
