// Package logic contains pure business logic for tracking sensor samples.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import (
	"time"

	"github.com/sweeney/dht-sensor/internal/decode"
)

// Outcome classifies the result of one sample.
type Outcome string

const (
	OutcomeOK            Outcome = "OK"
	OutcomeEmptyTimeout  Outcome = "EMPTY_TIMEOUT"
	OutcomePollFailure   Outcome = "POLL_FAILURE"
	OutcomeWatchFailure  Outcome = "WATCH_FAILURE"
	OutcomeOpenFailure   Outcome = "OPEN_FAILURE"
	OutcomeDecodeFailure Outcome = "DECODE_FAILURE"
	OutcomeOther         Outcome = "OTHER"
)

// Sample is the result of one read-and-decode attempt.
type Sample struct {
	Time    time.Time
	Reading decode.Reading
	Edges   int
	Err     error
}

// Event is a successful reading to be published.
type Event struct {
	Timestamp time.Time
	Reading   decode.Reading
	Edges     int
}

// OutcomeCounts tracks the number of samples per outcome since startup.
type OutcomeCounts struct {
	OK            int
	EmptyTimeout  int
	PollFailure   int
	WatchFailure  int
	OpenFailure   int
	DecodeFailure int
	Other         int
}

// Total returns the number of samples counted.
func (c OutcomeCounts) Total() int {
	return c.OK + c.EmptyTimeout + c.PollFailure + c.WatchFailure + c.OpenFailure + c.DecodeFailure + c.Other
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    OutcomeCounts
}
