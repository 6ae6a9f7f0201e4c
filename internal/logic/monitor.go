package logic

import (
	"errors"
	"time"

	"github.com/sweeney/dht-sensor/internal/capture"
	"github.com/sweeney/dht-sensor/internal/decode"
	"github.com/sweeney/dht-sensor/internal/linefault"
)

// Monitor counts sample outcomes and remembers the last good reading.
type Monitor struct {
	startTime     time.Time
	counts        OutcomeCounts
	last          *Event
	lastOutcome   Outcome
	lastError     string
	lastHeartbeat time.Time
}

// NewMonitor creates a Monitor. The startTime is used for calculating
// uptime in heartbeat events.
func NewMonitor(startTime time.Time) *Monitor {
	return &Monitor{
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Process records a sample and returns the event to publish, if any.
func (m *Monitor) Process(s Sample) *Event {
	outcome := Classify(s.Err)
	m.lastOutcome = outcome

	switch outcome {
	case OutcomeOK:
		m.counts.OK++
	case OutcomeEmptyTimeout:
		m.counts.EmptyTimeout++
	case OutcomePollFailure:
		m.counts.PollFailure++
	case OutcomeWatchFailure:
		m.counts.WatchFailure++
	case OutcomeOpenFailure:
		m.counts.OpenFailure++
	case OutcomeDecodeFailure:
		m.counts.DecodeFailure++
	default:
		m.counts.Other++
	}

	if outcome != OutcomeOK {
		m.lastError = s.Err.Error()
		return nil
	}

	m.lastError = ""
	e := Event{Timestamp: s.Time, Reading: s.Reading, Edges: s.Edges}
	m.last = &e
	return &e
}

// Classify maps a sample error to its outcome. A nil error is OutcomeOK.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, capture.ErrEmptyTimeout):
		return OutcomeEmptyTimeout
	case errors.Is(err, capture.ErrPollFailure):
		return OutcomePollFailure
	case errors.Is(err, linefault.ErrWatch):
		return OutcomeWatchFailure
	case errors.Is(err, linefault.ErrOpen):
		return OutcomeOpenFailure
	case errors.Is(err, decode.ErrTooFewEdges),
		errors.Is(err, decode.ErrPulseWidth),
		errors.Is(err, decode.ErrChecksum):
		return OutcomeDecodeFailure
	}
	return OutcomeOther
}

// Last returns the last successful reading, or nil if there has been none.
func (m *Monitor) Last() *Event {
	if m.last == nil {
		return nil
	}
	e := *m.last
	return &e
}

// LastOutcome returns the outcome of the most recent sample and, if it
// failed, its error text.
func (m *Monitor) LastOutcome() (Outcome, string) {
	return m.lastOutcome, m.lastError
}

// Counts returns a copy of the outcome counters.
func (m *Monitor) Counts() OutcomeCounts {
	return m.counts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (m *Monitor) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(m.lastHeartbeat) < interval {
		return nil
	}

	m.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(m.startTime),
		Counts:    m.counts,
	}
}
