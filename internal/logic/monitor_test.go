package logic

import (
	"errors"
	"fmt"
	"go/build"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/dht-sensor/internal/capture"
	"github.com/sweeney/dht-sensor/internal/decode"
	"github.com/sweeney/dht-sensor/internal/linefault"
)

var startTime = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func okSample(t time.Time) Sample {
	return Sample{Time: t, Reading: decode.Reading{Humidity: 55.5, Temperature: 21.3}, Edges: 42}
}

func TestNewMonitor(t *testing.T) {
	m := NewMonitor(startTime)
	require.NotNil(t, m)
	assert.True(t, m.startTime.Equal(startTime))
	assert.True(t, m.lastHeartbeat.Equal(startTime))
	assert.Nil(t, m.Last(), "new monitor should have no reading")
	assert.Zero(t, m.Counts().Total())
}

func TestProcessSuccess(t *testing.T) {
	m := NewMonitor(startTime)
	now := startTime.Add(2 * time.Second)

	e := m.Process(okSample(now))
	require.NotNil(t, e, "expected an event for a good sample")
	assert.True(t, e.Timestamp.Equal(now))
	assert.Equal(t, decode.Reading{Humidity: 55.5, Temperature: 21.3}, e.Reading)
	assert.Equal(t, 42, e.Edges)
	assert.Equal(t, 1, m.Counts().OK)

	last := m.Last()
	require.NotNil(t, last)
	assert.Equal(t, *e, *last)

	outcome, msg := m.LastOutcome()
	assert.Equal(t, OutcomeOK, outcome)
	assert.Empty(t, msg)
}

func TestProcessFailureKeepsLastReading(t *testing.T) {
	m := NewMonitor(startTime)
	m.Process(okSample(startTime.Add(2 * time.Second)))

	e := m.Process(Sample{Time: startTime.Add(4 * time.Second), Err: capture.ErrEmptyTimeout})
	assert.Nil(t, e, "expected no event for a failed sample")

	last := m.Last()
	require.NotNil(t, last, "last good reading should survive a failure")
	assert.True(t, last.Timestamp.Equal(startTime.Add(2*time.Second)))

	outcome, msg := m.LastOutcome()
	assert.Equal(t, OutcomeEmptyTimeout, outcome)
	assert.Equal(t, capture.ErrEmptyTimeout.Error(), msg)
}

func TestLastReturnsCopy(t *testing.T) {
	m := NewMonitor(startTime)
	m.Process(okSample(startTime))

	last := m.Last()
	last.Edges = 0
	assert.Equal(t, 42, m.Last().Edges, "Last must not expose internal state")
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want Outcome
	}{
		{nil, OutcomeOK},
		{capture.ErrEmptyTimeout, OutcomeEmptyTimeout},
		{fmt.Errorf("%w: %w", capture.ErrPollFailure, errors.New("EIO")), OutcomePollFailure},
		{fmt.Errorf("%w: line 4: busy", linefault.ErrWatch), OutcomeWatchFailure},
		{fmt.Errorf("%w: line 4: denied", linefault.ErrOpen), OutcomeOpenFailure},
		{errors.Join(capture.ErrPollFailure, linefault.ErrOpen), OutcomePollFailure},
		{fmt.Errorf("%w: got 3, need 41", decode.ErrTooFewEdges), OutcomeDecodeFailure},
		{decode.ErrPulseWidth, OutcomeDecodeFailure},
		{decode.ErrChecksum, OutcomeDecodeFailure},
		{errors.New("something else"), OutcomeOther},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err), "Classify(%v)", tt.err)
		})
	}
}

// Classification must not drag the GPIO stack into consumers of this package.
func TestNoGPIOImports(t *testing.T) {
	pkg, err := build.ImportDir(".", 0)
	require.NoError(t, err)
	for _, imp := range pkg.Imports {
		assert.False(t, strings.HasSuffix(imp, "/internal/dht"), "imports %s", imp)
		assert.False(t, strings.HasSuffix(imp, "/internal/gpio"), "imports %s", imp)
		assert.NotContains(t, imp, "go-gpiocdev")
	}
}

func TestOutcomeCountsIncrement(t *testing.T) {
	m := NewMonitor(startTime)
	errs := []error{
		nil,
		nil,
		capture.ErrEmptyTimeout,
		capture.ErrPollFailure,
		linefault.ErrWatch,
		linefault.ErrOpen,
		decode.ErrChecksum,
		errors.New("boom"),
	}
	for i, err := range errs {
		s := okSample(startTime.Add(time.Duration(i) * 2 * time.Second))
		s.Err = err
		m.Process(s)
	}

	want := OutcomeCounts{OK: 2, EmptyTimeout: 1, PollFailure: 1, WatchFailure: 1, OpenFailure: 1, DecodeFailure: 1, Other: 1}
	assert.Equal(t, want, m.Counts())
	assert.Equal(t, len(errs), m.Counts().Total())
}

func TestCheckHeartbeatDisabledWithZeroInterval(t *testing.T) {
	m := NewMonitor(startTime)

	// Should return nil with zero interval (disabled)
	assert.Nil(t, m.CheckHeartbeat(startTime.Add(15*time.Minute), 0))

	// Should also return nil with negative interval
	assert.Nil(t, m.CheckHeartbeat(startTime.Add(15*time.Minute), -1*time.Minute))
}

func TestCheckHeartbeatBeforeInterval(t *testing.T) {
	m := NewMonitor(startTime)

	assert.Nil(t, m.CheckHeartbeat(startTime.Add(14*time.Minute), 15*time.Minute),
		"should not return heartbeat before interval")
}

func TestCheckHeartbeatAtInterval(t *testing.T) {
	m := NewMonitor(startTime)

	checkTime := startTime.Add(15 * time.Minute)
	hb := m.CheckHeartbeat(checkTime, 15*time.Minute)
	require.NotNil(t, hb, "should return heartbeat at interval")
	assert.True(t, hb.Timestamp.Equal(checkTime))
	assert.Equal(t, 15*time.Minute, hb.Uptime)
}

func TestCheckHeartbeatUpdatesLastTime(t *testing.T) {
	m := NewMonitor(startTime)

	// First heartbeat
	t1 := startTime.Add(15 * time.Minute)
	require.NotNil(t, m.CheckHeartbeat(t1, 15*time.Minute))

	// Too soon after the first
	assert.Nil(t, m.CheckHeartbeat(t1.Add(10*time.Minute), 15*time.Minute))

	// Second heartbeat
	t2 := t1.Add(15 * time.Minute)
	hb := m.CheckHeartbeat(t2, 15*time.Minute)
	require.NotNil(t, hb)
	assert.Equal(t, 30*time.Minute, hb.Uptime)
}

func TestHeartbeatContainsCounts(t *testing.T) {
	m := NewMonitor(startTime)
	m.Process(okSample(startTime.Add(time.Minute)))
	m.Process(Sample{Time: startTime.Add(2 * time.Minute), Err: capture.ErrEmptyTimeout})

	hb := m.CheckHeartbeat(startTime.Add(15*time.Minute), 15*time.Minute)
	require.NotNil(t, hb)
	assert.Equal(t, 1, hb.Counts.OK)
	assert.Equal(t, 1, hb.Counts.EmptyTimeout)
}
