package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/dht-sensor/internal/capture"
	"github.com/sweeney/dht-sensor/internal/decode"
	"github.com/sweeney/dht-sensor/internal/logic"
)

func monitorWith(start time.Time, samples ...logic.Sample) *logic.Monitor {
	m := logic.NewMonitor(start)
	for _, s := range samples {
		m.Process(s)
	}
	return m
}

func goodSample(t time.Time) logic.Sample {
	return logic.Sample{Time: t, Reading: decode.Reading{Humidity: 48.7, Temperature: 19.4}, Edges: 42}
}

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{Chip: "gpiochip0", Line: 4, IntervalMs: 2000, Broker: "tcp://localhost:1883", HTTPPort: ":80"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	assert.True(t, snap.StartTime.Equal(start))
	assert.Equal(t, cfg, snap.Config)
	assert.Nil(t, snap.Last, "no reading initially")
	assert.False(t, snap.MQTTConnected)
}

func TestUpdateAndSnapshot(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := NewTracker(start, Config{})

	m := monitorWith(start,
		goodSample(start.Add(2*time.Second)),
		logic.Sample{Time: start.Add(4 * time.Second), Err: capture.ErrEmptyTimeout},
	)
	tr.Update(m)

	snap := tr.Snapshot()
	require.NotNil(t, snap.Last)
	assert.Equal(t, 48.7, snap.Last.Reading.Humidity)
	assert.Equal(t, logic.OutcomeEmptyTimeout, snap.LastOutcome)
	assert.NotEmpty(t, snap.LastError)
	assert.Equal(t, 1, snap.Counts.OK)
	assert.Equal(t, 1, snap.Counts.EmptyTimeout)
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetMQTTConnected(true)
	assert.True(t, tr.Snapshot().MQTTConnected)

	tr.SetMQTTConnected(false)
	assert.False(t, tr.Snapshot().MQTTConnected)
}

func TestSetNetwork(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	assert.Nil(t, tr.Snapshot().Network)

	tr.SetNetwork(&NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected"})

	snap := tr.Snapshot()
	require.NotNil(t, snap.Network)
	assert.Equal(t, "192.168.1.42", snap.Network.IP)
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		StartTime: start,
		Now:       start.Add(15 * time.Minute),
	}
	assert.Equal(t, 15*time.Minute, snap.Uptime())
}

func TestSnapshotNowIsSet(t *testing.T) {
	tr := NewTracker(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Config{})

	before := time.Now()
	snap := tr.Snapshot()
	after := time.Now()

	assert.False(t, snap.Now.Before(before) || snap.Now.After(after),
		"Now (%v) not between %v and %v", snap.Now, before, after)
}

func TestSnapshotIsCopy(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := NewTracker(start, Config{})
	m := monitorWith(start, goodSample(start))
	tr.Update(m)

	snap1 := tr.Snapshot()

	m.Process(logic.Sample{Time: start.Add(time.Minute), Reading: decode.Reading{Humidity: 90}, Edges: 41})
	tr.Update(m)

	// snap1 should still reflect old state
	assert.Equal(t, 48.7, snap1.Last.Reading.Humidity, "reading was modified")
	assert.Equal(t, 1, snap1.Counts.OK, "counts were modified")
}

func TestFormatJSON(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Last: &logic.Event{
			Timestamp: start.Add(14 * time.Minute),
			Reading:   decode.Reading{Humidity: 65.2, Temperature: -3.5},
			Edges:     42,
		},
		LastOutcome:   logic.OutcomeOK,
		Counts:        logic.OutcomeCounts{OK: 5, EmptyTimeout: 2, DecodeFailure: 1},
		StartTime:     start,
		Now:           start.Add(15 * time.Minute),
		MQTTConnected: true,
		Config:        Config{Chip: "gpiochip0", Line: 4, IntervalMs: 2000, HeartbeatMs: 900000, Broker: "tcp://localhost:1883", HTTPPort: ":80"},
	}

	var parsed StatusJSON
	require.NoError(t, json.Unmarshal(FormatJSON(snap), &parsed))

	require.NotNil(t, parsed.Status.Reading)
	assert.Equal(t, 65.2, parsed.Status.Reading.Humidity)
	assert.Equal(t, -3.5, parsed.Status.Reading.Temperature)
	assert.Equal(t, "2026-01-01T00:14:00Z", parsed.Status.Reading.Timestamp)
	assert.Equal(t, "OK", parsed.Status.LastOutcome)
	assert.EqualValues(t, 900, parsed.Status.UptimeSeconds)
	assert.True(t, parsed.Status.MQTT.Connected)
	assert.Equal(t, 5, parsed.Status.Counts.OK)
	assert.Equal(t, 2, parsed.Status.Counts.EmptyTimeout)
	assert.Equal(t, 1, parsed.Status.Counts.DecodeFailure)
	assert.Equal(t, 4, parsed.Status.Config.Line)
	assert.Equal(t, "gpiochip0", parsed.Status.Config.Chip)
	// Event and Reason are omitted for the web format
	assert.Empty(t, parsed.Status.Event)
	assert.Empty(t, parsed.Status.Reason)
}

func TestFormatJSONNoReadingYet(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(FormatJSON(snap), &raw))
	status := raw["status"].(map[string]interface{})
	assert.NotContains(t, status, "reading", "reading is omitted before the first good sample")
	assert.Equal(t, "UNKNOWN", status["last_outcome"])
}

func TestFormatStatusEvent(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		LastOutcome:   logic.OutcomePollFailure,
		LastError:     "capture: wait failed: EIO",
		Counts:        logic.OutcomeCounts{OK: 3, PollFailure: 1},
		StartTime:     start,
		Now:           start.Add(15 * time.Minute),
		MQTTConnected: true,
		Config:        Config{IntervalMs: 2000, Broker: "tcp://localhost:1883"},
	}

	var parsed StatusJSON
	require.NoError(t, json.Unmarshal(FormatStatusEvent(snap, "HEARTBEAT", ""), &parsed))

	assert.Equal(t, "HEARTBEAT", parsed.Status.Event)
	assert.Empty(t, parsed.Status.Reason)
	assert.Equal(t, "POLL_FAILURE", parsed.Status.LastOutcome)
	assert.Equal(t, "capture: wait failed: EIO", parsed.Status.LastError)
	assert.EqualValues(t, 900, parsed.Status.UptimeSeconds)
}

func TestFormatStatusEventShutdown(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		StartTime: start,
		Now:       start.Add(30 * time.Minute),
		Config:    Config{Broker: "tcp://localhost:1883"},
	}

	var parsed StatusJSON
	require.NoError(t, json.Unmarshal(FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM"), &parsed))

	assert.Equal(t, "SHUTDOWN", parsed.Status.Event)
	assert.Equal(t, "SIGTERM", parsed.Status.Reason)
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(FormatStatusEvent(snap, "STARTUP", ""), &raw))
	status := raw["status"].(map[string]interface{})
	assert.NotContains(t, status, "reason")
	assert.Equal(t, "STARTUP", status["event"])
}

func TestFormatJSONWithNetwork(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 1, 0, 0, time.UTC),
		Network:   &NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected", SSID: "MyNet"},
		Config:    Config{Broker: "tcp://localhost:1883"},
	}

	var parsed StatusJSON
	require.NoError(t, json.Unmarshal(FormatJSON(snap), &parsed))

	require.NotNil(t, parsed.Status.Network)
	assert.Equal(t, "192.168.1.42", parsed.Status.Network.IP)
	assert.Equal(t, "MyNet", parsed.Status.Network.SSID)
}

func TestConcurrentAccess(t *testing.T) {
	start := time.Now()
	tr := NewTracker(start, Config{})
	var wg sync.WaitGroup

	// Writer owns the monitor, as runLoop does.
	wg.Add(1)
	go func() {
		defer wg.Done()
		m := logic.NewMonitor(start)
		for i := 0; i < 1000; i++ {
			m.Process(goodSample(start.Add(time.Duration(i) * time.Second)))
			tr.Update(m)
			tr.SetMQTTConnected(i%2 == 0)
			tr.SetNetwork(&NetworkInfo{IP: "1.2.3.4"})
		}
	}()

	// Reader
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			_ = snap.Uptime()
			_ = FormatJSON(snap)
		}
	}()

	wg.Wait()
}
