package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Reading       *ReadingJSON `json:"reading,omitempty"`
	LastOutcome   string       `json:"last_outcome"`
	LastError     string       `json:"last_error,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"outcome_counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// ReadingJSON is the last good reading.
type ReadingJSON struct {
	Timestamp   string  `json:"timestamp"`
	Humidity    float64 `json:"humidity"`
	Temperature float64 `json:"temperature"`
	Edges       int     `json:"edges"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of outcome counts.
type CountsJSON struct {
	OK            int `json:"ok"`
	EmptyTimeout  int `json:"empty_timeout"`
	PollFailure   int `json:"poll_failure"`
	WatchFailure  int `json:"watch_failure"`
	OpenFailure   int `json:"open_failure"`
	DecodeFailure int `json:"decode_failure"`
	Other         int `json:"other"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Chip        string `json:"chip"`
	Line        int    `json:"line"`
	IntervalMs  int64  `json:"interval_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPPort    string `json:"http_port"`
}

func buildInner(snap Snapshot) StatusInner {
	outcome := string(snap.LastOutcome)
	if outcome == "" {
		outcome = "UNKNOWN"
	}

	inner := StatusInner{
		LastOutcome:   outcome,
		LastError:     snap.LastError,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			OK:            snap.Counts.OK,
			EmptyTimeout:  snap.Counts.EmptyTimeout,
			PollFailure:   snap.Counts.PollFailure,
			WatchFailure:  snap.Counts.WatchFailure,
			OpenFailure:   snap.Counts.OpenFailure,
			DecodeFailure: snap.Counts.DecodeFailure,
			Other:         snap.Counts.Other,
		},
		Config: ConfigJSON{
			Chip:        snap.Config.Chip,
			Line:        snap.Config.Line,
			IntervalMs:  snap.Config.IntervalMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPPort:    snap.Config.HTTPPort,
		},
	}
	if snap.Last != nil {
		inner.Reading = &ReadingJSON{
			Timestamp:   snap.Last.Timestamp.UTC().Format(time.RFC3339),
			Humidity:    snap.Last.Reading.Humidity,
			Temperature: snap.Last.Reading.Temperature,
			Edges:       snap.Last.Edges,
		}
	}
	return inner
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
