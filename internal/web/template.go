package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/dht-sensor/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"outcomeOrUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>DHT Sensor</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.ok { color: green; font-weight: bold; }
.fail { color: red; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>DHT Sensor</h1>

<h2>Reading</h2>
<table>
{{if .Last}}<tr><th>Temperature</th><td id="temperature">{{printf "%.1f" .Last.Reading.Temperature}} &deg;C</td></tr>
<tr><th>Humidity</th><td id="humidity">{{printf "%.1f" .Last.Reading.Humidity}} %</td></tr>
<tr><th>Taken</th><td>{{.Last.Timestamp.UTC.Format "2006-01-02T15:04:05Z"}} ({{.Last.Edges}} edges)</td></tr>
{{else}}<tr><th>Temperature</th><td class="unknown">no reading yet</td></tr>{{end}}
<tr><th>Last outcome</th><td class="{{if eq (outcomeOrUnknown (printf "%s" .LastOutcome)) "OK"}}ok{{else if eq (outcomeOrUnknown (printf "%s" .LastOutcome)) "UNKNOWN"}}unknown{{else}}fail{{end}}">{{outcomeOrUnknown (printf "%s" .LastOutcome)}}</td></tr>
{{if .LastError}}<tr><th>Error</th><td>{{.LastError}}</td></tr>{{end}}
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Outcomes</h2>
<table>
<tr><th>OK</th><td>{{.Counts.OK}}</td></tr>
<tr><th>No response</th><td>{{.Counts.EmptyTimeout}}</td></tr>
<tr><th>Poll failure</th><td>{{.Counts.PollFailure}}</td></tr>
<tr><th>Watch failure</th><td>{{.Counts.WatchFailure}}</td></tr>
<tr><th>Line failure</th><td>{{.Counts.OpenFailure}}</td></tr>
<tr><th>Decode failure</th><td>{{.Counts.DecodeFailure}}</td></tr>
<tr><th>Other</th><td>{{.Counts.Other}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Line</th><td>{{.Config.Chip}}:{{.Config.Line}}</td></tr>
<tr><th>Interval</th><td>{{.Config.IntervalMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
