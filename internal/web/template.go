package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/button-blinker/internal/logic"
	"github.com/sweeney/button-blinker/internal/status"
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
	"ms": func(d time.Duration) int64 {
		return d.Milliseconds()
	},
	"stamp": func(t time.Time) string {
		if t.IsZero() {
			return "never"
		}
		return t.UTC().Format("2006-01-02T15:04:05.000Z")
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Button Blinker</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.BLINKING { color: green; font-weight: bold; }
.IDLE { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Button Blinker</h1>

<h2>Channels</h2>
<table>
<tr><th></th><th>LED</th><th>Accepted</th><th>Rejected</th><th>Last press</th></tr>
{{range .Channels}}<tr><th>{{.Name}}</th><td id="led-{{.Name}}" class="{{.LED}}">{{.LED}}</td><td>{{.Counts.Accepted}}</td><td>{{.Counts.Rejected}}</td><td>{{stamp .LastPress}}</td></tr>
{{end}}</table>
<p>Dropped edges: {{.Dropped}}</p>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Backend</th><td>{{.Config.Backend}}</td></tr>
<tr><th>Pins</th><td>R {{.Config.ButtonR}}&rarr;{{.Config.LEDR}}, Y {{.Config.ButtonY}}&rarr;{{.Config.LEDY}}</td></tr>
<tr><th>Debounce</th><td>{{ms .Debounce}}ms</td></tr>
<tr><th>Blink</th><td>{{ms .HalfPeriod}}ms</td></tr>
<tr><th>Release wait</th><td>{{if .Config.ReleaseWait}}on ({{ms .Config.ReleaseTimeout}}ms max){{else}}off{{end}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
<script>
(function() {
  function refresh() {
    fetch("/index.json").then(function(r) { return r.json(); }).then(function(s) {
      for (var name in s.status.channels) {
        var el = document.getElementById("led-" + name);
        if (el) {
          el.textContent = s.status.channels[name].led;
          el.className = s.status.channels[name].led;
        }
      }
    }).catch(function() {});
  }
  setInterval(refresh, 1000);
})();
</script>
</body>
</html>
`

type channelRow struct {
	Name      logic.Channel
	LED       logic.State
	LastPress time.Time
	Counts    logic.ChannelCounts
}

func renderHTML(w io.Writer, snap status.Snapshot) {
	var rows []channelRow
	for _, ch := range logic.Channels() {
		cs := snap.Channel(ch)
		rows = append(rows, channelRow{
			Name:      ch,
			LED:       cs.LED,
			LastPress: cs.LastPress,
			Counts:    snap.Counts.For(ch),
		})
	}

	data := struct {
		status.Snapshot
		Channels   []channelRow
		Uptime     time.Duration
		Debounce   time.Duration
		HalfPeriod time.Duration
	}{
		Snapshot:   snap,
		Channels:   rows,
		Uptime:     snap.Uptime(),
		Debounce:   logic.DebounceWindow.Duration(),
		HalfPeriod: logic.BlinkHalfPeriod,
	}
	indexTmpl.Execute(w, data)
}
