package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/button-blinker/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string                 `json:"event,omitempty"`
	Reason        string                 `json:"reason,omitempty"`
	Channels      map[string]ChannelJSON `json:"channels"`
	DroppedEdges  uint64                 `json:"dropped_edges"`
	UptimeSeconds int64                  `json:"uptime_seconds"`
	StartTime     string                 `json:"start_time"`
	Timestamp     string                 `json:"timestamp"`
	MQTT          MQTTStatus             `json:"mqtt"`
	Config        ConfigJSON             `json:"config"`
}

// ChannelJSON is the JSON representation of one channel.
type ChannelJSON struct {
	LED       string `json:"led"`
	LastPress string `json:"last_press,omitempty"`
	Accepted  int    `json:"presses_accepted"`
	Rejected  int    `json:"presses_rejected"`
	Changes   int    `json:"led_changes"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Backend          string `json:"backend"`
	ButtonR          int    `json:"button_r"`
	ButtonY          int    `json:"button_y"`
	LEDR             int    `json:"led_r"`
	LEDY             int    `json:"led_y"`
	DebounceMs       int64  `json:"debounce_ms"`
	BlinkHalfMs      int64  `json:"blink_half_period_ms"`
	ReleaseWait      bool   `json:"release_wait"`
	ReleaseTimeoutMs int64  `json:"release_timeout_ms"`
	HeartbeatMs      int64  `json:"heartbeat_ms"`
	Broker           string `json:"broker"`
	HTTPAddr         string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	channels := make(map[string]ChannelJSON, 2)
	for _, ch := range logic.Channels() {
		cs := snap.Channel(ch)
		counts := snap.Counts.For(ch)
		led := string(cs.LED)
		if led == "" {
			led = "UNKNOWN"
		}
		cj := ChannelJSON{
			LED:      led,
			Accepted: counts.Accepted,
			Rejected: counts.Rejected,
			Changes:  counts.Transitions,
		}
		if !cs.LastPress.IsZero() {
			cj.LastPress = cs.LastPress.UTC().Format(time.RFC3339)
		}
		channels[string(ch)] = cj
	}

	cfg := snap.Config
	return StatusInner{
		Channels:      channels,
		DroppedEdges:  snap.Dropped,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: cfg.Broker},
		Config: ConfigJSON{
			Backend:          cfg.Backend,
			ButtonR:          cfg.ButtonR,
			ButtonY:          cfg.ButtonY,
			LEDR:             cfg.LEDR,
			LEDY:             cfg.LEDY,
			DebounceMs:       logic.DebounceWindow.Duration().Milliseconds(),
			BlinkHalfMs:      logic.BlinkHalfPeriod.Milliseconds(),
			ReleaseWait:      cfg.ReleaseWait,
			ReleaseTimeoutMs: cfg.ReleaseTimeout.Milliseconds(),
			HeartbeatMs:      cfg.HeartbeatMs,
			Broker:           cfg.Broker,
			HTTPAddr:         cfg.HTTPAddr,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
