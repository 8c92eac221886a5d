// Package status provides a thread-safe status tracker for the
// button-blinker daemon. It is fed by the control tasks and read by HTTP
// handlers and telemetry.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/button-blinker/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	Backend        string
	ButtonR        int
	ButtonY        int
	LEDR           int
	LEDY           int
	ReleaseWait    bool
	ReleaseTimeout time.Duration
	HeartbeatMs    int64
	Broker         string
	HTTPAddr       string
}

// ChannelStatus is the last known state of one channel.
type ChannelStatus struct {
	LED       logic.State
	LastPress time.Time
	LastEvent time.Time
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	R             ChannelStatus
	Y             ChannelStatus
	Counts        logic.EventCounts
	Dropped       uint64
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Channel returns the status of one channel.
func (s Snapshot) Channel(ch logic.Channel) ChannelStatus {
	if ch == logic.ChannelY {
		return s.Y
	}
	return s.R
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu      sync.RWMutex
	snap    Snapshot
	dropped func() uint64
}

// NewTracker creates a Tracker with the given start time and config.
// Both channels start IDLE.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			R:         ChannelStatus{LED: logic.StateIdle},
			Y:         ChannelStatus{LED: logic.StateIdle},
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Observe records a control event. It implements control.Observer.
func (t *Tracker) Observe(e logic.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var cs *ChannelStatus
	switch e.Channel {
	case logic.ChannelR:
		cs = &t.snap.R
	case logic.ChannelY:
		cs = &t.snap.Y
	default:
		return
	}

	t.snap.Counts.Add(e)
	cs.LastEvent = e.Timestamp
	switch e.Type {
	case logic.EventPressAccepted:
		cs.LastPress = e.Timestamp
	case logic.EventLEDBlinking, logic.EventLEDIdle:
		cs.LED = e.State
	}
}

// SetDroppedSource sets the function read for the dropped-edge count.
func (t *Tracker) SetDroppedSource(f func() uint64) {
	t.mu.Lock()
	t.dropped = f
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	dropped := t.dropped
	t.mu.RUnlock()
	if dropped != nil {
		s.Dropped = dropped()
	}
	s.Now = time.Now()
	return s
}
