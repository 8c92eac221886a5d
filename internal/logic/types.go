// Package logic contains the pure decision logic of the controller: the
// per-button debounce windows and the per-LED blink state machine.
// This package has NO goroutines and no hardware access. Time is always
// passed in, as clock.Millis ticks or time.Time stamps.
package logic

import (
	"time"

	"github.com/sweeney/button-blinker/internal/clock"
)

// Timing constants.
const (
	// DebounceWindow is the minimum spacing between two accepted presses
	// of the same button.
	DebounceWindow clock.Millis = 120

	// BlinkHalfPeriod is how long the LED holds each level while blinking.
	BlinkHalfPeriod = 100 * time.Millisecond
)

// Channel names one button/LED pair.
type Channel string

const (
	ChannelR Channel = "R"
	ChannelY Channel = "Y"
)

// Channels returns both channels in display order.
func Channels() []Channel {
	return []Channel{ChannelR, ChannelY}
}

// State is the state of an LED channel.
type State string

const (
	StateIdle     State = "IDLE"
	StateBlinking State = "BLINKING"
)

// EventType identifies something the controller did.
type EventType string

const (
	EventPressAccepted EventType = "PRESS_ACCEPTED"
	EventPressRejected EventType = "PRESS_REJECTED"
	EventLEDBlinking   EventType = "LED_BLINKING"
	EventLEDIdle       EventType = "LED_IDLE"
)

// Event is reported by the control tasks.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Channel   Channel
	State     State // LED state after the event; empty for press events
}

// ChannelCounts tracks what happened on one channel since startup.
type ChannelCounts struct {
	Accepted    int
	Rejected    int
	Transitions int
}

// EventCounts tracks per-channel counts since startup.
type EventCounts struct {
	R ChannelCounts
	Y ChannelCounts
}

// For returns the counts of one channel.
func (c EventCounts) For(ch Channel) ChannelCounts {
	if ch == ChannelY {
		return c.Y
	}
	return c.R
}

// Add counts an event.
func (c *EventCounts) Add(e Event) {
	var cc *ChannelCounts
	switch e.Channel {
	case ChannelR:
		cc = &c.R
	case ChannelY:
		cc = &c.Y
	default:
		return
	}

	switch e.Type {
	case EventPressAccepted:
		cc.Accepted++
	case EventPressRejected:
		cc.Rejected++
	case EventLEDBlinking, EventLEDIdle:
		cc.Transitions++
	}
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
