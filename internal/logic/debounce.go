package logic

import "github.com/sweeney/button-blinker/internal/clock"

type window struct {
	last  clock.Millis
	armed bool
}

// Debouncer holds one last-accepted timestamp per channel. A press is
// allowed when at least the window has elapsed since the previous accepted
// press on the same channel. The first press on a channel is always allowed.
type Debouncer struct {
	window   clock.Millis
	channels map[Channel]*window
}

// NewDebouncer creates a debouncer for both channels.
func NewDebouncer(w clock.Millis) *Debouncer {
	d := &Debouncer{
		window:   w,
		channels: make(map[Channel]*window),
	}
	for _, ch := range Channels() {
		d.channels[ch] = &window{}
	}
	return d
}

// Allow reports whether a press at now passes the window. It does not
// change any state. Unknown channels are never allowed.
func (d *Debouncer) Allow(ch Channel, now clock.Millis) bool {
	w, ok := d.channels[ch]
	if !ok {
		return false
	}
	if !w.armed {
		return true
	}
	return clock.Elapsed(now, w.last) >= d.window
}

// Accept records an accepted press at now.
func (d *Debouncer) Accept(ch Channel, now clock.Millis) {
	if w, ok := d.channels[ch]; ok {
		w.last = now
		w.armed = true
	}
}

// Window returns the configured window.
func (d *Debouncer) Window() clock.Millis {
	return d.window
}
