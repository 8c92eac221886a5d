package logic

import "time"

// Blinker is the LED state machine. IDLE holds the output low and waits
// without a deadline. BLINKING waits with a BlinkHalfPeriod deadline; each
// expiry flips the output, each toggle request leaves the state.
type Blinker struct {
	state State
	lit   bool
}

// NewBlinker returns a machine in IDLE with the output low.
func NewBlinker() *Blinker {
	return &Blinker{state: StateIdle}
}

// State returns the current state.
func (b *Blinker) State() State {
	return b.state
}

// Lit returns the level the output should currently hold.
func (b *Blinker) Lit() bool {
	return b.lit
}

// Deadline returns how long the next wait may last. ok is false in IDLE,
// where the wait is unbounded.
func (b *Blinker) Deadline() (d time.Duration, ok bool) {
	if b.state == StateBlinking {
		return BlinkHalfPeriod, true
	}
	return 0, false
}

// Toggle applies an observed toggle request. Both transitions leave the
// output low: entering IDLE turns it off, entering BLINKING starts the
// square wave from low.
func (b *Blinker) Toggle() State {
	if b.state == StateIdle {
		b.state = StateBlinking
	} else {
		b.state = StateIdle
	}
	b.lit = false
	return b.state
}

// Expire applies a wait timeout. In BLINKING it flips the output and
// returns the new level with changed set. In IDLE nothing happens.
func (b *Blinker) Expire() (lit, changed bool) {
	if b.state != StateBlinking {
		return b.lit, false
	}
	b.lit = !b.lit
	return b.lit, true
}
