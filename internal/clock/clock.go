// Package clock provides the monotonic millisecond time source used for
// debounce decisions.
package clock

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Millis is a 32-bit millisecond tick count. It wraps after ~49.7 days;
// differences taken with Elapsed stay correct across the wrap.
type Millis uint32

// Elapsed returns now-since using unsigned arithmetic.
func Elapsed(now, since Millis) Millis {
	return now - since
}

// Duration converts m to a time.Duration.
func (m Millis) Duration() time.Duration {
	return time.Duration(m) * time.Millisecond
}

// Source counts milliseconds since it was created, on top of a clockwork
// clock so tests can drive it.
type Source struct {
	clk   clockwork.Clock
	start time.Time
	base  Millis
}

// NewSource starts counting from zero.
func NewSource(clk clockwork.Clock) *Source {
	return NewSourceAt(clk, 0)
}

// NewSourceAt starts counting from base.
func NewSourceAt(clk clockwork.Clock, base Millis) *Source {
	return &Source{clk: clk, start: clk.Now(), base: base}
}

// NowMs returns the current tick count.
func (s *Source) NowMs() Millis {
	return s.base + Millis(uint32(s.clk.Since(s.start)/time.Millisecond))
}

// Clock returns the underlying clock.
func (s *Source) Clock() clockwork.Clock {
	return s.clk
}
