package control

import (
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/sweeney/button-blinker/internal/logic"
)

// fakeClock is the part of clockwork's fake clock the tests drive.
type fakeClock interface {
	clockwork.Clock
	Advance(d time.Duration)
	BlockUntil(n int)
}

// recorder is an Observer that keeps every event for assertions.
type recorder struct {
	mu     sync.Mutex
	events []logic.Event
}

func (r *recorder) Observe(e logic.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) count(ch logic.Channel, types ...logic.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Channel != ch {
			continue
		}
		for _, typ := range types {
			if e.Type == typ {
				n++
				break
			}
		}
	}
	return n
}

func (r *recorder) presses(ch logic.Channel) int {
	return r.count(ch, logic.EventPressAccepted, logic.EventPressRejected)
}

func (r *recorder) transitions(ch logic.Channel) int {
	return r.count(ch, logic.EventLEDBlinking, logic.EventLEDIdle)
}

// waitCount blocks until count reaches n, failing the test after 2s.
func (r *recorder) waitCount(t *testing.T, n int, ch logic.Channel, types ...logic.EventType) {
	t.Helper()
	waitFor(t, func() bool { return r.count(ch, types...) >= n }, "%d %v events on %s", n, types, ch)
}

func waitFor(t *testing.T, cond func() bool, format string, args ...interface{}) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for "+format, args...)
		}
		time.Sleep(time.Millisecond)
	}
}
