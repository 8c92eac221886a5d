// Package toggle implements the binary toggle request passed from the
// button task to an LED task.
package toggle

// Signal is a binary, coalescing signal: it is either pending or not.
// Giving while pending has no effect. Receiving from C observes and clears
// the pending request in one step.
type Signal struct {
	ch chan struct{}
}

// New returns a signal with nothing pending.
func New() *Signal {
	return &Signal{ch: make(chan struct{}, 1)}
}

// Give marks the signal pending. It never blocks and reports false when a
// request was already pending and this one was coalesced into it.
func (s *Signal) Give() bool {
	select {
	case s.ch <- struct{}{}:
		return true
	default:
		return false
	}
}

// C is the channel a consumer waits on.
func (s *Signal) C() <-chan struct{} {
	return s.ch
}

// TryTake clears a pending request without waiting and reports whether
// there was one.
func (s *Signal) TryTake() bool {
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}

// Pending reports whether a request is outstanding.
func (s *Signal) Pending() bool {
	return len(s.ch) == 1
}
