// Package events implements the bounded hand-off of edge events from edge
// handlers to the button task.
package events

import (
	"context"
	"sync/atomic"

	"github.com/sweeney/button-blinker/internal/gpio"
)

// Capacity is the default queue depth.
const Capacity = 16

// Queue is a bounded FIFO of pin identifiers. TrySend never blocks and is
// safe to call from edge handlers; Receive blocks the single consumer.
type Queue struct {
	ch      chan gpio.PinID
	dropped atomic.Uint64
}

// NewQueue creates a queue holding up to capacity events. Capacities below
// Capacity are raised to it.
func NewQueue(capacity int) *Queue {
	if capacity < Capacity {
		capacity = Capacity
	}
	return &Queue{ch: make(chan gpio.PinID, capacity)}
}

// TrySend enqueues id if there is room. A full queue drops the event and
// reports false.
func (q *Queue) TrySend(id gpio.PinID) bool {
	select {
	case q.ch <- id:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// Receive blocks until an event is available or ctx is done.
func (q *Queue) Receive(ctx context.Context) (gpio.PinID, error) {
	select {
	case id := <-q.ch:
		return id, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int {
	return cap(q.ch)
}

// Dropped returns how many events were dropped because the queue was full.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}
