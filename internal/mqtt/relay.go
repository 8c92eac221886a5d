package mqtt

import (
	"context"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"github.com/sweeney/button-blinker/internal/logic"
)

// DefaultRelayDepth is how many events a Relay holds before dropping.
const DefaultRelayDepth = 64

// Relay hands controller events to a Publisher from its own goroutine so
// the control tasks never wait on the network. It implements
// control.Observer.
type Relay struct {
	pub     Publisher
	events  chan logic.Event
	dropped atomic.Uint64
}

// NewRelay creates a Relay with room for depth pending events.
func NewRelay(pub Publisher, depth int) *Relay {
	if depth < 1 {
		depth = DefaultRelayDepth
	}
	return &Relay{pub: pub, events: make(chan logic.Event, depth)}
}

// Observe queues an event for publishing. Never blocks; the event is
// dropped when the relay is full.
func (r *Relay) Observe(e logic.Event) {
	select {
	case r.events <- e:
	default:
		r.dropped.Add(1)
	}
}

// Run publishes queued events until ctx is cancelled, then flushes
// whatever is still queued.
func (r *Relay) Run(ctx context.Context) {
	for {
		select {
		case e := <-r.events:
			r.publish(e)
		case <-ctx.Done():
			for {
				select {
				case e := <-r.events:
					r.publish(e)
				default:
					return
				}
			}
		}
	}
}

func (r *Relay) publish(e logic.Event) {
	if err := r.pub.Publish(e); err != nil {
		log.WithError(err).WithField("event", e.Type).Warn("mqtt publish failed")
	}
}

// Dropped returns how many events were discarded because the relay was full.
func (r *Relay) Dropped() uint64 {
	return r.dropped.Load()
}
