package control

import (
	"github.com/sweeney/button-blinker/internal/events"
	"github.com/sweeney/button-blinker/internal/gpio"
)

// EdgeBridge moves falling edges from edge-handler context into the queue.
// It does no timing work and never blocks; a full queue drops the edge.
type EdgeBridge struct {
	queue *events.Queue
}

// NewEdgeBridge returns a bridge into q.
func NewEdgeBridge(q *events.Queue) EdgeBridge {
	return EdgeBridge{queue: q}
}

// Handle is a gpio.EdgeHandler.
func (b EdgeBridge) Handle(id gpio.PinID) {
	b.queue.TrySend(id)
}
