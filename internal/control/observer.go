// Package control runs the controller's tasks: the edge bridge feeding the
// event queue, the button task that debounces and raises toggle requests,
// and one LED task per channel.
package control

import "github.com/sweeney/button-blinker/internal/logic"

// Observer receives events from the tasks. Observe is called synchronously
// from a task goroutine and must not block.
type Observer interface {
	Observe(logic.Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(logic.Event)

func (f ObserverFunc) Observe(e logic.Event) { f(e) }

// Observers fans an event out to several observers in order.
type Observers []Observer

func (o Observers) Observe(e logic.Event) {
	for _, obs := range o {
		if obs != nil {
			obs.Observe(e)
		}
	}
}

type nopObserver struct{}

func (nopObserver) Observe(logic.Event) {}
