package gpio

import (
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"
)

// FakeController is an in-memory Controller used by tests and by the
// "fake" backend for dry runs. Inputs idle high (pulled up).
type FakeController struct {
	mu       sync.Mutex
	levels   map[PinID]Level
	outputs  map[PinID]bool
	handlers map[PinID]EdgeHandler
	writes   []Write
	closed   bool

	// ReadError, if set, is returned by Read.
	ReadError error
}

// Write records a single output write.
type Write struct {
	Pin   PinID
	Level Level
}

// NewFakeController creates an empty FakeController.
func NewFakeController() *FakeController {
	return &FakeController{
		levels:   make(map[PinID]Level),
		outputs:  make(map[PinID]bool),
		handlers: make(map[PinID]EdgeHandler),
	}
}

func (f *FakeController) ConfigureInput(id PinID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.levels[id] = High
	delete(f.outputs, id)
	return nil
}

func (f *FakeController) ConfigureOutput(id PinID, initial Level) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.levels[id] = initial
	f.outputs[id] = true
	return nil
}

func (f *FakeController) Read(id PinID) (Level, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ReadError != nil {
		return Low, f.ReadError
	}
	v, ok := f.levels[id]
	if !ok {
		return Low, errors.New("pin not configured")
	}
	return v, nil
}

func (f *FakeController) Write(id PinID, v Level) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.outputs[id] {
		return errors.New("pin is not an output")
	}
	f.levels[id] = v
	f.writes = append(f.writes, Write{Pin: id, Level: v})
	log.WithFields(log.Fields{"pin": int(id), "level": v}).Debug("fake gpio write")
	return nil
}

func (f *FakeController) WatchFalling(id PinID, h EdgeHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.levels[id]; !ok || f.outputs[id] {
		return errors.New("pin is not an input")
	}
	f.handlers[id] = h
	return nil
}

// Close marks the controller as closed.
func (f *FakeController) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (f *FakeController) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Edge fires the falling-edge handler of the line without changing its
// level, the way a bouncing contact produces extra edges.
// Reports whether a handler was registered.
func (f *FakeController) Edge(id PinID) bool {
	f.mu.Lock()
	h := f.handlers[id]
	f.mu.Unlock()
	if h == nil {
		return false
	}
	h(id)
	return true
}

// Press pulls the line low and fires its falling-edge handler.
func (f *FakeController) Press(id PinID) bool {
	f.mu.Lock()
	f.levels[id] = Low
	f.mu.Unlock()
	return f.Edge(id)
}

// Release lets the line return high.
func (f *FakeController) Release(id PinID) {
	f.mu.Lock()
	f.levels[id] = High
	f.mu.Unlock()
}

// Writes returns a copy of every write so far.
func (f *FakeController) Writes() []Write {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Write, len(f.writes))
	copy(out, f.writes)
	return out
}

// WritesTo returns the levels written to one line, in order.
func (f *FakeController) WritesTo(id PinID) []Level {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Level
	for _, w := range f.writes {
		if w.Pin == id {
			out = append(out, w.Level)
		}
	}
	return out
}

// Level returns the current level of a line (Low if unknown).
func (f *FakeController) Level(id PinID) Level {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.levels[id]
}
