//go:build linux

package gpio

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// RealController drives lines through the Linux GPIO character device.
type RealController struct {
	mu      sync.Mutex
	chip    *gpiocdev.Chip
	lines   map[PinID]*gpiocdev.Line
	outputs map[PinID]bool
}

// NewRealController opens the named chip, e.g. "gpiochip0".
func NewRealController(chipName string) (*RealController, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	return &RealController{
		chip:    chip,
		lines:   make(map[PinID]*gpiocdev.Line),
		outputs: make(map[PinID]bool),
	}, nil
}

// request replaces any existing request for the line. Edge detection and
// its handler can only be attached when a line is requested, so watching a
// line re-requests it.
func (c *RealController) request(id PinID, opts ...gpiocdev.LineReqOption) error {
	if old, ok := c.lines[id]; ok {
		old.Close()
		delete(c.lines, id)
	}
	line, err := c.chip.RequestLine(int(id), opts...)
	if err != nil {
		return fmt.Errorf("request pin %d: %w", id, err)
	}
	c.lines[id] = line
	return nil
}

func (c *RealController) ConfigureInput(id PinID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.outputs, id)
	return c.request(id, gpiocdev.AsInput, gpiocdev.WithPullUp)
}

func (c *RealController) ConfigureOutput(id PinID, initial Level) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outputs[id] = true
	return c.request(id, gpiocdev.AsOutput(int(initial)))
}

func (c *RealController) line(id PinID) (*gpiocdev.Line, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.lines[id]
	if !ok {
		return nil, fmt.Errorf("pin %d not configured", id)
	}
	return l, nil
}

func (c *RealController) Read(id PinID) (Level, error) {
	l, err := c.line(id)
	if err != nil {
		return Low, err
	}
	v, err := l.Value()
	if err != nil {
		return Low, fmt.Errorf("read pin %d: %w", id, err)
	}
	if v == 0 {
		return Low, nil
	}
	return High, nil
}

func (c *RealController) Write(id PinID, v Level) error {
	l, err := c.line(id)
	if err != nil {
		return err
	}
	if err := l.SetValue(int(v)); err != nil {
		return fmt.Errorf("write pin %d: %w", id, err)
	}
	return nil
}

// WatchFalling installs h as the line's event handler. gpiocdev calls it from
// its own event goroutine, which stands in for interrupt context.
func (c *RealController) WatchFalling(id PinID, h EdgeHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.lines[id]; !ok {
		return fmt.Errorf("pin %d not configured", id)
	}
	if c.outputs[id] {
		return fmt.Errorf("pin %d is an output", id)
	}
	handler := func(evt gpiocdev.LineEvent) {
		if evt.Type == gpiocdev.LineEventFallingEdge {
			h(PinID(evt.Offset))
		}
	}
	return c.request(id,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithEventHandler(handler))
}

// Close drives outputs low and releases every line and the chip.
func (c *RealController) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for id, l := range c.lines {
		if c.outputs[id] {
			if err := l.SetValue(0); err != nil {
				errs = append(errs, fmt.Errorf("clear pin %d: %w", id, err))
			}
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", id, err))
		}
		delete(c.lines, id)
	}
	if c.chip != nil {
		if err := c.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		c.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
