package gpio

import (
	"fmt"
	"sync"
	"time"

	pgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// edgeWaitTimeout bounds each WaitForEdge call so Close can stop watchers.
const edgeWaitTimeout = 500 * time.Millisecond

// PeriphController drives lines through periph.io host drivers. Each watched
// line gets a goroutine blocked in WaitForEdge that stands in for the
// interrupt handler.
type PeriphController struct {
	mu   sync.Mutex
	pins map[PinID]pgpio.PinIO
	stop chan struct{}
	wg   sync.WaitGroup
}

// NewPeriphController initializes the periph host drivers.
func NewPeriphController() (*PeriphController, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}
	return &PeriphController{
		pins: make(map[PinID]pgpio.PinIO),
		stop: make(chan struct{}),
	}, nil
}

func (c *PeriphController) pin(id PinID) (pgpio.PinIO, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.pins[id]; ok {
		return p, nil
	}
	p := gpioreg.ByName(fmt.Sprintf("GPIO%d", id))
	if p == nil {
		return nil, fmt.Errorf("pin %d: no such GPIO", id)
	}
	c.pins[id] = p
	return p, nil
}

func (c *PeriphController) ConfigureInput(id PinID) error {
	p, err := c.pin(id)
	if err != nil {
		return err
	}
	if err := p.In(pgpio.PullUp, pgpio.NoEdge); err != nil {
		return fmt.Errorf("configure pin %d as input: %w", id, err)
	}
	return nil
}

func (c *PeriphController) ConfigureOutput(id PinID, initial Level) error {
	p, err := c.pin(id)
	if err != nil {
		return err
	}
	if err := p.Out(toPeriph(initial)); err != nil {
		return fmt.Errorf("configure pin %d as output: %w", id, err)
	}
	return nil
}

func (c *PeriphController) Read(id PinID) (Level, error) {
	p, err := c.pin(id)
	if err != nil {
		return Low, err
	}
	if p.Read() == pgpio.High {
		return High, nil
	}
	return Low, nil
}

func (c *PeriphController) Write(id PinID, v Level) error {
	p, err := c.pin(id)
	if err != nil {
		return err
	}
	if err := p.Out(toPeriph(v)); err != nil {
		return fmt.Errorf("write pin %d: %w", id, err)
	}
	return nil
}

func (c *PeriphController) WatchFalling(id PinID, h EdgeHandler) error {
	p, err := c.pin(id)
	if err != nil {
		return err
	}
	if err := p.In(pgpio.PullUp, pgpio.FallingEdge); err != nil {
		return fmt.Errorf("enable falling edge on pin %d: %w", id, err)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-c.stop:
				return
			default:
			}
			if p.WaitForEdge(edgeWaitTimeout) {
				h(id)
			}
		}
	}()
	return nil
}

// Close stops the edge watchers and halts every pin it touched.
func (c *PeriphController) Close() error {
	close(c.stop)
	c.wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	var errs []error
	for id, p := range c.pins {
		if err := p.Halt(); err != nil {
			errs = append(errs, fmt.Errorf("halt pin %d: %w", id, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func toPeriph(v Level) pgpio.Level {
	return v == High
}
