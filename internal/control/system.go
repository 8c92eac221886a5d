package control

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sweeney/button-blinker/internal/clock"
	"github.com/sweeney/button-blinker/internal/events"
	"github.com/sweeney/button-blinker/internal/gpio"
	"github.com/sweeney/button-blinker/internal/logic"
	"github.com/sweeney/button-blinker/internal/toggle"
)

// Pins assigns lines to the two channels.
type Pins struct {
	ButtonR gpio.PinID
	ButtonY gpio.PinID
	LEDR    gpio.PinID
	LEDY    gpio.PinID
}

// DefaultPins returns the standard wiring.
func DefaultPins() Pins {
	return Pins{
		ButtonR: gpio.DefaultButtonR,
		ButtonY: gpio.DefaultButtonY,
		LEDR:    gpio.DefaultLEDR,
		LEDY:    gpio.DefaultLEDY,
	}
}

// Validate rejects wiring that uses a line twice.
func (p Pins) Validate() error {
	seen := make(map[gpio.PinID]string, 4)
	for _, e := range []struct {
		name string
		pin  gpio.PinID
	}{
		{"button R", p.ButtonR},
		{"button Y", p.ButtonY},
		{"LED R", p.LEDR},
		{"LED Y", p.LEDY},
	} {
		if e.pin < 0 {
			return fmt.Errorf("%s: invalid pin %d", e.name, e.pin)
		}
		if other, ok := seen[e.pin]; ok {
			return fmt.Errorf("%s and %s share pin %d", other, e.name, e.pin)
		}
		seen[e.pin] = e.name
	}
	return nil
}

// Config configures a System.
type Config struct {
	Pins           Pins
	ReleaseWait    bool
	ReleaseTimeout time.Duration
	QueueCapacity  int
}

// System owns everything the tasks share: the event queue, one toggle
// signal per channel, and the tasks themselves. It is built once at startup
// and handed to nothing else.
type System struct {
	io     gpio.Controller
	cfg    Config
	queue  *events.Queue
	bridge EdgeBridge
	button *ButtonTask
	leds   []*LEDTask
}

// NewSystem wires the tasks. It does not touch the hardware.
func NewSystem(io gpio.Controller, clk clockwork.Clock, cfg Config, obs Observer) (*System, error) {
	if err := cfg.Pins.Validate(); err != nil {
		return nil, fmt.Errorf("pins: %w", err)
	}
	if obs == nil {
		obs = nopObserver{}
	}

	q := events.NewQueue(cfg.QueueCapacity)
	sigR, sigY := toggle.New(), toggle.New()

	buttons := []Button{
		{Channel: logic.ChannelR, Pin: cfg.Pins.ButtonR, Signal: sigR},
		{Channel: logic.ChannelY, Pin: cfg.Pins.ButtonY, Signal: sigY},
	}

	return &System{
		io:     io,
		cfg:    cfg,
		queue:  q,
		bridge: NewEdgeBridge(q),
		button: NewButtonTask(io, q, clock.NewSource(clk), buttons, ButtonOptions{
			ReleaseWait:    cfg.ReleaseWait,
			ReleaseTimeout: cfg.ReleaseTimeout,
		}, obs),
		leds: []*LEDTask{
			NewLEDTask(logic.ChannelR, cfg.Pins.LEDR, io, sigR, clk, obs),
			NewLEDTask(logic.ChannelY, cfg.Pins.LEDY, io, sigY, clk, obs),
		},
	}, nil
}

// Setup configures the lines: LEDs as outputs driven low, buttons as
// pulled-up inputs, then falling-edge detection into the queue. Edges that
// arrive before Run wait in the queue.
func (s *System) Setup() error {
	p := s.cfg.Pins
	for _, id := range []gpio.PinID{p.LEDR, p.LEDY} {
		if err := s.io.ConfigureOutput(id, gpio.Low); err != nil {
			return fmt.Errorf("configure LED pin %d: %w", id, err)
		}
	}
	for _, id := range []gpio.PinID{p.ButtonR, p.ButtonY} {
		if err := s.io.ConfigureInput(id); err != nil {
			return fmt.Errorf("configure button pin %d: %w", id, err)
		}
	}
	for _, id := range []gpio.PinID{p.ButtonR, p.ButtonY} {
		if err := s.io.WatchFalling(id, s.bridge.Handle); err != nil {
			return fmt.Errorf("watch button pin %d: %w", id, err)
		}
	}
	log.WithFields(log.Fields{
		"button_r": int(p.ButtonR),
		"button_y": int(p.ButtonY),
		"led_r":    int(p.LEDR),
		"led_y":    int(p.LEDY),
	}).Info("gpio configured")
	return nil
}

// Run runs the button task and both LED tasks until ctx is cancelled.
// Cancellation is a normal stop and returns nil.
func (s *System) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.button.Run(ctx) })
	for _, led := range s.leds {
		led := led
		g.Go(func() error { return led.Run(ctx) })
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Dropped returns how many edges were lost to a full queue.
func (s *System) Dropped() uint64 {
	return s.queue.Dropped()
}

// QueueCap returns the event queue capacity.
func (s *System) QueueCap() int {
	return s.queue.Cap()
}
