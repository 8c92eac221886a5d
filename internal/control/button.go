package control

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"github.com/sweeney/button-blinker/internal/clock"
	"github.com/sweeney/button-blinker/internal/events"
	"github.com/sweeney/button-blinker/internal/gpio"
	"github.com/sweeney/button-blinker/internal/logic"
	"github.com/sweeney/button-blinker/internal/toggle"
)

// releasePoll is how often the release wait samples the line.
const releasePoll = 10 * time.Millisecond

// Button binds a button line to the toggle signal of its LED channel.
type Button struct {
	Channel logic.Channel
	Pin     gpio.PinID
	Signal  *toggle.Signal
}

// ButtonTask drains the event queue, debounces each button independently
// and raises the toggle signal of accepted presses.
type ButtonTask struct {
	io       gpio.Controller
	queue    *events.Queue
	clk      clockwork.Clock
	ticks    *clock.Source
	debounce *logic.Debouncer
	buttons  map[gpio.PinID]Button
	observer Observer

	// releaseWait holds an accepted press until the line reads high again,
	// for at most releaseTimeout.
	releaseWait    bool
	releaseTimeout time.Duration
}

// ButtonOptions configures a ButtonTask.
type ButtonOptions struct {
	ReleaseWait    bool
	ReleaseTimeout time.Duration
}

// NewButtonTask creates the task. ticks must be driven by clk.
func NewButtonTask(io gpio.Controller, q *events.Queue, ticks *clock.Source, buttons []Button, opts ButtonOptions, obs Observer) *ButtonTask {
	if obs == nil {
		obs = nopObserver{}
	}
	t := &ButtonTask{
		io:             io,
		queue:          q,
		clk:            ticks.Clock(),
		ticks:          ticks,
		debounce:       logic.NewDebouncer(logic.DebounceWindow),
		buttons:        make(map[gpio.PinID]Button, len(buttons)),
		observer:       obs,
		releaseWait:    opts.ReleaseWait,
		releaseTimeout: opts.ReleaseTimeout,
	}
	for _, b := range buttons {
		t.buttons[b.Pin] = b
	}
	return t
}

// Run processes events until ctx is done.
func (t *ButtonTask) Run(ctx context.Context) error {
	for {
		id, err := t.queue.Receive(ctx)
		if err != nil {
			return err
		}
		t.handle(ctx, id)
	}
}

func (t *ButtonTask) handle(ctx context.Context, id gpio.PinID) {
	b, ok := t.buttons[id]
	if !ok {
		log.WithField("pin", int(id)).Debug("edge on unknown pin ignored")
		return
	}

	now := t.ticks.NowMs()
	if !t.debounce.Allow(b.Channel, now) {
		log.WithFields(log.Fields{"channel": b.Channel, "pin": int(id)}).Debug("press rejected by debounce")
		t.observe(logic.EventPressRejected, b.Channel)
		return
	}

	if t.releaseWait {
		if !t.waitRelease(ctx, b) {
			return
		}
		now = t.ticks.NowMs()
	}

	b.Signal.Give()
	t.debounce.Accept(b.Channel, now)
	log.WithFields(log.Fields{"channel": b.Channel, "pin": int(id)}).Info("press accepted")
	t.observe(logic.EventPressAccepted, b.Channel)
}

// waitRelease polls the line until it reads high, the timeout passes or a
// read fails. It returns false only when ctx is done.
func (t *ButtonTask) waitRelease(ctx context.Context, b Button) bool {
	deadline := t.clk.Now().Add(t.releaseTimeout)
	for {
		v, err := t.io.Read(b.Pin)
		if err != nil {
			log.WithError(err).WithField("channel", b.Channel).Warn("release wait: read failed")
			return true
		}
		if v == gpio.High {
			return true
		}
		if !t.clk.Now().Before(deadline) {
			log.WithField("channel", b.Channel).Warn("release wait timed out, button still held")
			return true
		}

		timer := t.clk.NewTimer(releasePoll)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.Chan():
		}
	}
}

func (t *ButtonTask) observe(typ logic.EventType, ch logic.Channel) {
	t.observer.Observe(logic.Event{
		Timestamp: t.clk.Now(),
		Type:      typ,
		Channel:   ch,
	})
}
