package control

import (
	"context"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"github.com/sweeney/button-blinker/internal/gpio"
	"github.com/sweeney/button-blinker/internal/logic"
	"github.com/sweeney/button-blinker/internal/toggle"
)

// LEDTask owns one LED line and runs its Blinker. The wait on the toggle
// signal is the only suspension point: unbounded in IDLE, bounded by the
// blink half-period in BLINKING, where expiry doubles as the blink clock.
type LEDTask struct {
	channel  logic.Channel
	pin      gpio.PinID
	io       gpio.Controller
	signal   *toggle.Signal
	clk      clockwork.Clock
	observer Observer
	blinker  *logic.Blinker
}

// NewLEDTask creates the task for one channel.
func NewLEDTask(ch logic.Channel, pin gpio.PinID, io gpio.Controller, sig *toggle.Signal, clk clockwork.Clock, obs Observer) *LEDTask {
	if obs == nil {
		obs = nopObserver{}
	}
	return &LEDTask{
		channel:  ch,
		pin:      pin,
		io:       io,
		signal:   sig,
		clk:      clk,
		observer: obs,
		blinker:  logic.NewBlinker(),
	}
}

// Run drives the state machine until ctx is done, then leaves the LED off.
func (t *LEDTask) Run(ctx context.Context) error {
	t.drive(false)
	for {
		d, bounded := t.blinker.Deadline()
		if !bounded {
			select {
			case <-ctx.Done():
				t.drive(false)
				return ctx.Err()
			case <-t.signal.C():
				t.toggle()
			}
			continue
		}

		timer := t.clk.NewTimer(d)
		select {
		case <-ctx.Done():
			timer.Stop()
			t.drive(false)
			return ctx.Err()
		case <-t.signal.C():
			timer.Stop()
			t.toggle()
		case <-timer.Chan():
			if lit, changed := t.blinker.Expire(); changed {
				t.drive(lit)
			}
		}
	}
}

func (t *LEDTask) toggle() {
	state := t.blinker.Toggle()
	t.drive(t.blinker.Lit())

	typ := logic.EventLEDBlinking
	if state == logic.StateIdle {
		typ = logic.EventLEDIdle
	}
	log.WithFields(log.Fields{"channel": t.channel, "state": state}).Info("led state changed")
	t.observer.Observe(logic.Event{
		Timestamp: t.clk.Now(),
		Type:      typ,
		Channel:   t.channel,
		State:     state,
	})
}

// drive writes the level. A failed write is logged and the next write
// corrects the line.
func (t *LEDTask) drive(lit bool) {
	v := gpio.Low
	if lit {
		v = gpio.High
	}
	if err := t.io.Write(t.pin, v); err != nil {
		log.WithError(err).WithField("channel", t.channel).Warn("led write failed")
	}
}
