package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"github.com/sweeney/button-blinker/internal/config"
	"github.com/sweeney/button-blinker/internal/control"
	"github.com/sweeney/button-blinker/internal/gpio"
	"github.com/sweeney/button-blinker/internal/mqtt"
	"github.com/sweeney/button-blinker/internal/status"
	"github.com/sweeney/button-blinker/internal/web"
)

func openController(cfg config.Config) (gpio.Controller, error) {
	switch cfg.Backend {
	case config.BackendGPIOCDev:
		return gpio.NewRealController(cfg.Chip)
	case config.BackendPeriph:
		return gpio.NewPeriphController()
	case config.BackendFake:
		return gpio.NewFakeController(), nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

func statusConfig(cfg config.Config) status.Config {
	return status.Config{
		Backend:        cfg.Backend,
		ButtonR:        cfg.Pins.ButtonR,
		ButtonY:        cfg.Pins.ButtonY,
		LEDR:           cfg.Pins.LEDR,
		LEDY:           cfg.Pins.LEDY,
		ReleaseWait:    cfg.ReleaseWait,
		ReleaseTimeout: cfg.ReleaseTimeout,
		HeartbeatMs:    cfg.Heartbeat.Milliseconds(),
		Broker:         cfg.Broker,
		HTTPAddr:       cfg.HTTPAddr,
	}
}

func printState(cfg config.Config, out io.Writer) error {
	ctl, err := openController(cfg)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer ctl.Close()

	pins := cfg.ControlPins()
	for _, b := range []struct {
		name string
		pin  gpio.PinID
	}{{"R", pins.ButtonR}, {"Y", pins.ButtonY}} {
		if err := ctl.ConfigureInput(b.pin); err != nil {
			return fmt.Errorf("configure button %s: %w", b.name, err)
		}
	}

	r, err := ctl.Read(pins.ButtonR)
	if err != nil {
		return fmt.Errorf("read button R: %w", err)
	}
	y, err := ctl.Read(pins.ButtonY)
	if err != nil {
		return fmt.Errorf("read button Y: %w", err)
	}
	fmt.Fprintf(out, "R: %s, Y: %s\n", pressString(r), pressString(y))
	return nil
}

// pressString describes an active-low button level.
func pressString(v gpio.Level) string {
	if v == gpio.Low {
		return "PRESSED"
	}
	return "RELEASED"
}

func run(cfg config.Config, stdin io.Reader) error {
	ctl, err := openController(cfg)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer ctl.Close()

	tracker := status.NewTracker(time.Now(), statusConfig(cfg))
	observers := control.Observers{tracker}

	var (
		publisher  mqtt.Publisher
		mqttStatus mqtt.ConnectionStatus
		relay      *mqtt.Relay
	)
	if cfg.Broker != "" {
		p := mqtt.NewRealPublisher(cfg.Broker)
		defer p.Close()
		publisher, mqttStatus = p, p
		relay = mqtt.NewRelay(p, mqtt.DefaultRelayDepth)
		observers = append(observers, relay)
	}

	clk := clockwork.NewRealClock()
	sys, err := control.NewSystem(ctl, clk, cfg.Control(), observers)
	if err != nil {
		return err
	}
	if err := sys.Setup(); err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	tracker.SetDroppedSource(sys.Dropped)

	if publisher != nil {
		snap := tracker.Snapshot()
		startup := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
		}
		if err := publisher.PublishSystem(startup); err != nil {
			log.WithError(err).Warn("failed to publish startup event")
		}
	}

	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Error("http server error")
			}
		}()
		defer srv.Shutdown(context.Background())
		log.WithField("addr", cfg.HTTPAddr).Info("http status server listening")
	}

	if fake, ok := ctl.(*gpio.FakeController); ok {
		log.Info("fake backend: type r or y and press enter to press a button")
		go feedFakeButtons(stdin, fake, cfg.ControlPins())
	}

	log.WithFields(log.Fields{
		"backend":      cfg.Backend,
		"release_wait": cfg.ReleaseWait,
		"broker":       cfg.Broker,
		"heartbeat":    cfg.Heartbeat,
	}).Info("started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	return runLoop(daemon{
		system:     sys,
		tracker:    tracker,
		publisher:  publisher,
		mqttStatus: mqttStatus,
		relay:      relay,
		clock:      clk,
		heartbeat:  cfg.Heartbeat,
	}, sigCh)
}

// daemon is what runLoop drives. publisher, mqttStatus and relay are nil
// when telemetry is disabled.
type daemon struct {
	system     *control.System
	tracker    *status.Tracker
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	relay      *mqtt.Relay
	clock      clockwork.Clock
	heartbeat  time.Duration
}

// runLoop runs the control tasks until a signal arrives or a task fails,
// publishing heartbeats along the way. On the way out every LED is left
// low and a SHUTDOWN event is published.
func runLoop(d daemon, sig <-chan os.Signal) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sysDone := make(chan error, 1)
	go func() { sysDone <- d.system.Run(ctx) }()

	relayDone := make(chan struct{})
	if d.relay != nil {
		go func() {
			d.relay.Run(ctx)
			close(relayDone)
		}()
	} else {
		close(relayDone)
	}

	var hb <-chan time.Time
	if d.heartbeat > 0 {
		ticker := d.clock.NewTicker(d.heartbeat)
		defer ticker.Stop()
		hb = ticker.Chan()
	}

	var (
		reason  string
		runErr  error
		running = true
	)
	for reason == "" {
		select {
		case s := <-sig:
			log.WithField("signal", s).Info("shutting down")
			reason = signalName(s)
		case runErr = <-sysDone:
			// Tasks only return on their own when something broke.
			running = false
			reason = "ERROR"
			log.WithError(runErr).Error("control tasks stopped")
		case <-hb:
			d.publishSystem("HEARTBEAT", "")
		}
	}

	cancel()
	if running {
		runErr = <-sysDone
	}
	<-relayDone

	d.publishSystem("SHUTDOWN", reason)
	return runErr
}

func (d daemon) publishSystem(event, reason string) {
	if d.mqttStatus != nil {
		d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
	}
	snap := d.tracker.Snapshot()
	log.WithFields(log.Fields{
		"event":   event,
		"uptime":  snap.Uptime().Truncate(time.Second),
		"r":       snap.R.LED,
		"y":       snap.Y.LED,
		"dropped": snap.Dropped,
	}).Info("system event")

	if d.publisher == nil {
		return
	}
	se := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      event,
		Reason:     reason,
		Retained:   event != "HEARTBEAT",
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	}
	if err := d.publisher.PublishSystem(se); err != nil {
		log.WithError(err).WithField("event", event).Warn("failed to publish system event")
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

// feedFakeButtons turns "r" and "y" lines into a press and release of the
// matching button on the fake backend.
func feedFakeButtons(in io.Reader, fake *gpio.FakeController, pins control.Pins) {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		var pin gpio.PinID
		switch strings.ToLower(strings.TrimSpace(sc.Text())) {
		case "r":
			pin = pins.ButtonR
		case "y":
			pin = pins.ButtonY
		default:
			continue
		}
		fake.Press(pin)
		fake.Release(pin)
	}
}
