package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/sweeney/button-blinker/internal/config"
	"github.com/sweeney/button-blinker/internal/control"
	"github.com/sweeney/button-blinker/internal/gpio"
	"github.com/sweeney/button-blinker/internal/logic"
	"github.com/sweeney/button-blinker/internal/mqtt"
	"github.com/sweeney/button-blinker/internal/status"
)

// fakeClock is the part of clockwork's fake clock the tests drive.
type fakeClock interface {
	clockwork.Clock
	Advance(d time.Duration)
	BlockUntil(n int)
}

type loopHarness struct {
	io      *gpio.FakeController
	clk     fakeClock
	pub     *mqtt.FakePublisher
	tracker *status.Tracker
	sig     chan os.Signal
	done    chan error
}

func startLoop(t *testing.T, heartbeat time.Duration) *loopHarness {
	t.Helper()
	h := &loopHarness{
		io:      gpio.NewFakeController(),
		clk:     clockwork.NewFakeClockAt(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		pub:     mqtt.NewFakePublisher(),
		tracker: status.NewTracker(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), status.Config{Backend: "fake"}),
		sig:     make(chan os.Signal, 1),
		done:    make(chan error, 1),
	}
	h.pub.SetConnected(true)
	relay := mqtt.NewRelay(h.pub, 16)

	sys, err := control.NewSystem(h.io, h.clk, control.Config{Pins: control.DefaultPins()}, control.Observers{h.tracker, relay})
	if err != nil {
		t.Fatalf("NewSystem: %v", err)
	}
	if err := sys.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	h.tracker.SetDroppedSource(sys.Dropped)

	go func() {
		h.done <- runLoop(daemon{
			system:     sys,
			tracker:    h.tracker,
			publisher:  h.pub,
			mqttStatus: h.pub,
			relay:      relay,
			clock:      h.clk,
			heartbeat:  heartbeat,
		}, h.sig)
	}()
	return h
}

func (h *loopHarness) stop(t *testing.T, s os.Signal) {
	t.Helper()
	h.sig <- s
	select {
	case err := <-h.done:
		if err != nil {
			t.Fatalf("runLoop returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runLoop did not return after signal")
	}
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func systemEventNames(pub *mqtt.FakePublisher) []string {
	var names []string
	for _, e := range pub.SystemEvents() {
		names = append(names, e.Event)
	}
	return names
}

func TestRunLoopShutdownSIGTERM(t *testing.T) {
	h := startLoop(t, 0)
	h.stop(t, syscall.SIGTERM)

	events := h.pub.SystemEvents()
	if len(events) != 1 {
		t.Fatalf("expected 1 system event, got %v", systemEventNames(h.pub))
	}
	e := events[0]
	if e.Event != "SHUTDOWN" || e.Reason != "SIGTERM" {
		t.Errorf("unexpected shutdown event: %s %s", e.Event, e.Reason)
	}
	if !e.Retained {
		t.Error("shutdown event should be retained")
	}

	var sj status.StatusJSON
	if err := json.Unmarshal(h.pub.SystemPayloads()[0], &sj); err != nil {
		t.Fatalf("invalid shutdown payload: %v", err)
	}
	if sj.Status.Event != "SHUTDOWN" || sj.Status.Reason != "SIGTERM" {
		t.Errorf("payload event/reason: got %q/%q", sj.Status.Event, sj.Status.Reason)
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected payload to report MQTT connected")
	}
}

func TestRunLoopShutdownSIGINT(t *testing.T) {
	h := startLoop(t, 0)
	h.stop(t, syscall.SIGINT)

	events := h.pub.SystemEvents()
	if len(events) != 1 || events[0].Reason != "SIGINT" {
		t.Errorf("expected SHUTDOWN with reason SIGINT, got %+v", events)
	}
}

func TestRunLoopPressPublishesAndStopsDark(t *testing.T) {
	h := startLoop(t, 0)
	pins := control.DefaultPins()

	h.io.Press(pins.ButtonR)
	h.io.Release(pins.ButtonR)

	waitFor(t, func() bool { return len(h.pub.Events()) >= 2 }, "press and LED events")

	// The LED task may report before the button task does.
	seen := map[logic.EventType]bool{}
	for _, e := range h.pub.Events() {
		if e.Channel != logic.ChannelR {
			t.Errorf("unexpected event on %s", e.Channel)
		}
		seen[e.Type] = true
	}
	if !seen[logic.EventPressAccepted] || !seen[logic.EventLEDBlinking] {
		t.Errorf("expected PRESS_ACCEPTED and LED_BLINKING, got %+v", h.pub.Events())
	}

	h.stop(t, syscall.SIGTERM)

	if lv := h.io.Level(pins.LEDR); lv != gpio.Low {
		t.Errorf("LED R should be low after shutdown, got %v", lv)
	}
	if lv := h.io.Level(pins.LEDY); lv != gpio.Low {
		t.Errorf("LED Y should be low after shutdown, got %v", lv)
	}

	var sj status.StatusJSON
	payloads := h.pub.SystemPayloads()
	if err := json.Unmarshal(payloads[len(payloads)-1], &sj); err != nil {
		t.Fatalf("invalid shutdown payload: %v", err)
	}
	if sj.Status.Channels["R"].Accepted != 1 {
		t.Errorf("shutdown payload R accepted: got %d, want 1", sj.Status.Channels["R"].Accepted)
	}
}

func TestRunLoopHeartbeat(t *testing.T) {
	h := startLoop(t, time.Minute)

	// The heartbeat ticker is the only timer while both LEDs are idle.
	h.clk.BlockUntil(1)
	h.clk.Advance(time.Minute)
	waitFor(t, func() bool { return len(h.pub.SystemEvents()) >= 1 }, "heartbeat")

	h.stop(t, syscall.SIGTERM)

	names := systemEventNames(h.pub)
	if len(names) != 2 || names[0] != "HEARTBEAT" || names[1] != "SHUTDOWN" {
		t.Fatalf("expected [HEARTBEAT SHUTDOWN], got %v", names)
	}
	hb := h.pub.SystemEvents()[0]
	if hb.Retained {
		t.Error("heartbeat should not be retained")
	}
	if !strings.Contains(string(h.pub.SystemPayloads()[0]), `"event":"HEARTBEAT"`) {
		t.Errorf("heartbeat payload missing event: %s", h.pub.SystemPayloads()[0])
	}
}

func TestRunLoopPublishErrorDoesNotStop(t *testing.T) {
	h := startLoop(t, 0)
	h.pub.PublishError = errors.New("broker down")
	h.pub.PublishSystemError = errors.New("broker down")

	h.io.Press(control.DefaultPins().ButtonY)
	h.io.Release(control.DefaultPins().ButtonY)
	waitFor(t, func() bool {
		return h.tracker.Snapshot().Y.LED == logic.StateBlinking
	}, "Y blinking")

	h.stop(t, syscall.SIGTERM)
	if len(h.pub.SystemEvents()) != 0 {
		t.Error("failed publishes should not be recorded")
	}
}

func TestRunLoopWithoutTelemetry(t *testing.T) {
	io := gpio.NewFakeController()
	clk := clockwork.NewFakeClock()
	tracker := status.NewTracker(time.Now(), status.Config{})
	sys, err := control.NewSystem(io, clk, control.Config{Pins: control.DefaultPins()}, tracker)
	if err != nil {
		t.Fatalf("NewSystem: %v", err)
	}
	if err := sys.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	sig := make(chan os.Signal, 1)
	sig <- syscall.SIGINT
	if err := runLoop(daemon{system: sys, tracker: tracker, clock: clk}, sig); err != nil {
		t.Fatalf("runLoop: %v", err)
	}
}

func TestSignalName(t *testing.T) {
	tests := []struct {
		sig  os.Signal
		want string
	}{
		{syscall.SIGINT, "SIGINT"},
		{syscall.SIGTERM, "SIGTERM"},
		{syscall.SIGHUP, "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := signalName(tt.sig); got != tt.want {
			t.Errorf("signalName(%v): got %q, want %q", tt.sig, got, tt.want)
		}
	}
}

func TestOpenControllerFake(t *testing.T) {
	cfg := config.Default()
	cfg.Backend = config.BackendFake
	ctl, err := openController(cfg)
	if err != nil {
		t.Fatalf("openController: %v", err)
	}
	if _, ok := ctl.(*gpio.FakeController); !ok {
		t.Errorf("expected *gpio.FakeController, got %T", ctl)
	}
}

func TestOpenControllerUnknown(t *testing.T) {
	cfg := config.Default()
	cfg.Backend = "bogus"
	if _, err := openController(cfg); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestFeedFakeButtons(t *testing.T) {
	io := gpio.NewFakeController()
	pins := control.DefaultPins()
	var edges []gpio.PinID
	for _, id := range []gpio.PinID{pins.ButtonR, pins.ButtonY} {
		io.ConfigureInput(id)
		io.WatchFalling(id, func(id gpio.PinID) { edges = append(edges, id) })
	}

	feedFakeButtons(strings.NewReader("r\nnoise\n Y \n\nr\n"), io, pins)

	want := []gpio.PinID{pins.ButtonR, pins.ButtonY, pins.ButtonR}
	if len(edges) != len(want) {
		t.Fatalf("expected %d edges, got %v", len(want), edges)
	}
	for i := range want {
		if edges[i] != want[i] {
			t.Errorf("edge %d: got %d, want %d", i, edges[i], want[i])
		}
	}
	if io.Level(pins.ButtonR) != gpio.High {
		t.Error("button should be released after feeding")
	}
}

func missingConfig(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "missing.toml")
}

func TestPrintStateCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"print-state", "--config", missingConfig(t), "--backend", "fake"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("print-state: %v", err)
	}
	if got := out.String(); got != "R: RELEASED, Y: RELEASED\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestPrintStateReadsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blinker.toml")
	if err := os.WriteFile(path, []byte("backend = \"fake\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"print-state", "--config", path})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("print-state: %v", err)
	}
	if !strings.HasPrefix(out.String(), "R: ") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestFlagsRejectInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown backend", []string{"--backend", "bogus"}},
		{"shared pin", []string{"--backend", "fake", "--pin-button-r", "5"}},
		{"bad log level", []string{"--backend", "fake", "--log-level", "loud"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newRootCmd()
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetArgs(append([]string{"print-state", "--config", missingConfig(t)}, tt.args...))
			if err := cmd.Execute(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestPressString(t *testing.T) {
	if pressString(gpio.Low) != "PRESSED" {
		t.Error("low should read as PRESSED")
	}
	if pressString(gpio.High) != "RELEASED" {
		t.Error("high should read as RELEASED")
	}
}
