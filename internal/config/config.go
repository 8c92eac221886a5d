// Package config loads daemon configuration from an optional TOML file.
// Command-line flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	log "github.com/sirupsen/logrus"

	"github.com/sweeney/button-blinker/internal/control"
	"github.com/sweeney/button-blinker/internal/gpio"
)

// Backends
const (
	BackendGPIOCDev = "gpiocdev"
	BackendPeriph   = "periph"
	BackendFake     = "fake"
)

// Config is the daemon configuration.
type Config struct {
	Backend        string        `toml:"backend"`
	Chip           string        `toml:"chip"`
	Pins           Pins          `toml:"pins"`
	ReleaseWait    bool          `toml:"release_wait"`
	ReleaseTimeout time.Duration `toml:"release_timeout"`
	LogLevel       string        `toml:"log_level"`
	Broker         string        `toml:"broker"`
	Heartbeat      time.Duration `toml:"heartbeat"`
	HTTPAddr       string        `toml:"http"`
}

// Pins holds BCM line numbers.
type Pins struct {
	ButtonR int `toml:"button_r"`
	ButtonY int `toml:"button_y"`
	LEDR    int `toml:"led_r"`
	LEDY    int `toml:"led_y"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Backend: BackendGPIOCDev,
		Chip:    "gpiochip0",
		Pins: Pins{
			ButtonR: int(gpio.DefaultButtonR),
			ButtonY: int(gpio.DefaultButtonY),
			LEDR:    int(gpio.DefaultLEDR),
			LEDY:    int(gpio.DefaultLEDY),
		},
		ReleaseWait:    true,
		ReleaseTimeout: 2 * time.Second,
		LogLevel:       "info",
		Heartbeat:      15 * time.Minute,
	}
}

// Load reads path over the defaults. An empty path, or a path that does not
// exist, yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.WithField("path", path).Debug("config file not found, using defaults")
			return Default(), nil
		}
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		log.WithField("key", key.String()).Warn("unknown config key ignored")
	}
	return cfg, nil
}

// Validate checks the configuration for values the daemon cannot run with.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendGPIOCDev, BackendPeriph, BackendFake:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.Backend == BackendGPIOCDev && c.Chip == "" {
		return errors.New("chip is required for the gpiocdev backend")
	}
	if c.ReleaseTimeout < 0 {
		return fmt.Errorf("release_timeout must not be negative, got %v", c.ReleaseTimeout)
	}
	if c.Heartbeat < 0 {
		return fmt.Errorf("heartbeat must not be negative, got %v", c.Heartbeat)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return c.ControlPins().Validate()
}

// ControlPins converts the pin numbers for the control package.
func (c Config) ControlPins() control.Pins {
	return control.Pins{
		ButtonR: gpio.PinID(c.Pins.ButtonR),
		ButtonY: gpio.PinID(c.Pins.ButtonY),
		LEDR:    gpio.PinID(c.Pins.LEDR),
		LEDY:    gpio.PinID(c.Pins.LEDY),
	}
}

// Control returns the control system configuration.
func (c Config) Control() control.Config {
	return control.Config{
		Pins:           c.ControlPins(),
		ReleaseWait:    c.ReleaseWait,
		ReleaseTimeout: c.ReleaseTimeout,
	}
}
