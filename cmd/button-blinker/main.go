// Command button-blinker maps two debounced push buttons to two
// independently toggled blinking LEDs.
package main

import (
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sweeney/button-blinker/internal/config"
)

// flagValues holds command-line overrides. A flag only overrides the config
// file when it was set explicitly.
type flagValues struct {
	configPath     string
	backend        string
	chip           string
	broker         string
	httpAddr       string
	heartbeat      time.Duration
	releaseWait    bool
	releaseTimeout time.Duration
	logLevel       string
	buttonR        int
	buttonY        int
	ledR           int
	ledY           int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.WithError(err).Error("fatal")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var fv flagValues

	rootCmd := &cobra.Command{
		Use:           "button-blinker",
		Short:         "Toggle blinking LEDs from debounced push buttons",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, fv)
			if err != nil {
				return err
			}
			return run(cfg, cmd.InOrStdin())
		},
	}
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the controller (default)",
		RunE:  rootCmd.RunE,
	}
	printCmd := &cobra.Command{
		Use:   "print-state",
		Short: "Print both button levels and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, fv)
			if err != nil {
				return err
			}
			return printState(cfg, cmd.OutOrStdout())
		},
	}

	def := config.Default()
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&fv.configPath, "config", "c", "/etc/button-blinker.toml", "Config path (missing file uses defaults)")
	pf.StringVar(&fv.backend, "backend", def.Backend, "GPIO backend: gpiocdev, periph or fake")
	pf.StringVar(&fv.chip, "chip", def.Chip, "GPIO chip for the gpiocdev backend")
	pf.StringVar(&fv.broker, "broker", def.Broker, "MQTT broker address (empty to disable telemetry)")
	pf.StringVar(&fv.httpAddr, "http", def.HTTPAddr, "HTTP status address (empty to disable)")
	pf.DurationVar(&fv.heartbeat, "heartbeat", def.Heartbeat, "Heartbeat interval (0 to disable)")
	pf.BoolVar(&fv.releaseWait, "release-wait", def.ReleaseWait, "Wait for the button to be released before toggling")
	pf.DurationVar(&fv.releaseTimeout, "release-timeout", def.ReleaseTimeout, "Longest release wait")
	pf.StringVar(&fv.logLevel, "log-level", def.LogLevel, "Log level")
	pf.IntVar(&fv.buttonR, "pin-button-r", def.Pins.ButtonR, "BCM pin for button R")
	pf.IntVar(&fv.buttonY, "pin-button-y", def.Pins.ButtonY, "BCM pin for button Y")
	pf.IntVar(&fv.ledR, "pin-led-r", def.Pins.LEDR, "BCM pin for LED R")
	pf.IntVar(&fv.ledY, "pin-led-y", def.Pins.LEDY, "BCM pin for LED Y")

	rootCmd.AddCommand(runCmd, printCmd)
	return rootCmd
}

// loadConfig reads the config file and applies explicitly set flags.
func loadConfig(cmd *cobra.Command, fv flagValues) (config.Config, error) {
	cfg, err := config.Load(fv.configPath)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend = fv.backend
	}
	if flags.Changed("chip") {
		cfg.Chip = fv.chip
	}
	if flags.Changed("broker") {
		cfg.Broker = fv.broker
	}
	if flags.Changed("http") {
		cfg.HTTPAddr = fv.httpAddr
	}
	if flags.Changed("heartbeat") {
		cfg.Heartbeat = fv.heartbeat
	}
	if flags.Changed("release-wait") {
		cfg.ReleaseWait = fv.releaseWait
	}
	if flags.Changed("release-timeout") {
		cfg.ReleaseTimeout = fv.releaseTimeout
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = fv.logLevel
	}
	if flags.Changed("pin-button-r") {
		cfg.Pins.ButtonR = fv.buttonR
	}
	if flags.Changed("pin-button-y") {
		cfg.Pins.ButtonY = fv.buttonY
	}
	if flags.Changed("pin-led-r") {
		cfg.Pins.LEDR = fv.ledR
	}
	if flags.Changed("pin-led-y") {
		cfg.Pins.LEDY = fv.ledY
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("config: %w", err)
	}
	level, _ := log.ParseLevel(cfg.LogLevel)
	log.SetLevel(level)
	return cfg, nil
}
