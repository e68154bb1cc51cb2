package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ledkit/core"
	"ledkit/host/config"
	"ledkit/host/gpio"
	"ledkit/host/logging"
	"ledkit/host/metrics"
)

// app is the state shared by all subcommands of one invocation
type app struct {
	opts    config.Options
	log     zerolog.Logger
	metrics *metrics.Collector

	driver gpio.Driver
	led    *core.Led
}

func newRootCmd() *cobra.Command {
	a := &app{opts: config.Defaults(), log: zerolog.Nop()}

	root := &cobra.Command{
		Use:           "ledctl",
		Short:         "Drive an LED: on/off, blocking flash and background blink",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.opts.Config, "config", "c", a.opts.Config, "Path to configuration file")
	pf.StringVar(&a.opts.Backend, "backend", a.opts.Backend, "GPIO backend (gpiocdev, sysfs, dry-run)")
	pf.StringVar(&a.opts.Chip, "chip", a.opts.Chip, "GPIO character device for the gpiocdev backend")
	pf.StringVar(&a.opts.SysfsLed, "sysfs-led", a.opts.SysfsLed, "LED class name for the sysfs backend")
	pf.IntVarP(&a.opts.Pin, "pin", "p", a.opts.Pin, "Line offset driving the LED")
	pf.StringVar(&a.opts.Polarity, "polarity", a.opts.Polarity, "active-high or active-low")
	pf.IntVar(&a.opts.Core, "core", a.opts.Core, "Core to pin the blink task to (-1 picks the default)")
	pf.BoolVar(&a.opts.RejectWhileRunning, "reject-while-running", a.opts.RejectWhileRunning, "Refuse blink requests while a blink runs")
	pf.IntVar(&a.opts.TickMs, "tick-ms", a.opts.TickMs, "Delay tick period in milliseconds")
	pf.StringVar(&a.opts.LogLevel, "log-level", a.opts.LogLevel, "Logging level (trace, debug, info, warn, error)")
	pf.StringVar(&a.opts.LogFormat, "log-format", a.opts.LogFormat, "Logging format (console, json)")

	root.AddCommand(
		newOnCmd(a),
		newOffCmd(a),
		newFlashCmd(a),
		newBlinkCmd(a),
		newConsoleCmd(a),
		newRemoteCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	if err := config.LoadConfig(&a.opts, cmd); err != nil {
		return err
	}
	if err := a.opts.Validate(); err != nil {
		return err
	}

	l, err := logging.Setup(logging.Config{Level: a.opts.LogLevel, Format: a.opts.LogFormat}, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.log = l
	logging.BridgeCore(l)
	return nil
}

// ledConfig maps options onto the core LED configuration
func (a *app) ledConfig() core.LedConfig {
	cfg := core.DefaultLedConfig(core.GPIOPin(a.opts.Pin))
	cfg.Name = "ledctl"
	cfg.Polarity = core.ParsePolarity(a.opts.Polarity)
	cfg.RejectWhileRunning = a.opts.RejectWhileRunning
	if a.opts.Core >= 0 {
		cfg.Core = a.opts.Core
	}
	return cfg
}

// openLed builds the backend and an activated Led on it
func (a *app) openLed() (*core.Led, error) {
	driver, err := gpio.New(gpio.Options{
		Backend:  a.opts.Backend,
		Chip:     a.opts.Chip,
		Pin:      core.GPIOPin(a.opts.Pin),
		SysfsLED: a.opts.SysfsLed,
	}, logging.Component(a.log, "gpio"))
	if err != nil {
		return nil, err
	}

	evLog := logging.Component(a.log, "led")
	core.SetEventHook(func(e core.Event) {
		logging.LogEvent(evLog, e)
		if a.metrics != nil {
			a.metrics.Observe(e)
		}
	})

	rt := core.NewGoRuntime()
	rt.TickPeriodMS = uint32(a.opts.TickMs)

	led := core.NewLed(driver, rt, a.ledConfig())
	if err := led.Activate(); err != nil {
		driver.Close()
		return nil, err
	}
	a.driver, a.led = driver, led
	return led, nil
}

// closeLed releases the backend. With keepLevel the LED is left as it is
// instead of being forced off.
func (a *app) closeLed(keepLevel bool) {
	if a.led != nil && !keepLevel {
		a.led.Close()
	}
	if a.driver != nil {
		if err := a.driver.Close(); err != nil {
			a.log.Warn().Err(err).Msg("release gpio")
		}
	}
	core.SetEventHook(nil)
	a.led, a.driver = nil, nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
