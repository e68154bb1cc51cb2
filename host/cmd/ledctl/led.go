package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"ledkit/console"
	"ledkit/core"
	"ledkit/host/metrics"
)

func newOnCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "on",
		Short: "Light the LED and leave it lit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			led, err := a.openLed()
			if err != nil {
				return err
			}
			defer a.closeLed(true)
			led.TurnOn()
			return nil
		},
	}
}

func newOffCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "off",
		Short: "Turn the LED off",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := a.openLed(); err != nil {
				return err
			}
			a.closeLed(false)
			return nil
		},
	}
}

func newFlashCmd(a *app) *cobra.Command {
	var onMS, offMS uint32

	cmd := &cobra.Command{
		Use:   "flash [count]",
		Short: "Flash the LED count times and wait until done",
		Long: "Flash blinks in the foreground: each cycle is on for --on-ms then off for --off-ms " +
			"(0 mirrors --on-ms). Counts above " + strconv.Itoa(core.MaxFlash) + " are truncated.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			count := uint64(core.DefaultFlashCount)
			if len(args) == 1 {
				n, err := strconv.ParseUint(args[0], 10, 32)
				if err != nil {
					return fmt.Errorf("bad count %q: %w", args[0], err)
				}
				count = n
			}

			led, err := a.openLed()
			if err != nil {
				return err
			}
			defer a.closeLed(true)

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			err = led.FlashContext(ctx, uint32(count), onMS, offMS)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().Uint32Var(&onMS, "on-ms", core.DefaultFlashDelay, "On time per cycle")
	cmd.Flags().Uint32Var(&offMS, "off-ms", 0, "Off time per cycle (0 mirrors --on-ms)")
	return cmd
}

type blinkFlags struct {
	onMS, offMS   uint32
	forever       bool
	retargetAfter time.Duration
	retargetCount string
	retargetOnMS  uint32
	retargetOffMS uint32
}

func newBlinkCmd(a *app) *cobra.Command {
	var f blinkFlags

	cmd := &cobra.Command{
		Use:   "blink [count|forever]",
		Short: "Blink the LED on a background task until the count runs out",
		Long: "Blink runs the background scheduler. With --retarget-after the running blink is " +
			"retargeted in place once, which is how a caller changes an ongoing blink without " +
			"restarting it. Interrupt stops the blink and turns the LED off.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			count := uint64(core.DefaultAsyncCount)
			if f.forever {
				count = core.Forever
			}
			if len(args) == 1 {
				n, err := console.ParseCount(args[0])
				if err != nil {
					return err
				}
				count = n
			}
			return a.runBlink(cmd.Context(), count, f)
		},
	}

	fl := cmd.Flags()
	fl.Uint32Var(&f.onMS, "on-ms", core.DefaultFlashDelay, "On time per cycle")
	fl.Uint32Var(&f.offMS, "off-ms", 0, "Off time per cycle (0 mirrors --on-ms)")
	fl.BoolVar(&f.forever, "forever", false, "Blink until interrupted")
	fl.DurationVar(&f.retargetAfter, "retarget-after", 0, "Retarget the running blink after this long")
	fl.StringVar(&f.retargetCount, "retarget-count", "", "New count for the retarget (empty keeps the original count)")
	fl.Uint32Var(&f.retargetOnMS, "retarget-on-ms", 0, "New on time for the retarget (0 keeps --on-ms)")
	fl.Uint32Var(&f.retargetOffMS, "retarget-off-ms", 0, "New off time for the retarget")
	fl.StringVar(&a.opts.MetricsAddr, "metrics-addr", a.opts.MetricsAddr, "Serve Prometheus metrics on this address while blinking")
	return cmd
}

func (a *app) runBlink(parent context.Context, count uint64, f blinkFlags) error {
	ctx, cancel := signalContext(parent)
	defer cancel()

	serveErr := make(chan error, 1)
	if a.opts.MetricsAddr != "" {
		a.metrics = metrics.New()
		go func() { serveErr <- a.metrics.Serve(ctx, a.opts.MetricsAddr) }()
		a.log.Info().Str("addr", a.opts.MetricsAddr).Msg("serving metrics")
	} else {
		serveErr <- nil
	}

	led, err := a.openLed()
	if err != nil {
		cancel()
		<-serveErr
		return err
	}
	defer a.closeLed(false)

	cfg := a.ledConfig()
	res, err := led.AsyncFlash(count, f.onMS, f.offMS, cfg.Core)
	if err != nil {
		cancel()
		<-serveErr
		return err
	}
	a.log.Info().Str("result", res.String()).Str("count", console.FormatCount(count)).Msg("blink")

	var retarget <-chan time.Time
	if f.retargetAfter > 0 {
		t := time.NewTimer(f.retargetAfter)
		defer t.Stop()
		retarget = t.C
	}

	poll := time.NewTicker(10 * time.Millisecond)
	defer poll.Stop()

	for led.Running() {
		select {
		case <-ctx.Done():
			led.Stop()
		case <-retarget:
			retarget = nil
			if err := a.retarget(led, count, f); err != nil {
				a.log.Error().Err(err).Msg("retarget")
			}
		case err := <-serveErr:
			if err != nil {
				led.Stop()
				return fmt.Errorf("metrics server: %w", err)
			}
			serveErr = nil
		case <-poll.C:
		}
	}

	cancel()
	if serveErr != nil {
		if err := <-serveErr; err != nil {
			return fmt.Errorf("metrics server: %w", err)
		}
	}
	return nil
}

func (a *app) retarget(led *core.Led, count uint64, f blinkFlags) error {
	if f.retargetCount != "" {
		n, err := console.ParseCount(f.retargetCount)
		if err != nil {
			return err
		}
		count = n
	}
	on, off := f.onMS, f.offMS
	if f.retargetOnMS != 0 {
		on, off = f.retargetOnMS, f.retargetOffMS
	}

	res, err := led.AsyncFlash(count, on, off, a.ledConfig().Core)
	if err != nil {
		return err
	}
	a.log.Info().Str("result", res.String()).Str("count", console.FormatCount(count)).Msg("retarget")
	return nil
}
