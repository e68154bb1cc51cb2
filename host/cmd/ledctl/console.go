package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ledkit/console"
	"ledkit/host/logging"
	"ledkit/host/remote"
	"ledkit/host/serial"
)

// repl feeds input lines to exec until EOF or quit and prints each reply
func repl(in io.Reader, out io.Writer, prompt bool, exec func(line string) string) error {
	sc := bufio.NewScanner(in)
	for {
		if prompt {
			fmt.Fprint(out, "> ")
		}
		if !sc.Scan() {
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		switch line {
		case "":
			continue
		case "quit", "exit", "q":
			return nil
		}
		fmt.Fprintln(out, exec(line))
	}
}

func newConsoleCmd(a *app) *cobra.Command {
	var noPrompt bool

	cmd := &cobra.Command{
		Use:   "console",
		Short: "Drive the local LED with console commands read from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			led, err := a.openLed()
			if err != nil {
				return err
			}
			defer a.closeLed(false)

			s := console.NewSession(led)
			return repl(cmd.InOrStdin(), cmd.OutOrStdout(), !noPrompt, s.Reply)
		},
	}
	cmd.Flags().BoolVar(&noPrompt, "no-prompt", false, "Do not print a prompt")
	return cmd
}

func newRemoteCmd(a *app) *cobra.Command {
	var timeout time.Duration
	var noPrompt bool

	cmd := &cobra.Command{
		Use:   "remote [command...]",
		Short: "Send console commands to a board over its serial port",
		Long: "remote sends one command given as arguments, or every line read from stdin, " +
			"to the ledkit console firmware and prints its replies.",
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := serial.Open(&serial.Config{
				Device:      a.opts.Device,
				Baud:        a.opts.Baud,
				ReadTimeout: serial.DefaultConfig(a.opts.Device).ReadTimeout,
			})
			if err != nil {
				return err
			}
			defer port.Close()

			client := remote.NewClient(port, logging.Component(a.log, "remote"))
			client.Timeout = timeout
			return runRemote(cmd.Context(), client, args, cmd.InOrStdin(), cmd.OutOrStdout(), !noPrompt)
		},
	}
	cmd.Flags().StringVar(&a.opts.Device, "device", a.opts.Device, "Serial device of the board")
	cmd.Flags().IntVar(&a.opts.Baud, "baud", a.opts.Baud, "Baud rate (ignored for USB CDC)")
	cmd.Flags().DurationVar(&timeout, "timeout", remote.DefaultTimeout, "Reply timeout")
	cmd.Flags().BoolVar(&noPrompt, "no-prompt", false, "Do not print a prompt")
	return cmd
}

// doer is the part of remote.Client used by the command
type doer interface {
	Do(ctx context.Context, line string) (string, error)
}

func runRemote(ctx context.Context, c doer, args []string, in io.Reader, out io.Writer, prompt bool) error {
	if len(args) > 0 {
		detail, err := c.Do(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		if detail != "" {
			fmt.Fprintln(out, detail)
		}
		return nil
	}

	return repl(in, out, prompt, func(line string) string {
		detail, err := c.Do(ctx, line)
		if err != nil {
			return console.ReplyErr + " " + err.Error()
		}
		if detail == "" {
			return console.ReplyOK
		}
		return console.ReplyOK + " " + detail
	})
}
