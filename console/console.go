// Package console implements the line-oriented command surface for one LED.
// Firmware runs it over the USB serial port; the host runs it interactively
// or sends its lines to a remote board.
package console

import (
	"errors"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"ledkit/core"
)

// Reply prefixes
const (
	ReplyOK  = "ok"
	ReplyErr = "err"
)

// Handler runs one console command against an LED
type Handler func(s *Session, args []string) (string, error)

type command struct {
	usage   string
	handler Handler
}

// Session binds the console commands to one Led
type Session struct {
	led      *core.Led
	commands map[string]command
}

// NewSession creates a console for led
func NewSession(led *core.Led) *Session {
	s := &Session{led: led, commands: make(map[string]command)}
	s.register("begin", "begin", cmdBegin)
	s.register("end", "end", cmdEnd)
	s.register("on", "on", cmdOn)
	s.register("off", "off", cmdOff)
	s.register("toggle", "toggle", cmdToggle)
	s.register("flash", "flash [count [on_ms [off_ms]]]", cmdFlash)
	s.register("async", "async [count|forever [on_ms [off_ms [core]]]]", cmdAsync)
	s.register("regime", "regime on_ms [off_ms]", cmdRegime)
	s.register("stop", "stop", cmdStop)
	s.register("logic", "logic [high|low]", cmdLogic)
	s.register("reconnect", "reconnect pin [high|low]", cmdReconnect)
	s.register("status", "status", cmdStatus)
	s.register("events", "events", cmdEvents)
	s.register("help", "help", cmdHelp)
	return s
}

func (s *Session) register(name, usage string, h Handler) {
	s.commands[name] = command{usage: usage, handler: h}
}

// Led returns the LED driven by this session
func (s *Session) Led() *core.Led {
	return s.led
}

// Execute runs one command line and returns its detail text. Blank lines and
// '#' comments return an empty detail and no error.
func (s *Session) Execute(line string) (string, error) {
	args, err := shlex.Split(line)
	if err != nil {
		return "", err
	}
	if len(args) == 0 {
		return "", nil
	}

	cmd, ok := s.commands[strings.ToLower(args[0])]
	if !ok {
		return "", errors.New("unknown command " + strconv.Quote(args[0]))
	}
	return cmd.handler(s, args[1:])
}

// Reply runs a command line and formats the single-line reply sent back to
// the peer.
func (s *Session) Reply(line string) string {
	detail, err := s.Execute(line)
	if err != nil {
		return ReplyErr + " " + err.Error()
	}
	if detail == "" {
		return ReplyOK
	}
	return ReplyOK + " " + detail
}

// ParseReply splits a reply line into its detail, returning an error for err replies.
func ParseReply(reply string) (string, error) {
	reply = strings.TrimSpace(reply)
	switch {
	case reply == ReplyOK:
		return "", nil
	case strings.HasPrefix(reply, ReplyOK+" "):
		return strings.TrimPrefix(reply, ReplyOK+" "), nil
	case strings.HasPrefix(reply, ReplyErr):
		return "", errors.New(strings.TrimSpace(strings.TrimPrefix(reply, ReplyErr)))
	default:
		return "", errors.New("malformed reply " + strconv.Quote(reply))
	}
}
