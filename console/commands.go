package console

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"ledkit/core"
)

func cmdBegin(s *Session, args []string) (string, error) {
	return "", s.led.Activate()
}

func cmdEnd(s *Session, args []string) (string, error) {
	s.led.Deactivate()
	return "", nil
}

func cmdOn(s *Session, args []string) (string, error) {
	s.led.TurnOn()
	return "", nil
}

func cmdOff(s *Session, args []string) (string, error) {
	s.led.TurnOff()
	return "", nil
}

func cmdToggle(s *Session, args []string) (string, error) {
	s.led.Toggle()
	return onOff(s.led.IsOn()), nil
}

// cmdFlash blocks the console until the sequence is done
func cmdFlash(s *Session, args []string) (string, error) {
	count, err := argUint(args, 0, core.DefaultFlashCount)
	if err != nil {
		return "", err
	}
	on, err := argUint(args, 1, core.DefaultFlashDelay)
	if err != nil {
		return "", err
	}
	off, err := argUint(args, 2, 0)
	if err != nil {
		return "", err
	}
	s.led.Flash(uint32(count), uint32(on), uint32(off))
	return "", nil
}

func cmdAsync(s *Session, args []string) (string, error) {
	count := uint64(core.DefaultAsyncCount)
	if len(args) > 0 {
		c, err := ParseCount(args[0])
		if err != nil {
			return "", err
		}
		count = c
	}
	on, err := argUint(args, 1, core.DefaultFlashDelay)
	if err != nil {
		return "", err
	}
	off, err := argUint(args, 2, 0)
	if err != nil {
		return "", err
	}
	coreNum := core.DefaultCore()
	if len(args) > 3 {
		n, err := strconv.Atoi(args[3])
		if err != nil {
			return "", errors.New("bad core " + strconv.Quote(args[3]))
		}
		coreNum = n
	}

	res, err := s.led.AsyncFlash(count, uint32(on), uint32(off), coreNum)
	if err != nil {
		return "", err
	}
	return res.String(), nil
}

func cmdRegime(s *Session, args []string) (string, error) {
	if len(args) == 0 {
		return "", errors.New("usage: " + s.commands["regime"].usage)
	}
	on, err := argUint(args, 0, 0)
	if err != nil {
		return "", err
	}
	off, err := argUint(args, 1, 0)
	if err != nil {
		return "", err
	}
	s.led.AsyncFlashSetTimeRegime(uint32(on), uint32(off))
	return "", nil
}

func cmdStop(s *Session, args []string) (string, error) {
	s.led.Stop()
	return "", nil
}

func cmdLogic(s *Session, args []string) (string, error) {
	if len(args) > 0 {
		s.led.SetPolarity(core.ParsePolarity(strings.ToLower(args[0])))
	}
	return s.led.Polarity().String(), nil
}

func cmdReconnect(s *Session, args []string) (string, error) {
	if len(args) == 0 {
		return "", errors.New("usage: " + s.commands["reconnect"].usage)
	}
	pin, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return "", errors.New("bad pin " + strconv.Quote(args[0]))
	}
	polarity := core.ActiveHigh
	if len(args) > 1 {
		polarity = core.ParsePolarity(strings.ToLower(args[1]))
	}
	s.led.ReconnectToPin(core.GPIOPin(pin), polarity)
	return "", nil
}

// cmdStatus reports the LED as space separated key=value pairs
func cmdStatus(s *Session, args []string) (string, error) {
	on, off := s.led.TimeRegime()
	return "pin=" + strconv.FormatUint(uint64(s.led.Pin()), 10) +
		" polarity=" + s.led.Polarity().String() +
		" activated=" + strconv.FormatBool(s.led.IsActivated()) +
		" lit=" + strconv.FormatBool(s.led.IsOn()) +
		" running=" + strconv.FormatBool(s.led.Running()) +
		" remaining=" + FormatCount(s.led.Remaining()) +
		" on_ms=" + strconv.FormatUint(uint64(on), 10) +
		" off_ms=" + strconv.FormatUint(uint64(off), 10), nil
}

func cmdEvents(s *Session, args []string) (string, error) {
	events := core.Events()
	parts := make([]string, 0, len(events))
	for _, e := range events {
		parts = append(parts, e.Type.String())
	}
	return strings.Join(parts, ","), nil
}

func cmdHelp(s *Session, args []string) (string, error) {
	usages := make([]string, 0, len(s.commands))
	for _, c := range s.commands {
		usages = append(usages, c.usage)
	}
	sort.Strings(usages)
	return strings.Join(usages, "; "), nil
}

// ParseCount reads a blink count; "forever" and "inf" select core.Forever.
func ParseCount(s string) (uint64, error) {
	switch strings.ToLower(s) {
	case "forever", "inf", "infinite":
		return core.Forever, nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.New("bad count " + strconv.Quote(s))
	}
	return n, nil
}

// FormatCount is the inverse of ParseCount
func FormatCount(n uint64) string {
	if n == core.Forever {
		return "forever"
	}
	return strconv.FormatUint(n, 10)
}

func argUint(args []string, i int, def uint64) (uint64, error) {
	if i >= len(args) {
		return def, nil
	}
	n, err := strconv.ParseUint(args[i], 10, 32)
	if err != nil {
		return 0, errors.New("bad number " + strconv.Quote(args[i]))
	}
	return n, nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
