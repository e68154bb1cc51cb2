//go:build linux

package gpio

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"

	"ledkit/core"
)

// Consumer is the label shown by gpioinfo for lines held by ledctl
const Consumer = "ledctl"

// ChipDriver drives lines of one GPIO character device (gpiochipN).
// Lines are requested lazily by ConfigureOutput and released by Close.
type ChipDriver struct {
	chip string

	mu    sync.Mutex
	lines map[core.GPIOPin]*gpiocdev.Line
}

// NewChipDriver returns a driver for chip, e.g. "gpiochip0"
func NewChipDriver(chip string) (*ChipDriver, error) {
	if chip == "" {
		return nil, fmt.Errorf("gpio chip name is empty")
	}
	return &ChipDriver{
		chip:  chip,
		lines: make(map[core.GPIOPin]*gpiocdev.Line),
	}, nil
}

// ConfigureOutput requests the line as an output driven low. Calling it
// again for a held line reconfigures it.
func (d *ChipDriver) ConfigureOutput(pin core.GPIOPin) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if l, ok := d.lines[pin]; ok {
		if err := l.Reconfigure(gpiocdev.AsOutput(0)); err != nil {
			return fmt.Errorf("reconfigure %s:%d: %w", d.chip, pin, err)
		}
		return nil
	}

	l, err := gpiocdev.RequestLine(d.chip, int(pin), gpiocdev.AsOutput(0), gpiocdev.WithConsumer(Consumer))
	if err != nil {
		return fmt.Errorf("request %s:%d: %w", d.chip, pin, err)
	}
	d.lines[pin] = l
	return nil
}

// SetPin drives a requested line
func (d *ChipDriver) SetPin(pin core.GPIOPin, level bool) error {
	d.mu.Lock()
	l, ok := d.lines[pin]
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("%s:%d: %w", d.chip, pin, ErrNotConfigured)
	}

	v := 0
	if level {
		v = 1
	}
	return l.SetValue(v)
}

// Close releases every requested line. The kernel keeps the last value
// driven until another consumer claims the line.
func (d *ChipDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var firstErr error
	for pin, l := range d.lines {
		if err := l.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(d.lines, pin)
	}
	return firstErr
}
