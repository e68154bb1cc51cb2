// Package gpio provides the host-side core.GPIODriver backends used by ledctl.
package gpio

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"ledkit/core"
)

// Backend names accepted by New
const (
	BackendChip   = "gpiocdev"
	BackendSysfs  = "sysfs"
	BackendDryRun = "dry-run"
)

// ErrNotConfigured is returned when a pin is written before ConfigureOutput
var ErrNotConfigured = errors.New("pin not configured as output")

// Options selects and parameterises a backend
type Options struct {
	Backend string
	Chip    string // gpiocdev chip, e.g. gpiochip0
	Pin     core.GPIOPin
	// SysfsLED is the LED class directory bound to Pin for the sysfs backend
	SysfsLED  string
	SysfsRoot string
}

// Driver is a GPIO backend that may hold kernel resources
type Driver interface {
	core.GPIODriver
	io.Closer
}

type nopCloser struct {
	core.GPIODriver
}

func (nopCloser) Close() error { return nil }

// New builds the backend named in opts
func New(opts Options, log zerolog.Logger) (Driver, error) {
	switch opts.Backend {
	case BackendChip, "":
		d, err := NewChipDriver(opts.Chip)
		if err != nil {
			return nil, err
		}
		log.Info().Str("chip", opts.Chip).Msg("using gpio character device")
		return d, nil

	case BackendSysfs:
		if opts.SysfsLED == "" {
			return nil, fmt.Errorf("sysfs backend needs an LED name")
		}
		log.Info().Str("led", opts.SysfsLED).Msg("using sysfs LED class")
		return nopCloser{NewSysfsDriver(opts.SysfsRoot, map[core.GPIOPin]string{opts.Pin: opts.SysfsLED})}, nil

	case BackendDryRun:
		log.Info().Msg("dry run, no hardware is touched")
		return nopCloser{NewRecorder(log)}, nil

	default:
		return nil, fmt.Errorf("unknown gpio backend %q", opts.Backend)
	}
}
