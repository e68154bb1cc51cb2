//go:build !linux

package gpio

import (
	"errors"
	"fmt"

	"ledkit/core"
)

// ChipDriver is only available on Linux
type ChipDriver struct{}

// NewChipDriver always fails off Linux
func NewChipDriver(chip string) (*ChipDriver, error) {
	return nil, fmt.Errorf("gpio chip %q: %w", chip, errors.ErrUnsupported)
}

func (d *ChipDriver) ConfigureOutput(pin core.GPIOPin) error { return errors.ErrUnsupported }

func (d *ChipDriver) SetPin(pin core.GPIOPin, level bool) error { return errors.ErrUnsupported }

func (d *ChipDriver) Close() error { return nil }
