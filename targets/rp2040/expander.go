//go:build rp2040 || rp2350

package main

import (
	"errors"
	"machine"

	"tinygo.org/x/drivers/mcp23017"

	"ledkit/core"
)

const (
	// ExpanderAddress is the MCP23017 address with A0-A2 tied low
	ExpanderAddress = 0x20
	// ExpanderBase is the first LED pin number served by the expander
	ExpanderBase = 64
	expanderPins = 16
)

var errNotOutput = errors.New("pin not configured as output")

// ExpanderDriver drives LEDs on an MCP23017 16-bit I2C port expander
type ExpanderDriver struct {
	dev *mcp23017.Device
}

// NewExpanderDriver configures bus at 400kHz and probes the expander
func NewExpanderDriver(bus *machine.I2C, addr uint8) (*ExpanderDriver, error) {
	if err := bus.Configure(machine.I2CConfig{Frequency: 400000}); err != nil {
		return nil, err
	}
	dev, err := mcp23017.NewI2C(bus, addr)
	if err != nil {
		return nil, err
	}
	return &ExpanderDriver{dev: dev}, nil
}

// ConfigureOutput sets an expander pin (0-15) as output
func (d *ExpanderDriver) ConfigureOutput(pin core.GPIOPin) error {
	if pin >= expanderPins {
		return errors.New("expander pin out of range")
	}
	return d.dev.Pin(int(pin)).SetMode(mcp23017.Output)
}

// SetPin drives an expander pin
func (d *ExpanderDriver) SetPin(pin core.GPIOPin, value bool) error {
	if pin >= expanderPins {
		return errors.New("expander pin out of range")
	}
	return d.dev.Pin(int(pin)).Set(value)
}

// pinRouter sends pins below ExpanderBase to the native bank and the rest
// to the expander.
type pinRouter struct {
	native   core.GPIODriver
	expander core.GPIODriver
}

func (r *pinRouter) route(pin core.GPIOPin) (core.GPIODriver, core.GPIOPin) {
	if pin >= ExpanderBase {
		return r.expander, pin - ExpanderBase
	}
	return r.native, pin
}

func (r *pinRouter) ConfigureOutput(pin core.GPIOPin) error {
	d, p := r.route(pin)
	return d.ConfigureOutput(p)
}

func (r *pinRouter) SetPin(pin core.GPIOPin, value bool) error {
	d, p := r.route(pin)
	return d.SetPin(p, value)
}
