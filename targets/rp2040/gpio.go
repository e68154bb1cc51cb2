//go:build rp2040 || rp2350

package main

import (
	"machine"
	"sync"

	"ledkit/core"
)

// RPGPIODriver implements core.GPIODriver on the RP2040/RP2350 GPIO bank
type RPGPIODriver struct {
	mu sync.Mutex
	// configured pins, so a pin is set up once
	configuredPins map[core.GPIOPin]machine.Pin
}

// NewRPGPIODriver creates a new RP2040 GPIO driver
func NewRPGPIODriver() *RPGPIODriver {
	return &RPGPIODriver{
		configuredPins: make(map[core.GPIOPin]machine.Pin),
	}
}

// ConfigureOutput configures a pin as a digital output
func (d *RPGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.configuredPins[pin]; exists {
		return nil
	}

	// RP2040 GPIO numbers map directly onto machine.Pin
	machinePin := machine.Pin(pin)
	machinePin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	d.configuredPins[pin] = machinePin
	return nil
}

// SetPin sets the pin to high (true) or low (false)
func (d *RPGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	d.mu.Lock()
	machinePin, exists := d.configuredPins[pin]
	d.mu.Unlock()
	if !exists {
		return errNotOutput
	}

	machinePin.Set(value)
	return nil
}
