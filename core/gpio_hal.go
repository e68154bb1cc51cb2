package core

// GPIOPin identifies a hardware GPIO line
type GPIOPin uint32

// GPIODriver is the abstract digital output interface that core code uses.
// Platform-specific implementations handle actual hardware control.
type GPIODriver interface {
	// ConfigureOutput configures a pin as a digital output
	ConfigureOutput(pin GPIOPin) error

	// SetPin drives the pin high (true) or low (false)
	SetPin(pin GPIOPin, level bool) error
}

// Global singleton used when an Led is built without an explicit driver.
var gpioDriver GPIODriver

// SetGPIODriver is called by target-specific code to register its driver.
func SetGPIODriver(d GPIODriver) {
	gpioDriver = d
}

// DefaultGPIO returns the registered driver, or nil if none was registered.
func DefaultGPIO() GPIODriver {
	return gpioDriver
}

// MustGPIO returns the configured driver or panics if missing.
func MustGPIO() GPIODriver {
	if gpioDriver == nil {
		panic("GPIO driver not configured")
	}
	return gpioDriver
}
