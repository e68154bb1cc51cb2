package gpio

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"ledkit/core"
)

// SysfsLEDPath is where the kernel exposes the LED class
const SysfsLEDPath = "/sys/class/leds"

// SysfsDriver drives LEDs owned by a kernel LED class driver. Each pin number
// maps to a directory name under the LED class root, e.g. 0 -> "ACT".
type SysfsDriver struct {
	root string
	leds map[core.GPIOPin]string

	mu         sync.Mutex
	configured map[core.GPIOPin]bool
}

// NewSysfsDriver returns a driver rooted at root (SysfsLEDPath when empty)
func NewSysfsDriver(root string, leds map[core.GPIOPin]string) *SysfsDriver {
	if root == "" {
		root = SysfsLEDPath
	}
	return &SysfsDriver{
		root:       root,
		leds:       leds,
		configured: make(map[core.GPIOPin]bool),
	}
}

func (d *SysfsDriver) ledPath(pin core.GPIOPin) (string, error) {
	name, ok := d.leds[pin]
	if !ok {
		return "", fmt.Errorf("no sysfs LED mapped to pin %d", pin)
	}
	return filepath.Join(d.root, name), nil
}

// ConfigureOutput detaches any kernel trigger so brightness writes stick
func (d *SysfsDriver) ConfigureOutput(pin core.GPIOPin) error {
	p, err := d.ledPath(pin)
	if err != nil {
		return err
	}
	if _, err := os.Stat(p); err != nil {
		return fmt.Errorf("LED %q not found: %w", d.leds[pin], err)
	}

	if err := os.WriteFile(filepath.Join(p, "trigger"), []byte("none"), 0644); err != nil {
		return fmt.Errorf("failed to set LED trigger: %w", err)
	}

	d.mu.Lock()
	d.configured[pin] = true
	d.mu.Unlock()
	return nil
}

// SetPin writes brightness. The LED class already applies the board's
// polarity, so pair this driver with core.ActiveHigh.
func (d *SysfsDriver) SetPin(pin core.GPIOPin, level bool) error {
	d.mu.Lock()
	ok := d.configured[pin]
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("sysfs LED %d: %w", pin, ErrNotConfigured)
	}

	p, err := d.ledPath(pin)
	if err != nil {
		return err
	}
	value := "0"
	if level {
		value = "1"
	}
	if err := os.WriteFile(filepath.Join(p, "brightness"), []byte(value), 0644); err != nil {
		return fmt.Errorf("failed to set LED brightness: %w", err)
	}
	return nil
}
