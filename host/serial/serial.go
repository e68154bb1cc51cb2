// Package serial opens the USB CDC or UART link to a board running the
// ledkit console firmware.
package serial

import (
	"fmt"
	"io"
	"time"

	tarm "github.com/tarm/serial"
)

// Port is a byte stream to the board. Tests substitute an in-memory pipe.
type Port interface {
	io.ReadWriteCloser
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate; USB CDC ignores it but UART bridges do not
	Baud int

	// ReadTimeout bounds a single Read (0 = blocking)
	ReadTimeout time.Duration
}

// DefaultConfig returns the firmware's console settings
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 500 * time.Millisecond,
	}
}

// Open opens a native serial port
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Device == "" {
		return nil, fmt.Errorf("serial device not set")
	}

	port, err := tarm.OpenPort(&tarm.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}
	return port, nil
}
