package serial

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/dev/ttyACM0")

	if cfg.Device != "/dev/ttyACM0" {
		t.Errorf("Device = %q", cfg.Device)
	}
	if cfg.Baud != 115200 {
		t.Errorf("Baud = %d, want 115200", cfg.Baud)
	}
	if cfg.ReadTimeout != 500*time.Millisecond {
		t.Errorf("ReadTimeout = %v, want 500ms", cfg.ReadTimeout)
	}
}

func TestOpenRejectsBadConfig(t *testing.T) {
	if _, err := Open(nil); err == nil {
		t.Error("Open(nil) succeeded")
	}
	if _, err := Open(&Config{Baud: 115200}); err == nil {
		t.Error("Open without device succeeded")
	}
	if _, err := Open(DefaultConfig("/dev/ledkit-does-not-exist")); err == nil {
		t.Error("Open of a missing device succeeded")
	}
}
