package gpio

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ledkit/core"
)

// Write is one level change seen by a Recorder
type Write struct {
	Pin   core.GPIOPin
	Level bool
	At    time.Time
}

// Recorder is the dry-run backend. It keeps every write in memory and logs
// it at debug level instead of touching hardware.
type Recorder struct {
	log zerolog.Logger

	mu         sync.Mutex
	configured map[core.GPIOPin]bool
	writes     []Write
}

// NewRecorder creates a dry-run driver logging through log
func NewRecorder(log zerolog.Logger) *Recorder {
	return &Recorder{
		log:        log,
		configured: make(map[core.GPIOPin]bool),
	}
}

func (r *Recorder) ConfigureOutput(pin core.GPIOPin) error {
	r.mu.Lock()
	r.configured[pin] = true
	r.mu.Unlock()
	r.log.Debug().Uint32("pin", uint32(pin)).Msg("configure output")
	return nil
}

func (r *Recorder) SetPin(pin core.GPIOPin, level bool) error {
	r.mu.Lock()
	if !r.configured[pin] {
		r.mu.Unlock()
		return ErrNotConfigured
	}
	r.writes = append(r.writes, Write{Pin: pin, Level: level, At: time.Now()})
	r.mu.Unlock()

	r.log.Debug().Uint32("pin", uint32(pin)).Bool("level", level).Msg("set pin")
	return nil
}

// Writes returns a copy of the recorded writes
func (r *Recorder) Writes() []Write {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Write, len(r.writes))
	copy(out, r.writes)
	return out
}
