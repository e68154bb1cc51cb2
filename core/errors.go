package core

import "errors"

var (
	// ErrSpawnFailed is matched by every error AsyncFlash returns when the
	// task runtime cannot start a blink task.
	ErrSpawnFailed = errors.New("blink task spawn failed")

	// ErrInvalidCore is returned when a task is pinned to a core that does not exist.
	ErrInvalidCore = errors.New("invalid core affinity")

	// ErrTaskLimit is returned when the runtime already runs its maximum number of tasks.
	ErrTaskLimit = errors.New("task limit reached")

	// ErrNoDriver is returned when an Led has no GPIO driver to write through.
	ErrNoDriver = errors.New("GPIO driver not configured")
)

// SpawnError reports a failed task spawn for a given pin. It matches
// ErrSpawnFailed with errors.Is and unwraps to the runtime's cause.
type SpawnError struct {
	Pin   GPIOPin
	Core  int
	Cause error
}

func (e *SpawnError) Error() string {
	msg := "blink task spawn failed on gpio" + utoa(uint64(e.Pin)) + " core " + itoa(e.Core)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *SpawnError) Is(target error) bool {
	return target == ErrSpawnFailed
}

func (e *SpawnError) Unwrap() error {
	return e.Cause
}
