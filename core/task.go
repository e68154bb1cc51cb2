package core

import (
	"context"
	"sync"
	"time"
)

// Task defaults mirror the stack and priority the blink task has always used.
const (
	DefaultTaskStackSize = 2048
	DefaultTaskPriority  = 2
	DefaultTickPeriodMS  = 1
)

// TaskFunc is the body of a background task. It must return once ctx is done.
type TaskFunc func(ctx context.Context)

// TaskConfig describes how a background task is created
type TaskConfig struct {
	Name      string
	StackSize uint32
	Priority  uint8
	Core      int // processing core the task is pinned to
}

// Task is a handle to a running background task.
type Task interface {
	// Delete cancels the task and blocks until its body has returned.
	// It must never be called from inside the task itself.
	Delete()

	// Done is closed once the task body has returned.
	Done() <-chan struct{}
}

// TaskRuntime creates background tasks and provides the tick-based delay
// they suspend on.
type TaskRuntime interface {
	SpawnPinned(cfg TaskConfig, entry TaskFunc) (Task, error)

	// Delay suspends the caller for ms milliseconds, truncated to whole ticks.
	// It returns ctx.Err() early if ctx is cancelled.
	Delay(ctx context.Context, ms uint32) error
}

// GoRuntime runs tasks as goroutines. On Linux each task locks its OS thread
// and pins it to the requested core. Under TinyGo the affinity is recorded only.
type GoRuntime struct {
	// TickPeriodMS is the delay granularity. Zero means DefaultTickPeriodMS.
	TickPeriodMS uint32

	// MaxTasks bounds concurrently live tasks. Zero means unbounded.
	MaxTasks int

	// NumCores overrides the detected core count when non-zero.
	NumCores int

	mu   sync.Mutex
	live int
}

// NewGoRuntime creates a runtime with a 1 ms tick and no task limit
func NewGoRuntime() *GoRuntime {
	return &GoRuntime{TickPeriodMS: DefaultTickPeriodMS}
}

var defaultRuntime = NewGoRuntime()

// DefaultRuntime returns the process-wide runtime used when an Led is built
// without one.
func DefaultRuntime() *GoRuntime {
	return defaultRuntime
}

// Cores returns the number of cores tasks may be pinned to
func (r *GoRuntime) Cores() int {
	if r.NumCores > 0 {
		return r.NumCores
	}
	return numCores()
}

// Live returns the number of tasks whose body has not yet returned
func (r *GoRuntime) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live
}

// SpawnPinned starts entry on its own goroutine. It returns only after the
// goroutine has applied its core affinity, so a pinning failure is reported
// here rather than lost.
func (r *GoRuntime) SpawnPinned(cfg TaskConfig, entry TaskFunc) (Task, error) {
	if cfg.Core < 0 || cfg.Core >= r.Cores() {
		return nil, ErrInvalidCore
	}

	r.mu.Lock()
	if r.MaxTasks > 0 && r.live >= r.MaxTasks {
		r.mu.Unlock()
		return nil, ErrTaskLimit
	}
	r.live++
	r.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	t := &goTask{cancel: cancel, done: make(chan struct{})}
	started := make(chan error, 1)

	go func() {
		defer func() {
			r.mu.Lock()
			r.live--
			r.mu.Unlock()
			close(t.done)
		}()

		if err := pinToCore(cfg.Core); err != nil {
			started <- err
			return
		}
		started <- nil
		entry(ctx)
	}()

	if err := <-started; err != nil {
		cancel()
		<-t.done
		return nil, err
	}
	return t, nil
}

// Delay sleeps for ms truncated to the tick period. A delay shorter than one
// tick only yields.
func (r *GoRuntime) Delay(ctx context.Context, ms uint32) error {
	tick := r.TickPeriodMS
	if tick == 0 {
		tick = DefaultTickPeriodMS
	}
	ticks := ms / tick
	if ticks == 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(time.Duration(ticks*tick) * time.Millisecond)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type goTask struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (t *goTask) Delete() {
	t.cancel()
	<-t.done
}

func (t *goTask) Done() <-chan struct{} {
	return t.done
}

// DefaultCore is the core blink tasks run on unless told otherwise: core 1
// when there is more than one, else core 0.
func DefaultCore() int {
	if numCores() > 1 {
		return 1
	}
	return 0
}
