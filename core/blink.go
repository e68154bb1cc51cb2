package core

import "context"

// AsyncResult tells the caller what AsyncFlash did with its request
type AsyncResult uint8

const (
	AsyncFailed     AsyncResult = iota // task spawn failed; see the returned error
	AsyncStarted                       // a new blink task was spawned
	AsyncRetargeted                    // the running task picks up the new parameters
	AsyncDormant                       // LED inactive; parameters stored, no task
	AsyncRejected                      // task running and the LED refuses retargets
)

func (r AsyncResult) String() string {
	switch r {
	case AsyncStarted:
		return "started"
	case AsyncRetargeted:
		return "retargeted"
	case AsyncDormant:
		return "dormant"
	case AsyncRejected:
		return "rejected"
	default:
		return "failed"
	}
}

// Flash blinks the LED count times and blocks until done. See FlashContext.
func (l *Led) Flash(count, onMS, offMS uint32) {
	// never cancelled, so FlashContext cannot fail
	_ = l.FlashContext(context.Background(), count, onMS, offMS)
}

// FlashDefault flashes with the configured synchronous defaults
func (l *Led) FlashDefault() {
	l.Flash(l.cfg.FlashCount, l.cfg.FlashOnMS, l.cfg.FlashOffMS)
}

// FlashContext blinks the activated LED on the calling goroutine. Each cycle
// is on for onMS then off for offMS (zero mirrors onMS), so the call blocks
// for count*(onMS+offMS). count is truncated to MaxFlash. The lit state from
// before the call is restored afterwards. Cancelling ctx cuts the sequence
// short and returns ctx.Err().
func (l *Led) FlashContext(ctx context.Context, count, onMS, offMS uint32) error {
	if count > MaxFlash {
		count = MaxFlash // avoid an almost endless blocking loop
	}
	if offMS == 0 {
		offMS = onMS
	}

	l.mu.Lock()
	if !l.activated {
		l.mu.Unlock()
		return nil
	}
	saved := l.lit
	l.mu.Unlock()

	var err error
	for i := uint32(0); i < count; i++ {
		l.SetLit(true)
		if err = l.rt.Delay(ctx, onMS); err != nil {
			break
		}
		l.SetLit(false)
		if err = l.rt.Delay(ctx, offMS); err != nil {
			break
		}
	}

	l.mu.Lock()
	if l.lit != saved {
		l.writeLocked(saved)
	}
	l.mu.Unlock()
	return err
}

// AsyncFlashDefault starts or retargets a blink with the configured async defaults
func (l *Led) AsyncFlashDefault() (AsyncResult, error) {
	return l.AsyncFlash(l.cfg.AsyncCount, l.cfg.AsyncOnMS, l.cfg.AsyncOffMS, l.cfg.Core)
}

// AsyncFlash blinks the LED in a background task and returns immediately.
//
// With no task running and the LED activated, a task pinned to core is
// spawned. If the LED is not activated the parameters are stored for a later
// call and AsyncDormant is returned. With a task already running, count and
// timing are replaced in place and the task applies them from its next cycle;
// no second task is ever created. count may be Forever.
//
// The only error is a spawn failure, which matches ErrSpawnFailed.
func (l *Led) AsyncFlash(count uint64, onMS, offMS uint32, core int) (AsyncResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.task != nil {
		if l.cfg.RejectWhileRunning {
			RecordEvent(Event{Type: EvtRejected, Pin: l.pin, Remaining: l.spec.remaining,
				OnMS: l.spec.onMS, OffMS: l.spec.offMS})
			return AsyncRejected, nil
		}
		DebugPrintln("blink task already running remaining: count=" + countToString(l.spec.remaining) +
			" dt=(" + utoa(uint64(l.spec.onMS)) + "," + utoa(uint64(l.spec.offMS)) + ")")
		l.spec.retarget(count, onMS, offMS)
		RecordEvent(l.specEventLocked(EvtRetarget))
		return AsyncRetargeted, nil
	}

	l.spec.retarget(count, onMS, offMS)
	if !l.activated {
		RecordEvent(l.specEventLocked(EvtDormant))
		return AsyncDormant, nil
	}

	if l.retired != nil {
		// a task that ended on its own may still be unwinding
		<-l.retired.Done()
		l.retired = nil
	}

	l.taskSeq++
	cfg := TaskConfig{
		Name:      "blink-" + l.cfg.Name,
		StackSize: l.cfg.StackSize,
		Priority:  l.cfg.Priority,
		Core:      core,
	}
	// The lock is held across the spawn so the task cannot observe an idle
	// handle before it is recorded.
	t, err := l.rt.SpawnPinned(cfg, l.blinkTask(l.taskSeq))
	if err != nil {
		RecordEvent(l.specEventLocked(EvtSpawnFailed))
		return AsyncFailed, &SpawnError{Pin: l.pin, Core: core, Cause: err}
	}
	l.task = t
	DebugPrintln("blink task started on core " + itoa(core) + ": count=" + countToString(count))
	RecordEvent(l.specEventLocked(EvtTaskStart))
	return AsyncStarted, nil
}

// AsyncFlashSetTimeRegime changes the on/off durations without touching the
// remaining count. A running task applies them from its next cycle.
func (l *Led) AsyncFlashSetTimeRegime(onMS, offMS uint32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.spec.setTimeRegime(onMS, offMS)
}

// Stop tears down a running blink task and switches the LED off. It is a
// no-op while idle.
func (l *Led) Stop() {
	l.mu.Lock()
	d := l.detachTaskLocked()
	l.mu.Unlock()

	l.joinTask(d)
	if d.running == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.writeLocked(false)
}

// Running reports whether a blink task is alive
func (l *Led) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.task != nil
}

// Remaining returns the number of blink cycles still to run
func (l *Led) Remaining() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.spec.remaining
}

// TimeRegime returns the async on/off durations in milliseconds
func (l *Led) TimeRegime() (onMS, offMS uint32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.spec.onMS, l.spec.offMS
}

// blinkTask returns the body of the background blink task. It runs while
// cycles remain, the LED is activated and the task is not cancelled.
func (l *Led) blinkTask(seq uint64) TaskFunc {
	return func(ctx context.Context) {
		l.mu.Lock()
		startLit := l.lit
		l.mu.Unlock()

		for {
			l.mu.Lock()
			if l.spec.remaining == 0 || !l.activated || ctx.Err() != nil {
				l.mu.Unlock()
				break
			}
			p := l.spec.snapshot()
			l.writeLocked(true)
			l.mu.Unlock()

			if l.rt.Delay(ctx, p.onMS) != nil {
				break
			}

			l.mu.Lock()
			l.writeLocked(false)
			l.mu.Unlock()

			if l.rt.Delay(ctx, p.offMS) != nil {
				break
			}

			l.mu.Lock()
			l.spec.completeCycle(p)
			RecordEvent(l.specEventLocked(EvtCycle))
			l.mu.Unlock()
		}

		l.mu.Lock()
		defer l.mu.Unlock()
		if l.task == nil || l.taskSeq != seq {
			// torn down by the owner, which handles the final level
			return
		}
		DebugPrintln("blink task terminating: count=" + countToString(l.spec.remaining) +
			" activated=" + btoa(l.activated))
		if l.lit != startLit {
			l.writeLocked(startLit)
		}
		l.retired = l.task
		l.task = nil
		RecordEvent(l.specEventLocked(EvtTaskExit))
	}
}

// detachTaskLocked takes the running and retired task handles away from the
// Led so they can be joined without holding the lock.
func (l *Led) detachTaskLocked() detached {
	d := detached{running: l.task, retired: l.retired}
	l.task = nil
	l.retired = nil
	return d
}

type detached struct {
	running Task
	retired Task
}

// joinTask deletes a detached task and waits for a retired one to unwind.
// The Led lock must not be held.
func (l *Led) joinTask(d detached) {
	if d.retired != nil {
		<-d.retired.Done()
	}
	if d.running == nil {
		return
	}
	d.running.Delete()
	l.mu.Lock()
	RecordEvent(l.specEventLocked(EvtTaskDelete))
	l.mu.Unlock()
}

func (l *Led) specEventLocked(typ EventType) Event {
	return Event{
		Type:      typ,
		Pin:       l.pin,
		Remaining: l.spec.remaining,
		OnMS:      l.spec.onMS,
		OffMS:     l.spec.offMS,
	}
}
