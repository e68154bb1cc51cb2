package core

import "sync"

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// EventType identifies an LED lifecycle event
type EventType uint8

// Event type codes
const (
	EvtActivate    EventType = 1  // LED activated
	EvtDeactivate  EventType = 2  // LED disabled
	EvtTaskStart   EventType = 3  // blink task spawned
	EvtRetarget    EventType = 4  // running blink updated in place
	EvtCycle       EventType = 5  // one on/off cycle completed
	EvtTaskExit    EventType = 6  // blink task ended on its own
	EvtTaskDelete  EventType = 7  // blink task torn down by its owner
	EvtSpawnFailed EventType = 8  // runtime refused to start a task
	EvtWriteFailed EventType = 9  // GPIO driver rejected a level write
	EvtDormant     EventType = 10 // async request stored on an inactive LED
	EvtRejected    EventType = 11 // async request refused while running
)

// Event captures an LED lifecycle event for post-mortem analysis
type Event struct {
	Type      EventType
	Pin       GPIOPin
	Remaining uint64 // blink count remaining at the time of the event
	OnMS      uint32
	OffMS     uint32
}

const (
	EventRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	// eventMu guards the ring and hook; blink tasks record concurrently
	eventMu   sync.Mutex
	eventRing [EventRingSize]Event
	eventHead uint8
	eventHook func(Event)
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, a logger, etc.
func SetDebugWriter(writer DebugWriter) {
	eventMu.Lock()
	defer eventMu.Unlock()
	if writer == nil {
		writer = func(string) {}
	}
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	eventMu.Lock()
	defer eventMu.Unlock()
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	eventMu.Lock()
	defer eventMu.Unlock()
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	eventMu.Lock()
	enabled, w := debugEnabled, debugPrintln
	eventMu.Unlock()
	if enabled {
		w(msg)
	}
}

// SetEventHook registers a callback invoked for every recorded event.
// The hook may run on a blink task while the LED lock is held, so it must
// not call back into the Led.
func SetEventHook(hook func(Event)) {
	eventMu.Lock()
	defer eventMu.Unlock()
	eventHook = hook
}

// RecordEvent stores an event in the ring buffer and forwards it to the hook
func RecordEvent(e Event) {
	eventMu.Lock()
	idx := eventHead
	eventRing[idx] = e
	eventHead = (idx + 1) % EventRingSize
	hook := eventHook
	eventMu.Unlock()

	if hook != nil {
		hook(e)
	}
}

// Events returns the buffered events from oldest to newest
func Events() []Event {
	eventMu.Lock()
	defer eventMu.Unlock()

	out := make([]Event, 0, EventRingSize)
	start := eventHead
	for i := uint8(0); i < EventRingSize; i++ {
		evt := eventRing[(start+i)%EventRingSize]
		if evt.Type == 0 {
			continue // Empty slot
		}
		out = append(out, evt)
	}
	return out
}

// DumpEvents outputs the event ring through the debug writer
func DumpEvents() {
	eventMu.Lock()
	w := debugPrintln
	eventMu.Unlock()

	w("[LED] === Event Ring Dump ===")
	for _, evt := range Events() {
		w("[LED] " + evt.String())
	}
	w("[LED] === End Dump ===")
}

// ClearEvents clears the event buffer
func ClearEvents() {
	eventMu.Lock()
	defer eventMu.Unlock()
	for i := range eventRing {
		eventRing[i] = Event{}
	}
	eventHead = 0
}

func (t EventType) String() string {
	switch t {
	case EvtActivate:
		return "ACTIVATE"
	case EvtDeactivate:
		return "DEACTIVATE"
	case EvtTaskStart:
		return "TASK_START"
	case EvtRetarget:
		return "RETARGET"
	case EvtCycle:
		return "CYCLE"
	case EvtTaskExit:
		return "TASK_EXIT"
	case EvtTaskDelete:
		return "TASK_DELETE"
	case EvtSpawnFailed:
		return "SPAWN_FAILED!"
	case EvtWriteFailed:
		return "WRITE_FAILED!"
	case EvtDormant:
		return "DORMANT"
	case EvtRejected:
		return "REJECTED"
	default:
		return "UNKNOWN"
	}
}

func (e Event) String() string {
	return e.Type.String() +
		" gpio=" + utoa(uint64(e.Pin)) +
		" remaining=" + countToString(e.Remaining) +
		" on=" + utoa(uint64(e.OnMS)) +
		" off=" + utoa(uint64(e.OffMS))
}
