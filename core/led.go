// LED control
// Models a single LED on a digital output line and hides whether the line
// must be driven HIGH or LOW to light it.
package core

import "sync"

// Board and timing defaults
const (
	BuiltinPin        GPIOPin = 2 // common on-board LED line; many boards differ
	DefaultFlashDelay         = 64
	DefaultFlashCount         = 1
	DefaultAsyncCount         = 13
	MaxFlash                  = 100 // synchronous flash counts are truncated to this
)

// LedConfig holds the construction parameters of an Led
type LedConfig struct {
	Name     string
	Pin      GPIOPin
	Polarity Polarity

	// Defaults for FlashDefault
	FlashCount uint32
	FlashOnMS  uint32
	FlashOffMS uint32

	// Defaults for AsyncFlashDefault
	AsyncCount uint64
	AsyncOnMS  uint32
	AsyncOffMS uint32
	Core       int

	// RejectWhileRunning selects the earlier async policy: a request made
	// while a blink task runs is refused instead of retargeting it.
	RejectWhileRunning bool

	StackSize uint32
	Priority  uint8
}

// DefaultLedConfig returns the configuration for an active-high LED on pin
func DefaultLedConfig(pin GPIOPin) LedConfig {
	return LedConfig{
		Name:       "led",
		Pin:        pin,
		Polarity:   ActiveHigh,
		FlashCount: DefaultFlashCount,
		FlashOnMS:  DefaultFlashDelay,
		FlashOffMS: DefaultFlashDelay,
		AsyncCount: DefaultAsyncCount,
		AsyncOnMS:  DefaultFlashDelay,
		AsyncOffMS: DefaultFlashDelay,
		Core:       DefaultCore(),
		StackSize:  DefaultTaskStackSize,
		Priority:   DefaultTaskPriority,
	}
}

// BuiltinLedConfig returns the configuration for an on-board LED wired to VCC,
// which lights when its line is pulled low.
func BuiltinLedConfig() LedConfig {
	cfg := DefaultLedConfig(BuiltinPin)
	cfg.Name = "builtin"
	cfg.Polarity = ActiveLow
	return cfg
}

// Led is one LED on one output line. All methods may be called from one
// caller goroutine while the Led's own blink task runs; the task never
// outlives Deactivate, ReconnectToPin or Close.
type Led struct {
	mu  sync.Mutex
	cfg LedConfig

	gpio GPIODriver
	rt   TaskRuntime

	pin       GPIOPin
	polarity  Polarity
	activated bool
	lit       bool

	spec    blinkSpec
	task    Task   // nil while idle
	retired Task   // a task that ended on its own and may still be unwinding
	taskSeq uint64 // identifies the current task to its own exit path
}

// NewLed creates an inactive Led. A nil driver or runtime falls back to the
// registered GPIO driver and DefaultRuntime.
func NewLed(gpio GPIODriver, rt TaskRuntime, cfg LedConfig) *Led {
	if gpio == nil {
		gpio = DefaultGPIO()
	}
	if rt == nil {
		rt = DefaultRuntime()
	}
	if cfg.StackSize == 0 {
		cfg.StackSize = DefaultTaskStackSize
	}
	if cfg.Priority == 0 {
		cfg.Priority = DefaultTaskPriority
	}
	return &Led{
		cfg:      cfg,
		gpio:     gpio,
		rt:       rt,
		pin:      cfg.Pin,
		polarity: cfg.Polarity,
	}
}

// Activate configures the line as an output and switches the LED off. It
// must be called before the LED can be switched.
func (l *Led) Activate() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.gpio == nil {
		return ErrNoDriver
	}
	if err := l.gpio.ConfigureOutput(l.pin); err != nil {
		return err
	}

	DebugPrintln("LED (" + utoa(uint64(l.pin)) + ") activated, lights up if gpio" +
		utoa(uint64(l.pin)) + " is " + btoa(l.polarity == ActiveHigh))
	l.activated = true
	l.writeLocked(false)
	RecordEvent(Event{Type: EvtActivate, Pin: l.pin})
	return nil
}

// Begin is an alias for Activate
func (l *Led) Begin() error {
	return l.Activate()
}

// Deactivate stops any blink task, switches the LED off and suppresses all
// further writes. Status changes such as polarity or reconnection remain allowed.
func (l *Led) Deactivate() {
	l.mu.Lock()
	wasActive := l.activated
	l.activated = false
	d := l.detachTaskLocked()
	l.mu.Unlock()

	l.joinTask(d)

	l.mu.Lock()
	defer l.mu.Unlock()
	if wasActive {
		l.writeLevelLocked(false)
		l.lit = false
	}
	DebugPrintln("LED (" + utoa(uint64(l.pin)) + ") disabled")
	RecordEvent(Event{Type: EvtDeactivate, Pin: l.pin})
}

// End is an alias for Deactivate
func (l *Led) End() {
	l.Deactivate()
}

// Close tears the Led down. No blink task runs once it returns.
func (l *Led) Close() error {
	l.Deactivate()
	return nil
}

// SetPolarity sets the switching logic. It takes effect on the next write.
func (l *Led) SetPolarity(p Polarity) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if p != ActiveLow {
		p = ActiveHigh
	}
	l.polarity = p
}

// SetActiveHigh sets the switching logic from a boolean: true means the LED
// lights when its line is HIGH.
func (l *Led) SetActiveHigh(high bool) {
	if high {
		l.SetPolarity(ActiveHigh)
	} else {
		l.SetPolarity(ActiveLow)
	}
}

// Polarity returns the switching logic
func (l *Led) Polarity() Polarity {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.polarity
}

// TurnOn lights the LED
func (l *Led) TurnOn() {
	l.SetLit(true)
}

// TurnOff switches the LED off
func (l *Led) TurnOff() {
	l.SetLit(false)
}

// SetLit switches the LED on or off. Without activation it does nothing.
func (l *Led) SetLit(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writeLocked(on)
}

// Toggle inverts the lit state
func (l *Led) Toggle() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writeLocked(!l.lit)
}

// IsOn reports whether the LED is lit
func (l *Led) IsOn() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lit
}

// IsActivated reports whether writes reach the line
func (l *Led) IsActivated() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.activated
}

// Pin returns the line controlling the LED
func (l *Led) Pin() GPIOPin {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pin
}

// Name returns the configured LED name
func (l *Led) Name() string {
	return l.cfg.Name
}

// ReconnectToPin moves the Led to another line. The Led is deactivated first,
// then comes back off and inactive; Activate must be called again. The old
// line keeps whatever level deactivation left on it.
func (l *Led) ReconnectToPin(pin GPIOPin, p Polarity) {
	l.Deactivate()

	l.mu.Lock()
	defer l.mu.Unlock()
	if p != ActiveLow {
		p = ActiveHigh
	}
	l.pin = pin
	l.polarity = p
	l.lit = false
	l.activated = false
}

// writeLocked tracks the lit state and drives the line when activated.
func (l *Led) writeLocked(on bool) {
	if !l.activated {
		return
	}
	l.lit = on
	l.writeLevelLocked(on)
}

func (l *Led) writeLevelLocked(on bool) {
	if l.gpio == nil {
		return
	}
	if err := l.gpio.SetPin(l.pin, PhysicalLevel(on, l.polarity)); err != nil {
		DebugPrintln("LED (" + utoa(uint64(l.pin)) + ") write failed: " + err.Error())
		RecordEvent(Event{Type: EvtWriteFailed, Pin: l.pin})
	}
}
