package core

// Polarity selects which electrical level lights the LED.
type Polarity uint8

const (
	// ActiveHigh lights the LED when its line is driven HIGH.
	ActiveHigh Polarity = iota
	// ActiveLow lights the LED when its line is pulled LOW, e.g. an LED wired to VCC.
	ActiveLow
)

// PhysicalLevel maps a logical on/off intent to the level written to the line.
func PhysicalLevel(on bool, p Polarity) bool {
	if p == ActiveLow {
		return !on
	}
	return on
}

// PolarityFromInt converts a numeric setting. Anything other than 0 (low is
// active) or 1 (high is active) falls back to ActiveHigh.
func PolarityFromInt(v int) Polarity {
	if v == 0 {
		return ActiveLow
	}
	return ActiveHigh
}

// ParsePolarity accepts "high", "active-high", "low", "active-low" and their
// single letter forms. Unknown names fall back to ActiveHigh.
func ParsePolarity(s string) Polarity {
	switch s {
	case "low", "active-low", "active_low", "l", "0":
		return ActiveLow
	default:
		return ActiveHigh
	}
}

// String returns the name used by the console and config files
func (p Polarity) String() string {
	if p == ActiveLow {
		return "active-low"
	}
	return "active-high"
}
