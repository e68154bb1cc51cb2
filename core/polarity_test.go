package core

import "testing"

func TestPhysicalLevel(t *testing.T) {
	tests := []struct {
		polarity Polarity
		on       bool
		want     bool
	}{
		{ActiveHigh, true, true},
		{ActiveHigh, false, false},
		{ActiveLow, true, false},
		{ActiveLow, false, true},
	}

	for _, tt := range tests {
		if got := PhysicalLevel(tt.on, tt.polarity); got != tt.want {
			t.Errorf("PhysicalLevel(%v, %s) = %v, want %v", tt.on, tt.polarity, got, tt.want)
		}
	}
}

func TestPolarityFallbacks(t *testing.T) {
	if got := PolarityFromInt(0); got != ActiveLow {
		t.Errorf("PolarityFromInt(0) = %s, want active-low", got)
	}
	if got := PolarityFromInt(1); got != ActiveHigh {
		t.Errorf("PolarityFromInt(1) = %s, want active-high", got)
	}
	if got := PolarityFromInt(42); got != ActiveHigh {
		t.Errorf("PolarityFromInt(42) = %s, want active-high fallback", got)
	}

	for _, name := range []string{"low", "active-low", "l"} {
		if got := ParsePolarity(name); got != ActiveLow {
			t.Errorf("ParsePolarity(%q) = %s, want active-low", name, got)
		}
	}
	for _, name := range []string{"high", "", "sideways"} {
		if got := ParsePolarity(name); got != ActiveHigh {
			t.Errorf("ParsePolarity(%q) = %s, want active-high", name, got)
		}
	}
}
