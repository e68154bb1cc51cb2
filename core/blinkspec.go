package core

import "math"

// Forever is the blink count that never runs out.
const Forever uint64 = math.MaxUint64

// blinkSpec holds the parameters shared between the caller and the blink
// task. It is always accessed with the owning Led's mutex held.
type blinkSpec struct {
	remaining  uint64
	onMS       uint32
	offMS      uint32
	generation uint64 // bumped whenever remaining is rewritten by the caller
}

// cycleParams is what the blink task reads once at the start of each cycle
type cycleParams struct {
	onMS       uint32
	offMS      uint32
	generation uint64
}

// setTimeRegime stores the on/off durations. An off time of zero mirrors the on time.
func (s *blinkSpec) setTimeRegime(onMS, offMS uint32) {
	if offMS == 0 {
		offMS = onMS
	}
	s.onMS = onMS
	s.offMS = offMS
}

// retarget replaces count and timing. A cycle already in flight will not
// consume the new count.
func (s *blinkSpec) retarget(count uint64, onMS, offMS uint32) {
	s.remaining = count
	s.generation++
	s.setTimeRegime(onMS, offMS)
}

func (s *blinkSpec) snapshot() cycleParams {
	return cycleParams{onMS: s.onMS, offMS: s.offMS, generation: s.generation}
}

// completeCycle counts down one finished cycle. The forever sentinel is left
// untouched and the count never drops below zero.
func (s *blinkSpec) completeCycle(p cycleParams) {
	if p.generation != s.generation {
		return
	}
	if s.remaining == Forever || s.remaining == 0 {
		return
	}
	s.remaining--
}
