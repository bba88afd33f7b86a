package learning

import (
	"encoding"
	"fmt"
)

// Phase is the learning stage of an item. It is derived from the item's
// counters and never stored.
type Phase int

const (
	PhaseNew       Phase = iota + 1 // Never reviewed.
	PhaseLearning                   // Reviewed, not yet graduated.
	PhaseGraduated                  // Two or more successes since the last lapse.
)

var phaseNames = [...]string{PhaseNew: "new", PhaseLearning: "learning", PhaseGraduated: "graduated"}

var (
	_ fmt.Stringer           = Phase(0)
	_ encoding.TextMarshaler = Phase(0)
)

func (p Phase) isValid() bool {
	return p >= PhaseNew && p <= PhaseGraduated
}

func (p Phase) String() string {
	if p.isValid() {
		return phaseNames[p]
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	if !p.isValid() {
		return nil, fmt.Errorf("learning: invalid phase: %d", int(p))
	}
	return []byte(phaseNames[p]), nil
}

// PhaseOf derives the phase of an item.
func PhaseOf(item Item) Phase {
	switch {
	case item.Schedule.TotalReviews == 0:
		return PhaseNew
	case item.Lapses.Graduated:
		return PhaseGraduated
	default:
		return PhaseLearning
	}
}
