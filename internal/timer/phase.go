package timer

import "strings"

// Phase identifies the countdown mode the timer is in.
type Phase string

const (
	PhaseStudy      Phase = "study"
	PhaseShortBreak Phase = "shortBreak"
	PhaseLongBreak  Phase = "longBreak"
)

// Phases lists every phase in tab order.
var Phases = []Phase{PhaseStudy, PhaseShortBreak, PhaseLongBreak}

// Valid reports whether p is one of the known phases.
func (p Phase) Valid() bool {
	switch p {
	case PhaseStudy, PhaseShortBreak, PhaseLongBreak:
		return true
	}
	return false
}

// IsBreak reports whether p is a short or long break.
func (p Phase) IsBreak() bool {
	return p == PhaseShortBreak || p == PhaseLongBreak
}

// Token returns the storage identifier for p ("study", "short" or "long").
func (p Phase) Token() string {
	switch p {
	case PhaseShortBreak:
		return "short"
	case PhaseLongBreak:
		return "long"
	default:
		return "study"
	}
}

// Label returns a human-readable name.
func (p Phase) Label() string {
	switch p {
	case PhaseShortBreak:
		return "Short break"
	case PhaseLongBreak:
		return "Long break"
	default:
		return "Study"
	}
}

// PhaseFromToken maps a storage identifier back to a Phase.
// Only the exact tokens produced by Token are accepted.
func PhaseFromToken(token string) (Phase, bool) {
	switch token {
	case "study":
		return PhaseStudy, true
	case "short":
		return PhaseShortBreak, true
	case "long":
		return PhaseLongBreak, true
	}
	return "", false
}

// ParsePhase accepts user input such as "study", "short", "short_break",
// "shortBreak" or "long-break" (case-insensitive).
func ParsePhase(input string) (Phase, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	normalized = strings.NewReplacer("_", "", "-", "", " ", "").Replace(normalized)
	switch normalized {
	case "study", "focus", "work":
		return PhaseStudy, true
	case "short", "shortbreak":
		return PhaseShortBreak, true
	case "long", "longbreak":
		return PhaseLongBreak, true
	}
	return "", false
}
