package timer

const (
	DefaultStudySeconds      = 1500
	DefaultShortBreakSeconds = 300
	DefaultLongBreakSeconds  = 900
	DefaultLongBreakInterval = 4

	// MaxTimerSeconds is the upper bound for manually entered time (9:59:59).
	MaxTimerSeconds = 35999
)

// Durations maps each phase to its configured length in seconds, plus the
// number of study completions between long breaks.
type Durations struct {
	Study             int `json:"study"`
	ShortBreak        int `json:"short_break"`
	LongBreak         int `json:"long_break"`
	LongBreakInterval int `json:"long_break_interval"`
}

// DefaultDurations returns 25/5/15 minutes with a long break every 4 studies.
func DefaultDurations() Durations {
	return Durations{
		Study:             DefaultStudySeconds,
		ShortBreak:        DefaultShortBreakSeconds,
		LongBreak:         DefaultLongBreakSeconds,
		LongBreakInterval: DefaultLongBreakInterval,
	}
}

// Of returns the configured length of p in seconds.
func (d Durations) Of(p Phase) int {
	switch p {
	case PhaseShortBreak:
		return d.ShortBreak
	case PhaseLongBreak:
		return d.LongBreak
	default:
		return d.Study
	}
}

// Next returns the phase that follows p. completedStudies is the completion
// count after p finished (already incremented when p is a study phase).
func (d Durations) Next(p Phase, completedStudies int) Phase {
	if p != PhaseStudy {
		return PhaseStudy
	}
	if completedStudies%d.LongBreakInterval == 0 {
		return PhaseLongBreak
	}
	return PhaseShortBreak
}

// Normalize replaces unset (non-positive) fields with defaults and caps every
// length at MaxTimerSeconds. Lengths are always at least one second so that
// catch-up consumes time on every phase.
func (d Durations) Normalize() Durations {
	defaults := DefaultDurations()
	d.Study = orDefault(d.Study, defaults.Study)
	d.ShortBreak = orDefault(d.ShortBreak, defaults.ShortBreak)
	d.LongBreak = orDefault(d.LongBreak, defaults.LongBreak)
	d.LongBreakInterval = orDefault(d.LongBreakInterval, defaults.LongBreakInterval)
	return d
}

func orDefault(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return clamp(value, 1, MaxTimerSeconds)
}

func clamp(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
