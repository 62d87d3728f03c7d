package timer

// CatchupResult is where an unattended timer would be after running for a
// number of seconds.
type CatchupResult struct {
	Phase               Phase `json:"phase"`
	SecondsRemaining    int   `json:"seconds_remaining"`
	CompletedStudyCount int   `json:"completed_study_count"`

	// Completed counts the phases that ended during the simulated run.
	Completed map[Phase]int `json:"completed,omitempty"`

	// Resumes is false when the run lands exactly on zero; the timer is then
	// left paused instead of running from an empty phase.
	Resumes bool `json:"resumes"`
}

// Transitions returns the total number of phase completions in r.
func (r CatchupResult) Transitions() int {
	total := 0
	for _, n := range r.Completed {
		total += n
	}
	return total
}

// Catchup advances snap by elapsed seconds as if the clock had kept ticking.
// It does not depend on snap.IsRunning; callers decide whether to apply it.
func Catchup(snap Snapshot, d Durations, elapsed int) CatchupResult {
	d = d.Normalize()

	phase := snap.Phase
	if !phase.Valid() {
		phase = PhaseStudy
	}
	remaining := snap.SecondsRemaining
	if remaining < 0 {
		remaining = 0
	}
	studies := snap.CompletedStudyCount
	completed := make(map[Phase]int)

	for elapsed > 0 {
		if elapsed < remaining {
			remaining -= elapsed
			elapsed = 0
			break
		}
		elapsed -= remaining
		completed[phase]++
		if phase == PhaseStudy {
			studies++
		}
		phase = d.Next(phase, studies)
		remaining = d.Of(phase)
	}

	if len(completed) == 0 {
		completed = nil
	}
	return CatchupResult{
		Phase:               phase,
		SecondsRemaining:    remaining,
		CompletedStudyCount: studies,
		Completed:           completed,
		Resumes:             remaining > 0,
	}
}
