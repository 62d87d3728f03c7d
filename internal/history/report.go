package history

import (
	"fmt"
	"strings"
	"time"

	"github.com/hpungsan/pomo/internal/timer"
)

// Summary totals a set of entries.
type Summary struct {
	Studies      int `json:"studies"`
	ShortBreaks  int `json:"short_breaks"`
	LongBreaks   int `json:"long_breaks"`
	FocusSeconds int `json:"focus_seconds"`
	BreakSeconds int `json:"break_seconds"`
	CaughtUp     int `json:"caught_up"`
}

// Summarize totals entries by phase.
func Summarize(entries []Entry) Summary {
	var s Summary
	for _, e := range entries {
		switch e.Phase {
		case timer.PhaseStudy:
			s.Studies += e.Count
			s.FocusSeconds += e.TotalSeconds()
		case timer.PhaseShortBreak:
			s.ShortBreaks += e.Count
			s.BreakSeconds += e.TotalSeconds()
		case timer.PhaseLongBreak:
			s.LongBreaks += e.Count
			s.BreakSeconds += e.TotalSeconds()
		}
		if e.Via == ViaCatchup {
			s.CaughtUp += e.Count
		}
	}
	return s
}

// StartOfDay returns local midnight for t.
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// Markdown renders a daily report: a headline, the current timer state and
// the completions of the day, newest first.
func Markdown(timerName string, day time.Time, snap timer.Snapshot, entries []Entry) string {
	s := Summarize(entries)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s: %s\n\n", timerName, day.Format("Monday, 2 January 2006"))

	fmt.Fprintf(&b, "## Now\n\n")
	state := "paused"
	if snap.IsRunning {
		state = "running"
	}
	fmt.Fprintf(&b, "%s, **%s** left (%s). Studies completed this cycle: %d.\n\n",
		snap.Phase.Label(), timer.FormatSeconds(snap.SecondsRemaining), state, snap.CompletedStudyCount)

	fmt.Fprintf(&b, "## Totals\n\n")
	fmt.Fprintf(&b, "- Study sessions: %d (%s focused)\n", s.Studies, FormatMinutes(s.FocusSeconds))
	fmt.Fprintf(&b, "- Short breaks: %d\n", s.ShortBreaks)
	fmt.Fprintf(&b, "- Long breaks: %d\n", s.LongBreaks)
	fmt.Fprintf(&b, "- Break time: %s\n", FormatMinutes(s.BreakSeconds))
	if s.CaughtUp > 0 {
		fmt.Fprintf(&b, "- Recovered after time away: %d\n", s.CaughtUp)
	}

	if len(entries) == 0 {
		b.WriteString("\n_Nothing completed yet today._\n")
		return b.String()
	}

	b.WriteString("\n## Log\n\n")
	b.WriteString("| Time | Phase | Count | Length | Via |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "| %s | %s | %d | %s | %s |\n",
			e.Completed().In(day.Location()).Format("15:04"),
			e.Phase.Label(), e.Count, timer.FormatSeconds(e.DurationSeconds), e.Via)
	}
	return b.String()
}

// FormatMinutes renders seconds as whole minutes ("25m", "1h05m").
func FormatMinutes(seconds int) string {
	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh%02dm", minutes/60, minutes%60)
}
