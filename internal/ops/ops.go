package ops

import (
	"github.com/hpungsan/pomo/internal/timer"
)

// Pagination limits
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
	maxReportEntries    = 1000
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// TimerView is the common output of every timer operation.
type TimerView struct {
	Timer               string          `json:"timer"`
	Phase               timer.Phase     `json:"phase"`
	PhaseLabel          string          `json:"phase_label"`
	SecondsRemaining    int             `json:"seconds_remaining"`
	Clock               string          `json:"clock"`
	IsRunning           bool            `json:"is_running"`
	CompletedStudyCount int             `json:"completed_study_count"`
	AtFull              bool            `json:"at_full"`
	IsDone              bool            `json:"is_done"`
	Durations           timer.Durations `json:"durations"`
	Catchup             *Offer          `json:"catchup,omitempty"`
}

// Offer describes a pending catch-up: the timer was running when it was last
// saved and the process has been away since.
type Offer struct {
	SavedAtMs      int64 `json:"saved_at_ms"`
	ElapsedSeconds int   `json:"elapsed_seconds"`
	// Offered is true when the gap falls inside the configured band. Outside
	// it, catch-up is only applied when forced.
	Offered bool `json:"offered"`
}

func newView(name string, snap timer.Snapshot, d timer.Durations, offer *Offer) *TimerView {
	return &TimerView{
		Timer:               name,
		Phase:               snap.Phase,
		PhaseLabel:          snap.Phase.Label(),
		SecondsRemaining:    snap.SecondsRemaining,
		Clock:               snap.Clock(),
		IsRunning:           snap.IsRunning,
		CompletedStudyCount: snap.CompletedStudyCount,
		AtFull:              snap.AtFull,
		IsDone:              snap.IsDone,
		Durations:           d,
		Catchup:             offer,
	}
}
