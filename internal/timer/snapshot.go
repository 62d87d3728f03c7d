package timer

import (
	"fmt"
	"time"
)

// Snapshot is the engine state at an instant.
type Snapshot struct {
	Phase               Phase `json:"phase"`
	SecondsRemaining    int   `json:"seconds_remaining"`
	IsRunning           bool  `json:"is_running"`
	CompletedStudyCount int   `json:"completed_study_count"`

	// AtFull is true when the phase has not been started since the last
	// reset or switch.
	AtFull bool `json:"at_full"`
	IsDone bool `json:"is_done"`
}

// Record returns the durable form of s stamped with at.
func (s Snapshot) Record(at time.Time) Record {
	return Record{
		Phase:               s.Phase,
		SecondsRemaining:    s.SecondsRemaining,
		IsRunning:           s.IsRunning,
		CompletedStudyCount: s.CompletedStudyCount,
		SavedAtMs:           at.UnixMilli(),
	}
}

// Clock formats the remaining time as mm:ss, or h:mm:ss past an hour.
func (s Snapshot) Clock() string {
	return FormatSeconds(s.SecondsRemaining)
}

// Record is a persisted snapshot plus the wall-clock time it was written.
type Record struct {
	Phase               Phase
	SecondsRemaining    int
	IsRunning           bool
	CompletedStudyCount int
	SavedAtMs           int64
}

// SavedAt returns SavedAtMs as a time.Time.
func (r Record) SavedAt() time.Time {
	return time.UnixMilli(r.SavedAtMs)
}

// FormatSeconds renders seconds as mm:ss or h:mm:ss.
func FormatSeconds(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}
