// Package history describes completed phases and summarizes them.
package history

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/pomo/internal/timer"
)

// Via records how a completion was observed.
type Via string

const (
	// ViaTick is a completion seen by the running tick loop.
	ViaTick Via = "tick"
	// ViaCatchup is a completion reconstructed from an away gap.
	ViaCatchup Via = "catchup"
)

// Entry is one phase_log row. Count is 1 for ticked completions; a catch-up
// records one entry per phase kind with the number of completions it skipped.
type Entry struct {
	ID              string      `json:"id"`
	Timer           string      `json:"timer"`
	Phase           timer.Phase `json:"phase"`
	Count           int         `json:"count"`
	DurationSeconds int         `json:"duration_seconds"`
	Via             Via         `json:"via"`
	CompletedAt     int64       `json:"completed_at"`
}

// Completed returns when the phase ended.
func (e Entry) Completed() time.Time {
	return time.Unix(e.CompletedAt, 0)
}

// TotalSeconds is the time the entry accounts for.
func (e Entry) TotalSeconds() int {
	return e.Count * e.DurationSeconds
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewID returns a ULID for at. IDs minted in the same millisecond still sort
// in creation order.
func NewID(at time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(at), entropy).String()
}

// CopyID returns the id an entry gets when copied into timerName. It keeps
// the completion time and is stable for a given source id and timer, so
// copying the same entry twice collides instead of duplicating it.
func CopyID(sourceID, timerName string, at time.Time) string {
	sum := sha256.Sum256([]byte(sourceID + "\x00" + timerName))
	return ulid.MustNew(ulid.Timestamp(at), bytes.NewReader(sum[:])).String()
}

// FromTick builds the entry for one ticked completion of phase.
func FromTick(timerName string, phase timer.Phase, d timer.Durations, at time.Time) Entry {
	return Entry{
		ID:              NewID(at),
		Timer:           timerName,
		Phase:           phase,
		Count:           1,
		DurationSeconds: d.Of(phase),
		Via:             ViaTick,
		CompletedAt:     at.Unix(),
	}
}

// FromCatchup builds one entry per phase kind crossed by a catch-up, in the
// fixed order study, short break, long break.
func FromCatchup(timerName string, result timer.CatchupResult, d timer.Durations, at time.Time) []Entry {
	var entries []Entry
	for _, phase := range timer.Phases {
		count := result.Completed[phase]
		if count <= 0 {
			continue
		}
		entries = append(entries, Entry{
			ID:              NewID(at),
			Timer:           timerName,
			Phase:           phase,
			Count:           count,
			DurationSeconds: d.Of(phase),
			Via:             ViaCatchup,
			CompletedAt:     at.Unix(),
		})
	}
	return entries
}

// Validate checks an entry before it is stored.
func (e Entry) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("entry id is required")
	}
	if e.Timer == "" {
		return fmt.Errorf("entry timer is required")
	}
	if !e.Phase.Valid() {
		return fmt.Errorf("entry phase %q is unknown", e.Phase)
	}
	if e.Count < 1 {
		return fmt.Errorf("entry count must be positive")
	}
	return nil
}
