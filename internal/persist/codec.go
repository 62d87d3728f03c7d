package persist

import (
	"encoding/json"
	"math"
	"time"

	"github.com/hpungsan/pomo/internal/timer"
)

// wireRecord is the stored JSON shape of a timer.Record.
type wireRecord struct {
	Tab              string `json:"tab"`
	Seconds          int    `json:"seconds"`
	Running          bool   `json:"running"`
	CompletedStudies int    `json:"completedStudies"`
	SavedAt          int64  `json:"savedAt"`
}

// Encode serializes rec to its stored JSON form.
func Encode(rec timer.Record) ([]byte, error) {
	return json.Marshal(wireRecord{
		Tab:              rec.Phase.Token(),
		Seconds:          rec.SecondsRemaining,
		Running:          rec.IsRunning,
		CompletedStudies: rec.CompletedStudyCount,
		SavedAt:          rec.SavedAtMs,
	})
}

const (
	// maxStudyCount caps completedStudies so the conversion cannot overflow.
	maxStudyCount = math.MaxInt32
	// maxSavedAtMs is the largest millisecond stamp a float64 holds exactly.
	// Larger or negative stamps count as missing.
	maxSavedAtMs = 1 << 53
)

// Decode validates and parses a stored record. It never fails loudly: any
// malformed input returns ok=false and the caller starts fresh.
//
// A record needs a known tab, a non-negative numeric seconds and a boolean
// running flag. Missing completedStudies counts as 0 and a missing or
// out-of-range savedAt as now. Unknown fields are ignored.
func Decode(raw []byte, now time.Time) (rec timer.Record, ok bool) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return timer.Record{}, false
	}

	tab, isString := fields["tab"].(string)
	if !isString {
		return timer.Record{}, false
	}
	phase, known := timer.PhaseFromToken(tab)
	if !known {
		return timer.Record{}, false
	}

	seconds, isNumber := fields["seconds"].(float64)
	if !isNumber || seconds < 0 || math.IsNaN(seconds) {
		return timer.Record{}, false
	}

	running, isBool := fields["running"].(bool)
	if !isBool {
		return timer.Record{}, false
	}

	rec = timer.Record{
		Phase:            phase,
		SecondsRemaining: int(math.Min(math.Floor(seconds), timer.MaxTimerSeconds)),
		IsRunning:        running,
		SavedAtMs:        now.UnixMilli(),
	}
	if studies, isNumber := fields["completedStudies"].(float64); isNumber && studies > 0 {
		rec.CompletedStudyCount = int(math.Min(math.Floor(studies), maxStudyCount))
	}
	if savedAt, isNumber := fields["savedAt"].(float64); isNumber && savedAt >= 0 && savedAt <= maxSavedAtMs {
		rec.SavedAtMs = int64(savedAt)
	}
	return rec, true
}
