package persist

import (
	"context"
	"log"
	"time"

	"github.com/hpungsan/pomo/internal/timer"
)

// Band bounds the away durations (in seconds) that earn a catch-up offer.
type Band struct {
	Min int
	Max int
}

// DefaultBand offers catch-up for gaps between 10 seconds and 10 minutes.
func DefaultBand() Band {
	return Band{Min: 10, Max: 600}
}

// Hydrate reads the stored record once. It returns nil when nothing usable is
// stored; read errors and malformed data are logged, never returned.
func Hydrate(ctx context.Context, store Store, now time.Time) *timer.Record {
	raw, err := store.Load(ctx)
	if err != nil {
		log.Printf("persist: load failed, starting fresh: %v", err)
		return nil
	}
	if len(raw) == 0 {
		return nil
	}
	rec, ok := Decode(raw, now)
	if !ok {
		log.Printf("persist: ignoring malformed record")
		return nil
	}
	return &rec
}

// Away returns how many whole seconds passed since rec was saved and whether
// that gap should be offered for catch-up. Only records saved while running
// qualify.
func Away(rec *timer.Record, now time.Time, band Band) (elapsed int, offer bool) {
	if rec == nil {
		return 0, false
	}
	elapsedMs := now.UnixMilli() - rec.SavedAtMs
	if elapsedMs < 0 {
		elapsedMs = 0
	}
	elapsed = int(elapsedMs / 1000)
	offer = rec.IsRunning && elapsed >= band.Min && elapsed <= band.Max
	return elapsed, offer
}
