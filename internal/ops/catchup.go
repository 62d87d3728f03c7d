package ops

import (
	"context"
	"log"

	"github.com/hpungsan/pomo/internal/db"
	"github.com/hpungsan/pomo/internal/errors"
	"github.com/hpungsan/pomo/internal/history"
)

// CatchupInput contains parameters for the Catchup operation.
type CatchupInput struct {
	// Force applies the gap even when it falls outside the configured band.
	Force bool
}

// CatchupOutput contains the result of the Catchup operation.
type CatchupOutput struct {
	Timer          *TimerView     `json:"timer"`
	ElapsedSeconds int            `json:"elapsed_seconds"`
	Transitions    int            `json:"transitions"`
	Completed      map[string]int `json:"completed"`
}

// Catchup fast-forwards the timer by the time since the record was saved.
// The gap is measured when the offer is accepted, not when it was made.
// Phases crossed are written to history in bulk.
func Catchup(ctx context.Context, r *Runtime, input CatchupInput) (*CatchupOutput, error) {
	r.ctl.Lock()
	defer r.ctl.Unlock()

	r.mu.Lock()
	offer := r.offerLocked()
	if offer == nil {
		r.mu.Unlock()
		return nil, errors.NewCatchupNotOffered("timer was not running when last saved", 0)
	}
	if !offer.Offered && !input.Force {
		r.mu.Unlock()
		return nil, errors.NewCatchupNotOffered("time away is outside the catch-up window", offer.ElapsedSeconds)
	}
	r.offer = false
	r.dirty = true
	r.mu.Unlock()

	result := r.Engine.ApplyCatchup(offer.ElapsedSeconds)

	entries := history.FromCatchup(r.Name, result, r.Engine.Durations(), r.now())
	if err := db.InsertEntries(ctx, r.DB, entries); err != nil {
		log.Printf("history: record catch-up: %v", err)
	}

	completed := map[string]int{}
	for phase, count := range result.Completed {
		completed[string(phase)] = count
	}
	return &CatchupOutput{
		Timer:          r.View(),
		ElapsedSeconds: offer.ElapsedSeconds,
		Transitions:    result.Transitions(),
		Completed:      completed,
	}, nil
}
