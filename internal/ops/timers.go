package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/pomo/internal/db"
	"github.com/hpungsan/pomo/internal/errors"
)

// TimersOutput lists every timer with a stored record.
type TimersOutput struct {
	Timers []db.TimerInfo `json:"timers"`
}

// Timers lists stored timers, most recently written first.
func Timers(ctx context.Context, database *sql.DB) (*TimersOutput, error) {
	timers, err := db.ListTimers(ctx, database)
	if err != nil {
		return nil, err
	}
	return &TimersOutput{Timers: timers}, nil
}

// RemoveTimerInput contains parameters for the RemoveTimer operation.
type RemoveTimerInput struct {
	Name string // required
}

// RemoveTimerOutput contains the result of the RemoveTimer operation.
type RemoveTimerOutput struct {
	Name           string `json:"name"`
	EntriesDeleted int64  `json:"entries_deleted"`
}

// RemoveTimer deletes a timer's stored record and its history. It must not be
// used on a timer that is open in this process.
func RemoveTimer(ctx context.Context, database *sql.DB, input RemoveTimerInput) (*RemoveTimerOutput, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.NewInvalidRequest("timer name is required")
	}
	if err := db.DeleteState(ctx, database, name); err != nil {
		return nil, err
	}
	n, err := db.DeleteEntries(ctx, database, name)
	if err != nil {
		return nil, err
	}
	return &RemoveTimerOutput{Name: name, EntriesDeleted: n}, nil
}
