package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hpungsan/pomo/internal/errors"
	"github.com/hpungsan/pomo/internal/history"
	"github.com/hpungsan/pomo/internal/timer"
)

// InsertEntries stores completed phases in one transaction.
func InsertEntries(ctx context.Context, db *sql.DB, entries []history.Entry) error {
	_, err := insertEntries(ctx, db, entries, "INSERT")
	return err
}

// InsertEntriesSkipExisting stores entries whose id is not already present
// and returns how many were written.
func InsertEntriesSkipExisting(ctx context.Context, db *sql.DB, entries []history.Entry) (int, error) {
	return insertEntries(ctx, db, entries, "INSERT OR IGNORE")
}

func insertEntries(ctx context.Context, db *sql.DB, entries []history.Entry, verb string) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	for i, e := range entries {
		if err := e.Validate(); err != nil {
			return 0, errors.NewInvalidRequest(fmt.Sprintf("entries[%d]: %v", i, err))
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	defer func() { _ = tx.Rollback() }()

	query := verb + `
		INTO phase_log (id, timer, phase, count, duration_seconds, via, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	inserted := 0
	for _, e := range entries {
		result, err := tx.ExecContext(ctx, query,
			e.ID, e.Timer, string(e.Phase), e.Count, e.DurationSeconds, string(e.Via), e.CompletedAt,
		)
		if err != nil {
			return 0, errors.NewInternal(err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, errors.NewInternal(err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.NewInternal(err)
	}
	return inserted, nil
}

// ListFilters narrows a phase_log listing.
type ListFilters struct {
	// Since, when non-zero, keeps entries completed at or after this unix time.
	Since int64
	// Phase, when set, keeps only entries of that phase.
	Phase timer.Phase
}

// ListEntries returns a timer's entries, newest first, plus the total count
// matching the filters (ignoring limit and offset).
func ListEntries(ctx context.Context, db *sql.DB, timerName string, filters ListFilters, limit, offset int) ([]history.Entry, int, error) {
	where := "WHERE timer = ?"
	args := []any{timerName}
	if filters.Since > 0 {
		where += " AND completed_at >= ?"
		args = append(args, filters.Since)
	}
	if filters.Phase != "" {
		where += " AND phase = ?"
		args = append(args, string(filters.Phase))
	}

	var total int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM phase_log "+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	query := `
		SELECT id, timer, phase, count, duration_seconds, via, completed_at
		FROM phase_log ` + where + `
		ORDER BY completed_at DESC, id DESC
		LIMIT ? OFFSET ?
	`
	rows, err := db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	entries := []history.Entry{}
	for rows.Next() {
		var (
			e     history.Entry
			phase string
			via   string
		)
		if err := rows.Scan(&e.ID, &e.Timer, &phase, &e.Count, &e.DurationSeconds, &via, &e.CompletedAt); err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		e.Phase = timer.Phase(phase)
		e.Via = history.Via(via)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	return entries, total, nil
}

// DeleteEntries removes every entry for a timer and returns how many rows went.
func DeleteEntries(ctx context.Context, db *sql.DB, timerName string) (int64, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM phase_log WHERE timer = ?`, timerName)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// HasEntry reports whether an entry with id exists.
func HasEntry(ctx context.Context, db *sql.DB, id string) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx, `SELECT 1 FROM phase_log WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return true, nil
}
