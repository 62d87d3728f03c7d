package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/hpungsan/pomo/internal/errors"
)

// GetState returns the stored record for a timer, or nil if none exists.
func GetState(ctx context.Context, db *sql.DB, name string) ([]byte, error) {
	var record string
	err := db.QueryRowContext(ctx, `SELECT record FROM timer_state WHERE name = ?`, name).Scan(&record)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return []byte(record), nil
}

// PutState replaces the stored record for a timer.
func PutState(ctx context.Context, db *sql.DB, name string, record []byte) error {
	query := `
		INSERT INTO timer_state (name, record, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			record = excluded.record,
			updated_at = excluded.updated_at
	`
	if _, err := db.ExecContext(ctx, query, name, string(record), time.Now().Unix()); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// DeleteState removes the stored record for a timer.
// Returns NOT_FOUND if the timer has no record.
func DeleteState(ctx context.Context, db *sql.DB, name string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM timer_state WHERE name = ?`, name)
	if err != nil {
		return errors.NewInternal(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound("timer " + name)
	}
	return nil
}

// TimerInfo describes one stored timer.
type TimerInfo struct {
	Name      string `json:"name"`
	UpdatedAt int64  `json:"updated_at"`
}

// ListTimers returns every stored timer, most recently written first.
func ListTimers(ctx context.Context, db *sql.DB) ([]TimerInfo, error) {
	rows, err := db.QueryContext(ctx, `SELECT name, updated_at FROM timer_state ORDER BY updated_at DESC, name ASC`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	timers := []TimerInfo{}
	for rows.Next() {
		var info TimerInfo
		if err := rows.Scan(&info.Name, &info.UpdatedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		timers = append(timers, info)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return timers, nil
}

// StateStore keeps one timer's record in the timer_state table.
type StateStore struct {
	DB   *sql.DB
	Name string
}

// Load returns the timer's record, or nil if none has been saved.
func (s StateStore) Load(ctx context.Context) ([]byte, error) {
	return GetState(ctx, s.DB, s.Name)
}

// Save replaces the timer's record.
func (s StateStore) Save(ctx context.Context, data []byte) error {
	return PutState(ctx, s.DB, s.Name, data)
}
