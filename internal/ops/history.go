package ops

import (
	"context"
	"strings"
	"time"

	"github.com/hpungsan/pomo/internal/db"
	"github.com/hpungsan/pomo/internal/errors"
	"github.com/hpungsan/pomo/internal/history"
	"github.com/hpungsan/pomo/internal/timer"
)

// HistoryInput contains parameters for the History operation.
type HistoryInput struct {
	Phase  string // optional filter
	Today  bool   // only entries since local midnight
	Limit  int    // default: config history_limit, max: 500
	Offset int    // default: 0
}

// HistoryOutput contains the result of the History operation.
type HistoryOutput struct {
	Timer      string          `json:"timer"`
	Items      []history.Entry `json:"items"`
	Pagination Pagination      `json:"pagination"`
	Sort       string          `json:"sort"`
}

// History lists completed phases, newest first.
func History(ctx context.Context, r *Runtime, input HistoryInput) (*HistoryOutput, error) {
	var filters db.ListFilters
	if p := strings.TrimSpace(input.Phase); p != "" {
		phase, ok := timer.ParsePhase(p)
		if !ok {
			return nil, errors.NewInvalidPhase(input.Phase)
		}
		filters.Phase = phase
	}
	if input.Today {
		filters.Since = history.StartOfDay(r.now()).Unix()
	}

	limit := input.Limit
	if limit <= 0 {
		limit = r.Config.HistoryLimit
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	offset := max(input.Offset, 0)

	items, total, err := db.ListEntries(ctx, r.DB, r.Name, filters, limit, offset)
	if err != nil {
		return nil, err
	}

	return &HistoryOutput{
		Timer: r.Name,
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(items) < total,
			Total:   total,
		},
		Sort: "completed_at_desc",
	}, nil
}

// ReportOutput contains the result of the Report operation.
type ReportOutput struct {
	Timer    string          `json:"timer"`
	Day      string          `json:"day"`
	Summary  history.Summary `json:"summary"`
	Markdown string          `json:"markdown"`
}

// Report summarizes today's completions as markdown.
func Report(ctx context.Context, r *Runtime) (*ReportOutput, error) {
	day := history.StartOfDay(r.now())
	entries, _, err := db.ListEntries(ctx, r.DB, r.Name, db.ListFilters{Since: day.Unix()}, maxReportEntries, 0)
	if err != nil {
		return nil, err
	}

	return &ReportOutput{
		Timer:    r.Name,
		Day:      day.Format(time.DateOnly),
		Summary:  history.Summarize(entries),
		Markdown: history.Markdown(r.Name, day, r.Engine.Snapshot(), entries),
	}, nil
}

// ForgetInput contains parameters for the Forget operation.
type ForgetInput struct {
	History bool // also delete the timer's phase log
}

// ForgetOutput contains the result of the Forget operation.
type ForgetOutput struct {
	Timer          *TimerView `json:"timer"`
	EntriesDeleted int64      `json:"entries_deleted"`
}

// Forget returns the timer to a fresh cycle and optionally wipes its history.
func Forget(ctx context.Context, r *Runtime, input ForgetInput) (*ForgetOutput, error) {
	r.control(r.Engine.Clear)

	out := &ForgetOutput{}
	if input.History {
		n, err := db.DeleteEntries(ctx, r.DB, r.Name)
		if err != nil {
			return nil, err
		}
		out.EntriesDeleted = n
	}
	if err := r.Flush(ctx, "forget"); err != nil {
		return nil, errors.NewInternal(err)
	}
	out.Timer = r.View()
	return out, nil
}
