package ops

import (
	"context"
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/hpungsan/pomo/internal/config"
	"github.com/hpungsan/pomo/internal/db"
	"github.com/hpungsan/pomo/internal/errors"
	"github.com/hpungsan/pomo/internal/history"
	"github.com/hpungsan/pomo/internal/persist"
	"github.com/hpungsan/pomo/internal/settings"
	"github.com/hpungsan/pomo/internal/timer"
)

// Options customizes Open. The zero value runs a real-time timer persisted in
// the timer_state table.
type Options struct {
	// BaseDir holds settings.yaml. Empty means default durations.
	BaseDir string

	// Store overrides where the timer record lives (e.g. a state file).
	Store persist.Store

	// Scheduler overrides the tick source. Tests use timer.ManualScheduler.
	Scheduler timer.Scheduler

	// Now overrides the wall clock.
	Now func() time.Time
}

// Runtime is one hydrated timer plus everything mirrored from it: the
// persisted record, the phase history and the settings file.
type Runtime struct {
	Name   string
	DB     *sql.DB
	Config *config.Config
	Engine *timer.Engine

	baseDir   string
	persister *persist.Persister
	record    *timer.Record
	now       func() time.Time

	// ctl serializes controls, so a catch-up is applied to the state its
	// offer was checked against.
	ctl sync.Mutex

	mu    sync.Mutex
	offer bool
	dirty bool
}

// Open hydrates the configured timer. The engine always comes up paused; if
// the stored record was running, the away gap is exposed as a catch-up offer
// until the caller applies or declines it.
func Open(ctx context.Context, database *sql.DB, cfg *config.Config, opts Options) (*Runtime, error) {
	if database == nil {
		return nil, errors.NewInvalidRequest("database is required")
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	durations := timer.DefaultDurations()
	if opts.BaseDir != "" {
		loaded, err := settings.Load(opts.BaseDir)
		if err != nil {
			log.Printf("settings: %v (using defaults)", err)
		}
		durations = loaded
	}

	r := &Runtime{
		Name:    cfg.TimerName,
		DB:      database,
		Config:  cfg,
		baseDir: opts.BaseDir,
		now:     now,
	}
	if r.Name == "" {
		r.Name = "default"
	}

	store := opts.Store
	if store == nil {
		store = db.StateStore{DB: database, Name: r.Name}
	}

	r.record = persist.Hydrate(ctx, store, now())
	r.offer = r.record != nil && r.record.IsRunning

	engineOpts := []timer.Option{timer.WithRecord(r.record)}
	if opts.Scheduler != nil {
		engineOpts = append(engineOpts, timer.WithScheduler(opts.Scheduler))
	}
	r.Engine = timer.New(durations, engineOpts...)
	r.Engine.OnPhaseComplete(r.recordCompletion)
	r.Engine.OnChange(func(timer.Snapshot) { r.touch() })

	r.persister = persist.Attach(r.Engine, store, persist.Options{
		MinInterval: cfg.WriteInterval(),
		Now:         now,
	})
	return r, nil
}

// Persister exposes the persistence hook for signal handlers.
func (r *Runtime) Persister() *persist.Persister {
	return r.persister
}

// Band returns the configured catch-up band.
func (r *Runtime) Band() persist.Band {
	band := persist.DefaultBand()
	if r.Config.CatchupMinSeconds > 0 {
		band.Min = r.Config.CatchupMinSeconds
	}
	if r.Config.CatchupMaxSeconds > 0 {
		band.Max = r.Config.CatchupMaxSeconds
	}
	return band
}

// Offer returns the pending catch-up, or nil once it has been applied or
// declined. Elapsed time is measured against the current clock.
func (r *Runtime) Offer() *Offer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.offerLocked()
}

func (r *Runtime) offerLocked() *Offer {
	if !r.offer {
		return nil
	}
	elapsed, offered := persist.Away(r.record, r.now(), r.Band())
	return &Offer{
		SavedAtMs:      r.record.SavedAtMs,
		ElapsedSeconds: elapsed,
		Offered:        offered,
	}
}

// decline drops a pending offer. Any explicit control counts as declining.
func (r *Runtime) decline() {
	r.mu.Lock()
	r.offer = false
	r.dirty = true
	r.mu.Unlock()
}

// control declines any pending offer and runs fn with other controls held off.
func (r *Runtime) control(fn func()) {
	r.ctl.Lock()
	defer r.ctl.Unlock()
	r.decline()
	fn()
}

func (r *Runtime) touch() {
	r.mu.Lock()
	r.dirty = true
	r.mu.Unlock()
}

// View returns the current timer view.
func (r *Runtime) View() *TimerView {
	return newView(r.Name, r.Engine.Snapshot(), r.Engine.Durations(), r.Offer())
}

// Flush forces a write of the current state.
func (r *Runtime) Flush(ctx context.Context, reason string) error {
	return r.persister.Flush(ctx, reason)
}

// Close stops ticking and, if anything changed since Open, writes the final
// state. The running flag is kept so the next process can offer catch-up.
// Read-only sessions leave the stored record untouched.
func (r *Runtime) Close(ctx context.Context) error {
	r.Engine.Close()

	r.mu.Lock()
	dirty := r.dirty
	r.mu.Unlock()
	if !dirty {
		return nil
	}
	return r.persister.Flush(ctx, "exit")
}

// recordCompletion appends a ticked completion to the phase log. Failures are
// logged; history never blocks the timer.
func (r *Runtime) recordCompletion(phase timer.Phase) {
	entry := history.FromTick(r.Name, phase, r.Engine.Durations(), r.now())
	if err := db.InsertEntries(context.Background(), r.DB, []history.Entry{entry}); err != nil {
		log.Printf("history: record %s completion: %v", phase, err)
	}
}
