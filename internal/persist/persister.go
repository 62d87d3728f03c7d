package persist

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/hpungsan/pomo/internal/timer"
)

// Source is the engine surface the persister reads from.
type Source interface {
	Snapshot() timer.Snapshot
	OnChange(func(timer.Snapshot))
}

// Options tunes a Persister.
type Options struct {
	// MinInterval throttles change-driven writes. Zero writes every change.
	MinInterval time.Duration

	// Now overrides the wall clock used for savedAt stamps.
	Now func() time.Time

	// Logf receives swallowed write failures. Defaults to log.Printf.
	Logf func(format string, args ...any)
}

// Persister mirrors an engine into a Store. It only reads engine state; it
// never drives the engine.
type Persister struct {
	source      Source
	store       Store
	minInterval time.Duration
	now         func() time.Time
	logf        func(format string, args ...any)

	mu        sync.Mutex
	lastWrite time.Time
	pending   *time.Timer
	failures  int
}

// Attach subscribes a new Persister to the source's change notifications.
func Attach(source Source, store Store, opts Options) *Persister {
	p := &Persister{
		source:      source,
		store:       store,
		minInterval: opts.MinInterval,
		now:         opts.Now,
		logf:        opts.Logf,
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.logf == nil {
		p.logf = log.Printf
	}
	source.OnChange(p.observe)
	return p
}

// Flush writes the current engine state immediately, bypassing the throttle.
// It is the hook for shutdown paths where the process may be about to exit.
// The error is returned for callers that want it; the engine is unaffected.
func (p *Persister) Flush(ctx context.Context, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelPendingLocked()
	if err := p.writeLocked(ctx); err != nil {
		return fmt.Errorf("flush (%s): %w", reason, err)
	}
	return nil
}

// Failures returns how many writes have failed since Attach.
func (p *Persister) Failures() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failures
}

// observe handles a change notification. The snapshot argument is ignored
// in favor of the engine's state at write time.
func (p *Persister) observe(timer.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.minInterval <= 0 {
		_ = p.writeLocked(context.Background())
		return
	}

	wait := p.minInterval - p.now().Sub(p.lastWrite)
	if wait <= 0 {
		p.cancelPendingLocked()
		_ = p.writeLocked(context.Background())
		return
	}
	if p.pending == nil {
		p.pending = time.AfterFunc(wait, p.trailingWrite)
	}
}

func (p *Persister) trailingWrite() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending == nil {
		return
	}
	p.pending = nil
	_ = p.writeLocked(context.Background())
}

func (p *Persister) cancelPendingLocked() {
	if p.pending != nil {
		p.pending.Stop()
		p.pending = nil
	}
}

func (p *Persister) writeLocked(ctx context.Context) error {
	now := p.now()
	data, err := Encode(p.source.Snapshot().Record(now))
	if err == nil {
		err = p.store.Save(ctx, data)
	}
	if err != nil {
		p.failures++
		p.logf("persist: write failed: %v", err)
		return err
	}
	p.lastWrite = now
	return nil
}
