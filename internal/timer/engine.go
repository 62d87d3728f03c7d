package timer

import (
	"errors"
	"sync"
	"time"
)

// ErrUnknownPhase is returned by SwitchTab for phases outside Phases.
var ErrUnknownPhase = errors.New("unknown phase")

// SyncSignal is the coarse run state reported to integration hooks.
type SyncSignal string

const (
	SyncRunningStudy SyncSignal = "running-study"
	SyncRunningBreak SyncSignal = "running-break"
	SyncPaused       SyncSignal = "paused"
)

// Option configures an Engine.
type Option func(*options)

type options struct {
	scheduler Scheduler
	interval  time.Duration
	record    *Record
	sync      func(SyncSignal)
}

// WithScheduler replaces the default ticker-backed scheduler.
func WithScheduler(scheduler Scheduler) Option {
	return func(o *options) {
		if scheduler != nil {
			o.scheduler = scheduler
		}
	}
}

// WithTickInterval sets the wall-clock length of one tick. Defaults to 1s.
func WithTickInterval(interval time.Duration) Option {
	return func(o *options) {
		if interval > 0 {
			o.interval = interval
		}
	}
}

// WithRecord seeds the engine from a hydrated record. A nil record or one with
// an unknown phase leaves the default fresh state.
func WithRecord(record *Record) Option {
	return func(o *options) {
		o.record = record
	}
}

// WithSyncCallback installs the initial sync callback.
func WithSyncCallback(callback func(SyncSignal)) Option {
	return func(o *options) {
		o.sync = callback
	}
}

// Engine is the phase-cycling countdown. All methods are safe for concurrent
// use; each one runs to completion under the engine lock and callbacks are
// invoked after the lock is released.
type Engine struct {
	mu        sync.Mutex
	durations Durations
	phase     Phase
	remaining int
	running   bool
	completed int

	scheduler  Scheduler
	interval   time.Duration
	cancelTick func()
	generation uint64
	closed     bool

	onComplete []func(Phase)
	onChange   []func(Snapshot)
	sync       func(SyncSignal)
}

// New creates a paused engine. With WithRecord the persisted phase, seconds
// and completion count are adopted, but the engine never resumes on its own.
func New(durations Durations, opts ...Option) *Engine {
	o := options{
		scheduler: RealScheduler{},
		interval:  time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}

	engine := &Engine{
		durations: durations.Normalize(),
		phase:     PhaseStudy,
		scheduler: o.scheduler,
		interval:  o.interval,
		sync:      o.sync,
	}
	engine.remaining = engine.durations.Of(PhaseStudy)

	if record := o.record; record != nil && record.Phase.Valid() {
		engine.phase = record.Phase
		engine.remaining = clamp(record.SecondsRemaining, 0, MaxTimerSeconds)
		if record.CompletedStudyCount > 0 {
			engine.completed = record.CompletedStudyCount
		}
	}
	return engine
}

// OnPhaseComplete registers a callback fired once per ticked phase
// transition with the phase that just ended. Manual switches, resets and
// catch-up do not fire it.
func (engine *Engine) OnPhaseComplete(callback func(Phase)) {
	if callback == nil {
		return
	}
	engine.mu.Lock()
	engine.onComplete = append(engine.onComplete, callback)
	engine.mu.Unlock()
}

// OnChange registers a callback fired whenever phase, seconds, running state
// or completion count changes.
func (engine *Engine) OnChange(callback func(Snapshot)) {
	if callback == nil {
		return
	}
	engine.mu.Lock()
	engine.onChange = append(engine.onChange, callback)
	engine.mu.Unlock()
}

// SetSyncCallback replaces the sync callback. Nil disables it.
func (engine *Engine) SetSyncCallback(callback func(SyncSignal)) {
	engine.mu.Lock()
	engine.sync = callback
	engine.mu.Unlock()
}

// Snapshot returns the current state.
func (engine *Engine) Snapshot() Snapshot {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.snapshotLocked()
}

// Durations returns the active duration table.
func (engine *Engine) Durations() Durations {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.durations
}

// Start resumes the countdown. Starting an empty phase completes it at once.
func (engine *Engine) Start() {
	engine.mu.Lock()
	if engine.running {
		engine.mu.Unlock()
		return
	}
	before := engine.snapshotLocked()
	var completed []Phase
	if engine.remaining == 0 {
		completed = append(completed, engine.advanceLocked())
	}
	engine.running = true
	engine.scheduleLocked()
	notice := engine.noticeLocked(before, completed)
	engine.mu.Unlock()

	notice.deliver()
}

// Pause stops the countdown. Pausing a paused engine changes nothing.
func (engine *Engine) Pause() {
	engine.mu.Lock()
	if !engine.running {
		engine.mu.Unlock()
		return
	}
	before := engine.snapshotLocked()
	engine.stopLocked()
	engine.running = false
	notice := engine.noticeLocked(before, nil)
	engine.mu.Unlock()

	notice.deliver()
}

// Reset pauses and refills the current phase.
func (engine *Engine) Reset() {
	engine.mu.Lock()
	before := engine.snapshotLocked()
	engine.stopLocked()
	engine.running = false
	engine.remaining = engine.durations.Of(engine.phase)
	notice := engine.noticeLocked(before, nil)
	engine.mu.Unlock()

	notice.deliver()
}

// SwitchTab pauses and moves to a full phase p.
func (engine *Engine) SwitchTab(phase Phase) error {
	if !phase.Valid() {
		return ErrUnknownPhase
	}
	engine.mu.Lock()
	before := engine.snapshotLocked()
	engine.stopLocked()
	engine.running = false
	engine.phase = phase
	engine.remaining = engine.durations.Of(phase)
	notice := engine.noticeLocked(before, nil)
	engine.mu.Unlock()

	notice.deliver()
	return nil
}

// SetSeconds pauses and sets the remaining time, clamped to
// [0, MaxTimerSeconds].
func (engine *Engine) SetSeconds(seconds int) {
	engine.mu.Lock()
	before := engine.snapshotLocked()
	engine.stopLocked()
	engine.running = false
	engine.remaining = clamp(seconds, 0, MaxTimerSeconds)
	notice := engine.noticeLocked(before, nil)
	engine.mu.Unlock()

	notice.deliver()
}

// Clear returns the engine to the fresh state: study, full, paused, no
// completions.
func (engine *Engine) Clear() {
	engine.mu.Lock()
	before := engine.snapshotLocked()
	engine.stopLocked()
	engine.running = false
	engine.phase = PhaseStudy
	engine.remaining = engine.durations.Of(PhaseStudy)
	engine.completed = 0
	notice := engine.noticeLocked(before, nil)
	engine.mu.Unlock()

	notice.deliver()
}

// ApplyCatchup fast-forwards the engine by elapsed seconds. The engine keeps
// running afterwards unless the simulation lands exactly on zero.
func (engine *Engine) ApplyCatchup(elapsed int) CatchupResult {
	if elapsed < 0 {
		elapsed = 0
	}
	engine.mu.Lock()
	before := engine.snapshotLocked()
	engine.stopLocked()

	result := Catchup(before, engine.durations, elapsed)
	engine.phase = result.Phase
	engine.remaining = result.SecondsRemaining
	engine.completed = result.CompletedStudyCount
	engine.running = result.Resumes
	if engine.running {
		engine.scheduleLocked()
	}
	notice := engine.noticeLocked(before, nil)
	engine.mu.Unlock()

	notice.deliver()
	return result
}

// SetDurations swaps the duration table. The remaining time is kept unless
// the active phase's length changed and the phase was at full, in which case
// it moves to the new full length.
func (engine *Engine) SetDurations(durations Durations) {
	durations = durations.Normalize()

	engine.mu.Lock()
	before := engine.snapshotLocked()
	oldFull := engine.durations.Of(engine.phase)
	newFull := durations.Of(engine.phase)
	engine.durations = durations
	if before.AtFull && oldFull != newFull {
		engine.remaining = newFull
	}
	if engine.running {
		engine.scheduleLocked()
	}
	notice := engine.noticeLocked(before, nil)
	engine.mu.Unlock()

	notice.deliver()
}

// Close stops the tick source without touching state, so the running flag
// survives into the final persisted record.
func (engine *Engine) Close() {
	engine.mu.Lock()
	engine.stopLocked()
	engine.closed = true
	engine.mu.Unlock()
}

func (engine *Engine) tick(generation uint64) {
	engine.mu.Lock()
	if generation != engine.generation || !engine.running {
		engine.mu.Unlock()
		return
	}
	before := engine.snapshotLocked()
	var completed []Phase
	if engine.remaining > 1 {
		engine.remaining--
	} else {
		completed = append(completed, engine.advanceLocked())
		engine.scheduleLocked()
	}
	notice := engine.noticeLocked(before, completed)
	engine.mu.Unlock()

	notice.deliver()
}

// advanceLocked ends the current phase and returns it.
func (engine *Engine) advanceLocked() Phase {
	ended := engine.phase
	if ended == PhaseStudy {
		engine.completed++
	}
	engine.phase = engine.durations.Next(ended, engine.completed)
	engine.remaining = engine.durations.Of(engine.phase)
	return ended
}

// scheduleLocked replaces any tick registration with a fresh one.
func (engine *Engine) scheduleLocked() {
	engine.stopLocked()
	if engine.closed {
		return
	}
	generation := engine.generation
	engine.cancelTick = engine.scheduler.Every(engine.interval, func() {
		engine.tick(generation)
	})
}

// stopLocked cancels the tick registration and invalidates any tick that is
// already waiting on the lock.
func (engine *Engine) stopLocked() {
	if engine.cancelTick != nil {
		engine.cancelTick()
		engine.cancelTick = nil
	}
	engine.generation++
}

func (engine *Engine) snapshotLocked() Snapshot {
	return Snapshot{
		Phase:               engine.phase,
		SecondsRemaining:    engine.remaining,
		IsRunning:           engine.running,
		CompletedStudyCount: engine.completed,
		AtFull:              engine.remaining == engine.durations.Of(engine.phase),
		IsDone:              engine.remaining == 0,
	}
}

func (engine *Engine) noticeLocked(before Snapshot, completed []Phase) notice {
	after := engine.snapshotLocked()
	n := notice{
		snapshot:  after,
		completed: completed,
		changed:   after != before,
	}
	if len(completed) > 0 {
		n.onComplete = append([]func(Phase){}, engine.onComplete...)
	}
	if n.changed {
		n.onChange = append([]func(Snapshot){}, engine.onChange...)
	}
	if after.Phase != before.Phase || after.IsRunning != before.IsRunning {
		n.sync = engine.sync
		n.signal = signalFor(after)
	}
	return n
}

func signalFor(snapshot Snapshot) SyncSignal {
	if !snapshot.IsRunning {
		return SyncPaused
	}
	if snapshot.Phase.IsBreak() {
		return SyncRunningBreak
	}
	return SyncRunningStudy
}

// notice carries the callbacks owed for one operation.
type notice struct {
	snapshot   Snapshot
	completed  []Phase
	changed    bool
	signal     SyncSignal
	sync       func(SyncSignal)
	onComplete []func(Phase)
	onChange   []func(Snapshot)
}

func (n notice) deliver() {
	for _, ended := range n.completed {
		for _, callback := range n.onComplete {
			callback(ended)
		}
	}
	if n.sync != nil {
		callSync(n.sync, n.signal)
	}
	for _, callback := range n.onChange {
		callback(n.snapshot)
	}
}

// callSync isolates the engine from a failing integration hook.
func callSync(callback func(SyncSignal), signal SyncSignal) {
	defer func() {
		_ = recover()
	}()
	callback(signal)
}
