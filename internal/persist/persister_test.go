package persist

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/pomo/internal/timer"
)

// fakeClock is a settable wall clock for savedAt stamps and throttling.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Add(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newEngine(rec *timer.Record) (*timer.Engine, *timer.ManualScheduler) {
	ticks := timer.NewManualScheduler()
	return timer.New(timer.DefaultDurations(), timer.WithScheduler(ticks), timer.WithRecord(rec)), ticks
}

func loadRecord(t *testing.T, store Store, now time.Time) timer.Record {
	t.Helper()
	rec := Hydrate(context.Background(), store, now)
	require.NotNil(t, rec)
	return *rec
}

func TestPersister_WritesEveryChange(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore(nil)
	engine, ticks := newEngine(nil)
	Attach(engine, store, Options{Now: clock.Now})

	engine.Start()
	ticks.Advance(3)
	require.Equal(t, 4, store.Saves())

	rec := loadRecord(t, store, clock.Now())
	require.Equal(t, 1497, rec.SecondsRemaining)
	require.True(t, rec.IsRunning)
	require.Equal(t, clock.Now().UnixMilli(), rec.SavedAtMs)
}

func TestPersister_NoWriteWithoutChange(t *testing.T) {
	store := NewMemoryStore(nil)
	engine, _ := newEngine(nil)
	Attach(engine, store, Options{})

	engine.Pause()
	engine.Reset()
	require.Equal(t, 0, store.Saves())
}

func TestPersister_Throttle(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore(nil)
	engine, ticks := newEngine(nil)
	p := Attach(engine, store, Options{MinInterval: time.Hour, Now: clock.Now})

	engine.Start()
	require.Equal(t, 1, store.Saves())

	ticks.Advance(5)
	require.Equal(t, 1, store.Saves(), "writes inside the interval are deferred")

	clock.Add(time.Hour)
	ticks.Advance(1)
	require.Equal(t, 2, store.Saves())
	require.Equal(t, 1494, loadRecord(t, store, clock.Now()).SecondsRemaining)

	// Forced flush ignores the throttle and reads the latest state.
	ticks.Advance(2)
	require.NoError(t, p.Flush(context.Background(), "test"))
	require.Equal(t, 3, store.Saves())
	require.Equal(t, 1492, loadRecord(t, store, clock.Now()).SecondsRemaining)
}

func TestPersister_TrailingWrite(t *testing.T) {
	store := NewMemoryStore(nil)
	engine, ticks := newEngine(nil)
	Attach(engine, store, Options{MinInterval: 20 * time.Millisecond})

	engine.Start()
	ticks.Advance(2)
	require.Equal(t, 1, store.Saves())

	require.Eventually(t, func() bool {
		return store.Saves() == 2
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, 1498, loadRecord(t, store, time.Now()).SecondsRemaining)
}

func TestPersister_FlushReadsCurrentState(t *testing.T) {
	store := NewMemoryStore(nil)
	engine, ticks := newEngine(nil)
	p := Attach(engine, store, Options{MinInterval: time.Hour})

	engine.Start()
	ticks.Advance(10)
	require.NoError(t, engine.SwitchTab(timer.PhaseLongBreak))
	engine.Start()
	ticks.Advance(4)

	require.NoError(t, p.Flush(context.Background(), "pagehide"))
	rec := loadRecord(t, store, time.Now())
	require.Equal(t, timer.PhaseLongBreak, rec.Phase)
	require.Equal(t, 896, rec.SecondsRemaining)
	require.True(t, rec.IsRunning)
}

func TestPersister_WriteFailureSwallowed(t *testing.T) {
	store := NewMemoryStore(nil)
	store.SaveErr = errors.New("quota exceeded")
	engine, ticks := newEngine(nil)

	var logged []string
	p := Attach(engine, store, Options{Logf: func(format string, args ...any) {
		logged = append(logged, format)
	}})

	require.NotPanics(t, func() {
		engine.Start()
		ticks.Advance(2)
	})
	snap := engine.Snapshot()
	require.True(t, snap.IsRunning)
	require.Equal(t, 1498, snap.SecondsRemaining)
	require.Equal(t, 3, p.Failures())
	require.Len(t, logged, 3)

	require.Error(t, p.Flush(context.Background(), "exit"))

	// Durability comes back once the store recovers.
	store.SaveErr = nil
	ticks.Advance(1)
	require.Equal(t, 1497, loadRecord(t, store, time.Now()).SecondsRemaining)
}

func TestHydrate(t *testing.T) {
	now := time.UnixMilli(1_700_000_030_000)

	t.Run("empty store", func(t *testing.T) {
		require.Nil(t, Hydrate(context.Background(), NewMemoryStore(nil), now))
	})

	t.Run("malformed value starts fresh", func(t *testing.T) {
		rec := Hydrate(context.Background(), NewMemoryStore([]byte("not-json")), now)
		require.Nil(t, rec)

		engine, _ := newEngine(rec)
		snap := engine.Snapshot()
		require.Equal(t, timer.PhaseStudy, snap.Phase)
		require.Equal(t, 1500, snap.SecondsRemaining)
		require.False(t, snap.IsRunning)
		require.Equal(t, 0, snap.CompletedStudyCount)
	})

	t.Run("catch-up scenario", func(t *testing.T) {
		store := NewMemoryStore([]byte(`{"tab":"study","seconds":1493,"running":true,"savedAt":1700000000000}`))
		rec := Hydrate(context.Background(), store, now)
		require.NotNil(t, rec)

		engine, _ := newEngine(rec)
		snap := engine.Snapshot()
		require.Equal(t, 1493, snap.SecondsRemaining)
		require.False(t, snap.IsRunning)

		elapsed, offer := Away(rec, now, DefaultBand())
		require.Equal(t, 30, elapsed)
		require.True(t, offer)

		engine.ApplyCatchup(elapsed)
		snap = engine.Snapshot()
		require.Equal(t, 1463, snap.SecondsRemaining)
		require.True(t, snap.IsRunning)
	})
}

func TestAway(t *testing.T) {
	saved := time.UnixMilli(1_700_000_000_000)
	band := DefaultBand()

	tests := []struct {
		name        string
		running     bool
		after       time.Duration
		wantElapsed int
		wantOffer   bool
	}{
		{name: "below band", running: true, after: 9999 * time.Millisecond, wantElapsed: 9},
		{name: "band minimum", running: true, after: 10 * time.Second, wantElapsed: 10, wantOffer: true},
		{name: "band maximum", running: true, after: 600*time.Second + 999*time.Millisecond, wantElapsed: 600, wantOffer: true},
		{name: "above band", running: true, after: 601 * time.Second, wantElapsed: 601},
		{name: "paused record", running: false, after: 30 * time.Second, wantElapsed: 30},
		{name: "clock moved backwards", running: true, after: -time.Minute, wantElapsed: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &timer.Record{Phase: timer.PhaseStudy, SecondsRemaining: 100, IsRunning: tt.running, SavedAtMs: saved.UnixMilli()}
			elapsed, offer := Away(rec, saved.Add(tt.after), band)
			require.Equal(t, tt.wantElapsed, elapsed)
			require.Equal(t, tt.wantOffer, offer)
		})
	}

	elapsed, offer := Away(nil, saved, band)
	require.Zero(t, elapsed)
	require.False(t, offer)
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	store := FileStore{Path: path}
	ctx := context.Background()

	data, err := store.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, data)

	engine, ticks := newEngine(nil)
	p := Attach(engine, store, Options{})
	engine.Start()
	ticks.Advance(1)
	engine.Close()
	require.NoError(t, p.Flush(ctx, "exit"))

	rec := Hydrate(ctx, store, time.Now())
	require.NotNil(t, rec)
	require.Equal(t, 1499, rec.SecondsRemaining)
	require.True(t, rec.IsRunning)
	require.NoFileExists(t, path+".tmp")
}
