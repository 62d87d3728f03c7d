package ops

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/pomo/internal/config"
	"github.com/hpungsan/pomo/internal/db"
	"github.com/hpungsan/pomo/internal/timer"
)

// testClock is a settable wall clock shared by successive runtimes.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Add(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// testEnv is a database and settings directory that outlives any one runtime,
// so tests can close a runtime and open the next one like a new process.
type testEnv struct {
	t       *testing.T
	dir     string
	db      *sql.DB
	cfg     *config.Config
	clock   *testClock
	ticks   *timer.ManualScheduler
	runtime *Runtime
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	database, err := db.Init(dir)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	return &testEnv{
		t:     t,
		dir:   dir,
		db:    database,
		cfg:   config.DefaultConfig(),
		clock: &testClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)},
	}
}

// writeSettings writes settings.yaml before the next open.
func (e *testEnv) writeSettings(body string) {
	e.t.Helper()
	require.NoError(e.t, os.WriteFile(filepath.Join(e.dir, "settings.yaml"), []byte(body), 0o600))
}

// open starts a new runtime, closing the previous one first.
func (e *testEnv) open() *Runtime {
	e.t.Helper()
	e.close()
	e.ticks = timer.NewManualScheduler()
	r, err := Open(context.Background(), e.db, e.cfg, Options{
		BaseDir:   e.dir,
		Scheduler: e.ticks,
		Now:       e.clock.Now,
	})
	require.NoError(e.t, err)
	e.runtime = r
	e.t.Cleanup(func() { _ = r.Close(context.Background()) })
	return r
}

func (e *testEnv) close() {
	if e.runtime != nil {
		require.NoError(e.t, e.runtime.Close(context.Background()))
		e.runtime = nil
	}
}

// tick advances the manual scheduler and the wall clock together.
func (e *testEnv) tick(n int) {
	for i := 0; i < n; i++ {
		e.clock.Add(time.Second)
		e.ticks.Advance(1)
	}
}

func (e *testEnv) storedRecord() []byte {
	e.t.Helper()
	raw, err := db.GetState(context.Background(), e.db, e.cfg.TimerName)
	require.NoError(e.t, err)
	return raw
}

func intPtr(v int) *int { return &v }
