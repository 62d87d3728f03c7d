package ops

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/pomo/internal/errors"
	"github.com/hpungsan/pomo/internal/history"
	"github.com/hpungsan/pomo/internal/timer"
)

// startAndLeave starts the timer, lets it tick and closes the runtime as if
// the process exited while running.
func startAndLeave(t *testing.T, env *testEnv, ticks int) {
	t.Helper()
	r := env.open()
	_, err := Start(context.Background(), r)
	require.NoError(t, err)
	env.tick(ticks)
	env.close()
}

func TestCatchup_AcrossProcesses(t *testing.T) {
	env := newTestEnv(t)
	startAndLeave(t, env, 7)

	env.clock.Add(30 * time.Second)
	r := env.open()

	view, err := Status(context.Background(), r)
	require.NoError(t, err)
	require.Equal(t, 1493, view.SecondsRemaining)
	require.False(t, view.IsRunning, "hydration never resumes")
	require.NotNil(t, view.Catchup)
	require.Equal(t, 30, view.Catchup.ElapsedSeconds)
	require.True(t, view.Catchup.Offered)

	out, err := Catchup(context.Background(), r, CatchupInput{})
	require.NoError(t, err)
	require.Equal(t, 30, out.ElapsedSeconds)
	require.Equal(t, 0, out.Transitions)
	require.Equal(t, 1463, out.Timer.SecondsRemaining)
	require.True(t, out.Timer.IsRunning)
	require.Nil(t, out.Timer.Catchup)

	_, err = Catchup(context.Background(), r, CatchupInput{})
	require.True(t, errors.Is(err, errors.ErrCatchupNotOffered))
}

func TestCatchup_ElapsedMeasuredAtApply(t *testing.T) {
	env := newTestEnv(t)
	startAndLeave(t, env, 0)

	env.clock.Add(20 * time.Second)
	r := env.open()
	require.Equal(t, 20, r.Offer().ElapsedSeconds)

	env.clock.Add(15 * time.Second)
	out, err := Catchup(context.Background(), r, CatchupInput{})
	require.NoError(t, err)
	require.Equal(t, 35, out.ElapsedSeconds)
	require.Equal(t, 1465, out.Timer.SecondsRemaining)
}

func TestCatchup_NotOffered(t *testing.T) {
	t.Run("paused record", func(t *testing.T) {
		env := newTestEnv(t)
		r := env.open()
		_, err := Start(context.Background(), r)
		require.NoError(t, err)
		_, err = Pause(context.Background(), r)
		require.NoError(t, err)
		env.close()

		env.clock.Add(time.Minute)
		r = env.open()
		require.Nil(t, r.Offer())
		_, err = Catchup(context.Background(), r, CatchupInput{Force: true})
		require.True(t, errors.Is(err, errors.ErrCatchupNotOffered))
	})

	t.Run("too short", func(t *testing.T) {
		env := newTestEnv(t)
		startAndLeave(t, env, 0)
		env.clock.Add(5 * time.Second)

		r := env.open()
		require.False(t, r.Offer().Offered)
		_, err := Catchup(context.Background(), r, CatchupInput{})
		require.True(t, errors.Is(err, errors.ErrCatchupNotOffered))
	})

	t.Run("too long unless forced", func(t *testing.T) {
		env := newTestEnv(t)
		startAndLeave(t, env, 0)
		env.clock.Add(time.Hour)

		r := env.open()
		offer := r.Offer()
		require.NotNil(t, offer)
		require.False(t, offer.Offered)
		require.Equal(t, 3600, offer.ElapsedSeconds)

		_, err := Catchup(context.Background(), r, CatchupInput{})
		require.True(t, errors.Is(err, errors.ErrCatchupNotOffered))

		out, err := Catchup(context.Background(), r, CatchupInput{Force: true})
		require.NoError(t, err)
		// study, short, study and short again use exactly 3600s.
		require.Equal(t, 4, out.Transitions)
		require.Equal(t, timer.PhaseStudy, out.Timer.Phase)
		require.Equal(t, 1500, out.Timer.SecondsRemaining)
		require.Equal(t, 2, out.Timer.CompletedStudyCount)
		require.True(t, out.Timer.IsRunning)
	})
}

func TestCatchup_ConfiguredBand(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.CatchupMaxSeconds = 7200
	startAndLeave(t, env, 0)
	env.clock.Add(time.Hour)

	r := env.open()
	require.True(t, r.Offer().Offered)
}

func TestCatchup_DeclinedByControl(t *testing.T) {
	env := newTestEnv(t)
	startAndLeave(t, env, 0)
	env.clock.Add(30 * time.Second)

	r := env.open()
	require.NotNil(t, r.Offer())

	view, err := Start(context.Background(), r)
	require.NoError(t, err)
	require.Nil(t, view.Catchup)
	require.Equal(t, 1500, view.SecondsRemaining)

	_, err = Catchup(context.Background(), r, CatchupInput{Force: true})
	require.True(t, errors.Is(err, errors.ErrCatchupNotOffered))
}

func TestCatchup_ReadOnlyKeepsRecord(t *testing.T) {
	env := newTestEnv(t)
	startAndLeave(t, env, 0)
	before := env.storedRecord()

	env.clock.Add(30 * time.Second)
	r := env.open()
	_, err := Status(context.Background(), r)
	require.NoError(t, err)
	env.close()

	require.Equal(t, before, env.storedRecord())

	env.clock.Add(30 * time.Second)
	r = env.open()
	require.Equal(t, 60, r.Offer().ElapsedSeconds)
}

func TestCatchup_RecordsHistory(t *testing.T) {
	env := newTestEnv(t)
	env.writeSettings("study_seconds: 20\nshort_break_seconds: 5\nlong_break_seconds: 10\nlong_break_interval: 2\n")
	startAndLeave(t, env, 0)

	// 20 study + 5 short + 20 study + 10 long + 3 into study.
	env.clock.Add(58 * time.Second)
	r := env.open()
	out, err := Catchup(context.Background(), r, CatchupInput{})
	require.NoError(t, err)
	require.Equal(t, 4, out.Transitions)
	require.Equal(t, map[string]int{"study": 2, "shortBreak": 1, "longBreak": 1}, out.Completed)
	require.Equal(t, timer.PhaseStudy, out.Timer.Phase)
	require.Equal(t, 17, out.Timer.SecondsRemaining)
	require.Equal(t, 2, out.Timer.CompletedStudyCount)

	hist, err := History(context.Background(), r, HistoryInput{})
	require.NoError(t, err)
	require.Len(t, hist.Items, 3)
	for _, e := range hist.Items {
		require.Equal(t, history.ViaCatchup, e.Via)
	}
}

func TestCatchup_HoldsOffOtherControls(t *testing.T) {
	env := newTestEnv(t)
	startAndLeave(t, env, 0)
	env.clock.Add(30 * time.Second)
	r := env.open()

	// A control that arrives mid catch-up waits for it to finish.
	r.ctl.Lock()
	started := make(chan struct{})
	go func() {
		_, _ = Start(context.Background(), r)
		close(started)
	}()
	select {
	case <-started:
		t.Fatal("Start ran while another control was in progress")
	case <-time.After(50 * time.Millisecond):
	}
	require.NotNil(t, r.Offer(), "offer survives until the control runs")
	r.ctl.Unlock()
	<-started
	require.Nil(t, r.Offer())
}

func TestCatchup_ConcurrentWithStart(t *testing.T) {
	for i := 0; i < 20; i++ {
		env := newTestEnv(t)
		startAndLeave(t, env, 7)
		env.clock.Add(30 * time.Second)
		r := env.open()

		var (
			out *CatchupOutput
			err error
		)
		done := make(chan struct{})
		go func() {
			out, err = Catchup(context.Background(), r, CatchupInput{})
			close(done)
		}()
		_, startErr := Start(context.Background(), r)
		require.NoError(t, startErr)
		<-done

		view := r.View()
		require.True(t, view.IsRunning)
		require.Nil(t, view.Catchup)
		if err != nil {
			require.True(t, errors.Is(err, errors.ErrCatchupNotOffered))
			require.Equal(t, 1493, view.SecondsRemaining, "declined offer leaves the hydrated time")
			continue
		}
		require.Equal(t, 1463, out.Timer.SecondsRemaining)
		require.Equal(t, 1463, view.SecondsRemaining)
	}
}
