package timer

import (
	"sort"
	"sync"
	"time"
)

// Scheduler registers a periodic callback and returns a function that stops
// it. Cancel functions must be safe to call more than once.
type Scheduler interface {
	Every(interval time.Duration, fn func()) (cancel func())
}

// RealScheduler drives callbacks from a time.Ticker on its own goroutine.
type RealScheduler struct{}

// Every starts a ticker goroutine that calls fn once per interval.
func (RealScheduler) Every(interval time.Duration, fn func()) func() {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	stopCh := make(chan struct{})
	var once sync.Once

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				select {
				case <-stopCh:
					return
				default:
				}
				fn()
			}
		}
	}()

	return func() {
		once.Do(func() { close(stopCh) })
	}
}

// ManualScheduler fires callbacks only when Advance is called. It is used by
// tests and by anything that wants to step the clock deterministically.
type ManualScheduler struct {
	mu      sync.Mutex
	nextID  int
	entries map[int]func()
}

// NewManualScheduler returns an empty ManualScheduler.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{entries: make(map[int]func())}
}

// Every registers fn; the interval is ignored since Advance counts ticks.
func (s *ManualScheduler) Every(_ time.Duration, fn func()) func() {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.entries[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.entries, id)
		s.mu.Unlock()
	}
}

// Advance fires every active registration n times, one round per tick.
// Registrations added during a round first fire on the next round.
func (s *ManualScheduler) Advance(n int) {
	for i := 0; i < n; i++ {
		s.fire()
	}
}

// Active returns the number of live registrations.
func (s *ManualScheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *ManualScheduler) fire() {
	s.mu.Lock()
	ids := make([]int, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	sort.Ints(ids)

	for _, id := range ids {
		s.mu.Lock()
		fn, ok := s.entries[id]
		s.mu.Unlock()
		if ok {
			fn()
		}
	}
}
