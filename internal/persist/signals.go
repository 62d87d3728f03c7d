package persist

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// FlushOnSignal flushes p every time the process receives SIGINT, SIGTERM or
// SIGHUP, then calls onSignal (may be nil). The returned stop function
// unregisters the handler.
func FlushOnSignal(p *Persister, onSignal func(os.Signal)) (stop func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	done := make(chan struct{})

	go flushOnSignals(p, sigCh, done, onSignal)

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(sigCh)
			close(done)
		})
	}
}

// flushOnSignals handles signals until done is closed.
func flushOnSignals(p *Persister, sigCh <-chan os.Signal, done <-chan struct{}, onSignal func(os.Signal)) {
	for {
		select {
		case sig := <-sigCh:
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if err := p.Flush(ctx, sig.String()); err != nil {
				log.Printf("persist: %v", err)
			}
			cancel()
			if onSignal != nil {
				onSignal(sig)
			}
		case <-done:
			return
		}
	}
}
