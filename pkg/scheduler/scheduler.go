// Package scheduler provides the deferred-work primitives the retry loop runs on:
// Loop, a single goroutine that owns the UI tree, and Virtual, a deterministic
// fake with a manually advanced clock.
package scheduler

import (
	"context"
	"sync"
	"time"
)

// SystemClock reads time.Now, which carries a monotonic clock reading.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }

// Loop serializes all work onto one goroutine. Work posted with After is
// deferred with a timer and re-posted, so the loop is never blocked while
// waiting.
type Loop struct {
	queue chan func()
	done  chan struct{}

	mu      sync.Mutex
	timers  map[*time.Timer]struct{}
	stopped bool
}

// NewLoop creates a loop with the given queue capacity.
func NewLoop(capacity int) *Loop {
	if capacity <= 0 {
		capacity = 64
	}
	return &Loop{
		queue:  make(chan func(), capacity),
		done:   make(chan struct{}),
		timers: make(map[*time.Timer]struct{}),
	}
}

// Post enqueues fn to run on the loop goroutine.
// Work posted after Stop is dropped.
func (l *Loop) Post(fn func()) {
	select {
	case l.queue <- fn:
	case <-l.done:
	}
}

// After runs fn on the loop goroutine once d has elapsed.
func (l *Loop) After(d time.Duration, fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return
	}

	var t *time.Timer
	t = time.AfterFunc(d, func() {
		l.mu.Lock()
		delete(l.timers, t)
		l.mu.Unlock()
		l.Post(fn)
	})
	l.timers[t] = struct{}{}
}

// Run processes posted work until ctx is done or Stop is called.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			l.Stop()
			return ctx.Err()
		case <-l.done:
			return nil
		case fn := <-l.queue:
			fn()
		}
	}
}

// Stop cancels pending timers and ends Run. Safe to call multiple times.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return
	}
	l.stopped = true
	for t := range l.timers {
		t.Stop()
	}
	l.timers = make(map[*time.Timer]struct{})
	close(l.done)
}
