// Package preview debounces patch edits into serialized YAML previews.
package preview

import (
	"sync"
	"time"
)

// Timer holds at most one pending callback. Scheduling again cancels the
// previous callback and restarts the delay. A callback that was superseded
// never runs, even if its runtime timer already fired.
type Timer struct {
	mu         sync.Mutex
	clock      Clock
	pending    Stopper
	generation uint64
}

// NewTimer returns a timer on clock. A nil clock means the real clock.
func NewTimer(clock Clock) *Timer {
	if clock == nil {
		clock = RealClock()
	}
	return &Timer{clock: clock}
}

// Schedule runs fn after delay unless Schedule or Cancel is called first.
func (t *Timer) Schedule(fn func(), delay time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	generation := t.generation
	t.pending = t.clock.AfterFunc(delay, func() {
		t.mu.Lock()
		if t.generation != generation {
			t.mu.Unlock()
			return
		}
		t.pending = nil
		t.mu.Unlock()
		fn()
	})
}

// Cancel drops the pending callback, if any.
func (t *Timer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

// Pending reports whether a callback is waiting to run.
func (t *Timer) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending != nil
}

func (t *Timer) stopLocked() {
	t.generation++
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
}
