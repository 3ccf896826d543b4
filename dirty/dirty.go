// Package dirty decides whether editing state differs from what was last
// saved.
package dirty

import (
	"sync"

	"github.com/goliatone/go-rimepatch/tree"
)

// IsDirty reports whether current differs structurally from saved.
func IsDirty(current, saved tree.Value) bool {
	return !tree.Equal(current, saved)
}

// RecordsEqual compares two record lists index by index. Lists of different
// length are unequal and reordering counts as a change.
func RecordsEqual[T any](a, b []T, eq func(T, T) bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !eq(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Tracker remembers the last saved snapshot of a mapping. It is safe for
// concurrent use.
type Tracker struct {
	mu    sync.RWMutex
	saved *tree.Mapping
}

// NewTracker returns a tracker whose saved snapshot is a copy of saved.
func NewTracker(saved *tree.Mapping) *Tracker {
	return &Tracker{saved: tree.CloneMapping(saved)}
}

// Mark records current as the saved snapshot.
func (t *Tracker) Mark(current *tree.Mapping) {
	snapshot := tree.CloneMapping(current)
	t.mu.Lock()
	t.saved = snapshot
	t.mu.Unlock()
}

// Saved returns a copy of the saved snapshot.
func (t *Tracker) Saved() *tree.Mapping {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return tree.CloneMapping(t.saved)
}

// IsDirty reports whether current differs from the saved snapshot.
func (t *Tracker) IsDirty(current *tree.Mapping) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.saved == nil {
		return current != nil && current.Len() > 0
	}
	if current == nil {
		return t.saved.Len() > 0
	}
	return IsDirty(current, t.saved)
}
