// Package state tracks the destination paths claimed during a single
// run. Nothing is persisted between runs; the tracker only exists to
// make collision disambiguation deterministic.
package state

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// PathTracker allocates unique destination paths within one run.
type PathTracker struct {
	mu      sync.Mutex
	claimed map[string]struct{}
}

// NewPathTracker returns an empty tracker.
func NewPathTracker() *PathTracker {
	return &PathTracker{claimed: make(map[string]struct{})}
}

// Claim reserves the given destination path. When the path was already
// claimed this run, a counter suffix is inserted before the extension
// (" (1)", " (2)", ...) and the first free variant is reserved and
// returned.
func (t *PathTracker) Claim(path string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, taken := t.claimed[path]; !taken {
		t.claimed[path] = struct{}{}
		return path
	}

	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)

	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, n, ext)
		if _, taken := t.claimed[candidate]; !taken {
			t.claimed[candidate] = struct{}{}
			return candidate
		}
	}
}

// Claimed reports whether the exact path was already reserved.
func (t *PathTracker) Claimed(path string) bool {
	t.mu.Lock()
	_, ok := t.claimed[path]
	t.mu.Unlock()
	return ok
}

// Snapshot returns the number of paths reserved so far.
func (t *PathTracker) Snapshot() int {
	t.mu.Lock()
	count := len(t.claimed)
	t.mu.Unlock()
	return count
}
