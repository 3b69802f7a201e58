// Package shutdown coordinates graceful teardown: an ordered registry of
// cleanup functions and signal handling with a forced-exit escape hatch.
package shutdown

import (
	"context"
	"sort"
	"sync"

	"paintflow/core"
)

// entry holds one registered cleanup function.
type entry struct {
	name     string
	fn       core.ShutdownFunc
	priority int // lower runs first
}

// Registry is an ordered, thread-safe collection of cleanup functions.
//
// Priority conventions:
//   - 0-9: flush logs
//   - 10-19: stop servers
//   - 20-29: stop background workers
//   - 30+: close databases and files
type Registry struct {
	mu      sync.Mutex
	entries []entry
	closed  bool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a cleanup function. Lower priorities run earlier.
// Registration after Shutdown is a no-op.
func (r *Registry) Register(name string, priority int, fn core.ShutdownFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.entries = append(r.entries, entry{name: name, fn: fn, priority: priority})
}

// Shutdown runs every registered function in priority order and returns
// the errors of those that failed. All functions run even when earlier
// ones fail. The registry is closed afterwards; a second call returns nil.
func (r *Registry) Shutdown(ctx context.Context) []error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	sorted := make([]entry, len(r.entries))
	copy(sorted, r.entries)
	r.mu.Unlock()

	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].priority < sorted[j].priority
	})

	var errs []error
	for _, e := range sorted {
		if err := e.fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Names returns the registered names in priority order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	sorted := make([]entry, len(r.entries))
	copy(sorted, r.entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].priority < sorted[j].priority
	})

	names := make([]string, len(sorted))
	for i, e := range sorted {
		names[i] = e.name
	}
	return names
}

// Count returns the number of registered functions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
