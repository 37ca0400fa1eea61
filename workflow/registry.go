/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package workflow

import (
	"slices"
	"sync"
	"time"
)

// DefaultHistory is the number of finished runs a Registry keeps.
const DefaultHistory = 100

// Stats summarizes a Registry.
type Stats struct {
	Since     time.Time
	Active    int
	Succeeded int
	Failed    int
}

// Registry tracks the runs of one Coordinator.
type Registry struct {
	mu        sync.Mutex
	since     time.Time
	limit     int
	active    map[string]Result
	history   []Result
	succeeded int
	failed    int
}

// NewRegistry keeps up to limit finished runs; limit < 1 uses DefaultHistory.
func NewRegistry(limit int) *Registry {
	if limit < 1 {
		limit = DefaultHistory
	}
	return &Registry{
		since:  time.Now(),
		limit:  limit,
		active: map[string]Result{},
	}
}

func (r *Registry) begin(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active[res.RunID] = res
}

func (r *Registry) update(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.active[res.RunID]; ok {
		r.active[res.RunID] = res
	}
}

func (r *Registry) finish(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, res.RunID)
	if res.Succeeded() {
		r.succeeded++
	} else {
		r.failed++
	}
	r.history = append(r.history, res)
	if over := len(r.history) - r.limit; over > 0 {
		r.history = slices.Delete(r.history, 0, over)
	}
}

// Stats returns the counters since the Registry was created.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{
		Since:     r.since,
		Active:    len(r.active),
		Succeeded: r.succeeded,
		Failed:    r.failed,
	}
}

// Active returns the runs in progress, oldest first.
func (r *Registry) Active() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Result, 0, len(r.active))
	for _, res := range r.active {
		out = append(out, res)
	}
	slices.SortFunc(out, func(a, b Result) int { return a.Started.Compare(b.Started) })
	return out
}

// History returns finished runs, oldest first.
func (r *Registry) History() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.history)
}
