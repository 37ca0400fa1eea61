/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package workflow

import (
	"errors"
	"strconv"
	"testing"
	"time"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry(2)

	base := time.Now()
	for i := range 3 {
		res := Result{RunID: strconv.Itoa(i), Started: base.Add(time.Duration(i) * time.Second)}
		r.begin(res)
	}
	if got := r.Stats().Active; got != 3 {
		t.Fatalf("Active = %d, want 3", got)
	}
	if got := r.Active()[0].RunID; got != "0" {
		t.Errorf("oldest active run = %q, want 0", got)
	}

	r.finish(Result{RunID: "0", Stage: PullRequestOpened})
	r.finish(Result{RunID: "1", Stage: BranchCreated, Err: errors.New("boom")})
	r.finish(Result{RunID: "2", Stage: PullRequestOpened})

	stats := r.Stats()
	if stats.Active != 0 || stats.Succeeded != 2 || stats.Failed != 1 {
		t.Errorf("Stats() = %+v, want 0 active, 2 succeeded, 1 failed", stats)
	}

	history := r.History()
	if len(history) != 2 {
		t.Fatalf("History() has %d runs, want 2", len(history))
	}
	if history[0].RunID != "1" || history[1].RunID != "2" {
		t.Errorf("History() = %s, %s, want 1, 2", history[0].RunID, history[1].RunID)
	}
}

func TestRegistryIsolated(t *testing.T) {
	a, b := NewRegistry(0), NewRegistry(0)
	a.finish(Result{RunID: "x", Stage: PullRequestOpened})
	if got := b.Stats().Succeeded; got != 0 {
		t.Errorf("second registry saw %d runs from the first", got)
	}
}

func TestResultOutcome(t *testing.T) {
	tests := []struct {
		res  Result
		want string
	}{
		{Result{Stage: PullRequestOpened}, "succeeded"},
		{Result{Stage: FilesListed}, "running"},
		{Result{Stage: IssueFetched, Err: errors.New("x")}, "failed"},
	}
	for _, tt := range tests {
		if got := tt.res.Outcome(); got != tt.want {
			t.Errorf("Outcome(%v) = %q, want %q", tt.res.Stage, got, tt.want)
		}
	}
}
