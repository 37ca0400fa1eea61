/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package workflow

import (
	"fmt"
	"time"

	"chainguard.dev/prproposer/gateway"
)

// Request starts one run.
type Request struct {
	// Repository is "owner/name".
	Repository  string
	IssueNumber int

	// Progress, if set, receives one plain-text line per stage.
	Progress func(string)
}

// Result is the terminal outcome of a run.
//
// On success Stage is PullRequestOpened and Err is nil. On failure Stage is
// the stage that failed and Err is a *StageError.
type Result struct {
	RunID      string
	Repository string
	Issue      int

	Stage Stage
	Err   error

	Branch      string
	PullRequest gateway.PullRequestRef
	Backend     string
	ChangeCount int
	Applied     int

	Started  time.Time
	Duration time.Duration
}

// Succeeded reports whether the run opened a pull request.
func (r Result) Succeeded() bool {
	return r.Err == nil && r.Stage.Terminal()
}

// Outcome is "succeeded", "failed" or "running".
func (r Result) Outcome() string {
	switch {
	case r.Err != nil:
		return "failed"
	case r.Stage.Terminal():
		return "succeeded"
	}
	return "running"
}

func (r Result) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s#%d: %v", r.Repository, r.Issue, r.Err)
	}
	return fmt.Sprintf("%s#%d: %s (%d changes from %s on %s)",
		r.Repository, r.Issue, r.PullRequest.URL, r.ChangeCount, r.Backend, r.Branch)
}
