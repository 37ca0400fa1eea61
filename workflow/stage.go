/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package workflow

import "fmt"

// Stage is a state of a workflow run.
type Stage int

const (
	Idle Stage = iota
	IssueFetched
	FilesListed
	ChangeSetGenerated
	BranchCreated
	ChangesApplied
	PullRequestOpened
)

var stageNames = [...]string{
	Idle:               "Idle",
	IssueFetched:       "IssueFetched",
	FilesListed:        "FilesListed",
	ChangeSetGenerated: "ChangeSetGenerated",
	BranchCreated:      "BranchCreated",
	ChangesApplied:     "ChangesApplied",
	PullRequestOpened:  "PullRequestOpened",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// Terminal reports whether s ends a successful run.
func (s Stage) Terminal() bool { return s == PullRequestOpened }

// StageError is the error of a run that failed while entering Stage.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("Failed(%s): %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
