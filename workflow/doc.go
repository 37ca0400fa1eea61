/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package workflow runs the issue-to-pull-request flow:
//
//	Idle -> IssueFetched -> FilesListed -> ChangeSetGenerated ->
//	BranchCreated -> ChangesApplied -> PullRequestOpened
//
// Stages run strictly in order and none is re-entered. A failure ends the run
// as Failed(stage), where stage is the stage being entered when it failed.
// The whole run is never retried automatically; running the same issue again
// is safe because the branch name is derived from the issue number and branch
// creation is idempotent.
package workflow
