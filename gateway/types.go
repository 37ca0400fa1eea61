/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package gateway

import (
	"time"

	"chainguard.dev/prproposer/changeset"
)

// RepositoryInfo describes a repository for status reports.
type RepositoryInfo struct {
	RepositoryHandle
	URL     string
	Private bool
	Stars   int
	Forks   int
}

// RepositoryHandle identifies a resolved repository.
type RepositoryHandle struct {
	Owner         string
	Name          string
	DefaultBranch string
}

// FullName returns "owner/name".
func (r RepositoryHandle) FullName() string {
	return r.Owner + "/" + r.Name
}

// IssueRef is an immutable snapshot of an issue.
type IssueRef struct {
	Number int
	Title  string
	Body   string
	URL    string
}

// EntryKind is the kind of a FileEntry.
type EntryKind string

const (
	KindBlob EntryKind = "blob"
	KindTree EntryKind = "tree"
)

// FileEntry is one path in a repository listing.
type FileEntry struct {
	Path string
	Kind EntryKind
}

// BranchRef is a branch, the branch it targets and the commit it forked from.
type BranchRef struct {
	Name     string
	BaseName string
	BaseSHA  string
}

// FileWrite describes a single file mutation committed to Branch.
type FileWrite struct {
	Branch  string
	Path    string
	Content string
	Action  changeset.Action
	Message string

	// PreconditionRef is the ref whose current blob SHA is used as the
	// precondition for modify and delete. Empty means the repository's
	// default branch for modify and Branch for delete. create ignores it.
	PreconditionRef string
}

// NewPullRequest holds the fields of a pull request to open.
type NewPullRequest struct {
	Title string
	Body  string
	Head  string
	Base  string
}

// PullRequestRef identifies an opened pull request.
type PullRequestRef struct {
	Number int
	URL    string
}

// RateLimitState is a rate-limit budget reported by GitHub. Limit is 0 when
// it was taken from a rejection that did not carry it.
type RateLimitState struct {
	Limit     int
	Remaining int
	Reset     time.Time
}
