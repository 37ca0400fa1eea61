/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package applier commits a change set to a working branch, one file at a time.
package applier

import (
	"context"
	"errors"
	"fmt"

	"github.com/chainguard-dev/clog"

	"chainguard.dev/prproposer/changeset"
	"chainguard.dev/prproposer/gateway"
)

// ErrEmptyPath is returned for a change without a file path.
var ErrEmptyPath = errors.New("change has an empty file path")

// UnknownActionError is returned for a change whose action is not create, modify or delete.
type UnknownActionError struct {
	Action changeset.Action
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown action %q", e.Action)
}

// ApplyError reports the change that stopped Apply.
type ApplyError struct {
	Index  int
	Change changeset.Change
	Err    error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("applying change %d (%s %s): %v", e.Index, e.Change.Action, e.Change.File, e.Err)
}

func (e *ApplyError) Unwrap() error { return e.Err }

// Writer commits a single file mutation.
type Writer interface {
	WriteFile(ctx context.Context, repo gateway.RepositoryHandle, w gateway.FileWrite) error
}

// Applier writes change sets through a Writer.
type Applier struct {
	writer Writer
}

// New returns an Applier writing through w.
func New(w Writer) *Applier {
	return &Applier{writer: w}
}

// CommitMessage is the message used for a single change.
func CommitMessage(c changeset.Change, issue int) string {
	return fmt.Sprintf("[agent] %s %s (#%d)", c.Action, c.File, issue)
}

// Apply commits cs to branch in order and returns how many changes were written.
//
// The first failing change aborts the run with an *ApplyError; changes already
// committed stay on the branch. modify takes its precondition from the branch's
// base and delete from the branch itself.
func (a *Applier) Apply(ctx context.Context, repo gateway.RepositoryHandle, branch gateway.BranchRef, issue int, cs changeset.ChangeSet) (int, error) {
	log := clog.FromContext(ctx).With("repository", repo.FullName(), "branch", branch.Name)

	for i, c := range cs {
		w, err := write(branch, issue, c)
		if err != nil {
			return i, &ApplyError{Index: i, Change: c, Err: err}
		}
		if err := a.writer.WriteFile(ctx, repo, w); err != nil {
			log.With("index", i, "path", c.File, "error", err).Error("Change failed, stopping")
			return i, &ApplyError{Index: i, Change: c, Err: err}
		}
	}
	log.With("applied", len(cs)).Info("Applied change set")
	return len(cs), nil
}

func write(branch gateway.BranchRef, issue int, c changeset.Change) (gateway.FileWrite, error) {
	if c.File == "" {
		return gateway.FileWrite{}, ErrEmptyPath
	}
	w := gateway.FileWrite{
		Branch:  branch.Name,
		Path:    c.File,
		Content: c.Content,
		Action:  c.Action,
		Message: CommitMessage(c, issue),
	}
	switch c.Action {
	case changeset.ActionCreate:
	case changeset.ActionModify:
		w.PreconditionRef = branch.BaseName
	case changeset.ActionDelete:
		w.PreconditionRef = branch.Name
		w.Content = ""
	default:
		return gateway.FileWrite{}, &UnknownActionError{Action: c.Action}
	}
	return w, nil
}
