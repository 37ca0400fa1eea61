/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package applier_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"chainguard.dev/prproposer/applier"
	"chainguard.dev/prproposer/changeset"
	"chainguard.dev/prproposer/gateway"
	"chainguard.dev/prproposer/gateway/gatewaytest"
	"chainguard.dev/prproposer/retry"
)

type recorder struct {
	writes []gateway.FileWrite
	failAt int
	err    error
}

func (r *recorder) WriteFile(_ context.Context, _ gateway.RepositoryHandle, w gateway.FileWrite) error {
	if r.err != nil && len(r.writes) == r.failAt {
		return r.err
	}
	r.writes = append(r.writes, w)
	return nil
}

var (
	repo   = gateway.RepositoryHandle{Owner: "octo", Name: "demo", DefaultBranch: "main"}
	branch = gateway.BranchRef{Name: "agent-fix-issue-42", BaseName: "main", BaseSHA: "abc"}
)

func TestApplyOrderAndPreconditions(t *testing.T) {
	rec := &recorder{}
	cs := changeset.ChangeSet{
		{File: "new.txt", Action: changeset.ActionCreate, Content: "new"},
		{File: "README.md", Action: changeset.ActionModify, Content: "# edited"},
		{File: "old.txt", Action: changeset.ActionDelete, Content: "ignored"},
	}

	n, err := applier.New(rec).Apply(context.Background(), repo, branch, 42, cs)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	want := []gateway.FileWrite{{
		Branch: "agent-fix-issue-42", Path: "new.txt", Content: "new",
		Action: changeset.ActionCreate, Message: "[agent] create new.txt (#42)",
	}, {
		Branch: "agent-fix-issue-42", Path: "README.md", Content: "# edited",
		Action: changeset.ActionModify, Message: "[agent] modify README.md (#42)", PreconditionRef: "main",
	}, {
		Branch: "agent-fix-issue-42", Path: "old.txt",
		Action: changeset.ActionDelete, Message: "[agent] delete old.txt (#42)", PreconditionRef: "agent-fix-issue-42",
	}}
	if diff := cmp.Diff(want, rec.writes); diff != "" {
		t.Errorf("writes mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyEmpty(t *testing.T) {
	rec := &recorder{}
	n, err := applier.New(rec).Apply(context.Background(), repo, branch, 42, changeset.ChangeSet{})
	require.NoError(t, err)
	require.Zero(t, n)
	require.Empty(t, rec.writes)
}

func TestApplyAbortsOnFirstError(t *testing.T) {
	boom := errors.New("boom")
	rec := &recorder{failAt: 1, err: boom}
	cs := changeset.ChangeSet{
		{File: "a", Action: changeset.ActionCreate},
		{File: "b", Action: changeset.ActionCreate},
		{File: "c", Action: changeset.ActionCreate},
	}

	n, err := applier.New(rec).Apply(context.Background(), repo, branch, 42, cs)
	require.Equal(t, 1, n)
	require.ErrorIs(t, err, boom)

	var applyErr *applier.ApplyError
	require.ErrorAs(t, err, &applyErr)
	require.Equal(t, 1, applyErr.Index)
	require.Equal(t, "b", applyErr.Change.File)
	require.Len(t, rec.writes, 1, "no write may follow the failing change")
}

func TestApplyRejectsInvalidChanges(t *testing.T) {
	tests := []struct {
		name  string
		cs    changeset.ChangeSet
		check func(*testing.T, error)
	}{{
		name: "unknown action",
		cs: changeset.ChangeSet{
			{File: "a", Action: changeset.ActionCreate},
			{File: "b", Action: "rename"},
			{File: "c", Action: changeset.ActionCreate},
		},
		check: func(t *testing.T, err error) {
			var unknown *applier.UnknownActionError
			require.ErrorAs(t, err, &unknown)
			require.Equal(t, changeset.Action("rename"), unknown.Action)
		},
	}, {
		name: "empty path",
		cs: changeset.ChangeSet{
			{File: "a", Action: changeset.ActionCreate},
			{File: "", Action: changeset.ActionCreate},
		},
		check: func(t *testing.T, err error) {
			require.ErrorIs(t, err, applier.ErrEmptyPath)
		},
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			n, err := applier.New(rec).Apply(context.Background(), repo, branch, 42, tt.cs)
			require.Equal(t, 1, n)
			tt.check(t, err)
			require.Len(t, rec.writes, 1)
		})
	}
}

func TestApplyAgainstGitHub(t *testing.T) {
	srv := gatewaytest.New(t, "octo", "demo", map[string]string{
		"README.md": "# demo\n",
		"old.txt":   "bye\n",
	})
	gw, err := gateway.New(srv.Client(), gateway.WithRetryConfig(retry.DefaultConfig()))
	require.NoError(t, err)
	ctx := context.Background()

	h, err := gw.Resolve(ctx, "octo/demo")
	require.NoError(t, err)
	b, err := gw.CreateBranch(ctx, h, h.DefaultBranch, "agent-fix-issue-42")
	require.NoError(t, err)

	n, err := applier.New(gw).Apply(ctx, h, b, 42, changeset.ChangeSet{
		{File: "hello.txt", Action: changeset.ActionCreate, Content: "hi\n"},
		{File: "README.md", Action: changeset.ActionModify, Content: "# demo\n\nhello\n"},
		{File: "old.txt", Action: changeset.ActionDelete},
	})
	require.NoError(t, err)
	require.Equal(t, 3, n)

	got, ok := srv.File(b.Name, "hello.txt")
	require.True(t, ok)
	require.Equal(t, "hi\n", got)
	got, _ = srv.File(b.Name, "README.md")
	require.Equal(t, "# demo\n\nhello\n", got)
	_, ok = srv.File(b.Name, "old.txt")
	require.False(t, ok)

	var messages []string
	for _, w := range srv.Writes() {
		messages = append(messages, w.Method+" "+w.Path)
	}
	if diff := cmp.Diff([]string{"PUT hello.txt", "PUT README.md", "DELETE old.txt"}, messages); diff != "" {
		t.Errorf("commit order mismatch (-want +got):\n%s", diff)
	}
}
