/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"chainguard.dev/prproposer/changeset"
	"chainguard.dev/prproposer/gateway"
)

// sampleIssue is asked for when generate runs without a target.
var sampleIssue = gateway.IssueRef{
	Number: 1,
	Title:  "Test issue",
	Body:   "Create a simple hello.py file with a greeting function.",
}

var sampleFiles = []gateway.FileEntry{{Path: "README.md", Kind: gateway.KindBlob}}

func newGenerateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "generate [owner/name#N]",
		Short: "Ask the backend chain for a change set without touching the repository",
		Long: `Generate runs only the generation step and prints the change set it selects.
With a target the issue and file listing are read from GitHub; nothing is written.
Without one a built-in sample issue is used, which checks the backend chain alone.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			issue, files := sampleIssue, sampleFiles
			if len(args) == 1 {
				t, err := parseTarget(args[0])
				if err != nil {
					return err
				}
				if issue, files, err = a.readIssue(ctx, t); err != nil {
					return err
				}
			}

			orch, err := a.newOrchestrator(ctx)
			if err != nil {
				return err
			}
			cs, backend, err := orch.Generate(ctx, issue, files)
			if err != nil {
				return err
			}
			return printChangeSet(cmd, issue, backend, cs)
		},
	}
}

func (a *app) readIssue(ctx context.Context, t target) (gateway.IssueRef, []gateway.FileEntry, error) {
	gw, err := newGateway(ctx, a.cfg)
	if err != nil {
		return gateway.IssueRef{}, nil, err
	}
	repo, err := gw.Resolve(ctx, t.Repository)
	if err != nil {
		return gateway.IssueRef{}, nil, err
	}
	issue, err := gw.FetchIssue(ctx, repo, t.Issue)
	if err != nil {
		return gateway.IssueRef{}, nil, err
	}
	return issue, gw.ListFiles(ctx, repo), nil
}

func printChangeSet(cmd *cobra.Command, issue gateway.IssueRef, backend string, cs changeset.ChangeSet) error {
	r := newReport(text("File"), text("Action"), number("Bytes"))
	size := 0
	for _, c := range cs {
		size += len(c.Content)
		r.add(c.File, string(c.Action), strconv.Itoa(len(c.Content)))
	}
	r.total(fmt.Sprintf("%d changes", len(cs)), "", strconv.Itoa(size))
	r.caption(fmt.Sprintf("Issue #%d %q answered by %s", issue.Number, issue.Title, backend))
	return r.write(cmd.OutOrStdout())
}
