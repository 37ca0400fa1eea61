/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package gateway

import (
	"context"
	"errors"

	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v84/github"
)

// OpenPullRequest opens a pull request from pr.Head into pr.Base.
//
// Any refusal from GitHub is returned as a *PRCreationError.
func (g *Gateway) OpenPullRequest(ctx context.Context, repo RepositoryHandle, pr NewPullRequest) (PullRequestRef, error) {
	if pr.Head == "" || pr.Base == "" {
		return PullRequestRef{}, &PRCreationError{Message: "head and base are required", Err: errors.New("missing head or base")}
	}

	created, resp, err := call(ctx, g, "create_pull_request", func(ctx context.Context) (*github.PullRequest, *github.Response, error) {
		return g.client.PullRequests.Create(ctx, repo.Owner, repo.Name, &github.NewPullRequest{
			Title:               github.Ptr(pr.Title),
			Head:                github.Ptr(pr.Head),
			Base:                github.Ptr(pr.Base),
			Body:                github.Ptr(pr.Body),
			MaintainerCanModify: github.Ptr(true),
		})
	})
	if err != nil {
		return PullRequestRef{}, &PRCreationError{
			StatusCode: statusCode(resp, err),
			Message:    errorMessage(err),
			Err:        err,
		}
	}

	ref := PullRequestRef{Number: created.GetNumber(), URL: created.GetHTMLURL()}
	clog.FromContext(ctx).With("repository", repo.FullName(), "number", ref.Number, "url", ref.URL).Info("Opened pull request")
	return ref, nil
}
