/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v84/github"
)

// CreateBranch creates name from the current tip of base.
//
// If name already exists it is reused as is, and BaseSHA is the merge base of
// the existing branch and base rather than the current tip of base.
func (g *Gateway) CreateBranch(ctx context.Context, repo RepositoryHandle, base, name string) (BranchRef, error) {
	if name == "" {
		return BranchRef{}, errors.New("branch name is required")
	}
	if base == "" {
		base = repo.DefaultBranch
	}
	log := clog.FromContext(ctx).With("repository", repo.FullName(), "branch", name, "base", base)

	baseSHA, err := g.headSHA(ctx, repo, base)
	if err != nil {
		return BranchRef{}, err
	}

	_, resp, err := call(ctx, g, "create_ref", func(ctx context.Context) (*github.Reference, *github.Response, error) {
		return g.client.Git.CreateRef(ctx, repo.Owner, repo.Name, github.CreateRef{
			Ref: "refs/heads/" + name,
			SHA: baseSHA,
		})
	})
	switch {
	case err == nil:
		log.With("sha", baseSHA).Info("Created branch")
		return BranchRef{Name: name, BaseName: base, BaseSHA: baseSHA}, nil
	case alreadyExists(resp, err):
		headSHA, err := g.headSHA(ctx, repo, name)
		if err != nil {
			return BranchRef{}, err
		}
		forkSHA, err := g.mergeBase(ctx, repo, baseSHA, headSHA)
		if err != nil {
			return BranchRef{}, err
		}
		log.With("fork", forkSHA).Info("Branch already exists, reusing it")
		return BranchRef{Name: name, BaseName: base, BaseSHA: forkSHA}, nil
	default:
		return BranchRef{}, fmt.Errorf("creating branch %s: %w", name, err)
	}
}

func (g *Gateway) mergeBase(ctx context.Context, repo RepositoryHandle, base, head string) (string, error) {
	comparison, _, err := call(ctx, g, "compare_commits", func(ctx context.Context) (*github.CommitsComparison, *github.Response, error) {
		return g.client.Repositories.CompareCommits(ctx, repo.Owner, repo.Name, base, head, nil)
	})
	if err != nil {
		return "", fmt.Errorf("comparing %s...%s: %w", base, head, err)
	}
	sha := comparison.GetMergeBaseCommit().GetSHA()
	if sha == "" {
		return "", fmt.Errorf("no merge base between %s and %s", base, head)
	}
	return sha, nil
}

func (g *Gateway) headSHA(ctx context.Context, repo RepositoryHandle, branch string) (string, error) {
	r, resp, err := call(ctx, g, "get_ref", func(ctx context.Context) (*github.Reference, *github.Response, error) {
		return g.client.Git.GetRef(ctx, repo.Owner, repo.Name, "heads/"+branch)
	})
	if err != nil {
		if isNotFound(resp, err) {
			return "", fmt.Errorf("branch %s: %w", branch, ErrNotFound)
		}
		return "", fmt.Errorf("getting branch %s: %w", branch, err)
	}
	return r.GetObject().GetSHA(), nil
}

func alreadyExists(resp *github.Response, err error) bool {
	switch statusCode(resp, err) {
	case http.StatusConflict:
		return true
	case http.StatusUnprocessableEntity:
		return strings.Contains(strings.ToLower(errorMessage(err)), "already exists")
	}
	return false
}
