/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package gateway

import (
	"cmp"
	"context"
	"fmt"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v84/github"
)

// ParseRepository splits "owner/name" (optionally a github.com URL) into its parts.
func ParseRepository(id string) (owner, name string, err error) {
	s := strings.TrimSpace(id)
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "github.com/")
	s = strings.TrimSuffix(strings.TrimSuffix(s, "/"), ".git")
	owner, name, ok := strings.Cut(s, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("invalid repository %q: want owner/name", id)
	}
	return owner, name, nil
}

// Resolve looks up a repository by "owner/name".
func (g *Gateway) Resolve(ctx context.Context, id string) (RepositoryHandle, error) {
	info, err := g.Describe(ctx, id)
	if err != nil {
		return RepositoryHandle{}, err
	}
	clog.FromContext(ctx).With("repository", info.FullName(), "default_branch", info.DefaultBranch).Debug("Resolved repository")
	return info.RepositoryHandle, nil
}

// Describe looks up a repository by "owner/name" and reports its metadata.
func (g *Gateway) Describe(ctx context.Context, id string) (RepositoryInfo, error) {
	owner, name, err := ParseRepository(id)
	if err != nil {
		return RepositoryInfo{}, err
	}

	repo, resp, err := call(ctx, g, "get_repository", func(ctx context.Context) (*github.Repository, *github.Response, error) {
		return g.client.Repositories.Get(ctx, owner, name)
	})
	if err != nil {
		if isNotFound(resp, err) {
			return RepositoryInfo{}, fmt.Errorf("repository %s/%s: %w", owner, name, ErrNotFound)
		}
		return RepositoryInfo{}, fmt.Errorf("getting repository %s/%s: %w", owner, name, err)
	}

	info := RepositoryInfo{
		RepositoryHandle: RepositoryHandle{
			Owner:         cmp.Or(repo.GetOwner().GetLogin(), owner),
			Name:          cmp.Or(repo.GetName(), name),
			DefaultBranch: cmp.Or(repo.GetDefaultBranch(), "main"),
		},
		URL:     repo.GetHTMLURL(),
		Private: repo.GetPrivate(),
		Stars:   repo.GetStargazersCount(),
		Forks:   repo.GetForksCount(),
	}
	return info, nil
}

// FetchIssue returns a snapshot of issue number in repo.
func (g *Gateway) FetchIssue(ctx context.Context, repo RepositoryHandle, number int) (IssueRef, error) {
	if number <= 0 {
		return IssueRef{}, fmt.Errorf("invalid issue number %d", number)
	}

	issue, resp, err := call(ctx, g, "get_issue", func(ctx context.Context) (*github.Issue, *github.Response, error) {
		return g.client.Issues.Get(ctx, repo.Owner, repo.Name, number)
	})
	if err != nil {
		if isNotFound(resp, err) {
			return IssueRef{}, fmt.Errorf("issue %s#%d: %w", repo.FullName(), number, ErrNotFound)
		}
		return IssueRef{}, fmt.Errorf("getting issue %s#%d: %w", repo.FullName(), number, err)
	}

	return IssueRef{
		Number: issue.GetNumber(),
		Title:  issue.GetTitle(),
		Body:   issue.GetBody(),
		URL:    issue.GetHTMLURL(),
	}, nil
}
