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

	"chainguard.dev/prproposer/changeset"
)

// WriteFile commits a single file mutation to w.Branch.
//
// create writes the file whether or not it already exists on the branch.
// modify and delete use the blob SHA on w.PreconditionRef as their
// precondition, so a stale precondition surfaces as a *ConflictError. An
// empty PreconditionRef means the default branch for modify and w.Branch for
// delete.
func (g *Gateway) WriteFile(ctx context.Context, repo RepositoryHandle, w FileWrite) error {
	if w.Path == "" {
		return errors.New("file path is required")
	}
	if w.Branch == "" {
		return errors.New("branch is required")
	}
	log := clog.FromContext(ctx).With("repository", repo.FullName(), "branch", w.Branch, "path", w.Path, "action", string(w.Action))

	opts := &github.RepositoryContentFileOptions{
		Message: github.Ptr(w.Message),
		Branch:  github.Ptr(w.Branch),
	}

	precondition := w.Branch
	var write func(context.Context) (*github.RepositoryContentResponse, *github.Response, error)
	switch w.Action {
	case changeset.ActionCreate:
		sha, err := g.blobSHA(ctx, repo, w.Path, w.Branch)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		opts.Content = []byte(w.Content)
		if sha == "" {
			write = func(ctx context.Context) (*github.RepositoryContentResponse, *github.Response, error) {
				return g.client.Repositories.CreateFile(ctx, repo.Owner, repo.Name, w.Path, opts)
			}
		} else {
			opts.SHA = github.Ptr(sha)
			write = func(ctx context.Context) (*github.RepositoryContentResponse, *github.Response, error) {
				return g.client.Repositories.UpdateFile(ctx, repo.Owner, repo.Name, w.Path, opts)
			}
		}

	case changeset.ActionModify:
		if precondition = w.PreconditionRef; precondition == "" {
			precondition = repo.DefaultBranch
		}
		sha, err := g.blobSHA(ctx, repo, w.Path, precondition)
		if err != nil {
			return err
		}
		opts.Content = []byte(w.Content)
		opts.SHA = github.Ptr(sha)
		write = func(ctx context.Context) (*github.RepositoryContentResponse, *github.Response, error) {
			return g.client.Repositories.UpdateFile(ctx, repo.Owner, repo.Name, w.Path, opts)
		}

	case changeset.ActionDelete:
		if w.PreconditionRef != "" {
			precondition = w.PreconditionRef
		}
		sha, err := g.blobSHA(ctx, repo, w.Path, precondition)
		if err != nil {
			return err
		}
		opts.SHA = github.Ptr(sha)
		write = func(ctx context.Context) (*github.RepositoryContentResponse, *github.Response, error) {
			return g.client.Repositories.DeleteFile(ctx, repo.Owner, repo.Name, w.Path, opts)
		}

	default:
		return fmt.Errorf("unsupported action %q for %s", w.Action, w.Path)
	}

	_, resp, err := call(ctx, g, "write_contents", write)
	if err == nil {
		log.Info("Committed file")
		return nil
	}
	switch code := statusCode(resp, err); {
	case code == http.StatusConflict,
		code == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(errorMessage(err)), "sha"):
		return &ConflictError{Path: w.Path, Ref: precondition, Err: err}
	case code == http.StatusNotFound:
		return fmt.Errorf("writing %s on %s: %w", w.Path, w.Branch, ErrNotFound)
	}
	return fmt.Errorf("writing %s on %s: %w", w.Path, w.Branch, err)
}

// blobSHA returns the blob SHA of p at ref.
func (g *Gateway) blobSHA(ctx context.Context, repo RepositoryHandle, p, ref string) (string, error) {
	file, resp, err := call(ctx, g, "get_contents", func(ctx context.Context) (*github.RepositoryContent, *github.Response, error) {
		fc, _, resp, err := g.client.Repositories.GetContents(ctx, repo.Owner, repo.Name, p,
			&github.RepositoryContentGetOptions{Ref: ref})
		return fc, resp, err
	})
	if err != nil {
		if isNotFound(resp, err) {
			return "", fmt.Errorf("%s at %s: %w", p, ref, ErrNotFound)
		}
		return "", fmt.Errorf("getting %s at %s: %w", p, ref, err)
	}
	if file == nil {
		return "", fmt.Errorf("%s at %s is a directory", p, ref)
	}
	return file.GetSHA(), nil
}
