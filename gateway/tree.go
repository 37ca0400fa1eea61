/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package gateway

import (
	"context"
	"fmt"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v84/github"
	"golang.org/x/sync/errgroup"
)

// FallbackFiles is the listing used when the repository cannot be listed.
func FallbackFiles() []FileEntry {
	return []FileEntry{
		{Path: "LICENSE", Kind: KindBlob},
		{Path: "README", Kind: KindBlob},
	}
}

// ListFiles lists every path on the default branch, sorted by path.
//
// It tries a single recursive tree fetch first, then a breadth-first walk of
// the contents API. If both fail it returns FallbackFiles. ListFiles never
// fails; a wait on rate limiting is the only way for it to block.
func (g *Gateway) ListFiles(ctx context.Context, repo RepositoryHandle) []FileEntry {
	log := clog.FromContext(ctx).With("repository", repo.FullName())

	entries, err := g.listTree(ctx, repo)
	if err == nil {
		return entries
	}
	log.With("error", err).Warn("Recursive tree listing failed, walking directories")

	entries, err = g.walk(ctx, repo)
	if err == nil {
		return entries
	}
	log.With("error", err).Warn("Directory walk failed, using fallback listing")
	return FallbackFiles()
}

func (g *Gateway) listTree(ctx context.Context, repo RepositoryHandle) ([]FileEntry, error) {
	tree, _, err := call(ctx, g, "get_tree", func(ctx context.Context) (*github.Tree, *github.Response, error) {
		return g.client.Git.GetTree(ctx, repo.Owner, repo.Name, repo.DefaultBranch, true)
	})
	if err != nil {
		return nil, fmt.Errorf("getting tree: %w", err)
	}
	if tree.GetTruncated() {
		return nil, fmt.Errorf("tree for %s is truncated", repo.DefaultBranch)
	}

	entries := make([]FileEntry, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		switch e.GetType() {
		case "blob":
			entries = append(entries, FileEntry{Path: e.GetPath(), Kind: KindBlob})
		case "tree":
			entries = append(entries, FileEntry{Path: e.GetPath(), Kind: KindTree})
		}
	}
	sortEntries(entries)
	return entries, nil
}

// walk lists the repository one directory level at a time.
func (g *Gateway) walk(ctx context.Context, repo RepositoryHandle) ([]FileEntry, error) {
	var (
		mu      sync.Mutex
		entries []FileEntry
	)
	level := []string{""}
	for len(level) > 0 {
		var next []string
		eg, egCtx := errgroup.WithContext(ctx)
		eg.SetLimit(g.workers)
		for _, dir := range level {
			eg.Go(func() error {
				children, subdirs, err := g.listDir(egCtx, repo, dir)
				if err != nil {
					return err
				}
				mu.Lock()
				defer mu.Unlock()
				entries = append(entries, children...)
				next = append(next, subdirs...)
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
		level = next
	}
	sortEntries(entries)
	return entries, nil
}

func (g *Gateway) listDir(ctx context.Context, repo RepositoryHandle, dir string) ([]FileEntry, []string, error) {
	contents, _, err := call(ctx, g, "get_contents", func(ctx context.Context) ([]*github.RepositoryContent, *github.Response, error) {
		_, dc, resp, err := g.client.Repositories.GetContents(ctx, repo.Owner, repo.Name, dir,
			&github.RepositoryContentGetOptions{Ref: repo.DefaultBranch})
		return dc, resp, err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("listing %q: %w", dir, err)
	}

	var entries []FileEntry
	var subdirs []string
	for _, c := range contents {
		p := c.GetPath()
		if p == "" {
			p = path.Join(dir, c.GetName())
		}
		switch c.GetType() {
		case "file", "symlink":
			entries = append(entries, FileEntry{Path: p, Kind: KindBlob})
		case "dir":
			entries = append(entries, FileEntry{Path: p, Kind: KindTree})
			subdirs = append(subdirs, p)
		}
	}
	return entries, subdirs, nil
}

func sortEntries(entries []FileEntry) {
	slices.SortFunc(entries, func(a, b FileEntry) int {
		return strings.Compare(a.Path, b.Path)
	})
}
