/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"fmt"
	"strconv"
	"strings"

	"chainguard.dev/prproposer/gateway"
)

type target struct {
	Repository string
	Issue      int
}

func (t target) String() string { return fmt.Sprintf("%s#%d", t.Repository, t.Issue) }

// parseTarget accepts "owner/name#N" or an issue URL such as
// https://github.com/owner/name/issues/N.
func parseTarget(s string) (target, error) {
	repo, num, ok := strings.Cut(strings.TrimSpace(s), "#")
	if !ok {
		i := strings.LastIndex(s, "/issues/")
		if i < 0 {
			return target{}, fmt.Errorf("invalid target %q: want owner/name#N", s)
		}
		repo, num = s[:i], strings.TrimSuffix(s[i+len("/issues/"):], "/")
	}
	owner, name, err := gateway.ParseRepository(repo)
	if err != nil {
		return target{}, fmt.Errorf("invalid target %q: %w", s, err)
	}
	n, err := strconv.Atoi(num)
	if err != nil || n <= 0 {
		return target{}, fmt.Errorf("invalid target %q: issue number must be a positive integer", s)
	}
	return target{Repository: owner + "/" + name, Issue: n}, nil
}
