/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v84/github"
)

// ErrNotFound is returned when a repository, issue, ref or file does not exist.
var ErrNotFound = errors.New("not found")

// ConflictError is returned when a write precondition is stale.
type ConflictError struct {
	Path string
	Ref  string
	Err  error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict writing %s (precondition from %s): %v", e.Path, e.Ref, e.Err)
}

func (e *ConflictError) Unwrap() error { return e.Err }

// PRCreationError is returned when GitHub refuses to open a pull request.
type PRCreationError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *PRCreationError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("creating pull request: %s", e.Message)
	}
	return fmt.Sprintf("creating pull request (status %d): %s", e.StatusCode, e.Message)
}

func (e *PRCreationError) Unwrap() error { return e.Err }

// statusCode extracts the HTTP status of a failed call, or 0 if there was no response.
func statusCode(resp *github.Response, err error) int {
	if resp != nil && resp.Response != nil {
		return resp.StatusCode
	}
	var er *github.ErrorResponse
	if errors.As(err, &er) && er.Response != nil {
		return er.Response.StatusCode
	}
	return 0
}

// errorMessage flattens a GitHub error response into one line.
func errorMessage(err error) string {
	var er *github.ErrorResponse
	if !errors.As(err, &er) {
		return err.Error()
	}
	parts := []string{er.Message}
	for _, e := range er.Errors {
		if e.Message != "" {
			parts = append(parts, e.Message)
		}
	}
	return strings.Join(parts, ": ")
}

func isNotFound(resp *github.Response, err error) bool {
	return statusCode(resp, err) == http.StatusNotFound
}
