/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/chainguard-dev/clog"

	"chainguard.dev/prproposer/changeset"
	"chainguard.dev/prproposer/gateway"
)

// ErrAllBackendsExhausted is wrapped by the error returned when no backend
// produced a usable change set.
var ErrAllBackendsExhausted = errors.New("all backends exhausted")

// Attempt is the outcome of asking one backend.
type Attempt struct {
	Backend string
	Outcome string
	Err     error
}

// ExhaustedError lists every backend attempt of a failed selection.
type ExhaustedError struct {
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	if len(e.Attempts) == 0 {
		return ErrAllBackendsExhausted.Error() + ": no backends configured"
	}
	var b strings.Builder
	b.WriteString(ErrAllBackendsExhausted.Error())
	b.WriteString(":")
	for _, a := range e.Attempts {
		fmt.Fprintf(&b, "\n  %s: %s", a.Backend, a.Outcome)
		if a.Err != nil {
			fmt.Fprintf(&b, ": %v", a.Err)
		}
	}
	return b.String()
}

func (e *ExhaustedError) Unwrap() error { return ErrAllBackendsExhausted }

// Orchestrator asks an ordered chain of backends for a change set.
type Orchestrator struct {
	backends []Backend
	metrics  *Metrics
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMetrics records one attempt per backend call on m.
func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// New returns an Orchestrator over backends, tried in the given order.
func New(backends []Backend, opts ...Option) (*Orchestrator, error) {
	if len(backends) == 0 {
		return nil, errors.New("at least one backend is required")
	}
	o := &Orchestrator{backends: backends}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Backends returns the backend names in order.
func (o *Orchestrator) Backends() []string {
	names := make([]string, 0, len(o.backends))
	for _, b := range o.backends {
		names = append(names, b.Name())
	}
	return names
}

// Generate builds the prompt for issue and files and selects a change set.
// It returns the change set and the name of the backend that produced it.
func (o *Orchestrator) Generate(ctx context.Context, issue gateway.IssueRef, files []gateway.FileEntry) (changeset.ChangeSet, string, error) {
	prompt, err := BuildPrompt(issue, files)
	if err != nil {
		return nil, "", err
	}
	return o.Select(ctx, prompt)
}

// Select asks each backend in turn and returns the first parseable change set.
func (o *Orchestrator) Select(ctx context.Context, prompt string) (changeset.ChangeSet, string, error) {
	log := clog.FromContext(ctx)

	attempts := make([]Attempt, 0, len(o.backends))
	for _, b := range o.backends {
		if err := ctx.Err(); err != nil {
			return nil, "", fmt.Errorf("selecting change set: %w", err)
		}
		name := b.Name()
		blog := log.With("backend", name)
		blog.Info("Requesting change set")

		text, err := b.Complete(ctx, prompt)
		if err != nil {
			blog.With("error", err).Warn("Backend call failed, trying next backend")
			attempts = append(attempts, o.attempt(ctx, name, OutcomeCallError, err))
			continue
		}
		if strings.TrimSpace(text) == "" {
			blog.Warn("Backend returned an empty response, trying next backend")
			attempts = append(attempts, o.attempt(ctx, name, OutcomeEmpty, nil))
			continue
		}

		cs, err := changeset.Parse(text)
		if err != nil {
			blog.With("error", err).With("response", preview(text)).Warn("Backend response is not a change set, trying next backend")
			attempts = append(attempts, o.attempt(ctx, name, OutcomeParseError, err))
			continue
		}

		o.attempt(ctx, name, OutcomeOK, nil)
		blog.With("changes", len(cs)).Info("Selected change set")
		return cs, name, nil
	}
	return nil, "", &ExhaustedError{Attempts: attempts}
}

// Select runs the selection loop over backends without metrics.
func Select(ctx context.Context, backends []Backend, prompt string) (changeset.ChangeSet, string, error) {
	return (&Orchestrator{backends: backends}).Select(ctx, prompt)
}

func (o *Orchestrator) attempt(ctx context.Context, backend, outcome string, err error) Attempt {
	o.metrics.RecordAttempt(ctx, backend, outcome)
	return Attempt{Backend: backend, Outcome: outcome, Err: err}
}

func preview(s string) string {
	const limit = 200
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
