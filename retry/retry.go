/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chainguard-dev/clog"
)

// Config configures how long a rate-limited operation keeps waiting.
type Config struct {
	// MaxWaits bounds the number of rate-limit waits for one operation.
	// 0 means wait forever: a background agent prefers liveness over latency.
	MaxWaits int
	// SafetyMargin is added on top of the provider's reported reset time.
	SafetyMargin time.Duration
}

// Validate checks that the retry configuration has valid values.
func (c Config) Validate() error {
	if c.MaxWaits < 0 {
		return errors.New("max waits cannot be negative")
	}
	if c.SafetyMargin < 0 {
		return errors.New("safety margin cannot be negative")
	}
	return nil
}

// DefaultConfig returns an unbounded configuration with a two second margin.
func DefaultConfig() Config {
	return Config{
		MaxWaits:     0,
		SafetyMargin: 2 * time.Second,
	}
}

// Classifier reports whether err is a rate-limit rejection and, if so,
// when the provider says the budget resets. A zero reset means "unknown".
type Classifier func(err error) (reset time.Time, limited bool)

// ErrWaitBudgetExhausted is returned once MaxWaits rate-limit waits were spent.
var ErrWaitBudgetExhausted = errors.New("rate limit wait budget exhausted")

// UntilReset executes fn, and each time it fails with a rate-limit rejection
// sleeps until the reported reset plus the safety margin before calling it again.
// Errors that classify does not recognise are returned immediately.
func UntilReset[T any](ctx context.Context, cfg Config, operation string, classify Classifier, fn func() (T, error)) (T, error) {
	for waits := 0; ; waits++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}

		reset, limited := classify(err)
		if !limited {
			return result, err
		}

		if cfg.MaxWaits > 0 && waits >= cfg.MaxWaits {
			return result, fmt.Errorf("%s: %w after %d waits: %w", operation, ErrWaitBudgetExhausted, waits, err)
		}

		wait := WaitDuration(time.Now(), reset, cfg.SafetyMargin)

		clog.FromContext(ctx).With("operation", operation).
			With("wait", waits+1).
			With("reset", reset).
			With("sleep", wait).
			With("error", err.Error()).
			Warn("Rate limit hit, sleeping until reset")

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(wait):
		}
	}
}

// WaitDuration computes how long to sleep at now for a budget resetting at reset.
// A reset in the past (or unknown) still waits for the margin.
func WaitDuration(now, reset time.Time, margin time.Duration) time.Duration {
	if reset.IsZero() || !reset.After(now) {
		return margin
	}
	return reset.Sub(now) + margin
}
