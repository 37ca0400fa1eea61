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
	"sync/atomic"
	"time"

	"github.com/google/go-github/v84/github"
	"golang.org/x/sync/semaphore"

	"chainguard.dev/prproposer/retry"
)

// DefaultWorkers bounds the number of in-flight GitHub calls per Gateway.
const DefaultWorkers = 4

// Gateway issues GitHub calls through a shared worker pool.
type Gateway struct {
	client  *github.Client
	workers int
	pool    *semaphore.Weighted
	retry   retry.Config
	limit   atomic.Pointer[RateLimitState]
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithWorkers sets the size of the worker pool.
func WithWorkers(n int) Option {
	return func(g *Gateway) { g.workers = n }
}

// WithRetryConfig sets the rate-limit wait policy.
func WithRetryConfig(cfg retry.Config) Option {
	return func(g *Gateway) { g.retry = cfg }
}

// New returns a Gateway around client.
func New(client *github.Client, opts ...Option) (*Gateway, error) {
	if client == nil {
		return nil, errors.New("github client is required")
	}
	g := &Gateway{
		client:  client,
		workers: DefaultWorkers,
		retry:   retry.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.workers < 1 {
		return nil, fmt.Errorf("workers must be at least 1, got %d", g.workers)
	}
	if err := g.retry.Validate(); err != nil {
		return nil, err
	}
	g.pool = semaphore.NewWeighted(int64(g.workers))
	return g, nil
}

// RateLimit returns the last budget GitHub reported on a rate-limit
// rejection, and false if none has been seen.
func (g *Gateway) RateLimit() (RateLimitState, bool) {
	s := g.limit.Load()
	if s == nil {
		return RateLimitState{}, false
	}
	return *s, true
}

// RateLimits asks GitHub for the current core API budget.
func (g *Gateway) RateLimits(ctx context.Context) (RateLimitState, error) {
	limits, _, err := call(ctx, g, "get_rate_limit", func(ctx context.Context) (*github.RateLimits, *github.Response, error) {
		return g.client.RateLimit.Get(ctx)
	})
	if err != nil {
		return RateLimitState{}, fmt.Errorf("getting rate limits: %w", err)
	}
	core := limits.GetCore()
	if core == nil {
		return RateLimitState{}, errors.New("rate limit response has no core budget")
	}
	return RateLimitState{Limit: core.Limit, Remaining: core.Remaining, Reset: core.Reset.Time}, nil
}

func (g *Gateway) observe(s RateLimitState) {
	g.limit.Store(&s)
}

// classify reports whether err is a rate-limit rejection and when it resets.
func (g *Gateway) classify(err error) (time.Time, bool) {
	var rle *github.RateLimitError
	if errors.As(err, &rle) {
		g.observe(RateLimitState{Limit: rle.Rate.Limit, Remaining: rle.Rate.Remaining, Reset: rle.Rate.Reset.Time})
		return rle.Rate.Reset.Time, true
	}
	var abuse *github.AbuseRateLimitError
	if errors.As(err, &abuse) {
		reset := time.Now()
		if abuse.RetryAfter != nil {
			reset = reset.Add(*abuse.RetryAfter)
		}
		g.observe(RateLimitState{Reset: reset})
		return reset, true
	}
	var er *github.ErrorResponse
	if errors.As(err, &er) && er.Response != nil && er.Response.StatusCode == http.StatusTooManyRequests {
		g.observe(RateLimitState{})
		return time.Time{}, true
	}
	return time.Time{}, false
}

type response[T any] struct {
	value T
	resp  *github.Response
}

// call runs fn on a pool worker, waiting out rate-limit rejections.
func call[T any](ctx context.Context, g *Gateway, operation string, fn func(context.Context) (T, *github.Response, error)) (T, *github.Response, error) {
	r, err := retry.UntilReset(ctx, g.retry, operation, g.classify, func() (response[T], error) {
		if err := g.pool.Acquire(ctx, 1); err != nil {
			return response[T]{}, err
		}
		defer g.pool.Release(1)

		v, resp, err := fn(ctx)
		return response[T]{value: v, resp: resp}, err
	})
	return r.value, r.resp, err
}
