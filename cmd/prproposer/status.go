/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"

	"chainguard.dev/prproposer/gateway"
	"chainguard.dev/prproposer/workflow"
)

func newStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status [owner/name...]",
		Short: "Show the GitHub API budget and the repositories the bot would work on",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			gw, err := newGateway(ctx, a.cfg)
			if err != nil {
				return err
			}
			limits, err := gw.RateLimits(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "GitHub API: %d/%d requests left, resets %s\n",
				limits.Remaining, limits.Limit, limits.Reset.UTC().Format(time.DateTime+" MST"))
			if len(args) == 0 {
				return nil
			}

			r := newReport(text("Repository"), text("Default branch"), number("Stars"), number("Forks"), text("Visibility"))
			for _, id := range args {
				info, err := gw.Describe(ctx, id)
				if err != nil {
					return err
				}
				visibility := "public"
				if info.Private {
					visibility = "private"
				}
				r.add(info.FullName(), info.DefaultBranch, strconv.Itoa(info.Stars), strconv.Itoa(info.Forks), visibility)
			}
			return r.write(out)
		},
	}
}

type runStatus struct {
	RunID       string `json:"run_id"`
	Repository  string `json:"repository"`
	Issue       int    `json:"issue"`
	Stage       string `json:"stage"`
	Outcome     string `json:"outcome"`
	Backend     string `json:"backend,omitempty"`
	PullRequest string `json:"pull_request,omitempty"`
	Error       string `json:"error,omitempty"`
	Duration    string `json:"duration,omitempty"`
}

type rateLimitStatus struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Reset     time.Time `json:"reset"`
}

type serviceStatus struct {
	Since     time.Time        `json:"since"`
	Uptime    string           `json:"uptime"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Active    []runStatus      `json:"active"`
	Recent    []runStatus      `json:"recent"`
	RateLimit *rateLimitStatus `json:"rate_limit,omitempty"`
}

// rateLimiter reports the last rate limit GitHub returned, if any.
type rateLimiter interface {
	RateLimit() (gateway.RateLimitState, bool)
}

func toRunStatus(res workflow.Result) runStatus {
	s := runStatus{
		RunID:       res.RunID,
		Repository:  res.Repository,
		Issue:       res.Issue,
		Stage:       res.Stage.String(),
		Outcome:     res.Outcome(),
		Backend:     res.Backend,
		PullRequest: res.PullRequest.URL,
	}
	if res.Err != nil {
		s.Error = res.Err.Error()
	}
	if res.Duration > 0 {
		s.Duration = res.Duration.Round(time.Millisecond).String()
	}
	return s
}

// statusHandler reports the runs of reg and the GitHub budget as JSON.
func statusHandler(reg *workflow.Registry, gh rateLimiter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stats := reg.Stats()
		status := serviceStatus{
			Since:     stats.Since,
			Uptime:    time.Since(stats.Since).Round(time.Second).String(),
			Succeeded: stats.Succeeded,
			Failed:    stats.Failed,
			Active:    []runStatus{},
			Recent:    []runStatus{},
		}
		for _, res := range reg.Active() {
			status.Active = append(status.Active, toRunStatus(res))
		}
		for _, res := range reg.History() {
			status.Recent = append(status.Recent, toRunStatus(res))
		}
		if limit, ok := gh.RateLimit(); ok {
			status.RateLimit = &rateLimitStatus{Limit: limit.Limit, Remaining: limit.Remaining, Reset: limit.Reset}
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(status); err != nil {
			clog.FromContext(r.Context()).With("error", err).Warn("Failed to write status")
		}
	})
}
