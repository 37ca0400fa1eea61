/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"chainguard.dev/prproposer/gateway"
	"chainguard.dev/prproposer/generation"
	"chainguard.dev/prproposer/workflow"
)

type runOptions struct {
	concurrency int
	metricsAddr string
}

func newRunCommand(a *app) *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run owner/name#N [owner/name#N...]",
		Short: "Propose a pull request for each issue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			targets := make([]target, 0, len(args))
			for _, arg := range args {
				t, err := parseTarget(arg)
				if err != nil {
					return err
				}
				targets = append(targets, t)
			}
			return a.run(cmd.Context(), cmd.OutOrStdout(), opts, targets)
		},
	}
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "c", 4, "Maximum number of issues processed at once")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running (e.g. :2112)")
	return cmd
}

// newOrchestrator builds the backend chain with metrics on the invocation's
// meter provider.
func (a *app) newOrchestrator(ctx context.Context) (*generation.Orchestrator, error) {
	ds, err := descriptors(a.cfg, a.lookup)
	if err != nil {
		return nil, err
	}
	genMetrics := generation.NewMetrics(a.tel.meters)
	backends, err := generation.NewBackends(ctx, ds,
		generation.WithLookupEnv(a.lookup),
		generation.WithBackendMetrics(genMetrics))
	if err != nil {
		return nil, err
	}
	orch, err := generation.New(backends, generation.WithMetrics(genMetrics))
	if err != nil {
		return nil, err
	}
	clog.FromContext(ctx).With("backends", orch.Backends()).Info("Configured backend chain")
	return orch, nil
}

func (a *app) newCoordinator(ctx context.Context, gw *gateway.Gateway) (*workflow.Coordinator, error) {
	orch, err := a.newOrchestrator(ctx)
	if err != nil {
		return nil, err
	}
	return workflow.New(gw, orch,
		workflow.WithBranchPrefix(a.cfg.BranchPrefix),
		workflow.WithMetrics(workflow.NewMetrics(a.tel.registry)),
		workflow.WithTracer(a.tel.tracers.Tracer(workflow.TracerName)))
}

func (a *app) run(ctx context.Context, out io.Writer, opts runOptions, targets []target) error {
	if opts.concurrency < 1 {
		return errors.New("concurrency must be at least 1")
	}
	log := clog.FromContext(ctx)

	gw, err := newGateway(ctx, a.cfg)
	if err != nil {
		return err
	}
	coord, err := a.newCoordinator(ctx, gw)
	if err != nil {
		return err
	}

	if opts.metricsAddr != "" {
		stop, err := serveMetrics(ctx, opts.metricsAddr, a.tel.registry, statusHandler(coord.Registry(), gw))
		if err != nil {
			return err
		}
		defer stop()
	}

	var mu sync.Mutex
	results := make([]workflow.Result, len(targets))
	var eg errgroup.Group
	eg.SetLimit(opts.concurrency)
	for i, t := range targets {
		eg.Go(func() error {
			results[i] = coord.Run(ctx, workflow.Request{
				Repository:  t.Repository,
				IssueNumber: t.Issue,
				Progress: func(msg string) {
					mu.Lock()
					defer mu.Unlock()
					fmt.Fprintf(out, "[%s] %s\n", t, msg)
				},
			})
			return nil
		})
	}
	_ = eg.Wait()

	stats := coord.Registry().Stats()
	if err := printSummary(out, targets, results, stats); err != nil {
		return err
	}

	log.With("succeeded", stats.Succeeded, "failed", stats.Failed,
		"recorded", len(coord.Registry().History()), "elapsed", time.Since(stats.Since)).Info("All runs finished")
	if stats.Failed > 0 {
		return fmt.Errorf("%d of %d runs failed", stats.Failed, len(targets))
	}
	return nil
}

func printSummary(out io.Writer, targets []target, results []workflow.Result, stats workflow.Stats) error {
	r := newReport(text("Issue"), text("Outcome"), text("Stage"), text("Backend"), number("Changes"), text("Result"))
	applied, proposed := 0, 0
	for i, res := range results {
		detail := res.PullRequest.URL
		if res.Err != nil {
			detail = res.Err.Error()
		}
		applied += res.Applied
		proposed += res.ChangeCount
		r.add(
			targets[i].String(),
			res.Outcome(),
			res.Stage.String(),
			res.Backend,
			fmt.Sprintf("%d/%d", res.Applied, res.ChangeCount),
			detail,
		)
	}
	r.total(
		fmt.Sprintf("%d issues", len(results)),
		fmt.Sprintf("%d ok, %d failed", stats.Succeeded, stats.Failed),
		"", "",
		fmt.Sprintf("%d/%d", applied, proposed),
		"",
	)
	return r.write(out)
}

// serveMetrics serves reg on /metrics and status on /status until the
// returned stop function is called.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, status http.Handler) (func(), error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening for metrics: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.Handle("/status", status)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	log := clog.FromContext(ctx)
	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.With("error", err).Error("Metrics server failed")
		}
	}()
	log.With("addr", lis.Addr().String()).Info("Serving metrics")

	return func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
