/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"
)

// app holds what the commands read from the process environment.
type app struct {
	lookup func(string) (string, bool)
	stderr io.Writer
	cfg    config
	tel    *telemetry
}

func newApp() *app {
	return &app{lookup: os.LookupEnv, stderr: os.Stderr}
}

func (a *app) Lookup(key string) (string, bool) { return a.lookup(key) }

var _ envconfig.Lookuper = (*app)(nil)

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "prproposer",
		Short:         "Propose pull requests for GitHub issues using language models",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(ctx, a)
			if err != nil {
				return err
			}
			a.cfg = cfg

			handler, err := newLogHandler(a.stderr, cfg.LogFormat, cfg.LogLevel)
			if err != nil {
				return err
			}
			ctx = clog.WithLogger(ctx, clog.New(handler))
			cmd.SetContext(ctx)

			a.close(ctx)
			if a.tel, err = newTelemetry(ctx, cfg); err != nil {
				return err
			}
			return nil
		},
	}
	root.AddCommand(newRunCommand(a), newGenerateCommand(a), newStatusCommand(a), newBackendsCommand(a))
	return root
}

// close flushes telemetry set up by the root command.
func (a *app) close(ctx context.Context) {
	if err := a.tel.shutdown(ctx); err != nil {
		clog.FromContext(ctx).With("error", err).Warn("Failed to flush telemetry")
	}
	a.tel = nil
}

func newLogHandler(w io.Writer, format, level string) (slog.Handler, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, opts), nil
	}
	return slog.NewTextHandler(w, opts), nil
}
