/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package main is the prproposer command. It turns GitHub issues into
// pull requests proposed by a chain of language-model backends.
//
// Usage:
//
//	prproposer run octo/demo#42 octo/demo#43
//	prproposer generate octo/demo#42
//	prproposer status octo/demo
//	prproposer backends
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/chainguard-dev/clog"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a := newApp()
	err := newRootCommand(a).ExecuteContext(ctx)
	a.close(context.WithoutCancel(ctx))
	if err != nil {
		clog.FatalContextf(ctx, "prproposer: %v", err)
	}
}
