/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package gateway wraps the GitHub operations the issue-to-PR workflow needs:
// repository lookup, issue fetch, tree listing, branch creation, file writes
// and pull request creation.
//
// Every call goes through a bounded worker pool shared by all workflows using
// the same Gateway, and is retried transparently when GitHub rejects it for
// rate limiting: the call sleeps until the reported reset plus a safety margin
// and is then issued again. That wait is unbounded unless configured with
// WithRetryConfig.
//
// All mutating calls are externally visible. There is no dry-run mode.
package gateway
