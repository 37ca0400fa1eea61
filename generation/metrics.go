/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package generation

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// MeterName is the OpenTelemetry meter the counters are created on.
const MeterName = "chainguard.dev/prproposer/generation"

// Attempt outcomes.
const (
	OutcomeOK         = "ok"
	OutcomeCallError  = "call_error"
	OutcomeEmpty      = "empty"
	OutcomeParseError = "parse_error"
)

// Metrics records token usage and backend attempts.
// A nil *Metrics records nothing.
type Metrics struct {
	promptTokens     metric.Int64Counter
	completionTokens metric.Int64Counter
	attempts         metric.Int64Counter
}

// NewMetrics creates counters on provider, or on the global provider when
// provider is nil. A counter that cannot be created is replaced by a no-op.
func NewMetrics(provider metric.MeterProvider) *Metrics {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(MeterName, metric.WithInstrumentationVersion("1.0.0"))

	promptTokens, err := meter.Int64Counter("genai.token.prompt",
		metric.WithDescription("The number of prompt tokens used"),
		metric.WithUnit("{tokens}"))
	if err != nil {
		slog.Warn("Failed to create prompt tokens counter, metrics will be disabled", "error", err, "meter", MeterName)
		promptTokens = noop.Int64Counter{}
	}

	completionTokens, err := meter.Int64Counter("genai.token.completion",
		metric.WithDescription("The number of completion tokens used"),
		metric.WithUnit("{tokens}"))
	if err != nil {
		slog.Warn("Failed to create completion tokens counter, metrics will be disabled", "error", err, "meter", MeterName)
		completionTokens = noop.Int64Counter{}
	}

	attempts, err := meter.Int64Counter("generation.backend.attempts",
		metric.WithDescription("Backend calls by outcome"),
		metric.WithUnit("{calls}"))
	if err != nil {
		slog.Warn("Failed to create attempts counter, metrics will be disabled", "error", err, "meter", MeterName)
		attempts = noop.Int64Counter{}
	}

	return &Metrics{
		promptTokens:     promptTokens,
		completionTokens: completionTokens,
		attempts:         attempts,
	}
}

// RecordTokens records the usage reported for one call.
func (m *Metrics) RecordTokens(ctx context.Context, backend, model string, prompt, completion int64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("backend", backend),
		attribute.String("model", model),
	)
	m.promptTokens.Add(ctx, prompt, attrs)
	m.completionTokens.Add(ctx, completion, attrs)
}

// RecordAttempt records one backend call and how it ended.
func (m *Metrics) RecordAttempt(ctx context.Context, backend, outcome string) {
	if m == nil {
		return
	}
	m.attempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("backend", backend),
		attribute.String("outcome", outcome),
	))
}
