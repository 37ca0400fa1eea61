/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package workflow

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the Prometheus collectors for workflow runs.
// A nil *Metrics records nothing.
type Metrics struct {
	runs          *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	inFlight      prometheus.Gauge
	changes       *prometheus.CounterVec
}

// NewMetrics registers the workflow collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "prproposer_workflow_runs_total",
			Help: "Workflow runs by outcome and final stage.",
		}, []string{"outcome", "stage"}),
		stageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "prproposer_workflow_stage_duration_seconds",
			Help:    "Time spent entering each workflow stage.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 14),
		}, []string{"stage", "outcome"}),
		inFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "prproposer_workflow_runs_in_flight",
			Help: "Workflow runs currently executing.",
		}),
		changes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "prproposer_workflow_changes_applied_total",
			Help: "Changes committed to working branches by backend.",
		}, []string{"backend"}),
	}
}

func (m *Metrics) begin() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

func (m *Metrics) stage(s Stage, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.stageDuration.WithLabelValues(s.String(), outcome).Observe(d.Seconds())
}

func (m *Metrics) finish(res Result) {
	if m == nil {
		return
	}
	m.inFlight.Dec()
	m.runs.WithLabelValues(res.Outcome(), res.Stage.String()).Inc()
	if res.Applied > 0 {
		m.changes.WithLabelValues(res.Backend).Add(float64(res.Applied))
	}
}
