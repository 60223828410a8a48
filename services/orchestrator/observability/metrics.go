// Copyright (C) 2025 ChainSight AI (eng@chainsight.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides metrics and instrumentation for the
// assessment service.
//
// # Description
//
// Prometheus metrics for the assessment lifecycle:
//   - Submission counters
//   - Completion counters split by result source (provider vs fallback)
//   - Provider error counters by reason
//   - Analysis duration histograms
//   - In-flight assessment gauge
//
// # Integration
//
// Metrics are exposed via the /metrics endpoint. Use with Prometheus +
// Grafana for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const metricsNamespace = "chainsight"

// Subsystem for assessment lifecycle metrics
const assessmentSubsystem = "assessment"

// Result sources for the completion counter and duration histogram labels.
const (
	SourceProvider = "provider"
	SourceFallback = "fallback"
)

// AssessmentMetrics holds all Prometheus metrics for the assessment
// lifecycle. Initialize once at startup via NewAssessmentMetrics().
//
// A nil *AssessmentMetrics is a valid no-op receiver, which keeps tests and
// metric-less deployments free of registration side effects.
type AssessmentMetrics struct {
	// SubmissionsTotal counts accepted assessment submissions.
	SubmissionsTotal prometheus.Counter

	// CompletionsTotal counts completed assessments.
	// Labels: source (provider, fallback)
	CompletionsTotal *prometheus.CounterVec

	// ProviderErrorsTotal counts analysis provider failures.
	// Labels: reason (timeout, provider_error)
	ProviderErrorsTotal *prometheus.CounterVec

	// AnalysisDurationSeconds measures time from processing to completed.
	// Labels: source (provider, fallback)
	AnalysisDurationSeconds *prometheus.HistogramVec

	// InflightAssessments tracks assessments currently processing.
	InflightAssessments prometheus.Gauge
}

// NewAssessmentMetrics registers the assessment metrics with the given
// registerer. Pass prometheus.DefaultRegisterer for production use.
func NewAssessmentMetrics(reg prometheus.Registerer) *AssessmentMetrics {
	factory := promauto.With(reg)
	return &AssessmentMetrics{
		SubmissionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: assessmentSubsystem,
			Name:      "submissions_total",
			Help:      "Total accepted assessment submissions.",
		}),
		CompletionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: assessmentSubsystem,
			Name:      "completions_total",
			Help:      "Total completed assessments by result source.",
		}, []string{"source"}),
		ProviderErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: assessmentSubsystem,
			Name:      "provider_errors_total",
			Help:      "Total analysis provider failures by reason.",
		}, []string{"reason"}),
		AnalysisDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: assessmentSubsystem,
			Name:      "analysis_duration_seconds",
			Help:      "Seconds from processing start to completion.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10), // 0.25s .. ~128s
		}, []string{"source"}),
		InflightAssessments: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: assessmentSubsystem,
			Name:      "inflight_assessments",
			Help:      "Assessments currently in the processing state.",
		}),
	}
}

func (m *AssessmentMetrics) ObserveSubmission() {
	if m == nil {
		return
	}
	m.SubmissionsTotal.Inc()
}

func (m *AssessmentMetrics) ObserveCompletion(source string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.CompletionsTotal.WithLabelValues(source).Inc()
	m.AnalysisDurationSeconds.WithLabelValues(source).Observe(elapsed.Seconds())
}

func (m *AssessmentMetrics) ObserveProviderError(reason string) {
	if m == nil {
		return
	}
	m.ProviderErrorsTotal.WithLabelValues(reason).Inc()
}

func (m *AssessmentMetrics) IncInflight() {
	if m == nil {
		return
	}
	m.InflightAssessments.Inc()
}

func (m *AssessmentMetrics) DecInflight() {
	if m == nil {
		return
	}
	m.InflightAssessments.Dec()
}
