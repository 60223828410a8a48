// Copyright (C) 2025 ChainSight AI (eng@chainsight.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package lifecycle drives assessment records from pending to completed.
//
// # Description
//
// The engine owns the per-record state machine:
//
//	pending -> processing -> completed
//
// After a record is created the handler calls Launch, which returns
// immediately; all analysis work happens in a background goroutine after
// the HTTP response has been sent. The run races the analysis provider
// against a hard deadline and substitutes the deterministic fallback on
// any provider failure or timeout, so the automatic pipeline always lands
// on completed. The failed state is reserved for store write errors on the
// completion path and for manual operator PATCHes.
//
// # Thread Safety
//
// Launch may be called concurrently for different records. Runs for
// different ids are independent; per-id serialization comes from the
// store's guarded updates, not from the engine.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chainsight-ai/chainsight/services/orchestrator/analysis"
	"github.com/chainsight-ai/chainsight/services/orchestrator/datatypes"
	"github.com/chainsight-ai/chainsight/services/orchestrator/observability"
	"github.com/chainsight-ai/chainsight/services/orchestrator/store"
)

// DefaultDeadline bounds one provider call. Inherited operational constant;
// override via ANALYSIS_DEADLINE_SECONDS.
const DefaultDeadline = 11 * time.Second

// Analyzer is the provider contract the engine races against its deadline.
type Analyzer interface {
	Analyze(ctx context.Context, facts datatypes.AssessmentFacts) (*datatypes.AnalysisResult, error)
}

// Engine runs the assessment lifecycle.
type Engine struct {
	store    store.Store
	provider Analyzer
	deadline time.Duration
	metrics  *observability.AssessmentMetrics
}

// NewEngine builds an engine. metrics may be nil (no-op). A non-positive
// deadline falls back to DefaultDeadline.
func NewEngine(st store.Store, provider Analyzer, deadline time.Duration,
	metrics *observability.AssessmentMetrics) (*Engine, error) {

	if st == nil {
		return nil, fmt.Errorf("lifecycle engine requires a store")
	}
	if provider == nil {
		return nil, fmt.Errorf("lifecycle engine requires an analyzer")
	}
	if deadline <= 0 {
		deadline = DefaultDeadline
	}
	return &Engine{store: st, provider: provider, deadline: deadline, metrics: metrics}, nil
}

// Launch starts the background run for a freshly created record and returns
// immediately. The record must be in pending state; a record that is not
// (because an operator already touched it) is logged and left alone.
func (e *Engine) Launch(id string, facts datatypes.AssessmentFacts) {
	go e.run(id, facts)
}

// Relaunch re-runs the analysis for an existing record. Used by the manual
// retry flow: the record is reset to pending and launched again with its
// stored facts. A record still processing cannot be retried.
func (e *Engine) Relaunch(id string) error {
	rec, err := e.store.Get(id)
	if err != nil {
		return err
	}
	if rec.Status == datatypes.StatusProcessing {
		return fmt.Errorf("assessment %s is still processing", id)
	}
	if rec.Status != datatypes.StatusPending {
		pending := datatypes.StatusPending
		current := rec.Status
		if _, err := e.store.Update(id, datatypes.RecordUpdate{
			Status:   &pending,
			IfStatus: &current,
		}); err != nil {
			return fmt.Errorf("failed to reset assessment %s: %w", id, err)
		}
	}
	e.Launch(id, rec.Facts)
	return nil
}

type analysisOutcome struct {
	result *datatypes.AnalysisResult
	err    error
}

func (e *Engine) run(id string, facts datatypes.AssessmentFacts) {
	processing := datatypes.StatusProcessing
	pendingGuard := datatypes.StatusPending
	if _, err := e.store.Update(id, datatypes.RecordUpdate{
		Status:   &processing,
		IfStatus: &pendingGuard,
	}); err != nil {
		slog.Warn("Assessment left pending state before run started, skipping",
			"assessment_id", id, "error", err)
		return
	}

	e.metrics.IncInflight()
	defer e.metrics.DecInflight()
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), e.deadline)
	defer cancel()

	// Race the provider against the deadline. The channel is buffered so a
	// late provider reply parks in the buffer and is discarded with the
	// goroutine; it never touches the store.
	outcomeCh := make(chan analysisOutcome, 1)
	go func() {
		result, err := e.provider.Analyze(ctx, facts)
		outcomeCh <- analysisOutcome{result: result, err: err}
	}()

	var result *datatypes.AnalysisResult
	source := observability.SourceProvider

	select {
	case out := <-outcomeCh:
		if out.err != nil {
			e.metrics.ObserveProviderError("provider_error")
			slog.Warn("Analysis provider failed, using fallback",
				"assessment_id", id, "error", out.err)
			result = analysis.Fallback(facts)
			source = observability.SourceFallback
		} else {
			result = out.result
		}
	case <-ctx.Done():
		e.metrics.ObserveProviderError("timeout")
		slog.Warn("Analysis provider exceeded deadline, using fallback",
			"assessment_id", id, "deadline", e.deadline)
		result = analysis.Fallback(facts)
		source = observability.SourceFallback
	}

	// Guarded write: applies only while the record is still processing, so
	// whichever path lost the race (or a concurrent operator PATCH) cannot
	// clobber a finished record.
	if _, err := e.store.Update(id, datatypes.CompletionUpdate(result)); err != nil {
		if errors.Is(err, store.ErrStaleWrite) {
			slog.Warn("Assessment finished elsewhere, discarding result",
				"assessment_id", id, "source", source)
			return
		}
		slog.Error("Failed to persist analysis result", "assessment_id", id, "error", err)
		failed := datatypes.StatusFailed
		procGuard := datatypes.StatusProcessing
		if _, ferr := e.store.Update(id, datatypes.RecordUpdate{
			Status:   &failed,
			IfStatus: &procGuard,
		}); ferr != nil {
			slog.Error("Failed to mark assessment failed", "assessment_id", id, "error", ferr)
		}
		return
	}

	e.metrics.ObserveCompletion(source, time.Since(start))
	slog.Info("Assessment completed", "assessment_id", id, "source", source,
		"elapsed", time.Since(start).Round(time.Millisecond))
}
