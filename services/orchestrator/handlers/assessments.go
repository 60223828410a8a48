// Copyright (C) 2025 ChainSight AI (eng@chainsight.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chainsight-ai/chainsight/pkg/validation"
	"github.com/chainsight-ai/chainsight/services/orchestrator/datatypes"
	"github.com/chainsight-ai/chainsight/services/orchestrator/observability"
	"github.com/chainsight-ai/chainsight/services/orchestrator/store"
)

// Launcher is the slice of the lifecycle engine the handlers need.
type Launcher interface {
	Launch(id string, facts datatypes.AssessmentFacts)
	Relaunch(id string) error
}

// CreateAssessment accepts a facts submission, stores a pending record, and
// kicks off the asynchronous analysis. The response is the pending record;
// clients poll GET /v1/assessments/:id until the status leaves processing.
func CreateAssessment(st store.Store, engine Launcher,
	metrics *observability.AssessmentMetrics) gin.HandlerFunc {

	return func(c *gin.Context) {
		var facts datatypes.AssessmentFacts
		if err := c.ShouldBindJSON(&facts); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
		if err := facts.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		rec, err := st.Create(facts)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		metrics.ObserveSubmission()
		engine.Launch(rec.ID, rec.Facts)

		slog.Info("Accepted assessment submission",
			"assessment_id", rec.ID, "company", facts.CompanyName,
			"suppliers", len(facts.Suppliers))
		c.JSON(http.StatusCreated, rec)
	}
}

// ListAssessments returns all records, newest first.
func ListAssessments(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, st.List())
	}
}

// GetAssessment returns one record by id, or 404.
func GetAssessment(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := validation.ValidateAssessmentID(id); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		rec, err := st.Get(id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "assessment not found"})
				return
			}
			slog.Error("Failed to load assessment", "assessment_id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load assessment"})
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}

// PatchAssessment merges partial fields into a record. Operationally this is
// how a record is reset to pending for a manual retry.
func PatchAssessment(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := validation.ValidateAssessmentID(id); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var upd datatypes.RecordUpdate
		if err := c.ShouldBindJSON(&upd); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
		if err := upd.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		rec, err := st.Update(id, upd)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "assessment not found"})
				return
			}
			slog.Error("Failed to update assessment", "assessment_id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update assessment"})
			return
		}

		slog.Info("Patched assessment", "assessment_id", id)
		c.JSON(http.StatusOK, rec)
	}
}

// RetryAssessment resets a finished record to pending and re-runs the
// analysis with the stored facts.
func RetryAssessment(engine Launcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := validation.ValidateAssessmentID(id); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := engine.Relaunch(id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "assessment not found"})
				return
			}
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}

		slog.Info("Retry started for assessment", "assessment_id", id)
		c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "id": id})
	}
}
