// Copyright (C) 2025 ChainSight AI (eng@chainsight.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthReporter is the advisory provider-health probe surfaced by /health.
type HealthReporter interface {
	Healthy(ctx context.Context) bool
}

// HealthCheck reports service liveness plus the provider's advisory health.
// providerConnected feeds a UI status banner only; the assessment pipeline
// never consults it.
func HealthCheck(provider HealthReporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		connected := false
		if provider != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			connected = provider.Healthy(ctx)
		}
		c.JSON(http.StatusOK, gin.H{
			"status":            "ok",
			"providerConnected": connected,
			"timestamp":         time.Now().UTC().Format(time.RFC3339),
		})
	}
}
