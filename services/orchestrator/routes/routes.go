// Copyright (C) 2025 ChainSight AI (eng@chainsight.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chainsight-ai/chainsight/services/orchestrator/analysis"
	"github.com/chainsight-ai/chainsight/services/orchestrator/handlers"
	"github.com/chainsight-ai/chainsight/services/orchestrator/lifecycle"
	"github.com/chainsight-ai/chainsight/services/orchestrator/observability"
	"github.com/chainsight-ai/chainsight/services/orchestrator/store"
)

func SetupRoutes(router *gin.Engine, st store.Store, engine *lifecycle.Engine,
	provider *analysis.Provider, metrics *observability.AssessmentMetrics) {

	router.GET("/health", handlers.HealthCheck(provider))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	{
		assessments := v1.Group("/assessments")
		{
			assessments.POST("", handlers.CreateAssessment(st, engine, metrics))
			assessments.GET("", handlers.ListAssessments(st))
			assessments.GET("/:id", handlers.GetAssessment(st))
			assessments.PATCH("/:id", handlers.PatchAssessment(st))
			assessments.POST("/:id/retry", handlers.RetryAssessment(engine))
		}
	}
}
