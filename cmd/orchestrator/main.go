// Copyright (C) 2025 ChainSight AI (eng@chainsight.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command orchestrator starts the ChainSight assessment HTTP server.
//
// It reads configuration from environment variables and starts the server.
//
// # Environment Variables
//
//   - ORCHESTRATOR_PORT: HTTP server port (default: 12210)
//   - LLM_BACKEND_TYPE: analysis backend - openai, ollama, claude (default: ollama)
//   - ANALYSIS_DEADLINE_SECONDS: provider deadline before fallback (default: 11)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector (optional)
//   - ENABLE_METRICS: expose Prometheus /metrics (default: true)
//
// Backend credentials (OPENAI_API_KEY, ANTHROPIC_API_KEY, OLLAMA_BASE_URL)
// are read by the respective LLM clients.
//
// # Usage
//
//	go build -o orchestrator ./cmd/orchestrator
//	./orchestrator
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/chainsight-ai/chainsight/services/orchestrator"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Build configuration from environment variables
	cfg := orchestrator.Config{
		Port:             getEnvInt("ORCHESTRATOR_PORT", 12210),
		LLMBackend:       getEnvString("LLM_BACKEND_TYPE", "ollama"),
		AnalysisDeadline: time.Duration(getEnvInt("ANALYSIS_DEADLINE_SECONDS", 11)) * time.Second,
		OTelEndpoint:     os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		EnableMetrics:    getEnvString("ENABLE_METRICS", "true") == "true",
	}

	slog.Info("Starting assessment orchestrator",
		"port", cfg.Port,
		"llm_backend", cfg.LLMBackend,
		"analysis_deadline", cfg.AnalysisDeadline,
	)

	svc, err := orchestrator.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create orchestrator: %v", err)
	}
	defer svc.Shutdown(context.Background())

	// Run the server (blocks until shutdown)
	if err := svc.Run(); err != nil {
		log.Fatalf("Orchestrator error: %v", err)
	}
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
