// Copyright (C) 2025 ChainSight AI (eng@chainsight.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package orchestrator assembles the supply-chain risk assessment service.
//
// This package wires the components together: the HTTP surface (gin), the
// in-memory record store, the lifecycle engine that drives assessments from
// pending to completed, the LLM-backed analysis provider with its
// deterministic fallback, and the observability stack (OTel tracing,
// Prometheus metrics).
//
// # Usage
//
//	cfg := orchestrator.Config{Port: 12210, LLMBackend: "ollama"}
//	svc, err := orchestrator.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(svc.Run())
//
// # Thread Safety
//
// All fields are read-only after New() returns. Run() blocks and should
// only be called once per instance.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/chainsight-ai/chainsight/services/llm"
	"github.com/chainsight-ai/chainsight/services/orchestrator/analysis"
	"github.com/chainsight-ai/chainsight/services/orchestrator/lifecycle"
	"github.com/chainsight-ai/chainsight/services/orchestrator/observability"
	"github.com/chainsight-ai/chainsight/services/orchestrator/routes"
	"github.com/chainsight-ai/chainsight/services/orchestrator/store"
)

// Service defines the contract for the assessment service.
type Service interface {
	// Run starts the HTTP server and blocks until shutdown or error.
	Run() error

	// Shutdown flushes telemetry. Call after Run returns.
	Shutdown(ctx context.Context)
}

// Config holds the service configuration. Zero values use defaults.
type Config struct {
	// Port is the HTTP server port. Default: 12210
	Port int

	// LLMBackend specifies the analysis provider backend.
	// Valid values: "openai", "ollama", "claude", "anthropic"
	// Default: "ollama"
	LLMBackend string

	// AnalysisDeadline bounds one provider call before the deterministic
	// fallback takes over. Default: lifecycle.DefaultDeadline (11s)
	AnalysisDeadline time.Duration

	// OTelEndpoint is the OpenTelemetry collector endpoint.
	// If empty, tracing is disabled.
	OTelEndpoint string

	// EnableMetrics enables the Prometheus /metrics endpoint.
	EnableMetrics bool

	// GinMode sets the Gin framework mode.
	// Valid values: "debug", "release", "test"
	GinMode string
}

func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 12210
	}
	if cfg.LLMBackend == "" {
		cfg.LLMBackend = "ollama"
	}
	if cfg.AnalysisDeadline <= 0 {
		cfg.AnalysisDeadline = lifecycle.DefaultDeadline
	}
	return cfg
}

// service implements Service for production use.
type service struct {
	config        Config
	router        *gin.Engine
	store         *store.MemoryStore
	provider      *analysis.Provider
	engine        *lifecycle.Engine
	metrics       *observability.AssessmentMetrics
	tracerCleanup func(context.Context)
}

// New creates an assessment service with the given configuration.
//
// Initialization order: tracer, metrics, LLM backend, provider adapter,
// store, lifecycle engine, router. LLM client creation fails fast when the
// backend's credentials are missing; everything else is local.
func New(cfg Config) (Service, error) {
	s := &service{
		config: applyConfigDefaults(cfg),
	}

	cleanup, err := s.initTracer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	s.tracerCleanup = cleanup

	if s.config.EnableMetrics {
		s.metrics = observability.NewAssessmentMetrics(prometheus.DefaultRegisterer)
		slog.Info("Initialized Prometheus metrics for assessments")
	}

	client, err := newLLMClient(s.config.LLMBackend)
	if err != nil {
		s.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}

	s.provider, err = analysis.NewProvider(client)
	if err != nil {
		s.Shutdown(context.Background())
		return nil, err
	}

	s.store = store.NewMemoryStore()
	s.engine, err = lifecycle.NewEngine(s.store, s.provider, s.config.AnalysisDeadline, s.metrics)
	if err != nil {
		s.Shutdown(context.Background())
		return nil, err
	}

	s.initRouter()
	return s, nil
}

// Run starts the HTTP server and blocks until shutdown or error.
func (s *service) Run() error {
	slog.Info("Starting the assessment server", "port", s.config.Port,
		"llm_backend", s.config.LLMBackend,
		"analysis_deadline", s.config.AnalysisDeadline)
	return s.router.Run(fmt.Sprintf(":%d", s.config.Port))
}

// Shutdown flushes the OTLP exporter.
func (s *service) Shutdown(ctx context.Context) {
	if s.tracerCleanup != nil {
		s.tracerCleanup(ctx)
	}
}

// newLLMClient selects the analysis backend.
func newLLMClient(backend string) (llm.LLMClient, error) {
	switch backend {
	case "openai":
		slog.Info("Using OpenAI LLM backend")
		return llm.NewOpenAIClient()
	case "claude", "anthropic":
		slog.Info("Using Anthropic (Claude) LLM backend")
		return llm.NewAnthropicClient()
	case "ollama":
		slog.Info("Using Ollama LLM backend")
		return llm.NewOllamaClient()
	default:
		slog.Warn("LLM_BACKEND_TYPE not set or invalid, defaulting to ollama", "backend", backend)
		return llm.NewOllamaClient()
	}
}

func (s *service) initRouter() {
	if s.config.GinMode != "" {
		gin.SetMode(s.config.GinMode)
	}
	router := gin.Default()
	if s.config.OTelEndpoint != "" {
		router.Use(otelgin.Middleware("assessment-service"))
	}
	routes.SetupRoutes(router, s.store, s.engine, s.provider, s.metrics)
	s.router = router
}

// initTracer sets up the OTLP/gRPC exporter. When no endpoint is
// configured it returns a no-op cleanup and leaves the default
// (non-recording) tracer provider in place.
func (s *service) initTracer() (func(context.Context), error) {
	if s.config.OTelEndpoint == "" {
		slog.Info("OTEL_EXPORTER_OTLP_ENDPOINT not set, tracing disabled")
		return func(context.Context) {}, nil
	}

	ctx := context.Background()
	conn, err := grpc.NewClient(s.config.OTelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("assessment-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}
