// Copyright (C) 2025 ChainSight AI (eng@chainsight.ai)
// End-to-end route wiring tests

package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainsight-ai/chainsight/services/llm"
	"github.com/chainsight-ai/chainsight/services/orchestrator/analysis"
	"github.com/chainsight-ai/chainsight/services/orchestrator/datatypes"
	"github.com/chainsight-ai/chainsight/services/orchestrator/lifecycle"
	"github.com/chainsight-ai/chainsight/services/orchestrator/observability"
	"github.com/chainsight-ai/chainsight/services/orchestrator/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// scriptedLLM is a canned backend so the full stack runs without a model.
type scriptedLLM struct {
	reply string
}

func (s *scriptedLLM) Generate(_ context.Context, _ string, _ llm.GenerationParams) (string, error) {
	return s.reply, nil
}

func (s *scriptedLLM) Healthy(_ context.Context) bool { return true }

const scriptedReply = `{
  "overallRiskScore": 6,
  "supplierRiskScore": 7,
  "logisticsRiskScore": 5,
  "geopoliticalRiskScore": 6,
  "vulnerabilities": [
    {"id": "v-1", "title": "Single sourced boards", "description": "d", "severity": "HIGH", "score": 7}
  ],
  "recommendations": [
    {"id": "r-1", "title": "Qualify second source", "description": "d", "priority": "High"}
  ]
}`

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()

	provider, err := analysis.NewProvider(&scriptedLLM{reply: scriptedReply})
	require.NoError(t, err)

	st := store.NewMemoryStore()
	metrics := observability.NewAssessmentMetrics(prometheus.NewRegistry())
	engine, err := lifecycle.NewEngine(st, provider, time.Second, metrics)
	require.NoError(t, err)

	router := gin.New()
	SetupRoutes(router, st, engine, provider, metrics)
	return router
}

func TestRoutes_SubmitThenPollToCompletion(t *testing.T) {
	router := newTestServer(t)

	body, _ := json.Marshal(datatypes.AssessmentFacts{
		CompanyName: "Globex Manufacturing",
		Industry:    "Electronics",
		Suppliers: []datatypes.Supplier{
			{Name: "Acme Components", Location: "Taipei, Taiwan", Criticality: datatypes.CriticalityHigh, Products: "PCBs"},
		},
		LogisticsRoutes: "Trans-Pacific eastbound",
		TransportModes:  datatypes.TransportModes{Ocean: true},
		RiskFactors:     "typhoon season",
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/assessments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created datatypes.AssessmentRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, datatypes.StatusPending, created.Status)

	// Poll the way a dashboard client does until the analysis lands.
	var final datatypes.AssessmentRecord
	require.Eventually(t, func() bool {
		pw := httptest.NewRecorder()
		preq, _ := http.NewRequest("GET", "/v1/assessments/"+created.ID, nil)
		router.ServeHTTP(pw, preq)
		if pw.Code != http.StatusOK {
			return false
		}
		if err := json.Unmarshal(pw.Body.Bytes(), &final); err != nil {
			return false
		}
		return final.Status == datatypes.StatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	require.NotNil(t, final.OverallRiskScore)
	assert.Equal(t, 6.0, *final.OverallRiskScore)
	require.NotNil(t, final.Vulnerabilities)
	assert.Equal(t, "v-1", (*final.Vulnerabilities)[0].ID)

	// The completed record shows up in the collection listing too.
	lw := httptest.NewRecorder()
	lreq, _ := http.NewRequest("GET", "/v1/assessments", nil)
	router.ServeHTTP(lw, lreq)
	require.Equal(t, http.StatusOK, lw.Code)

	var listed []datatypes.AssessmentRecord
	require.NoError(t, json.Unmarshal(lw.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)
}

func TestRoutes_HealthEndpoint(t *testing.T) {
	router := newTestServer(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["providerConnected"])
}

func TestRoutes_MetricsEndpoint(t *testing.T) {
	router := newTestServer(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/metrics", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "go_goroutines") ||
		strings.Contains(w.Body.String(), "# HELP"))
}
