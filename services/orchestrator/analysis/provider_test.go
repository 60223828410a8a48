// Copyright (C) 2025 ChainSight AI (eng@chainsight.ai)
// Tests for the analysis provider adapter

package analysis

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainsight-ai/chainsight/services/llm"
	"github.com/chainsight-ai/chainsight/services/orchestrator/datatypes"
)

type stubLLM struct {
	reply      string
	err        error
	healthy    bool
	lastPrompt string
}

func (s *stubLLM) Generate(_ context.Context, prompt string, _ llm.GenerationParams) (string, error) {
	s.lastPrompt = prompt
	return s.reply, s.err
}

func (s *stubLLM) Healthy(_ context.Context) bool { return s.healthy }

const conformingReply = `{
  "overallRiskScore": 6.5,
  "supplierRiskScore": 8,
  "logisticsRiskScore": 5,
  "geopoliticalRiskScore": 6,
  "vulnerabilities": [
    {"id": "vuln-1", "title": "Single sourced PCBs", "description": "One supplier covers all boards",
     "severity": "HIGH", "score": 8.2, "impactTimeline": "1-2 months", "potentialCost": "$2M revenue at risk"}
  ],
  "recommendations": [
    {"id": "rec-1", "title": "Qualify second source", "description": "Add a second PCB supplier",
     "timeline": "6 months", "priority": "Critical"}
  ]
}`

func providerFacts() datatypes.AssessmentFacts {
	return datatypes.AssessmentFacts{
		CompanyName: "Globex Manufacturing",
		Industry:    "Electronics",
		Suppliers: []datatypes.Supplier{
			{Name: "Acme Components", Location: "Taipei, Taiwan", Criticality: datatypes.CriticalityHigh, Products: "PCBs"},
		},
		LogisticsRoutes: "Trans-Pacific eastbound",
		TransportModes:  datatypes.TransportModes{Ocean: true, Air: true},
		RiskFactors:     "typhoon season",
	}
}

// =============================================================================
// Parsing Tests
// =============================================================================

func TestAnalyze_ParsesBareJSON(t *testing.T) {
	p, err := NewProvider(&stubLLM{reply: conformingReply})
	require.NoError(t, err)

	result, err := p.Analyze(context.Background(), providerFacts())
	require.NoError(t, err)

	assert.Equal(t, 6.5, result.OverallRiskScore)
	assert.Equal(t, 8.0, result.SupplierRiskScore)
	require.Len(t, result.Vulnerabilities, 1)
	assert.Equal(t, datatypes.SeverityHigh, result.Vulnerabilities[0].Severity)
	require.Len(t, result.Recommendations, 1)
	assert.Equal(t, datatypes.PriorityCritical, result.Recommendations[0].Priority)
}

func TestAnalyze_ParsesFencedJSON(t *testing.T) {
	fenced := "Here is the assessment you asked for:\n```json\n" + conformingReply + "\n```\nLet me know if you need more."
	p, err := NewProvider(&stubLLM{reply: fenced})
	require.NoError(t, err)

	result, err := p.Analyze(context.Background(), providerFacts())
	require.NoError(t, err)
	assert.Equal(t, 6.5, result.OverallRiskScore)
}

// =============================================================================
// Failure Mode Tests
// =============================================================================

func TestAnalyze_FailureModes(t *testing.T) {
	tests := []struct {
		name string
		stub *stubLLM
	}{
		{"backend error", &stubLLM{err: fmt.Errorf("connection refused")}},
		{"empty reply", &stubLLM{reply: ""}},
		{"no JSON in reply", &stubLLM{reply: "I cannot assess this supply chain."}},
		{"malformed JSON", &stubLLM{reply: `{"overallRiskScore": 6.5,`}},
		{"score above range", &stubLLM{reply: `{"overallRiskScore": 15, "supplierRiskScore": 5, "logisticsRiskScore": 5, "geopoliticalRiskScore": 5, "vulnerabilities": [], "recommendations": []}`}},
		{"negative score", &stubLLM{reply: `{"overallRiskScore": -2, "supplierRiskScore": 5, "logisticsRiskScore": 5, "geopoliticalRiskScore": 5, "vulnerabilities": [], "recommendations": []}`}},
		{"invalid severity enum", &stubLLM{reply: `{"overallRiskScore": 5, "supplierRiskScore": 5, "logisticsRiskScore": 5, "geopoliticalRiskScore": 5,
			"vulnerabilities": [{"id": "v", "title": "t", "description": "d", "severity": "severe", "score": 5}], "recommendations": []}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.stub)
			require.NoError(t, err)

			_, err = p.Analyze(context.Background(), providerFacts())
			assert.Error(t, err, "non-conforming payloads must never pass through partially")
		})
	}
}

func TestNewProvider_RequiresClient(t *testing.T) {
	_, err := NewProvider(nil)
	assert.Error(t, err)
}

// =============================================================================
// Prompt Tests
// =============================================================================

func TestAnalyze_PromptCarriesFactsAndSchema(t *testing.T) {
	stub := &stubLLM{reply: conformingReply}
	p, err := NewProvider(stub)
	require.NoError(t, err)

	_, err = p.Analyze(context.Background(), providerFacts())
	require.NoError(t, err)

	assert.Contains(t, stub.lastPrompt, "Globex Manufacturing")
	assert.Contains(t, stub.lastPrompt, "Acme Components")
	assert.Contains(t, stub.lastPrompt, "Taipei, Taiwan")
	assert.Contains(t, stub.lastPrompt, "typhoon season")
	assert.Contains(t, stub.lastPrompt, "ocean, air")
	assert.Contains(t, stub.lastPrompt, `"overallRiskScore"`)
	assert.Contains(t, stub.lastPrompt, `"severity"`)
}

func TestHealthy_DelegatesToBackend(t *testing.T) {
	p, err := NewProvider(&stubLLM{healthy: true})
	require.NoError(t, err)
	assert.True(t, p.Healthy(context.Background()))

	p, err = NewProvider(&stubLLM{healthy: false})
	require.NoError(t, err)
	assert.False(t, p.Healthy(context.Background()))
}
