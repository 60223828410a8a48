// Copyright (C) 2025 ChainSight AI (eng@chainsight.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package analysis turns assessment facts into risk results.
//
// Two paths produce the same AnalysisResult shape: Provider delegates to an
// LLM backend and enforces a strict output schema, and Fallback computes a
// deterministic rule-based result locally. The lifecycle engine treats any
// Provider error - transport failure, empty reply, malformed JSON, schema
// violation - identically, so this package never distinguishes them beyond
// the error message.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chainsight-ai/chainsight/services/llm"
	"github.com/chainsight-ai/chainsight/services/orchestrator/datatypes"
)

// Provider adapts a generic LLM backend into the assessment contract.
type Provider struct {
	client llm.LLMClient
}

func NewProvider(client llm.LLMClient) (*Provider, error) {
	if client == nil {
		return nil, fmt.Errorf("analysis provider requires an LLM client")
	}
	return &Provider{client: client}, nil
}

// Analyze sends the facts to the LLM backend and parses the reply against
// the strict result schema. The caller bounds the call with its context;
// this method does not install its own deadline.
func (p *Provider) Analyze(ctx context.Context, facts datatypes.AssessmentFacts) (*datatypes.AnalysisResult, error) {
	prompt := buildPrompt(facts)

	temp := float32(0.2)
	maxTokens := 2048
	raw, err := p.client.Generate(ctx, prompt, llm.GenerationParams{
		Temperature: &temp,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("analysis generation failed: %w", err)
	}

	payload, err := extractJSON(raw)
	if err != nil {
		slog.Warn("Provider reply carried no JSON object", "reply_length", len(raw))
		return nil, err
	}

	var result datatypes.AnalysisResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("failed to parse analysis result: %w", err)
	}
	if err := result.Validate(); err != nil {
		return nil, err
	}
	return &result, nil
}

// Healthy reports the backend's advisory health probe.
func (p *Provider) Healthy(ctx context.Context) bool {
	return p.client.Healthy(ctx)
}

// buildPrompt serializes the facts into a natural-language request with the
// output schema spelled out. Models are asked for 3-5 entries per list; the
// parser accepts any count as long as each entry is well-formed.
func buildPrompt(facts datatypes.AssessmentFacts) string {
	var b strings.Builder

	b.WriteString("Assess the supply chain risk for the following company and respond ")
	b.WriteString("with a single JSON object only, no prose and no markdown fences.\n\n")

	fmt.Fprintf(&b, "Company: %s\nIndustry: %s\n", facts.CompanyName, facts.Industry)
	fmt.Fprintf(&b, "Logistics routes: %s\n", facts.LogisticsRoutes)
	fmt.Fprintf(&b, "Transport modes: %s\n", transportSummary(facts.TransportModes))
	fmt.Fprintf(&b, "Known risk factors: %s\n", facts.RiskFactors)

	b.WriteString("Suppliers:\n")
	for i, s := range facts.Suppliers {
		fmt.Fprintf(&b, "  %d. %s (%s), criticality %s, products: %s\n",
			i+1, s.Name, s.Location, s.Criticality, s.Products)
	}

	b.WriteString(`
Output schema (all scores are numbers from 0 to 10):
{
  "overallRiskScore": number,
  "supplierRiskScore": number,
  "logisticsRiskScore": number,
  "geopoliticalRiskScore": number,
  "vulnerabilities": [
    {"id": string, "title": string, "description": string,
     "severity": "HIGH"|"MEDIUM"|"LOW", "score": number,
     "impactTimeline": string, "potentialCost": string}
  ],
  "recommendations": [
    {"id": string, "title": string, "description": string,
     "timeline": string, "priority": "Critical"|"High"|"Medium"|"Low"}
  ]
}
Provide 3 to 5 vulnerabilities and 3 to 5 recommendations.
`)
	return b.String()
}

func transportSummary(m datatypes.TransportModes) string {
	var modes []string
	if m.Ocean {
		modes = append(modes, "ocean")
	}
	if m.Air {
		modes = append(modes, "air")
	}
	if m.Truck {
		modes = append(modes, "truck")
	}
	if m.Rail {
		modes = append(modes, "rail")
	}
	if len(modes) == 0 {
		return "none specified"
	}
	return strings.Join(modes, ", ")
}

// extractJSON pulls the first top-level JSON object out of a model reply.
// Models routinely wrap output in ```json fences or lead with a sentence
// despite instructions, so scan for the outermost brace pair.
func extractJSON(raw string) (string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no JSON object found in provider reply")
	}
	return raw[start : end+1], nil
}
