// Copyright (C) 2025 ChainSight AI (eng@chainsight.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/chainsight-ai/chainsight/services/orchestrator/datatypes"
)

// Rule constants for the fallback heuristic. These are business rules
// inherited as-is; they encode monotonic risk intuition (concentration is
// worse, congestion is worse) rather than any calibrated model.
const (
	SingleSupplierRisk      = 8.0
	DiversifiedSupplierRisk = 5.0
	CongestedLogisticsRisk  = 7.0
	BaselineLogisticsRisk   = 4.0
	ConcentratedGeoRisk     = 7.0
	BaselineGeoRisk         = 4.0
)

// Fallback computes a deterministic rule-based result from the facts.
//
// It is pure and total: no I/O, no randomness, never fails. Identical facts
// yield identical results, including the fixed vulnerability and
// recommendation ids. This is what lets the lifecycle engine promise that
// every assessment reaches completed no matter what the provider does.
func Fallback(facts datatypes.AssessmentFacts) *datatypes.AnalysisResult {
	supplierScore := DiversifiedSupplierRisk
	if len(facts.Suppliers) == 1 {
		supplierScore = SingleSupplierRisk
	}

	logisticsScore := BaselineLogisticsRisk
	riskText := strings.ToLower(facts.RiskFactors)
	if strings.Contains(riskText, "port") || strings.Contains(riskText, "congestion") {
		logisticsScore = CongestedLogisticsRisk
	}

	geoScore := BaselineGeoRisk
	for _, s := range facts.Suppliers {
		if strings.Contains(strings.ToLower(s.Location), "china") {
			geoScore = ConcentratedGeoRisk
			break
		}
	}

	overall := math.Round((supplierScore + logisticsScore + geoScore) / 3)

	concentrationSeverity := datatypes.SeverityMedium
	if len(facts.Suppliers) == 1 {
		concentrationSeverity = datatypes.SeverityHigh
	}
	logisticsSeverity := datatypes.SeverityMedium
	if logisticsScore >= CongestedLogisticsRisk {
		logisticsSeverity = datatypes.SeverityHigh
	}

	return &datatypes.AnalysisResult{
		OverallRiskScore:      overall,
		SupplierRiskScore:     supplierScore,
		LogisticsRiskScore:    logisticsScore,
		GeopoliticalRiskScore: geoScore,
		Vulnerabilities: []datatypes.Vulnerability{
			{
				ID:       "fallback-supplier-concentration",
				Title:    "Supplier concentration",
				Severity: concentrationSeverity,
				Score:    supplierScore,
				Description: fmt.Sprintf(
					"The supply base counts %d supplier(s); a disruption at any one of them propagates directly to production.",
					len(facts.Suppliers)),
				ImpactTimeline: "1-3 months",
				PotentialCost:  "High - production stoppage exposure",
			},
			{
				ID:       "fallback-logistics-bottleneck",
				Title:    "Logistics bottleneck",
				Severity: logisticsSeverity,
				Score:    logisticsScore,
				Description: fmt.Sprintf(
					"Declared routes (%s) concentrate flow through shared corridors; congestion or closure delays all shipments at once.",
					facts.LogisticsRoutes),
				ImpactTimeline: "2-6 weeks",
				PotentialCost:  "Medium - expedited freight premiums",
			},
		},
		Recommendations: []datatypes.Recommendation{
			{
				ID:          "fallback-diversify-suppliers",
				Title:       "Diversify supplier network",
				Description: "Qualify at least one alternative supplier per critical component, preferably in a distinct region.",
				Timeline:    "3-6 months",
				Priority:    datatypes.PriorityHigh,
			},
			{
				ID:          "fallback-optimize-routes",
				Title:       "Optimize logistics routes",
				Description: "Add a secondary routing option for the primary corridor and pre-negotiate capacity with a second carrier.",
				Timeline:    "1-3 months",
				Priority:    datatypes.PriorityMedium,
			},
		},
	}
}
