// Copyright (C) 2025 ChainSight AI (eng@chainsight.ai)
// Tests for the deterministic fallback analyzer

package analysis

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainsight-ai/chainsight/services/orchestrator/datatypes"
)

func factsWith(riskFactors string, suppliers ...datatypes.Supplier) datatypes.AssessmentFacts {
	return datatypes.AssessmentFacts{
		CompanyName:     "Vandelay Industries",
		Industry:        "Import/Export",
		Suppliers:       suppliers,
		LogisticsRoutes: "Trans-Pacific eastbound",
		TransportModes:  datatypes.TransportModes{Ocean: true},
		RiskFactors:     riskFactors,
	}
}

func TestFallback_SingleChinaSupplierWithPortCongestion(t *testing.T) {
	facts := factsWith("port congestion issues",
		datatypes.Supplier{Name: "Shenzhen Metals", Location: "Shanghai Port, China", Criticality: datatypes.CriticalityHigh, Products: "alloys"},
	)

	result := Fallback(facts)

	assert.Equal(t, 8.0, result.SupplierRiskScore)
	assert.Equal(t, 7.0, result.LogisticsRiskScore)
	assert.Equal(t, 7.0, result.GeopoliticalRiskScore)
	// round(22/3) = round(7.33) = 7
	assert.Equal(t, 7.0, result.OverallRiskScore)
}

func TestFallback_DiversifiedQuietBaseline(t *testing.T) {
	facts := factsWith("currency fluctuations",
		datatypes.Supplier{Name: "A", Location: "Hamburg, Germany", Criticality: datatypes.CriticalityMedium},
		datatypes.Supplier{Name: "B", Location: "Gdansk, Poland", Criticality: datatypes.CriticalityLow},
		datatypes.Supplier{Name: "C", Location: "Porto, Portugal", Criticality: datatypes.CriticalityLow},
	)

	result := Fallback(facts)

	assert.Equal(t, 5.0, result.SupplierRiskScore)
	assert.Equal(t, 4.0, result.LogisticsRiskScore)
	assert.Equal(t, 4.0, result.GeopoliticalRiskScore)
	// round(13/3) = round(4.33) = 4
	assert.Equal(t, 4.0, result.OverallRiskScore)
}

func TestFallback_KeywordMatchingIsCaseInsensitive(t *testing.T) {
	facts := factsWith("Port strikes expected",
		datatypes.Supplier{Name: "A", Location: "SHENZHEN, CHINA", Criticality: datatypes.CriticalityHigh},
		datatypes.Supplier{Name: "B", Location: "Busan, Korea", Criticality: datatypes.CriticalityLow},
	)

	result := Fallback(facts)

	assert.Equal(t, 7.0, result.LogisticsRiskScore)
	assert.Equal(t, 7.0, result.GeopoliticalRiskScore)
}

func TestFallback_IsDeterministic(t *testing.T) {
	facts := factsWith("port congestion",
		datatypes.Supplier{Name: "Solo Supply", Location: "Ningbo, China", Criticality: datatypes.CriticalityHigh, Products: "housings"},
	)

	first := Fallback(facts)
	second := Fallback(facts)

	assert.True(t, reflect.DeepEqual(first, second),
		"identical facts must produce identical results")
}

func TestFallback_AlwaysConformsToResultSchema(t *testing.T) {
	cases := []datatypes.AssessmentFacts{
		factsWith("", datatypes.Supplier{Name: "A", Location: "X", Criticality: datatypes.CriticalityLow}),
		factsWith("port congestion in china",
			datatypes.Supplier{Name: "A", Location: "Shanghai, China", Criticality: datatypes.CriticalityHigh}),
		factsWith("none",
			datatypes.Supplier{Name: "A", Location: "Austin, USA", Criticality: datatypes.CriticalityLow},
			datatypes.Supplier{Name: "B", Location: "Lyon, France", Criticality: datatypes.CriticalityLow}),
	}

	for _, facts := range cases {
		result := Fallback(facts)
		require.NoError(t, result.Validate())
		assert.Len(t, result.Vulnerabilities, 2)
		assert.Len(t, result.Recommendations, 2)
	}
}
