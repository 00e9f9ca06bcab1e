package analysis

import (
	"testing"

	"github.com/aristath/greenfolio/internal/modules/risk"
	"github.com/aristath/greenfolio/internal/modules/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRulesEngine_DefaultRules(t *testing.T) {
	engine, err := NewRulesEngine(DefaultRules)
	require.NoError(t, err)
	assert.Equal(t, 2, engine.Len())

	tests := []struct {
		name     string
		total    float64
		severity float64
		expected []string
	}{
		{
			name:     "healthy project",
			total:    82,
			severity: 0.1,
			expected: []string{},
		},
		{
			name:     "low score",
			total:    69.9,
			severity: 0.2,
			expected: []string{"Consider improving ESG metrics through targeted initiatives"},
		},
		{
			name:     "score exactly at threshold",
			total:    70,
			severity: 0.6,
			expected: []string{},
		},
		{
			name:     "high risk",
			total:    90,
			severity: 0.61,
			expected: []string{"High risk level detected. Review risk mitigation strategies"},
		},
		{
			name:     "both",
			total:    40,
			severity: 0.9,
			expected: []string{
				"Consider improving ESG metrics through targeted initiatives",
				"High risk level detected. Review risk mitigation strategies",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := scoring.Result{Total: tt.total, Risk: risk.Analysis{MeanSeverity: tt.severity, Count: 1}}
			got, err := engine.Recommend(res)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestRulesEngine_CustomRuleUsesAllVariables(t *testing.T) {
	engine, err := NewRulesEngine([]Rule{{
		ID:         "unmitigated",
		Expression: "risk_count > 2 && mitigation_coverage < 0.5 && governance < 50.0 && max_severity >= 0.5",
		Message:    "Add mitigation strategies",
	}})
	require.NoError(t, err)

	res := scoring.Result{
		Governance: scoring.PillarScore{Value: 40},
		Risk:       risk.Analysis{Count: 3, MitigationCoverage: 0.2, MaxSeverity: 0.5},
	}
	got, err := engine.Recommend(res)
	require.NoError(t, err)
	assert.Equal(t, []string{"Add mitigation strategies"}, got)

	res.Risk.Count = 2
	got, err = engine.Recommend(res)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNewRulesEngine_RejectsBadRules(t *testing.T) {
	_, err := NewRulesEngine([]Rule{{ID: "syntax", Expression: "total_score <"}})
	assert.ErrorContains(t, err, "syntax")

	_, err = NewRulesEngine([]Rule{{ID: "unknown_var", Expression: "carbon > 1.0"}})
	assert.ErrorContains(t, err, "unknown_var")

	_, err = NewRulesEngine([]Rule{{ID: "not_bool", Expression: "total_score * 2.0"}})
	assert.ErrorContains(t, err, "must return bool")
}
