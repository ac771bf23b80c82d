package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/glaucoma-risk-server/internal/domain"
)

func TestNormalizeRiskLevel(t *testing.T) {
	tests := []struct {
		input string
		want  domain.RiskLevel
	}{
		{"Low", domain.RiskLow},
		{"low", domain.RiskLow},
		{"LOW RISK", domain.RiskLow},
		{"Moderate", domain.RiskModerate},
		{"moderate risk", domain.RiskModerate},
		{"mod", domain.RiskModerate},
		{"Medium", domain.RiskModerate},
		{"medium-high", domain.RiskModerate},
		{"High", domain.RiskHigh},
		{"HIGH", domain.RiskHigh},
		{"very high", domain.RiskHigh},
		{"Elevated", domain.RiskLevel("Elevated")},
		{"", domain.RiskLevel("")},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeRiskLevel(tt.input))
		})
	}
}

func TestNormalizeRiskLevelCaseInsensitive(t *testing.T) {
	assert.Equal(t, NormalizeRiskLevel("high"), NormalizeRiskLevel("HIGH"))
	assert.Equal(t, domain.RiskHigh, NormalizeRiskLevel("HIGH"))
}

func TestNormalizeRiskLevelIdempotent(t *testing.T) {
	inputs := []string{"Low", "moderate", "HIGH", "med", "something else"}
	for _, input := range inputs {
		once := NormalizeRiskLevel(input)
		twice := NormalizeRiskLevel(string(once))
		assert.Equal(t, once, twice, "normalize(normalize(%q))", input)
	}
}
