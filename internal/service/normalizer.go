// Package service implements the glaucoma risk scoring core: weight
// resolution, risk-level normalization, advice matching, and the calculator
// that ties them together.
package service

import (
	"strings"

	"github.com/glaucoma-risk-server/internal/domain"
)

// NormalizeRiskLevel canonicalizes admin-entered risk-level text. Matching is
// by substring in priority order: "low", then "mod"/"med", then "high".
// Unrecognized text is returned unchanged and treated as Unknown downstream.
// Idempotent: canonical outputs normalize to themselves.
func NormalizeRiskLevel(text string) domain.RiskLevel {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "low"):
		return domain.RiskLow
	case strings.Contains(lower, "mod"), strings.Contains(lower, "med"):
		return domain.RiskModerate
	case strings.Contains(lower, "high"):
		return domain.RiskHigh
	}
	return domain.RiskLevel(text)
}
