package service

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/glaucoma-risk-server/internal/domain"
)

// NoMatchAdviceText is returned when no advice record matches the computed
// score or risk level.
const NoMatchAdviceText = "No specific recommendation is available for your risk level. Please consult an eye care professional."

// MatchStrategy attempts to select an advice record for a computed score and
// risk level, reporting false when it has no match.
type MatchStrategy func(totalScore int, level domain.RiskLevel, advice []domain.AdviceRecord) (domain.AdviceRecord, bool)

// MatchResolver selects the best-matching advice record using an ordered set
// of strategies, first match wins. Score-range matching comes first because
// the range is computed from the same answers as the score; label matching is
// a fallback since admin-entered labels are unvalidated free text.
type MatchResolver struct {
	strategies []MatchStrategy
	log        *logrus.Logger
}

// NewMatchResolver creates a resolver with the standard strategy order:
// score range, exact label, case-insensitive label.
func NewMatchResolver(logger *logrus.Logger) *MatchResolver {
	return &MatchResolver{
		strategies: []MatchStrategy{
			matchByScoreRange,
			matchByExactLevel,
			matchByFoldedLevel,
		},
		log: logger,
	}
}

// Resolve returns the advice text for the first matching record and the risk
// level to report. The level is always the calculated one; a record's label
// never overrides the score-derived category.
func (r *MatchResolver) Resolve(totalScore int, level domain.RiskLevel, advice []domain.AdviceRecord) (string, domain.RiskLevel) {
	for i, strategy := range r.strategies {
		if rec, ok := strategy(totalScore, level, advice); ok {
			r.log.WithFields(logrus.Fields{
				"total_score": totalScore,
				"risk_level":  string(level),
				"strategy":    i,
				"advice_id":   rec.ID,
			}).Debug("Advice record matched")
			return rec.Advice, level
		}
	}

	r.log.WithFields(logrus.Fields{
		"total_score": totalScore,
		"risk_level":  string(level),
	}).Warn("No advice record matched, using generic recommendation")
	return NoMatchAdviceText, level
}

// matchByScoreRange returns the first record whose inclusive range contains
// the score.
func matchByScoreRange(totalScore int, _ domain.RiskLevel, advice []domain.AdviceRecord) (domain.AdviceRecord, bool) {
	for _, rec := range advice {
		if rec.MinScore <= totalScore && totalScore <= rec.MaxScore {
			return rec, true
		}
	}
	return domain.AdviceRecord{}, false
}

// matchByExactLevel returns the first record whose label equals the
// calculated level exactly.
func matchByExactLevel(_ int, level domain.RiskLevel, advice []domain.AdviceRecord) (domain.AdviceRecord, bool) {
	for _, rec := range advice {
		if rec.RiskLevel == string(level) {
			return rec, true
		}
	}
	return domain.AdviceRecord{}, false
}

// matchByFoldedLevel returns the first record whose label equals the
// calculated level ignoring case.
func matchByFoldedLevel(_ int, level domain.RiskLevel, advice []domain.AdviceRecord) (domain.AdviceRecord, bool) {
	for _, rec := range advice {
		if strings.EqualFold(rec.RiskLevel, string(level)) {
			return rec, true
		}
	}
	return domain.AdviceRecord{}, false
}
