package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/glaucoma-risk-server/internal/cache"
	"github.com/glaucoma-risk-server/internal/domain"
)

// ConfiguredWeightSource resolves weights from the admin-maintained score
// configuration, with an optional read-through cache in front of the store.
// A store failure is reported as a miss so calculation proceeds via the
// legacy fallback.
type ConfiguredWeightSource struct {
	repo    domain.ScoreConfigRepository
	weights *cache.WeightCache
	log     *logrus.Logger
}

// NewConfiguredWeightSource creates a configured weight source. weights may
// be nil to disable caching.
func NewConfiguredWeightSource(repo domain.ScoreConfigRepository, weights *cache.WeightCache, logger *logrus.Logger) *ConfiguredWeightSource {
	return &ConfiguredWeightSource{
		repo:    repo,
		weights: weights,
		log:     logger,
	}
}

// Lookup implements domain.WeightSource.
func (s *ConfiguredWeightSource) Lookup(ctx context.Context, questionID, optionValue string) (int, bool) {
	if s.weights != nil {
		if score, ok := s.weights.Get(ctx, questionID, optionValue); ok {
			return score, true
		}
	}

	score, err := s.repo.Lookup(ctx, questionID, optionValue)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.log.WithFields(logrus.Fields{
				"question_id":  questionID,
				"option_value": optionValue,
			}).WithError(err).Warn("Score config lookup failed, treating as missing")
		}
		return 0, false
	}

	if s.weights != nil {
		s.weights.Set(ctx, questionID, optionValue, score)
	}
	return score, true
}

// legacyWeight is one entry of the fixed legacy table. Entries are consulted
// in declaration order.
type legacyWeight struct {
	questionID  string
	optionValue string
	score       int
}

// Legacy questions predate the configurable score table and are not present
// in it. Race carries a two-tier weight; everything else scores 2 for the
// elevated answer.
var legacyWeights = []legacyWeight{
	{"familyGlaucoma", "yes", 2},
	{"ocularSteroids", "yes", 2},
	{"systemicSteroids", "yes", 2},
	{"iopBaseline", "elevated", 2},
	{"vcdAsymmetry", "yes", 2},
	{"cupDiscRatio", "elevated", 2},
	{"race", "black", 2},
	{"race", "hispanic", 1},
}

// LegacyWeightSource serves the fixed table of hardcoded legacy weights. It
// is tried only after the configured source misses and never overrides a
// configured entry.
type LegacyWeightSource struct{}

// NewLegacyWeightSource creates a legacy weight source.
func NewLegacyWeightSource() *LegacyWeightSource {
	return &LegacyWeightSource{}
}

// Lookup implements domain.WeightSource.
func (s *LegacyWeightSource) Lookup(_ context.Context, questionID, optionValue string) (int, bool) {
	for _, w := range legacyWeights {
		if w.questionID == questionID && strings.EqualFold(w.optionValue, optionValue) {
			return w.score, true
		}
	}
	return 0, false
}

// legacyQuestionLabels maps known question-id keywords to human-readable
// labels for contributing factors.
var legacyQuestionLabels = []struct {
	keyword string
	label   string
}{
	{"familyglaucoma", "Family history of glaucoma"},
	{"ocularsteroid", "Ocular steroid use"},
	{"systemicsteroid", "Systemic steroid use"},
	{"iop", "Baseline intraocular pressure"},
	{"vcdasymmetry", "Vertical cup-to-disc asymmetry"},
	{"cupdisc", "Vertical cup-to-disc ratio"},
	{"race", "Race"},
}

// questionLabel returns a best-effort human-readable label for a question id,
// falling back to the raw id when no keyword matches.
func questionLabel(questionID string) string {
	lower := strings.ToLower(questionID)
	for _, entry := range legacyQuestionLabels {
		if strings.Contains(lower, entry.keyword) {
			return entry.label
		}
	}
	return questionID
}
