package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/glaucoma-risk-server/internal/domain"
)

// ScoreCalculator turns a set of questionnaire answers into a risk assessment
// result. Weight sources are consulted in order, first hit wins, so the
// configured table always overrides the legacy built-in weights.
type ScoreCalculator struct {
	sources  []domain.WeightSource
	advice   *RecommendationStore
	resolver *MatchResolver
	log      *logrus.Logger
}

// NewScoreCalculator creates a calculator over the given weight sources.
func NewScoreCalculator(sources []domain.WeightSource, advice *RecommendationStore, resolver *MatchResolver, logger *logrus.Logger) *ScoreCalculator {
	return &ScoreCalculator{
		sources:  sources,
		advice:   advice,
		resolver: resolver,
		log:      logger,
	}
}

// Calculate scores the answers, maps the total onto a risk category, and
// resolves the matching advice text. It never propagates a failure to the
// caller: any panic during calculation yields the zero-score error result.
func (c *ScoreCalculator) Calculate(ctx context.Context, answers domain.AnswerSet) (result domain.RiskAssessmentResult) {
	defer func() {
		if r := recover(); r != nil {
			c.log.WithField("panic", r).Error("Risk calculation failed")
			result = errorResult()
		}
	}()

	totalScore := 0
	factors := make([]domain.ContributingFactor, 0, len(answers))

	for _, answer := range answers {
		if answer.Value == "" {
			continue
		}

		score, ok := c.lookup(ctx, answer.QuestionID, answer.Value)
		if !ok {
			continue
		}

		totalScore += score
		factors = append(factors, domain.ContributingFactor{
			QuestionLabel: questionLabel(answer.QuestionID),
			AnswerValue:   answer.Value,
			Score:         score,
		})
	}

	level := domain.RiskLevelForScore(totalScore)
	records := c.advice.GetAdvice(ctx)
	adviceText, level := c.resolver.Resolve(totalScore, level, records)

	c.log.WithFields(logrus.Fields{
		"total_score": totalScore,
		"risk_level":  string(level),
		"factors":     len(factors),
	}).Info("Risk assessment calculated")

	return domain.RiskAssessmentResult{
		TotalScore:          totalScore,
		RiskLevel:           level,
		Advice:              adviceText,
		ContributingFactors: factors,
	}
}

func (c *ScoreCalculator) lookup(ctx context.Context, questionID, optionValue string) (int, bool) {
	for _, source := range c.sources {
		if score, ok := source.Lookup(ctx, questionID, optionValue); ok {
			return score, true
		}
	}
	return 0, false
}

// errorResult is the safe answer when calculation itself blows up: zero
// score, unknown category, and advice to seek professional care.
func errorResult() domain.RiskAssessmentResult {
	return domain.RiskAssessmentResult{
		TotalScore:          0,
		RiskLevel:           domain.RiskUnknown,
		Advice:              ErrorAdviceText,
		ContributingFactors: []domain.ContributingFactor{},
	}
}
