package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glaucoma-risk-server/internal/domain"
)

// panickingWeightSource simulates an internal defect inside a weight source.
type panickingWeightSource struct{}

func (panickingWeightSource) Lookup(_ context.Context, _, _ string) (int, bool) {
	panic("weight table corrupted")
}

// staticWeightSource serves a fixed weight map for tests.
type staticWeightSource struct {
	weights map[string]int
}

func (s staticWeightSource) Lookup(_ context.Context, questionID, optionValue string) (int, bool) {
	score, ok := s.weights[questionID+"|"+optionValue]
	return score, ok
}

func newTestCalculator(repo *fakeAdviceRepo, sources ...domain.WeightSource) *ScoreCalculator {
	store := newTestStore(repo)
	return NewScoreCalculator(sources, store, NewMatchResolver(quietLogger()), quietLogger())
}

func TestCalculateSingleLegacyFactor(t *testing.T) {
	repo := newFakeAdviceRepo(
		domain.AdviceRecord{MinScore: 0, MaxScore: 2, RiskLevel: "Low", Advice: "See an optometrist for a routine exam"},
		domain.AdviceRecord{MinScore: 3, MaxScore: 5, RiskLevel: "Moderate", Advice: "Schedule a full workup"},
	)
	calc := newTestCalculator(repo, NewLegacyWeightSource())

	result := calc.Calculate(context.Background(), domain.AnswerSet{
		{QuestionID: "familyGlaucoma", Value: "yes"},
	})

	assert.Equal(t, 2, result.TotalScore)
	assert.Equal(t, domain.RiskLow, result.RiskLevel)
	assert.Equal(t, "See an optometrist for a routine exam", result.Advice)
	require.Len(t, result.ContributingFactors, 1)
	assert.Equal(t, "Family history of glaucoma", result.ContributingFactors[0].QuestionLabel)
	assert.Equal(t, "yes", result.ContributingFactors[0].AnswerValue)
	assert.Equal(t, 2, result.ContributingFactors[0].Score)
}

func TestCalculateSumsAcrossAnswers(t *testing.T) {
	repo := newFakeAdviceRepo(
		domain.AdviceRecord{MinScore: 6, MaxScore: 100, RiskLevel: "High", Advice: "Refer to a specialist"},
	)
	calc := newTestCalculator(repo, NewLegacyWeightSource())

	result := calc.Calculate(context.Background(), domain.AnswerSet{
		{QuestionID: "familyGlaucoma", Value: "yes"},
		{QuestionID: "iopBaseline", Value: "elevated"},
		{QuestionID: "race", Value: "black"},
	})

	assert.Equal(t, 6, result.TotalScore)
	assert.Equal(t, domain.RiskHigh, result.RiskLevel)
	assert.Equal(t, "Refer to a specialist", result.Advice)
	assert.Len(t, result.ContributingFactors, 3)
}

func TestCalculateConfiguredSourceOverridesLegacy(t *testing.T) {
	configured := staticWeightSource{weights: map[string]int{"familyGlaucoma|yes": 5}}
	repo := newFakeAdviceRepo(
		domain.AdviceRecord{MinScore: 0, MaxScore: 100, RiskLevel: "Moderate", Advice: "advice"},
	)
	calc := newTestCalculator(repo, configured, NewLegacyWeightSource())

	result := calc.Calculate(context.Background(), domain.AnswerSet{
		{QuestionID: "familyGlaucoma", Value: "yes"},
	})

	assert.Equal(t, 5, result.TotalScore)
}

func TestCalculateKeepsZeroWeightFactors(t *testing.T) {
	configured := staticWeightSource{weights: map[string]int{
		"smoking|never":      0,
		"familyGlaucoma|yes": 2,
	}}
	repo := newFakeAdviceRepo(
		domain.AdviceRecord{MinScore: 0, MaxScore: 100, RiskLevel: "Low", Advice: "advice"},
	)
	calc := newTestCalculator(repo, configured)

	result := calc.Calculate(context.Background(), domain.AnswerSet{
		{QuestionID: "smoking", Value: "never"},
		{QuestionID: "familyGlaucoma", Value: "yes"},
	})

	// A configured zero weight does not move the total but still shows up
	// as a contributing factor.
	assert.Equal(t, 2, result.TotalScore)
	require.Len(t, result.ContributingFactors, 2)
	assert.Equal(t, 0, result.ContributingFactors[0].Score)
	assert.Equal(t, "never", result.ContributingFactors[0].AnswerValue)
	assert.Equal(t, 2, result.ContributingFactors[1].Score)
}

func TestCalculateSkipsEmptyAndUnknownAnswers(t *testing.T) {
	repo := newFakeAdviceRepo(
		domain.AdviceRecord{MinScore: 0, MaxScore: 100, RiskLevel: "Low", Advice: "advice"},
	)
	calc := newTestCalculator(repo, NewLegacyWeightSource())

	result := calc.Calculate(context.Background(), domain.AnswerSet{
		{QuestionID: "familyGlaucoma", Value: ""},
		{QuestionID: "unknownQuestion", Value: "yes"},
		{QuestionID: "familyGlaucoma", Value: "no"},
	})

	assert.Equal(t, 0, result.TotalScore)
	assert.Equal(t, domain.RiskLow, result.RiskLevel)
	assert.Empty(t, result.ContributingFactors)
}

func TestCalculateEmptyAnswerSet(t *testing.T) {
	repo := newFakeAdviceRepo(
		domain.AdviceRecord{MinScore: 0, MaxScore: 2, RiskLevel: "Low", Advice: "Routine exam"},
	)
	calc := newTestCalculator(repo, NewLegacyWeightSource())

	result := calc.Calculate(context.Background(), nil)

	assert.Equal(t, 0, result.TotalScore)
	assert.Equal(t, domain.RiskLow, result.RiskLevel)
	assert.Equal(t, "Routine exam", result.Advice)
}

func TestCalculateRecoversFromPanic(t *testing.T) {
	repo := newFakeAdviceRepo()
	calc := newTestCalculator(repo, panickingWeightSource{})

	result := calc.Calculate(context.Background(), domain.AnswerSet{
		{QuestionID: "familyGlaucoma", Value: "yes"},
	})

	assert.Equal(t, 0, result.TotalScore)
	assert.Equal(t, domain.RiskUnknown, result.RiskLevel)
	assert.Equal(t, ErrorAdviceText, result.Advice)
	assert.Empty(t, result.ContributingFactors)
}

func TestCalculateServesFallbackAdviceWhenStoreDown(t *testing.T) {
	repo := newFakeAdviceRepo()
	repo.listErr = assert.AnError
	calc := newTestCalculator(repo, NewLegacyWeightSource())

	result := calc.Calculate(context.Background(), domain.AnswerSet{
		{QuestionID: "familyGlaucoma", Value: "yes"},
		{QuestionID: "iopBaseline", Value: "elevated"},
	})

	assert.Equal(t, 4, result.TotalScore)
	assert.Equal(t, domain.RiskModerate, result.RiskLevel)
	assert.Equal(t, DefaultAdviceText, result.Advice)
}
