// Package domain contains the core business entities for glaucoma risk
// assessment: questionnaire answers, score weights, admin-authored advice
// records, and the assessment result returned to callers.
package domain

import (
	"errors"
	"time"
)

// RiskLevel is the closed set of risk categories. Admin-entered labels are
// historically free text; this type is enforced at the admin write boundary
// while NormalizeRiskLevel handles legacy data on the read path.
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
	RiskUnknown  RiskLevel = "Unknown"
)

// IsValid reports whether the level is one of the three canonical categories
// accepted from admins. RiskUnknown is a computed outcome, never an input.
func (l RiskLevel) IsValid() bool {
	switch l {
	case RiskLow, RiskModerate, RiskHigh:
		return true
	default:
		return false
	}
}

// String returns the string representation of the risk level.
func (l RiskLevel) String() string {
	return string(l)
}

// RiskLevelForScore maps a total questionnaire score to its risk category:
// 0-2 Low, 3-5 Moderate, 6+ High.
func RiskLevelForScore(totalScore int) RiskLevel {
	switch {
	case totalScore <= 2:
		return RiskLow
	case totalScore <= 5:
		return RiskModerate
	default:
		return RiskHigh
	}
}

// RiskLevelForMinScore derives a risk label for an advice record whose admin
// omitted one. The thresholds differ from RiskLevelForScore on purpose: they
// classify the lower bound of a range, not a patient total.
func RiskLevelForMinScore(minScore int) RiskLevel {
	switch {
	case minScore <= 1:
		return RiskLow
	case minScore <= 3:
		return RiskModerate
	default:
		return RiskHigh
	}
}

// Answer is one questionnaire response.
type Answer struct {
	QuestionID string `json:"question_id"`
	Value      string `json:"value"`
}

// AnswerSet is an ordered collection of questionnaire responses. Order is
// preserved so contributing factors appear in the order the patient answered.
type AnswerSet []Answer

// ScoreConfigEntry is a weight assigned by an admin to one specific answer.
// Entries are read-only within a calculation; mutation happens through admin
// tooling outside this service.
type ScoreConfigEntry struct {
	QuestionID  string `json:"question_id"`
	OptionValue string `json:"option_value"`
	Score       int    `json:"score"`
}

// AdviceRecord is an admin-authored recommendation bound to a score range and
// a risk-level label. RiskLevel holds the label exactly as the admin entered
// it; NormalizedLevel is the canonical form derived on read.
type AdviceRecord struct {
	ID              int64     `json:"id,omitempty"`
	MinScore        int       `json:"min_score"`
	MaxScore        int       `json:"max_score"`
	RiskLevel       string    `json:"risk_level"`
	NormalizedLevel RiskLevel `json:"normalized_level,omitempty"`
	Advice          string    `json:"advice"`
	UpdatedAt       time.Time `json:"updated_at,omitempty"`
}

// AdviceUpdate is the partial record accepted from admin tooling. MinScore
// and MaxScore are pointers so an omitted bound is distinguishable from zero.
type AdviceUpdate struct {
	RiskLevel RiskLevel `json:"risk_level,omitempty"`
	MinScore  *int      `json:"min_score,omitempty"`
	MaxScore  *int      `json:"max_score,omitempty"`
	Advice    string    `json:"advice,omitempty"`
}

// Validate enforces the admin write contract: a risk level or both score
// bounds must be present, and a provided level must be one of the canonical
// categories.
func (u AdviceUpdate) Validate() error {
	if u.RiskLevel == "" && (u.MinScore == nil || u.MaxScore == nil) {
		return NewValidationError("risk_level", "either risk_level or both min_score and max_score are required", nil)
	}
	if u.RiskLevel != "" && !u.RiskLevel.IsValid() {
		return NewValidationError("risk_level", "must be one of Low, Moderate or High", string(u.RiskLevel))
	}
	if u.MinScore != nil && u.MaxScore != nil && *u.MinScore > *u.MaxScore {
		return NewValidationError("min_score", "min_score must not exceed max_score", *u.MinScore)
	}
	return nil
}

// Record materializes the update as the record to persist, deriving the risk
// label from the lower bound when the admin omitted it.
func (u AdviceUpdate) Record() AdviceRecord {
	rec := AdviceRecord{
		RiskLevel: string(u.RiskLevel),
		Advice:    u.Advice,
	}
	if u.MinScore != nil {
		rec.MinScore = *u.MinScore
	}
	if u.MaxScore != nil {
		rec.MaxScore = *u.MaxScore
	}
	if rec.RiskLevel == "" {
		rec.RiskLevel = string(RiskLevelForMinScore(rec.MinScore))
	}
	return rec
}

// ContributingFactor is one answer's question, value, and score, included in
// a result for explainability. Derived per calculation, never persisted.
type ContributingFactor struct {
	QuestionLabel string `json:"question_label"`
	AnswerValue   string `json:"answer_value"`
	Score         int    `json:"score"`
}

// RiskAssessmentResult is the sole output of a risk calculation.
type RiskAssessmentResult struct {
	TotalScore          int                  `json:"total_score"`
	RiskLevel           RiskLevel            `json:"risk_level"`
	Advice              string               `json:"advice"`
	ContributingFactors []ContributingFactor `json:"contributing_factors"`
}

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")
