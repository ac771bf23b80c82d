package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/glaucoma-risk-server/internal/domain"
)

const lookupScoreQuery = `
	SELECT score
	FROM risk_score_config
	WHERE question_id = $1 AND option_value = $2`

// ScoreConfigRepository reads admin-configured answer weights. This core has
// no mutation path; weights change through admin tooling outside the service.
type ScoreConfigRepository struct {
	db  DB
	log *logrus.Logger
}

// NewScoreConfigRepository creates a new score config repository
func NewScoreConfigRepository(db DB, logger *logrus.Logger) *ScoreConfigRepository {
	return &ScoreConfigRepository{
		db:  db,
		log: logger,
	}
}

// Lookup returns the configured weight for a (question, option) pair, or
// domain.ErrNotFound when none is configured.
func (r *ScoreConfigRepository) Lookup(ctx context.Context, questionID, optionValue string) (int, error) {
	var score int
	err := r.db.QueryRow(ctx, lookupScoreQuery, questionID, optionValue).Scan(&score)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("score config for %s=%s: %w", questionID, optionValue, domain.ErrNotFound)
		}
		r.log.WithFields(logrus.Fields{
			"question_id":  questionID,
			"option_value": optionValue,
			"error":        err,
		}).Error("Failed to look up score config")
		return 0, domain.NewStoreError("lookup score config", err)
	}

	return score, nil
}
