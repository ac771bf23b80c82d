// Package repository implements Postgres persistence for advice records and
// score-configuration weights.
package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/glaucoma-risk-server/internal/domain"
)

// DB is the subset of pgxpool.Pool the repositories need. pgxmock satisfies
// it in tests.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const (
	listAdviceQuery = `
		SELECT id, risk_level, min_score, max_score, advice, updated_at
		FROM risk_assessment_advice
		ORDER BY min_score ASC`

	listAdviceProc = `
		SELECT id, risk_level, min_score, max_score, advice, updated_at
		FROM get_risk_assessment_advice()`

	upsertAdviceQuery = `
		INSERT INTO risk_assessment_advice (risk_level, min_score, max_score, advice, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (risk_level) DO UPDATE SET
			min_score  = EXCLUDED.min_score,
			max_score  = EXCLUDED.max_score,
			advice     = EXCLUDED.advice,
			updated_at = EXCLUDED.updated_at
		RETURNING id, risk_level, min_score, max_score, advice, updated_at`

	upsertAdviceProc = `
		SELECT id, risk_level, min_score, max_score, advice, updated_at
		FROM update_risk_assessment_advice($1, $2, $3, $4)`
)

// AdviceRepository handles advice record persistence. It can run against the
// tables directly or through the paired stored procedures; the contract is
// identical either way.
type AdviceRepository struct {
	db       DB
	log      *logrus.Logger
	useProcs bool
}

// NewAdviceRepository creates a new advice repository
func NewAdviceRepository(db DB, logger *logrus.Logger, useStoredProcedures bool) *AdviceRepository {
	return &AdviceRepository{
		db:       db,
		log:      logger,
		useProcs: useStoredProcedures,
	}
}

// List returns all advice records ordered by min_score ascending.
func (r *AdviceRepository) List(ctx context.Context) ([]domain.AdviceRecord, error) {
	query := listAdviceQuery
	if r.useProcs {
		query = listAdviceProc
	}

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.WithError(err).Error("Failed to list advice records")
		return nil, domain.NewStoreError("list advice", err)
	}
	defer rows.Close()

	var records []domain.AdviceRecord
	for rows.Next() {
		var rec domain.AdviceRecord
		if err := rows.Scan(&rec.ID, &rec.RiskLevel, &rec.MinScore, &rec.MaxScore, &rec.Advice, &rec.UpdatedAt); err != nil {
			r.log.WithError(err).Error("Failed to scan advice row")
			return nil, domain.NewStoreError("scan advice", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, domain.NewStoreError("iterate advice", err)
	}

	return records, nil
}

// Upsert inserts or updates the record keyed by risk_level and returns the
// persisted row.
func (r *AdviceRepository) Upsert(ctx context.Context, rec domain.AdviceRecord) (domain.AdviceRecord, error) {
	query := upsertAdviceQuery
	if r.useProcs {
		query = upsertAdviceProc
	}

	var persisted domain.AdviceRecord
	err := r.db.QueryRow(ctx, query, rec.RiskLevel, rec.MinScore, rec.MaxScore, rec.Advice).Scan(
		&persisted.ID,
		&persisted.RiskLevel,
		&persisted.MinScore,
		&persisted.MaxScore,
		&persisted.Advice,
		&persisted.UpdatedAt,
	)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"risk_level": rec.RiskLevel,
			"error":      err,
		}).Error("Failed to upsert advice record")
		return domain.AdviceRecord{}, domain.NewStoreError("upsert advice", err)
	}

	r.log.WithFields(logrus.Fields{
		"advice_id":  persisted.ID,
		"risk_level": persisted.RiskLevel,
		"min_score":  persisted.MinScore,
		"max_score":  persisted.MaxScore,
	}).Info("Advice record upserted")

	return persisted, nil
}
