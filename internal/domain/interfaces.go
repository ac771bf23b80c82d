package domain

import (
	"context"
)

// WeightSource resolves the score weight for one (question, option) pair.
// Sources are tried in order by the calculator; a failed or missing lookup is
// reported as ok=false so calculation can proceed via the next source.
type WeightSource interface {
	Lookup(ctx context.Context, questionID, optionValue string) (score int, ok bool)
}

// ScoreConfigRepository is the persistence boundary for admin-configured
// answer weights. Lookup returns ErrNotFound when no weight is configured.
type ScoreConfigRepository interface {
	Lookup(ctx context.Context, questionID, optionValue string) (int, error)
}

// AdviceRepository is the persistence boundary for admin-authored advice
// records. List returns all records ordered by min_score ascending; Upsert
// is keyed by risk_level and returns the persisted row.
type AdviceRepository interface {
	List(ctx context.Context) ([]AdviceRecord, error)
	Upsert(ctx context.Context, rec AdviceRecord) (AdviceRecord, error)
}

// SessionRefresher re-establishes store credentials after an AUTH-class
// failure. Session management itself lives outside this service.
type SessionRefresher interface {
	Refresh(ctx context.Context) error
}
