package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/glaucoma-risk-server/internal/domain"
)

const (
	// DefaultAdviceText is the generic recommendation served from fallback
	// records when the persistence service is unavailable.
	DefaultAdviceText = "Please consult an eye care professional for a personalized recommendation."

	// ErrorAdviceText is returned when a risk calculation itself fails.
	ErrorAdviceText = "We could not compute a recommendation at this time. Please try again later or consult an eye care professional."
)

// adviceCache is the single-slot cache for the advice record set. The slot is
// invalidated before every read so the store is always consulted while it is
// reachable; the cached copy only serves readers racing a concurrent refresh.
type adviceCache struct {
	mu      sync.Mutex
	records []domain.AdviceRecord
	valid   bool
}

func (c *adviceCache) Get() ([]domain.AdviceRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid {
		return nil, false
	}
	return c.records, true
}

func (c *adviceCache) Set(records []domain.AdviceRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = records
	c.valid = true
}

func (c *adviceCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = nil
	c.valid = false
}

// FallbackAdvice returns the built-in advice records served when the store is
// unreachable. Fallback records are never written to the cache or the store.
func FallbackAdvice() []domain.AdviceRecord {
	return []domain.AdviceRecord{
		{MinScore: 0, MaxScore: 2, RiskLevel: string(domain.RiskLow), NormalizedLevel: domain.RiskLow, Advice: DefaultAdviceText},
		{MinScore: 3, MaxScore: 5, RiskLevel: string(domain.RiskModerate), NormalizedLevel: domain.RiskModerate, Advice: DefaultAdviceText},
		{MinScore: 6, MaxScore: 100, RiskLevel: string(domain.RiskHigh), NormalizedLevel: domain.RiskHigh, Advice: DefaultAdviceText},
	}
}

// RecommendationStore serves the advice record set and applies admin updates.
// Store calls run through the retry policy and a circuit breaker; when both
// give up, readers get the fallback set.
type RecommendationStore struct {
	repo    domain.AdviceRepository
	cache   adviceCache
	policy  RetryPolicy
	breaker *gobreaker.CircuitBreaker
	log     *logrus.Logger
}

// NewRecommendationStore creates a recommendation store.
func NewRecommendationStore(repo domain.AdviceRepository, policy RetryPolicy, settings gobreaker.Settings, logger *logrus.Logger) *RecommendationStore {
	return &RecommendationStore{
		repo:    repo,
		policy:  policy,
		breaker: gobreaker.NewCircuitBreaker(settings),
		log:     logger,
	}
}

// DefaultBreakerSettings returns the production circuit breaker settings for
// the advice store.
func DefaultBreakerSettings(logger *logrus.Logger) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        "advice-store",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	}
}

// GetAdvice returns the current advice record set in min_score order. The
// cache slot is invalidated first so every read reflects the latest admin
// edits; when the store is unreachable or returns no records the fallback set
// is served and nothing is cached.
func (s *RecommendationStore) GetAdvice(ctx context.Context) []domain.AdviceRecord {
	s.cache.Invalidate()

	records, err := s.listWithResilience(ctx)
	if err != nil {
		s.log.WithError(err).Warn("Advice unavailable, serving fallback recommendations")
		return FallbackAdvice()
	}
	if len(records) == 0 {
		s.log.Warn("Advice store returned no records, serving fallback recommendations")
		return FallbackAdvice()
	}

	for i := range records {
		records[i].NormalizedLevel = NormalizeRiskLevel(records[i].RiskLevel)
		if records[i].Advice == "" {
			records[i].Advice = DefaultAdviceText
		}
	}

	s.cache.Set(records)
	return records
}

// CachedAdvice returns the last successfully fetched record set without
// touching the store. It exists for readers racing a concurrent refresh; a
// cold or invalidated slot reports false.
func (s *RecommendationStore) CachedAdvice() ([]domain.AdviceRecord, bool) {
	return s.cache.Get()
}

// UpdateAdvice validates and persists an admin edit, then refreshes the
// record set so the change is immediately visible. On store failure the
// record that would have been written is returned alongside the error.
func (s *RecommendationStore) UpdateAdvice(ctx context.Context, update domain.AdviceUpdate) (domain.AdviceRecord, error) {
	if err := update.Validate(); err != nil {
		return domain.AdviceRecord{}, err
	}

	rec := update.Record()
	s.cache.Invalidate()

	persisted, err := s.upsertWithResilience(ctx, rec)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"risk_level": rec.RiskLevel,
		}).WithError(err).Error("Advice update failed")
		rec.NormalizedLevel = NormalizeRiskLevel(rec.RiskLevel)
		return rec, fmt.Errorf("updating advice: %w", err)
	}

	persisted.NormalizedLevel = NormalizeRiskLevel(persisted.RiskLevel)

	// Eager refresh so the next read serves the updated set even if the
	// store degrades between the write and the read.
	s.GetAdvice(ctx)

	s.log.WithFields(logrus.Fields{
		"risk_level": persisted.RiskLevel,
		"min_score":  persisted.MinScore,
		"max_score":  persisted.MaxScore,
	}).Info("Advice record updated")
	return persisted, nil
}

func (s *RecommendationStore) listWithResilience(ctx context.Context) ([]domain.AdviceRecord, error) {
	return ExecuteWithRetry(ctx, s.policy, s.log, func(ctx context.Context) ([]domain.AdviceRecord, error) {
		result, err := s.breaker.Execute(func() (interface{}, error) {
			return s.repo.List(ctx)
		})
		if err != nil {
			return nil, err
		}
		return result.([]domain.AdviceRecord), nil
	})
}

func (s *RecommendationStore) upsertWithResilience(ctx context.Context, rec domain.AdviceRecord) (domain.AdviceRecord, error) {
	return ExecuteWithRetry(ctx, s.policy, s.log, func(ctx context.Context) (domain.AdviceRecord, error) {
		result, err := s.breaker.Execute(func() (interface{}, error) {
			return s.repo.Upsert(ctx, rec)
		})
		if err != nil {
			return domain.AdviceRecord{}, err
		}
		return result.(domain.AdviceRecord), nil
	})
}
