package ratings

import (
	"context"
)

// Summary aggregates the reviews received by one person.
type Summary struct {
	Count int     `json:"count"`
	Sum   float64 `json:"sum"`
}

// Mean returns the arithmetic mean, or nil when the person has no reviews.
func (s Summary) Mean() *float64 {
	if s.Count == 0 {
		return nil
	}
	m := s.Sum / float64(s.Count)
	return &m
}

// Source computes a summary from the review ledger.
type Source interface {
	RatingSummary(ctx context.Context, personID string) (Summary, error)
}

// Cache stores summaries between reads. Every entry belongs to a generation;
// Invalidate bumps it, and Set must drop writes made for an older generation so
// a reader that loaded the ledger before a review commit cannot repopulate it.
type Cache interface {
	Get(ctx context.Context, personID string) (s Summary, generation uint64, ok bool, err error)
	Set(ctx context.Context, personID string, generation uint64, s Summary) error
	Invalidate(ctx context.Context, personID string) error
}

// Logger is the minimal logging interface required by the ratings service.
type Logger interface {
	Infof(string, ...interface{})
	Errorf(string, ...interface{})
}

// Service reads ratings through the cache. Ratings are never stored as truth:
// a miss always recomputes from the ledger.
type Service struct {
	source Source
	cache  Cache
	logger Logger
}

// NewService builds the service. A nil cache disables caching.
func NewService(source Source, cache Cache, logger Logger) *Service {
	if cache == nil {
		cache = NopCache{}
	}
	return &Service{source: source, cache: cache, logger: logger}
}

// Summary returns the rating summary of a person.
func (s *Service) Summary(ctx context.Context, personID string) (Summary, error) {
	cached, generation, ok, err := s.cache.Get(ctx, personID)
	cacheable := err == nil
	if err != nil {
		s.logger.Errorf("ratings: cache get %s: %v", personID, err)
	} else if ok {
		return cached, nil
	}

	// The generation is read before the ledger, so any invalidation that lands
	// while the ledger is being read makes the Set below a no-op.
	fresh, err := s.source.RatingSummary(ctx, personID)
	if err != nil {
		return Summary{}, err
	}
	if cacheable {
		if err := s.cache.Set(ctx, personID, generation, fresh); err != nil {
			s.logger.Errorf("ratings: cache set %s: %v", personID, err)
		}
	}
	return fresh, nil
}

// Invalidate drops the cached summary after a review targeting personID commits.
func (s *Service) Invalidate(ctx context.Context, personID string) {
	if err := s.cache.Invalidate(ctx, personID); err != nil {
		s.logger.Errorf("ratings: cache invalidate %s: %v", personID, err)
	}
}

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) Get(context.Context, string) (Summary, uint64, bool, error) {
	return Summary{}, 0, false, nil
}
func (NopCache) Set(context.Context, string, uint64, Summary) error { return nil }
func (NopCache) Invalidate(context.Context, string) error           { return nil }
