package badge

import (
	"context"
	"fmt"
	"log/slog"
)

type Cache interface {
	Seed(ctx context.Context, userID string, count int) error
	Get(ctx context.Context, userID string) (int, bool, error)
}

// Counter is the source of truth for cart sizes.
type Counter interface {
	Count(ctx context.Context, userID string) (int, error)
}

type Service struct {
	cache   Cache
	counter Counter
	logger  *slog.Logger
}

// NewService builds a Service. Without a cache every read goes to counter.
func NewService(cache Cache, counter Counter, logger *slog.Logger) *Service {
	return &Service{cache: cache, counter: counter, logger: logger}
}

// Count returns the mirrored count when present. A miss or a cache failure
// falls back to the cart table and re-seeds the mirror.
func (s *Service) Count(ctx context.Context, userID string) (int, error) {
	if s.cache == nil {
		return s.counter.Count(ctx, userID)
	}

	count, found, err := s.cache.Get(ctx, userID)
	if err != nil {
		s.logger.Warn("cart badge cache unavailable", "error", err, "user_id", userID)
	}
	if err == nil && found {
		return count, nil
	}

	count, err = s.counter.Count(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("counter.Count: %w", err)
	}

	if err := s.cache.Seed(ctx, userID, count); err != nil {
		s.logger.Warn("failed to seed cart badge", "error", err, "user_id", userID)
	}
	return count, nil
}
