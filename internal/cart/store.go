// Package cart keeps each user's pending line items on the server.
package cart

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/campuseats/internal/domain"
	"github.com/joao-fontenele/campuseats/internal/pricing"
	"github.com/joao-fontenele/campuseats/internal/telemetry"
)

type Repository interface {
	Upsert(ctx context.Context, userID, foodID string, quantity int) (domain.CartLine, error)
	SetQuantity(ctx context.Context, userID, lineID string, quantity int) (domain.CartLine, error)
	Delete(ctx context.Context, userID, lineID string) error
	Lines(ctx context.Context, userID string) ([]Line, error)
	Count(ctx context.Context, userID string) (int, error)
}

// CountMirror is told the user's cart size after each successful change.
// It is write-only from the store's point of view.
type CountMirror interface {
	Seed(ctx context.Context, userID string, count int) error
}

type Store struct {
	repo    Repository
	pricer  *pricing.Pricer
	mirror  CountMirror
	metrics *telemetry.StorefrontMetrics
	logger  *slog.Logger
}

// NewStore builds a Store. mirror and metrics may be nil.
func NewStore(repo Repository, pricer *pricing.Pricer, mirror CountMirror, metrics *telemetry.StorefrontMetrics, logger *slog.Logger) *Store {
	return &Store{
		repo:    repo,
		pricer:  pricer,
		mirror:  mirror,
		metrics: metrics,
		logger:  logger,
	}
}

func (s *Store) Add(ctx context.Context, userID, foodID string, quantity int) (domain.CartLine, error) {
	if quantity < 1 {
		return domain.CartLine{}, fmt.Errorf("add quantity %d: %w", quantity, domain.ErrInvalidQuantity)
	}

	line, err := s.repo.Upsert(ctx, userID, foodID, quantity)
	s.metrics.CartMutation(ctx, "add", err)
	if err != nil {
		return domain.CartLine{}, fmt.Errorf("repo.Upsert: %w", err)
	}

	s.logger.Info("cart line added", "user_id", userID, "food_id", foodID, "line_id", line.ID, "quantity", line.Quantity)
	s.seedMirror(ctx, userID)
	return line, nil
}

// SetQuantity replaces the line's quantity. Use Remove to drop a line.
func (s *Store) SetQuantity(ctx context.Context, userID, lineID string, quantity int) (domain.CartLine, error) {
	if quantity < 1 {
		return domain.CartLine{}, fmt.Errorf("set quantity %d: %w", quantity, domain.ErrInvalidQuantity)
	}

	line, err := s.repo.SetQuantity(ctx, userID, lineID, quantity)
	s.metrics.CartMutation(ctx, "set_quantity", err)
	if err != nil {
		return domain.CartLine{}, fmt.Errorf("repo.SetQuantity: %w", err)
	}

	s.logger.Info("cart line quantity set", "user_id", userID, "line_id", lineID, "quantity", quantity)
	s.seedMirror(ctx, userID)
	return line, nil
}

// Remove deletes the line. Removing a line that is already gone succeeds.
func (s *Store) Remove(ctx context.Context, userID, lineID string) error {
	err := s.repo.Delete(ctx, userID, lineID)
	s.metrics.CartMutation(ctx, "remove", err)
	if err != nil {
		return fmt.Errorf("repo.Delete: %w", err)
	}

	s.logger.Info("cart line removed", "user_id", userID, "line_id", lineID)
	s.seedMirror(ctx, userID)
	return nil
}

// List returns the user's lines priced at the current menu prices. A user
// with no lines gets an empty cart with a zero total.
func (s *Store) List(ctx context.Context, userID string) (domain.Cart, error) {
	lines, err := s.repo.Lines(ctx, userID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("repo.Lines: %w", err)
	}

	cart := domain.Cart{
		UserID: userID,
		Lines:  make([]domain.CartEntry, 0, len(lines)),
		Total:  decimal.Zero,
	}

	for _, line := range lines {
		entry := domain.CartEntry{CartLine: line.CartLine}
		if line.Food == nil {
			entry.Food = domain.Food{ID: line.FoodID}
			cart.Lines = append(cart.Lines, entry)
			continue
		}

		snap, err := s.pricer.Snapshot(*line.Food, line.Quantity)
		if err != nil {
			return domain.Cart{}, fmt.Errorf("price line %s: %w", line.ID, err)
		}

		entry.Food = *line.Food
		entry.Available = true
		entry.UnitPrice = snap.UnitPrice
		entry.LineTotal = snap.LineTotal
		cart.Total = cart.Total.Add(snap.LineTotal)
		cart.Lines = append(cart.Lines, entry)
	}

	return cart, nil
}

// Count is the authoritative number of units in the user's cart.
func (s *Store) Count(ctx context.Context, userID string) (int, error) {
	count, err := s.repo.Count(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("repo.Count: %w", err)
	}
	return count, nil
}

func (s *Store) seedMirror(ctx context.Context, userID string) {
	if s.mirror == nil {
		return
	}

	count, err := s.repo.Count(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to count cart for badge", "error", err, "user_id", userID)
		return
	}

	if err := s.mirror.Seed(ctx, userID, count); err != nil {
		s.logger.Warn("failed to seed cart badge", "error", err, "user_id", userID)
	}
}
