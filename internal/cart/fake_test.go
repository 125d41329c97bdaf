package cart

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/campuseats/internal/domain"
)

// memRepository mirrors CartRepository's contract in memory.
type memRepository struct {
	mu    sync.Mutex
	foods map[string]domain.Food
	lines map[string]domain.CartLine
	seq   int
}

func newMemRepository(foods ...domain.Food) *memRepository {
	r := &memRepository{
		foods: make(map[string]domain.Food),
		lines: make(map[string]domain.CartLine),
	}
	for _, f := range foods {
		r.foods[f.ID] = f
	}
	return r
}

func (r *memRepository) Upsert(_ context.Context, userID, foodID string, quantity int) (domain.CartLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.foods[foodID]; !ok {
		return domain.CartLine{}, fmt.Errorf("food %s: %w", foodID, domain.ErrNotFound)
	}

	now := time.Now().UTC()
	for id, line := range r.lines {
		if line.UserID == userID && line.FoodID == foodID {
			if line.Quantity > domain.MaxQuantity-quantity {
				return domain.CartLine{}, fmt.Errorf("food %s: %w", foodID, domain.ErrInvalidQuantity)
			}
			line.Quantity += quantity
			line.UpdatedAt = now
			r.lines[id] = line
			return line, nil
		}
	}

	r.seq++
	line := domain.CartLine{
		ID:        uuid.New().String(),
		UserID:    userID,
		FoodID:    foodID,
		Quantity:  quantity,
		CreatedAt: now.Add(time.Duration(r.seq)),
		UpdatedAt: now,
	}
	r.lines[line.ID] = line
	return line, nil
}

func (r *memRepository) SetQuantity(_ context.Context, userID, lineID string, quantity int) (domain.CartLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	line, ok := r.lines[lineID]
	if !ok {
		return domain.CartLine{}, fmt.Errorf("cart line %s: %w", lineID, domain.ErrNotFound)
	}
	if line.UserID != userID {
		return domain.CartLine{}, fmt.Errorf("cart line %s: %w", lineID, domain.ErrForbidden)
	}

	line.Quantity = quantity
	r.lines[lineID] = line
	return line, nil
}

func (r *memRepository) Delete(_ context.Context, userID, lineID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	line, ok := r.lines[lineID]
	if !ok {
		return nil
	}
	if line.UserID != userID {
		return fmt.Errorf("cart line %s: %w", lineID, domain.ErrForbidden)
	}

	delete(r.lines, lineID)
	return nil
}

func (r *memRepository) Lines(_ context.Context, userID string) ([]Line, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var lines []Line
	for _, line := range r.lines {
		if line.UserID != userID {
			continue
		}
		l := Line{CartLine: line}
		if food, ok := r.foods[line.FoodID]; ok {
			l.Food = &food
		}
		lines = append(lines, l)
	}

	sort.Slice(lines, func(i, j int) bool { return lines[i].CreatedAt.Before(lines[j].CreatedAt) })
	return lines, nil
}

func (r *memRepository) Count(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, line := range r.lines {
		if line.UserID == userID {
			n += line.Quantity
		}
	}
	return n, nil
}

func (r *memRepository) removeFood(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.foods, id)
}

type recordingMirror struct {
	mu     sync.Mutex
	counts map[string]int
	err    error
}

func (m *recordingMirror) Seed(_ context.Context, userID string, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.counts == nil {
		m.counts = make(map[string]int)
	}
	m.counts[userID] = count
	return nil
}

func (m *recordingMirror) get(userID string) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.counts[userID]
	return n, ok
}

func randomFood(price string) domain.Food {
	return domain.Food{
		ID:     gofakeit.UUID(),
		CafeID: gofakeit.UUID(),
		Name:   gofakeit.Dessert(),
		Price:  decimal.RequireFromString(price),
	}
}
