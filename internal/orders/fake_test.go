package orders

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/joao-fontenele/campuseats/internal/cart"
	"github.com/joao-fontenele/campuseats/internal/domain"
)

// memStore keeps carts, foods and orders in memory and honours the same
// all-or-nothing checkout contract as OrderRepository.
type memStore struct {
	mu     sync.Mutex
	foods  map[string]domain.Food
	lines  map[string][]domain.CartLine
	orders map[string]domain.Order
	cafes  map[string][]string

	// beforeCAS runs once before the next compare-and-set, outside the lock.
	beforeCAS func()
}

func newMemStore() *memStore {
	return &memStore{
		foods:  make(map[string]domain.Food),
		lines:  make(map[string][]domain.CartLine),
		orders: make(map[string]domain.Order),
		cafes:  make(map[string][]string),
	}
}

func (s *memStore) addFood(cafeID, price string) domain.Food {
	s.mu.Lock()
	defer s.mu.Unlock()
	food := domain.Food{
		ID:     gofakeit.UUID(),
		CafeID: cafeID,
		Name:   gofakeit.Lunch(),
		Price:  decimal.RequireFromString(price),
	}
	s.foods[food.ID] = food
	return food
}

func (s *memStore) setPrice(foodID, price string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	food := s.foods[foodID]
	food.Price = decimal.RequireFromString(price)
	s.foods[foodID] = food
}

func (s *memStore) deleteFood(foodID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.foods, foodID)
}

func (s *memStore) putInCart(userID, foodID string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines[userID] = append(s.lines[userID], domain.CartLine{
		ID:        uuid.New().String(),
		UserID:    userID,
		FoodID:    foodID,
		Quantity:  quantity,
		CreatedAt: time.Now().UTC(),
	})
}

func (s *memStore) cartSize(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines[userID])
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func (s *memStore) putOrder(order domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = order
}

func (s *memStore) setStatus(id string, status domain.OrderStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order := s.orders[id]
	order.Status = status
	s.orders[id] = order
}

func (s *memStore) own(ownerID string, cafeIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cafes[ownerID] = append(s.cafes[ownerID], cafeIDs...)
}

func (s *memStore) Checkout(_ context.Context, userID string, build func([]cart.Line) (domain.Order, error)) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lines []cart.Line
	for _, l := range s.lines[userID] {
		line := cart.Line{CartLine: l}
		if food, ok := s.foods[l.FoodID]; ok {
			line.Food = &food
		}
		lines = append(lines, line)
	}

	order, err := build(lines)
	if err != nil {
		return domain.Order{}, err
	}

	order.Items = slices.Clone(order.Items)
	s.orders[order.ID] = order
	delete(s.lines, userID)
	return order, nil
}

func (s *memStore) GetByID(_ context.Context, id string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	order.Items = slices.Clone(order.Items)
	return &order, nil
}

func (s *memStore) CompareAndSetStatus(_ context.Context, id string, from, to domain.OrderStatus) (bool, error) {
	if hook := s.beforeCAS; hook != nil {
		s.beforeCAS = nil
		hook()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok || order.Status != from {
		return false, nil
	}
	order.Status = to
	s.orders[id] = order
	return true, nil
}

func (s *memStore) ListByUser(_ context.Context, userID string) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	orders := []domain.Order{}
	for _, o := range s.orders {
		if o.UserID == userID {
			orders = append(orders, o)
		}
	}
	return orders, nil
}

func (s *memStore) ListByCafe(_ context.Context, cafeID string) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	orders := []domain.Order{}
	for _, o := range s.orders {
		if o.Contains(cafeID) {
			orders = append(orders, o)
		}
	}
	return orders, nil
}

func (s *memStore) CafesOwnedBy(_ context.Context, ownerID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.cafes[ownerID]), nil
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, key string, event any) error {
	args := m.Called(ctx, key, event)
	return args.Error(0)
}

type zeroMirror struct {
	mu    sync.Mutex
	seeds map[string]int
}

func (m *zeroMirror) Seed(_ context.Context, userID string, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seeds == nil {
		m.seeds = make(map[string]int)
	}
	m.seeds[userID] = count
	return nil
}
