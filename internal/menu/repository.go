package menu

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/joao-fontenele/campuseats/internal/domain"
)

// MenuRepository reads cafés and foods. Menu writes belong to the menu
// management service; this side never mutates them.
type MenuRepository struct {
	db *sql.DB
}

func NewMenuRepository(db *sql.DB) *MenuRepository {
	return &MenuRepository{db: db}
}

func (r *MenuRepository) GetFood(ctx context.Context, id string) (*domain.Food, error) {
	food := &domain.Food{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, cafe_id, name, description, price, image_url
		FROM foods
		WHERE id = $1
	`, id).Scan(&food.ID, &food.CafeID, &food.Name, &food.Description, &food.Price, &food.ImageURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("food %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}

	return food, nil
}

func (r *MenuRepository) ListFoods(ctx context.Context, cafeID string) ([]domain.Food, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, cafe_id, name, description, price, image_url
		FROM foods
		WHERE cafe_id = $1
		ORDER BY name
	`, cafeID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	foods := []domain.Food{}
	for rows.Next() {
		var food domain.Food
		if err := rows.Scan(&food.ID, &food.CafeID, &food.Name, &food.Description, &food.Price, &food.ImageURL); err != nil {
			return nil, err
		}
		foods = append(foods, food)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return foods, nil
}

func (r *MenuRepository) GetCafe(ctx context.Context, id string) (*domain.Cafe, error) {
	cafe := &domain.Cafe{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name
		FROM cafes
		WHERE id = $1
	`, id).Scan(&cafe.ID, &cafe.OwnerID, &cafe.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("cafe %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}

	return cafe, nil
}

// CafesOwnedBy returns the IDs of every café ownerID manages.
func (r *MenuRepository) CafesOwnedBy(ctx context.Context, ownerID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id FROM cafes WHERE owner_id = $1
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
