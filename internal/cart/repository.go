package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/campuseats/internal/domain"
	"github.com/joao-fontenele/campuseats/internal/postgres"
)

// Line is a stored cart line and the food it references. Food is nil when
// the food has been removed from the menu since the line was added.
type Line struct {
	domain.CartLine
	Food *domain.Food
}

type CartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) *CartRepository {
	return &CartRepository{db: db}
}

const lineColumns = `id, user_id, food_id, quantity, created_at, updated_at`

// Upsert adds quantity to the user's line for foodID, creating the line if
// needed, in a single conditional write.
func (r *CartRepository) Upsert(ctx context.Context, userID, foodID string, quantity int) (domain.CartLine, error) {
	return postgres.WithTx(ctx, r.db, func(tx *sql.Tx) (domain.CartLine, error) {
		if err := postgres.LockUser(ctx, tx, userID); err != nil {
			return domain.CartLine{}, err
		}

		var line domain.CartLine
		err := tx.QueryRowContext(ctx, `
			INSERT INTO cart_lines (id, user_id, food_id, quantity, created_at, updated_at)
			SELECT $1, $2, f.id, $4, NOW(), NOW()
			FROM foods f
			WHERE f.id = $3
			ON CONFLICT (user_id, food_id) DO UPDATE
			SET quantity = cart_lines.quantity + EXCLUDED.quantity, updated_at = NOW()
			WHERE cart_lines.quantity <= $5 - EXCLUDED.quantity
			RETURNING `+lineColumns,
			uuid.New().String(), userID, foodID, quantity, domain.MaxQuantity,
		).Scan(&line.ID, &line.UserID, &line.FoodID, &line.Quantity, &line.CreatedAt, &line.UpdatedAt)
		if err == nil {
			return line, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return domain.CartLine{}, fmt.Errorf("upsert cart line: %w", err)
		}

		return domain.CartLine{}, upsertSkippedReason(ctx, tx, foodID, quantity)
	})
}

// upsertSkippedReason explains an upsert that wrote nothing: either the food
// is gone or the existing line cannot take quantity more.
func upsertSkippedReason(ctx context.Context, tx *sql.Tx, foodID string, quantity int) error {
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM foods WHERE id = $1)`, foodID).Scan(&exists); err != nil {
		return fmt.Errorf("lookup food: %w", err)
	}
	if !exists {
		return fmt.Errorf("food %s: %w", foodID, domain.ErrNotFound)
	}
	return fmt.Errorf("adding %d to food %s exceeds %d: %w", quantity, foodID, domain.MaxQuantity, domain.ErrInvalidQuantity)
}

func (r *CartRepository) SetQuantity(ctx context.Context, userID, lineID string, quantity int) (domain.CartLine, error) {
	return postgres.WithTx(ctx, r.db, func(tx *sql.Tx) (domain.CartLine, error) {
		if err := postgres.LockUser(ctx, tx, userID); err != nil {
			return domain.CartLine{}, err
		}

		var line domain.CartLine
		err := tx.QueryRowContext(ctx, `
			UPDATE cart_lines SET quantity = $3, updated_at = NOW()
			WHERE id = $1 AND user_id = $2
			RETURNING `+lineColumns,
			lineID, userID, quantity,
		).Scan(&line.ID, &line.UserID, &line.FoodID, &line.Quantity, &line.CreatedAt, &line.UpdatedAt)
		if err == nil {
			return line, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return domain.CartLine{}, fmt.Errorf("update cart line: %w", err)
		}

		return domain.CartLine{}, lineMissingReason(ctx, tx, lineID)
	})
}

// Delete removes the line. A line that no longer exists is not an error.
func (r *CartRepository) Delete(ctx context.Context, userID, lineID string) error {
	_, err := postgres.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := postgres.LockUser(ctx, tx, userID); err != nil {
			return struct{}{}, err
		}

		result, err := tx.ExecContext(ctx, `
			DELETE FROM cart_lines WHERE id = $1 AND user_id = $2
		`, lineID, userID)
		if err != nil {
			return struct{}{}, fmt.Errorf("delete cart line: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return struct{}{}, err
		}
		if rowsAffected > 0 {
			return struct{}{}, nil
		}

		if err := lineMissingReason(ctx, tx, lineID); !errors.Is(err, domain.ErrNotFound) {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})
	return err
}

func (r *CartRepository) Lines(ctx context.Context, userID string) ([]Line, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT cl.id, cl.user_id, cl.food_id, cl.quantity, cl.created_at, cl.updated_at,
			f.id, f.cafe_id, f.name, f.description, f.price, f.image_url
		FROM cart_lines cl
		LEFT JOIN foods f ON f.id = cl.food_id
		WHERE cl.user_id = $1
		ORDER BY cl.created_at, cl.id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return ScanLines(rows)
}

func (r *CartRepository) Count(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(quantity), 0) FROM cart_lines WHERE user_id = $1
	`, userID).Scan(&count)
	return count, err
}

// ScanLines reads rows shaped like the Lines query.
func ScanLines(rows *sql.Rows) ([]Line, error) {
	var lines []Line
	for rows.Next() {
		var (
			line     Line
			food     nullableFood
			imageURL sql.NullString
		)
		if err := rows.Scan(
			&line.ID, &line.UserID, &line.FoodID, &line.Quantity, &line.CreatedAt, &line.UpdatedAt,
			&food.ID, &food.CafeID, &food.Name, &food.Description, &food.Price, &imageURL,
		); err != nil {
			return nil, err
		}
		line.Food = food.toDomain(imageURL)
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

type nullableFood struct {
	ID          sql.NullString
	CafeID      sql.NullString
	Name        sql.NullString
	Description sql.NullString
	Price       decimal.NullDecimal
}

func (f nullableFood) toDomain(imageURL sql.NullString) *domain.Food {
	if !f.ID.Valid {
		return nil
	}
	food := &domain.Food{
		ID:          f.ID.String,
		CafeID:      f.CafeID.String,
		Name:        f.Name.String,
		Description: f.Description.String,
		Price:       f.Price.Decimal,
	}
	if imageURL.Valid {
		food.ImageURL = &imageURL.String
	}
	return food
}

func lineMissingReason(ctx context.Context, tx *sql.Tx, lineID string) error {
	var owner string
	err := tx.QueryRowContext(ctx, `SELECT user_id FROM cart_lines WHERE id = $1`, lineID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("cart line %s: %w", lineID, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("lookup cart line: %w", err)
	}
	return fmt.Errorf("cart line %s: %w", lineID, domain.ErrForbidden)
}
