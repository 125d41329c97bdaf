package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/joao-fontenele/campuseats/internal/cart"
	"github.com/joao-fontenele/campuseats/internal/domain"
	"github.com/joao-fontenele/campuseats/internal/postgres"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Checkout locks the user's cart, hands its lines to build, stores the
// resulting order and empties the cart, all in one transaction. If build
// fails nothing is written.
func (r *OrderRepository) Checkout(ctx context.Context, userID string, build func([]cart.Line) (domain.Order, error)) (domain.Order, error) {
	return postgres.WithTx(ctx, r.db, func(tx *sql.Tx) (domain.Order, error) {
		if err := postgres.LockUser(ctx, tx, userID); err != nil {
			return domain.Order{}, err
		}

		rows, err := tx.QueryContext(ctx, `
			SELECT cl.id, cl.user_id, cl.food_id, cl.quantity, cl.created_at, cl.updated_at,
				f.id, f.cafe_id, f.name, f.description, f.price, f.image_url
			FROM cart_lines cl
			LEFT JOIN foods f ON f.id = cl.food_id
			WHERE cl.user_id = $1
			ORDER BY cl.created_at, cl.id
			FOR UPDATE OF cl
		`, userID)
		if err != nil {
			return domain.Order{}, fmt.Errorf("select cart lines: %w", err)
		}
		lines, err := cart.ScanLines(rows)
		_ = rows.Close()
		if err != nil {
			return domain.Order{}, fmt.Errorf("scan cart lines: %w", err)
		}

		order, err := build(lines)
		if err != nil {
			return domain.Order{}, err
		}

		if err := insertOrder(ctx, tx, order); err != nil {
			return domain.Order{}, err
		}

		lineIDs := make([]string, len(lines))
		for i, line := range lines {
			lineIDs[i] = line.ID
		}
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM cart_lines WHERE user_id = $1 AND id = ANY($2)
		`, userID, pq.Array(lineIDs)); err != nil {
			return domain.Order{}, fmt.Errorf("empty cart: %w", err)
		}

		return order, nil
	})
}

func insertOrder(ctx context.Context, tx *sql.Tx, order domain.Order) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, status, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`, order.ID, order.UserID, order.Status, order.Total, order.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i, item := range order.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, position, food_id, food_name, cafe_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, order.ID, i, item.FoodID, item.FoodName, item.CafeID, item.Quantity, item.UnitPrice)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	order := &domain.Order{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, status, total, created_at
		FROM orders
		WHERE id = $1
	`, id).Scan(&order.ID, &order.UserID, &order.Status, &order.Total, &order.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}

	orders := map[string]*domain.Order{order.ID: order}
	if err := r.loadItems(ctx, []string{order.ID}, orders); err != nil {
		return nil, err
	}

	return order, nil
}

// CompareAndSetStatus moves the order to `to` only if it is still in
// `from`. It reports whether the write happened.
func (r *OrderRepository) CompareAndSetStatus(ctx context.Context, id string, from, to domain.OrderStatus) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`, id, from, to)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected == 1, nil
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.list(ctx, `
		SELECT id, user_id, status, total, created_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id
	`, userID)
}

// ListByCafe returns every order with at least one item sold by cafeID,
// newest first, with all of its items.
func (r *OrderRepository) ListByCafe(ctx context.Context, cafeID string) ([]domain.Order, error) {
	return r.list(ctx, `
		SELECT o.id, o.user_id, o.status, o.total, o.created_at
		FROM orders o
		WHERE EXISTS (SELECT 1 FROM order_items oi WHERE oi.order_id = o.id AND oi.cafe_id = $1)
		ORDER BY o.created_at DESC, o.id
	`, cafeID)
}

func (r *OrderRepository) list(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[string]*domain.Order)
	var orderIDs []string

	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(&order.ID, &order.UserID, &order.Status, &order.Total, &order.CreatedAt); err != nil {
			return nil, err
		}
		order.Items = []domain.OrderItem{}
		orderMap[order.ID] = &order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	if err := r.loadItems(ctx, orderIDs, orderMap); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}

func (r *OrderRepository) loadItems(ctx context.Context, orderIDs []string, orderMap map[string]*domain.Order) error {
	itemRows, err := r.db.QueryContext(ctx, `
		SELECT order_id, food_id, food_name, cafe_id, quantity, unit_price
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`, pq.Array(orderIDs))
	if err != nil {
		return err
	}
	defer func() { _ = itemRows.Close() }()

	for itemRows.Next() {
		var orderID string
		var item domain.OrderItem
		if err := itemRows.Scan(&orderID, &item.FoodID, &item.FoodName, &item.CafeID, &item.Quantity, &item.UnitPrice); err != nil {
			return err
		}
		order := orderMap[orderID]
		order.Items = append(order.Items, item)
	}

	return itemRows.Err()
}
