package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"roomfit/internal/domain"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

// CreateOrder inserts the header and its line items and takes the ordered
// quantities out of stock, all or nothing.
func (r *OrderRepo) CreateOrder(ctx context.Context, o domain.Order, items []domain.OrderItem) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
	  INSERT INTO orders (id, user_id, total_amount, status, created_at)
	  VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, o.ID, o.UserID, o.TotalAmount, o.Status); err != nil {
		return err
	}

	for _, it := range items {
		if err := decrementStock(ctx, tx, it.ProductID, it.Quantity); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
		  INSERT INTO order_items(order_id, product_id, quantity, price)
		  VALUES(?, ?, ?, ?)
		`, o.ID, it.ProductID, it.Quantity, it.Price); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *OrderRepo) OrdersByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	out := []domain.Order{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, user_id, total_amount, status, created_at
		FROM orders
		WHERE user_id = ?
		ORDER BY datetime(created_at) DESC
	`, userID)
	return out, err
}

// OrderItems returns the line items of one order.
func (r *OrderRepo) OrderItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	out := []domain.OrderItem{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT order_id, product_id, quantity, price
		FROM order_items
		WHERE order_id = ?
		ORDER BY product_id
	`, orderID)
	return out, err
}
