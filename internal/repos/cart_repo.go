package repos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"roomfit/internal/domain"
)

type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

func (r *CartRepo) UpsertCartItem(ctx context.Context, userID, productID string, delta int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cart_items(id,user_id,product_id,quantity,created_at)
		VALUES(?,?,?,?,CURRENT_TIMESTAMP)
		ON CONFLICT(user_id,product_id) DO UPDATE
		SET quantity = cart_items.quantity + excluded.quantity, updated_at = CURRENT_TIMESTAMP
	`, uuid.NewString(), userID, productID, delta)
	return err
}

func (r *CartRepo) CartLines(ctx context.Context, userID string) ([]domain.CartLine, error) {
	rows := []domain.CartLine{}
	err := r.db.SelectContext(ctx, &rows, `
	  SELECT ci.id, ci.product_id, ci.quantity, p.name, p.price, p.image_url, p.stock
	  FROM cart_items ci JOIN products p ON p.id = ci.product_id
	  WHERE ci.user_id = ?
	  ORDER BY ci.created_at, ci.id
	`, userID)
	return rows, err
}

func (r *CartRepo) SetCartQuantity(ctx context.Context, userID, itemID string, qty int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE cart_items SET quantity = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ?
	`, qty, itemID, userID)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (r *CartRepo) DeleteCartItem(ctx context.Context, userID, itemID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = ? AND user_id = ?`, itemID, userID)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (r *CartRepo) ClearCart(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = ?`, userID)
	return err
}
