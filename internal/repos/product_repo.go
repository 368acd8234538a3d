package repos

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"roomfit/internal/domain"
	"roomfit/internal/gateway"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `
    id, name, description, price, category, material, color, width, height, depth,
    image_url, model_url, stock,
    COALESCE(created_at,'') AS created_at, COALESCE(updated_at,'') AS updated_at`

func (r *ProductRepo) ListProducts(ctx context.Context, f gateway.ProductFilter) ([]domain.Product, error) {
	where := `1 = 1`
	args := []any{}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		where += ` AND (LOWER(name) LIKE ? OR LOWER(description) LIKE ?)`
		args = append(args, "%"+q+"%", "%"+q+"%")
	}
	if f.Category != "" {
		where += ` AND category = ?`
		args = append(args, f.Category)
	}
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 200
	}

	q := `
  SELECT` + productCols + `
  FROM products
  WHERE ` + where + `
  ORDER BY datetime(created_at) DESC, name
  LIMIT ?`
	args = append(args, limit)

	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, q, args...)
	return out, err
}

func (r *ProductRepo) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.GetContext(ctx, &p, `SELECT`+productCols+` FROM products WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return p, gateway.ErrNotFound
	}
	return p, err
}

// CreateProduct assigns an id when the caller left it blank.
func (r *ProductRepo) CreateProduct(ctx context.Context, p *domain.Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := r.db.NamedExecContext(ctx, `
	  INSERT INTO products
	    (id, name, description, price, category, material, color, width, height, depth, image_url, model_url, stock, created_at)
	  VALUES
	    (:id, :name, :description, :price, :category, :material, :color, :width, :height, :depth, :image_url, :model_url, :stock, CURRENT_TIMESTAMP)
	`, p)
	return err
}

func (r *ProductRepo) UpdateProduct(ctx context.Context, p domain.Product) error {
	res, err := r.db.NamedExecContext(ctx, `
	  UPDATE products SET
	    name = :name, description = :description, price = :price, category = :category,
	    material = :material, color = :color, width = :width, height = :height, depth = :depth,
	    image_url = :image_url, model_url = :model_url, stock = :stock,
	    updated_at = CURRENT_TIMESTAMP
	  WHERE id = :id
	`, p)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (r *ProductRepo) DeleteProduct(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func mustAffect(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return gateway.ErrNotFound
	}
	return nil
}
