package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"roomfit/internal/domain"
	"roomfit/internal/gateway"
)

type ProfileRepo struct{ db *sqlx.DB }

func NewProfileRepo(db *sqlx.DB) *ProfileRepo { return &ProfileRepo{db: db} }

func (r *ProfileRepo) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	var p domain.Profile
	err := r.db.GetContext(ctx, &p, `
		SELECT id, full_name, phone, address, city, country, postal_code, is_admin,
		       COALESCE(updated_at,'') AS updated_at
		FROM profiles WHERE id = ?
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return p, gateway.ErrNotFound
	}
	return p, err
}

// UpdateProfile never touches is_admin; that flag is only set out of band.
func (r *ProfileRepo) UpdateProfile(ctx context.Context, p domain.Profile) error {
	res, err := r.db.NamedExecContext(ctx, `
		UPDATE profiles SET
		  full_name = :full_name, phone = :phone, address = :address,
		  city = :city, country = :country, postal_code = :postal_code,
		  updated_at = CURRENT_TIMESTAMP
		WHERE id = :id
	`, p)
	if err != nil {
		return err
	}
	return mustAffect(res)
}
