package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"roomfit/internal/domain"
	"roomfit/internal/gateway"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

// CreateUser inserts the account and its empty profile.
func (r *UserRepo) CreateUser(ctx context.Context, u domain.User, fullName string) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT INTO users(id,email,password_hash) VALUES(?,?,?)`,
		u.ID, u.Email, u.Hash); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO profiles(id,full_name) VALUES(?,?)`, u.ID, fullName); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *UserRepo) UserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, `SELECT id,email,password_hash FROM users WHERE LOWER(email)=LOWER(?)`, email)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepo) UserByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, `SELECT id,email,password_hash FROM users WHERE id=?`, id)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepo) SetPasswordHash(ctx context.Context, userID, hash string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE users SET password_hash=?, updated_at=CURRENT_TIMESTAMP WHERE id=?`, hash, userID)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (r *UserRepo) CreateSession(ctx context.Context, sid, userID string, recovery bool) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO sessions(id,user_id,recovery,last_seen)
                          VALUES(?,?,?,CURRENT_TIMESTAMP)`, sid, userID, recovery)
	return err
}

func (r *UserRepo) SessionUser(ctx context.Context, sid string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, `
      SELECT u.id,u.email,u.password_hash
      FROM sessions s
      JOIN users u ON u.id=s.user_id
      WHERE s.id=? AND (s.recovery=0 OR s.consumed=1)`, sid)
	if err != nil {
		return nil, notFound(err)
	}
	_, _ = r.DB.ExecContext(ctx, `UPDATE sessions SET last_seen=CURRENT_TIMESTAMP WHERE id=?`, sid)
	return &u, nil
}

func (r *UserRepo) ConsumeRecoverySession(ctx context.Context, sid string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE sessions SET consumed=1, last_seen=CURRENT_TIMESTAMP
		WHERE id=? AND recovery=1 AND consumed=0`, sid)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *UserRepo) DeleteSession(ctx context.Context, sid string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM sessions WHERE id=?`, sid)
	return err
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return gateway.ErrNotFound
	}
	return err
}
