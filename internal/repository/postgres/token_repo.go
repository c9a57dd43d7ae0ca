package postgres

import (
	"context"
	"errors"

	"github.com/avelasco/fotomaton/internal/errs"
	"github.com/avelasco/fotomaton/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// TokenRepo implements TokenRepository using PostgreSQL.
type TokenRepo struct{ db *DB }

// NewTokenRepo constructs a token repository.
func NewTokenRepo(db *DB) *TokenRepo { return &TokenRepo{db: db} }

// GetOrCreate inserts key as the user's token unless one already exists,
// then returns whichever token is current.
func (r *TokenRepo) GetOrCreate(ctx context.Context, userID uuid.UUID, key string) (*model.AuthToken, error) {
	const ins = `
INSERT INTO auth_tokens (key, user_id)
VALUES ($1, $2)
ON CONFLICT (user_id) DO NOTHING`
	if _, err := r.db.Pool.Exec(ctx, ins, key, userID); err != nil {
		return nil, err
	}
	const sel = `SELECT key, user_id, created_at FROM auth_tokens WHERE user_id=$1`
	var t model.AuthToken
	if err := r.db.Pool.QueryRow(ctx, sel, userID).Scan(&t.Key, &t.UserID, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByKey resolves a presented token.
func (r *TokenRepo) GetByKey(ctx context.Context, key string) (*model.AuthToken, error) {
	const q = `SELECT key, user_id, created_at FROM auth_tokens WHERE key=$1`
	var t model.AuthToken
	if err := r.db.Pool.QueryRow(ctx, q, key).Scan(&t.Key, &t.UserID, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// DeleteByKey revokes a token.
func (r *TokenRepo) DeleteByKey(ctx context.Context, key string) error {
	const q = `DELETE FROM auth_tokens WHERE key=$1`
	tag, err := r.db.Pool.Exec(ctx, q, key)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Rotate replaces the user's token with key in one transaction.
func (r *TokenRepo) Rotate(ctx context.Context, userID uuid.UUID, key string) (t *model.AuthToken, err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
			t = nil
		}
	}()

	if _, err = tx.Exec(ctx, `DELETE FROM auth_tokens WHERE user_id=$1`, userID); err != nil {
		return nil, err
	}
	const ins = `INSERT INTO auth_tokens (key, user_id) VALUES ($1, $2) RETURNING key, user_id, created_at`
	t = &model.AuthToken{}
	if err = tx.QueryRow(ctx, ins, key, userID).Scan(&t.Key, &t.UserID, &t.CreatedAt); err != nil {
		return nil, err
	}
	return t, nil
}
