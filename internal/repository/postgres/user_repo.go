package postgres

import (
	"context"
	"errors"

	"github.com/avelasco/fotomaton/internal/errs"
	"github.com/avelasco/fotomaton/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// UserRepo implements UserRepository using PostgreSQL.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, username, email, password_hash, first_name, last_name, phone, bio, is_active,
sessions_created, completed_sessions, last_session_date, preferred_countdown, preferred_interval,
created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.FirstName, &u.LastName, &u.Phone, &u.Bio, &u.IsActive,
		&u.SessionsCreated, &u.CompletedSessions, &u.LastSessionDate,
		&u.PreferredCountdown, &u.PreferredInterval,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user row.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	const q = `
INSERT INTO users (id, username, email, password_hash, first_name, last_name, phone, bio,
                   preferred_countdown, preferred_interval)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.Pool.Exec(ctx, q,
		u.ID, u.Username, u.Email, u.PasswordHash,
		u.FirstName, u.LastName, u.Phone, u.Bio,
		u.PreferredCountdown, u.PreferredInterval,
	)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetByID selects a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(r.db.Pool.QueryRow(ctx, q, id))
}

// GetByUsername selects a user by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE username=$1`
	return scanUser(r.db.Pool.QueryRow(ctx, q, username))
}

// GetByEmail selects a user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	return scanUser(r.db.Pool.QueryRow(ctx, q, email))
}

// UpdateProfile persists profile fields and capture preferences.
func (r *UserRepo) UpdateProfile(ctx context.Context, u *model.User) error {
	const q = `
UPDATE users
SET first_name=$2, last_name=$3, phone=$4, bio=$5,
    preferred_countdown=$6, preferred_interval=$7, updated_at=now()
WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q,
		u.ID, u.FirstName, u.LastName, u.Phone, u.Bio,
		u.PreferredCountdown, u.PreferredInterval,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	const q = `UPDATE users SET password_hash=$2, updated_at=now() WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
