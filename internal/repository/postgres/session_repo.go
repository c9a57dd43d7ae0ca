package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/avelasco/fotomaton/internal/errs"
	"github.com/avelasco/fotomaton/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SessionRepo implements SessionRepository using PostgreSQL.
type SessionRepo struct{ db *DB }

// NewSessionRepo constructs a session repository.
func NewSessionRepo(db *DB) *SessionRepo { return &SessionRepo{db: db} }

const sessionColumns = `id, user_id, template_id, title, access_code, status, created_at, completed_at, expires_at`

func scanSession(row pgx.Row) (*model.PhotoSession, error) {
	var s model.PhotoSession
	err := row.Scan(
		&s.ID, &s.UserID, &s.TemplateID, &s.Title, &s.AccessCode,
		&s.Status, &s.CreatedAt, &s.CompletedAt, &s.ExpiresAt,
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
	return &s, nil
}

// Create inserts the session with its settings and bumps the owner's
// sessions_created counter in one transaction.
func (r *SessionRepo) Create(ctx context.Context, s *model.PhotoSession, set *model.SessionSettings) (err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const insSession = `
INSERT INTO photo_sessions (id, user_id, template_id, title, access_code, status, created_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err = tx.Exec(ctx, insSession,
		s.ID, s.UserID, s.TemplateID, s.Title, s.AccessCode, s.Status, s.CreatedAt, s.ExpiresAt,
	); err != nil {
		if isUniqueViolation(err) {
			err = errs.ErrAlreadyExists
		}
		return err
	}

	const insSettings = `
INSERT INTO session_settings (session_id, num_photos, countdown_seconds, interval_seconds, allow_retake)
VALUES ($1, $2, $3, $4, $5)`
	if _, err = tx.Exec(ctx, insSettings,
		set.SessionID, set.NumPhotos, set.CountdownSeconds, set.IntervalSeconds, set.AllowRetake,
	); err != nil {
		return err
	}

	if s.UserID != nil {
		const bump = `UPDATE users SET sessions_created = sessions_created + 1, updated_at=now() WHERE id=$1`
		if _, err = tx.Exec(ctx, bump, *s.UserID); err != nil {
			return err
		}
	}
	return nil
}

// GetByID selects a session by primary key.
func (r *SessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.PhotoSession, error) {
	q := `SELECT ` + sessionColumns + ` FROM photo_sessions WHERE id=$1`
	return scanSession(r.db.Pool.QueryRow(ctx, q, id))
}

// GetByAccessCode selects a session by its short public code.
func (r *SessionRepo) GetByAccessCode(ctx context.Context, code string) (*model.PhotoSession, error) {
	q := `SELECT ` + sessionColumns + ` FROM photo_sessions WHERE access_code=$1`
	return scanSession(r.db.Pool.QueryRow(ctx, q, code))
}

// ListByUser returns a user's sessions, most recent first.
func (r *SessionRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.PhotoSession, error) {
	q := `SELECT ` + sessionColumns + ` FROM photo_sessions WHERE user_id=$1 ORDER BY created_at DESC`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PhotoSession
	for rows.Next() {
		var s model.PhotoSession
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.TemplateID, &s.Title, &s.AccessCode,
			&s.Status, &s.CreatedAt, &s.CompletedAt, &s.ExpiresAt,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetSettings loads the settings row for a session.
func (r *SessionRepo) GetSettings(ctx context.Context, sessionID uuid.UUID) (*model.SessionSettings, error) {
	const q = `
SELECT session_id, num_photos, countdown_seconds, interval_seconds, allow_retake
FROM session_settings WHERE session_id=$1`
	var set model.SessionSettings
	err := r.db.Pool.QueryRow(ctx, q, sessionID).Scan(
		&set.SessionID, &set.NumPhotos, &set.CountdownSeconds, &set.IntervalSeconds, &set.AllowRetake,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &set, nil
}

// UpdateSettings persists explicit settings changes. Values set here never
// re-inherit user preferences.
func (r *SessionRepo) UpdateSettings(ctx context.Context, set *model.SessionSettings) error {
	const q = `
UPDATE session_settings
SET num_photos=$2, countdown_seconds=$3, interval_seconds=$4, allow_retake=$5
WHERE session_id=$1`
	tag, err := r.db.Pool.Exec(ctx, q,
		set.SessionID, set.NumPhotos, set.CountdownSeconds, set.IntervalSeconds, set.AllowRetake,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// SetStatus persists a status value without side effects.
func (r *SessionRepo) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	const q = `UPDATE photo_sessions SET status=$2 WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Complete marks the session completed. completed_at and the owner's
// counters change only on the first completion; repeat calls persist the
// status and report false.
func (r *SessionRepo) Complete(ctx context.Context, id uuid.UUID, at time.Time) (first bool, err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
			first = false
		}
	}()

	const complete = `
UPDATE photo_sessions SET status=$3, completed_at=$2
WHERE id=$1 AND completed_at IS NULL
RETURNING user_id`
	var userID *uuid.UUID
	scanErr := tx.QueryRow(ctx, complete, id, at, model.StatusCompleted).Scan(&userID)
	switch {
	case scanErr == nil:
		if userID != nil {
			const bump = `
UPDATE users SET completed_sessions = completed_sessions + 1, last_session_date=$2, updated_at=now()
WHERE id=$1`
			if _, err = tx.Exec(ctx, bump, *userID, at); err != nil {
				return false, err
			}
		}
		return true, nil
	case errors.Is(scanErr, pgx.ErrNoRows):
		// Already completed: keep the status write, skip side effects.
		var tag pgconn.CommandTag
		tag, err = tx.Exec(ctx, `UPDATE photo_sessions SET status=$2 WHERE id=$1`, id, model.StatusCompleted)
		if err != nil {
			return false, err
		}
		if tag.RowsAffected() == 0 {
			err = errs.ErrNotFound
			return false, err
		}
		return false, nil
	default:
		err = scanErr
		return false, err
	}
}

// SetExpiry updates expires_at without touching status.
func (r *SessionRepo) SetExpiry(ctx context.Context, id uuid.UUID, at time.Time) error {
	const q = `UPDATE photo_sessions SET expires_at=$2 WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Delete removes the session and all dependents in one transaction and
// returns the image paths of the deleted photos and composites.
func (r *SessionRepo) Delete(ctx context.Context, id uuid.UUID) (paths []string, err error) {
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
			paths = nil
		}
	}()

	for _, q := range []string{
		`DELETE FROM individual_photos WHERE session_id=$1 RETURNING image_path`,
		`DELETE FROM composite_photos WHERE session_id=$1 RETURNING image_path`,
	} {
		var rows pgx.Rows
		rows, err = tx.Query(ctx, q, id)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var p string
			if err = rows.Scan(&p); err != nil {
				rows.Close()
				return nil, err
			}
			if p != "" {
				paths = append(paths, p)
			}
		}
		rows.Close()
		if err = rows.Err(); err != nil {
			return nil, err
		}
	}

	if _, err = tx.Exec(ctx, `DELETE FROM session_settings WHERE session_id=$1`, id); err != nil {
		return nil, err
	}
	var tag pgconn.CommandTag
	tag, err = tx.Exec(ctx, `DELETE FROM photo_sessions WHERE id=$1`, id)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		err = errs.ErrNotFound
		return nil, err
	}
	return paths, nil
}
