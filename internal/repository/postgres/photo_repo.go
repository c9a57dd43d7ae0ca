package postgres

import (
	"context"
	"errors"

	"github.com/avelasco/fotomaton/internal/errs"
	"github.com/avelasco/fotomaton/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// PhotoRepo implements PhotoRepository using PostgreSQL.
type PhotoRepo struct{ db *DB }

// NewPhotoRepo constructs a photo repository.
func NewPhotoRepo(db *DB) *PhotoRepo { return &PhotoRepo{db: db} }

// AddPhoto inserts an individual capture.
func (r *PhotoRepo) AddPhoto(ctx context.Context, p *model.IndividualPhoto) error {
	const q = `
INSERT INTO individual_photos (id, session_id, image_path, photo_order, created_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.Pool.Exec(ctx, q, p.ID, p.SessionID, p.ImagePath, p.Order, p.CreatedAt)
	return err
}

// ListPhotos returns a session's captures in assembly order.
func (r *PhotoRepo) ListPhotos(ctx context.Context, sessionID uuid.UUID) ([]model.IndividualPhoto, error) {
	const q = `
SELECT id, session_id, image_path, photo_order, created_at
FROM individual_photos
WHERE session_id=$1
ORDER BY photo_order ASC, created_at ASC`
	rows, err := r.db.Pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.IndividualPhoto
	for rows.Next() {
		var p model.IndividualPhoto
		if err := rows.Scan(&p.ID, &p.SessionID, &p.ImagePath, &p.Order, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountPhotos returns the number of captures in a session.
func (r *PhotoRepo) CountPhotos(ctx context.Context, sessionID uuid.UUID) (int, error) {
	const q = `SELECT COUNT(*) FROM individual_photos WHERE session_id=$1`
	var n int
	if err := r.db.Pool.QueryRow(ctx, q, sessionID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// DeletePhoto removes a capture row and returns its image path.
func (r *PhotoRepo) DeletePhoto(ctx context.Context, id uuid.UUID) (string, error) {
	const q = `DELETE FROM individual_photos WHERE id=$1 RETURNING image_path`
	var path string
	if err := r.db.Pool.QueryRow(ctx, q, id).Scan(&path); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", errs.ErrNotFound
		}
		return "", err
	}
	return path, nil
}

// AddComposite inserts an assembled composite.
func (r *PhotoRepo) AddComposite(ctx context.Context, c *model.CompositePhoto) error {
	const q = `
INSERT INTO composite_photos (id, session_id, image_path, created_at)
VALUES ($1, $2, $3, $4)`
	_, err := r.db.Pool.Exec(ctx, q, c.ID, c.SessionID, c.ImagePath, c.CreatedAt)
	return err
}

// ListComposites returns a session's composites, newest first.
func (r *PhotoRepo) ListComposites(ctx context.Context, sessionID uuid.UUID) ([]model.CompositePhoto, error) {
	const q = `
SELECT id, session_id, image_path, created_at
FROM composite_photos
WHERE session_id=$1
ORDER BY created_at DESC`
	rows, err := r.db.Pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CompositePhoto
	for rows.Next() {
		var c model.CompositePhoto
		if err := rows.Scan(&c.ID, &c.SessionID, &c.ImagePath, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteComposite removes a composite row and returns its image path.
func (r *PhotoRepo) DeleteComposite(ctx context.Context, id uuid.UUID) (string, error) {
	const q = `DELETE FROM composite_photos WHERE id=$1 RETURNING image_path`
	var path string
	if err := r.db.Pool.QueryRow(ctx, q, id).Scan(&path); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", errs.ErrNotFound
		}
		return "", err
	}
	return path, nil
}
