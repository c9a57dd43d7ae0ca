package postgres

import (
	"context"
	"errors"

	"github.com/avelasco/fotomaton/internal/errs"
	"github.com/avelasco/fotomaton/internal/model"
	"github.com/jackc/pgx/v5"
)

// TemplateRepo implements TemplateRepository using PostgreSQL.
type TemplateRepo struct{ db *DB }

// NewTemplateRepo constructs a template repository.
func NewTemplateRepo(db *DB) *TemplateRepo { return &TemplateRepo{db: db} }

const templateColumns = `id, name, description, image_path, max_photos, is_active, created_by, created_at, updated_at`

// Create inserts a template and fills in its generated ID.
func (r *TemplateRepo) Create(ctx context.Context, t *model.PhotoTemplate) error {
	const q = `
INSERT INTO photo_templates (name, description, image_path, max_photos, is_active, created_by)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at, updated_at`
	return r.db.Pool.QueryRow(ctx, q,
		t.Name, t.Description, t.ImagePath, t.MaxPhotos, t.IsActive, t.CreatedBy,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

// GetByID selects a template.
func (r *TemplateRepo) GetByID(ctx context.Context, id int64) (*model.PhotoTemplate, error) {
	q := `SELECT ` + templateColumns + ` FROM photo_templates WHERE id=$1`
	var t model.PhotoTemplate
	err := r.db.Pool.QueryRow(ctx, q, id).Scan(
		&t.ID, &t.Name, &t.Description, &t.ImagePath, &t.MaxPhotos,
		&t.IsActive, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// List returns templates, newest first, optionally only active ones.
func (r *TemplateRepo) List(ctx context.Context, activeOnly bool) ([]model.PhotoTemplate, error) {
	q := `SELECT ` + templateColumns + ` FROM photo_templates`
	if activeOnly {
		q += ` WHERE is_active`
	}
	q += ` ORDER BY created_at DESC`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PhotoTemplate
	for rows.Next() {
		var t model.PhotoTemplate
		if err := rows.Scan(
			&t.ID, &t.Name, &t.Description, &t.ImagePath, &t.MaxPhotos,
			&t.IsActive, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Update persists template edits.
func (r *TemplateRepo) Update(ctx context.Context, t *model.PhotoTemplate) error {
	const q = `
UPDATE photo_templates
SET name=$2, description=$3, image_path=$4, max_photos=$5, is_active=$6, updated_at=now()
WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q,
		t.ID, t.Name, t.Description, t.ImagePath, t.MaxPhotos, t.IsActive,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Delete removes a template. Sessions referencing it keep a nulled
// reference via the FK's ON DELETE SET NULL.
func (r *TemplateRepo) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM photo_templates WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
