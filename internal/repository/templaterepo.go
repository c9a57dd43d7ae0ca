package repository

import (
	"context"

	"github.com/avelasco/fotomaton/internal/model"
)

// TemplateRepository manages reusable photo-layout definitions. Deleting a
// template leaves referencing sessions in place with a nulled reference.
type TemplateRepository interface {
	// Create inserts a template and fills in its generated ID.
	Create(ctx context.Context, t *model.PhotoTemplate) error
	// GetByID loads a template.
	GetByID(ctx context.Context, id int64) (*model.PhotoTemplate, error)
	// List returns templates, newest first, optionally only active ones.
	List(ctx context.Context, activeOnly bool) ([]model.PhotoTemplate, error)
	// Update persists template edits.
	Update(ctx context.Context, t *model.PhotoTemplate) error
	// Delete removes a template.
	Delete(ctx context.Context, id int64) error
}
