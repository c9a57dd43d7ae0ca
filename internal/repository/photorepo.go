package repository

import (
	"context"

	"github.com/avelasco/fotomaton/internal/model"
	"github.com/gofrs/uuid/v5"
)

// PhotoRepository persists individual captures and assembled composites.
// Delete methods return the stored image path so callers can remove the
// physical file after the row is gone.
type PhotoRepository interface {
	// AddPhoto inserts an individual capture.
	AddPhoto(ctx context.Context, p *model.IndividualPhoto) error
	// ListPhotos returns a session's captures in assembly order.
	ListPhotos(ctx context.Context, sessionID uuid.UUID) ([]model.IndividualPhoto, error)
	// CountPhotos returns the number of captures in a session.
	CountPhotos(ctx context.Context, sessionID uuid.UUID) (int, error)
	// DeletePhoto removes a capture row and returns its image path.
	DeletePhoto(ctx context.Context, id uuid.UUID) (string, error)
	// AddComposite inserts an assembled composite.
	AddComposite(ctx context.Context, c *model.CompositePhoto) error
	// ListComposites returns a session's composites, newest first.
	ListComposites(ctx context.Context, sessionID uuid.UUID) ([]model.CompositePhoto, error)
	// DeleteComposite removes a composite row and returns its image path.
	DeleteComposite(ctx context.Context, id uuid.UUID) (string, error)
}
