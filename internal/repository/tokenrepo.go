package repository

import (
	"context"

	"github.com/avelasco/fotomaton/internal/model"
	"github.com/gofrs/uuid/v5"
)

// TokenRepository manages the single opaque bearer credential per user.
type TokenRepository interface {
	// GetOrCreate returns the user's current token, inserting key as the new
	// token when the user has none.
	GetOrCreate(ctx context.Context, userID uuid.UUID, key string) (*model.AuthToken, error)
	// GetByKey resolves a presented token.
	GetByKey(ctx context.Context, key string) (*model.AuthToken, error)
	// DeleteByKey revokes a token.
	DeleteByKey(ctx context.Context, key string) error
	// Rotate atomically revokes the user's current token and installs key.
	Rotate(ctx context.Context, userID uuid.UUID, key string) (*model.AuthToken, error)
}
