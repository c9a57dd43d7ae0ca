package repository

import (
	"context"
	"time"

	"github.com/avelasco/fotomaton/internal/model"
	"github.com/gofrs/uuid/v5"
)

// SessionRepository persists photo sessions, their settings and the
// user-counter side effects that belong to the same transaction.
type SessionRepository interface {
	// Create inserts the session and its settings and increments the owner's
	// sessions_created counter, all in one transaction. An access-code
	// collision surfaces as errs.ErrAlreadyExists.
	Create(ctx context.Context, s *model.PhotoSession, set *model.SessionSettings) error
	// GetByID loads a session by primary key.
	GetByID(ctx context.Context, id uuid.UUID) (*model.PhotoSession, error)
	// GetByAccessCode loads a session by its short public code.
	GetByAccessCode(ctx context.Context, code string) (*model.PhotoSession, error)
	// ListByUser returns a user's sessions, most recent first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.PhotoSession, error)
	// GetSettings loads the settings row for a session.
	GetSettings(ctx context.Context, sessionID uuid.UUID) (*model.SessionSettings, error)
	// UpdateSettings persists explicit settings changes.
	UpdateSettings(ctx context.Context, set *model.SessionSettings) error
	// SetStatus persists a status value without side effects.
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
	// Complete marks the session completed. The completed_at stamp and the
	// owner's completed_sessions/last_session_date updates run only when the
	// session was not completed before; the returned flag reports whether
	// this call performed that first completion.
	Complete(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	// SetExpiry updates expires_at without touching status.
	SetExpiry(ctx context.Context, id uuid.UUID, at time.Time) error
	// Delete removes the session with its settings, photos and composites in
	// one transaction and returns the file paths of the removed children so
	// the caller can clean up physical storage.
	Delete(ctx context.Context, id uuid.UUID) ([]string, error)
}
