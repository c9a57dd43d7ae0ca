package service

import (
	"context"
	"errors"
	"time"

	"github.com/avelasco/fotomaton/internal/errs"
	"github.com/avelasco/fotomaton/internal/filestore"
	"github.com/avelasco/fotomaton/internal/model"
	"github.com/avelasco/fotomaton/internal/repository"
	"github.com/gofrs/uuid/v5"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// codeAttempts bounds access-code generation retries on collision.
const codeAttempts = 5

// CreateSessionParams carries the fields accepted at session creation.
type CreateSessionParams struct {
	UserID     *uuid.UUID // nil for anonymous sessions
	TemplateID *int64
	Title      string
	ExpiresAt  *time.Time // defaults to now + TTL

	NumPhotos        int  // 0 means default
	CountdownSeconds int  // 0 inherits owner preference, then default
	IntervalSeconds  int  // 0 inherits owner preference, then default
	AllowRetake      *bool
}

// SessionService owns the session lifecycle: creation with access-code
// issuance, status transitions, expiration and cascading deletion.
type SessionService interface {
	// Create persists a session with settings and owner-counter update.
	Create(ctx context.Context, p CreateSessionParams) (*model.PhotoSession, *model.SessionSettings, error)
	// Get loads a session by ID.
	Get(ctx context.Context, id uuid.UUID) (*model.PhotoSession, error)
	// GetByAccessCode loads a session by its short public code.
	GetByAccessCode(ctx context.Context, code string) (*model.PhotoSession, error)
	// ListByUser returns a user's sessions, most recent first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.PhotoSession, error)
	// Settings loads the capture settings for a session.
	Settings(ctx context.Context, sessionID uuid.UUID) (*model.SessionSettings, error)
	// UpdateSettings persists explicit settings changes.
	UpdateSettings(ctx context.Context, set *model.SessionSettings) error
	// MarkInProgress transitions the session to in_progress.
	MarkInProgress(ctx context.Context, id uuid.UUID) (*model.PhotoSession, error)
	// MarkCompleted transitions to completed; repeat calls never
	// double-count the owner's statistics.
	MarkCompleted(ctx context.Context, id uuid.UUID) (*model.PhotoSession, error)
	// ExtendExpiration moves expires_at to now + hours (default 24).
	ExtendExpiration(ctx context.Context, id uuid.UUID, hours int) (*model.PhotoSession, error)
	// Delete removes the session, its children and their backing files.
	Delete(ctx context.Context, id uuid.UUID) error
}

type SessionServiceImpl struct {
	sessions repository.SessionRepository
	users    repository.UserRepository
	files    filestore.Store
	log      *zap.Logger
	ttl      time.Duration

	now     func() time.Time
	newID   func() (uuid.UUID, error)
	newCode func() string
}

// NewSessionService constructs SessionService with required dependencies.
// ttl is the default lifetime of new sessions; zero falls back to 24 hours.
func NewSessionService(sessions repository.SessionRepository, users repository.UserRepository, files filestore.Store, log *zap.Logger, ttl time.Duration) *SessionServiceImpl {
	if ttl <= 0 {
		ttl = model.DefaultSessionTTL
	}
	return &SessionServiceImpl{
		sessions: sessions,
		users:    users,
		files:    files,
		log:      log,
		ttl:      ttl,
		now:      time.Now,
		newID:    uuid.NewV4,
		newCode:  NewAccessCode,
	}
}

// NewAccessCode derives an 8-char code from a fresh random identifier. The
// truncation raises collision odds versus the full UUID; the storage
// uniqueness constraint plus bounded retry covers that.
func NewAccessCode() string {
	return uuid.Must(uuid.NewV4()).String()[:model.AccessCodeLength]
}

// Create builds the session and its settings, applying the one-time
// inheritance of owner preferences, and persists everything in one
// transaction. Access-code collisions are retried up to codeAttempts times.
func (s *SessionServiceImpl) Create(ctx context.Context, p CreateSessionParams) (*model.PhotoSession, *model.SessionSettings, error) {
	now := s.now()

	var owner *model.User
	if p.UserID != nil {
		u, err := s.users.GetByID(ctx, *p.UserID)
		if err != nil {
			return nil, nil, err
		}
		owner = u
	}

	expires := now.Add(s.ttl)
	if p.ExpiresAt != nil {
		if p.ExpiresAt.Before(now) {
			return nil, nil, errs.Validation("expires_at", "must not be in the past")
		}
		expires = *p.ExpiresAt
	}

	set := &model.SessionSettings{
		NumPhotos:        p.NumPhotos,
		CountdownSeconds: p.CountdownSeconds,
		IntervalSeconds:  p.IntervalSeconds,
		AllowRetake:      true,
	}
	if p.AllowRetake != nil {
		set.AllowRetake = *p.AllowRetake
	}
	if set.NumPhotos <= 0 {
		set.NumPhotos = model.DefaultNumPhotos
	}
	if set.CountdownSeconds <= 0 {
		if owner != nil && owner.PreferredCountdown > 0 {
			set.CountdownSeconds = owner.PreferredCountdown
		} else {
			set.CountdownSeconds = model.DefaultCountdownSeconds
		}
	}
	if set.IntervalSeconds <= 0 {
		if owner != nil && owner.PreferredInterval > 0 {
			set.IntervalSeconds = owner.PreferredInterval
		} else {
			set.IntervalSeconds = model.DefaultIntervalSeconds
		}
	}

	var sess *model.PhotoSession
	backoff := retry.WithMaxRetries(codeAttempts-1, retry.NewConstant(time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		id, err := s.newID()
		if err != nil {
			return err
		}
		candidate := &model.PhotoSession{
			ID:         id,
			UserID:     p.UserID,
			TemplateID: p.TemplateID,
			Title:      p.Title,
			AccessCode: s.newCode(),
			Status:     model.StatusCreated,
			CreatedAt:  now,
			ExpiresAt:  expires,
		}
		set.SessionID = id
		if err := s.sessions.Create(ctx, candidate, set); err != nil {
			if errors.Is(err, errs.ErrAlreadyExists) {
				return retry.RetryableError(err)
			}
			return err
		}
		sess = candidate
		return nil
	})
	if err != nil {
		if errors.Is(err, errs.ErrAlreadyExists) {
			return nil, nil, errs.ErrCodeExhausted
		}
		return nil, nil, err
	}
	return sess, set, nil
}

// Get loads a session by ID.
func (s *SessionServiceImpl) Get(ctx context.Context, id uuid.UUID) (*model.PhotoSession, error) {
	if id == uuid.Nil {
		return nil, errs.Validation("id", "required")
	}
	return s.sessions.GetByID(ctx, id)
}

// GetByAccessCode loads a session by its short public code.
func (s *SessionServiceImpl) GetByAccessCode(ctx context.Context, code string) (*model.PhotoSession, error) {
	if len(code) != model.AccessCodeLength {
		return nil, errs.Validation("access_code", "must be 8 characters")
	}
	return s.sessions.GetByAccessCode(ctx, code)
}

// ListByUser returns the user's sessions, most recent first.
func (s *SessionServiceImpl) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.PhotoSession, error) {
	if userID == uuid.Nil {
		return nil, errs.Validation("user_id", "required")
	}
	return s.sessions.ListByUser(ctx, userID)
}

// Settings loads the capture settings for a session.
func (s *SessionServiceImpl) Settings(ctx context.Context, sessionID uuid.UUID) (*model.SessionSettings, error) {
	return s.sessions.GetSettings(ctx, sessionID)
}

// UpdateSettings persists explicit changes. Explicit values stick; they are
// never re-filled from user preferences.
func (s *SessionServiceImpl) UpdateSettings(ctx context.Context, set *model.SessionSettings) error {
	switch {
	case set.SessionID == uuid.Nil:
		return errs.Validation("session_id", "required")
	case set.NumPhotos <= 0:
		return errs.Validation("num_photos", "must be positive")
	case set.CountdownSeconds <= 0:
		return errs.Validation("countdown_seconds", "must be positive")
	case set.IntervalSeconds <= 0:
		return errs.Validation("interval_seconds", "must be positive")
	}
	return s.sessions.UpdateSettings(ctx, set)
}

// MarkInProgress transitions the session to in_progress. Calling it on a
// session already in progress persists the same state again.
func (s *SessionServiceImpl) MarkInProgress(ctx context.Context, id uuid.UUID) (*model.PhotoSession, error) {
	if err := s.sessions.SetStatus(ctx, id, model.StatusInProgress); err != nil {
		return nil, err
	}
	return s.sessions.GetByID(ctx, id)
}

// MarkCompleted transitions the session to completed. The completed_at
// stamp and the owner's counters are applied only on the first call.
func (s *SessionServiceImpl) MarkCompleted(ctx context.Context, id uuid.UUID) (*model.PhotoSession, error) {
	if _, err := s.sessions.Complete(ctx, id, s.now()); err != nil {
		return nil, err
	}
	return s.sessions.GetByID(ctx, id)
}

// ExtendExpiration moves expires_at to now + hours without changing status.
func (s *SessionServiceImpl) ExtendExpiration(ctx context.Context, id uuid.UUID, hours int) (*model.PhotoSession, error) {
	if hours <= 0 {
		hours = 24
	}
	at := s.now().Add(time.Duration(hours) * time.Hour)
	if err := s.sessions.SetExpiry(ctx, id, at); err != nil {
		return nil, err
	}
	return s.sessions.GetByID(ctx, id)
}

// Delete removes the session with its children, then removes each child's
// backing file. File removal is best-effort: failures are logged and never
// abort the deletion.
func (s *SessionServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	paths, err := s.sessions.Delete(ctx, id)
	if err != nil {
		return err
	}
	for _, p := range paths {
		if err := s.files.Remove(p); err != nil {
			s.log.Warn("remove session file", zap.String("path", p), zap.Error(err))
		}
	}
	return nil
}
