package service

import (
	"context"

	"github.com/avelasco/fotomaton/internal/errs"
	"github.com/avelasco/fotomaton/internal/model"
	"github.com/avelasco/fotomaton/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// ProfileParams carries editable profile fields. Nil pointers leave the
// current value untouched.
type ProfileParams struct {
	FirstName          *string
	LastName           *string
	Phone              *string
	Bio                *string
	PreferredCountdown *int
	PreferredInterval  *int
}

// UserService exposes profiles, preferences and derived statistics. The
// session counters themselves change only through the session lifecycle.
type UserService interface {
	// Get loads a user by ID.
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	// Stats derives the user's session statistics.
	Stats(ctx context.Context, id uuid.UUID) (model.SessionStats, error)
	// UpdateProfile applies partial profile and preference edits.
	UpdateProfile(ctx context.Context, id uuid.UUID, p ProfileParams) (*model.User, error)
}

type UserServiceImpl struct {
	users repository.UserRepository
}

// NewUserService constructs UserService.
func NewUserService(users repository.UserRepository) *UserServiceImpl {
	return &UserServiceImpl{users: users}
}

// Get loads a user by ID.
func (s *UserServiceImpl) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if id == uuid.Nil {
		return nil, errs.Validation("id", "required")
	}
	return s.users.GetByID(ctx, id)
}

// Stats derives session statistics; a user with no sessions reports a
// completion rate of zero.
func (s *UserServiceImpl) Stats(ctx context.Context, id uuid.UUID) (model.SessionStats, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return model.SessionStats{}, err
	}
	return u.Stats(), nil
}

// UpdateProfile applies the provided fields over the stored profile.
func (s *UserServiceImpl) UpdateProfile(ctx context.Context, id uuid.UUID, p ProfileParams) (*model.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.PreferredCountdown != nil {
		if *p.PreferredCountdown < 1 {
			return nil, errs.Validation("preferred_countdown", "must be at least 1 second")
		}
		u.PreferredCountdown = *p.PreferredCountdown
	}
	if p.PreferredInterval != nil {
		if *p.PreferredInterval < 1 {
			return nil, errs.Validation("preferred_interval", "must be at least 1 second")
		}
		u.PreferredInterval = *p.PreferredInterval
	}
	if err := s.users.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
