// Package service contains application services for authentication, users,
// sessions, photos and templates.
package service

import (
	"context"
	"errors"
	"strings"

	pkgcrypto "github.com/avelasco/fotomaton/internal/crypto"
	"github.com/avelasco/fotomaton/internal/errs"
	"github.com/avelasco/fotomaton/internal/model"
	"github.com/avelasco/fotomaton/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// RegisterParams carries the fields accepted at registration.
type RegisterParams struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	FirstName       string
	LastName        string
	Phone           string
	Bio             string
}

// AuthService defines registration, login and credential management.
type AuthService interface {
	// Register creates a user and issues its bearer token.
	Register(ctx context.Context, p RegisterParams) (*model.User, *model.AuthToken, error)
	// Login authenticates by username or email and returns the user's token.
	Login(ctx context.Context, login, password string) (*model.User, *model.AuthToken, error)
	// Authenticate resolves a presented bearer token to its user.
	Authenticate(ctx context.Context, key string) (*model.User, error)
	// Logout revokes the presented bearer token.
	Logout(ctx context.Context, key string) error
	// ChangePassword verifies the current password, stores the new one and
	// rotates the bearer token.
	ChangePassword(ctx context.Context, userID uuid.UUID, current, newPass, confirm string) (*model.AuthToken, error)
}

type AuthServiceImpl struct {
	users  repository.UserRepository
	tokens repository.TokenRepository
	newKey func() (string, error)
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(users repository.UserRepository, tokens repository.TokenRepository) *AuthServiceImpl {
	return &AuthServiceImpl{users: users, tokens: tokens, newKey: pkgcrypto.NewTokenKey}
}

// Register validates the payload, creates the user and issues a token.
func (s *AuthServiceImpl) Register(ctx context.Context, p RegisterParams) (*model.User, *model.AuthToken, error) {
	switch {
	case p.Username == "":
		return nil, nil, errs.Validation("username", "required")
	case p.Email == "" || !strings.Contains(p.Email, "@"):
		return nil, nil, errs.Validation("email", "a valid email is required")
	case p.Password == "":
		return nil, nil, errs.Validation("password", "required")
	case p.Password != p.ConfirmPassword:
		return nil, nil, errs.Validation("confirm_password", "passwords do not match")
	}

	if _, err := s.users.GetByEmail(ctx, p.Email); err == nil {
		return nil, nil, errs.Validation("email", "already in use")
	} else if !errors.Is(err, errs.ErrNotFound) {
		return nil, nil, err
	}
	if _, err := s.users.GetByUsername(ctx, p.Username); err == nil {
		return nil, nil, errs.Validation("username", "already in use")
	} else if !errors.Is(err, errs.ErrNotFound) {
		return nil, nil, err
	}

	hash, err := pkgcrypto.HashPassword(p.Password)
	if err != nil {
		return nil, nil, err
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return nil, nil, err
	}
	u := &model.User{
		ID:                 uid,
		Username:           p.Username,
		Email:              p.Email,
		PasswordHash:       hash,
		FirstName:          p.FirstName,
		LastName:           p.LastName,
		Phone:              p.Phone,
		Bio:                p.Bio,
		IsActive:           true,
		PreferredCountdown: model.DefaultCountdownSeconds,
		PreferredInterval:  model.DefaultIntervalSeconds,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, errs.ErrAlreadyExists) {
			// Raced another registration past the pre-checks.
			return nil, nil, errs.Validation("username", "already in use")
		}
		return nil, nil, err
	}

	tok, err := s.issueToken(ctx, uid)
	if err != nil {
		return nil, nil, err
	}
	return u, tok, nil
}

// Login resolves the identifier as email when it contains '@', otherwise as
// username, verifies the password and returns the user's current token.
func (s *AuthServiceImpl) Login(ctx context.Context, login, password string) (*model.User, *model.AuthToken, error) {
	if login == "" || password == "" {
		return nil, nil, errs.Validation("login", "login and password are required")
	}

	var u *model.User
	var err error
	if strings.Contains(login, "@") {
		u, err = s.users.GetByEmail(ctx, login)
		if errors.Is(err, errs.ErrNotFound) {
			// The email path reports an unknown account explicitly.
			return nil, nil, errs.Validation("login", "no account with that email")
		}
	} else {
		u, err = s.users.GetByUsername(ctx, login)
		if errors.Is(err, errs.ErrNotFound) {
			return nil, nil, errs.ErrUnauthorized
		}
	}
	if err != nil {
		return nil, nil, err
	}

	if !pkgcrypto.VerifyPassword(password, u.PasswordHash) {
		return nil, nil, errs.ErrUnauthorized
	}
	if !u.IsActive {
		return nil, nil, errs.ErrInactiveAccount
	}

	tok, err := s.issueToken(ctx, u.ID)
	if err != nil {
		return nil, nil, err
	}
	return u, tok, nil
}

// Authenticate maps a bearer token to its user.
func (s *AuthServiceImpl) Authenticate(ctx context.Context, key string) (*model.User, error) {
	if key == "" {
		return nil, errs.ErrUnauthorized
	}
	tok, err := s.tokens.GetByKey(ctx, key)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.ErrUnauthorized
		}
		return nil, err
	}
	u, err := s.users.GetByID(ctx, tok.UserID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.ErrUnauthorized
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, errs.ErrInactiveAccount
	}
	return u, nil
}

// Logout revokes the presented token. An unknown token reports a generic
// unauthorized error.
func (s *AuthServiceImpl) Logout(ctx context.Context, key string) error {
	err := s.tokens.DeleteByKey(ctx, key)
	if errors.Is(err, errs.ErrNotFound) {
		return errs.ErrUnauthorized
	}
	return err
}

// ChangePassword verifies and replaces the password, then rotates the token
// so older credentials stop working.
func (s *AuthServiceImpl) ChangePassword(ctx context.Context, userID uuid.UUID, current, newPass, confirm string) (*model.AuthToken, error) {
	switch {
	case current == "":
		return nil, errs.Validation("current_password", "required")
	case newPass == "":
		return nil, errs.Validation("new_password", "required")
	case confirm == "":
		return nil, errs.Validation("confirm_password", "required")
	case newPass != confirm:
		return nil, errs.Validation("confirm_password", "passwords do not match")
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !pkgcrypto.VerifyPassword(current, u.PasswordHash) {
		return nil, errs.Validation("current_password", "incorrect password")
	}

	hash, err := pkgcrypto.HashPassword(newPass)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return nil, err
	}

	key, err := s.newKey()
	if err != nil {
		return nil, err
	}
	return s.tokens.Rotate(ctx, userID, key)
}

func (s *AuthServiceImpl) issueToken(ctx context.Context, userID uuid.UUID) (*model.AuthToken, error) {
	key, err := s.newKey()
	if err != nil {
		return nil, err
	}
	return s.tokens.GetOrCreate(ctx, userID, key)
}
