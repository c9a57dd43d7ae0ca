package service

import (
	"context"
	"errors"
	"testing"

	pkgcrypto "github.com/avelasco/fotomaton/internal/crypto"
	"github.com/avelasco/fotomaton/internal/errs"
	"github.com/avelasco/fotomaton/internal/model"
	"github.com/gofrs/uuid/v5"
)

func seedUser(t *testing.T, users *fakeUsers, username, email, password string) *model.User {
	t.Helper()
	hash, err := pkgcrypto.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &model.User{
		ID:           uuid.Must(uuid.NewV4()),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
	}
	users.add(u)
	return u
}

func TestRegister(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	users := newFakeUsers()
	svc := NewAuthService(users, newFakeTokens())

	u, tok, err := svc.Register(ctx, RegisterParams{
		Username:        "ana",
		Email:           "ana@example.com",
		Password:        "secret123",
		ConfirmPassword: "secret123",
		FirstName:       "Ana",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.ID == uuid.Nil {
		t.Fatal("expected assigned user ID")
	}
	if !u.IsActive {
		t.Fatal("new accounts must start active")
	}
	if u.PreferredCountdown != model.DefaultCountdownSeconds || u.PreferredInterval != model.DefaultIntervalSeconds {
		t.Fatalf("unexpected preference defaults: %d/%d", u.PreferredCountdown, u.PreferredInterval)
	}
	if len(tok.Key) != 40 {
		t.Fatalf("token key length = %d, want 40", len(tok.Key))
	}
	if !pkgcrypto.VerifyPassword("secret123", u.PasswordHash) {
		t.Fatal("stored hash does not verify the password")
	}
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	users := newFakeUsers()
	seedUser(t, users, "taken", "taken@example.com", "pw")
	svc := NewAuthService(users, newFakeTokens())

	cases := []struct {
		name  string
		p     RegisterParams
		field string
	}{
		{"missing username", RegisterParams{Email: "a@b.c", Password: "x", ConfirmPassword: "x"}, "username"},
		{"invalid email", RegisterParams{Username: "u", Email: "not-an-email", Password: "x", ConfirmPassword: "x"}, "email"},
		{"missing password", RegisterParams{Username: "u", Email: "a@b.c"}, "password"},
		{"password mismatch", RegisterParams{Username: "u", Email: "a@b.c", Password: "x", ConfirmPassword: "y"}, "confirm_password"},
		{"duplicate email", RegisterParams{Username: "u", Email: "taken@example.com", Password: "x", ConfirmPassword: "x"}, "email"},
		{"duplicate username", RegisterParams{Username: "taken", Email: "new@example.com", Password: "x", ConfirmPassword: "x"}, "username"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Register(ctx, tc.p)
			var vErr *errs.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if vErr.Field != tc.field {
				t.Fatalf("field = %q, want %q", vErr.Field, tc.field)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	users := newFakeUsers()
	seeded := seedUser(t, users, "ana", "ana@example.com", "secret123")
	svc := NewAuthService(users, newFakeTokens())

	t.Run("by username", func(t *testing.T) {
		u, tok, err := svc.Login(ctx, "ana", "secret123")
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		if u.ID != seeded.ID {
			t.Fatal("wrong user returned")
		}
		if tok.UserID != seeded.ID {
			t.Fatal("token bound to wrong user")
		}
	})

	t.Run("by email", func(t *testing.T) {
		u, _, err := svc.Login(ctx, "ana@example.com", "secret123")
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		if u.ID != seeded.ID {
			t.Fatal("wrong user returned")
		}
	})

	t.Run("token is stable across logins", func(t *testing.T) {
		_, first, err := svc.Login(ctx, "ana", "secret123")
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		_, second, err := svc.Login(ctx, "ana", "secret123")
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		if first.Key != second.Key {
			t.Fatal("repeated login must reuse the existing token")
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "ana", "nope")
		if !errors.Is(err, errs.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("unknown username", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "ghost", "secret123")
		if !errors.Is(err, errs.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("unknown email reports field error", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "ghost@example.com", "secret123")
		var vErr *errs.ValidationError
		if !errors.As(err, &vErr) || vErr.Field != "login" {
			t.Fatalf("expected login validation error, got %v", err)
		}
	})
}

func TestLoginInactiveAccount(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	users := newFakeUsers()
	u := seedUser(t, users, "ana", "ana@example.com", "secret123")
	users.byID[u.ID].IsActive = false
	svc := NewAuthService(users, newFakeTokens())

	_, _, err := svc.Login(ctx, "ana", "secret123")
	if !errors.Is(err, errs.ErrInactiveAccount) {
		t.Fatalf("expected ErrInactiveAccount, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	users := newFakeUsers()
	seeded := seedUser(t, users, "ana", "ana@example.com", "secret123")
	svc := NewAuthService(users, newFakeTokens())

	_, tok, err := svc.Login(ctx, "ana", "secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	u, err := svc.Authenticate(ctx, tok.Key)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if u.ID != seeded.ID {
		t.Fatal("wrong user resolved")
	}

	if _, err := svc.Authenticate(ctx, "deadbeef"); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for unknown key, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, ""); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for empty key, got %v", err)
	}
}

func TestLogout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	users := newFakeUsers()
	seedUser(t, users, "ana", "ana@example.com", "secret123")
	svc := NewAuthService(users, newFakeTokens())

	_, tok, err := svc.Login(ctx, "ana", "secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := svc.Logout(ctx, tok.Key); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.Authenticate(ctx, tok.Key); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("revoked token still authenticates: %v", err)
	}
	if err := svc.Logout(ctx, tok.Key); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized on repeated logout, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	users := newFakeUsers()
	seeded := seedUser(t, users, "ana", "ana@example.com", "old-pass")
	svc := NewAuthService(users, newFakeTokens())

	_, oldTok, err := svc.Login(ctx, "ana", "old-pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	newTok, err := svc.ChangePassword(ctx, seeded.ID, "old-pass", "new-pass", "new-pass")
	if err != nil {
		t.Fatalf("change password: %v", err)
	}
	if newTok.Key == oldTok.Key {
		t.Fatal("password change must rotate the token")
	}
	if _, err := svc.Authenticate(ctx, oldTok.Key); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("old token survived rotation: %v", err)
	}
	if _, _, err := svc.Login(ctx, "ana", "new-pass"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, _, err := svc.Login(ctx, "ana", "old-pass"); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("old password still accepted: %v", err)
	}
}

func TestChangePasswordValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	users := newFakeUsers()
	seeded := seedUser(t, users, "ana", "ana@example.com", "old-pass")
	svc := NewAuthService(users, newFakeTokens())

	cases := []struct {
		name                  string
		current, next, confirm string
		field                 string
	}{
		{"missing current", "", "n", "n", "current_password"},
		{"missing new", "old-pass", "", "", "new_password"},
		{"mismatch", "old-pass", "a", "b", "confirm_password"},
		{"wrong current", "nope", "n", "n", "current_password"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ChangePassword(ctx, seeded.ID, tc.current, tc.next, tc.confirm)
			var vErr *errs.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if vErr.Field != tc.field {
				t.Fatalf("field = %q, want %q", vErr.Field, tc.field)
			}
		})
	}
}
