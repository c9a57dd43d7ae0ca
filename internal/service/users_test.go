package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/avelasco/fotomaton/internal/errs"
	"github.com/avelasco/fotomaton/internal/model"
	"github.com/gofrs/uuid/v5"
)

func TestStats(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	users := newFakeUsers()
	svc := NewUserService(users)

	last := time.Date(2026, 2, 14, 20, 0, 0, 0, time.UTC)
	cases := []struct {
		name     string
		user     model.User
		wantRate float64
	}{
		{"no sessions", model.User{}, 0},
		{"one of three", model.User{SessionsCreated: 3, CompletedSessions: 1}, 33.33},
		{"two of three", model.User{SessionsCreated: 3, CompletedSessions: 2}, 66.67},
		{"all completed", model.User{SessionsCreated: 5, CompletedSessions: 5, LastSessionDate: &last}, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u := tc.user
			u.ID = uuid.Must(uuid.NewV4())
			u.Username = "u-" + u.ID.String()[:8]
			u.Email = u.Username + "@example.com"
			users.add(&u)

			st, err := svc.Stats(ctx, u.ID)
			if err != nil {
				t.Fatalf("stats: %v", err)
			}
			if st.CompletionRate != tc.wantRate {
				t.Fatalf("completion rate = %v, want %v", st.CompletionRate, tc.wantRate)
			}
			if st.Total != u.SessionsCreated || st.Completed != u.CompletedSessions {
				t.Fatalf("counters %d/%d, want %d/%d", st.Total, st.Completed, u.SessionsCreated, u.CompletedSessions)
			}
			if u.LastSessionDate == nil && st.LastSession != nil {
				t.Fatal("last session reported for a user without one")
			}
		})
	}
}

func TestUpdateProfile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	users := newFakeUsers()
	u := &model.User{
		ID:                 uuid.Must(uuid.NewV4()),
		Username:           "ana",
		Email:              "ana@example.com",
		FirstName:          "Ana",
		PreferredCountdown: 3,
		PreferredInterval:  5,
	}
	users.add(u)
	svc := NewUserService(users)

	last := "Velasco"
	countdown := 10
	updated, err := svc.UpdateProfile(ctx, u.ID, ProfileParams{
		LastName:           &last,
		PreferredCountdown: &countdown,
	})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.FirstName != "Ana" {
		t.Fatal("untouched field changed")
	}
	if updated.LastName != "Velasco" || updated.PreferredCountdown != 10 {
		t.Fatalf("updates not applied: %+v", updated)
	}
	if updated.FullName() != "Ana Velasco" {
		t.Fatalf("full name = %q", updated.FullName())
	}

	stored := users.byID[u.ID]
	if stored.LastName != "Velasco" || stored.PreferredCountdown != 10 {
		t.Fatalf("updates not persisted: %+v", stored)
	}
}

func TestUpdateProfileValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	users := newFakeUsers()
	u := &model.User{ID: uuid.Must(uuid.NewV4()), Username: "ana", Email: "ana@example.com"}
	users.add(u)
	svc := NewUserService(users)

	zero := 0
	_, err := svc.UpdateProfile(ctx, u.ID, ProfileParams{PreferredCountdown: &zero})
	var vErr *errs.ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "preferred_countdown" {
		t.Fatalf("expected preferred_countdown validation error, got %v", err)
	}

	_, err = svc.UpdateProfile(ctx, u.ID, ProfileParams{PreferredInterval: &zero})
	if !errors.As(err, &vErr) || vErr.Field != "preferred_interval" {
		t.Fatalf("expected preferred_interval validation error, got %v", err)
	}
}

func TestGetUnknownUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := NewUserService(newFakeUsers())
	if _, err := svc.Get(ctx, uuid.Must(uuid.NewV4())); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
