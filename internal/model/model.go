// Package model defines domain entities used by services and repositories.
package model

import (
	"math"
	"time"

	"github.com/gofrs/uuid/v5"
)

// Session status values. Transitions are one-directional: created ->
// in_progress -> completed. Expiration is computed from ExpiresAt, not
// driven by a background process.
const (
	StatusCreated    = "created"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusExpired    = "expired"
)

// Defaults applied when neither the request nor the owning user supplies
// capture settings.
const (
	DefaultNumPhotos        = 4
	DefaultCountdownSeconds = 3
	DefaultIntervalSeconds  = 5
	DefaultSessionTTL       = 24 * time.Hour
)

// AccessCodeLength is the length of the short public session identifier.
const AccessCodeLength = 8

// User represents an account with photo-booth statistics and preferences.
type User struct {
	ID           uuid.UUID // PK
	Username     string    // unique
	Email        string    // unique
	PasswordHash string    // argon2id encoded hash
	FirstName    string
	LastName     string
	Phone        string
	Bio          string
	IsActive     bool

	SessionsCreated   int        // monotonic, bumped on session creation
	CompletedSessions int        // monotonic, bumped on completion
	LastSessionDate   *time.Time // set only on completion

	PreferredCountdown int // seconds, default 3
	PreferredInterval  int // seconds, default 5

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName returns "First Last" or an empty string when both are unset.
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.LastName
	}
}

// SessionStats is the derived per-user session summary.
type SessionStats struct {
	Total          int
	Completed      int
	CompletionRate float64 // percent, 2 decimal places, 0 when Total == 0
	LastSession    *time.Time
}

// Stats derives session statistics from the user's counters.
func (u *User) Stats() SessionStats {
	rate := 0.0
	if u.SessionsCreated > 0 {
		rate = float64(u.CompletedSessions) / float64(u.SessionsCreated) * 100
		rate = math.Round(rate*100) / 100
	}
	return SessionStats{
		Total:          u.SessionsCreated,
		Completed:      u.CompletedSessions,
		CompletionRate: rate,
		LastSession:    u.LastSessionDate,
	}
}

// AuthToken is the opaque bearer credential. One active token per user;
// rotated, not stacked.
type AuthToken struct {
	Key       string // 40 hex chars
	UserID    uuid.UUID
	CreatedAt time.Time
}

// PhotoTemplate is a reusable photo-layout definition.
type PhotoTemplate struct {
	ID          int64
	Name        string
	Description string
	ImagePath   string
	MaxPhotos   int
	IsActive    bool
	CreatedBy   *uuid.UUID // nulled when the creator is deleted
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PhotoSession is a timed capture session identified by a UUID and a short
// unique access code.
type PhotoSession struct {
	ID          uuid.UUID
	UserID      *uuid.UUID // nil for anonymous sessions
	TemplateID  *int64     // nulled when the template is deleted
	Title       string
	AccessCode  string // 8 chars, unique, immutable once assigned
	Status      string
	CreatedAt   time.Time
	CompletedAt *time.Time // set exactly once, on completion
	ExpiresAt   time.Time  // always >= CreatedAt
}

// IsExpired reports whether the session is past its expiry at the given time.
func (s *PhotoSession) IsExpired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}

// SessionSettings holds per-session capture configuration, one row per
// session. Countdown/interval inherit the owner's preferences on first save
// when unset; the link is one-time, not live.
type SessionSettings struct {
	SessionID        uuid.UUID
	NumPhotos        int
	CountdownSeconds int
	IntervalSeconds  int
	AllowRetake      bool
}

// IndividualPhoto is a single capture belonging to a session. Deleting the
// record also removes the backing file, best-effort.
type IndividualPhoto struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	ImagePath string
	Order     int // assembly order within the session, not unique
	CreatedAt time.Time
}

// CompositePhoto is an assembled result image for a session. A session may
// accumulate several composites; listings are most-recent-first.
type CompositePhoto struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	ImagePath string
	CreatedAt time.Time
}
