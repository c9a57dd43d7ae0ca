// Package httpserver exposes the domain services as a JSON API.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/avelasco/fotomaton/internal/errs"
	"github.com/avelasco/fotomaton/internal/model"
	"github.com/avelasco/fotomaton/internal/service"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20 // JSON bodies; uploads are limited separately

// Server wires the domain services to HTTP routes.
type Server struct {
	auth      service.AuthService
	users     service.UserService
	sessions  service.SessionService
	photos    service.PhotoService
	templates service.TemplateService
	log       *zap.Logger

	now func() time.Time
}

// New constructs the API server.
func New(auth service.AuthService, users service.UserService, sessions service.SessionService, photos service.PhotoService, templates service.TemplateService, log *zap.Logger) *Server {
	return &Server{
		auth:      auth,
		users:     users,
		sessions:  sessions,
		photos:    photos,
		templates: templates,
		log:       log,
		now:       time.Now,
	}
}

// Handler returns the routed handler wrapped in recover and logging
// middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", s.requireUser(s.handleLogout))
	mux.HandleFunc("POST /api/auth/change-password", s.requireUser(s.handleChangePassword))

	mux.HandleFunc("GET /api/users/me", s.requireUser(s.handleMe))
	mux.HandleFunc("PATCH /api/users/me", s.requireUser(s.handleUpdateProfile))
	mux.HandleFunc("GET /api/users/me/stats", s.requireUser(s.handleStats))

	mux.HandleFunc("POST /api/sessions", s.withUser(s.handleCreateSession))
	mux.HandleFunc("GET /api/sessions", s.requireUser(s.handleListSessions))
	mux.HandleFunc("GET /api/sessions/code/{code}", s.handleSessionByCode)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.withUser(s.handleDeleteSession))
	mux.HandleFunc("POST /api/sessions/{id}/start", s.handleStartSession)
	mux.HandleFunc("POST /api/sessions/{id}/complete", s.handleCompleteSession)
	mux.HandleFunc("POST /api/sessions/{id}/extend", s.handleExtendSession)
	mux.HandleFunc("GET /api/sessions/{id}/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/sessions/{id}/settings", s.handleUpdateSettings)

	mux.HandleFunc("POST /api/sessions/{id}/photos", s.handleUploadPhoto)
	mux.HandleFunc("GET /api/sessions/{id}/photos", s.handleListPhotos)
	mux.HandleFunc("DELETE /api/photos/{id}", s.handleDeletePhoto)
	mux.HandleFunc("POST /api/sessions/{id}/composite", s.handleGenerateComposite)
	mux.HandleFunc("GET /api/sessions/{id}/composites", s.handleListComposites)
	mux.HandleFunc("DELETE /api/composites/{id}", s.handleDeleteComposite)

	mux.HandleFunc("GET /api/templates", s.handleListTemplates)
	mux.HandleFunc("POST /api/templates", s.requireUser(s.handleCreateTemplate))
	mux.HandleFunc("PATCH /api/templates/{id}", s.requireUser(s.handleUpdateTemplate))
	mux.HandleFunc("DELETE /api/templates/{id}", s.requireUser(s.handleDeleteTemplate))

	var h http.Handler = mux
	h = Logging(s.log)(h)
	h = Recover(s.log)(h)
	return h
}

// withUser authenticates the bearer token when one is presented; requests
// without credentials proceed anonymously.
func (s *Server) withUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if key := bearerToken(r); key != "" {
			u, err := s.auth.Authenticate(r.Context(), key)
			if err != nil {
				s.writeErr(w, err)
				return
			}
			r = r.WithContext(WithUser(r.Context(), u))
		}
		next(w, r)
	}
}

// requireUser rejects requests that do not carry a valid bearer token.
func (s *Server) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return s.withUser(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromCtx(r.Context()); !ok {
			s.writeErr(w, errs.ErrUnauthorized)
			return
		}
		next(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("encode response", zap.Error(err))
	}
}

type errResponse struct {
	Error  string `json:"error"`
	Field  string `json:"field,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// writeErr maps domain errors onto HTTP status codes.
func (s *Server) writeErr(w http.ResponseWriter, err error) {
	var ve *errs.ValidationError
	switch {
	case errors.As(err, &ve):
		s.writeJSON(w, http.StatusBadRequest, errResponse{Error: "validation", Field: ve.Field, Detail: ve.Reason})
	case errors.Is(err, errs.ErrUnauthorized):
		s.writeJSON(w, http.StatusUnauthorized, errResponse{Error: "unauthorized"})
	case errors.Is(err, errs.ErrInactiveAccount):
		s.writeJSON(w, http.StatusUnauthorized, errResponse{Error: "account inactive"})
	case errors.Is(err, errs.ErrNotFound):
		s.writeJSON(w, http.StatusNotFound, errResponse{Error: "not found"})
	case errors.Is(err, errs.ErrSessionExpired):
		s.writeJSON(w, http.StatusGone, errResponse{Error: "session expired"})
	case errors.Is(err, errs.ErrAlreadyExists):
		s.writeJSON(w, http.StatusConflict, errResponse{Error: "conflict"})
	default:
		s.log.Error("request failed", zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, errResponse{Error: "internal"})
	}
}

func (s *Server) decodeJSON(r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errs.Validation("body", "invalid JSON payload")
	}
	return nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.FromString(r.PathValue(name))
	if err != nil {
		return uuid.Nil, errs.Validation(name, "must be a UUID")
	}
	return id, nil
}

// Response shapes.

type statsJSON struct {
	Total          int        `json:"total"`
	Completed      int        `json:"completed"`
	CompletionRate float64    `json:"completion_rate"`
	LastSession    *time.Time `json:"last_session"`
}

type userJSON struct {
	ID                 uuid.UUID `json:"id"`
	Username           string    `json:"username"`
	Email              string    `json:"email"`
	FirstName          string    `json:"first_name,omitempty"`
	LastName           string    `json:"last_name,omitempty"`
	FullName           string    `json:"full_name,omitempty"`
	Phone              string    `json:"phone,omitempty"`
	Bio                string    `json:"bio,omitempty"`
	PreferredCountdown int       `json:"preferred_countdown"`
	PreferredInterval  int       `json:"preferred_interval"`
	CreatedAt          time.Time `json:"date_joined"`
	Stats              statsJSON `json:"session_stats"`
}

func toUserJSON(u *model.User) userJSON {
	st := u.Stats()
	return userJSON{
		ID:                 u.ID,
		Username:           u.Username,
		Email:              u.Email,
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		FullName:           u.FullName(),
		Phone:              u.Phone,
		Bio:                u.Bio,
		PreferredCountdown: u.PreferredCountdown,
		PreferredInterval:  u.PreferredInterval,
		CreatedAt:          u.CreatedAt,
		Stats: statsJSON{
			Total:          st.Total,
			Completed:      st.Completed,
			CompletionRate: st.CompletionRate,
			LastSession:    st.LastSession,
		},
	}
}

type sessionJSON struct {
	ID          uuid.UUID  `json:"id"`
	UserID      *uuid.UUID `json:"user_id"`
	TemplateID  *int64     `json:"template_id"`
	Title       string     `json:"title,omitempty"`
	AccessCode  string     `json:"access_code"`
	Status      string     `json:"status"`
	IsExpired   bool       `json:"is_expired"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
}

func (s *Server) toSessionJSON(sess *model.PhotoSession) sessionJSON {
	return sessionJSON{
		ID:          sess.ID,
		UserID:      sess.UserID,
		TemplateID:  sess.TemplateID,
		Title:       sess.Title,
		AccessCode:  sess.AccessCode,
		Status:      sess.Status,
		IsExpired:   sess.IsExpired(s.now()),
		CreatedAt:   sess.CreatedAt,
		CompletedAt: sess.CompletedAt,
		ExpiresAt:   sess.ExpiresAt,
	}
}

type settingsJSON struct {
	SessionID        uuid.UUID `json:"session_id"`
	NumPhotos        int       `json:"num_photos"`
	CountdownSeconds int       `json:"countdown_seconds"`
	IntervalSeconds  int       `json:"interval_seconds"`
	AllowRetake      bool      `json:"allow_retake"`
}

func toSettingsJSON(set *model.SessionSettings) settingsJSON {
	return settingsJSON{
		SessionID:        set.SessionID,
		NumPhotos:        set.NumPhotos,
		CountdownSeconds: set.CountdownSeconds,
		IntervalSeconds:  set.IntervalSeconds,
		AllowRetake:      set.AllowRetake,
	}
}

type photoJSON struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	ImagePath string    `json:"image"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"created_at"`
}

type compositeJSON struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	ImagePath string    `json:"image"`
	CreatedAt time.Time `json:"created_at"`
}

type templateJSON struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	ImagePath   string     `json:"image,omitempty"`
	MaxPhotos   int        `json:"max_photos"`
	IsActive    bool       `json:"is_active"`
	CreatedBy   *uuid.UUID `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toTemplateJSON(t *model.PhotoTemplate) templateJSON {
	return templateJSON{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		ImagePath:   t.ImagePath,
		MaxPhotos:   t.MaxPhotos,
		IsActive:    t.IsActive,
		CreatedBy:   t.CreatedBy,
		CreatedAt:   t.CreatedAt,
	}
}
