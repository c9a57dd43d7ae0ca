package httpserver

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/avelasco/fotomaton/internal/errs"
	"github.com/avelasco/fotomaton/internal/model"
	"github.com/avelasco/fotomaton/internal/service"
	"github.com/gofrs/uuid/v5"
)

const maxUploadBytes = 20 << 20

type createSessionRequest struct {
	Title      string     `json:"title"`
	TemplateID *int64     `json:"template_id"`
	ExpiresAt  *time.Time `json:"expires_at"`

	NumPhotos        int   `json:"num_photos"`
	CountdownSeconds int   `json:"countdown_seconds"`
	IntervalSeconds  int   `json:"interval_seconds"`
	AllowRetake      *bool `json:"allow_retake"`
}

type sessionResponse struct {
	Session  sessionJSON   `json:"session"`
	Settings *settingsJSON `json:"settings,omitempty"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength != 0 {
		if err := s.decodeJSON(r, &req); err != nil {
			s.writeErr(w, err)
			return
		}
	}
	p := service.CreateSessionParams{
		TemplateID:       req.TemplateID,
		Title:            req.Title,
		ExpiresAt:        req.ExpiresAt,
		NumPhotos:        req.NumPhotos,
		CountdownSeconds: req.CountdownSeconds,
		IntervalSeconds:  req.IntervalSeconds,
		AllowRetake:      req.AllowRetake,
	}
	if u, ok := UserFromCtx(r.Context()); ok {
		p.UserID = &u.ID
	}
	sess, set, err := s.sessions.Create(r.Context(), p)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	setJSON := toSettingsJSON(set)
	s.writeJSON(w, http.StatusCreated, sessionResponse{Session: s.toSessionJSON(sess), Settings: &setJSON})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromCtx(r.Context())
	list, err := s.sessions.ListByUser(r.Context(), u.ID)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	out := make([]sessionJSON, 0, len(list))
	for i := range list {
		out = append(out, s.toSessionJSON(&list[i]))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSessionByCode(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.GetByAccessCode(r.Context(), r.PathValue("code"))
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sessionResponse{Session: s.toSessionJSON(sess)})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeErr(w, err)
		return
	}
	sess, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sessionResponse{Session: s.toSessionJSON(sess)})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeErr(w, err)
		return
	}
	sess, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	// Owned sessions may only be deleted by their owner.
	if sess.UserID != nil {
		u, ok := UserFromCtx(r.Context())
		if !ok || u.ID != *sess.UserID {
			s.writeErr(w, errs.ErrUnauthorized)
			return
		}
	}
	if err := s.sessions.Delete(r.Context(), id); err != nil {
		s.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.sessions.MarkInProgress)
}

func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.sessions.MarkCompleted)
}

func (s *Server) transition(w http.ResponseWriter, r *http.Request, op func(context.Context, uuid.UUID) (*model.PhotoSession, error)) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeErr(w, err)
		return
	}
	sess, err := op(r.Context(), id)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sessionResponse{Session: s.toSessionJSON(sess)})
}

type extendRequest struct {
	Hours int `json:"hours"`
}

func (s *Server) handleExtendSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeErr(w, err)
		return
	}
	var req extendRequest
	if r.ContentLength != 0 {
		if err := s.decodeJSON(r, &req); err != nil {
			s.writeErr(w, err)
			return
		}
	}
	sess, err := s.sessions.ExtendExpiration(r.Context(), id, req.Hours)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sessionResponse{Session: s.toSessionJSON(sess)})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeErr(w, err)
		return
	}
	set, err := s.sessions.Settings(r.Context(), id)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toSettingsJSON(set))
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeErr(w, err)
		return
	}
	var req settingsJSON
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeErr(w, err)
		return
	}
	set := &model.SessionSettings{
		SessionID:        id,
		NumPhotos:        req.NumPhotos,
		CountdownSeconds: req.CountdownSeconds,
		IntervalSeconds:  req.IntervalSeconds,
		AllowRetake:      req.AllowRetake,
	}
	if err := s.sessions.UpdateSettings(r.Context(), set); err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toSettingsJSON(set))
}

func (s *Server) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeErr(w, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeErr(w, errs.Validation("image", "invalid multipart upload"))
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		s.writeErr(w, errs.Validation("image", "image file is required"))
		return
	}
	defer file.Close()

	order := 0
	if v := r.FormValue("order"); v != "" {
		order, err = strconv.Atoi(v)
		if err != nil {
			s.writeErr(w, errs.Validation("order", "must be an integer"))
			return
		}
	}

	p, err := s.photos.AddPhoto(r.Context(), id, order, header.Filename, file)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, photoJSON{
		ID: p.ID, SessionID: p.SessionID, ImagePath: p.ImagePath, Order: p.Order, CreatedAt: p.CreatedAt,
	})
}

func (s *Server) handleListPhotos(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeErr(w, err)
		return
	}
	list, err := s.photos.ListPhotos(r.Context(), id)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	out := make([]photoJSON, 0, len(list))
	for _, p := range list {
		out = append(out, photoJSON{
			ID: p.ID, SessionID: p.SessionID, ImagePath: p.ImagePath, Order: p.Order, CreatedAt: p.CreatedAt,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeletePhoto(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeErr(w, err)
		return
	}
	if err := s.photos.DeletePhoto(r.Context(), id); err != nil {
		s.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGenerateComposite(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeErr(w, err)
		return
	}
	c, err := s.photos.GenerateComposite(r.Context(), id)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, compositeJSON{
		ID: c.ID, SessionID: c.SessionID, ImagePath: c.ImagePath, CreatedAt: c.CreatedAt,
	})
}

func (s *Server) handleListComposites(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeErr(w, err)
		return
	}
	list, err := s.photos.ListComposites(r.Context(), id)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	out := make([]compositeJSON, 0, len(list))
	for _, c := range list {
		out = append(out, compositeJSON{
			ID: c.ID, SessionID: c.SessionID, ImagePath: c.ImagePath, CreatedAt: c.CreatedAt,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteComposite(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeErr(w, err)
		return
	}
	if err := s.photos.DeleteComposite(r.Context(), id); err != nil {
		s.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type templateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ImagePath   string `json:"image"`
	MaxPhotos   int    `json:"max_photos"`
	IsActive    *bool  `json:"is_active"`
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	list, err := s.templates.List(r.Context(), activeOnly)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	out := make([]templateJSON, 0, len(list))
	for i := range list {
		out = append(out, toTemplateJSON(&list[i]))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromCtx(r.Context())
	var req templateRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeErr(w, err)
		return
	}
	t, err := s.templates.Create(r.Context(), u.ID, service.TemplateParams{
		Name:        req.Name,
		Description: req.Description,
		ImagePath:   req.ImagePath,
		MaxPhotos:   req.MaxPhotos,
		IsActive:    req.IsActive,
	})
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toTemplateJSON(t))
}

func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeErr(w, errs.Validation("id", "must be an integer"))
		return
	}
	var req templateRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeErr(w, err)
		return
	}
	t, err := s.templates.Update(r.Context(), id, service.TemplateParams{
		Name:        req.Name,
		Description: req.Description,
		ImagePath:   req.ImagePath,
		MaxPhotos:   req.MaxPhotos,
		IsActive:    req.IsActive,
	})
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toTemplateJSON(t))
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeErr(w, errs.Validation("id", "must be an integer"))
		return
	}
	if err := s.templates.Delete(r.Context(), id); err != nil {
		s.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
