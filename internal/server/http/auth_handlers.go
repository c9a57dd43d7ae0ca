package httpserver

import (
	"net/http"

	"github.com/avelasco/fotomaton/internal/errs"
	"github.com/avelasco/fotomaton/internal/service"
)

type registerRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Phone           string `json:"phone"`
	Bio             string `json:"bio"`
}

type authResponse struct {
	User  userJSON `json:"user"`
	Token string   `json:"token"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeErr(w, err)
		return
	}
	u, tok, err := s.auth.Register(r.Context(), service.RegisterParams{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Phone:           req.Phone,
		Bio:             req.Bio,
	})
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, authResponse{User: toUserJSON(u), Token: tok.Key})
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeErr(w, err)
		return
	}
	u, tok, err := s.auth.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, authResponse{User: toUserJSON(u), Token: tok.Key})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context(), bearerToken(r)); err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"detail": "logged out"})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromCtx(r.Context())
	var req changePasswordRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeErr(w, err)
		return
	}
	tok, err := s.auth.ChangePassword(r.Context(), u.ID, req.CurrentPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"detail": "password updated", "token": tok.Key})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromCtx(r.Context())
	s.writeJSON(w, http.StatusOK, toUserJSON(u))
}

type updateProfileRequest struct {
	FirstName          *string `json:"first_name"`
	LastName           *string `json:"last_name"`
	Phone              *string `json:"phone"`
	Bio                *string `json:"bio"`
	PreferredCountdown *int    `json:"preferred_countdown"`
	PreferredInterval  *int    `json:"preferred_interval"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromCtx(r.Context())
	var req updateProfileRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeErr(w, err)
		return
	}
	updated, err := s.users.UpdateProfile(r.Context(), u.ID, service.ProfileParams{
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Phone:              req.Phone,
		Bio:                req.Bio,
		PreferredCountdown: req.PreferredCountdown,
		PreferredInterval:  req.PreferredInterval,
	})
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toUserJSON(updated))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromCtx(r.Context())
	if !ok {
		s.writeErr(w, errs.ErrUnauthorized)
		return
	}
	st, err := s.users.Stats(r.Context(), u.ID)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, statsJSON{
		Total:          st.Total,
		Completed:      st.Completed,
		CompletionRate: st.CompletionRate,
		LastSession:    st.LastSession,
	})
}
