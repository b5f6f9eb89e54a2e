package web

import (
	"net/http"
	"time"

	"github.com/vbonduro/pricelist/internal/auth"
	"github.com/vbonduro/pricelist/internal/domain"
	"github.com/vbonduro/pricelist/internal/validation"
)

type authResponse struct {
	Token     string       `json:"token"`
	User      *domain.User `json:"user"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

type sessionResponse struct {
	User      *domain.User `json:"user"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}

	body, err := validation.DecodeSignUp(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to sign up")
		return
	}

	res, err := s.auth.SignUp(r.Context(), body.Email, body.Password, body.Name)
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to sign up")
		return
	}
	s.writeAuthResult(w, http.StatusCreated, res)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}

	body, err := validation.DecodeSignIn(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to sign in")
		return
	}

	res, err := s.auth.SignIn(r.Context(), body.Email, body.Password)
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to sign in")
		return
	}
	s.writeAuthResult(w, http.StatusOK, res)
}

func (s *Server) writeAuthResult(w http.ResponseWriter, status int, res *auth.Result) {
	s.setSessionCookie(w, res.Token, res.Session.ExpiresAt)
	writeJSON(w, status, authResponse{Token: res.Token, User: res.User, ExpiresAt: res.Session.ExpiresAt})
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}

	if err := s.auth.SignOut(r.Context(), id.Session.ID); err != nil {
		s.writeServiceError(w, r, err, "Failed to sign out")
		return
	}
	s.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{User: id.User, ExpiresAt: id.Session.ExpiresAt})
}
