package web

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/vbonduro/pricelist/internal/auth"
)

const sessionCookie = "pricelist_session"

type privateHandler func(w http.ResponseWriter, r *http.Request, id *auth.Identity)

// private rejects requests without a live session before anything else
// about the request is looked at. Store failures during the lookup are
// reported as 500.
func (s *Server) private(h privateHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, err := s.auth.GetSession(r.Context(), sessionToken(r))
		if errors.Is(err, auth.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "Authentication required", nil)
			return
		}
		if err != nil {
			s.log(r).Error("session lookup failed", "error", err)
			writeError(w, http.StatusInternalServerError, codeInternal, "Internal server error", nil)
			return
		}
		h(w, r, ident)
	}
}

// sessionToken reads the bearer token, falling back to the session cookie.
func sessionToken(r *http.Request) string {
	if scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	if c, err := r.Cookie(sessionCookie); err == nil {
		return c.Value
	}
	return ""
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
