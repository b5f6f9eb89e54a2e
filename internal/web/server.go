package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/vbonduro/pricelist/internal/auth"
	"github.com/vbonduro/pricelist/internal/service"
)

type Server struct {
	snapshots     *service.SnapshotService
	catalog       *service.CatalogService
	auth          *auth.Service
	mux           *http.ServeMux
	logger        *slog.Logger
	secureCookies bool
}

func NewServer(snapshots *service.SnapshotService, catalog *service.CatalogService, authSvc *auth.Service, logger *slog.Logger) *Server {
	s := &Server{
		snapshots: snapshots,
		catalog:   catalog,
		auth:      authSvc,
		mux:       http.NewServeMux(),
		logger:    logger,
	}
	s.registerRoutes()
	return s
}

// UseSecureCookies marks session cookies Secure, for deployments behind TLS.
func (s *Server) UseSecureCookies(secure bool) {
	s.secureCookies = secure
}

// Private routes register without a method so that authentication is
// checked before the method, and an anonymous caller always sees 401.
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/api/snapshots", s.private(s.handleSnapshots))
	s.mux.HandleFunc("/api/snapshots/{id}", s.private(s.handleSnapshot))
	s.mux.HandleFunc("/api/snapshots/{id}/duplicate", s.private(s.handleDuplicateSnapshot))
	s.mux.HandleFunc("/api/snapshots/{id}/prices", s.private(s.handlePriceList))
	s.mux.HandleFunc("/api/snapshots/{id}/image", s.private(s.handleAttachImage))
	s.mux.HandleFunc("/api/exports/{key}", s.handleGetExport)

	s.mux.HandleFunc("/api/public/products", s.handlePublicProducts)

	s.mux.HandleFunc("/api/auth/sign-up", s.handleSignUp)
	s.mux.HandleFunc("/api/auth/sign-in", s.handleSignIn)
	s.mux.HandleFunc("/api/auth/sign-out", s.private(s.handleSignOut))
	s.mux.HandleFunc("/api/auth/session", s.private(s.handleSession))

	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	s.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "Not found", nil)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID(s.logger,
		requestLogger(s.logger,
			recoverer(s.logger,
				securityHeaders(s.mux)))).ServeHTTP(w, r)
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return srv.ListenAndServe()
}
