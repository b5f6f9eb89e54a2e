package web

import (
	"net/http"

	"github.com/vbonduro/pricelist/internal/auth"
	"github.com/vbonduro/pricelist/internal/validation"
)

const (
	idempotencyHeader    = "Idempotency-Key"
	maxIdempotencyKeyLen = 255
)

func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
	switch r.Method {
	case http.MethodGet:
		s.handleListSnapshots(w, r, id)
	case http.MethodPost:
		s.handleCreateSnapshot(w, r, id)
	default:
		allowMethods(w, r, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
	p, err := validation.ParsePagination(r.URL.Query())
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to fetch snapshots")
		return
	}

	page, err := s.snapshots.List(r.Context(), id.User.ID, p)
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to fetch snapshots")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleCreateSnapshot(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
	key := r.Header.Get(idempotencyHeader)
	if len(key) > maxIdempotencyKeyLen {
		writeError(w, http.StatusBadRequest, codeValidation, "Invalid snapshot data",
			map[string][]string{idempotencyHeader: {"Idempotency-Key must be at most 255 characters"}})
		return
	}

	draft, err := validation.DecodeCreateSnapshot(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to create snapshot")
		return
	}

	snap, replayed, err := s.snapshots.CreateIdempotent(r.Context(), id.User.ID, key, draft)
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to create snapshot")
		return
	}

	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, snap)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}

	snap, err := s.snapshots.Get(r.Context(), id.User.ID, r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to fetch snapshot")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleDuplicateSnapshot(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}

	snap, err := s.snapshots.Duplicate(r.Context(), id.User.ID, r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to duplicate snapshot")
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handlePriceList(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}

	pl, err := s.snapshots.PriceList(r.Context(), id.User.ID, r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to convert snapshot")
		return
	}
	writeJSON(w, http.StatusOK, pl)
}
