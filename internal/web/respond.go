package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/vbonduro/pricelist/internal/auth"
	"github.com/vbonduro/pricelist/internal/exportstore"
	"github.com/vbonduro/pricelist/internal/idempotency"
	"github.com/vbonduro/pricelist/internal/logging"
	"github.com/vbonduro/pricelist/internal/service"
	"github.com/vbonduro/pricelist/internal/validation"
)

const (
	codeUnauthorized     = "UNAUTHORIZED"
	codeNotFound         = "NOT_FOUND"
	codeValidation       = "VALIDATION_ERROR"
	codeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	codeConflict         = "CONFLICT"
	codeInternal         = "INTERNAL_ERROR"
)

// maxJSONBody bounds request bodies that carry JSON.
const maxJSONBody = 1 << 20

type apiError struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Details map[string][]string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string, details map[string][]string) {
	writeJSON(w, status, apiError{Code: code, Message: message, Details: details})
}

// allowMethods writes a 405 and returns false unless the request uses one
// of methods.
func allowMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	if slices.Contains(methods, r.Method) {
		return true
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, fmt.Sprintf("Method %s not allowed", r.Method), nil)
	return false
}

// writeServiceError maps a service-layer error to its API response. Errors
// without a mapping are logged and reported as internalMsg.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, internalMsg string) {
	if verr, ok := validation.AsError(err); ok {
		writeError(w, http.StatusBadRequest, codeValidation, verr.Message, verr.Fields)
		return
	}

	switch {
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "Snapshot not found", nil)
	case errors.Is(err, exportstore.ErrUnsupportedType), errors.Is(err, exportstore.ErrTooLarge):
		writeError(w, http.StatusBadRequest, codeValidation, "Invalid image",
			map[string][]string{"image": {err.Error()}})
	case errors.Is(err, idempotency.ErrInFlight):
		writeError(w, http.StatusConflict, codeConflict, "A request with this Idempotency-Key is still in progress", nil)
	case errors.Is(err, auth.ErrEmailTaken):
		writeError(w, http.StatusConflict, codeConflict, "Email is already registered", nil)
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "Invalid email or password", nil)
	default:
		s.log(r).Error(internalMsg, "error", err)
		writeError(w, http.StatusInternalServerError, codeInternal, internalMsg, nil)
	}
}

func (s *Server) log(r *http.Request) *slog.Logger {
	return logging.FromContext(r.Context(), s.logger)
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
