package web

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/vbonduro/pricelist/internal/auth"
	"github.com/vbonduro/pricelist/internal/exportstore"
	"github.com/vbonduro/pricelist/internal/validation"
)

// multipartOverhead leaves room for form boundaries and part headers on top
// of the image itself.
const multipartOverhead = 64 << 10

type exportResponse struct {
	Key      string `json:"key"`
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`
}

// handleAttachImage accepts a rendered snapshot image either as the "image"
// field of a multipart form or as the raw request body.
func (s *Server) handleAttachImage(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, exportstore.MaxImageSize+multipartOverhead)
	data, err := s.readImage(r)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			err = exportstore.ErrTooLarge
		}
		s.writeServiceError(w, r, err, "Failed to store image")
		return
	}

	img, err := s.snapshots.AttachImage(r.Context(), id.User.ID, r.PathValue("id"), data)
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to store image")
		return
	}
	writeJSON(w, http.StatusCreated, exportResponse{
		Key:      img.Key,
		URL:      "/api/exports/" + img.Key,
		MimeType: img.MimeType,
	})
}

func (s *Server) readImage(r *http.Request) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return io.ReadAll(r.Body)
	}

	if err := r.ParseMultipartForm(exportstore.MaxImageSize); err != nil {
		return nil, err
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, &validation.Error{
				Message: "Invalid image",
				Fields:  map[string][]string{"image": {"image is required"}},
			}
		}
		return nil, err
	}
	defer closeWithLog(file, "upload file", s.log(r))
	return io.ReadAll(file)
}

func (s *Server) handleGetExport(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}

	key := r.PathValue("key")
	if !exportstore.ValidKey(key) {
		writeError(w, http.StatusNotFound, codeNotFound, "Export not found", nil)
		return
	}

	reader, mimeType, err := s.snapshots.OpenImage(r.Context(), key)
	if err != nil {
		if errors.Is(err, exportstore.ErrNotFound) || errors.Is(err, exportstore.ErrInvalidKey) {
			writeError(w, http.StatusNotFound, codeNotFound, "Export not found", nil)
			return
		}
		s.log(r).Error("failed to open export", "key", key, "error", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "Failed to fetch export", nil)
		return
	}
	defer closeWithLog(reader, "export reader", s.log(r))

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	if _, err := io.Copy(w, reader); err != nil {
		s.log(r).Error("write export failed", "key", key, "error", err)
	}
}
