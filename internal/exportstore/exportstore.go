// Package exportstore keeps the images that browsers render from a
// snapshot so they can be shared by URL.
package exportstore

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"
)

// MaxImageSize is the largest export accepted, in bytes.
const MaxImageSize = 10 << 20

var (
	ErrNotFound        = errors.New("export not found")
	ErrInvalidKey      = errors.New("invalid export key")
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrTooLarge        = errors.New("image exceeds 10MB")
)

type ExportStore interface {
	Save(ctx context.Context, prefix, mimeType string, r io.Reader) (key string, err error)
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// DetectImageType sniffs data and returns its MIME type when it is one of
// the accepted export formats.
func DetectImageType(data []byte) (string, error) {
	if len(data) > MaxImageSize {
		return "", ErrTooLarge
	}
	if isWebP(data) {
		return "image/webp", nil
	}
	mimeType := http.DetectContentType(data)
	switch mimeType {
	case "image/png", "image/jpeg", "image/webp":
		return mimeType, nil
	default:
		return "", ErrUnsupportedType
	}
}

// isWebP reports whether data is a RIFF container with "WEBP" at offset 8.
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// ValidKey reports whether key is a single flat object name of the form the
// stores hand out.
func ValidKey(key string) bool {
	if key == "" || key != path.Base(key) || strings.ContainsAny(key, `/\`) {
		return false
	}
	return key != "." && key != ".."
}

func ExtForMIME(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

func MIMEForKey(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
