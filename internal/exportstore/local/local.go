package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/vbonduro/pricelist/internal/exportstore"
)

type LocalExportStore struct {
	basePath string
}

func NewLocalExportStore(basePath string) (*LocalExportStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}
	return &LocalExportStore{basePath: basePath}, nil
}

func (s *LocalExportStore) Save(ctx context.Context, prefix, mimeType string, r io.Reader) (string, error) {
	key := fmt.Sprintf("%s_%s%s", prefix, uuid.NewString(), exportstore.ExtForMIME(mimeType))
	filePath, err := s.safeJoin(key)
	if err != nil {
		return "", err
	}

	f, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		if cerr := f.Close(); cerr != nil {
			slog.Error("failed to close file after write error", "error", cerr)
		}
		if rerr := os.Remove(filePath); rerr != nil {
			slog.Error("failed to remove file after write error", "error", rerr)
		}
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		if rerr := os.Remove(filePath); rerr != nil {
			slog.Error("failed to remove file after close error", "error", rerr)
		}
		return "", fmt.Errorf("failed to close file: %w", err)
	}
	return key, nil
}

func (s *LocalExportStore) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	filePath, err := s.safeJoin(key)
	if err != nil {
		return nil, "", err
	}

	f, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", exportstore.ErrNotFound
		}
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	return f, exportstore.MIMEForKey(key), nil
}

// safeJoin resolves key relative to basePath and rejects directory traversal.
func (s *LocalExportStore) safeJoin(key string) (string, error) {
	if !exportstore.ValidKey(key) {
		return "", exportstore.ErrInvalidKey
	}

	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}

	absPath, err := filepath.Abs(filepath.Join(s.basePath, key))
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", exportstore.ErrInvalidKey
	}
	return absPath, nil
}
