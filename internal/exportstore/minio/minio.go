package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/vbonduro/pricelist/internal/exportstore"
)

type Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	Bucket          string
	Region          string
}

type MinioExportStore struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// NewMinioExportStore connects to the object store and creates the bucket
// when it does not exist yet.
func NewMinioExportStore(ctx context.Context, cfg Config, logger *slog.Logger) (*MinioExportStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("minio bucket is required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %q: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %q: %w", cfg.Bucket, err)
		}
		logger.Info("created export bucket", "bucket", cfg.Bucket)
	}

	return &MinioExportStore{client: client, bucket: cfg.Bucket, logger: logger}, nil
}

func (s *MinioExportStore) Save(ctx context.Context, prefix, mimeType string, r io.Reader) (string, error) {
	key := fmt.Sprintf("%s_%s%s", prefix, uuid.NewString(), exportstore.ExtForMIME(mimeType))
	if !exportstore.ValidKey(key) {
		return "", exportstore.ErrInvalidKey
	}

	info, err := s.client.PutObject(ctx, s.bucket, key, r, -1, minio.PutObjectOptions{ContentType: mimeType})
	if err != nil {
		return "", fmt.Errorf("failed to upload export: %w", err)
	}
	s.logger.Debug("export uploaded", "key", key, "bytes", info.Size)
	return key, nil
}

func (s *MinioExportStore) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if !exportstore.ValidKey(key) {
		return nil, "", exportstore.ErrInvalidKey
	}

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", mapError(err)
	}
	// GetObject is lazy; Stat surfaces a missing key.
	stat, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, "", mapError(err)
	}

	mimeType := stat.ContentType
	if mimeType == "" {
		mimeType = exportstore.MIMEForKey(key)
	}
	return obj, mimeType, nil
}

func mapError(err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return exportstore.ErrNotFound
	}
	return fmt.Errorf("failed to read export: %w", err)
}
