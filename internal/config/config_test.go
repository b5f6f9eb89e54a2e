package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.NotNil(t, cfg)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.NotEmpty(t, cfg.DBDSN)
	assert.Equal(t, 720*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "0945 555 647", cfg.ShopPhone)
}

func TestLoadCustomValues(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9000")
	t.Setenv("DB_DRIVER", "pgx")
	t.Setenv("DB_DSN", "postgres://localhost/pricelist")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("SHOP_NAME", "Test Shop")
	t.Setenv("COOKIE_SECURE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "pgx", cfg.DBDriver)
	assert.Equal(t, "postgres://localhost/pricelist", cfg.DBDSN)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.MinioUseSSL)
	assert.Equal(t, "Test Shop", cfg.ShopName)
	assert.True(t, cfg.CookieSecure)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricelist.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: \":7000\"\nexport_backend: minio\n"), 0600))
	t.Setenv("PRICELIST_CONFIG", path)
	t.Setenv("EXPORT_BACKEND", "local")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.ListenAddr)
	// The environment wins over the file.
	assert.Equal(t, "local", cfg.ExportBackend)
}

func TestLoadMissingConfigFile(t *testing.T) {
	t.Setenv("PRICELIST_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Error(t, cfg.Validate(), "secret is required outside test mode")

	cfg.SessionSecret = "s3cret"
	assert.NoError(t, cfg.Validate())

	cfg.DBDriver = "mysql"
	cfg.ExportBackend = "ftp"
	cfg.TitleTimezone = "Mars/Olympus"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DRIVER")
	assert.Contains(t, err.Error(), "EXPORT_BACKEND")
	assert.Contains(t, err.Error(), "TITLE_TIMEZONE")
}
