package main

import (
	"context"
	"crypto/rand"
	"log"
	"log/slog"
	"time"

	"github.com/vbonduro/pricelist/internal/auth"
	"github.com/vbonduro/pricelist/internal/config"
	"github.com/vbonduro/pricelist/internal/db"
	"github.com/vbonduro/pricelist/internal/exportstore"
	"github.com/vbonduro/pricelist/internal/exportstore/local"
	"github.com/vbonduro/pricelist/internal/exportstore/minio"
	"github.com/vbonduro/pricelist/internal/idempotency"
	"github.com/vbonduro/pricelist/internal/logging"
	"github.com/vbonduro/pricelist/internal/service"
	"github.com/vbonduro/pricelist/internal/store"
	"github.com/vbonduro/pricelist/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	database, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	snapshotStore := store.NewSnapshotStore(database)

	exports, err := newExportStore(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize export store", "backend", cfg.ExportBackend, "error", err)
		return
	}

	snapshotService := service.NewSnapshotService(snapshotStore, exports, logger)
	loc, err := time.LoadLocation(cfg.TitleTimezone)
	if err != nil {
		logger.Error("failed to load title timezone", "error", err)
		return
	}
	snapshotService.UseLocation(loc)

	if cfg.IdempotencyPath != "" {
		ledger, err := idempotency.Open(cfg.IdempotencyPath, cfg.IdempotencyTTL)
		if err != nil {
			logger.Error("failed to open idempotency ledger", "error", err)
			return
		}
		defer func() {
			if err := ledger.Close(); err != nil {
				logger.Error("failed to close idempotency ledger", "error", err)
			}
		}()
		snapshotService.UseLedger(ledger)
		logger.Info("idempotency keys enabled", "path", cfg.IdempotencyPath)
	}

	catalogService := service.NewCatalogService(snapshotStore, service.ShopInfo{
		Name:         cfg.ShopName,
		Phone:        cfg.ShopPhone,
		Location:     cfg.ShopLocation,
		WorkingHours: cfg.ShopWorkingHours,
	}, logger)

	authService := auth.NewService(
		store.NewUserStore(database),
		store.NewSessionStore(database),
		sessionSecret(cfg, logger),
		cfg.SessionTTL,
		logger,
	)

	server := web.NewServer(snapshotService, catalogService, authService, logger)
	server.UseSecureCookies(cfg.CookieSecure)

	if err := server.ListenAndServe(cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
	}
}

func newExportStore(cfg *config.Config, logger *slog.Logger) (exportstore.ExportStore, error) {
	switch cfg.ExportBackend {
	case "minio":
		logger.Info("using MinIO export backend", "endpoint", cfg.MinioEndpoint, "bucket", cfg.MinioBucket)
		return minio.NewMinioExportStore(context.Background(), minio.Config{
			Endpoint:        cfg.MinioEndpoint,
			AccessKeyID:     cfg.MinioAccessKey,
			SecretAccessKey: cfg.MinioSecretKey,
			UseSSL:          cfg.MinioUseSSL,
			Bucket:          cfg.MinioBucket,
			Region:          cfg.MinioRegion,
		}, logger)
	default:
		logger.Info("using local export backend", "path", cfg.ExportPath)
		return local.NewLocalExportStore(cfg.ExportPath)
	}
}

// sessionSecret returns the configured signing key. Test mode without a
// secret gets a random one, so sessions do not survive a restart.
func sessionSecret(cfg *config.Config, logger *slog.Logger) []byte {
	if cfg.SessionSecret != "" {
		return []byte(cfg.SessionSecret)
	}
	logger.Warn("SESSION_SECRET not set, using a random secret")
	return []byte(rand.Text())
}
