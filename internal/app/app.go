// Package app wires configuration, storage, the fetch stack and the HTTP layer
// into the two runnable modes: the read API and an ingestion run.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/firdspulse/config"
	"github.com/guttosm/firdspulse/internal/api"
	"github.com/guttosm/firdspulse/internal/logger"
	"github.com/guttosm/firdspulse/internal/s3cache"
	"github.com/guttosm/firdspulse/internal/service"
	"github.com/guttosm/firdspulse/internal/storage"
)

// remoteOpener builds the shared archive bucket client; overridden in tests.
var remoteOpener = func(ctx context.Context, cfg config.S3Config) (*s3cache.Store, error) {
	return s3cache.New(ctx, s3cache.Config{
		Endpoint:       cfg.Endpoint,
		Region:         cfg.Region,
		Bucket:         cfg.Bucket,
		Prefix:         cfg.Prefix,
		AccessKey:      cfg.AccessKey,
		SecretKey:      cfg.SecretKey,
		UseSSL:         cfg.UseSSL,
		ForcePathStyle: cfg.PathStyle,
	})
}

// InitializeApp sets up all application dependencies and returns
// a fully configured Gin router, a cleanup function for graceful shutdown,
// and any error encountered during initialization.
//
// Responsibilities:
//   - Connects to PostgreSQL using InitPostgres().
//   - Initializes the repository layer (ReferenceDataRepository).
//   - Creates the query service and the HTTP handler layer.
//   - Configures the Gin router with all API routes.
//   - Registers health and readiness probes (Postgres, plus the archive bucket when configured).
//   - Provides a cleanup function to close resources (e.g., DB connection).
//
// Returns:
//   - *gin.Engine: the configured Gin HTTP router.
//   - func(): cleanup function to be executed on shutdown.
//   - error: any initialization error that occurred.
func InitializeApp() (*gin.Engine, func(), error) {
	// Load global configuration
	cfg := config.AppConfig

	// Connect to PostgreSQL
	// indirection for unit testing
	db, err := postgresOpener(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	// Initialize repository layer (responsible for DB access)
	repo := storage.NewReferenceDataRepository(db)

	// Initialize service layer (ISIN validation, history shaping)
	svc := service.NewReferenceService(repo)

	// Initialize HTTP handler layer (business logic to HTTP mapping)
	handler := api.NewHandler(svc)

	// Setup Gin router with routes
	router := api.NewRouter(handler, api.RouterOptions{
		RequestTimeout: cfg.Server.RequestTimeout,
		RateLimit:      cfg.Server.RateLimit,
		RateWindow:     cfg.Server.RateWindow,
	})

	// Register health and readiness probes
	checks := []api.Check{{Name: "postgres", Fn: db.PingContext}}
	if cfg.Cache.S3.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		store, err := remoteOpener(ctx, cfg.Cache.S3)
		cancel()
		if err != nil {
			// reported on /readyz, the read API still serves
			logger.L().Warn().Err(err).Str("bucket", cfg.Cache.S3.Bucket).Msg("archive bucket unavailable")
			checks = append(checks, api.Check{Name: "archive_bucket", Fn: func(context.Context) error { return err }})
		} else {
			checks = append(checks, api.Check{Name: "archive_bucket", Fn: store.Health})
		}
	}
	api.NewHealthHandler(checks...).Register(router)

	// Cleanup resources on shutdown
	cleanup := func() {
		_ = db.Close()
	}

	return router, cleanup, nil
}
