// Package bootstrap provides dependency initialization for the audio splice API.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/maauso/audiosplice-api/internal/config"
	"github.com/maauso/audiosplice-api/internal/job"
	"github.com/maauso/audiosplice-api/internal/server"
	"github.com/maauso/audiosplice-api/internal/storage"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	AudioService *job.ProcessAudioService
	Store        storage.Storage
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	store, err := initStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &Dependencies{
		AudioService: job.NewProcessAudioService(store, logger),
		Store:        store,
	}, nil
}

// NewHTTPHandler wires the HTTP handlers, routes and middleware.
func NewHTTPHandler(cfg *config.Config, deps *Dependencies, logger *slog.Logger, version string) http.Handler {
	handlers := server.NewHandlers(deps.AudioService, logger,
		server.WithVersion(version),
		server.WithMaxUploadBytes(cfg.MaxUploadBytes),
	)
	return server.NewRouter(handlers, logger, server.Config{
		AllowedOrigins: cfg.Origins(),
		WebDir:         cfg.WebDir,
	})
}

// initStorage creates the appropriate storage backend based on configuration.
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Storage(cfg.TempDir, s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
			slog.String("endpoint", cfg.S3Endpoint),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStorage(cfg.TempDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local storage configured",
		slog.String("temp_dir", cfg.TempDir),
	)
	return localStore, nil
}

// RunServer serves HTTP on cfg.Port until ctx is cancelled, then shuts down
// gracefully.
func RunServer(ctx context.Context, cfg *config.Config, logger *slog.Logger, version string) error {
	deps, err := NewDependencies(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      NewHTTPHandler(cfg, deps, logger, version),
		ReadTimeout:  60 * time.Second, // Uploads may be large
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening",
			slog.String("addr", srv.Addr),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server failed: %w", err)
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal",
			slog.String("reason", context.Cause(ctx).Error()),
		)
	case err := <-errCh:
		return err
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	logger.Info("shutting down server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}
