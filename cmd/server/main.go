// cloudflow-server hosts the virtual drive over HTTP.
//
// State lives in memory and is written through to the configured store
// (JSON files or PostgreSQL). Uploaded blobs go to local disk or S3,
// and AI features proxy to an optional sidecar.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cloudflow/cloudflow/internal/api"
	"github.com/cloudflow/cloudflow/internal/assist"
	"github.com/cloudflow/cloudflow/internal/auth"
	"github.com/cloudflow/cloudflow/internal/config"
	"github.com/cloudflow/cloudflow/internal/drive"
	"github.com/cloudflow/cloudflow/internal/events"
	"github.com/cloudflow/cloudflow/internal/logging"
	"github.com/cloudflow/cloudflow/internal/metrics"
	"github.com/cloudflow/cloudflow/internal/storage"
	"github.com/cloudflow/cloudflow/internal/store"
	"github.com/cloudflow/cloudflow/pkg/retry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.InitDefault()
		logging.Fatal("configuration error", zap.Error(err))
	}

	if err := logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		logging.InitDefault()
	}
	defer logging.Sync()
	logging.Info("cloudflow server starting",
		zap.String("store", cfg.StoreBackend),
		zap.String("storage", cfg.StorageBackend))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, err := openStore(cfg)
	if err != nil {
		logging.Fatal("store init failed", zap.Error(err))
	}
	defer st.Close()

	broadcaster := events.NewBroadcaster()
	d, err := drive.Open(ctx, st, broadcaster)
	if err != nil {
		logging.Fatal("drive init failed", zap.Error(err))
	}

	blobs, err := storage.New(ctx, cfg)
	if err != nil {
		logging.Fatal("blob storage init failed", zap.Error(err))
	}
	defer blobs.Close()
	logging.Info("blob storage ready", zap.String("backend", blobs.Type()))

	assistClient := assist.NewClient(assist.Config{
		BaseURL:     cfg.AssistURL,
		Timeout:     cfg.AssistTimeout,
		RetryConfig: retry.DefaultConfig(),
	})
	if assistClient == nil {
		logging.Info("assist sidecar not configured, AI endpoints disabled")
	}

	authHandler := auth.New(cfg.JWTSecret, cfg.AuthUsername, cfg.AuthPasswordHash, cfg.TokenTTL)
	if !authHandler.Enabled() {
		logging.Warn("authentication disabled, API is open")
	}

	srv := api.NewServer(api.Options{
		Drive:         d,
		Auth:          authHandler,
		Broadcaster:   broadcaster,
		Blobs:         blobs,
		Assist:        assistClient,
		MaxUploadSize: cfg.MaxUploadSize,
		StoreType:     cfg.StoreBackend,
	})

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.Handler())
	metricsServer := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: metricsMux,
	}

	go func() {
		logging.Info("metrics listening", zap.String("addr", cfg.MetricsAddr))
		if err := metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logging.Error("metrics server error", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		logging.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
		metricsServer.Shutdown(shutdownCtx)
	}()

	logging.Info("server listening", zap.String("addr", cfg.ListenAddr))
	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logging.Error("server error", zap.Error(err))
		os.Exit(1)
	}
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case "postgres":
		return store.NewPostgres(cfg.DatabaseURL, store.Seed())
	default:
		return store.NewFileStore(cfg.DataDir, store.Seed())
	}
}
