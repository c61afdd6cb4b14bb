package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"friendship-backend/infrastructure/config"
	"friendship-backend/infrastructure/di"
	"friendship-backend/interfaces/http/rest"
	"friendship-backend/pkg/observability"

	"go.uber.org/zap"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize dependency container
	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer cleanup()

	logger := container.Logger

	// Hot-reload the log level from the config file
	if cfg.ConfigFile != "" {
		watcher, err := config.NewWatcher(cfg.ConfigFile, logger)
		if err != nil {
			logger.Warn("Config watcher disabled", zap.Error(err))
		} else {
			watcher.OnChange(func(next *config.Config) {
				level := container.Logging.Level
				level.SetLevel(observability.ParseLevel(next.LogLevel, level.Level()))
			})
			watcher.Start()
			defer watcher.Stop()
		}
	}

	handler := rest.NewRouter(container).Setup()

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("Starting server",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
			zap.String("store", cfg.StoreDriver),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	if err := container.FlushMetrics(shutdownCtx); err != nil {
		logger.Warn("Failed to flush metrics", zap.Error(err))
	}

	_ = logger.Sync()
	log.Println("Server stopped")
}
