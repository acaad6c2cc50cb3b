package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camroll/camroll/internal/api"
	"github.com/camroll/camroll/internal/api/handler"
	"github.com/camroll/camroll/internal/catalog"
	"github.com/camroll/camroll/internal/config"
	"github.com/camroll/camroll/internal/export"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("camroll %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting camroll",
		"version", Version,
		"build_time", BuildTime,
	)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Open the asset catalog
	store, err := catalog.Open(cfg.Catalog.Path, logger)
	if err != nil {
		logger.Error("failed to open catalog", "path", cfg.Catalog.Path, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Initialize the export engine
	transferer := export.NewFileTransferer(cfg.Download, os.FileMode(cfg.Export.FileMode), logger)
	engine := export.NewEngine(store, transferer, os.FileMode(cfg.Export.DirMode), logger)

	// Initialize handlers
	hub := handler.NewEventHub()
	albumHandler := handler.NewAlbumHandler(store, logger)
	exportHandler := handler.NewExportHandler(engine, store, hub, cfg.Export.DestinationRoot, logger)
	eventHandler := handler.NewEventHandler(hub, store, logger)
	healthHandler := handler.NewHealthHandler(store)

	// Setup router
	router := api.NewRouter(albumHandler, exportHandler, eventHandler, healthHandler, cfg.Server.APIKey)

	// Setup HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting HTTP server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	// Ask a running export to stop, then wait for its terminal summary
	if job := engine.ActiveJob(); job != nil && !job.State().Terminal() {
		job.RequestCancel()
		select {
		case <-job.Done():
		case <-time.After(25 * time.Second):
			logger.Warn("export did not stop before shutdown deadline", "job_id", job.ID)
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
