package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/camroll/camroll/internal/catalog"
	"github.com/camroll/camroll/internal/config"
	"github.com/camroll/camroll/internal/domain"
	"github.com/camroll/camroll/internal/export"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Parse flags
	dest := flag.String("dest", "", "Destination directory for the export (required)")
	albumList := flag.String("albums", "", "Comma-separated album IDs to export")
	all := flag.Bool("all", false, "Export every asset in the library once")
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("camroll-export %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	if *dest == "" {
		fmt.Fprintln(os.Stderr, "Error: --dest flag is required")
		fmt.Fprintln(os.Stderr, "Usage: camroll-export --dest /path/to/drive [--all | --albums id1,id2]")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *all == (*albumList != "") {
		fmt.Fprintln(os.Stderr, "Error: pass exactly one of --all or --albums")
		os.Exit(1)
	}

	// Setup logger
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: load config: %v\n", err)
		os.Exit(1)
	}

	store, err := catalog.Open(cfg.Catalog.Path, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: open catalog %s: %v\n", cfg.Catalog.Path, err)
		os.Exit(1)
	}
	defer store.Close()

	transferer := export.NewFileTransferer(cfg.Download, os.FileMode(cfg.Export.FileMode), logger)
	engine := export.NewEngine(store, transferer, os.FileMode(cfg.Export.DirMode), logger)

	ctx := context.Background()
	destRoot := export.NormalizeDestRoot(*dest)

	cb := export.Callbacks{
		OnProgress: func(processed, total int, message string) {
			fmt.Printf("[%d/%d] %s\n", processed, total, message)
		},
		OnError: func(message string) {
			fmt.Fprintf(os.Stderr, "error: %s\n", message)
		},
	}

	var job *export.Job
	if *all {
		job, err = engine.RunAllAssets(ctx, destRoot, cb)
	} else {
		var albums []domain.Album
		albums, err = resolveAlbums(ctx, store, strings.Split(*albumList, ","))
		if err == nil {
			job, err = engine.RunSelectedAlbums(ctx, albums, destRoot, cb)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Handle signals for graceful cancellation
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nStopping after the current item...")
		job.RequestCancel()
	}()

	<-job.Done()
	summary := job.Summary()

	// Print summary
	fmt.Println()
	if summary.Cancelled {
		fmt.Println("Export Cancelled")
		fmt.Println("----------------")
	} else {
		fmt.Println("Export Complete!")
		fmt.Println("----------------")
	}
	fmt.Printf("Destination: %s\n", destRoot)
	fmt.Printf("Processed: %d of %d items\n", summary.Processed, summary.Total)
	if errs := job.Errors(); len(errs) > 0 {
		fmt.Printf("Failures: %d\n", len(errs))
		for _, e := range errs {
			fmt.Printf("  - %s\n", e.Reason)
		}
	}

	if summary.Cancelled {
		os.Exit(130)
	}
	if len(job.Errors()) > 0 {
		os.Exit(1)
	}
}

func resolveAlbums(ctx context.Context, store *catalog.Store, ids []string) ([]domain.Album, error) {
	albums := make([]domain.Album, 0, len(ids))
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		album, err := store.GetAlbum(ctx, domain.AlbumID(id))
		if err != nil {
			return nil, fmt.Errorf("album %s: %w", id, err)
		}
		albums = append(albums, *album)
	}
	if len(albums) == 0 {
		return nil, fmt.Errorf("no albums selected")
	}
	return albums, nil
}
