package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/camroll/camroll/internal/catalog"
	"github.com/camroll/camroll/internal/domain"
)

// Engine orchestrates export runs: it enumerates the work set,
// resolves each asset to its best resource, plans the destination,
// drives the transferer, and reports progress. One run at a time; the
// whole batch executes on a single worker goroutine so transfers stay
// sequential and progress accounting stays exact.
type Engine struct {
	catalog    catalog.Catalog
	transferer Transferer
	dirMode    os.FileMode
	logger     *slog.Logger

	mu     sync.Mutex
	active *Job
}

// NewEngine creates an export engine.
func NewEngine(cat catalog.Catalog, tr Transferer, dirMode os.FileMode, logger *slog.Logger) *Engine {
	if dirMode == 0 {
		dirMode = 0o755
	}
	return &Engine{
		catalog:    cat,
		transferer: tr,
		dirMode:    dirMode,
		logger:     logger,
	}
}

// ActiveJob returns the most recent job, which may already be
// terminal, or nil if no run was ever started.
func (e *Engine) ActiveJob() *Job {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// RunSelectedAlbums exports the given albums in order to destRoot,
// one subdirectory per album. An asset in N selected albums is
// exported N times. Returns ErrExportInProgress when a run is active
// and ErrDestinationDenied (fatal, no job started) when destRoot is
// not writable.
func (e *Engine) RunSelectedAlbums(ctx context.Context, albums []domain.Album, destRoot string, cb Callbacks) (*Job, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active != nil && !e.active.State().Terminal() {
		return nil, domain.ErrExportInProgress
	}

	if err := e.probeDestination(destRoot); err != nil {
		return nil, err
	}

	total := 0
	for _, album := range albums {
		n, err := e.catalog.CountAssets(ctx, album.ID)
		if err != nil {
			return nil, fmt.Errorf("count assets of album %s: %w", album.ID, err)
		}
		total += n
	}

	job := newJob(domain.ModeSelectedAlbums, destRoot, total, cb)
	e.active = job

	e.logger.Info("export started",
		"job_id", job.ID,
		"mode", job.Mode,
		"albums", len(albums),
		"total", total,
		"dest", destRoot,
	)

	go e.runSelectedAlbums(ctx, job, albums)
	return job, nil
}

// RunAllAssets exports every asset in the catalog exactly once to
// destRoot, inferring one destination album per asset. Files already
// present at their destination are skipped, which makes re-runs
// idempotent.
func (e *Engine) RunAllAssets(ctx context.Context, destRoot string, cb Callbacks) (*Job, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active != nil && !e.active.State().Terminal() {
		return nil, domain.ErrExportInProgress
	}

	if err := e.probeDestination(destRoot); err != nil {
		return nil, err
	}

	assets, err := e.catalog.ListAllAssets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}

	job := newJob(domain.ModeAllAssets, destRoot, len(assets), cb)
	e.active = job

	e.logger.Info("export started",
		"job_id", job.ID,
		"mode", job.Mode,
		"total", len(assets),
		"dest", destRoot,
	)

	go e.runAllAssets(ctx, job, assets)
	return job, nil
}

// probeDestination verifies the destination root exists and is
// writable before any work starts. Failure here is the only fatal
// condition: the job never begins.
func (e *Engine) probeDestination(destRoot string) error {
	if err := os.MkdirAll(destRoot, e.dirMode); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDestinationDenied, err)
	}

	probe := filepath.Join(destRoot, ".camroll_write_test")
	if err := os.WriteFile(probe, []byte("probe"), 0o644); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDestinationDenied, err)
	}
	os.Remove(probe)
	return nil
}

func (e *Engine) runSelectedAlbums(ctx context.Context, j *Job, albums []domain.Album) {
	cancelled := false
	dirs := make(map[string]string)

albums:
	for _, album := range albums {
		if j.cancelled.Load() {
			cancelled = true
			break
		}

		dirName := AlbumDirName(album)
		if err := e.ensureDir(j.DestRoot, dirName, dirs); err != nil {
			// The whole album is skipped; none of its assets count.
			j.recordError(ItemError{
				Album:  dirName,
				Reason: fmt.Sprintf("create directory %s: %v", dirName, err),
			})
			e.logger.Warn("album skipped", "job_id", j.ID, "album", dirName, "error", err)
			continue
		}

		assets, err := e.catalog.ListAssets(ctx, album.ID)
		if err != nil {
			j.recordError(ItemError{
				Album:  dirName,
				Reason: fmt.Sprintf("list assets of %s: %v", dirName, err),
			})
			continue
		}

		for _, asset := range assets {
			if j.cancelled.Load() {
				cancelled = true
				break albums
			}
			e.exportItem(ctx, j, asset, dirName, false)
		}
	}

	e.finishJob(j, cancelled)
}

func (e *Engine) runAllAssets(ctx context.Context, j *Job, assets []domain.Asset) {
	cancelled := false
	dirs := make(map[string]string)

	for _, asset := range assets {
		if j.cancelled.Load() {
			cancelled = true
			break
		}

		memberships, err := e.catalog.AlbumMemberships(ctx, asset.ID, catalog.UserAlbums)
		if err != nil {
			// Without a destination album the asset cannot be placed;
			// skip it uncounted, like a directory-creation failure.
			j.recordError(ItemError{
				AssetID: asset.ID,
				Reason:  fmt.Sprintf("resolve album for %s: %v", asset.ID, err),
			})
			continue
		}

		dirName := InferredDirName(memberships)
		if err := e.ensureDir(j.DestRoot, dirName, dirs); err != nil {
			j.recordError(ItemError{
				AssetID: asset.ID,
				Album:   dirName,
				Reason:  fmt.Sprintf("create directory %s: %v", dirName, err),
			})
			continue
		}

		e.exportItem(ctx, j, asset, dirName, true)
	}

	e.finishJob(j, cancelled)
}

// exportItem processes one asset: resource selection, optional
// existence skip, transfer, counting, progress. Transfer failures are
// reported and the item still counts; an asset with no eligible
// resource passes through the counter silently.
func (e *Engine) exportItem(ctx context.Context, j *Job, asset domain.Asset, dirName string, skipExisting bool) {
	resources, err := e.catalog.Resources(ctx, asset.ID)
	if err != nil {
		j.recordError(ItemError{
			AssetID: asset.ID,
			Album:   dirName,
			Reason:  fmt.Sprintf("resolve resources of %s: %v", asset.ID, err),
		})
		processed, total := j.markProcessed()
		j.emitProgress(processed, total, fmt.Sprintf("failed %s/%s", dirName, asset.ID))
		return
	}

	res, ok := SelectResource(resources)
	if !ok {
		// Nothing retrievable for this asset. Not an error; no
		// progress message either, only the pass-through count.
		j.markProcessed()
		return
	}

	destPath := DestinationPath(j.DestRoot, dirName, res)
	relPath := dirName + "/" + res.OriginalFilename

	if skipExisting {
		if _, err := os.Stat(destPath); err == nil {
			processed, total := j.markProcessed()
			j.emitProgress(processed, total, fmt.Sprintf("skipped %s (already exported)", relPath))
			return
		}
	}

	if err := e.transferer.Transfer(ctx, res, destPath); err != nil {
		j.recordError(ItemError{
			AssetID: asset.ID,
			Album:   dirName,
			Reason:  fmt.Sprintf("transfer %s: %v", relPath, err),
		})
		e.logger.Warn("transfer failed", "job_id", j.ID, "asset_id", asset.ID, "dest", relPath, "error", err)
		processed, total := j.markProcessed()
		j.emitProgress(processed, total, fmt.Sprintf("failed %s", relPath))
		return
	}

	processed, total := j.markProcessed()
	j.emitProgress(processed, total, fmt.Sprintf("exported %s", relPath))
}

// ensureDir creates destRoot/name once per job. Successful creations
// are memoized so each distinct album directory is created at most
// once per run.
func (e *Engine) ensureDir(destRoot, name string, dirs map[string]string) error {
	if _, ok := dirs[name]; ok {
		return nil
	}

	dir := filepath.Join(destRoot, name)
	if err := os.MkdirAll(dir, e.dirMode); err != nil {
		return err
	}
	dirs[name] = dir
	return nil
}

func (e *Engine) finishJob(j *Job, cancelled bool) {
	j.finish(cancelled)

	summary := j.Summary()
	e.logger.Info("export finished",
		"job_id", j.ID,
		"mode", j.Mode,
		"cancelled", summary.Cancelled,
		"processed", summary.Processed,
		"total", summary.Total,
		"errors", len(j.Errors()),
	)
}
