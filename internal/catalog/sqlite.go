package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/camroll/camroll/internal/domain"
)

// Store is a SQLite-backed Catalog. Rows carry an explicit position so
// that every enumeration is stable across calls; the engine's
// album-inference relies on that ordering contract.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	subs subscribers
}

// Open opens (creating if necessary) a catalog database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS albums (
			id TEXT PRIMARY KEY,
			display_name TEXT NOT NULL DEFAULT '',
			is_smart INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS assets (
			id TEXT PRIMARY KEY,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS album_assets (
			album_id TEXT NOT NULL REFERENCES albums(id),
			asset_id TEXT NOT NULL REFERENCES assets(id),
			position INTEGER NOT NULL,
			PRIMARY KEY (album_id, asset_id)
		);
		CREATE TABLE IF NOT EXISTS resources (
			id TEXT PRIMARY KEY,
			asset_id TEXT NOT NULL REFERENCES assets(id),
			kind TEXT NOT NULL,
			original_filename TEXT NOT NULL,
			url TEXT NOT NULL DEFAULT '',
			local_path TEXT NOT NULL DEFAULT '',
			size INTEGER NOT NULL DEFAULT 0,
			position INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_album_assets_asset ON album_assets(asset_id);
		CREATE INDEX IF NOT EXISTS idx_resources_asset ON resources(asset_id);
	`)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close closes the underlying database and all change subscribers.
func (s *Store) Close() error {
	s.subs.closeAll()
	return s.db.Close()
}

// ListAlbums returns every album in insertion order with asset counts.
func (s *Store) ListAlbums(ctx context.Context) ([]domain.Album, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.display_name, a.is_smart,
		       (SELECT COUNT(*) FROM album_assets aa WHERE aa.album_id = a.id)
		FROM albums a
		ORDER BY a.rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("query albums: %w", err)
	}
	defer rows.Close()

	var albums []domain.Album
	for rows.Next() {
		var a domain.Album
		var smart int
		if err := rows.Scan(&a.ID, &a.DisplayName, &smart, &a.AssetCount); err != nil {
			return nil, fmt.Errorf("scan album: %w", err)
		}
		a.IsSmart = smart != 0
		albums = append(albums, a)
	}
	return albums, rows.Err()
}

// GetAlbum returns one album by ID.
func (s *Store) GetAlbum(ctx context.Context, id domain.AlbumID) (*domain.Album, error) {
	var a domain.Album
	var smart int
	err := s.db.QueryRowContext(ctx, `
		SELECT a.id, a.display_name, a.is_smart,
		       (SELECT COUNT(*) FROM album_assets aa WHERE aa.album_id = a.id)
		FROM albums a WHERE a.id = ?
	`, id).Scan(&a.ID, &a.DisplayName, &smart, &a.AssetCount)
	if err == sql.ErrNoRows {
		return nil, domain.ErrAlbumNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query album: %w", err)
	}
	a.IsSmart = smart != 0
	return &a, nil
}

// ListAssets returns the assets of one album in album position order.
func (s *Store) ListAssets(ctx context.Context, albumID domain.AlbumID) ([]domain.Asset, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ast.id, ast.created_at
		FROM album_assets aa
		JOIN assets ast ON ast.id = aa.asset_id
		WHERE aa.album_id = ?
		ORDER BY aa.position
	`, albumID)
	if err != nil {
		return nil, fmt.Errorf("query album assets: %w", err)
	}
	defer rows.Close()

	return scanAssets(rows)
}

// ListAllAssets returns every asset in insertion order.
func (s *Store) ListAllAssets(ctx context.Context) ([]domain.Asset, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at FROM assets ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("query assets: %w", err)
	}
	defer rows.Close()

	return scanAssets(rows)
}

func scanAssets(rows *sql.Rows) ([]domain.Asset, error) {
	var assets []domain.Asset
	for rows.Next() {
		var a domain.Asset
		if err := rows.Scan(&a.ID, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// CountAssets returns the number of assets in an album.
func (s *Store) CountAssets(ctx context.Context, albumID domain.AlbumID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM album_assets WHERE album_id = ?`, albumID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count assets: %w", err)
	}
	return n, nil
}

// AlbumMemberships returns the albums an asset belongs to, in the
// order the memberships were recorded.
func (s *Store) AlbumMemberships(ctx context.Context, assetID domain.AssetID, filter MembershipFilter) ([]domain.Album, error) {
	query := `
		SELECT a.id, a.display_name, a.is_smart
		FROM album_assets aa
		JOIN albums a ON a.id = aa.album_id
		WHERE aa.asset_id = ?`
	if filter == UserAlbums {
		query += ` AND a.is_smart = 0`
	}
	query += ` ORDER BY aa.rowid`

	rows, err := s.db.QueryContext(ctx, query, assetID)
	if err != nil {
		return nil, fmt.Errorf("query memberships: %w", err)
	}
	defer rows.Close()

	var albums []domain.Album
	for rows.Next() {
		var a domain.Album
		var smart int
		if err := rows.Scan(&a.ID, &a.DisplayName, &smart); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		a.IsSmart = smart != 0
		albums = append(albums, a)
	}
	return albums, rows.Err()
}

// Resources returns the downloadable resources of an asset in
// resource position order.
func (s *Store) Resources(ctx context.Context, assetID domain.AssetID) ([]domain.AssetResource, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, asset_id, kind, original_filename, url, local_path, size
		FROM resources
		WHERE asset_id = ?
		ORDER BY position
	`, assetID)
	if err != nil {
		return nil, fmt.Errorf("query resources: %w", err)
	}
	defer rows.Close()

	var resources []domain.AssetResource
	for rows.Next() {
		var r domain.AssetResource
		if err := rows.Scan(&r.ID, &r.AssetID, &r.Kind, &r.OriginalFilename, &r.URL, &r.LocalPath, &r.Size); err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		resources = append(resources, r)
	}
	return resources, rows.Err()
}

// AddAlbum inserts an album and signals a library change.
func (s *Store) AddAlbum(ctx context.Context, album domain.Album) error {
	smart := 0
	if album.IsSmart {
		smart = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO albums (id, display_name, is_smart) VALUES (?, ?, ?)`,
		album.ID, album.DisplayName, smart)
	if err != nil {
		return fmt.Errorf("insert album: %w", err)
	}
	s.subs.notify()
	return nil
}

// AddAsset inserts an asset and signals a library change.
func (s *Store) AddAsset(ctx context.Context, asset domain.Asset) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO assets (id) VALUES (?)`, asset.ID)
	if err != nil {
		return fmt.Errorf("insert asset: %w", err)
	}
	s.subs.notify()
	return nil
}

// AddToAlbum appends an asset to the end of an album.
func (s *Store) AddToAlbum(ctx context.Context, albumID domain.AlbumID, assetID domain.AssetID) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO album_assets (album_id, asset_id, position)
		VALUES (?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM album_assets WHERE album_id = ?))
	`, albumID, assetID, albumID)
	if err != nil {
		return fmt.Errorf("insert membership: %w", err)
	}
	s.subs.notify()
	return nil
}

// AddResource inserts a resource and signals a library change.
func (s *Store) AddResource(ctx context.Context, res domain.AssetResource) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO resources (id, asset_id, kind, original_filename, url, local_path, size, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM resources WHERE asset_id = ?))
	`, res.ID, res.AssetID, res.Kind, res.OriginalFilename, res.URL, res.LocalPath, res.Size, res.AssetID)
	if err != nil {
		return fmt.Errorf("insert resource: %w", err)
	}
	s.subs.notify()
	return nil
}

// Subscribe registers a library-change listener.
func (s *Store) Subscribe() (uint64, <-chan struct{}) {
	id, ch := s.subs.add()
	if s.logger != nil {
		s.logger.Info("catalog subscriber added", "subscriber_id", id)
	}
	return id, ch
}

// Unsubscribe removes a library-change listener.
func (s *Store) Unsubscribe(id uint64) {
	s.subs.remove(id)
	if s.logger != nil {
		s.logger.Info("catalog subscriber removed", "subscriber_id", id)
	}
}
