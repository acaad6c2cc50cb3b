package handler

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/camroll/camroll/internal/catalog"
	"github.com/camroll/camroll/internal/domain"
	"github.com/camroll/camroll/internal/export"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubCatalog is a fixed-content catalog for handler tests.
type stubCatalog struct {
	albums    []domain.Album
	assets    map[domain.AlbumID][]domain.Asset
	resources map[domain.AssetID][]domain.AssetResource
	listErr   error
}

func (c *stubCatalog) ListAlbums(ctx context.Context) ([]domain.Album, error) {
	if c.listErr != nil {
		return nil, c.listErr
	}
	return c.albums, nil
}

func (c *stubCatalog) ListAssets(ctx context.Context, albumID domain.AlbumID) ([]domain.Asset, error) {
	return c.assets[albumID], nil
}

func (c *stubCatalog) ListAllAssets(ctx context.Context) ([]domain.Asset, error) {
	var all []domain.Asset
	for _, album := range c.albums {
		all = append(all, c.assets[album.ID]...)
	}
	return all, nil
}

func (c *stubCatalog) CountAssets(ctx context.Context, albumID domain.AlbumID) (int, error) {
	return len(c.assets[albumID]), nil
}

func (c *stubCatalog) AlbumMemberships(ctx context.Context, assetID domain.AssetID, filter catalog.MembershipFilter) ([]domain.Album, error) {
	var out []domain.Album
	for _, album := range c.albums {
		if filter == catalog.UserAlbums && album.IsSmart {
			continue
		}
		for _, a := range c.assets[album.ID] {
			if a.ID == assetID {
				out = append(out, album)
			}
		}
	}
	return out, nil
}

func (c *stubCatalog) Resources(ctx context.Context, assetID domain.AssetID) ([]domain.AssetResource, error) {
	return c.resources[assetID], nil
}

// newStubCatalog builds a catalog with one album holding one asset
// whose resource points at a real temp file.
func newStubCatalog(t *testing.T) *stubCatalog {
	t.Helper()
	src := filepath.Join(t.TempDir(), "p1.jpg")
	if err := os.WriteFile(src, []byte("photo"), 0o644); err != nil {
		t.Fatal(err)
	}
	return &stubCatalog{
		albums: []domain.Album{{ID: "a1", DisplayName: "Trips", AssetCount: 1}},
		assets: map[domain.AlbumID][]domain.Asset{
			"a1": {{ID: "p1"}},
		},
		resources: map[domain.AssetID][]domain.AssetResource{
			"p1": {{
				ID: "r1", AssetID: "p1", Kind: domain.KindFullPhoto,
				OriginalFilename: "p1.jpg", LocalPath: src,
			}},
		},
	}
}

// localTransferer copies resources from their local path.
type localTransferer struct{}

func (localTransferer) Transfer(ctx context.Context, res domain.AssetResource, destPath string) error {
	data, err := os.ReadFile(res.LocalPath)
	if err != nil {
		return err
	}
	return os.WriteFile(destPath, data, 0o644)
}

// blockingTransferer signals when a transfer begins and holds it until
// released.
type blockingTransferer struct {
	started chan struct{}
	release chan struct{}
}

func (b blockingTransferer) Transfer(ctx context.Context, res domain.AssetResource, destPath string) error {
	select {
	case b.started <- struct{}{}:
	default:
	}
	<-b.release
	return os.WriteFile(destPath, []byte("photo"), 0o644)
}

func newTestEngine(cat catalog.Catalog) *export.Engine {
	return export.NewEngine(cat, localTransferer{}, 0o755, discardLogger())
}
