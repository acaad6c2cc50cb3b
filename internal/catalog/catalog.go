package catalog

import (
	"context"

	"github.com/camroll/camroll/internal/domain"
)

// MembershipFilter restricts which album memberships are returned.
type MembershipFilter int

const (
	// AllAlbums returns every membership, smart and user-created.
	AllAlbums MembershipFilter = iota

	// UserAlbums returns only user-created (non-smart) memberships.
	UserAlbums
)

// Catalog is the read side of the asset catalog. All sequences are
// ordered and the order is stable across calls; the export engine's
// album-inference and progress accounting depend on that stability.
type Catalog interface {
	// ListAlbums returns every album, smart and user-created.
	ListAlbums(ctx context.Context) ([]domain.Album, error)

	// ListAssets returns the assets of one album in catalog order.
	ListAssets(ctx context.Context, albumID domain.AlbumID) ([]domain.Asset, error)

	// ListAllAssets returns every asset in the catalog in catalog order.
	ListAllAssets(ctx context.Context) ([]domain.Asset, error)

	// CountAssets returns the number of assets in an album.
	CountAssets(ctx context.Context, albumID domain.AlbumID) (int, error)

	// AlbumMemberships returns the albums an asset belongs to,
	// optionally filtered to user-created albums.
	AlbumMemberships(ctx context.Context, assetID domain.AssetID, filter MembershipFilter) ([]domain.Album, error)

	// Resources returns the downloadable resources of an asset in
	// catalog order.
	Resources(ctx context.Context, assetID domain.AssetID) ([]domain.AssetResource, error)
}

// Notifier signals library changes to interested consumers. The export
// engine never subscribes; it runs against a snapshot of the catalog.
// Presentation layers re-fetch the album list on a signal.
type Notifier interface {
	// Subscribe registers a change listener. The returned channel
	// receives a signal whenever the library changes; delivery is
	// best-effort and coalesced.
	Subscribe() (uint64, <-chan struct{})

	// Unsubscribe removes a change listener and closes its channel.
	Unsubscribe(id uint64)
}
