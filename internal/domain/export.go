package domain

// ExportMode selects how the export engine enumerates its work set.
type ExportMode string

const (
	// ModeSelectedAlbums iterates explicitly chosen albums one at a
	// time; an asset in N selected albums is exported N times.
	ModeSelectedAlbums ExportMode = "selected_albums"

	// ModeAllAssets iterates every asset in the catalog exactly once,
	// inferring a single destination album per asset.
	ModeAllAssets ExportMode = "all_assets"
)

// Subdirectory placeholders used when no usable album name exists.
const (
	// UnknownAlbumDir is used in selected-albums mode for an album
	// with an empty display name.
	UnknownAlbumDir = "UnknownAlbum"

	// UnorganizedDir is used in all-assets mode for assets with no
	// named user-album membership.
	UnorganizedDir = "Unorganized"
)
