package domain

import (
	"time"
)

// AssetID is a unique identifier for an asset.
type AssetID string

// String returns the string representation of the AssetID.
func (id AssetID) String() string {
	return string(id)
}

// Asset represents one logical photo or video item in the source
// library. Album memberships and downloadable resources are resolved
// through the catalog, not stored on the asset itself.
type Asset struct {
	ID        AssetID
	CreatedAt time.Time
}
