package domain

// ResourceID is a unique identifier for an asset resource.
type ResourceID string

// String returns the string representation of the ResourceID.
func (id ResourceID) String() string {
	return string(id)
}

// ResourceKind classifies a downloadable representation of an asset.
type ResourceKind string

const (
	KindPhoto     ResourceKind = "photo"
	KindVideo     ResourceKind = "video"
	KindFullPhoto ResourceKind = "full_photo"
	KindFullVideo ResourceKind = "full_video"
	KindOther     ResourceKind = "other"
)

// IsFullSize reports whether the kind is a full-size original.
func (k ResourceKind) IsFullSize() bool {
	return k == KindFullPhoto || k == KindFullVideo
}

// IsMedia reports whether the kind is a plain photo or video
// (derived or proxy forms, as opposed to full-size originals).
func (k ResourceKind) IsMedia() bool {
	return k == KindPhoto || k == KindVideo
}

// AssetResource is a concrete transferable form of an Asset. Exactly
// one of URL or LocalPath is the transfer handle: URL for resources
// that must be fetched from a remote store, LocalPath for resources
// resident on the local filesystem.
type AssetResource struct {
	ID               ResourceID
	AssetID          AssetID
	Kind             ResourceKind
	OriginalFilename string
	URL              string
	LocalPath        string
	Size             int64
}
