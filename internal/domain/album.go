package domain

// AlbumID is a unique identifier for an album.
type AlbumID string

// String returns the string representation of the AlbumID.
func (id AlbumID) String() string {
	return string(id)
}

// Album represents a named collection of assets. IsSmart marks
// system-generated albums; the export logic treats them the same as
// user albums, only album-inference in all-assets mode filters on it.
type Album struct {
	ID          AlbumID
	DisplayName string
	IsSmart     bool
	AssetCount  int
}
