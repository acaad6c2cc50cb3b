package export

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/camroll/camroll/internal/domain"
)

// AlbumDirName returns the destination subdirectory for an album in
// selected-albums mode: the display name, or the UnknownAlbum
// placeholder when the album has no name.
func AlbumDirName(album domain.Album) string {
	if album.DisplayName == "" {
		return domain.UnknownAlbumDir
	}
	return album.DisplayName
}

// InferredDirName returns the destination subdirectory for an asset in
// all-assets mode, given its user-album memberships in catalog order:
// the first membership with a non-empty display name wins, otherwise
// the Unorganized placeholder. Exactly one subdirectory per asset, so
// this mode writes at most one copy of each asset.
func InferredDirName(memberships []domain.Album) string {
	for _, a := range memberships {
		if a.DisplayName != "" {
			return a.DisplayName
		}
	}
	return domain.UnorganizedDir
}

// DestinationPath joins the destination root, subdirectory, and the
// resource's original filename. The filename is used verbatim: no
// extension rewriting and no sanitization beyond what the filesystem
// itself enforces.
func DestinationPath(destRoot, subdir string, res domain.AssetResource) string {
	return filepath.Join(destRoot, subdir, res.OriginalFilename)
}

// NormalizeDestRoot cleans up a user-supplied destination path:
// shell-style backslash escapes are stripped and a leading ~ expands
// to the home directory. Paths often arrive copy-pasted from a
// terminal.
func NormalizeDestRoot(path string) string {
	path = strings.ReplaceAll(path, `\ `, " ")
	path = strings.ReplaceAll(path, `\(`, "(")
	path = strings.ReplaceAll(path, `\)`, ")")
	path = strings.ReplaceAll(path, `\'`, "'")

	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return filepath.Clean(path)
}
