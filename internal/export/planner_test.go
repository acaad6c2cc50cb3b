package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/camroll/camroll/internal/domain"
)

func TestAlbumDirName(t *testing.T) {
	tests := []struct {
		name  string
		album domain.Album
		want  string
	}{
		{"named album", domain.Album{DisplayName: "Summer 2024"}, "Summer 2024"},
		{"unnamed album", domain.Album{}, domain.UnknownAlbumDir},
		{"smart album uses its name too", domain.Album{DisplayName: "Favourites", IsSmart: true}, "Favourites"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AlbumDirName(tt.album); got != tt.want {
				t.Errorf("AlbumDirName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInferredDirName(t *testing.T) {
	tests := []struct {
		name        string
		memberships []domain.Album
		want        string
	}{
		{"no memberships", nil, domain.UnorganizedDir},
		{
			"first named membership wins",
			[]domain.Album{
				{ID: "a", DisplayName: "Trips"},
				{ID: "b", DisplayName: "Family"},
			},
			"Trips",
		},
		{
			"unnamed memberships are skipped",
			[]domain.Album{
				{ID: "a"},
				{ID: "b", DisplayName: "Family"},
			},
			"Family",
		},
		{
			"all unnamed falls back to placeholder",
			[]domain.Album{{ID: "a"}, {ID: "b"}},
			domain.UnorganizedDir,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InferredDirName(tt.memberships); got != tt.want {
				t.Errorf("InferredDirName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDestinationPath_FilenameVerbatim(t *testing.T) {
	r := domain.AssetResource{OriginalFilename: "IMG_0042.HEIC"}

	got := DestinationPath("/exports", "Summer 2024", r)
	want := filepath.Join("/exports", "Summer 2024", "IMG_0042.HEIC")
	if got != want {
		t.Errorf("DestinationPath() = %q, want %q", got, want)
	}
}

func TestNormalizeDestRoot(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"escaped spaces", `/Volumes/My\ Drive/export`, "/Volumes/My Drive/export"},
		{"escaped parens", `/tmp/photos\ \(old\)`, "/tmp/photos (old)"},
		{"trailing slash cleaned", "/tmp/export/", "/tmp/export"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDestRoot(tt.in); got != tt.want {
				t.Errorf("NormalizeDestRoot(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeDestRoot_HomeExpansion(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory available")
	}

	got := NormalizeDestRoot("~/exports")
	want := filepath.Join(home, "exports")
	if got != want {
		t.Errorf("NormalizeDestRoot(~/exports) = %q, want %q", got, want)
	}
}
