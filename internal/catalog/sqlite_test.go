package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/camroll/camroll/internal/domain"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := Open(filepath.Join(t.TempDir(), "catalog.db"), logger)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedAsset(t *testing.T, s *Store, id domain.AssetID) {
	t.Helper()
	if err := s.AddAsset(context.Background(), domain.Asset{ID: id}); err != nil {
		t.Fatalf("AddAsset(%s): %v", id, err)
	}
}

func TestStore_ListAlbums(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, a := range []domain.Album{
		{ID: "a1", DisplayName: "Trips"},
		{ID: "a2", DisplayName: "Favourites", IsSmart: true},
		{ID: "a3", DisplayName: "Family"},
	} {
		if err := s.AddAlbum(ctx, a); err != nil {
			t.Fatalf("AddAlbum(%s): %v", a.ID, err)
		}
	}
	seedAsset(t, s, "p1")
	seedAsset(t, s, "p2")
	if err := s.AddToAlbum(ctx, "a1", "p1"); err != nil {
		t.Fatal(err)
	}
	if err := s.AddToAlbum(ctx, "a1", "p2"); err != nil {
		t.Fatal(err)
	}

	albums, err := s.ListAlbums(ctx)
	if err != nil {
		t.Fatalf("ListAlbums() error = %v", err)
	}
	if len(albums) != 3 {
		t.Fatalf("len(albums) = %d, want 3", len(albums))
	}
	if albums[0].ID != "a1" || albums[1].ID != "a2" || albums[2].ID != "a3" {
		t.Errorf("album order = %v, want insertion order", albums)
	}
	if albums[0].AssetCount != 2 {
		t.Errorf("a1 asset count = %d, want 2", albums[0].AssetCount)
	}
	if !albums[1].IsSmart {
		t.Error("a2 should round-trip as smart")
	}
}

func TestStore_GetAlbumNotFound(t *testing.T) {
	s := testStore(t)

	_, err := s.GetAlbum(context.Background(), "missing")
	if !errors.Is(err, domain.ErrAlbumNotFound) {
		t.Errorf("GetAlbum() error = %v, want ErrAlbumNotFound", err)
	}
}

func TestStore_ListAssetsStableOrder(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.AddAlbum(ctx, domain.Album{ID: "a1", DisplayName: "Trips"}); err != nil {
		t.Fatal(err)
	}
	ids := []domain.AssetID{"p3", "p1", "p2"}
	for _, id := range ids {
		seedAsset(t, s, id)
		if err := s.AddToAlbum(ctx, "a1", id); err != nil {
			t.Fatal(err)
		}
	}

	first, err := s.ListAssets(ctx, "a1")
	if err != nil {
		t.Fatalf("ListAssets() error = %v", err)
	}
	var got []domain.AssetID
	for _, a := range first {
		got = append(got, a.ID)
	}
	if !reflect.DeepEqual(got, ids) {
		t.Errorf("asset order = %v, want membership order %v", got, ids)
	}

	// Repeated enumeration yields the same order.
	for i := 0; i < 5; i++ {
		again, err := s.ListAssets(ctx, "a1")
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(again, first) {
			t.Fatalf("iteration %d: order changed: %v", i, again)
		}
	}
}

func TestStore_CountAssets(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.AddAlbum(ctx, domain.Album{ID: "a1"}); err != nil {
		t.Fatal(err)
	}
	if n, err := s.CountAssets(ctx, "a1"); err != nil || n != 0 {
		t.Errorf("CountAssets(empty) = %d, %v, want 0, nil", n, err)
	}

	seedAsset(t, s, "p1")
	if err := s.AddToAlbum(ctx, "a1", "p1"); err != nil {
		t.Fatal(err)
	}
	if n, err := s.CountAssets(ctx, "a1"); err != nil || n != 1 {
		t.Errorf("CountAssets() = %d, %v, want 1, nil", n, err)
	}
}

func TestStore_AlbumMembershipsFilter(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.AddAlbum(ctx, domain.Album{ID: "smart", DisplayName: "Recents", IsSmart: true}); err != nil {
		t.Fatal(err)
	}
	if err := s.AddAlbum(ctx, domain.Album{ID: "user", DisplayName: "Trips"}); err != nil {
		t.Fatal(err)
	}
	seedAsset(t, s, "p1")
	if err := s.AddToAlbum(ctx, "smart", "p1"); err != nil {
		t.Fatal(err)
	}
	if err := s.AddToAlbum(ctx, "user", "p1"); err != nil {
		t.Fatal(err)
	}

	all, err := s.AlbumMemberships(ctx, "p1", AllAlbums)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("AllAlbums memberships = %d, want 2", len(all))
	}

	user, err := s.AlbumMemberships(ctx, "p1", UserAlbums)
	if err != nil {
		t.Fatal(err)
	}
	if len(user) != 1 || user[0].ID != "user" {
		t.Errorf("UserAlbums memberships = %v, want only the user album", user)
	}
}

func TestStore_ResourcesOrder(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	seedAsset(t, s, "p1")
	want := []domain.ResourceID{"r-photo", "r-full"}
	if err := s.AddResource(ctx, domain.AssetResource{
		ID: "r-photo", AssetID: "p1", Kind: domain.KindPhoto,
		OriginalFilename: "p1.jpg", URL: "https://example.com/p1.jpg", Size: 1024,
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.AddResource(ctx, domain.AssetResource{
		ID: "r-full", AssetID: "p1", Kind: domain.KindFullPhoto,
		OriginalFilename: "p1.jpg", URL: "https://example.com/p1_full.jpg", Size: 4096,
	}); err != nil {
		t.Fatal(err)
	}

	resources, err := s.Resources(ctx, "p1")
	if err != nil {
		t.Fatalf("Resources() error = %v", err)
	}
	if len(resources) != 2 {
		t.Fatalf("len(resources) = %d, want 2", len(resources))
	}
	for i, r := range resources {
		if r.ID != want[i] {
			t.Errorf("resources[%d].ID = %s, want %s", i, r.ID, want[i])
		}
	}
	if resources[0].URL != "https://example.com/p1.jpg" || resources[0].Size != 1024 {
		t.Errorf("resource fields did not round-trip: %+v", resources[0])
	}
}

func TestStore_SubscribeNotifiesOnIngest(t *testing.T) {
	s := testStore(t)

	id, ch := s.Subscribe()
	defer s.Unsubscribe(id)

	if err := s.AddAsset(context.Background(), domain.Asset{ID: "p1"}); err != nil {
		t.Fatal(err)
	}

	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("no change notification after ingest")
	}
}

func TestStore_NotifyDoesNotBlock(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, _ := s.Subscribe()
	defer s.Unsubscribe(id)

	// The subscriber never reads; repeated ingests coalesce instead of
	// blocking the writer.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			_ = s.AddAsset(ctx, domain.Asset{ID: domain.AssetID("p" + string(rune('0'+i)))})
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("ingest blocked on an idle subscriber")
	}
}
