package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/camroll/camroll/internal/catalog"
)

// AlbumHandler handles album-related HTTP requests.
type AlbumHandler struct {
	catalog catalog.Catalog
	logger  *slog.Logger
}

// NewAlbumHandler creates a new album handler.
func NewAlbumHandler(cat catalog.Catalog, logger *slog.Logger) *AlbumHandler {
	return &AlbumHandler{catalog: cat, logger: logger}
}

// AlbumResponse represents an album in API responses.
type AlbumResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsSmart     bool   `json:"is_smart"`
	AssetCount  int    `json:"asset_count"`
}

// AlbumListResponse contains the album list.
type AlbumListResponse struct {
	Albums []AlbumResponse `json:"albums"`
	Total  int             `json:"total"`
}

// List handles GET /api/v1/albums
func (h *AlbumHandler) List(w http.ResponseWriter, r *http.Request) {
	albums, err := h.catalog.ListAlbums(r.Context())
	if err != nil {
		h.logger.Error("failed to list albums", "error", err)
		http.Error(w, `{"error":"failed to list albums"}`, http.StatusInternalServerError)
		return
	}

	resp := AlbumListResponse{Albums: make([]AlbumResponse, 0, len(albums))}
	for _, a := range albums {
		resp.Albums = append(resp.Albums, AlbumResponse{
			ID:          a.ID.String(),
			DisplayName: a.DisplayName,
			IsSmart:     a.IsSmart,
			AssetCount:  a.AssetCount,
		})
	}
	resp.Total = len(resp.Albums)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
