package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/camroll/camroll/internal/catalog"
	"github.com/camroll/camroll/internal/domain"
	"github.com/camroll/camroll/internal/export"
)

// ExportHandler handles export-related HTTP requests.
type ExportHandler struct {
	engine      *export.Engine
	catalog     catalog.Catalog
	hub         *EventHub
	defaultDest string
	logger      *slog.Logger
}

// NewExportHandler creates a new export handler. defaultDest is used
// when a start request carries no destination of its own.
func NewExportHandler(engine *export.Engine, cat catalog.Catalog, hub *EventHub, defaultDest string, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		engine:      engine,
		catalog:     cat,
		hub:         hub,
		defaultDest: defaultDest,
		logger:      logger,
	}
}

// ExportStartRequest is the request body for starting an export.
type ExportStartRequest struct {
	Mode        string   `json:"mode"`
	AlbumIDs    []string `json:"album_ids,omitempty"`
	Destination string   `json:"destination,omitempty"`
}

// ExportStartResponse is the response for starting an export.
type ExportStartResponse struct {
	ExportID string `json:"export_id"`
	Mode     string `json:"mode"`
	Total    int    `json:"total"`
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
}

// ExportStatusResponse is the response for export status.
type ExportStatusResponse struct {
	Active    bool               `json:"active"`
	ExportID  string             `json:"export_id,omitempty"`
	Mode      string             `json:"mode,omitempty"`
	State     string             `json:"state,omitempty"`
	Processed int                `json:"processed"`
	Total     int                `json:"total"`
	Message   string             `json:"message,omitempty"`
	Errors    []export.ItemError `json:"errors,omitempty"`
	StartedAt *time.Time         `json:"started_at,omitempty"`
}

// Start handles POST /api/v1/exports
func (h *ExportHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req ExportStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	dest := req.Destination
	if dest == "" {
		dest = h.defaultDest
	}
	if dest == "" {
		http.Error(w, `{"error":"destination is required"}`, http.StatusBadRequest)
		return
	}
	dest = export.NormalizeDestRoot(dest)

	cb := h.runCallbacks()

	// The run outlives this request; cancellation happens through the
	// job, not the request context.
	runCtx := context.WithoutCancel(r.Context())

	var job *export.Job
	var err error
	switch domain.ExportMode(req.Mode) {
	case domain.ModeSelectedAlbums:
		if len(req.AlbumIDs) == 0 {
			http.Error(w, `{"error":"album_ids is required for selected_albums mode"}`, http.StatusBadRequest)
			return
		}
		var albums []domain.Album
		albums, err = h.resolveAlbums(r, req.AlbumIDs)
		if err != nil {
			if errors.Is(err, domain.ErrAlbumNotFound) {
				http.Error(w, `{"error":"unknown album"}`, http.StatusNotFound)
				return
			}
			h.logger.Error("failed to resolve albums", "error", err)
			http.Error(w, `{"error":"failed to resolve albums"}`, http.StatusInternalServerError)
			return
		}
		job, err = h.engine.RunSelectedAlbums(runCtx, albums, dest, cb)

	case domain.ModeAllAssets:
		job, err = h.engine.RunAllAssets(runCtx, dest, cb)

	default:
		http.Error(w, `{"error":"mode must be selected_albums or all_assets"}`, http.StatusBadRequest)
		return
	}

	if err != nil {
		switch {
		case errors.Is(err, domain.ErrExportInProgress):
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(ExportStartResponse{
				Status:  "conflict",
				Message: "An export is already in progress",
			})
		case errors.Is(err, domain.ErrDestinationDenied):
			h.logger.Error("destination not writable", "destination", dest, "error", err)
			http.Error(w, `{"error":"destination is not writable"}`, http.StatusBadRequest)
		default:
			h.logger.Error("failed to start export", "error", err)
			http.Error(w, `{"error":"failed to start export"}`, http.StatusInternalServerError)
		}
		return
	}

	summary := job.Summary()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(ExportStartResponse{
		ExportID: job.ID,
		Mode:     string(job.Mode),
		Total:    summary.Total,
		Status:   "started",
	})
}

// Status handles GET /api/v1/exports/current
func (h *ExportHandler) Status(w http.ResponseWriter, r *http.Request) {
	job := h.engine.ActiveJob()

	w.Header().Set("Content-Type", "application/json")
	if job == nil {
		json.NewEncoder(w).Encode(ExportStatusResponse{Active: false})
		return
	}

	state := job.State()
	summary := job.Summary()
	started := job.StartedAt
	json.NewEncoder(w).Encode(ExportStatusResponse{
		Active:    !state.Terminal(),
		ExportID:  job.ID,
		Mode:      string(job.Mode),
		State:     string(state),
		Processed: summary.Processed,
		Total:     summary.Total,
		Message:   job.LastMessage(),
		Errors:    job.Errors(),
		StartedAt: &started,
	})
}

// Cancel handles DELETE /api/v1/exports/current
func (h *ExportHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	job := h.engine.ActiveJob()
	if job == nil || job.State().Terminal() {
		http.Error(w, `{"error":"no export in progress"}`, http.StatusNotFound)
		return
	}

	job.RequestCancel()
	h.logger.Info("export cancellation requested", "export_id", job.ID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{
		"export_id": job.ID,
		"status":    "cancelling",
	})
}

func (h *ExportHandler) resolveAlbums(r *http.Request, ids []string) ([]domain.Album, error) {
	albums := make([]domain.Album, 0, len(ids))
	listed, err := h.catalog.ListAlbums(r.Context())
	if err != nil {
		return nil, err
	}
	byID := make(map[domain.AlbumID]domain.Album, len(listed))
	for _, a := range listed {
		byID[a.ID] = a
	}
	for _, id := range ids {
		a, ok := byID[domain.AlbumID(id)]
		if !ok {
			return nil, domain.ErrAlbumNotFound
		}
		albums = append(albums, a)
	}
	return albums, nil
}

// runCallbacks bridges engine callbacks onto the SSE hub.
func (h *ExportHandler) runCallbacks() export.Callbacks {
	if h.hub == nil {
		return export.Callbacks{}
	}
	return export.Callbacks{
		OnProgress: func(processed, total int, message string) {
			h.hub.Publish(Event{
				Type:      "export_progress",
				Message:   message,
				Processed: processed,
				Total:     total,
			})
		},
		OnError: func(message string) {
			h.hub.Publish(Event{Type: "export_error", Message: message})
		},
		OnComplete: func(cancelled bool, processed, total int) {
			h.hub.Publish(Event{
				Type:      "export_complete",
				Processed: processed,
				Total:     total,
				Cancelled: cancelled,
			})
		},
	}
}
