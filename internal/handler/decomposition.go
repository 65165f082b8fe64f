package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"breakdown/internal/config"
	models "breakdown/internal/domain/models/decomposition"
	"breakdown/internal/domain/services"
	"breakdown/internal/handler/sse"
	"breakdown/internal/httputil"
)

// DecompositionHandler handles live decomposition requests
type DecompositionHandler struct {
	service   services.DecompositionService
	sseConfig *sse.Config
	logger    *slog.Logger
}

// NewDecompositionHandler creates a new decomposition handler
func NewDecompositionHandler(service services.DecompositionService, sseConfig *sse.Config, logger *slog.Logger) *DecompositionHandler {
	if sseConfig == nil {
		sseConfig = sse.DefaultConfig()
	}
	return &DecompositionHandler{
		service:   service,
		sseConfig: sseConfig,
		logger:    logger,
	}
}

// Start creates a live decomposition
// POST /api/decompositions
func (h *DecompositionHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	var req services.StartDecompositionRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	view, err := h.service.Start(r.Context(), userID, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, view)
}

// Get returns the tree and layout
// GET /api/decompositions/{id}
func (h *DecompositionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Decomposition ID")
	if !ok {
		return
	}

	view, err := h.service.Get(r.Context(), httputil.GetUserID(r), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, view)
}

// Expand expands or toggles a node
// POST /api/decompositions/{id}/nodes/{nodeId}/expand
func (h *DecompositionHandler) Expand(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Decomposition ID")
	if !ok {
		return
	}
	nodeID, ok := PathParam(w, r, "nodeId", "Node ID")
	if !ok {
		return
	}

	view, err := h.service.Expand(r.Context(), httputil.GetUserID(r), id, nodeID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, view)
}

// Drag moves a node and its subtree
// POST /api/decompositions/{id}/nodes/{nodeId}/drag
func (h *DecompositionHandler) Drag(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Decomposition ID")
	if !ok {
		return
	}
	nodeID, ok := PathParam(w, r, "nodeId", "Node ID")
	if !ok {
		return
	}

	var req services.DragRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	view, err := h.service.Drag(r.Context(), httputil.GetUserID(r), id, nodeID, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, view)
}

// Discard drops a live decomposition
// DELETE /api/decompositions/{id}
func (h *DecompositionHandler) Discard(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Decomposition ID")
	if !ok {
		return
	}

	if err := h.service.Discard(r.Context(), httputil.GetUserID(r), id); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Identify names the object in an uploaded photo
// POST /api/identify (multipart field "image")
func (h *DecompositionHandler) Identify(w http.ResponseWriter, r *http.Request) {
	upload, err := httputil.ParseUpload(w, r, "image", config.MaxUploadBytes)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ident, err := h.service.Identify(r.Context(), upload.Data, upload.MimeType)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, ident)
}

// Explode expands the whole subtree and streams progress events
// GET /api/decompositions/{id}/explode?node_id=
func (h *DecompositionHandler) Explode(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Decomposition ID")
	if !ok {
		return
	}
	userID := httputil.GetUserID(r)
	nodeID := r.URL.Query().Get("node_id")

	// Ownership and existence errors go out as plain problem responses
	// before the stream opens.
	if _, err := h.service.Get(r.Context(), userID, id); err != nil {
		handleError(w, err)
		return
	}

	stream, err := sse.NewWriter(w)
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events := make(chan models.ExplodeEvent, h.sseConfig.BufferSize)
	errc := make(chan error, 1)
	go func() {
		errc <- h.service.Explode(ctx, userID, id, nodeID, events)
	}()

	h.logger.Info("explode stream opened", "id", id, "node_id", nodeID)
	start := time.Now()

	ticker := time.NewTicker(h.sseConfig.KeepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-events:
			if err := stream.WriteEvent(ev.Type, ev); err != nil {
				h.logger.Info("client disconnected during explode", "id", id, "error", err)
				return
			}

		case err := <-errc:
			// Explode has returned, so nothing else is sent on events.
			for drained := false; !drained; {
				select {
				case ev := <-events:
					if stream.WriteEvent(ev.Type, ev) != nil {
						return
					}
				default:
					drained = true
				}
			}
			if err != nil && ctx.Err() == nil {
				stream.WriteEvent("error", map[string]string{"error": err.Error()})
			}
			h.logger.Info("explode stream closed", "id", id, "duration", time.Since(start), "error", err)
			return

		case <-ticker.C:
			if err := stream.WriteKeepAlive(); err != nil {
				return
			}

		case <-ctx.Done():
			h.logger.Info("client disconnected during explode", "id", id)
			return
		}
	}
}
