package handler

import (
	"log/slog"
	"net/http"

	"breakdown/internal/domain/services"
	"breakdown/internal/httputil"
)

// KnowledgeHandler serves manufacturing-process cards
type KnowledgeHandler struct {
	service services.KnowledgeService
	logger  *slog.Logger
}

// NewKnowledgeHandler creates a new knowledge handler
func NewKnowledgeHandler(service services.KnowledgeService, logger *slog.Logger) *KnowledgeHandler {
	return &KnowledgeHandler{service: service, logger: logger}
}

// GetCard returns the card for a node. A node without a card answers 200
// with available=false.
// GET /api/decompositions/{id}/nodes/{nodeId}/card?priority=high|low
func (h *KnowledgeHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Decomposition ID")
	if !ok {
		return
	}
	nodeID, ok := PathParam(w, r, "nodeId", "Node ID")
	if !ok {
		return
	}

	priority := services.CardPriority(r.URL.Query().Get("priority"))
	if priority == "" {
		priority = services.CardPriorityHigh
	}

	card, err := h.service.GetCard(r.Context(), httputil.GetUserID(r), id, nodeID, priority)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, card)
}

// Prefetch queues low-priority cards for every expanded node
// POST /api/decompositions/{id}/cards/prefetch
func (h *KnowledgeHandler) Prefetch(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Decomposition ID")
	if !ok {
		return
	}

	queued, err := h.service.Prefetch(r.Context(), httputil.GetUserID(r), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusAccepted, map[string]int{"queued": queued})
}
