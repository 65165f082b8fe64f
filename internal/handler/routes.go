package handler

import "net/http"

// Handlers groups every API handler for route registration.
type Handlers struct {
	Decompositions *DecompositionHandler
	Knowledge      *KnowledgeHandler
	Sessions       *SessionHandler
	Models         *ModelsHandler
}

// RegisterRoutes mounts the API on mux using Go 1.22 method patterns.
func RegisterRoutes(mux *http.ServeMux, h Handlers) {
	mux.HandleFunc("GET /health", HealthCheck)

	if d := h.Decompositions; d != nil {
		mux.HandleFunc("POST /api/decompositions", d.Start)
		mux.HandleFunc("GET /api/decompositions/{id}", d.Get)
		mux.HandleFunc("DELETE /api/decompositions/{id}", d.Discard)
		mux.HandleFunc("POST /api/decompositions/{id}/nodes/{nodeId}/expand", d.Expand)
		mux.HandleFunc("POST /api/decompositions/{id}/nodes/{nodeId}/drag", d.Drag)
		mux.HandleFunc("GET /api/decompositions/{id}/explode", d.Explode)
		mux.HandleFunc("POST /api/identify", d.Identify)
	}

	if k := h.Knowledge; k != nil {
		mux.HandleFunc("GET /api/decompositions/{id}/nodes/{nodeId}/card", k.GetCard)
		mux.HandleFunc("POST /api/decompositions/{id}/cards/prefetch", k.Prefetch)
	}

	if s := h.Sessions; s != nil {
		mux.HandleFunc("POST /api/sessions", s.Save)
		mux.HandleFunc("GET /api/sessions", s.List)
		mux.HandleFunc("GET /api/sessions/{id}", s.Load)
		mux.HandleFunc("PUT /api/sessions/{id}", s.Update)
		mux.HandleFunc("DELETE /api/sessions/{id}", s.Delete)
	}

	if m := h.Models; m != nil {
		mux.HandleFunc("GET /api/models", m.GetModels)
	}
}
