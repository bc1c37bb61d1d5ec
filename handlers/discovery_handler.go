package handlers

import (
	"context"
	"net/http"

	"glyphAPI/internal/types/discovery"
	"glyphAPI/services"

	"github.com/gorilla/mux"
)

type DiscoveryHandler struct {
	discoveryService *services.DiscoveryService
}

func NewDiscoveryHandler(discoveryService *services.DiscoveryService) *DiscoveryHandler {
	return &DiscoveryHandler{discoveryService: discoveryService}
}

// Discover answers 201 for a new discovery and 200 when it was already recorded.
func (h *DiscoveryHandler) Discover(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req discovery.LocationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.discoveryService.Discover(ctx, userID, mux.Vars(r)["id"], req.Point())
	if err != nil {
		respondWithServiceError(w, err, "Failed to discover glyph")
		return
	}

	code := http.StatusOK
	if res.Created() {
		code = http.StatusCreated
	}
	respondWithJSON(w, code, res)
}

func (h *DiscoveryHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req discovery.LocationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.discoveryService.Sweep(ctx, userID, req.Point())
	if err != nil {
		respondWithServiceError(w, err, "Failed to sweep nearby glyphs")
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

func (h *DiscoveryHandler) ListDiscoveries(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	list, err := h.discoveryService.GetUserDiscoveries(ctx, userID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to list discoveries")
		return
	}
	respondWithJSON(w, http.StatusOK, list)
}

func (h *DiscoveryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	stats, err := h.discoveryService.GetDiscoveryStats(ctx, userID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get discovery stats")
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

func (h *DiscoveryHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	hits, err := h.discoveryService.SearchDiscoveredGlyphs(ctx, userID, r.URL.Query().Get("q"))
	if err != nil {
		respondWithServiceError(w, err, "Failed to search discoveries")
		return
	}
	respondWithJSON(w, http.StatusOK, hits)
}

func (h *DiscoveryHandler) HasDiscovered(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	found, err := h.discoveryService.HasDiscovered(ctx, userID, mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, err, "Failed to check discovery")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]bool{"discovered": found})
}
