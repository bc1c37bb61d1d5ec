package handlers

import (
	"context"
	"net/http"
	"time"

	"glyphAPI/internal/types/glyph"
	"glyphAPI/services"

	"github.com/gorilla/mux"
)

const photoFormField = "photo"

type GlyphHandler struct {
	glyphService     *services.GlyphService
	discoveryService *services.DiscoveryService
	photoService     *services.PhotoService
	shareService     *services.ShareService
	searchRadius     float64
}

// NewGlyphHandler wires the glyph routes. photoService may be nil when no bucket is configured.
func NewGlyphHandler(
	glyphService *services.GlyphService,
	discoveryService *services.DiscoveryService,
	photoService *services.PhotoService,
	shareService *services.ShareService,
	searchRadius float64,
) *GlyphHandler {
	return &GlyphHandler{
		glyphService:     glyphService,
		discoveryService: discoveryService,
		photoService:     photoService,
		shareService:     shareService,
		searchRadius:     searchRadius,
	}
}

func (h *GlyphHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	center, ok := queryPoint(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "lat and lng query parameters are required")
		return
	}
	radius, ok := queryFloat(r, "radius", h.searchRadius)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "radius must be a number")
		return
	}

	nearby, err := h.discoveryService.Nearby(ctx, center, radius)
	if err != nil {
		respondWithServiceError(w, err, "Failed to load nearby glyphs")
		return
	}
	respondWithJSON(w, http.StatusOK, nearby)
}

func (h *GlyphHandler) CreateGlyph(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req glyph.CreateGlyphRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	g, err := h.glyphService.CreateGlyph(ctx, userID, req)
	if err != nil {
		respondWithServiceError(w, err, "Failed to create glyph")
		return
	}
	respondWithJSON(w, http.StatusCreated, g)
}

func (h *GlyphHandler) GetGlyph(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	g, err := h.glyphService.GetGlyph(ctx, mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, err, "Failed to get glyph")
		return
	}
	respondWithJSON(w, http.StatusOK, g)
}

func (h *GlyphHandler) ListGlyphs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var filter glyph.Filter
	if c := r.URL.Query().Get("category"); c != "" {
		cat := glyph.Category(c)
		filter.Category = &cat
	}
	if u := r.URL.Query().Get("user_id"); u != "" {
		filter.UserID = &u
	}

	glyphs, err := h.glyphService.ListGlyphs(ctx, filter)
	if err != nil {
		respondWithServiceError(w, err, "Failed to list glyphs")
		return
	}
	respondWithJSON(w, http.StatusOK, glyphs)
}

func (h *GlyphHandler) UpdateGlyph(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req glyph.UpdateGlyphRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	g, err := h.glyphService.UpdateGlyph(ctx, userID, mux.Vars(r)["id"], req)
	if err != nil {
		respondWithServiceError(w, err, "Failed to update glyph")
		return
	}
	respondWithJSON(w, http.StatusOK, g)
}

func (h *GlyphHandler) DeleteGlyph(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.glyphService.DeleteGlyph(ctx, userID, mux.Vars(r)["id"]); err != nil {
		respondWithServiceError(w, err, "Failed to delete glyph")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *GlyphHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 45*time.Second)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if h.photoService == nil {
		respondWithError(w, http.StatusServiceUnavailable, "Photo storage is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, services.MaxPhotoSize+1<<20)
	if err := r.ParseMultipartForm(services.MaxPhotoSize); err != nil {
		respondWithError(w, http.StatusBadRequest, "Photo must be a multipart upload of at most 5MB")
		return
	}
	file, header, err := r.FormFile(photoFormField)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing photo file")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	g, err := h.photoService.UploadGlyphPhoto(ctx, userID, mux.Vars(r)["id"], file, header.Size, contentType)
	if err != nil {
		respondWithServiceError(w, err, "Failed to upload glyph photo")
		return
	}
	respondWithJSON(w, http.StatusOK, g)
}

func (h *GlyphHandler) PhotoURL(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if h.photoService == nil {
		respondWithError(w, http.StatusServiceUnavailable, "Photo storage is not configured")
		return
	}
	signed, err := h.photoService.GlyphPhotoURL(ctx, mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, err, "Failed to sign glyph photo")
		return
	}
	respondWithJSON(w, http.StatusOK, signed)
}

func (h *GlyphHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if h.photoService == nil {
		respondWithError(w, http.StatusServiceUnavailable, "Photo storage is not configured")
		return
	}
	g, err := h.photoService.DeleteGlyphPhoto(ctx, userID, mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, err, "Failed to delete glyph photo")
		return
	}
	respondWithJSON(w, http.StatusOK, g)
}

func (h *GlyphHandler) ShareCode(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	code, err := h.shareService.ShareCode(ctx, mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, err, "Failed to create share code")
		return
	}
	respondWithJSON(w, http.StatusOK, code)
}
