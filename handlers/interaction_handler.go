package handlers

import (
	"context"
	"net/http"

	"glyphAPI/services"

	"github.com/gorilla/mux"
)

type InteractionHandler struct {
	interactionService *services.InteractionService
}

func NewInteractionHandler(interactionService *services.InteractionService) *InteractionHandler {
	return &InteractionHandler{interactionService: interactionService}
}

type rateRequest struct {
	Rating int `json:"rating"`
}

type commentRequest struct {
	Comment string `json:"comment"`
}

func (h *InteractionHandler) RateGlyph(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req rateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rating, err := h.interactionService.RateGlyph(ctx, mux.Vars(r)["id"], userID, req.Rating)
	if err != nil {
		respondWithServiceError(w, err, "Failed to rate glyph")
		return
	}
	respondWithJSON(w, http.StatusOK, rating)
}

func (h *InteractionHandler) GetRating(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	rating, err := h.interactionService.GetUserRating(ctx, mux.Vars(r)["id"], userID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get rating")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"rating": rating})
}

func (h *InteractionHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	limit, ok := queryInt(r, "limit", services.DefaultCommentLimit)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}
	comments, err := h.interactionService.ListComments(ctx, mux.Vars(r)["id"], limit)
	if err != nil {
		respondWithServiceError(w, err, "Failed to list comments")
		return
	}
	respondWithJSON(w, http.StatusOK, comments)
}

func (h *InteractionHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req commentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.interactionService.AddComment(ctx, mux.Vars(r)["id"], userID, req.Comment)
	if err != nil {
		respondWithServiceError(w, err, "Failed to add comment")
		return
	}
	respondWithJSON(w, http.StatusCreated, c)
}

func (h *InteractionHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req commentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.interactionService.UpdateComment(ctx, mux.Vars(r)["id"], userID, req.Comment)
	if err != nil {
		respondWithServiceError(w, err, "Failed to update comment")
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

func (h *InteractionHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.interactionService.DeleteComment(ctx, mux.Vars(r)["id"], userID); err != nil {
		respondWithServiceError(w, err, "Failed to delete comment")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}
