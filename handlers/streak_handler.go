package handlers

import (
	"context"
	"net/http"

	"glyphAPI/services"
)

type StreakHandler struct {
	streakService *services.StreakService
}

func NewStreakHandler(streakService *services.StreakService) *StreakHandler {
	return &StreakHandler{streakService: streakService}
}

// GetStreak reconciles before answering so a lapsed streak never shows as active.
func (h *StreakHandler) GetStreak(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	status, err := h.streakService.Status(ctx, userID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get streak")
		return
	}
	respondWithJSON(w, http.StatusOK, status)
}

func (h *StreakHandler) GetAchievements(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	milestones, err := h.streakService.Achievements(ctx, userID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get achievements")
		return
	}
	respondWithJSON(w, http.StatusOK, milestones)
}
