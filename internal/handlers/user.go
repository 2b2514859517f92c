package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"cramingo-backend/internal/middleware"
	"cramingo-backend/internal/models"
	"cramingo-backend/internal/repository"
)

type UserHandler struct {
	userRepo *repository.UserRepo
	likes    likeService
}

func NewUserHandler(userRepo *repository.UserRepo, likes likeService) *UserHandler {
	return &UserHandler{userRepo: userRepo, likes: likes}
}

func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	user, err := h.userRepo.GetByID(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "User not found", r))
		return
	}

	// Profile load doubles as the aggregate recovery point: recompute
	// total_likes from ground truth so drift never outlives a page view.
	if total, err := h.likes.SyncUserTotalLikes(r.Context(), userID); err == nil {
		user.TotalLikes = total
	} else {
		log.Printf("profile load: likes sync failed for user %s: %v", userID, err)
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	user, err := h.userRepo.GetByID(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "User not found", r))
		return
	}

	var req models.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if req.Username != "" {
		user.Username = req.Username
	}
	if req.University != "" {
		user.University = req.University
	}
	if req.FieldOfStudy != "" {
		user.FieldOfStudy = req.FieldOfStudy
	}

	if err := h.userRepo.UpdateProfile(r.Context(), user); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update profile", r))
		return
	}

	writeJSON(w, http.StatusOK, user)
}
