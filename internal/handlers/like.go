package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"cramingo-backend/internal/middleware"
)

type likeService interface {
	Like(ctx context.Context, setID, userID uuid.UUID) (int, error)
	Unlike(ctx context.Context, setID, userID uuid.UUID) (int, error)
	HasLiked(ctx context.Context, setID, userID uuid.UUID) (bool, error)
	SetLikeCount(ctx context.Context, setID uuid.UUID) (int, error)
	SyncUserTotalLikes(ctx context.Context, userID uuid.UUID) (int, error)
}

type LikeHandler struct {
	likes likeService
}

func NewLikeHandler(likes likeService) *LikeHandler {
	return &LikeHandler{likes: likes}
}

func (h *LikeHandler) Like(w http.ResponseWriter, r *http.Request) {
	setID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid set ID", r))
		return
	}
	userID := middleware.GetUserID(r.Context())

	likes, err := h.likes.Like(r.Context(), setID, userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Set liked",
		"set_id":      setID,
		"likes_count": likes,
	})
}

func (h *LikeHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	setID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid set ID", r))
		return
	}
	userID := middleware.GetUserID(r.Context())

	likes, err := h.likes.Unlike(r.Context(), setID, userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Set unliked",
		"set_id":      setID,
		"likes_count": likes,
	})
}

func (h *LikeHandler) Status(w http.ResponseWriter, r *http.Request) {
	setID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid set ID", r))
		return
	}
	userID := middleware.GetUserID(r.Context())

	hasLiked, err := h.likes.HasLiked(r.Context(), setID, userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"has_liked": hasLiked})
}

func (h *LikeHandler) Count(w http.ResponseWriter, r *http.Request) {
	setID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid set ID", r))
		return
	}

	likes, err := h.likes.SetLikeCount(r.Context(), setID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"set_id":      setID,
		"likes_count": likes,
	})
}

// SyncLikes recomputes a user's total_likes from ground truth. Exposed as
// the recovery path for aggregate drift.
func (h *LikeHandler) SyncLikes(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "uid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid user ID", r))
		return
	}

	total, err := h.likes.SyncUserTotalLikes(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"total_likes": total})
}
