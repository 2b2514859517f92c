package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"cramingo-backend/internal/middleware"
	"cramingo-backend/internal/models"
	"cramingo-backend/internal/services"
)

type SetHandler struct {
	sets *services.SetService
}

func NewSetHandler(sets *services.SetService) *SetHandler {
	return &SetHandler{sets: sets}
}

func (h *SetHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	set, err := h.sets.Create(r.Context(), userID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, set)
}

func (h *SetHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid set ID", r))
		return
	}

	set, err := h.sets.Get(r.Context(), id, middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, set)
}

func (h *SetHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	sets, err := h.sets.ListMine(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch sets", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"sets": sets})
}

func (h *SetHandler) SearchPublic(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	sets, err := h.sets.SearchPublic(r.Context(), search, limit, offset)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to search sets", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"sets": sets})
}

func (h *SetHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid set ID", r))
		return
	}

	var req models.UpdateSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	set, err := h.sets.Update(r.Context(), id, middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, set)
}

func (h *SetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid set ID", r))
		return
	}

	if err := h.sets.Delete(r.Context(), id, middleware.GetUserID(r.Context())); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Set deleted"})
}

func (h *SetHandler) SaveCopy(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid set ID", r))
		return
	}

	set, err := h.sets.SaveCopy(r.Context(), id, middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, set)
}
