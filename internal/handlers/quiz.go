package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"cramingo-backend/internal/middleware"
	"cramingo-backend/internal/quiz"
	"cramingo-backend/internal/services"
)

// QuizSessionHandler exposes the study-session state machine over HTTP. The
// sessions live in the manager; the two AI collaborators are optional and
// every path through them degrades deterministically.
type QuizSessionHandler struct {
	manager     *quiz.Manager
	sets        *services.SetService
	checker     quiz.AnswerChecker
	distractors quiz.DistractorSource
}

func NewQuizSessionHandler(manager *quiz.Manager, sets *services.SetService, checker quiz.AnswerChecker, distractors quiz.DistractorSource) *QuizSessionHandler {
	return &QuizSessionHandler{
		manager:     manager,
		sets:        sets,
		checker:     checker,
		distractors: distractors,
	}
}

func (h *QuizSessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SetID    uuid.UUID     `json:"set_id"`
		Settings quiz.Settings `json:"settings"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.SetID == uuid.Nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "set_id is required", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	set, err := h.sets.Get(r.Context(), req.SetID, userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	session, err := quiz.NewSession(userID, set.ID, set.Cards, req.Settings)
	if err != nil {
		switch {
		case errors.Is(err, quiz.ErrInvalidSettings):
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "quiz_types must contain text-input and/or multiple-choice", r))
		case errors.Is(err, quiz.ErrNoQuestions):
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Set has no cards with a textual answer", r))
		default:
			writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to start quiz session", r))
		}
		return
	}

	h.manager.Put(session)
	writeJSON(w, http.StatusCreated, session.View())
}

func (h *QuizSessionHandler) session(w http.ResponseWriter, r *http.Request) *quiz.Session {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return nil
	}

	session, err := h.manager.Get(id, middleware.GetUserID(r.Context()))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Quiz session not found", r))
		return nil
	}
	return session
}

func (h *QuizSessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	if session == nil {
		return
	}
	writeJSON(w, http.StatusOK, session.View())
}

func (h *QuizSessionHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	if session == nil {
		return
	}

	var req struct {
		Answer string `json:"answer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	result, err := session.SubmitAnswer(r.Context(), req.Answer, h.checker)
	if err != nil {
		handleQuizError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"submission": result,
		"session":    session.View(),
	})
}

func (h *QuizSessionHandler) Options(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	if session == nil {
		return
	}

	options, err := session.Options(r.Context(), h.distractors)
	if err != nil {
		handleQuizError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"options": options})
}

func (h *QuizSessionHandler) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	if session == nil {
		return
	}

	bookmarked, err := session.ToggleBookmark()
	if err != nil {
		handleQuizError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"bookmarked": bookmarked})
}

func (h *QuizSessionHandler) GoTo(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	if session == nil {
		return
	}

	var req struct {
		Index int `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if err := session.GoTo(req.Index); err != nil {
		handleQuizError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, session.View())
}

func (h *QuizSessionHandler) Next(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	if session == nil {
		return
	}

	if err := session.Next(); err != nil {
		handleQuizError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, session.View())
}

func (h *QuizSessionHandler) SetMode(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	if session == nil {
		return
	}

	var req struct {
		Mode quiz.Mode `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if err := session.SetMode(req.Mode); err != nil {
		handleQuizError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, session.View())
}

func (h *QuizSessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	if session == nil {
		return
	}

	session.Reset()
	writeJSON(w, http.StatusOK, session.View())
}

func (h *QuizSessionHandler) Results(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	if session == nil {
		return
	}
	writeJSON(w, http.StatusOK, session.Results())
}

func (h *QuizSessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	h.manager.Delete(id, middleware.GetUserID(r.Context()))
	writeJSON(w, http.StatusOK, map[string]string{"message": "Quiz session discarded"})
}

func handleQuizError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, quiz.ErrCompleted):
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "Quiz session is completed; reset to study again", r))
	case errors.Is(err, quiz.ErrOutOfRange):
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Question index out of range", r))
	case errors.Is(err, quiz.ErrWrongMode):
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Mode not enabled for this session", r))
	default:
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}
