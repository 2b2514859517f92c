package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"cramingo-backend/internal/middleware"
	"cramingo-backend/internal/services"
)

type stubLikeService struct {
	likeCount   int
	likeErr     error
	unlikeCount int
	unlikeErr   error
	hasLiked    bool
	syncTotal   int
	syncErr     error
}

func (s *stubLikeService) Like(ctx context.Context, setID, userID uuid.UUID) (int, error) {
	return s.likeCount, s.likeErr
}

func (s *stubLikeService) Unlike(ctx context.Context, setID, userID uuid.UUID) (int, error) {
	return s.unlikeCount, s.unlikeErr
}

func (s *stubLikeService) HasLiked(ctx context.Context, setID, userID uuid.UUID) (bool, error) {
	return s.hasLiked, nil
}

func (s *stubLikeService) SetLikeCount(ctx context.Context, setID uuid.UUID) (int, error) {
	return s.likeCount, s.likeErr
}

func (s *stubLikeService) SyncUserTotalLikes(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.syncTotal, s.syncErr
}

// testRouter mounts the like routes behind a fake authenticated user.
func testRouter(svc likeService, userID uuid.UUID) http.Handler {
	h := NewLikeHandler(svc)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Post("/sets/{id}/like", h.Like)
	r.Post("/sets/{id}/unlike", h.Unlike)
	r.Get("/sets/{id}/like-status", h.Status)
	r.Get("/sets/{id}/likes", h.Count)
	r.Post("/users/{uid}/sync-likes", h.SyncLikes)
	return r
}

func TestLikeHandler_Like(t *testing.T) {
	svc := &stubLikeService{likeCount: 8}
	router := testRouter(svc, uuid.New())
	setID := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/sets/"+setID.String()+"/like", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON response: %v", err)
	}
	if body["likes_count"].(float64) != 8 {
		t.Errorf("Expected likes_count 8, got %v", body["likes_count"])
	}
	if body["set_id"].(string) != setID.String() {
		t.Errorf("Expected set_id echoed, got %v", body["set_id"])
	}
}

func TestLikeHandler_DuplicateLikeIs409(t *testing.T) {
	svc := &stubLikeService{likeErr: &services.ConflictError{Message: "Set already liked"}}
	router := testRouter(svc, uuid.New())

	req := httptest.NewRequest(http.MethodPost, "/sets/"+uuid.NewString()+"/like", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d", rec.Code)
	}

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON response: %v", err)
	}
	if body.Error.Code != "CONFLICT" {
		t.Errorf("Expected error code CONFLICT, got %q", body.Error.Code)
	}
}

func TestLikeHandler_MissingSetIs404(t *testing.T) {
	svc := &stubLikeService{unlikeErr: &services.NotFoundError{Message: "Set not found"}}
	router := testRouter(svc, uuid.New())

	req := httptest.NewRequest(http.MethodPost, "/sets/"+uuid.NewString()+"/unlike", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rec.Code)
	}
}

func TestLikeHandler_InvalidSetIDIs400(t *testing.T) {
	router := testRouter(&stubLikeService{}, uuid.New())

	req := httptest.NewRequest(http.MethodPost, "/sets/not-a-uuid/like", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
}

func TestLikeHandler_Status(t *testing.T) {
	router := testRouter(&stubLikeService{hasLiked: true}, uuid.New())

	req := httptest.NewRequest(http.MethodGet, "/sets/"+uuid.NewString()+"/like-status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON response: %v", err)
	}
	if !body["has_liked"] {
		t.Error("Expected has_liked true")
	}
}

func TestLikeHandler_SyncLikes(t *testing.T) {
	router := testRouter(&stubLikeService{syncTotal: 42}, uuid.New())

	req := httptest.NewRequest(http.MethodPost, "/users/"+uuid.NewString()+"/sync-likes", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON response: %v", err)
	}
	if body["total_likes"] != 42 {
		t.Errorf("Expected total_likes 42, got %d", body["total_likes"])
	}
}
