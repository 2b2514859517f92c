package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"cramingo-backend/internal/handlers"
	"cramingo-backend/internal/middleware"
	"cramingo-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	setHandler *handlers.SetHandler,
	likeHandler *handlers.LikeHandler,
	userHandler *handlers.UserHandler,
	quizHandler *handlers.QuizSessionHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Like toggles are the hot write path (30 req/min per IP)
	likeLimiter := middleware.NewRateLimiter(30, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Set Routes ────
		r.Route("/sets", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/", setHandler.Create)
			r.Get("/", setHandler.ListMine)
			r.Get("/public", setHandler.SearchPublic)
			r.Get("/{id}", setHandler.Get)
			r.Put("/{id}", setHandler.Update)
			r.Delete("/{id}", setHandler.Delete)
			r.Post("/{id}/save", setHandler.SaveCopy)

			// Like subtree shares the write limiter
			r.Group(func(r chi.Router) {
				r.Use(likeLimiter.Middleware)
				r.Post("/{id}/like", likeHandler.Like)
				r.Post("/{id}/unlike", likeHandler.Unlike)
			})
			r.Get("/{id}/like-status", likeHandler.Status)
			r.Get("/{id}/likes", likeHandler.Count)
		})

		// ──── User Routes ────
		r.Route("/users", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/me", userHandler.GetMe)
			r.Put("/me", userHandler.UpdateMe)
			r.Post("/{uid}/sync-likes", likeHandler.SyncLikes)
		})

		// ──── Quiz Session Routes ────
		r.Route("/quiz-sessions", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/", quizHandler.Start)
			r.Get("/{id}", quizHandler.Get)
			r.Delete("/{id}", quizHandler.Delete)
			r.Post("/{id}/answer", quizHandler.SubmitAnswer)
			r.Get("/{id}/options", quizHandler.Options)
			r.Post("/{id}/bookmark", quizHandler.ToggleBookmark)
			r.Post("/{id}/goto", quizHandler.GoTo)
			r.Post("/{id}/next", quizHandler.Next)
			r.Post("/{id}/mode", quizHandler.SetMode)
			r.Post("/{id}/reset", quizHandler.Reset)
			r.Get("/{id}/results", quizHandler.Results)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
