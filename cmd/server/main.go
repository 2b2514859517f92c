package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cramingo-backend/internal/config"
	"cramingo-backend/internal/database"
	"cramingo-backend/internal/handlers"
	"cramingo-backend/internal/middleware"
	"cramingo-backend/internal/quiz"
	"cramingo-backend/internal/repository"
	"cramingo-backend/internal/router"
	"cramingo-backend/internal/services"
	"cramingo-backend/internal/websocket"
	"cramingo-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting Cramingo Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	setRepo := repository.NewSetRepo(pool)
	likeRepo := repository.NewLikeRepo(pool)

	// ──── Step 5: Initialize Gemini Client (optional) ────
	// Without a key the quiz falls back to exact-match checking and
	// correct-answer-only options.
	var checker quiz.AnswerChecker
	var distractors quiz.DistractorSource
	if cfg.GeminiAPIKey != "" {
		answerService, err := services.NewAnswerService(cfg.GeminiAPIKey, cfg.GeminiConcurrentReqs)
		if err != nil {
			log.Fatalf("✗ Gemini client initialization failed: %v", err)
		}
		defer answerService.Close()
		checker = answerService
		distractors = answerService
		log.Println("✓ Gemini Flash client initialized")
	} else {
		log.Println("⚠ GEMINI_API_KEY not set; answer checking degrades to exact match")
	}

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	likeService := services.NewLikeService(setRepo, likeRepo, userRepo, redisClients.Queue)
	setService := services.NewSetService(setRepo, userRepo, redisClients.Queue)
	sessionManager := quiz.NewManager(2 * time.Hour)

	// ──── Initialize Handlers ────
	setHandler := handlers.NewSetHandler(setService)
	likeHandler := handlers.NewLikeHandler(likeService)
	userHandler := handlers.NewUserHandler(userRepo, likeService)
	quizHandler := handlers.NewQuizSessionHandler(sessionManager, setService, checker, distractors)

	// ──── Step 6: Start Likes Reconciliation Worker Pool ────
	workerPool := worker.NewPool(redisClients.Queue, likeService, cfg.WorkerCount)
	workerPool.Start()
	log.Printf("✓ Worker pool started (%d goroutines)", cfg.WorkerCount)

	// ──── Step 7: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth)
	log.Println("✓ WebSocket hub started")

	// ──── Step 8: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		setHandler,
		likeHandler,
		userHandler,
		quizHandler,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Cramingo Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
