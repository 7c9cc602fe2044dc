package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/imgaltgen/imgaltgen/internal/alttext"
	"github.com/imgaltgen/imgaltgen/internal/api"
	"github.com/imgaltgen/imgaltgen/internal/auth"
	"github.com/imgaltgen/imgaltgen/internal/cache"
	"github.com/imgaltgen/imgaltgen/internal/config"
	"github.com/imgaltgen/imgaltgen/internal/db"
	"github.com/imgaltgen/imgaltgen/internal/generate"
	"github.com/imgaltgen/imgaltgen/internal/ratelimit"
	"github.com/imgaltgen/imgaltgen/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// Initialize database
	database, err := db.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Close()

	if err := database.Migrate(context.Background()); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Initialize credit limiter
	limiter, err := ratelimit.NewLimiter(cfg.RedisURL)
	if err != nil {
		log.Fatal("Failed to initialize credit limiter:", err)
	}
	defer limiter.Close()

	// Initialize alt text cache
	altCache, err := cache.New(cfg.RedisURL)
	if err != nil {
		log.Fatal("Failed to initialize alt text cache:", err)
	}

	// Initialize object storage client
	objects, err := storage.NewClient(context.Background(), storage.Config{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		Bucket:          cfg.R2BucketName,
	})
	if err != nil {
		log.Fatal("Failed to initialize object storage:", err)
	}

	// Initialize Gemini generator
	generator, err := alttext.NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.Fatal("Failed to initialize Gemini client:", err)
	}

	service := generate.NewService(limiter, generator, objects, database, altCache)

	// Initialize router
	router := mux.NewRouter()
	router.Use(api.RequestLogger)

	// Public routes
	router.HandleFunc("/health", healthHandler).Methods("GET")

	// Protected routes
	authMiddleware := auth.NewMiddleware(cfg.AuthSecret)
	handler := api.NewHandler(service, limiter, database)
	handler.RegisterRoutes(router, authMiddleware)

	// Start server
	log.Printf("Server starting on port %s", cfg.ServerPort)
	if err := http.ListenAndServe(":"+cfg.ServerPort, router); err != nil {
		log.Fatal("Server failed:", err)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"version": "1.0.0",
	})
}
