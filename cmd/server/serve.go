package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"hangout-backend/internal/chat"
	"hangout-backend/internal/config"
	"hangout-backend/internal/database"
	"hangout-backend/internal/handlers"
	"hangout-backend/internal/middleware"
	"hangout-backend/internal/places"
	"hangout-backend/internal/repository"
	"hangout-backend/internal/router"
	"hangout-backend/internal/services"
	"hangout-backend/internal/storage"
	"hangout-backend/internal/websocket"
	"hangout-backend/internal/worker"
	"hangout-backend/migrations"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func newObjectStore(ctx context.Context, cfg *config.Config) (storage.ObjectStore, http.Handler, error) {
	switch cfg.StorageType {
	case "s3":
		store, err := storage.NewS3ObjectStore(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3EndpointURL,
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	case "local":
		store, err := storage.NewLocalObjectStore(cfg.StoragePath, cfg.PublicBaseURL)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Handler(), nil
	default:
		return nil, nil, fmt.Errorf("unknown STORAGE_TYPE %q (want local or s3)", cfg.StorageType)
	}
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Println("🚀 Starting HangOut Guide Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("PostgreSQL connection failed: %w", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("Redis connection failed: %w", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	applied, err := database.RunMigrations(ctx, pool, migrations.FS)
	if err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	log.Printf("✓ Database migrations applied (%d new)", applied)

	// ──── Step 5: Object Storage ────
	objects, uploads, err := newObjectStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("object storage initialization failed: %w", err)
	}
	log.Printf("✓ Object storage ready (%s)", cfg.StorageType)

	// ──── Step 6: Initialize Gemini Client ────
	geminiService, err := services.NewGeminiService(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiTemperature, cfg.GeminiConcurrentReqs)
	if err != nil {
		return fmt.Errorf("Gemini client initialization failed: %w", err)
	}
	defer geminiService.Close()
	log.Printf("✓ Gemini client initialized (%s)", cfg.GeminiModel)

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	profileRepo := repository.NewProfileRepo(pool)
	chatRepo := repository.NewChatRepo(pool)

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	emailService := services.NewEmailService(services.SMTPConfig{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
		From: cfg.SMTPFrom,
	}, cfg.FrontendURL)
	profileService := services.NewProfileService(profileRepo, objects)
	mailQueue := worker.NewQueue(redisClients.Cache)
	authService := services.NewAuthService(userRepo, profileService, redisClients.Cache, jwtAuth, mailQueue)

	placesClient := places.NewClient(places.Config{
		APIKey:           cfg.GoogleMapsAPIKey,
		PlacesBaseURL:    cfg.PlacesBaseURL,
		GeocodingBaseURL: cfg.GeocodingBaseURL,
		OverpassURL:      cfg.OverpassURL,
		OpenMeteoURL:     cfg.OpenMeteoURL,
	})
	if cfg.GoogleMapsAPIKey == "" {
		log.Println("  GOOGLE_MAPS_API_KEY not set; autocomplete and geocoding are disabled")
	}

	// ──── Step 7: Start Email Worker Pool ────
	mailPool := worker.NewPool(redisClients.Cache, emailService, 2)
	mailPool.Start()
	log.Println("✓ Email worker pool started (2 goroutines)")

	// ──── Step 8: Chat Manager ────
	chatManager := chat.NewManager(geminiService, chatRepo, services.NewChatPublisher(redisClients.Cache), chat.ManagerConfig{
		Timeout:     cfg.ChatTimeout,
		IdleTTL:     cfg.ChatIdleTTL,
		HistorySize: cfg.ChatHistorySize,
	})
	go chatManager.Run(ctx)
	log.Printf("✓ Chat manager started (timeout %s, idle TTL %s)", cfg.ChatTimeout, cfg.ChatIdleTTL)

	recommendationService := services.NewRecommendationService(profileService, placesClient, chatManager)

	// ──── Step 9: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth, func(ctx context.Context, userID uuid.UUID) (interface{}, error) {
		conv, err := chatManager.Get(ctx, userID)
		if err != nil {
			return nil, err
		}
		return conv.State(), nil
	})
	log.Println("✓ WebSocket hub started")

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService)
	profileHandler := handlers.NewProfileHandler(profileService)
	chatHandler := handlers.NewChatHandler(chatManager, chatRepo, recommendationService)
	placesHandler := handlers.NewPlacesHandler(placesClient)

	authLimiter := middleware.NewRateLimiter(10, time.Minute)
	defer authLimiter.Stop()
	chatLimiter := middleware.NewRateLimiter(30, time.Minute)
	defer chatLimiter.Stop()

	// ──── Step 10: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		authHandler,
		profileHandler,
		chatHandler,
		placesHandler,
		wsHub,
		uploads,
		router.Limits{Auth: authLimiter, Chat: chatLimiter},
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// Waiting chat requests can hold the response for a full reply.
		WriteTimeout: cfg.ChatTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("✓ HangOut Guide Backend ready on http://localhost:%s", cfg.Port)
		log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
		log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	// Graceful shutdown
	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("✗ HTTP shutdown: %v", err)
	}
	wsHub.Close()
	chatManager.CloseAll()
	mailPool.Stop()
	log.Println("✓ Shutdown complete")
	return nil
}
