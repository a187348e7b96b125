package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"bandlink/internal/cache"
	"bandlink/internal/config"
	"bandlink/internal/handlers"
	"bandlink/internal/models"
	"bandlink/internal/repositories"
	"bandlink/internal/services"
	"bandlink/internal/verify"
)

func main() {
	// Load .env file for local development
	_ = godotenv.Load()

	// Initialize structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	gin.SetMode(cfg.GinMode)

	// Initialize database
	ctx := context.Background()
	db, err := models.NewDatabase(ctx, cfg.MongodbURL, cfg.MongodbDB)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close(ctx)

	if err := db.CreateIndexes(ctx); err != nil {
		slog.Error("Failed to create indexes", "error", err)
		os.Exit(1)
	}

	// Initialize cache; fall back to in-memory when Valkey is not configured
	var linkCache cache.Cache
	if cfg.ValkeyURL != "" {
		linkCache, err = cache.NewValkeyCache(cfg.ValkeyURL)
		if err != nil {
			slog.Error("Failed to connect to Valkey", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Warn("VALKEY_URL not set, using in-memory cache")
		linkCache = cache.NewMemoryCache()
	}
	defer linkCache.Close()

	// Repositories
	trackRepo := repositories.NewCachedTrackRepository(repositories.NewMongoTrackRepository(db), linkCache)
	smartLinkRepo := repositories.NewMongoSmartLinkRepository(db)

	// Platform services
	spotifyService := services.NewSpotifyService(cfg.SpotifyClientID, cfg.SpotifyClientSecret)
	songlinkService := services.NewSonglinkService(cfg.SonglinkAPIKey, cfg.SonglinkRatePerMinute)

	resolutionService := services.NewResolutionService(trackRepo, spotifyService, songlinkService)
	if cfg.AppleMusicEnabled() {
		appleMusicService, err := services.NewAppleMusicService(cfg.AppleMusicKeyID, cfg.AppleMusicTeamID, cfg.AppleMusicKeyFile)
		if err != nil {
			slog.Error("Failed to initialize Apple Music service", "error", err)
			os.Exit(1)
		}
		resolutionService.SetAppleMusicLookup(appleMusicService)
		slog.Info("Apple Music supplementary lookup enabled")
	}

	// Verification engine
	prober := verify.NewProber(time.Duration(cfg.VerifyTimeoutSeconds) * time.Second)
	verifier := verify.NewVerifier(trackRepo, resolutionService, prober, cfg.VerifyBatchSize, cfg.VerifyConcurrency)
	verifier.Start()
	defer verifier.Stop()

	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.VerifySchedule, func() {
		runCtx, cancel := context.WithTimeout(context.Background(), time.Hour)
		defer cancel()
		if _, err := verifier.RunBatch(runCtx); err != nil {
			slog.Error("Scheduled verification batch failed", "error", err)
		}
	})
	if err != nil {
		slog.Error("Invalid verification schedule", "schedule", cfg.VerifySchedule, "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("Verification sweep scheduled", "schedule", cfg.VerifySchedule)

	// HTTP surface
	resolveHandler := handlers.NewResolveHandler(resolutionService)
	smartLinkHandler := handlers.NewSmartLinkHandler(smartLinkRepo, trackRepo)
	reportHandler := handlers.NewReportHandler(verifier)
	healthHandler := handlers.NewHealthHandler(resolutionService, db, linkCache)

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/health", healthHandler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/links/:slug", smartLinkHandler.Get)

	api := router.Group("/api/v1")
	{
		api.POST("/resolve", resolveHandler.Resolve)
		api.POST("/report", reportHandler.Report)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	go func() {
		slog.Info("Server starting", "port", cfg.Port, "baseURL", cfg.BaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Block until shutdown signal, then drain in-flight requests
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Forced shutdown", "error", err)
	}
}
