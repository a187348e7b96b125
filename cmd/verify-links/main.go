package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"bandlink/internal/config"
	"bandlink/internal/models"
	"bandlink/internal/repositories"
	"bandlink/internal/services"
	"bandlink/internal/verify"
)

// One-shot verification sweep for cron-less deployments and manual repair
// runs. Same engine as the in-process scheduler, without the HTTP surface.
func main() {
	batchSize := flag.Int("batch", 0, "override VERIFY_BATCH_SIZE for this run")
	timeout := flag.Duration("timeout", time.Hour, "abort the sweep after this long")
	flag.Parse()

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
	if *batchSize > 0 {
		cfg.VerifyBatchSize = *batchSize
	}

	// Initialize database
	ctx := context.Background()
	db, err := models.NewDatabase(ctx, cfg.MongodbURL, cfg.MongodbDB)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close(ctx)

	trackRepo := repositories.NewMongoTrackRepository(db)

	// The expander is the only upstream the sweep talks to besides the
	// probed URLs themselves; identity resolution is not needed here.
	songlinkService := services.NewSonglinkService(cfg.SonglinkAPIKey, cfg.SonglinkRatePerMinute)
	spotifyService := services.NewSpotifyService(cfg.SpotifyClientID, cfg.SpotifyClientSecret)
	resolutionService := services.NewResolutionService(trackRepo, spotifyService, songlinkService)
	if cfg.AppleMusicEnabled() {
		appleMusicService, err := services.NewAppleMusicService(cfg.AppleMusicKeyID, cfg.AppleMusicTeamID, cfg.AppleMusicKeyFile)
		if err != nil {
			slog.Error("Failed to initialize Apple Music service", "error", err)
			os.Exit(1)
		}
		resolutionService.SetAppleMusicLookup(appleMusicService)
	}

	prober := verify.NewProber(time.Duration(cfg.VerifyTimeoutSeconds) * time.Second)
	verifier := verify.NewVerifier(trackRepo, resolutionService, prober, cfg.VerifyBatchSize, cfg.VerifyConcurrency)

	total, err := trackRepo.Count(ctx)
	if err != nil {
		slog.Error("Failed to count tracks", "error", err)
		os.Exit(1)
	}
	slog.Info("Starting verification sweep", "tracks", total, "batch", cfg.VerifyBatchSize)

	runCtx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	result, err := verifier.RunBatch(runCtx)
	if err != nil {
		slog.Error("Verification sweep failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Verification sweep completed\n")
	fmt.Printf("  healthy: %d\n", result.OK)
	fmt.Printf("  repaired: %d\n", result.Fixed)
	fmt.Printf("  decayed: %d\n", result.Dropped)
}
