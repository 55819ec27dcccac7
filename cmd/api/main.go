package main

import (
	"context"
	"log"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/joho/godotenv"

	"github.com/tokengate/tokengate/internal/app"
	"github.com/tokengate/tokengate/internal/config"
	"github.com/tokengate/tokengate/internal/cost"
	"github.com/tokengate/tokengate/internal/gate"
	"github.com/tokengate/tokengate/internal/ledger"
	"github.com/tokengate/tokengate/internal/ratelimit"
	"github.com/tokengate/tokengate/internal/recorder"
	"github.com/tokengate/tokengate/internal/storage"
	"github.com/tokengate/tokengate/internal/tokenizer"
	"github.com/tokengate/tokengate/internal/transport/http/handler"
	"github.com/tokengate/tokengate/internal/transport/http/middleware/auth"
	"github.com/tokengate/tokengate/internal/upstream"
)

func main() {
	// .env is optional; real deployments use environment variables
	_ = godotenv.Load()

	cfg := config.Load()

	logger := setupLogger(cfg)

	if err := config.EnsureDataDir(); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}
	if err := config.EnsureConfigFile(); err != nil {
		log.Fatalf("Failed to create config file: %v", err)
	}

	if cfg.UpstreamAPIKey == "" {
		log.Fatal("UPSTREAM_API_KEY is required")
	}

	// Storage (SQLite) for allocations and admin credentials
	store, err := storage.NewSQLiteStorage(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()

	if err := ensureAdminPassword(store, cfg.AdminPassword); err != nil {
		log.Fatalf("Failed to configure admin password: %v", err)
	}

	// Append-only usage ledger, one file per user
	led, err := ledger.New(cfg.LedgerDir, logger)
	if err != nil {
		log.Fatalf("Failed to open usage ledger: %v", err)
	}

	// Tokenizer and cost estimator
	counter, err := tokenizer.New()
	if err != nil {
		log.Fatalf("Failed to load tokenizer: %v", err)
	}
	estimator := cost.New(counter)

	// Rate limiter: Redis when configured, in-process otherwise
	var limiterStore ratelimit.Store
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisStore, err := ratelimit.NewRedisStore(ctx, cfg.RedisURL)
		cancel()
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisStore.Close()
		limiterStore = redisStore
		logger.Info("rate limiter backed by redis")
	} else {
		memStore := ratelimit.NewMemStore()
		defer memStore.Close()
		limiterStore = memStore
	}
	limiter := ratelimit.New(limiterStore, int(cfg.RateLimit), cfg.RateWindow)

	// Admission gate and proxy pipeline
	admissionGate := gate.New(led, estimator, limiter, logger)
	upstreamClient := upstream.New(cfg.UpstreamBaseURL, cfg.UpstreamAPIKey, cfg.UpstreamTimeout, logger)
	usageRecorder := recorder.New(led, store, estimator, logger)

	// Validated key cache (5 minute TTL entries, prefix keyed)
	keyCache, err := ristretto.NewCache(&ristretto.Config[string, *auth.CachedAllocation]{
		NumCounters: 1e6,
		MaxCost:     10_000,
		BufferItems: 64,
	})
	if err != nil {
		log.Fatalf("Failed to create key cache: %v", err)
	}
	defer keyCache.Close()

	repo := handler.NewRepo(admissionGate, upstreamClient, usageRecorder, store, led, keyCache, logger)

	router := app.NewRouter(repo, &app.RouterOptions{
		Logger:   logger,
		Storage:  store,
		KeyCache: keyCache,
	})

	printStartupBanner(cfg)

	srv := app.NewServer(cfg, router)
	if err := srv.Start(); err != nil {
		log.Fatal(err)
	}
}
