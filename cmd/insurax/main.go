// InsuraX - Composite fraud-risk decisions for insurance claims.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SoganiJ/insurax/internal/api"
	"github.com/SoganiJ/insurax/internal/bus"
	"github.com/SoganiJ/insurax/internal/cache"
	"github.com/SoganiJ/insurax/internal/classifier"
	"github.com/SoganiJ/insurax/internal/domain"
	"github.com/SoganiJ/insurax/internal/history"
	"github.com/SoganiJ/insurax/internal/pipeline"
	"github.com/SoganiJ/insurax/internal/repository"
	"github.com/SoganiJ/insurax/internal/ringwatch"
	"github.com/SoganiJ/insurax/internal/rules"
	"github.com/SoganiJ/insurax/internal/scoring"
	"github.com/SoganiJ/insurax/internal/vision"
	"github.com/SoganiJ/insurax/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// Initialize structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("INSURAX_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Log startup
	slog.Info("starting insurax",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	// Load configuration
	cfg := domain.DefaultConfig()

	// Check for Pro tier via environment
	if os.Getenv("INSURAX_TIER") == "pro" {
		cfg = domain.ProConfig()
		slog.Info("running in Pro tier mode")
	}

	applyEnvOverrides(cfg)

	slog.Info("configuration loaded",
		"tier", cfg.Tier,
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize Repository
	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// Initialize claim history service
	historySvc := history.NewService(repo, cacheImpl)
	slog.Info("history service initialized")

	// Initialize Rule Engine with history getter
	engine, err := rules.NewEngine(historySvc.GetHistoryGetter(), 100)
	if err != nil {
		slog.Error("failed to initialize rule engine", "error", err)
		os.Exit(1)
	}

	// Load rules from database (no hardcoded defaults - configure via API)
	if err := loadRulesFromDatabase(ctx, repo, engine); err != nil {
		slog.Error("failed to load rules", "error", err)
		os.Exit(1)
	}
	slog.Info("rule engine initialized", "rules_count", engine.RulesCount())

	// Initialize evidence service clients
	svcTimeout := time.Duration(cfg.Services.RequestTimeout) * time.Second
	predictor := classifier.NewClient(cfg.Services.ClassifierURL, svcTimeout)
	visionClient := vision.NewClient(cfg.Services.OCRURL, cfg.Services.CNNURL, svcTimeout)
	ringClient := ringwatch.NewClient(cfg.Services.FraudRingURL, svcTimeout)
	slog.Info("evidence clients initialized",
		"classifier", cfg.Services.ClassifierURL,
		"ocr", cfg.Services.OCRURL,
		"cnn", cfg.Services.CNNURL,
		"fraud_ring", cfg.Services.FraudRingURL,
	)

	// Initialize network snapshot coordinator
	coordinator := ringwatch.NewCoordinator(repo, cacheImpl, busImpl, ringClient, cfg.Ring, logger)
	slog.Info("network coordinator initialized",
		"snapshot_ttl", cfg.Ring.SnapshotTTL,
		"max_attempts", cfg.Ring.MaxAttempts,
	)

	// Initialize the evaluation pipeline
	aggregator := scoring.NewAggregator(scoring.DefaultWeights())
	pipe := pipeline.New(predictor, visionClient, coordinator, engine, aggregator, repo, busImpl, logger)
	slog.Info("evaluation pipeline initialized", "engine_version", pipeline.EngineVersion)

	// Initialize async Worker (Pro tier)
	var asyncWorker *worker.Worker
	if cfg.Tier == domain.TierPro || os.Getenv("INSURAX_ASYNC_WORKER") == "true" {
		asyncWorker = worker.NewWorker(busImpl, repo, pipe)
		if err := asyncWorker.Start(); err != nil {
			slog.Error("failed to start async worker", "error", err)
		} else {
			slog.Info("async worker started")
		}
	}

	// Initialize Server
	srv := api.NewServer(cfg.Server, repo, cacheImpl, busImpl, engine, coordinator, pipe, Version)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("insurax is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	// Stop async worker first
	if asyncWorker != nil {
		if err := asyncWorker.Stop(); err != nil {
			slog.Error("failed to stop async worker", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("insurax shutdown complete")
}

// applyEnvOverrides lets deployments point at external services
// without a config file.
func applyEnvOverrides(cfg *domain.Config) {
	if v := os.Getenv("INSURAX_CLASSIFIER_URL"); v != "" {
		cfg.Services.ClassifierURL = v
	}
	if v := os.Getenv("INSURAX_OCR_URL"); v != "" {
		cfg.Services.OCRURL = v
	}
	if v := os.Getenv("INSURAX_CNN_URL"); v != "" {
		cfg.Services.CNNURL = v
	}
	if v := os.Getenv("INSURAX_FRAUD_RING_URL"); v != "" {
		cfg.Services.FraudRingURL = v
	}
	if v := os.Getenv("INSURAX_SQLITE_PATH"); v != "" {
		cfg.Repository.SQLitePath = v
	}
	if v := os.Getenv("INSURAX_POSTGRES_HOST"); v != "" {
		cfg.Repository.PostgresHost = v
	}
	if v := os.Getenv("INSURAX_REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("INSURAX_NATS_URL"); v != "" {
		cfg.EventBus.NATSUrl = v
	}
}

// loadRulesFromDatabase loads rules from the database into the engine.
// All rules must be configured via POST /rules API - no hardcoded defaults.
func loadRulesFromDatabase(ctx context.Context, repo domain.Repository, engine *rules.Engine) error {
	dbRules, err := repo.ListRuleConfigs(ctx)
	if err != nil {
		slog.Warn("failed to list rules from database", "error", err)
		return nil // Start with empty rules - they can be added via API
	}

	if len(dbRules) > 0 {
		slog.Info("loading rules from database", "count", len(dbRules))
		return engine.LoadRules(dbRules)
	}

	slog.Info("no rules in database - configure via POST /rules API")
	return nil
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  ==============================================")
	fmt.Println("  ||               INSURAX                    ||")
	fmt.Println("  ||     Claim Fraud Decision Engine          ||")
	fmt.Println("  ||     Every claim, every angle.            ||")
	fmt.Println("  ==============================================")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Tier:     %s\n", cfg.Tier)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /claims/evaluate      - Evaluate a claim")
	fmt.Println("    GET  /claims/{id}          - Get claim by ID")
	fmt.Println("    GET  /evaluations/{id}     - Get evaluation by ID")
	fmt.Println("    GET  /network/snapshot     - Current network analysis")
	fmt.Println("    POST /network/refresh      - Force a fresh analysis")
	fmt.Println("    POST /network/invalidate   - Drop the cached analysis")
	fmt.Println("    GET  /rules                - List all rules")
	fmt.Println("    POST /rules                - Create a new rule")
	fmt.Println("    POST /rules/reload         - Hot-reload rules from database")
	fmt.Println("    GET  /health               - Health check")
	fmt.Println()
}
