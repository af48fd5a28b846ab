package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/courtside/internal/api/rest"
	"github.com/fortuna/courtside/internal/api/websocket"
	"github.com/fortuna/courtside/internal/cache"
	"github.com/fortuna/courtside/internal/ingest/bdl"
	"github.com/fortuna/courtside/internal/ingest/newswire"
	"github.com/fortuna/courtside/internal/ingest/oddsapi"
	"github.com/fortuna/courtside/internal/logging"
	"github.com/fortuna/courtside/internal/metrics"
	"github.com/fortuna/courtside/internal/narrative"
	"github.com/fortuna/courtside/internal/reconcile"
	"github.com/fortuna/courtside/internal/report"
	"github.com/fortuna/courtside/internal/resolve"
	"github.com/fortuna/courtside/internal/rotation"
	"github.com/fortuna/courtside/internal/stats"
)

const (
	serviceName    = "courtside"
	serviceVersion = "1.0.0"
)

func main() {
	// .env is optional; real deployments pass environment directly
	_ = godotenv.Load()

	config := loadConfig()
	logger := logging.New(config.LogLevel, config.Environment == "development")

	logger.Infof("Starting %s v%s - Player Matchup Report Engine", serviceName, serviceVersion)

	if config.BDLAPIKey == "" {
		logger.Fatal("BDL_API_KEY is required")
	}

	statsClient := bdl.NewClient(config.BDLBaseURL, config.BDLAPIKey, logger)
	oddsClient := oddsapi.NewClient(config.OddsBaseURL, config.OddsAPIKey, logger)

	// The franchise pool is small and stable; fetch it once at startup and
	// build the resolution index from it.
	teams, err := fetchTeams(statsClient, logger)
	if err != nil {
		logger.Fatalf("Failed to load team pool: %v", err)
	}
	teamIndex := resolve.NewTeamIndex(teams)
	logger.Infof("✓ Loaded %d teams from stats provider", len(teams))

	// Redis is optional: without it every report is rebuilt from providers.
	var reportCache *cache.RedisCache
	maxRetries := 5
	retryDelay := 2 * time.Second
	for i := 0; i < maxRetries; i++ {
		reportCache, err = cache.NewRedisCache(config.RedisURL)
		if err == nil {
			break
		}
		if i < maxRetries-1 {
			logger.Warnf("Redis connection attempt %d/%d failed: %v (retrying in %v)", i+1, maxRetries, err, retryDelay)
			time.Sleep(retryDelay)
		}
	}
	if err != nil {
		logger.Warnf("Redis unavailable after %d attempts, report caching disabled: %v", maxRetries, err)
		reportCache = nil
	} else {
		defer reportCache.Close()
		logger.Info("✓ Connected to Redis")
	}

	var wire report.Newswire
	if config.EnableNewswire {
		nw, err := newswire.NewClient(logger)
		if err != nil {
			logger.Warnf("Newswire unavailable, headlines disabled: %v", err)
		} else {
			defer nw.Close()
			wire = nw
			logger.Info("✓ Newswire scraper ready")
		}
	}

	var generator report.Generator
	if config.AnthropicAPIKey != "" {
		generator = narrative.NewClient(config.AnthropicBaseURL, config.AnthropicAPIKey, logger)
		logger.Info("✓ Narrative generator ready")
	} else {
		logger.Warn("ANTHROPIC_API_KEY not set, narrative generation disabled")
	}

	resolver := resolve.NewResolver(statsClient, teamIndex, logger)
	reconciler := reconcile.NewReconciler(statsClient, oddsClient, teamIndex, logger)
	aggregator := stats.NewAggregator(statsClient, logger)
	engine := metrics.NewEngine(statsClient, logger)
	analyzer := rotation.NewAnalyzer(statsClient, logger)

	pipeline := report.NewPipeline(
		statsClient, resolver, reconciler, aggregator, engine, analyzer,
		wire, generator, reportCache, logger,
	)

	restServer := rest.NewServer(config.RESTPort, pipeline, resolver, reconciler, teamIndex, logger)
	go func() {
		if err := restServer.Start(); err != nil {
			logger.Errorf("REST server error: %v", err)
		}
	}()
	logger.Infof("✓ REST API server listening on :%s", config.RESTPort)

	wsServer := websocket.NewServer(pipeline, logger)
	go func() {
		if err := wsServer.Start(config.WSPort); err != nil {
			logger.Errorf("WebSocket server error: %v", err)
		}
	}()
	logger.Infof("✓ WebSocket server listening on :%s", config.WSPort)
	logger.Infof("✓ %s v%s started successfully", serviceName, serviceVersion)
	logger.Infof("  REST API: http://0.0.0.0:%s", config.RESTPort)
	logger.Infof("  WebSocket: ws://0.0.0.0:%s", config.WSPort)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := restServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("REST API server shutdown error: %v", err)
	}
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("WebSocket server shutdown error: %v", err)
	}

	logger.Infof("%s stopped", serviceName)
}

// fetchTeams retries the startup team fetch a few times; the stats provider
// rate-limits aggressively on cold keys.
func fetchTeams(client *bdl.Client, logger *logrus.Logger) ([]bdl.Team, error) {
	var teams []bdl.Team
	var err error
	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		teams, err = client.Teams(ctx)
		cancel()
		if err == nil {
			return teams, nil
		}
		logger.Warnf("Team fetch attempt %d/3 failed: %v", i+1, err)
		time.Sleep(2 * time.Second)
	}
	return nil, err
}

type Config struct {
	BDLBaseURL       string
	BDLAPIKey        string
	OddsBaseURL      string
	OddsAPIKey       string
	AnthropicBaseURL string
	AnthropicAPIKey  string
	RedisURL         string
	RESTPort         string
	WSPort           string
	LogLevel         string
	Environment      string
	EnableNewswire   bool
}

func loadConfig() Config {
	return Config{
		BDLBaseURL:       getEnv("BDL_API_BASE", "https://api.balldontlie.io/v1"),
		BDLAPIKey:        getEnv("BDL_API_KEY", ""),
		OddsBaseURL:      getEnv("ODDS_API_BASE", "https://api.the-odds-api.com/v4"),
		OddsAPIKey:       getEnv("ODDS_API_KEY", ""),
		AnthropicBaseURL: getEnv("ANTHROPIC_API_BASE", ""),
		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379"),
		RESTPort:         getEnv("REST_PORT", "8080"),
		WSPort:           getEnv("WS_PORT", "8081"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		Environment:      getEnv("ENVIRONMENT", "development"),
		EnableNewswire:   getEnv("ENABLE_NEWSWIRE", "false") == "true",
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
