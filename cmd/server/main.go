package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"jobscout/internal/analysis"
	"jobscout/internal/api/routes"
	"jobscout/internal/cache"
	"jobscout/internal/config"
	"jobscout/internal/logging"
	"jobscout/internal/scraper"
	"jobscout/internal/scraper/workers"
	"jobscout/internal/search"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logging.InitializeLogging(cfg); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	logger := logging.GetGlobalLogger()
	logger.Info("Starting jobscout", map[string]interface{}{
		"cache_backend": cfg.Cache.Backend,
		"headless":      cfg.Scraper.HeadlessMode,
		"enrichment":    cfg.Enrichment.Enabled,
	})

	store, err := newStore(cfg)
	if err != nil {
		logger.Fatal("Failed to create cache store", map[string]interface{}{"error": err.Error()})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	evictor := cache.NewEvictor(store, cfg.Cache.EvictionSchedule)
	if err := evictor.Start(ctx); err != nil {
		logger.Fatal("Failed to start cache eviction", map[string]interface{}{"error": err.Error()})
	}

	limiter := workers.NewHostLimiter(cfg.Enrichment.RequestsPerSecond, cfg.Enrichment.Burst)
	enricher := workers.NewEnricher(workers.OptionsFromConfig(cfg), limiter)
	analyzer := analysis.New(cfg.Analysis.InternshipThreshold)

	svc := search.NewService(store, scraper.NewSessionFactory(cfg), enricher, analyzer, search.OptionsFromConfig(cfg))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	routes.SetupRoutes(e, cfg, svc)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		logger.Info("Server starting", map[string]interface{}{"address": address})
		if err := e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed to start", map[string]interface{}{"error": err.Error()})
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down server", map[string]interface{}{"error": err.Error()})
	}

	evictor.Stop()

	if err := store.Close(); err != nil {
		logger.Error("Error closing cache store", map[string]interface{}{"error": err.Error()})
	}

	logger.Info("Server shutdown complete", map[string]interface{}{"stats": svc.Stats(shutdownCtx)})
	if err := logging.CloseLogging(); err != nil {
		log.Printf("Error closing logging: %v", err)
	}
}

func newStore(cfg *config.Config) (cache.Store, error) {
	ttls := cache.TTLs{Fresh: cfg.Cache.FreshTTL, Stale: cfg.Cache.StaleTTL}

	switch cfg.Cache.Backend {
	case "redis":
		client := cache.NewRedisClient(cfg)
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Redis.Timeout)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping failed: %w", err)
		}
		store, err := cache.NewRedisStore(client, cfg.Cache.KeyPrefix, ttls)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		return store, nil
	default:
		store, err := cache.NewMemoryStore(ttls)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}
