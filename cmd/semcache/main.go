// Package main is the entry point for the semcache semantic caching
// gateway.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blueberrycongee/semcache/internal/cacheengine"
	"github.com/blueberrycongee/semcache/internal/cacheengine/vectorindex"
	"github.com/blueberrycongee/semcache/internal/config"
	"github.com/blueberrycongee/semcache/internal/embedding"
	"github.com/blueberrycongee/semcache/internal/httpapi"
	"github.com/blueberrycongee/semcache/internal/metrics"
	"github.com/blueberrycongee/semcache/internal/provider"
	"github.com/blueberrycongee/semcache/internal/upstream"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting semcache", "version", "0.1.0")

	cfgManager, err := config.NewManager(*configPath, logger)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	defer func() { _ = cfgManager.Close() }()

	cfg := cfgManager.Get()
	logger = logger.With("component", "semcache")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if watchErr := cfgManager.Watch(ctx); watchErr != nil {
		logger.Warn("config hot-reload disabled", "error", watchErr)
	}
	cfgManager.OnChange(func(c *config.Config) {
		logger.Info("configuration changed", "checksum", cfgManager.Status().Checksum)
	})

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("failed to build embedder: %w", err)
	}

	policy, err := buildEvictionPolicy(cfg)
	if err != nil {
		return fmt.Errorf("failed to build eviction policy: %w", err)
	}

	collector := metrics.NewCollector()

	proxyIndex := vectorindex.NewFlatIndex(embedder.Dimension(), logger)
	proxyCache := cacheengine.New[[]byte](
		embedder.Dimension(),
		cfg.Engine.SimilarityThreshold,
		policy,
		proxyIndex,
		cacheengine.WithLogger[[]byte](logger),
		cacheengine.WithMetrics[[]byte](collector),
	)

	cacheAsideIndex := vectorindex.NewFlatIndex(embedder.Dimension(), logger)
	cacheAsideCache := cacheengine.New[string](
		embedder.Dimension(),
		cfg.Engine.SimilarityThreshold,
		policy,
		cacheAsideIndex,
		cacheengine.WithLogger[string](logger),
	)

	providerType := provider.ParseType(cfg.Provider.Type)
	overrides := provider.Defaults{
		UpstreamURL: cfg.Provider.UpstreamURL,
		HostHeader:  cfg.Provider.HostHeader,
		PromptPath:  cfg.Provider.PromptPath,
	}

	client := upstream.NewHTTPClient(upstream.WithTimeout(cfg.Embedder.Timeout))

	proxyHandler := httpapi.NewProxyHandler(proxyCache, embedder, client, providerType, overrides, logger)
	cacheAsideHandler := httpapi.NewCacheAsideHandler(cacheAsideCache, embedder, logger, false)

	var adminHandler *httpapi.AdminHandler
	if cfg.Admin.Enabled {
		adminHandler = httpapi.NewAdminHandler(proxyCache, cfg.Admin.HistoryCapacity)
		go sampleAdminHistory(ctx, adminHandler, 10*time.Second)
	}

	mux := httpapi.NewMux(proxyHandler, cacheAsideHandler, adminHandler)

	handler := httpapi.Chain(mux,
		httpapi.RequestIDMiddleware,
		httpapi.LoggingMiddleware(logger),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go pollCgroupMemory(ctx, 15*time.Second)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("shutting down server...")
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
	return nil
}

// buildEmbedder selects the Embedder implementation named by
// cfg.Embedder.Kind. "hash" is a deterministic, dependency-free
// embedder intended for local development and tests; anything else
// uses the OpenAI-compatible HTTP embedder.
func buildEmbedder(cfg *config.Config) (embedding.Embedder, error) {
	if cfg.Embedder.Kind == "hash" {
		return embedding.NewHashEmbedder(cfg.Embedder.Dimension), nil
	}
	return embedding.NewOpenAIEmbedder(embedding.OpenAIConfig{
		APIKey:    cfg.Embedder.APIKey,
		APIBase:   cfg.Embedder.APIBase,
		Model:     cfg.Embedder.Model,
		Dimension: cfg.Embedder.Dimension,
		Timeout:   cfg.Embedder.Timeout,
	})
}

// buildEvictionPolicy converts the config's eviction_policy sum type
// into a cacheengine.EvictionPolicy. config.Validate already guarantees
// the limit for the chosen kind is non-zero.
func buildEvictionPolicy(cfg *config.Config) (cacheengine.EvictionPolicy, error) {
	switch cfg.Engine.EvictionPolicy {
	case "entry_limit":
		return cacheengine.NewEntryLimit(cfg.Engine.EntryLimit), nil
	case "byte_limit":
		return cacheengine.NewByteLimit(cfg.Engine.ByteLimit), nil
	default:
		return cacheengine.EvictionPolicy{}, fmt.Errorf("unknown eviction policy %q", cfg.Engine.EvictionPolicy)
	}
}

// sampleAdminHistory periodically records a dashboard history point
// until ctx is canceled.
func sampleAdminHistory(ctx context.Context, admin *httpapi.AdminHandler, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			admin.Sample(now)
		}
	}
}

// pollCgroupMemory periodically refreshes the process memory gauge from
// cgroup v2 accounting, best-effort, until ctx is canceled.
func pollCgroupMemory(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if kb, ok := metrics.ReadCgroupMemoryKB(); ok {
				metrics.ObserveMemoryUsageKB(kb)
			}
		}
	}
}
