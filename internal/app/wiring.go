// Package app assembles the shared dependencies of the roomfinder binaries.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/roomfinder/internal/config"
	"github.com/kailas-cloud/roomfinder/internal/db"
	dbMemory "github.com/kailas-cloud/roomfinder/internal/db/memory"
	dbValkey "github.com/kailas-cloud/roomfinder/internal/db/valkey"
	"github.com/kailas-cloud/roomfinder/internal/domain"
	"github.com/kailas-cloud/roomfinder/internal/metrics"
	"github.com/kailas-cloud/roomfinder/internal/repository/embcache"
	imagerepo "github.com/kailas-cloud/roomfinder/internal/repository/image"
	openaiEmb "github.com/kailas-cloud/roomfinder/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/roomfinder/internal/usecase/embedding"
)

const embeddingProvider = "openai"

// OpenStore connects to the configured vector store and waits until it answers.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig) (db.Store, error) {
	var (
		store db.Store
		err   error
	)
	switch cfg.Driver {
	case "valkey", "redis":
		store, err = dbValkey.NewStore(dbValkey.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
			Flavor:   dbValkey.Flavor(cfg.Driver),
		})
	case "memory":
		store = dbMemory.NewStore()
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Driver, err)
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	return store, nil
}

// ImageRepo builds the image repository over store.
func ImageRepo(store db.Store, cfg *config.Config) *imagerepo.Repo {
	return imagerepo.New(store, imagerepo.Options{
		KeyPrefix:       cfg.Database.KeyPrefix,
		Collection:      cfg.Database.Collection,
		Dimensions:      cfg.Embedding.Dimensions,
		HNSWM:           cfg.Database.HNSWM,
		HNSWEFConstruct: cfg.Database.HNSWEFConstruct,
	})
}

// Embedders is the assembled embedding chain.
type Embedders struct {
	// Provider talks to the API directly; it backs the health probe.
	Provider *openaiEmb.Embedder
	// Chain is Provider behind the rate-limited instrumentation and the cache.
	Chain domain.Embedder
}

// BuildEmbedders assembles the decorator chain: OpenAI -> Instrumented -> Cached.
// Cache hits never wait on the rate limiter. Metrics must be registered beforehand.
func BuildEmbedders(cfg *config.Config, store db.KVStore, logger *zap.Logger) Embedders {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   embeddingProvider,
		Logger:     logger,
	})

	limiter := embeddinguc.NewLimiter(cfg.Embedding.RequestsPerSecond, cfg.Embedding.Burst)
	var embedder domain.Embedder = embeddinguc.NewInstrumentedEmbedder(
		base, embeddingProvider, cfg.Embedding.Model, limiter, logger,
	)

	if cfg.Embedding.Cache && store != nil {
		embedder = embcache.New(embedder, store, embcache.Options{
			KeyPrefix: cfg.Database.KeyPrefix,
			Model:     cfg.Embedding.Model,
			TTL:       time.Duration(cfg.Embedding.CacheTTLHours) * time.Hour,
		}, metrics.EmbeddingCacheTotal, logger)
	}

	return Embedders{Provider: base, Chain: embedder}
}
