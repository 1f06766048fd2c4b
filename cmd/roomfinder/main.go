package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/roomfinder/internal/app"
	"github.com/kailas-cloud/roomfinder/internal/config"
	"github.com/kailas-cloud/roomfinder/internal/domain/search/request"
	logpkg "github.com/kailas-cloud/roomfinder/internal/logger"
	"github.com/kailas-cloud/roomfinder/internal/metrics"
	"github.com/kailas-cloud/roomfinder/internal/transport/llm"
	chiTransport "github.com/kailas-cloud/roomfinder/internal/transport/chi"
	"github.com/kailas-cloud/roomfinder/internal/usecase/corpus"
	"github.com/kailas-cloud/roomfinder/internal/usecase/detection"
	healthuc "github.com/kailas-cloud/roomfinder/internal/usecase/health"
	searchuc "github.com/kailas-cloud/roomfinder/internal/usecase/search"
	"github.com/kailas-cloud/roomfinder/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting roomfinder API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	ctx := context.Background()
	store, err := app.OpenStore(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer store.Close()
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()
	recorder := metrics.SearchRecorder{}

	embedders := app.BuildEmbedders(&cfg, store, logger)
	logger.Info("Embedder created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("cache", cfg.Embedding.Cache),
	)

	repo := app.ImageRepo(store, &cfg)
	created, err := repo.EnsureIndex(ctx)
	if err != nil {
		logger.Fatal("Failed to ensure search index", zap.Error(err))
	}
	logger.Info("Search index ready", zap.String("index", repo.IndexName()), zap.Bool("created", created))

	history := detection.NewHistory(cfg.Search.HistoryCapacity)
	history.SetEnabled(*cfg.Search.LearningEnabled)

	detectorOpts := []detection.Option{detection.WithRecorder(recorder)}
	if cfg.Classifier.Enabled {
		classifier, err := llm.New(llm.Config{
			BaseURL: cfg.Classifier.BaseURL,
			Token:   cfg.Classifier.Token,
			Model:   cfg.Classifier.Model,
			Timeout: time.Duration(cfg.Classifier.TimeoutMs) * time.Millisecond,
			Logger:  logger,
		})
		if err != nil {
			logger.Fatal("Failed to create room classifier", zap.Error(err))
		}
		detectorOpts = append(detectorOpts, detection.WithClassifier(classifier))
		logger.Info("AI room classifier enabled", zap.String("model", cfg.Classifier.Model))
	}
	detector := detection.New(embedders.Chain, history, detection.Config{
		SemanticThreshold: cfg.Search.SemanticThreshold,
		HistoryThreshold:  cfg.Search.HistoryThreshold,
		Concurrency:       cfg.Search.SemanticConcurrency,
		MinAIConfidence:   cfg.Classifier.MinConfidence,
	}, detectorOpts...)

	searchOpts := []searchuc.Option{searchuc.WithRecorder(recorder), searchuc.WithLearning(history)}
	if cfg.Classifier.AssistantEnabled() {
		chat, err := llm.NewChatModel(llm.Config{
			BaseURL: cfg.Classifier.BaseURL,
			Token:   cfg.Classifier.Token,
			Model:   cfg.Classifier.Model,
		})
		if err != nil {
			logger.Fatal("Failed to create query assistant", zap.Error(err))
		}
		assistant := llm.NewAssistant(chat, time.Duration(cfg.Classifier.TimeoutMs)*time.Millisecond, logger)
		if cfg.Classifier.EnhanceQueries {
			searchOpts = append(searchOpts, searchuc.WithEnhancer(assistant))
		}
		if cfg.Classifier.CompleteQueries {
			searchOpts = append(searchOpts, searchuc.WithCompleter(assistant))
		}
		logger.Info("AI query assistant enabled",
			zap.Bool("enhance_queries", cfg.Classifier.EnhanceQueries),
			zap.Bool("complete_queries", cfg.Classifier.CompleteQueries))
	}

	tags := corpus.New(repo, cfg.Search.CorpusTTL(), cfg.Search.CorpusScanLimit, metrics.TagCorpusRefreshTotal)

	searchSvc := searchuc.New(repo, tags, detector, embedders.Chain, searchuc.Config{
		OverfetchFactor: cfg.Search.OverfetchFactor,
		Timeout:         cfg.Search.Timeout(),
		FlatFallback:    *cfg.Search.FlatFallback,
	}, searchOpts...)

	healthSvc := healthuc.New(store,
		healthuc.WithEmbedding(embedders.Provider),
		healthuc.WithVocabulary(tags),
	)

	server := chiTransport.NewServer(searchSvc, healthSvc, request.Bounds{
		Default: cfg.Search.DefaultLimit,
		Max:     cfg.Search.MaxLimit,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      chiTransport.NewRouter(server, cfg.Auth.APIKeys, logger),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
