package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/khairulh/notulen/adapters/llm"
	"github.com/khairulh/notulen/adapters/memstore"
	mongoadapter "github.com/khairulh/notulen/adapters/mongo"
	"github.com/khairulh/notulen/adapters/stt"
	"github.com/khairulh/notulen/domain/repositories"
	"github.com/khairulh/notulen/internal/api"
	"github.com/khairulh/notulen/internal/auth"
	"github.com/khairulh/notulen/internal/config"
	"github.com/khairulh/notulen/internal/metrics"
	"github.com/khairulh/notulen/internal/pipeline"
	"github.com/khairulh/notulen/internal/websocket"
)

func main() {
	// Load .env file if present (development convenience)
	_ = godotenv.Load()

	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx := context.Background()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	// Initialize storage
	var store repositories.SessionStore
	var mongoClient *mongoadapter.Client
	switch cfg.StorageBackend {
	case "mongo":
		mongoClient, err = mongoadapter.NewClient(logger)
		if err != nil {
			logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		mongoStore := mongoadapter.NewSessionStore(mongoClient.Database).(*mongoadapter.SessionStore)
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			logger.Fatal("Failed to create MongoDB indexes", zap.Error(err))
		}
		store = mongoStore
	case "memory":
		store = memstore.NewSessionStore()
		logger.Warn("Using in-memory session store, data will not survive restarts")
	}

	// Initialize transcription gateway
	var transcriber repositories.Transcriber
	switch cfg.STTProvider {
	case "google":
		google, err := stt.NewGoogleTranscriber(ctx, cfg.STTLanguage, logger)
		if err != nil {
			logger.Fatal("Failed to create Google transcriber", zap.Error(err))
		}
		defer google.Close()
		transcriber = google
	case "mock":
		transcriber = stt.NewMockTranscriber(logger)
	}

	// Initialize summarization gateway
	var summarizer repositories.Summarizer
	switch cfg.SummaryProvider {
	case "gemini":
		summarizer, err = llm.NewGeminiSummarizer(logger)
		if err != nil {
			logger.Fatal("Failed to create Gemini summarizer", zap.Error(err))
		}
	case "openai":
		summarizer, err = llm.NewOpenAISummarizer(logger)
		if err != nil {
			logger.Fatal("Failed to create OpenAI summarizer", zap.Error(err))
		}
	case "mock":
		summarizer = llm.NewMockSummarizer(logger)
	}

	// Wire the session room hub and the event pipeline
	hub := websocket.NewHub(logger, m)
	p := pipeline.New(store, transcriber, summarizer, hub, logger, m, pipeline.Options{
		ChunkConcurrency: cfg.ChunkConcurrency,
		WorkerIdleTTL:    cfg.WorkerIdleTTL,
	})

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	api.InitRoutes(e, api.Deps{
		Hub:      hub,
		Handler:  p,
		Store:    store,
		Auth:     auth.NewService(cfg.JWTSecret),
		Registry: registry,
		Logger:   logger,
	})

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.String("port", cfg.Port),
		zap.String("storage", cfg.StorageBackend),
		zap.String("stt", cfg.STTProvider),
		zap.String("summary", cfg.SummaryProvider))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	if mongoClient != nil {
		if err := mongoClient.Close(shutdownCtx); err != nil {
			logger.Error("Failed to close MongoDB connection", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}
