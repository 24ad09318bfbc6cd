// Package config centralizes environment-driven configuration for the
// server. Values come from the process environment, optionally seeded
// from a .env file in development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the complete server configuration
type Config struct {
	Port string

	// StorageBackend selects the session store: "mongo" or "memory".
	StorageBackend string
	MongoURI       string
	MongoDatabase  string

	JWTSecret string

	// STTProvider selects the transcription gateway: "google" or "mock".
	STTProvider string
	// STTLanguage is the BCP-47 recognition language code.
	STTLanguage string

	// SummaryProvider selects the summarization gateway: "gemini",
	// "openai", or "mock".
	SummaryProvider string

	// ChunkConcurrency bounds in-flight transcriptions per session.
	ChunkConcurrency int
	// WorkerIdleTTL is the quiet period before a session worker is
	// garbage-collected.
	WorkerIdleTTL time.Duration
}

// Load reads configuration from the environment, applying development
// defaults for anything unset.
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		StorageBackend:  getEnv("STORAGE_BACKEND", "mongo"),
		MongoURI:        getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:   getEnv("MONGODB_DATABASE", "notulen"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		STTProvider:     getEnv("STT_PROVIDER", "google"),
		STTLanguage:     getEnv("STT_LANGUAGE", "en-US"),
		SummaryProvider: getEnv("SUMMARY_PROVIDER", "gemini"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	switch cfg.StorageBackend {
	case "mongo", "memory":
	default:
		return nil, fmt.Errorf("unsupported STORAGE_BACKEND: %s", cfg.StorageBackend)
	}

	switch cfg.STTProvider {
	case "google", "mock":
	default:
		return nil, fmt.Errorf("unsupported STT_PROVIDER: %s", cfg.STTProvider)
	}

	switch cfg.SummaryProvider {
	case "gemini", "openai", "mock":
	default:
		return nil, fmt.Errorf("unsupported SUMMARY_PROVIDER: %s", cfg.SummaryProvider)
	}

	concurrency, err := getEnvInt("CHUNK_CONCURRENCY", 4)
	if err != nil {
		return nil, err
	}
	cfg.ChunkConcurrency = concurrency

	idleTTL, err := getEnvDuration("WORKER_IDLE_TTL", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.WorkerIdleTTL = idleTTL

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
