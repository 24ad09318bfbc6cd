package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %s, want 8080", cfg.Port)
	}
	if cfg.StorageBackend != "mongo" {
		t.Errorf("StorageBackend = %s, want mongo", cfg.StorageBackend)
	}
	if cfg.SummaryProvider != "gemini" {
		t.Errorf("SummaryProvider = %s, want gemini", cfg.SummaryProvider)
	}
	if cfg.ChunkConcurrency != 4 {
		t.Errorf("ChunkConcurrency = %d, want 4", cfg.ChunkConcurrency)
	}
	if cfg.WorkerIdleTTL != 5*time.Minute {
		t.Errorf("WorkerIdleTTL = %s, want 5m", cfg.WorkerIdleTTL)
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Error("Load() should fail without JWT_SECRET")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("STT_PROVIDER", "mock")
	t.Setenv("SUMMARY_PROVIDER", "openai")
	t.Setenv("CHUNK_CONCURRENCY", "8")
	t.Setenv("WORKER_IDLE_TTL", "90s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "9090" || cfg.StorageBackend != "memory" ||
		cfg.STTProvider != "mock" || cfg.SummaryProvider != "openai" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.ChunkConcurrency != 8 || cfg.WorkerIdleTTL != 90*time.Second {
		t.Errorf("numeric overrides not applied: %+v", cfg)
	}
}

func TestLoadRejectsUnknownProviders(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"storage", "STORAGE_BACKEND", "postgres"},
		{"stt", "STT_PROVIDER", "whisper"},
		{"summary", "SUMMARY_PROVIDER", "claude"},
		{"concurrency", "CHUNK_CONCURRENCY", "lots"},
		{"idle ttl", "WORKER_IDLE_TTL", "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "test-secret")
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load() should reject %s=%s", tt.key, tt.value)
			}
		})
	}
}
