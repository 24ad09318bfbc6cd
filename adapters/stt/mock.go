package stt

import (
	"context"

	"go.uber.org/zap"

	"github.com/khairulh/notulen/domain/repositories"
)

// MockTranscriber is a placeholder implementation for local development
// without Google Cloud credentials.
type MockTranscriber struct {
	logger *zap.Logger
}

// NewMockTranscriber creates a new mock speech-to-text gateway
func NewMockTranscriber(logger *zap.Logger) repositories.Transcriber {
	return &MockTranscriber{logger: logger}
}

// Transcribe returns canned text sized to the audio payload
func (m *MockTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	m.logger.Info("Processing mock transcription",
		zap.Int("audioSize", len(audio)),
		zap.String("mimeType", mimeType))

	switch {
	case len(audio) == 0:
		return "", nil
	case len(audio) > 10000:
		return "We reviewed the quarterly roadmap and agreed to ship the beta on Friday.", nil
	case len(audio) > 5000:
		return "Action item for the platform team: migrate the staging cluster.", nil
	case len(audio) > 1000:
		return "Let's get started with the agenda.", nil
	default:
		return "Hello everyone.", nil
	}
}
