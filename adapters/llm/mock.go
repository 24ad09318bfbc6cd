package llm

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/khairulh/notulen/domain/entities"
	"github.com/khairulh/notulen/domain/repositories"
)

// MockSummarizer is a placeholder implementation for local development
// without model credentials.
type MockSummarizer struct {
	logger *zap.Logger
}

// NewMockSummarizer creates a new mock summarizer
func NewMockSummarizer(logger *zap.Logger) repositories.Summarizer {
	return &MockSummarizer{logger: logger}
}

// Summarize builds a structural summary from the transcript itself
func (m *MockSummarizer) Summarize(ctx context.Context, transcript string) (entities.Summary, error) {
	m.logger.Info("Generating mock summary",
		zap.Int("transcriptLength", len(transcript)))

	if strings.TrimSpace(transcript) == "" {
		return entities.Summary{
			Overview:  "The session contained no usable speech.",
			CreatedAt: time.Now().UTC(),
		}, nil
	}

	words := strings.Fields(transcript)
	overview := transcript
	if len(words) > 25 {
		overview = strings.Join(words[:25], " ") + "..."
	}

	return entities.Summary{
		Overview:    overview,
		KeyPoints:   []string{"Transcript captured " + firstSentence(transcript)},
		ActionItems: []string{"Review the full transcript"},
		CreatedAt:   time.Now().UTC(),
	}, nil
}

func firstSentence(text string) string {
	if i := strings.IndexAny(text, ".!?"); i >= 0 {
		return text[:i+1]
	}
	return text
}
