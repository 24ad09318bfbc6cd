package llm

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/khairulh/notulen/domain/entities"
	"github.com/khairulh/notulen/domain/repositories"
)

// GeminiSummarizer implements repositories.Summarizer using Google's
// Gemini API
type GeminiSummarizer struct {
	client *genai.Client
	logger *zap.Logger
	model  string
}

// NewGeminiSummarizer creates a new Gemini summarizer instance
func NewGeminiSummarizer(logger *zap.Logger) (*GeminiSummarizer, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiSummarizer{
		client: client,
		logger: logger,
		model:  "gemini-2.0-flash",
	}, nil
}

// Summarize implements repositories.Summarizer
func (g *GeminiSummarizer) Summarize(ctx context.Context, transcript string) (entities.Summary, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(summarySystemPrompt+"\n\nTranscript:\n"+transcript, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return entities.Summary{}, fmt.Errorf("failed to generate summary: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return entities.Summary{}, fmt.Errorf("empty response from Gemini")
	}

	g.logger.Debug("Generated summary",
		zap.String("model", g.model),
		zap.Int("transcriptLength", len(transcript)))

	return ParseSummaryText(text), nil
}

var _ repositories.Summarizer = (*GeminiSummarizer)(nil)
