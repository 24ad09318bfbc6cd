package llm

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/khairulh/notulen/domain/entities"
	"github.com/khairulh/notulen/domain/repositories"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAISummarizer implements repositories.Summarizer on the OpenAI
// chat completion API. It is the drop-in alternative to Gemini for
// deployments that already hold OpenAI credentials.
type OpenAISummarizer struct {
	client *openai.Client
	logger *zap.Logger
	model  string
}

// NewOpenAISummarizer creates a new OpenAI summarizer instance
func NewOpenAISummarizer(logger *zap.Logger) (*OpenAISummarizer, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required")
	}

	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = defaultOpenAIModel
	}

	return &OpenAISummarizer{
		client: openai.NewClientWithConfig(openai.DefaultConfig(apiKey)),
		logger: logger,
		model:  model,
	}, nil
}

// Summarize implements repositories.Summarizer
func (o *OpenAISummarizer) Summarize(ctx context.Context, transcript string) (entities.Summary, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: summarySystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: "Transcript:\n" + transcript},
		},
	})
	if err != nil {
		return entities.Summary{}, fmt.Errorf("failed to generate summary: %w", err)
	}
	if len(resp.Choices) == 0 {
		return entities.Summary{}, fmt.Errorf("empty response from OpenAI")
	}

	o.logger.Debug("Generated summary",
		zap.String("model", o.model),
		zap.Int("transcriptLength", len(transcript)))

	return ParseSummaryText(resp.Choices[0].Message.Content), nil
}

var _ repositories.Summarizer = (*OpenAISummarizer)(nil)
