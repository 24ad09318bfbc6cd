// Package llm provides summarization gateways over large language
// models. All providers share one prompt and one response format so
// they are interchangeable behind repositories.Summarizer.
package llm

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/khairulh/notulen/domain/entities"
)

const summarySystemPrompt = `You are a meeting assistant. You will be given the raw transcript of a recorded session. Produce a JSON object with exactly these keys:
- "overview": a short paragraph summarizing the session
- "key_points": an array of the main discussion points
- "action_items": an array of concrete follow-ups, each naming an owner when one was mentioned
- "decisions": an array of decisions that were made

Respond with the JSON object only, no surrounding prose. If the transcript is empty or contains no usable speech, return an overview saying so and empty arrays.`

type summaryPayload struct {
	Overview    string   `json:"overview"`
	KeyPoints   []string `json:"key_points"`
	ActionItems []string `json:"action_items"`
	Decisions   []string `json:"decisions"`
}

// ParseSummaryText decodes a model response into a summary. Models
// wrap JSON in markdown fences often enough that the fences are
// stripped first. A response that still fails to decode is degraded
// into an overview-only summary rather than discarded: a lossy summary
// beats a failed finalization.
func ParseSummaryText(raw string) entities.Summary {
	text := strings.TrimSpace(raw)
	text = stripFences(text)

	var payload summaryPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil || payload.Overview == "" {
		return entities.Summary{
			Overview:  strings.TrimSpace(raw),
			CreatedAt: time.Now().UTC(),
		}
	}

	return entities.Summary{
		Overview:    payload.Overview,
		KeyPoints:   payload.KeyPoints,
		ActionItems: payload.ActionItems,
		Decisions:   payload.Decisions,
		CreatedAt:   time.Now().UTC(),
	}
}

func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
