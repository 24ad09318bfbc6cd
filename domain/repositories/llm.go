package repositories

import (
	"context"

	"github.com/khairulh/notulen/domain/entities"
)

// Summarizer abstracts the summarization capability. Implementations
// always produce some overview on success: when the underlying model
// response does not parse as the structured shape, the raw text becomes
// the overview and the three lists stay absent. A returned error means
// the call itself failed and finalization should be treated as failed.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (entities.Summary, error)
}
