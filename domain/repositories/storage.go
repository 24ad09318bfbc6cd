package repositories

import (
	"context"
	"errors"

	"github.com/khairulh/notulen/domain/entities"
)

var (
	// ErrSessionExists is returned by CreateSession when a session with
	// the same identifier already exists.
	ErrSessionExists = errors.New("session already exists")

	// ErrSessionNotFound is returned by reads for unknown identifiers.
	ErrSessionNotFound = errors.New("session not found")
)

// UpdateOutcome makes the best-effort status-write semantics explicit:
// a write against a missing session is a NotFound no-op, not an error.
type UpdateOutcome int

const (
	UpdateOutcomeUpdated UpdateOutcome = iota
	UpdateOutcomeNotFound
)

func (o UpdateOutcome) String() string {
	if o == UpdateOutcomeUpdated {
		return "updated"
	}
	return "not_found"
}

// SessionStore defines durable storage for sessions, their ordered
// transcript chunks, and at most one summary per session.
type SessionStore interface {
	// CreateSession persists a new session. Returns ErrSessionExists if
	// the identifier is already taken.
	CreateSession(ctx context.Context, session *entities.Session) error

	// SetStatus updates the session status by identifier. A missing
	// session yields UpdateOutcomeNotFound with a nil error.
	SetStatus(ctx context.Context, sessionID string, status entities.SessionStatus) (UpdateOutcome, error)

	// AppendChunk persists a transcript chunk, keyed idempotently by
	// (session id, index): re-appending the same index replaces the row.
	// The append does not require the session to exist.
	AppendChunk(ctx context.Context, chunk entities.TranscriptChunk) error

	// ListChunks returns all chunks for a session ordered by ascending
	// index. A session with no chunks yields an empty slice.
	ListChunks(ctx context.Context, sessionID string) ([]entities.TranscriptChunk, error)

	// CompleteSession upserts the summary and marks the session
	// COMPLETED with a completion timestamp as a single atomic unit.
	// Re-finalizing replaces the prior summary. A missing session
	// yields UpdateOutcomeNotFound with a nil error.
	CompleteSession(ctx context.Context, sessionID string, summary entities.Summary) (UpdateOutcome, error)

	// GetSessionDetail returns the session hydrated with its ordered
	// chunks and summary. Returns ErrSessionNotFound when missing.
	GetSessionDetail(ctx context.Context, sessionID string) (*entities.SessionDetail, error)

	// ListSessionsForUser returns the sessions owned by a user, most
	// recently started first.
	ListSessionsForUser(ctx context.Context, userID string) ([]entities.Session, error)
}
