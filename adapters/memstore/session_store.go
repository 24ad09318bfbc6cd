// Package memstore provides an in-memory SessionStore. It backs
// development without a database and the pipeline tests; semantics
// match the Mongo adapter, including the orphan-chunk and
// missing-session no-op behaviors.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/khairulh/notulen/domain/entities"
	"github.com/khairulh/notulen/domain/repositories"
)

// SessionStore is a thread-safe in-memory implementation of
// repositories.SessionStore.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*entities.Session
	chunks   map[string]map[int]entities.TranscriptChunk // session id -> index -> chunk
}

// NewSessionStore creates an empty in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*entities.Session),
		chunks:   make(map[string]map[int]entities.TranscriptChunk),
	}
}

// CreateSession implements repositories.SessionStore.
func (s *SessionStore) CreateSession(_ context.Context, session *entities.Session) error {
	if err := session.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.ID]; exists {
		return repositories.ErrSessionExists
	}

	copied := *session
	s.sessions[session.ID] = &copied
	return nil
}

// SetStatus implements repositories.SessionStore. A missing session is
// a NotFound no-op, never an error.
func (s *SessionStore) SetStatus(_ context.Context, sessionID string, status entities.SessionStatus) (repositories.UpdateOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return repositories.UpdateOutcomeNotFound, nil
	}
	session.Status = status
	return repositories.UpdateOutcomeUpdated, nil
}

// AppendChunk implements repositories.SessionStore. The write is keyed
// by (session id, index): a replayed index replaces the prior row. The
// session is not required to exist; an orphaned chunk is stored as-is.
func (s *SessionStore) AppendChunk(_ context.Context, chunk entities.TranscriptChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bySession, ok := s.chunks[chunk.SessionID]
	if !ok {
		bySession = make(map[int]entities.TranscriptChunk)
		s.chunks[chunk.SessionID] = bySession
	}
	bySession[chunk.Index] = chunk
	return nil
}

// ListChunks implements repositories.SessionStore.
func (s *SessionStore) ListChunks(_ context.Context, sessionID string) ([]entities.TranscriptChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listChunksLocked(sessionID), nil
}

func (s *SessionStore) listChunksLocked(sessionID string) []entities.TranscriptChunk {
	bySession := s.chunks[sessionID]
	chunks := make([]entities.TranscriptChunk, 0, len(bySession))
	for _, chunk := range bySession {
		chunks = append(chunks, chunk)
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Index < chunks[j].Index })
	return chunks
}

// CompleteSession implements repositories.SessionStore. Summary,
// COMPLETED status and completion time land under one lock hold, the
// in-memory analog of a single document update.
func (s *SessionStore) CompleteSession(_ context.Context, sessionID string, summary entities.Summary) (repositories.UpdateOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return repositories.UpdateOutcomeNotFound, nil
	}

	now := time.Now().UTC()
	session.Summary = &summary
	session.Status = entities.SessionStatusCompleted
	session.CompletedAt = &now
	return repositories.UpdateOutcomeUpdated, nil
}

// GetSessionDetail implements repositories.SessionStore.
func (s *SessionStore) GetSessionDetail(_ context.Context, sessionID string) (*entities.SessionDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, repositories.ErrSessionNotFound
	}

	copied := *session
	if session.Summary != nil {
		summary := *session.Summary
		copied.Summary = &summary
	}
	return &entities.SessionDetail{
		Session: copied,
		Chunks:  s.listChunksLocked(sessionID),
	}, nil
}

// ListSessionsForUser implements repositories.SessionStore.
func (s *SessionStore) ListSessionsForUser(_ context.Context, userID string) ([]entities.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]entities.Session, 0)
	for _, session := range s.sessions {
		if session.UserID != userID {
			continue
		}
		sessions = append(sessions, *session)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartedAt.After(sessions[j].StartedAt)
	})
	return sessions, nil
}
