package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/khairulh/notulen/domain/entities"
	"github.com/khairulh/notulen/domain/repositories"
)

// SessionStore persists sessions and transcript chunks in MongoDB.
// The summary is embedded in the session document so finalization is a
// single UpdateOne and therefore atomic.
type SessionStore struct {
	sessions *mongo.Collection
	chunks   *mongo.Collection
}

// NewSessionStore creates a MongoDB-backed session store.
func NewSessionStore(db *mongo.Database) repositories.SessionStore {
	return &SessionStore{
		sessions: db.Collection("sessions"),
		chunks:   db.Collection("transcript_chunks"),
	}
}

// EnsureIndexes creates the indexes the store relies on. Chunk appends
// are keyed by (session_id, idx), which the unique index enforces.
func (s *SessionStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.chunks.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "session_id", Value: 1},
			{Key: "idx", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create chunk index: %w", err)
	}

	_, err = s.sessions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "started_at", Value: -1},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create session index: %w", err)
	}
	return nil
}

// CreateSession implements repositories.SessionStore
func (s *SessionStore) CreateSession(ctx context.Context, session *entities.Session) error {
	if session == nil {
		return errors.New("session cannot be nil")
	}
	if err := session.Validate(); err != nil {
		return err
	}

	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now().UTC()
	}

	if _, err := s.sessions.InsertOne(ctx, session); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repositories.ErrSessionExists
		}
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// SetStatus implements repositories.SessionStore
func (s *SessionStore) SetStatus(ctx context.Context, sessionID string, status entities.SessionStatus) (repositories.UpdateOutcome, error) {
	result, err := s.sessions.UpdateOne(
		ctx,
		bson.M{"_id": sessionID},
		bson.M{"$set": bson.M{"status": status}},
	)
	if err != nil {
		return repositories.UpdateOutcomeNotFound, fmt.Errorf("failed to update session status: %w", err)
	}
	if result.MatchedCount == 0 {
		return repositories.UpdateOutcomeNotFound, nil
	}
	return repositories.UpdateOutcomeUpdated, nil
}

// AppendChunk implements repositories.SessionStore
func (s *SessionStore) AppendChunk(ctx context.Context, chunk entities.TranscriptChunk) error {
	filter := bson.M{
		"session_id": chunk.SessionID,
		"idx":        chunk.Index,
	}
	opts := options.Replace().SetUpsert(true)

	if _, err := s.chunks.ReplaceOne(ctx, filter, chunk, opts); err != nil {
		return fmt.Errorf("failed to append transcript chunk: %w", err)
	}
	return nil
}

// ListChunks implements repositories.SessionStore
func (s *SessionStore) ListChunks(ctx context.Context, sessionID string) ([]entities.TranscriptChunk, error) {
	filter := bson.M{"session_id": sessionID}
	opts := options.Find().SetSort(bson.M{"idx": 1})

	cursor, err := s.chunks.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list transcript chunks: %w", err)
	}
	defer cursor.Close(ctx)

	chunks := []entities.TranscriptChunk{}
	if err := cursor.All(ctx, &chunks); err != nil {
		return nil, fmt.Errorf("failed to decode transcript chunks: %w", err)
	}
	return chunks, nil
}

// CompleteSession implements repositories.SessionStore
func (s *SessionStore) CompleteSession(ctx context.Context, sessionID string, summary entities.Summary) (repositories.UpdateOutcome, error) {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"status":       entities.SessionStatusCompleted,
			"summary":      summary,
			"completed_at": now,
		},
	}

	result, err := s.sessions.UpdateOne(ctx, bson.M{"_id": sessionID}, update)
	if err != nil {
		return repositories.UpdateOutcomeNotFound, fmt.Errorf("failed to complete session: %w", err)
	}
	if result.MatchedCount == 0 {
		return repositories.UpdateOutcomeNotFound, nil
	}
	return repositories.UpdateOutcomeUpdated, nil
}

// GetSessionDetail implements repositories.SessionStore
func (s *SessionStore) GetSessionDetail(ctx context.Context, sessionID string) (*entities.SessionDetail, error) {
	var session entities.Session
	err := s.sessions.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session %s: %w", sessionID, err)
	}

	chunks, err := s.ListChunks(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &entities.SessionDetail{
		Session: session,
		Chunks:  chunks,
	}, nil
}

// ListSessionsForUser implements repositories.SessionStore
func (s *SessionStore) ListSessionsForUser(ctx context.Context, userID string) ([]entities.Session, error) {
	filter := bson.M{"user_id": userID}
	opts := options.Find().SetSort(bson.M{"started_at": -1})

	cursor, err := s.sessions.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions for user %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	sessions := []entities.Session{}
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("failed to decode sessions: %w", err)
	}
	return sessions, nil
}
