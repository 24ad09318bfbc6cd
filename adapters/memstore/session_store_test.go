package memstore

import (
	"context"
	"testing"

	"github.com/khairulh/notulen/domain/entities"
	"github.com/khairulh/notulen/domain/repositories"
)

func TestCreateSessionRejectsDuplicates(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	session := entities.NewSession("s1", "user-1", "", entities.SourceTypeMic)
	if err := store.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	err := store.CreateSession(ctx, entities.NewSession("s1", "user-2", "", entities.SourceTypeTab))
	if err != repositories.ErrSessionExists {
		t.Errorf("CreateSession() duplicate error = %v, want ErrSessionExists", err)
	}
}

func TestSetStatusMissingSessionIsNoOp(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	outcome, err := store.SetStatus(ctx, "nope", entities.SessionStatusPaused)
	if err != nil {
		t.Fatalf("SetStatus() error = %v, want nil for missing session", err)
	}
	if outcome != repositories.UpdateOutcomeNotFound {
		t.Errorf("SetStatus() outcome = %v, want not_found", outcome)
	}
}

func TestSetStatusUpdates(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	store.CreateSession(ctx, entities.NewSession("s1", "user-1", "", entities.SourceTypeMic))

	outcome, err := store.SetStatus(ctx, "s1", entities.SessionStatusPaused)
	if err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	if outcome != repositories.UpdateOutcomeUpdated {
		t.Errorf("SetStatus() outcome = %v, want updated", outcome)
	}

	detail, err := store.GetSessionDetail(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSessionDetail() error = %v", err)
	}
	if detail.Status != entities.SessionStatusPaused {
		t.Errorf("Status = %s, want PAUSED", detail.Status)
	}
}

func TestAppendChunkStoresOrphans(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	// No session called ghost exists; the append still sticks.
	err := store.AppendChunk(ctx, entities.TranscriptChunk{SessionID: "ghost", Index: 0, Text: "hello"})
	if err != nil {
		t.Fatalf("AppendChunk() error = %v", err)
	}

	chunks, err := store.ListChunks(ctx, "ghost")
	if err != nil {
		t.Fatalf("ListChunks() error = %v", err)
	}
	if len(chunks) != 1 || chunks[0].Text != "hello" {
		t.Errorf("ListChunks() = %v, want the orphaned chunk", chunks)
	}
}

func TestAppendChunkIsIdempotentByIndex(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	store.AppendChunk(ctx, entities.TranscriptChunk{SessionID: "s1", Index: 3, Text: "first"})
	store.AppendChunk(ctx, entities.TranscriptChunk{SessionID: "s1", Index: 3, Text: "replayed"})

	chunks, _ := store.ListChunks(ctx, "s1")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk after replay, got %d", len(chunks))
	}
	if chunks[0].Text != "replayed" {
		t.Errorf("chunk text = %q, want last write", chunks[0].Text)
	}
}

func TestListChunksOrdersByIndex(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	for _, idx := range []int{4, 0, 2} {
		store.AppendChunk(ctx, entities.TranscriptChunk{SessionID: "s1", Index: idx})
	}

	chunks, _ := store.ListChunks(ctx, "s1")
	for i := 1; i < len(chunks); i++ {
		if chunks[i-1].Index >= chunks[i].Index {
			t.Errorf("chunks out of order: %v", chunks)
		}
	}
}

func TestCompleteSessionIsAtomicAndRepeatable(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	store.CreateSession(ctx, entities.NewSession("s1", "user-1", "", entities.SourceTypeMic))

	outcome, err := store.CompleteSession(ctx, "s1", entities.Summary{Overview: "v1"})
	if err != nil || outcome != repositories.UpdateOutcomeUpdated {
		t.Fatalf("CompleteSession() = %v, %v", outcome, err)
	}

	detail, _ := store.GetSessionDetail(ctx, "s1")
	if detail.Status != entities.SessionStatusCompleted {
		t.Errorf("Status = %s, want COMPLETED", detail.Status)
	}
	if detail.CompletedAt == nil {
		t.Error("CompletedAt should be set")
	}
	if detail.Summary == nil || detail.Summary.Overview != "v1" {
		t.Errorf("Summary = %v, want overview v1", detail.Summary)
	}

	// Re-finalizing replaces the summary, still exactly one.
	store.CompleteSession(ctx, "s1", entities.Summary{Overview: "v2"})
	detail, _ = store.GetSessionDetail(ctx, "s1")
	if detail.Summary.Overview != "v2" {
		t.Errorf("Summary overview = %q, want v2 after re-finalize", detail.Summary.Overview)
	}
}

func TestCompleteSessionMissingIsNoOp(t *testing.T) {
	store := NewSessionStore()

	outcome, err := store.CompleteSession(context.Background(), "nope", entities.Summary{Overview: "x"})
	if err != nil {
		t.Fatalf("CompleteSession() error = %v", err)
	}
	if outcome != repositories.UpdateOutcomeNotFound {
		t.Errorf("outcome = %v, want not_found", outcome)
	}
}

func TestListSessionsForUser(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	store.CreateSession(ctx, entities.NewSession("s1", "alice", "", entities.SourceTypeMic))
	store.CreateSession(ctx, entities.NewSession("s2", "bob", "", entities.SourceTypeMic))
	store.CreateSession(ctx, entities.NewSession("s3", "alice", "", entities.SourceTypeTab))

	sessions, err := store.ListSessionsForUser(ctx, "alice")
	if err != nil {
		t.Fatalf("ListSessionsForUser() error = %v", err)
	}
	if len(sessions) != 2 {
		t.Errorf("got %d sessions for alice, want 2", len(sessions))
	}
	for _, s := range sessions {
		if s.UserID != "alice" {
			t.Errorf("session %s belongs to %s", s.ID, s.UserID)
		}
	}
}

func TestGetSessionDetailMissing(t *testing.T) {
	store := NewSessionStore()

	_, err := store.GetSessionDetail(context.Background(), "nope")
	if err != repositories.ErrSessionNotFound {
		t.Errorf("GetSessionDetail() error = %v, want ErrSessionNotFound", err)
	}
}
