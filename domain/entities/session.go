package entities

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// SessionStatus represents the server-side status of a recording session.
type SessionStatus string

const (
	SessionStatusRecording  SessionStatus = "RECORDING"
	SessionStatusPaused     SessionStatus = "PAUSED"
	SessionStatusProcessing SessionStatus = "PROCESSING"
	SessionStatusCompleted  SessionStatus = "COMPLETED"
	SessionStatusError      SessionStatus = "ERROR"
)

// SourceType identifies where the recorded audio comes from.
type SourceType string

const (
	SourceTypeMic SourceType = "MIC"
	SourceTypeTab SourceType = "TAB"
)

// Session represents one recording-to-summary lifecycle instance. The
// identifier is supplied by the recording client and must be globally
// unique. Sessions are created on the first start event and are mutated
// only through status transitions; the pipeline never deletes them.
type Session struct {
	ID          string        `json:"id" bson:"_id"`
	UserID      string        `json:"user_id" bson:"user_id"`
	Title       string        `json:"title,omitempty" bson:"title,omitempty"`
	SourceType  SourceType    `json:"source_type" bson:"source_type"`
	Status      SessionStatus `json:"status" bson:"status"`
	StartedAt   time.Time     `json:"started_at" bson:"started_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty" bson:"completed_at,omitempty"`

	// Summary is embedded in the session document so the finalization
	// write (summary + COMPLETED status) lands as a single atomic
	// update. At most one summary exists per session by construction.
	Summary *Summary `json:"summary,omitempty" bson:"summary,omitempty"`
}

// TranscriptChunk is one transcribed audio segment. The index is
// assigned by the sender and is zero-based; arrival order is not
// guaranteed to match index order. Chunks are immutable after creation.
type TranscriptChunk struct {
	SessionID string    `json:"session_id" bson:"session_id"`
	Index     int       `json:"index" bson:"idx"`
	Text      string    `json:"text" bson:"text"`
	StartMs   int64     `json:"start_ms" bson:"start_ms"`
	EndMs     int64     `json:"end_ms" bson:"end_ms"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Summary holds the structured result of finalizing a session. Only the
// overview is guaranteed; the three lists are absent when the
// summarization response degrades to plain text.
type Summary struct {
	Overview    string    `json:"overview" bson:"overview"`
	KeyPoints   []string  `json:"key_points,omitempty" bson:"key_points,omitempty"`
	ActionItems []string  `json:"action_items,omitempty" bson:"action_items,omitempty"`
	Decisions   []string  `json:"decisions,omitempty" bson:"decisions,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// SessionDetail is a session hydrated with its ordered transcript
// chunks, as returned to clients recovering state on page load and in
// the completed broadcast.
type SessionDetail struct {
	Session `bson:",inline"`
	Chunks  []TranscriptChunk `json:"chunks"`
}

// NewSession creates a session in the RECORDING state.
func NewSession(id, userID, title string, source SourceType) *Session {
	return &Session{
		ID:         id,
		UserID:     userID,
		Title:      title,
		SourceType: source,
		Status:     SessionStatusRecording,
		StartedAt:  time.Now().UTC(),
	}
}

// Validate validates the session data.
func (s *Session) Validate() error {
	if s.ID == "" {
		return errors.New("session id is required")
	}
	if s.UserID == "" {
		return errors.New("user_id is required")
	}
	if s.SourceType != SourceTypeMic && s.SourceType != SourceTypeTab {
		return errors.New("source_type must be MIC or TAB")
	}
	switch s.Status {
	case SessionStatusRecording, SessionStatusPaused, SessionStatusProcessing,
		SessionStatusCompleted, SessionStatusError:
	default:
		return errors.New("invalid session status")
	}
	return nil
}

// IsActive reports whether the session is still accepting events, that
// is, it has not been finalized yet.
func (s *Session) IsActive() bool {
	switch s.Status {
	case SessionStatusRecording, SessionStatusPaused, SessionStatusProcessing:
		return true
	}
	return false
}

// AggregateTranscript orders chunks by ascending index and joins their
// text with single spaces. The result is independent of the order the
// chunks arrived in. An empty chunk set yields an empty string.
func AggregateTranscript(chunks []TranscriptChunk) string {
	ordered := make([]TranscriptChunk, len(chunks))
	copy(ordered, chunks)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	parts := make([]string, 0, len(ordered))
	for _, c := range ordered {
		if c.Text == "" {
			continue
		}
		parts = append(parts, c.Text)
	}
	return strings.Join(parts, " ")
}
