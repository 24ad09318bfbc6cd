package websocket

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/khairulh/notulen/domain/entities"
)

// EventType defines the type of a WebSocket event.
type EventType string

// Inbound event types (client to pipeline).
const (
	EventTypeStart      EventType = "start"
	EventTypeAudioChunk EventType = "audio_chunk"
	EventTypePause      EventType = "pause"
	EventTypeResume     EventType = "resume"
	EventTypeStop       EventType = "stop"
	EventTypeJoin       EventType = "join"
)

// Outbound event types (pipeline to room).
const (
	EventTypeStatus     EventType = "status"
	EventTypeTranscript EventType = "transcript"
	EventTypeCompleted  EventType = "completed"
	EventTypeError      EventType = "error"
)

// BaseEvent defines the common structure for all WebSocket events.
type BaseEvent struct {
	Type      EventType `json:"type"`
	Timestamp string    `json:"timestamp,omitempty"`
}

// StartEvent opens a new session. The session identifier is supplied by
// the client and must be globally unique.
type StartEvent struct {
	BaseEvent
	SessionID  string              `json:"session_id"`
	UserID     string              `json:"user_id"`
	Title      string              `json:"title,omitempty"`
	SourceType entities.SourceType `json:"source_type"`
}

// AudioChunkEvent carries one audio segment. Indices are zero-based and
// assigned by the sender; arrival order is not guaranteed.
type AudioChunkEvent struct {
	BaseEvent
	SessionID string `json:"session_id"`
	Index     int    `json:"index"`
	AudioData string `json:"audio_data"` // base64 encoded
	MimeType  string `json:"mime_type"`
	StartMs   int64  `json:"start_ms"`
	EndMs     int64  `json:"end_ms"`
}

// PauseEvent pauses a recording session.
type PauseEvent struct {
	BaseEvent
	SessionID string `json:"session_id"`
}

// ResumeEvent resumes a paused session.
type ResumeEvent struct {
	BaseEvent
	SessionID string `json:"session_id"`
}

// StopEvent stops a session and triggers finalization.
type StopEvent struct {
	BaseEvent
	SessionID string `json:"session_id"`
}

// JoinEvent subscribes the sender to a session's broadcasts without
// starting one. Reconnecting recorders and read-only observers use it.
type JoinEvent struct {
	BaseEvent
	SessionID string `json:"session_id"`
}

// StatusEvent announces a lifecycle status change to the room.
type StatusEvent struct {
	BaseEvent
	SessionID string                 `json:"session_id"`
	Status    entities.SessionStatus `json:"status"`
}

// TranscriptEvent carries one live-transcribed chunk. It always carries
// the chunk's own index so viewers can place it correctly even when
// delivered out of order.
type TranscriptEvent struct {
	BaseEvent
	SessionID string `json:"session_id"`
	Index     int    `json:"index"`
	Text      string `json:"text"`
	StartMs   int64  `json:"start_ms"`
	EndMs     int64  `json:"end_ms"`
}

// CompletedEvent carries the fully hydrated session after finalization.
type CompletedEvent struct {
	BaseEvent
	SessionID string                  `json:"session_id"`
	Session   *entities.SessionDetail `json:"session"`
}

// ErrorEvent is delivered to the sender only; the message is
// human-readable and carries no structured code taxonomy.
type ErrorEvent struct {
	BaseEvent
	Message string `json:"message"`
}

// EventValidator parses and validates inbound events. Each event kind
// is validated independently before any side effect happens.
type EventValidator struct{}

// NewEventValidator creates a new event validator.
func NewEventValidator() *EventValidator {
	return &EventValidator{}
}

// ValidateEvent parses an inbound payload into its typed event. A
// malformed payload yields an error and must produce no state change.
func (v *EventValidator) ValidateEvent(payload []byte) (interface{}, error) {
	var base BaseEvent
	if err := json.Unmarshal(payload, &base); err != nil {
		return nil, fmt.Errorf("invalid JSON format: %w", err)
	}

	switch base.Type {
	case EventTypeStart:
		var ev StartEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, fmt.Errorf("invalid start event: %w", err)
		}
		if err := v.validateStart(&ev); err != nil {
			return nil, err
		}
		return &ev, nil

	case EventTypeAudioChunk:
		var ev AudioChunkEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, fmt.Errorf("invalid audio chunk event: %w", err)
		}
		if err := v.validateAudioChunk(&ev); err != nil {
			return nil, err
		}
		return &ev, nil

	case EventTypePause:
		var ev PauseEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, fmt.Errorf("invalid pause event: %w", err)
		}
		if ev.SessionID == "" {
			return nil, fmt.Errorf("session_id is required")
		}
		return &ev, nil

	case EventTypeResume:
		var ev ResumeEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, fmt.Errorf("invalid resume event: %w", err)
		}
		if ev.SessionID == "" {
			return nil, fmt.Errorf("session_id is required")
		}
		return &ev, nil

	case EventTypeStop:
		var ev StopEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, fmt.Errorf("invalid stop event: %w", err)
		}
		if ev.SessionID == "" {
			return nil, fmt.Errorf("session_id is required")
		}
		return &ev, nil

	case EventTypeJoin:
		var ev JoinEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, fmt.Errorf("invalid join event: %w", err)
		}
		if ev.SessionID == "" {
			return nil, fmt.Errorf("session_id is required")
		}
		return &ev, nil

	default:
		return nil, fmt.Errorf("unsupported event type: %s", base.Type)
	}
}

func (v *EventValidator) validateStart(ev *StartEvent) error {
	if ev.SessionID == "" {
		return fmt.Errorf("session_id is required")
	}
	if ev.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if ev.SourceType != entities.SourceTypeMic && ev.SourceType != entities.SourceTypeTab {
		return fmt.Errorf("source_type must be one of: MIC, TAB")
	}
	return nil
}

func (v *EventValidator) validateAudioChunk(ev *AudioChunkEvent) error {
	if ev.SessionID == "" {
		return fmt.Errorf("session_id is required")
	}
	if ev.Index < 0 {
		return fmt.Errorf("index must not be negative")
	}
	if ev.AudioData == "" {
		return fmt.Errorf("audio_data is required")
	}
	if ev.MimeType == "" {
		return fmt.Errorf("mime_type is required")
	}
	if ev.StartMs < 0 || ev.EndMs < 0 {
		return fmt.Errorf("start_ms and end_ms must not be negative")
	}
	return nil
}

func newBaseEvent(eventType EventType) BaseEvent {
	return BaseEvent{
		Type:      eventType,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// NewStatusEvent creates a status broadcast event.
func NewStatusEvent(sessionID string, status entities.SessionStatus) *StatusEvent {
	return &StatusEvent{
		BaseEvent: newBaseEvent(EventTypeStatus),
		SessionID: sessionID,
		Status:    status,
	}
}

// NewTranscriptEvent creates a live transcript broadcast event.
func NewTranscriptEvent(chunk entities.TranscriptChunk) *TranscriptEvent {
	return &TranscriptEvent{
		BaseEvent: newBaseEvent(EventTypeTranscript),
		SessionID: chunk.SessionID,
		Index:     chunk.Index,
		Text:      chunk.Text,
		StartMs:   chunk.StartMs,
		EndMs:     chunk.EndMs,
	}
}

// NewCompletedEvent creates a completion broadcast event.
func NewCompletedEvent(detail *entities.SessionDetail) *CompletedEvent {
	return &CompletedEvent{
		BaseEvent: newBaseEvent(EventTypeCompleted),
		SessionID: detail.ID,
		Session:   detail,
	}
}

// NewErrorEvent creates an error event for the sender.
func NewErrorEvent(message string) *ErrorEvent {
	return &ErrorEvent{
		BaseEvent: newBaseEvent(EventTypeError),
		Message:   message,
	}
}
