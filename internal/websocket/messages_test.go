package websocket

import (
	"testing"
)

func TestEventValidator_ValidateStart(t *testing.T) {
	validator := NewEventValidator()

	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{
			name: "valid start",
			payload: `{
				"type": "start",
				"session_id": "session-123",
				"user_id": "user-1",
				"title": "Weekly sync",
				"source_type": "MIC"
			}`,
			wantErr: false,
		},
		{
			name: "tab capture source",
			payload: `{
				"type": "start",
				"session_id": "session-123",
				"user_id": "user-1",
				"source_type": "TAB"
			}`,
			wantErr: false,
		},
		{
			name: "missing session_id",
			payload: `{
				"type": "start",
				"user_id": "user-1",
				"source_type": "MIC"
			}`,
			wantErr: true,
		},
		{
			name: "missing user_id",
			payload: `{
				"type": "start",
				"session_id": "session-123",
				"source_type": "MIC"
			}`,
			wantErr: true,
		},
		{
			name: "unknown source type",
			payload: `{
				"type": "start",
				"session_id": "session-123",
				"user_id": "user-1",
				"source_type": "SCREEN"
			}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validator.ValidateEvent([]byte(tt.payload))
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEvent() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEventValidator_ValidateAudioChunk(t *testing.T) {
	validator := NewEventValidator()

	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{
			name: "valid audio chunk",
			payload: `{
				"type": "audio_chunk",
				"session_id": "session-123",
				"index": 0,
				"audio_data": "SGVsbG8gV29ybGQ=",
				"mime_type": "audio/webm",
				"start_ms": 0,
				"end_ms": 3000
			}`,
			wantErr: false,
		},
		{
			name: "missing session_id",
			payload: `{
				"type": "audio_chunk",
				"index": 0,
				"audio_data": "SGVsbG8gV29ybGQ=",
				"mime_type": "audio/webm"
			}`,
			wantErr: true,
		},
		{
			name: "negative index",
			payload: `{
				"type": "audio_chunk",
				"session_id": "session-123",
				"index": -1,
				"audio_data": "SGVsbG8gV29ybGQ=",
				"mime_type": "audio/webm"
			}`,
			wantErr: true,
		},
		{
			name: "missing audio_data",
			payload: `{
				"type": "audio_chunk",
				"session_id": "session-123",
				"index": 0,
				"mime_type": "audio/webm"
			}`,
			wantErr: true,
		},
		{
			name: "missing mime_type",
			payload: `{
				"type": "audio_chunk",
				"session_id": "session-123",
				"index": 0,
				"audio_data": "SGVsbG8gV29ybGQ="
			}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validator.ValidateEvent([]byte(tt.payload))
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEvent() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEventValidator_LifecycleEvents(t *testing.T) {
	validator := NewEventValidator()

	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{"valid pause", `{"type": "pause", "session_id": "s1"}`, false},
		{"valid resume", `{"type": "resume", "session_id": "s1"}`, false},
		{"valid stop", `{"type": "stop", "session_id": "s1"}`, false},
		{"valid join", `{"type": "join", "session_id": "s1"}`, false},
		{"pause without session", `{"type": "pause"}`, true},
		{"stop without session", `{"type": "stop"}`, true},
		{"unknown type", `{"type": "shout", "session_id": "s1"}`, true},
		{"server-only type rejected", `{"type": "status", "session_id": "s1"}`, true},
		{"not json", `not json at all`, true},
		{"empty payload", ``, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validator.ValidateEvent([]byte(tt.payload))
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEvent() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEventValidator_ReturnsTypedEvents(t *testing.T) {
	validator := NewEventValidator()

	ev, err := validator.ValidateEvent([]byte(`{
		"type": "audio_chunk",
		"session_id": "session-123",
		"index": 4,
		"audio_data": "SGVsbG8=",
		"mime_type": "audio/webm",
		"start_ms": 12000,
		"end_ms": 15000
	}`))
	if err != nil {
		t.Fatalf("ValidateEvent() error = %v", err)
	}

	chunk, ok := ev.(*AudioChunkEvent)
	if !ok {
		t.Fatalf("ValidateEvent() returned %T, want *AudioChunkEvent", ev)
	}
	if chunk.SessionID != "session-123" || chunk.Index != 4 || chunk.EndMs != 15000 {
		t.Errorf("unexpected decoded chunk: %+v", chunk)
	}
}

func TestOutboundEventConstructors(t *testing.T) {
	status := NewStatusEvent("s1", "RECORDING")
	if status.Type != EventTypeStatus || status.SessionID != "s1" {
		t.Errorf("unexpected status event: %+v", status)
	}
	if status.Timestamp == "" {
		t.Error("status event must carry a timestamp")
	}

	errEvent := NewErrorEvent("boom")
	if errEvent.Type != EventTypeError || errEvent.Message != "boom" {
		t.Errorf("unexpected error event: %+v", errEvent)
	}
}
