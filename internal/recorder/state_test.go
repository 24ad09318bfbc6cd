package recorder

import (
	"reflect"
	"testing"

	"github.com/khairulh/notulen/domain/entities"
)

func TestLifecycleTransitions(t *testing.T) {
	start := Start{SessionID: "s1", Source: entities.SourceTypeMic}

	tests := []struct {
		name  string
		state State
		event Event
		want  State
	}{
		{"idle start", Idle{}, start, Recording{SessionID: "s1", Source: entities.SourceTypeMic}},
		{"recording pause", Recording{SessionID: "s1", Source: entities.SourceTypeMic}, Pause{}, Paused{SessionID: "s1", Source: entities.SourceTypeMic}},
		{"recording stop", Recording{SessionID: "s1", Source: entities.SourceTypeMic}, Stop{}, Processing{SessionID: "s1"}},
		{"recording disconnect", Recording{SessionID: "s1", Source: entities.SourceTypeMic}, TransportDisconnected{}, Reconnecting{SessionID: "s1", Source: entities.SourceTypeMic}},
		{"reconnecting reconnect", Reconnecting{SessionID: "s1", Source: entities.SourceTypeMic}, TransportReconnected{}, Recording{SessionID: "s1", Source: entities.SourceTypeMic}},
		{"reconnecting stop", Reconnecting{SessionID: "s1", Source: entities.SourceTypeMic}, Stop{}, Processing{SessionID: "s1"}},
		{"paused resume", Paused{SessionID: "s1", Source: entities.SourceTypeMic}, Resume{}, Recording{SessionID: "s1", Source: entities.SourceTypeMic}},
		{"paused stop", Paused{SessionID: "s1", Source: entities.SourceTypeMic}, Stop{}, Processing{SessionID: "s1"}},
		{"processing success", Processing{SessionID: "s1"}, FinalizeSucceeded{}, Completed{SessionID: "s1"}},
		{"processing failure", Processing{SessionID: "s1"}, FinalizeFailed{Message: "boom"}, Failed{Message: "boom"}},
		{"completed restart", Completed{SessionID: "s1"}, Start{SessionID: "s2", Source: entities.SourceTypeTab}, Recording{SessionID: "s2", Source: entities.SourceTypeTab}},
		{"completed reset", Completed{SessionID: "s1"}, Reset{}, Idle{}},
		{"failed reset", Failed{Message: "boom"}, Reset{}, Idle{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Next(tt.state, tt.event)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Next(%#v, %#v) = %#v, want %#v", tt.state, tt.event, got, tt.want)
			}
		})
	}
}

func TestUnlistedEventsAreIgnored(t *testing.T) {
	// A stray late event must leave the state untouched, not error.
	tests := []struct {
		name  string
		state State
		event Event
	}{
		{"idle stop", Idle{}, Stop{}},
		{"idle pause", Idle{}, Pause{}},
		{"idle reset", Idle{}, Reset{}},
		{"recording resume", Recording{SessionID: "s1"}, Resume{}},
		{"recording start", Recording{SessionID: "s1"}, Start{SessionID: "s2"}},
		{"paused pause", Paused{SessionID: "s1"}, Pause{}},
		{"paused disconnect", Paused{SessionID: "s1"}, TransportDisconnected{}},
		{"processing stop", Processing{SessionID: "s1"}, Stop{}},
		{"processing start", Processing{SessionID: "s1"}, Start{SessionID: "s2"}},
		{"completed stop", Completed{SessionID: "s1"}, Stop{}},
		{"failed start", Failed{Message: "boom"}, Start{SessionID: "s2"}},
		{"reconnecting pause", Reconnecting{SessionID: "s1"}, Pause{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Next(tt.state, tt.event)
			if !reflect.DeepEqual(got, tt.state) {
				t.Errorf("Next(%#v, %#v) = %#v, want unchanged state", tt.state, tt.event, got)
			}
		})
	}
}

func TestFromServerStatus(t *testing.T) {
	tests := []struct {
		status entities.SessionStatus
		want   State
	}{
		{entities.SessionStatusRecording, Recording{SessionID: "s1", Source: entities.SourceTypeMic}},
		{entities.SessionStatusPaused, Paused{SessionID: "s1", Source: entities.SourceTypeMic}},
		{entities.SessionStatusProcessing, Processing{SessionID: "s1"}},
		{entities.SessionStatusCompleted, Completed{SessionID: "s1"}},
	}

	for _, tt := range tests {
		got := FromServerStatus(tt.status, "s1", entities.SourceTypeMic)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("FromServerStatus(%s) = %#v, want %#v", tt.status, got, tt.want)
		}
	}

	if _, ok := FromServerStatus(entities.SessionStatusError, "s1", entities.SourceTypeMic).(Failed); !ok {
		t.Error("FromServerStatus(ERROR) should map to Failed")
	}
}

func TestSessionID(t *testing.T) {
	if got := SessionID(Idle{}); got != "" {
		t.Errorf("SessionID(Idle) = %q, want empty", got)
	}
	if got := SessionID(Reconnecting{SessionID: "s9"}); got != "s9" {
		t.Errorf("SessionID(Reconnecting) = %q, want s9", got)
	}
	if got := SessionID(Failed{Message: "x"}); got != "" {
		t.Errorf("SessionID(Failed) = %q, want empty", got)
	}
}

func TestDisconnectReconnectRoundTrip(t *testing.T) {
	state := State(Idle{})
	state = Next(state, Start{SessionID: "s1", Source: entities.SourceTypeTab})
	state = Next(state, TransportDisconnected{})

	if _, ok := state.(Reconnecting); !ok {
		t.Fatalf("expected Reconnecting, got %#v", state)
	}

	state = Next(state, TransportReconnected{})
	rec, ok := state.(Recording)
	if !ok {
		t.Fatalf("expected Recording after reconnect, got %#v", state)
	}
	if rec.SessionID != "s1" || rec.Source != entities.SourceTypeTab {
		t.Errorf("reconnect lost session identity: %#v", rec)
	}
}
