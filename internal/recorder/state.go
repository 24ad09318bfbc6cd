// Package recorder holds the client-side mirror of the session
// lifecycle. It is a superset of the server status: transport-level
// signals (disconnect, reconnect) move the mirror through states the
// server never sees.
package recorder

import (
	"github.com/khairulh/notulen/domain/entities"
)

// State is the client lifecycle state. It is a closed variant set:
// each concrete state carries exactly the data valid in that state, so
// an idle mirror cannot hold a session identifier and only the error
// state holds a message.
type State interface {
	isState()
}

type Idle struct{}

type Recording struct {
	SessionID string
	Source    entities.SourceType
}

type Paused struct {
	SessionID string
	Source    entities.SourceType
}

// Reconnecting is entered when the transport drops while recording.
// The server keeps its status unchanged; only the mirror moves.
type Reconnecting struct {
	SessionID string
	Source    entities.SourceType
}

type Processing struct {
	SessionID string
}

type Completed struct {
	SessionID string
}

type Failed struct {
	Message string
}

func (Idle) isState()         {}
func (Recording) isState()    {}
func (Paused) isState()       {}
func (Reconnecting) isState() {}
func (Processing) isState()   {}
func (Completed) isState()    {}
func (Failed) isState()       {}

// Event is an input to the state machine.
type Event interface {
	isEvent()
}

type Start struct {
	SessionID string
	Source    entities.SourceType
}

type Pause struct{}

type Resume struct{}

type Stop struct{}

type TransportDisconnected struct{}

type TransportReconnected struct{}

type FinalizeSucceeded struct{}

type FinalizeFailed struct {
	Message string
}

type Reset struct{}

func (Start) isEvent()                 {}
func (Pause) isEvent()                 {}
func (Resume) isEvent()                {}
func (Stop) isEvent()                  {}
func (TransportDisconnected) isEvent() {}
func (TransportReconnected) isEvent()  {}
func (FinalizeSucceeded) isEvent()     {}
func (FinalizeFailed) isEvent()        {}
func (Reset) isEvent()                 {}

// Next applies an event to a state and returns the resulting state.
// Events not listed for the current state are deliberately ignored:
// stray late events from a disconnecting client must not corrupt the
// mirror, so an unmatched pair returns the state unchanged.
func Next(state State, event Event) State {
	switch s := state.(type) {
	case Idle:
		if ev, ok := event.(Start); ok {
			return Recording{SessionID: ev.SessionID, Source: ev.Source}
		}

	case Recording:
		switch event.(type) {
		case Pause:
			return Paused{SessionID: s.SessionID, Source: s.Source}
		case Stop:
			return Processing{SessionID: s.SessionID}
		case TransportDisconnected:
			return Reconnecting{SessionID: s.SessionID, Source: s.Source}
		}

	case Paused:
		switch event.(type) {
		case Resume:
			return Recording{SessionID: s.SessionID, Source: s.Source}
		case Stop:
			return Processing{SessionID: s.SessionID}
		}

	case Reconnecting:
		switch event.(type) {
		case TransportReconnected:
			return Recording{SessionID: s.SessionID, Source: s.Source}
		case Stop:
			return Processing{SessionID: s.SessionID}
		}

	case Processing:
		switch ev := event.(type) {
		case FinalizeSucceeded:
			return Completed{SessionID: s.SessionID}
		case FinalizeFailed:
			return Failed{Message: ev.Message}
		}

	case Completed:
		switch ev := event.(type) {
		case Start:
			return Recording{SessionID: ev.SessionID, Source: ev.Source}
		case Reset:
			return Idle{}
		}

	case Failed:
		if _, ok := event.(Reset); ok {
			return Idle{}
		}
	}

	return state
}

// FromServerStatus maps a broadcast server status onto the mirror for
// the given session. The server status set is a strict subset of the
// client states, so the mapping is total in this direction.
func FromServerStatus(status entities.SessionStatus, sessionID string, source entities.SourceType) State {
	switch status {
	case entities.SessionStatusRecording:
		return Recording{SessionID: sessionID, Source: source}
	case entities.SessionStatusPaused:
		return Paused{SessionID: sessionID, Source: source}
	case entities.SessionStatusProcessing:
		return Processing{SessionID: sessionID}
	case entities.SessionStatusCompleted:
		return Completed{SessionID: sessionID}
	case entities.SessionStatusError:
		return Failed{Message: "session failed"}
	}
	return Idle{}
}

// SessionID returns the session identifier carried by the state, or
// the empty string for states without one.
func SessionID(state State) string {
	switch s := state.(type) {
	case Recording:
		return s.SessionID
	case Paused:
		return s.SessionID
	case Reconnecting:
		return s.SessionID
	case Processing:
		return s.SessionID
	case Completed:
		return s.SessionID
	}
	return ""
}
