package websocket

import (
	"sync"
	"testing"

	"go.uber.org/zap"
)

type recordingSubscriber struct {
	mu     sync.Mutex
	events []interface{}
}

func (r *recordingSubscriber) SendEvent(event interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingSubscriber) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestHubJoinAndBroadcast(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil)
	a := &recordingSubscriber{}
	b := &recordingSubscriber{}
	outsider := &recordingSubscriber{}

	hub.Join("s1", a)
	hub.Join("s1", b)
	hub.Join("s2", outsider)

	hub.Broadcast("s1", NewStatusEvent("s1", "RECORDING"))

	if a.count() != 1 || b.count() != 1 {
		t.Errorf("room members got %d and %d events, want 1 each", a.count(), b.count())
	}
	if outsider.count() != 0 {
		t.Errorf("other room got %d events, want 0", outsider.count())
	}
}

func TestHubBroadcastToEmptyRoom(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil)

	// Must not panic or block.
	hub.Broadcast("nobody-here", NewStatusEvent("nobody-here", "RECORDING"))
}

func TestHubDoubleJoinIsIdempotent(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil)
	a := &recordingSubscriber{}

	hub.Join("s1", a)
	hub.Join("s1", a)

	if size := hub.RoomSize("s1"); size != 1 {
		t.Errorf("RoomSize = %d, want 1 after duplicate join", size)
	}

	hub.Broadcast("s1", NewStatusEvent("s1", "RECORDING"))
	if a.count() != 1 {
		t.Errorf("subscriber got %d events, want 1", a.count())
	}
}

func TestHubLeave(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil)
	a := &recordingSubscriber{}
	b := &recordingSubscriber{}

	hub.Join("s1", a)
	hub.Join("s1", b)
	hub.Leave("s1", a)

	hub.Broadcast("s1", NewStatusEvent("s1", "PAUSED"))

	if a.count() != 0 {
		t.Errorf("departed subscriber got %d events, want 0", a.count())
	}
	if b.count() != 1 {
		t.Errorf("remaining subscriber got %d events, want 1", b.count())
	}
	if size := hub.RoomSize("s1"); size != 1 {
		t.Errorf("RoomSize = %d, want 1", size)
	}
}

func TestHubLeaveAllRemovesFromEveryRoom(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil)
	a := &recordingSubscriber{}

	hub.Join("s1", a)
	hub.Join("s2", a)
	hub.LeaveAll(a)

	hub.Broadcast("s1", NewStatusEvent("s1", "RECORDING"))
	hub.Broadcast("s2", NewStatusEvent("s2", "RECORDING"))

	if a.count() != 0 {
		t.Errorf("subscriber got %d events after LeaveAll, want 0", a.count())
	}
	if hub.RoomSize("s1") != 0 || hub.RoomSize("s2") != 0 {
		t.Error("rooms should be empty after LeaveAll")
	}
}

func TestHubConcurrentJoinBroadcastLeave(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := &recordingSubscriber{}
			hub.Join("s1", sub)
			hub.Broadcast("s1", NewStatusEvent("s1", "RECORDING"))
			hub.LeaveAll(sub)
		}()
	}
	wg.Wait()

	if size := hub.RoomSize("s1"); size != 0 {
		t.Errorf("RoomSize = %d, want 0 after all subscribers left", size)
	}
}
