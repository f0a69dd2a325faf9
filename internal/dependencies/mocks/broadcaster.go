package mocks

import (
	"sync"

	"github.com/mcoot/drawguess/internal/model"
)

// RecordedEvent is an event captured by MockBroadcaster
type RecordedEvent struct {
	Room    model.LobbyID
	Event   model.EventType
	Payload any
}

// MockBroadcaster records room membership and broadcasts for testing
type MockBroadcaster struct {
	mu     sync.Mutex
	rooms  map[model.LobbyID]map[model.ConnectionRef]struct{}
	events []RecordedEvent
}

// NewMockBroadcaster creates an empty MockBroadcaster
func NewMockBroadcaster() *MockBroadcaster {
	return &MockBroadcaster{
		rooms: make(map[model.LobbyID]map[model.ConnectionRef]struct{}),
	}
}

// JoinRoom adds a connection to a room
func (b *MockBroadcaster) JoinRoom(conn model.ConnectionRef, room model.LobbyID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.rooms[room] == nil {
		b.rooms[room] = make(map[model.ConnectionRef]struct{})
	}
	b.rooms[room][conn] = struct{}{}
}

// LeaveRoom removes a connection from a room
func (b *MockBroadcaster) LeaveRoom(conn model.ConnectionRef, room model.LobbyID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.rooms[room], conn)
	if len(b.rooms[room]) == 0 {
		delete(b.rooms, room)
	}
}

// Broadcast records an event sent to a room
func (b *MockBroadcaster) Broadcast(room model.LobbyID, event model.EventType, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, RecordedEvent{Room: room, Event: event, Payload: payload})
}

// Events returns every recorded event in order
func (b *MockBroadcaster) Events() []RecordedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]RecordedEvent, len(b.events))
	copy(out, b.events)
	return out
}

// EventsOfType returns the recorded events with the given type
func (b *MockBroadcaster) EventsOfType(event model.EventType) []RecordedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []RecordedEvent
	for _, e := range b.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

// Last returns the most recent event of the given type
func (b *MockBroadcaster) Last(event model.EventType) (RecordedEvent, bool) {
	events := b.EventsOfType(event)
	if len(events) == 0 {
		return RecordedEvent{}, false
	}
	return events[len(events)-1], true
}

// RoomMembers returns the connections currently in a room
func (b *MockBroadcaster) RoomMembers(room model.LobbyID) []model.ConnectionRef {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []model.ConnectionRef
	for conn := range b.rooms[room] {
		out = append(out, conn)
	}
	return out
}

// Reset clears recorded events
func (b *MockBroadcaster) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = nil
}
