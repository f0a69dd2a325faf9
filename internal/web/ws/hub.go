package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/drawguess/internal/model"
)

// ErrClientNotFound is returned when sending to an unknown connection
var ErrClientNotFound = errors.New("client not found")

// Envelope is the frame format in both directions
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Hub tracks live connections and the lobby rooms they belong to.
//
// Sends never block: a client whose buffer is full misses the frame.
type Hub struct {
	mu      sync.RWMutex
	clients map[model.ConnectionRef]*Client
	rooms   map[model.LobbyID]map[model.ConnectionRef]struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[model.ConnectionRef]*Client),
		rooms:   make(map[model.LobbyID]map[model.ConnectionRef]struct{}),
		logger:  logger.With(slog.String("component", "ws-hub")),
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client.ref] = client
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("ws client registered",
		slog.String("conn", string(client.ref)),
		slog.Int("total_clients", count))
}

// Unregister removes a client from the hub and every room, closing its
// send channel
func (h *Hub) Unregister(ref model.ConnectionRef) {
	h.mu.Lock()
	client, ok := h.clients[ref]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, ref)
	for id, members := range h.rooms {
		delete(members, ref)
		if len(members) == 0 {
			delete(h.rooms, id)
		}
	}
	close(client.send)
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("ws client unregistered",
		slog.String("conn", string(ref)),
		slog.Duration("connection_duration", time.Since(client.connectedAt)),
		slog.Int("total_clients", count))
}

// JoinRoom subscribes a connection to a lobby's broadcasts
func (h *Hub) JoinRoom(ref model.ConnectionRef, lobbyID model.LobbyID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[ref]; !ok {
		return
	}
	members, ok := h.rooms[lobbyID]
	if !ok {
		members = make(map[model.ConnectionRef]struct{})
		h.rooms[lobbyID] = members
	}
	members[ref] = struct{}{}
}

// LeaveRoom unsubscribes a connection from a lobby's broadcasts
func (h *Hub) LeaveRoom(ref model.ConnectionRef, lobbyID model.LobbyID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[lobbyID]
	if !ok {
		return
	}
	delete(members, ref)
	if len(members) == 0 {
		delete(h.rooms, lobbyID)
	}
}

// Broadcast sends an event to every connection in a lobby's room
func (h *Hub) Broadcast(lobbyID model.LobbyID, event model.EventType, payload any) {
	msg, err := encode(event, payload)
	if err != nil {
		h.logger.Error("failed to encode broadcast",
			slog.String("event", string(event)),
			slog.String("error", err.Error()))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	dropped := 0
	for ref := range h.rooms[lobbyID] {
		if client, ok := h.clients[ref]; ok && !client.trySend(msg) {
			dropped++
			h.logger.Warn("ws message dropped - client buffer full",
				slog.String("conn", string(ref)),
				slog.String("event", string(event)))
		}
	}
	if dropped > 0 {
		h.logger.Warn("ws broadcast partial failure",
			slog.String("lobby_id", string(lobbyID)),
			slog.Int("dropped", dropped))
	}
}

// Send delivers an event to a single connection
func (h *Hub) Send(ref model.ConnectionRef, event model.EventType, payload any) error {
	msg, err := encode(event, payload)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	client, ok := h.clients[ref]
	if !ok {
		return ErrClientNotFound
	}
	if !client.trySend(msg) {
		h.logger.Warn("ws message dropped - client buffer full",
			slog.String("conn", string(ref)),
			slog.String("event", string(event)))
	}
	return nil
}

// ClientCount returns the number of registered connections
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomSize returns the number of connections subscribed to a lobby
func (h *Hub) RoomSize(lobbyID model.LobbyID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[lobbyID])
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	count := len(h.clients)
	for ref, client := range h.clients {
		close(client.send)
		delete(h.clients, ref)
	}
	h.rooms = make(map[model.LobbyID]map[model.ConnectionRef]struct{})
	h.mu.Unlock()
	h.logger.Info("ws hub stopped", slog.Int("disconnected_clients", count))
}

func encode(event model.EventType, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: string(event), Data: data})
}
