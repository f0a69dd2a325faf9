package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/drawguess/internal/model"
	"github.com/mcoot/drawguess/internal/testutil"
)

func registered(h *Hub, ref string) *Client {
	c := newClient(model.ConnectionRef(ref), nil, testutil.NopLogger())
	h.Register(c)
	return c
}

func receive(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case msg := <-c.send:
		var env Envelope
		require.NoError(t, json.Unmarshal(msg, &env))
		return env
	default:
		t.Fatal("expected a queued message")
		return Envelope{}
	}
}

func TestHubBroadcastReachesOnlyRoomMembers(t *testing.T) {
	h := NewHub(testutil.NopLogger())
	a := registered(h, "a")
	b := registered(h, "b")
	other := registered(h, "other")

	h.JoinRoom(a.ref, "ROOM1")
	h.JoinRoom(b.ref, "ROOM1")
	h.JoinRoom(other.ref, "ROOM2")

	h.Broadcast("ROOM1", model.EventGameStarting, model.GameStartingPayload{Countdown: 3})

	for _, c := range []*Client{a, b} {
		env := receive(t, c)
		assert.Equal(t, "game_starting", env.Type)
		assert.JSONEq(t, `{"countdown":3}`, string(env.Data))
	}
	assert.Len(t, other.send, 0)
}

func TestHubLeaveRoomStopsDelivery(t *testing.T) {
	h := NewHub(testutil.NopLogger())
	a := registered(h, "a")
	h.JoinRoom(a.ref, "ROOM1")
	assert.Equal(t, 1, h.RoomSize("ROOM1"))

	h.LeaveRoom(a.ref, "ROOM1")
	assert.Equal(t, 0, h.RoomSize("ROOM1"))

	h.Broadcast("ROOM1", model.EventGameStarting, model.GameStartingPayload{Countdown: 3})
	assert.Len(t, a.send, 0)
}

func TestHubJoinRoomIgnoresUnknownConnection(t *testing.T) {
	h := NewHub(testutil.NopLogger())
	h.JoinRoom("ghost", "ROOM1")
	assert.Equal(t, 0, h.RoomSize("ROOM1"))
}

func TestHubUnregisterClosesSendAndLeavesRooms(t *testing.T) {
	h := NewHub(testutil.NopLogger())
	a := registered(h, "a")
	h.JoinRoom(a.ref, "ROOM1")

	h.Unregister(a.ref)

	_, open := <-a.send
	assert.False(t, open)
	assert.Equal(t, 0, h.ClientCount())
	assert.Equal(t, 0, h.RoomSize("ROOM1"))

	// a second unregister is a no-op
	h.Unregister(a.ref)
}

func TestHubSend(t *testing.T) {
	h := NewHub(testutil.NopLogger())
	a := registered(h, "a")

	require.NoError(t, h.Send(a.ref, model.EventLeftLobby, LeftLobbyPayload{LobbyID: "ROOM1"}))
	env := receive(t, a)
	assert.Equal(t, "left_lobby", env.Type)
	assert.JSONEq(t, `{"lobby_id":"ROOM1"}`, string(env.Data))

	assert.ErrorIs(t, h.Send("ghost", model.EventLeftLobby, nil), ErrClientNotFound)
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	logger, logs := testutil.CaptureLogger()
	h := NewHub(logger)
	a := registered(h, "a")
	h.JoinRoom(a.ref, "ROOM1")

	for i := 0; i < sendBufferSize+10; i++ {
		h.Broadcast("ROOM1", model.EventGameStarting, model.GameStartingPayload{Countdown: i})
	}
	assert.Len(t, a.send, sendBufferSize)
	assert.Contains(t, logs.String(), "client buffer full")
	assert.Contains(t, logs.String(), `"level":"WARN"`)
}

func TestHubClose(t *testing.T) {
	h := NewHub(testutil.NopLogger())
	a := registered(h, "a")
	h.JoinRoom(a.ref, "ROOM1")

	h.Close()

	_, open := <-a.send
	assert.False(t, open)
	assert.Equal(t, 0, h.ClientCount())
	h.Unregister(a.ref)
}

func TestPredictionPayloadRoundsConfidence(t *testing.T) {
	payload := predictionPayload(model.GuessResult{
		Predictions: []model.Prediction{{Label: "cat", Confidence: 0.87654}},
		IsCorrect:   true,
	})
	require.Len(t, payload.Predictions, 1)
	assert.Equal(t, 0.877, payload.Predictions[0].Confidence)
	assert.True(t, payload.IsCorrect)

	empty := predictionPayload(model.GuessResult{})
	assert.NotNil(t, empty.Predictions)
}

func TestToErrorPayload(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		fallback string
		code     string
	}{
		{"command error keeps its code", invalidData("bad"), CodeJoinFailed, CodeInvalidData},
		{"unknown player", model.ErrPlayerNotFound, CodeCreateFailed, CodeNotAuthenticated},
		{"not in lobby", model.ErrNotInLobby, CodeInvalidData, CodeNotInLobby},
		{"lobby not found", model.ErrLobbyNotFound, CodeJoinFailed, CodeLobbyNotFound},
		{"full lobby uses fallback", model.ErrLobbyFull, CodeJoinFailed, CodeJoinFailed},
		{"mid-match uses fallback", model.ErrGameInProgress, CodeInvalidData, CodeInvalidData},
		{"invalid drawing", model.ErrInvalidDrawing, CodeJoinFailed, CodeInvalidData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, toErrorPayload(tt.err, tt.fallback).Code)
		})
	}
}
