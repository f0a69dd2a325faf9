package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/drawguess/internal/dependencies/mocks"
	"github.com/mcoot/drawguess/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	clock   *mocks.MockClock
	random  *mocks.MockRandom
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.storage = New(s.clock, s.random)
	s.ctx = context.Background()
}

// Player tests

func (s *StorageSuite) TestAddAndGetPlayer() {
	player := model.NewPlayer("player-1", "conn-1", "Alice", s.clock.Now())

	err := s.storage.AddPlayer(s.ctx, player)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetPlayer(s.ctx, "player-1")
	s.Require().NoError(err)
	s.Same(player, retrieved)

	byConn, err := s.storage.GetPlayerByConnection(s.ctx, "conn-1")
	s.Require().NoError(err)
	s.Same(player, byConn)
}

func (s *StorageSuite) TestGetPlayerNotFound() {
	_, err := s.storage.GetPlayer(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrPlayerNotFound)

	_, err = s.storage.GetPlayerByConnection(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestRemovePlayer() {
	player := model.NewPlayer("player-1", "conn-1", "Alice", s.clock.Now())
	_ = s.storage.AddPlayer(s.ctx, player)

	removed, err := s.storage.RemovePlayer(s.ctx, "player-1")
	s.Require().NoError(err)
	s.Same(player, removed)

	_, err = s.storage.GetPlayer(s.ctx, "player-1")
	s.ErrorIs(err, model.ErrPlayerNotFound)
	_, err = s.storage.GetPlayerByConnection(s.ctx, "conn-1")
	s.ErrorIs(err, model.ErrPlayerNotFound)

	_, err = s.storage.RemovePlayer(s.ctx, "player-1")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// Lobby tests

func (s *StorageSuite) TestCreateLobbyUsesGeneratedCode() {
	s.random.QueueString("ABC234")

	lobby, err := s.storage.CreateLobby(s.ctx, 4)
	s.Require().NoError(err)
	s.Equal(model.LobbyID("ABC234"), lobby.ID)
	s.Equal(4, lobby.MaxPlayers)
	s.Equal(model.LobbyStateWaiting, lobby.State)

	retrieved, err := s.storage.GetLobby(s.ctx, "ABC234")
	s.Require().NoError(err)
	s.Same(lobby, retrieved)
}

func (s *StorageSuite) TestCreateLobbyRetriesOnCollision() {
	s.random.QueueString("AAAAAA", "AAAAAA", "", "BBBBBB")

	first, err := s.storage.CreateLobby(s.ctx, 4)
	s.Require().NoError(err)
	second, err := s.storage.CreateLobby(s.ctx, 4)
	s.Require().NoError(err)

	s.Equal(model.LobbyID("AAAAAA"), first.ID)
	s.Equal(model.LobbyID("BBBBBB"), second.ID)
}

func (s *StorageSuite) TestCreateLobbyGivesUpAfterRepeatedCollisions() {
	s.random.QueueString("AAAAAA")
	_, err := s.storage.CreateLobby(s.ctx, 4)
	s.Require().NoError(err)

	for i := 0; i < lobbyCodeAttempts; i++ {
		s.random.QueueString("AAAAAA")
	}
	_, err = s.storage.CreateLobby(s.ctx, 4)
	s.ErrorIs(err, ErrLobbyCodeExhausted)
}

func (s *StorageSuite) TestGetLobbyNotFound() {
	_, err := s.storage.GetLobby(s.ctx, "NOPE22")
	s.ErrorIs(err, model.ErrLobbyNotFound)
}

func (s *StorageSuite) TestRemoveLobbyClosesItAndDropsGame() {
	s.random.QueueString("ABC234")
	lobby, _ := s.storage.CreateLobby(s.ctx, 4)
	alice := model.NewPlayer("p1", "c1", "Alice", s.clock.Now())
	bob := model.NewPlayer("p2", "c2", "Bob", s.clock.Now())
	s.Require().NoError(lobby.AddPlayer(alice))
	s.Require().NoError(lobby.AddPlayer(bob))
	game := lobby.StartNewGame("game-1", time.Minute, s.clock.Now())
	s.Require().NoError(s.storage.AddGame(s.ctx, game))

	lobby.Lock()
	err := s.storage.RemoveLobby(s.ctx, lobby.ID)
	lobby.Unlock()
	s.Require().NoError(err)

	s.True(lobby.IsClosed())
	_, err = s.storage.GetLobby(s.ctx, "ABC234")
	s.ErrorIs(err, model.ErrLobbyNotFound)
	_, err = s.storage.GetGame(s.ctx, "game-1")
	s.ErrorIs(err, model.ErrGameNotFound)

	err = s.storage.RemoveLobby(s.ctx, lobby.ID)
	s.ErrorIs(err, model.ErrLobbyNotFound)
}

func (s *StorageSuite) TestListJoinableLobbies() {
	s.random.QueueString("OPEN22", "FULL22", "PLAY22")

	open, _ := s.storage.CreateLobby(s.ctx, 4)
	s.clock.Advance(time.Second)
	full, _ := s.storage.CreateLobby(s.ctx, 1)
	s.clock.Advance(time.Second)
	playing, _ := s.storage.CreateLobby(s.ctx, 4)

	s.Require().NoError(full.AddPlayer(model.NewPlayer("p1", "c1", "Alice", s.clock.Now())))
	s.Require().NoError(playing.AddPlayer(model.NewPlayer("p2", "c2", "Bob", s.clock.Now())))
	s.Require().NoError(playing.AddPlayer(model.NewPlayer("p3", "c3", "Carol", s.clock.Now())))
	playing.StartNewGame("game-1", time.Minute, s.clock.Now())

	lobbies, err := s.storage.ListJoinableLobbies(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(lobbies, 1)
	s.Same(open, lobbies[0])
}

func (s *StorageSuite) TestListJoinableLobbiesOrdersOldestFirst() {
	s.random.QueueString("SECOND", "FIRSTX")
	older, _ := s.storage.CreateLobby(s.ctx, 4)
	s.clock.Advance(time.Second)
	newer, _ := s.storage.CreateLobby(s.ctx, 4)

	lobbies, err := s.storage.ListJoinableLobbies(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(lobbies, 2)
	s.Same(older, lobbies[0])
	s.Same(newer, lobbies[1])
}

// Game tests

func (s *StorageSuite) TestAddGetRemoveGame() {
	game := model.NewGame("game-1", "ABC234", nil, 5, 4, time.Minute, s.clock.Now())

	s.Require().NoError(s.storage.AddGame(s.ctx, game))
	retrieved, err := s.storage.GetGame(s.ctx, "game-1")
	s.Require().NoError(err)
	s.Same(game, retrieved)

	s.Require().NoError(s.storage.RemoveGame(s.ctx, "game-1"))
	_, err = s.storage.GetGame(s.ctx, "game-1")
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *StorageSuite) TestStats() {
	s.random.QueueString("ABC234")
	_ = s.storage.AddPlayer(s.ctx, model.NewPlayer("p1", "c1", "Alice", s.clock.Now()))
	_ = s.storage.AddPlayer(s.ctx, model.NewPlayer("p2", "c2", "Bob", s.clock.Now()))
	_, _ = s.storage.CreateLobby(s.ctx, 4)
	_ = s.storage.AddGame(s.ctx, model.NewGame("game-1", "ABC234", nil, 5, 4, time.Minute, s.clock.Now()))

	stats := s.storage.Stats(s.ctx)
	s.Equal(2, stats.Players)
	s.Equal(2, stats.Connections)
	s.Equal(1, stats.Lobbies)
	s.Equal(1, stats.Games)
}
