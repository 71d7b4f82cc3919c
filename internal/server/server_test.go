package server

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablestakes/holdemd/internal/broker"
	"github.com/tablestakes/holdemd/internal/config"
	"github.com/tablestakes/holdemd/internal/protocol"
	"github.com/tablestakes/holdemd/internal/store"
)

// memBroker serves queues and session channels in memory and keeps the
// channels reachable for assertions.
type memBroker struct {
	lobby   *broker.MemoryQueue
	control *broker.MemoryQueue

	mu       sync.Mutex
	sessions map[string]*broker.MemoryChannel
}

func newMemBroker() *memBroker {
	return &memBroker{
		lobby:    broker.NewMemoryQueue(),
		control:  broker.NewMemoryQueue(),
		sessions: make(map[string]*broker.MemoryChannel),
	}
}

func (b *memBroker) LobbyQueue() broker.Queue       { return b.lobby }
func (b *memBroker) RoomControlQueue() broker.Queue { return b.control }

func (b *memBroker) SessionChannel(playerID int64, sessionID string) broker.Channel {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := fmt.Sprintf("%d/%s", playerID, sessionID)
	if ch, ok := b.sessions[key]; ok {
		return ch
	}
	ch := broker.NewMemoryChannel()
	b.sessions[key] = ch
	return ch
}

func (b *memBroker) session(playerID int64, sessionID string) *broker.MemoryChannel {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessions[fmt.Sprintf("%d/%s", playerID, sessionID)]
}

func testServer(t *testing.T) (*Server, *memBroker) {
	t.Helper()

	cfg := config.Default()
	cfg.Game.RevealPauseSec = 0

	st, err := store.Open(filepath.Join(t.TempDir(), "server.db"), quartz.NewReal(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	b := newMemBroker()
	return New(cfg, quartz.NewReal(), st, b, zerolog.Nop()), b
}

func lobbyPayload(t *testing.T, id int64, name, session, roomID string) []byte {
	t.Helper()
	payload, err := json.Marshal(protocol.LobbyRequest{
		SessionID:    session,
		TimeoutEpoch: time.Now().Add(time.Minute).Unix(),
		Player:       protocol.PlayerDTO{ID: id, Name: name, Money: 3000},
		RoomID:       roomID,
	})
	require.NoError(t, err)
	return payload
}

func drainTypes(t *testing.T, ch *broker.MemoryChannel) []string {
	t.Helper()
	var types []string
	for {
		payload, ok := ch.ClientRecv()
		if !ok {
			return types
		}
		tag, err := protocol.PeekType(payload)
		require.NoError(t, err)
		types = append(types, tag)
	}
}

func TestConnectPlayerAcknowledgesAndSeats(t *testing.T) {
	t.Parallel()

	s, b := testServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.connectPlayer(ctx, lobbyPayload(t, 1, "alice", "sess-1", "alpha")))

	r := s.Room("alpha")
	require.NotNil(t, r)
	require.Len(t, r.Players(), 1)
	assert.Equal(t, int64(1), r.Owner())

	ch := b.session(1, "sess-1")
	require.NotNil(t, ch)
	types := drainTypes(t, ch)
	require.NotEmpty(t, types)
	assert.Equal(t, protocol.TypeConnect, types[0], "ack precedes room traffic")
	assert.Contains(t, types, protocol.TypeRoomUpdate)
}

func TestConnectPlayerValidation(t *testing.T) {
	t.Parallel()

	s, _ := testServer(t)
	ctx := context.Background()

	expired, err := json.Marshal(protocol.LobbyRequest{
		SessionID:    "s",
		TimeoutEpoch: time.Now().Add(-time.Minute).Unix(),
		Player:       protocol.PlayerDTO{ID: 1, Name: "a"},
	})
	require.NoError(t, err)
	assert.ErrorIs(t, s.connectPlayer(ctx, expired), broker.ErrMessageTimeout)

	missing, err := json.Marshal(protocol.LobbyRequest{
		TimeoutEpoch: time.Now().Add(time.Minute).Unix(),
		Player:       protocol.PlayerDTO{ID: 1, Name: "a"},
	})
	require.NoError(t, err)
	assert.ErrorIs(t, s.connectPlayer(ctx, missing), broker.ErrMessageFormat)

	assert.ErrorIs(t, s.connectPlayer(ctx, []byte("{not json")), broker.ErrMessageFormat)
}

func TestConnectPlayerDropsOversizedAvatar(t *testing.T) {
	t.Parallel()

	s, b := testServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	payload, err := json.Marshal(protocol.LobbyRequest{
		SessionID:    "sess-1",
		TimeoutEpoch: time.Now().Add(time.Minute).Unix(),
		Player: protocol.PlayerDTO{
			ID: 1, Name: "alice",
			Avatar: strings.Repeat("x", s.cfg.Game.AvatarLimitBytes+1),
		},
		RoomID: "alpha",
	})
	require.NoError(t, err)
	require.NoError(t, s.connectPlayer(ctx, payload))

	raw, ok := b.session(1, "sess-1").ClientRecv()
	require.True(t, ok)
	var ack protocol.Connect
	require.NoError(t, json.Unmarshal(raw, &ack))
	assert.Empty(t, ack.Player.Avatar)
}

func TestConnectPlayerReconnectSameRoom(t *testing.T) {
	t.Parallel()

	s, b := testServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.connectPlayer(ctx, lobbyPayload(t, 1, "alice", "sess-1", "alpha")))
	require.NoError(t, s.connectPlayer(ctx, lobbyPayload(t, 1, "alice", "sess-2", "alpha")))

	r := s.Room("alpha")
	require.Len(t, r.Players(), 1, "reconnect does not occupy a second seat")

	types := drainTypes(t, b.session(1, "sess-2"))
	assert.Contains(t, types, protocol.TypePlayerRejoined)
}

func TestUnaddressedJoinSkipsPrivateRooms(t *testing.T) {
	t.Parallel()

	s, _ := testServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A named join creates a private table.
	require.NoError(t, s.connectPlayer(ctx, lobbyPayload(t, 1, "alice", "sess-1", "alpha")))
	require.True(t, s.Room("alpha").Private())

	// An unaddressed join must not land in it.
	require.NoError(t, s.connectPlayer(ctx, lobbyPayload(t, 2, "bob", "sess-2", "")))
	require.Len(t, s.Room("alpha").Players(), 1)

	r := s.Room("room-1")
	require.NotNil(t, r)
	require.False(t, r.Private())
	require.Len(t, r.Players(), 1)

	// The next unaddressed join fills the public room.
	require.NoError(t, s.connectPlayer(ctx, lobbyPayload(t, 3, "carol", "sess-3", "")))
	require.Len(t, r.Players(), 2)
}

func TestRoomControlAddAndRemoveBot(t *testing.T) {
	t.Parallel()

	s, _ := testServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.connectPlayer(ctx, lobbyPayload(t, 1, "alice", "sess-1", "alpha")))

	seat := 1
	addBot, err := json.Marshal(protocol.RoomControl{
		MessageType: protocol.TypeRoomControl,
		RoomID:      "alpha",
		PlayerID:    1,
		SessionID:   "sess-1",
		Action:      protocol.RoomControlAddBot,
		SeatIndex:   &seat,
		Difficulty:  "hard",
	})
	require.NoError(t, err)
	require.NoError(t, s.handleRoomControl(ctx, addBot))

	players := s.Room("alpha").Players()
	require.Len(t, players, 2)
	assert.True(t, players[1].IsBot())
	assert.Equal(t, "hard", players[1].Difficulty)

	removeBot, err := json.Marshal(protocol.RoomControl{
		MessageType: protocol.TypeRoomControl,
		RoomID:      "alpha",
		PlayerID:    1,
		SessionID:   "sess-1",
		Action:      protocol.RoomControlRemoveBot,
		SeatIndex:   &seat,
	})
	require.NoError(t, err)
	require.NoError(t, s.handleRoomControl(ctx, removeBot))
	assert.Len(t, s.Room("alpha").Players(), 1)
}

func TestRoomControlErrorsReachRequester(t *testing.T) {
	t.Parallel()

	s, b := testServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.connectPlayer(ctx, lobbyPayload(t, 1, "alice", "sess-1", "alpha")))
	require.NoError(t, s.connectPlayer(ctx, lobbyPayload(t, 2, "bob", "sess-2", "alpha")))
	drainTypes(t, b.session(2, "sess-2"))

	// Bob is not the owner.
	seat := 3
	addBot, err := json.Marshal(protocol.RoomControl{
		MessageType: protocol.TypeRoomControl,
		RoomID:      "alpha",
		PlayerID:    2,
		SessionID:   "sess-2",
		Action:      protocol.RoomControlAddBot,
		SeatIndex:   &seat,
	})
	require.NoError(t, err)
	require.Error(t, s.handleRoomControl(ctx, addBot))

	types := drainTypes(t, b.session(2, "sess-2"))
	assert.Contains(t, types, protocol.TypeError)

	// Unknown room errors go back too.
	unknown, err := json.Marshal(protocol.RoomControl{
		MessageType: protocol.TypeRoomControl,
		RoomID:      "nowhere",
		PlayerID:    2,
		SessionID:   "sess-2",
		Action:      protocol.RoomControlAddBot,
		SeatIndex:   &seat,
	})
	require.NoError(t, err)
	require.Error(t, s.handleRoomControl(ctx, unknown))
	assert.Contains(t, drainTypes(t, b.session(2, "sess-2")), protocol.TypeError)
}

func TestLobbyLoopEndToEnd(t *testing.T) {
	t.Parallel()

	s, b := testServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.lobbyLoop(ctx)
		close(done)
	}()

	require.NoError(t, b.lobby.Push(ctx, lobbyPayload(t, 1, "alice", "sess-1", "alpha")))

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if r := s.Room("alpha"); r != nil && len(r.Players()) == 1 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	r := s.Room("alpha")
	require.NotNil(t, r)
	assert.Len(t, r.Players(), 1)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("lobby loop did not stop")
	}
}
