package bot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablestakes/holdemd/internal/broker"
	"github.com/tablestakes/holdemd/internal/game"
)

// fixedEngine returns a constant amount, to make fallback use visible.
type fixedEngine struct{ bet int }

func (e *fixedEngine) Decide(context.Context, *game.DecisionContext) (int, error) {
	return e.bet, nil
}

func solverDC() *game.DecisionContext {
	return &game.DecisionContext{
		RoomID:   "room-3",
		GameID:   88,
		Street:   game.Preflop,
		PlayerID: 7,
		Hand:     []string{"As", "Td"},
		Board:    []string{"2c"},
		PotTotal: 15,
		MinBet:   10,
		MaxBet:   990,
		History: []game.ResolvedAction{
			{PlayerID: 8, Street: game.Preflop, ActionNum: 1, ActionType: game.ActionSmallBlind, Amount: 5},
			{PlayerID: 7, Street: game.Preflop, ActionNum: 2, ActionType: game.ActionBigBlind, Amount: 10, PotBefore: 5},
		},
	}
}

func TestRemoteEngineUsesSolverReply(t *testing.T) {
	t.Parallel()

	var captured remoteRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/act", r.URL.Path)
		require.Equal(t, "Bearer sekrit", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(map[string]any{"bet": 42})
	}))
	defer srv.Close()

	e := NewRemoteEngine("hard", srv.URL, "sekrit", time.Second, &fixedEngine{bet: -1}, zerolog.Nop())
	bet, err := e.Decide(context.Background(), solverDC())
	require.NoError(t, err)
	assert.Equal(t, 42, bet)

	assert.Equal(t, "hard", captured.Difficulty)
	// Solver cards are suit-first.
	assert.Equal(t, []string{"sA", "dT"}, captured.Context.Hand)
	assert.Equal(t, []string{"c2"}, captured.Context.Board)
	assert.Equal(t, 10, captured.Context.MinBet)
	assert.Equal(t, "room-3", captured.Context.RoomID)
	assert.Equal(t, int64(88), captured.Context.GameID)
	require.Len(t, captured.Context.History, 2)
	assert.Equal(t, game.ActionBigBlind, captured.Context.History[1].ActionType)
}

func TestRemoteEngineFallsBackOnServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := NewRemoteEngine("easy", srv.URL, "", time.Second, &fixedEngine{bet: 5}, zerolog.Nop())
	bet, err := e.Decide(context.Background(), solverDC())
	require.NoError(t, err)
	assert.Equal(t, 5, bet)
}

func TestRemoteEngineFallsBackOnBadPayload(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"no_bet": true}`))
	}))
	defer srv.Close()

	e := NewRemoteEngine("easy", srv.URL, "", time.Second, &fixedEngine{bet: 5}, zerolog.Nop())
	bet, err := e.Decide(context.Background(), solverDC())
	require.NoError(t, err)
	assert.Equal(t, 5, bet)
}

func TestRemoteEngineWithoutURLIsLocal(t *testing.T) {
	t.Parallel()

	e := NewRemoteEngine("easy", "", "", time.Second, &fixedEngine{bet: 9}, zerolog.Nop())
	bet, err := e.Decide(context.Background(), solverDC())
	require.NoError(t, err)
	assert.Equal(t, 9, bet)
}

func TestRemoteEngineRoundsFractionalBets(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bet": 19.6}`))
	}))
	defer srv.Close()

	e := NewRemoteEngine("medium", srv.URL, "", time.Second, &fixedEngine{bet: -1}, zerolog.Nop())
	bet, err := e.Decide(context.Background(), solverDC())
	require.NoError(t, err)
	assert.Equal(t, 20, bet)
}

func TestBotChannelBehaviour(t *testing.T) {
	t.Parallel()

	ch := NewChannel()
	require.NoError(t, ch.Send(context.Background(), []byte("ignored")))

	_, err := ch.Recv(context.Background(), time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, broker.ErrMessageTimeout)
	assert.NoError(t, ch.Close())
}
