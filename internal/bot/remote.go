package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tablestakes/holdemd/internal/game"
)

// RemoteEngine asks an external solver service for decisions and falls
// back to the tabular strategy whenever the call fails.
type RemoteEngine struct {
	difficulty string
	baseURL    string
	token      string
	timeout    time.Duration
	client     *http.Client
	fallback   game.DecisionEngine
	logger     zerolog.Logger
}

// NewRemoteEngine creates an engine posting to baseURL/act. An empty
// baseURL disables the remote call entirely.
func NewRemoteEngine(difficulty, baseURL, token string, timeout time.Duration, fallback game.DecisionEngine, logger zerolog.Logger) *RemoteEngine {
	if timeout <= 0 {
		timeout = 1200 * time.Millisecond
	}
	return &RemoteEngine{
		difficulty: difficulty,
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		timeout:    timeout,
		client:     &http.Client{Timeout: timeout},
		fallback:   fallback,
		logger:     logger.With().Str("component", "remote-engine").Str("difficulty", difficulty).Logger(),
	}
}

// remoteContext is the solver's view of a turn. Cards go out suit
// first ("sA", "dT"), the reverse of the table wire form.
type remoteContext struct {
	RoomID     string                `json:"room_id"`
	GameID     int64                 `json:"game_id"`
	Street     int                   `json:"street"`
	PlayerID   int64                 `json:"player_id"`
	Seat       int                   `json:"seat"`
	Hand       []string              `json:"hand"`
	Board      []string              `json:"board"`
	Players    []game.DecisionPlayer `json:"players"`
	PotTotal   int                   `json:"pot_total"`
	StreetBets int                   `json:"street_bets"`
	MinBet     int                   `json:"min_bet"`
	MaxBet     int                   `json:"max_bet"`
	ToCall     int                   `json:"to_call"`
	History    []game.ResolvedAction `json:"action_history"`
}

type remoteRequest struct {
	Difficulty string        `json:"difficulty"`
	Context    remoteContext `json:"context"`
}

type remoteResponse struct {
	Bet *float64 `json:"bet"`
}

// Decide implements game.DecisionEngine.
func (e *RemoteEngine) Decide(ctx context.Context, dc *game.DecisionContext) (int, error) {
	if e.baseURL == "" {
		return e.fallback.Decide(ctx, dc)
	}

	bet, err := e.call(ctx, dc)
	if err != nil {
		e.logger.Warn().Err(err).Msg("solver call failed, using tabular fallback")
		return e.fallback.Decide(ctx, dc)
	}
	return bet, nil
}

func (e *RemoteEngine) call(ctx context.Context, dc *game.DecisionContext) (int, error) {
	body, err := json.Marshal(remoteRequest{
		Difficulty: e.difficulty,
		Context:    solverContext(dc),
	})
	if err != nil {
		return 0, err
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, e.baseURL+"/act", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("solver returned status %d", resp.StatusCode)
	}

	var parsed remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("decoding solver response: %w", err)
	}
	if parsed.Bet == nil {
		return 0, fmt.Errorf("solver response has no bet")
	}
	return int(math.Round(*parsed.Bet)), nil
}

func solverContext(dc *game.DecisionContext) remoteContext {
	return remoteContext{
		RoomID:     dc.RoomID,
		GameID:     dc.GameID,
		Street:     int(dc.Street),
		PlayerID:   dc.PlayerID,
		Seat:       dc.Seat,
		Hand:       solverCards(dc.Hand),
		Board:      solverCards(dc.Board),
		Players:    dc.Players,
		PotTotal:   dc.PotTotal,
		StreetBets: dc.StreetBets,
		MinBet:     dc.MinBet,
		MaxBet:     dc.MaxBet,
		ToCall:     dc.ToCall,
		History:    dc.History,
	}
}

func solverCards(cards []string) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		if len(c) == 2 {
			out[i] = string(c[1]) + string(c[0])
		} else {
			out[i] = c
		}
	}
	return out
}
