// Package protocol defines the wire messages exchanged with the
// gateway over broker channels. Every frame is a JSON object tagged by
// message_type; unknown tags are rejected at the transport boundary.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/tablestakes/holdemd/internal/broker"
)

// Message type tags.
const (
	// Server -> client
	TypeConnect            = "connect"
	TypeRoomUpdate         = "room-update"
	TypeGameUpdate         = "game-update"
	TypeNewGame            = "new-game"
	TypeBetRequest         = "bet-request"
	TypeBet                = "bet"
	TypeSharedCards        = "shared-cards"
	TypeCards              = "cards"
	TypeDeadPlayer         = "dead-player"
	TypeWinnerDesignation  = "winner-designation"
	TypeGameOver           = "game-over"
	TypeUpdateRankingData  = "update-ranking-data"
	TypeFinalHandsStarted  = "final-hands-started"
	TypeFinalHandsUpdate   = "final-hands-update"
	TypeFinalHandsFinished = "final-hands-finished"
	TypePlayerRejoined     = "player-rejoined"
	TypePing               = "ping"
	TypeDisconnect         = "disconnect"
	TypeError              = "error"

	// Client -> server
	TypePong        = "pong"
	TypeChatMessage = "chat_message"
	TypeInteraction = "interaction"
	TypeRoomControl = "room-control"
)

// PlayerDTO is the player shape shared with the gateway.
type PlayerDTO struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Money  int    `json:"money"`
	Avatar string `json:"avatar,omitempty"`
}

// LobbyRequest is what the gateway pushes onto the lobby FIFO for each
// connecting player.
type LobbyRequest struct {
	SessionID    string    `json:"session_id"`
	TimeoutEpoch int64     `json:"timeout_epoch"`
	Player       PlayerDTO `json:"player"`
	RoomID       string    `json:"room_id"`
}

// Connect acknowledges a lobby request on the player's outbound channel.
type Connect struct {
	MessageType string    `json:"message_type"`
	ServerID    string    `json:"server_id"`
	Player      PlayerDTO `json:"player"`
}

// SeatDTO is one seat in a room snapshot; PlayerID is nil for an
// empty seat.
type SeatDTO struct {
	Index    int    `json:"index"`
	PlayerID *int64 `json:"player_id,omitempty"`
	Name     string `json:"name,omitempty"`
	Money    int    `json:"money,omitempty"`
	Bot      bool   `json:"bot,omitempty"`
}

// RoomUpdate is broadcast whenever seating or readiness changes.
type RoomUpdate struct {
	MessageType string    `json:"message_type"`
	RoomID      string    `json:"room_id"`
	OwnerID     int64     `json:"owner_id"`
	Seats       []SeatDTO `json:"seats"`
}

// NewGame announces a new hand: dealer and participating players.
type NewGame struct {
	MessageType string  `json:"message_type"`
	DealerID    int64   `json:"dealer_id"`
	PlayerIDs   []int64 `json:"player_ids"`
}

// GameUpdate is broadcast after any state change inside a hand.
type GameUpdate struct {
	MessageType string    `json:"message_type"`
	Street      int       `json:"street"`
	Pots        []int     `json:"pots"`
	Seats       []SeatDTO `json:"seats"`
}

// BetRequest asks one player for a bet decision before the deadline
// (unix seconds).
type BetRequest struct {
	MessageType string `json:"message_type"`
	PlayerID    int64  `json:"player_id"`
	MinBet      int    `json:"min_bet"`
	MaxBet      int    `json:"max_bet"`
	Deadline    int64  `json:"deadline"`
}

// Bet reports one resolved action: blinds, forced folds and bot
// actions surface the same way as voluntary bets.
type Bet struct {
	MessageType string `json:"message_type"`
	PlayerID    int64  `json:"player_id"`
	Amount      int    `json:"bet"`
	ActionType  string `json:"action_type,omitempty"`
}

// SharedCards reveals board cards in wire form ("As", "Td", ...).
type SharedCards struct {
	MessageType string   `json:"message_type"`
	Cards       []string `json:"cards"`
}

// Cards delivers hole cards to a single target player.
type Cards struct {
	MessageType string   `json:"message_type"`
	Target      int64    `json:"target"`
	Cards       []string `json:"cards"`
}

// DeadPlayer announces a fold.
type DeadPlayer struct {
	MessageType string `json:"message_type"`
	PlayerID    int64  `json:"player_id"`
}

// WinnerShare is one player's cut of one pot.
type WinnerShare struct {
	PlayerID int64    `json:"player_id"`
	Amount   int      `json:"amount"`
	Score    string   `json:"score,omitempty"`
	Cards    []string `json:"cards,omitempty"`
}

// WinnerDesignation reports the settlement of one pot.
type WinnerDesignation struct {
	MessageType string        `json:"message_type"`
	Pot         int           `json:"pot"`
	Winners     []WinnerShare `json:"winners"`
}

// GameOver marks the end of a hand.
type GameOver struct {
	MessageType string `json:"message_type"`
}

// RankingEntry is one row of the daily leaderboard.
type RankingEntry struct {
	PlayerID int64  `json:"player_id"`
	Name     string `json:"name"`
	NetChips int    `json:"net_chips"`
}

// UpdateRankingData broadcasts the daily leaderboard after each hand.
type UpdateRankingData struct {
	MessageType string         `json:"message_type"`
	Ranking     []RankingEntry `json:"ranking"`
}

// FinalHandsStarted opens the ten-hand countdown mode.
type FinalHandsStarted struct {
	MessageType string `json:"message_type"`
}

// FinalHandsUpdate reports countdown progress after each hand.
type FinalHandsUpdate struct {
	MessageType string `json:"message_type"`
	HandCount   int    `json:"hand_count"`
}

// FinalHandsFinished closes the countdown; the room deactivates.
type FinalHandsFinished struct {
	MessageType string `json:"message_type"`
}

// PlayerRejoined announces a successful reconnect.
type PlayerRejoined struct {
	MessageType string `json:"message_type"`
	PlayerID    int64  `json:"player_id"`
}

// Ping probes liveness; the client answers with Pong.
type Ping struct {
	MessageType string `json:"message_type"`
}

// Disconnect tells the client the server dropped it.
type Disconnect struct {
	MessageType string `json:"message_type"`
}

// Error reports a rejected client message.
type Error struct {
	MessageType string `json:"message_type"`
	Code        string `json:"code"`
	Message     string `json:"message"`
}

// Pong answers a ping; it piggybacks readiness and the owner's
// final-ten-hands request.
type Pong struct {
	MessageType  string `json:"message_type"`
	Ready        bool   `json:"ready,omitempty"`
	StartFinal10 bool   `json:"start_final_10_hands,omitempty"`
}

// ClientBet is the client's answer to a BetRequest. -1 folds, 0
// checks, min_bet calls, more raises.
type ClientBet struct {
	MessageType string `json:"message_type"`
	Amount      int    `json:"bet"`
}

// ChatMessage is relayed by the gateway; the core drops it.
type ChatMessage struct {
	MessageType string `json:"message_type"`
	Message     string `json:"message"`
}

// Interaction carries miscellaneous client actions.
type Interaction struct {
	MessageType string `json:"message_type"`
	Action      string `json:"action"`
}

// Room control actions.
const (
	RoomControlAddBot    = "add-bot"
	RoomControlRemoveBot = "remove-bot"
)

// RoomControl is an owner command from the room-control FIFO. The
// session fields identify the requester so errors can be returned on
// its outbound channel.
type RoomControl struct {
	MessageType string `json:"message_type"`
	RoomID      string `json:"room_id"`
	PlayerID    int64  `json:"player_id"`
	SessionID   string `json:"session_id"`
	Action      string `json:"action"`
	SeatIndex   *int   `json:"seat_index,omitempty"`
	BotID       *int64 `json:"bot_id,omitempty"`
	Difficulty  string `json:"difficulty,omitempty"`
}

// Encode marshals a message for the wire.
func Encode(v any) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", broker.ErrMessageFormat, err)
	}
	return payload, nil
}

type envelope struct {
	MessageType string `json:"message_type"`
}

// PeekType returns the message_type tag of a frame.
func PeekType(payload []byte) (string, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return "", fmt.Errorf("%w: %v", broker.ErrMessageFormat, err)
	}
	if env.MessageType == "" {
		return "", fmt.Errorf("%w: missing message_type", broker.ErrMessageFormat)
	}
	return env.MessageType, nil
}

// DecodeClient parses a client frame into its tagged variant. Unknown
// tags are rejected.
func DecodeClient(payload []byte) (any, error) {
	tag, err := PeekType(payload)
	if err != nil {
		return nil, err
	}

	var msg any
	switch tag {
	case TypePong:
		msg = &Pong{}
	case TypeBet:
		msg = &ClientBet{}
	case TypeChatMessage:
		msg = &ChatMessage{}
	case TypeInteraction:
		msg = &Interaction{}
	case TypeRoomControl:
		msg = &RoomControl{}
	default:
		return nil, fmt.Errorf("%w: unknown message_type %q", broker.ErrMessageFormat, tag)
	}

	if err := json.Unmarshal(payload, msg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", broker.ErrMessageFormat, tag, err)
	}
	return msg, nil
}
