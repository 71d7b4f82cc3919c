// Package broker provides the message transport between the game core
// and the gateway: named FIFO queues for lobby and room control, and
// per-session bidirectional channels. The production implementation
// runs over Redis lists; an in-memory variant backs tests.
package broker

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrChannelClosed is returned by Recv when the channel is closed
	// while a receive is outstanding. Callers treat it as a disconnect.
	ErrChannelClosed = errors.New("channel closed")

	// ErrChannel is returned on write failures and on use after close.
	ErrChannel = errors.New("channel error")

	// ErrMessageFormat is returned when a payload cannot be decoded.
	ErrMessageFormat = errors.New("malformed message")

	// ErrMessageTimeout is returned by Recv when the deadline passes
	// with nothing to deliver.
	ErrMessageTimeout = errors.New("message timeout")
)

// Queue is a single-ended FIFO used for the lobby and room-control
// topics. Push never blocks; Pop blocks until a payload arrives or the
// timeout elapses.
type Queue interface {
	Push(ctx context.Context, payload []byte) error
	Pop(ctx context.Context, timeout time.Duration) ([]byte, error)
}

// Channel is a bidirectional session transport. Send enqueues a
// payload toward the client; Recv blocks until the client sends one or
// the deadline passes. Close fails any outstanding Recv with
// ErrChannelClosed and rejects further use.
type Channel interface {
	Send(ctx context.Context, payload []byte) error
	Recv(ctx context.Context, deadline time.Time) ([]byte, error)
	Close() error
}

const (
	// LobbyQueueName is the list the gateway pushes join requests to.
	LobbyQueueName = "texas-holdem-poker:lobby"

	// RoomControlQueueName carries owner commands (add-bot, remove-bot).
	RoomControlQueueName = "texas-holdem-poker:room-control"
)

// SessionInKey names the list the client pushes to and the server
// reads from for one player session.
func SessionInKey(playerID int64, sessionID string) string {
	return fmt.Sprintf("player-%d:session-%s:I", playerID, sessionID)
}

// SessionOutKey names the list the server pushes to and the client
// reads from.
func SessionOutKey(playerID int64, sessionID string) string {
	return fmt.Sprintf("player-%d:session-%s:O", playerID, sessionID)
}
