package bot

import (
	"context"
	"time"

	"github.com/tablestakes/holdemd/internal/broker"
)

// Channel is the transport stub bound to bot seats: outbound messages
// are swallowed and inbound reads always time out, so the hand loop
// treats a bot like a silent client while its engine answers turns.
type Channel struct{}

// NewChannel creates a bot channel.
func NewChannel() *Channel {
	return &Channel{}
}

// Send discards the message.
func (c *Channel) Send(context.Context, []byte) error {
	return nil
}

// Recv reports a timeout immediately; bots never produce frames.
func (c *Channel) Recv(context.Context, time.Time) ([]byte, error) {
	return nil, broker.ErrMessageTimeout
}

// Close is a no-op.
func (c *Channel) Close() error {
	return nil
}
