package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tablestakes/holdemd/internal/broker"
	"github.com/tablestakes/holdemd/internal/protocol"
)

// ErrInsufficientMoney is returned by TakeMoney when the stack cannot
// cover the amount.
var ErrInsufficientMoney = errors.New("insufficient money")

// Player is the identity and stack of one seat occupant. TakeMoney is
// the only path that decreases the stack.
type Player struct {
	ID     int64
	Name   string
	Avatar string
	Seat   int
	Ready  bool

	mu    sync.Mutex
	money int
}

// NewPlayer creates a player with a starting stack.
func NewPlayer(id int64, name string, money int) *Player {
	return &Player{ID: id, Name: name, money: money}
}

// Money returns the current stack.
func (p *Player) Money() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.money
}

// TakeMoney removes amount from the stack, failing when insufficient.
func (p *Player) TakeMoney(amount int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if amount < 0 {
		return fmt.Errorf("take %d: amount must be non-negative", amount)
	}
	if amount > p.money {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientMoney, p.money, amount)
	}
	p.money -= amount
	return nil
}

// AddMoney credits a strictly positive amount to the stack.
func (p *Player) AddMoney(amount int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if amount <= 0 {
		return fmt.Errorf("add %d: amount must be positive", amount)
	}
	p.money += amount
	return nil
}

// SetMoney overwrites the stack; only the room's settle/refund paths
// use it.
func (p *Player) SetMoney(amount int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.money = amount
}

// DecisionEngine is the bot brain: it turns a decision context into a
// bet amount using the same semantics a human reply carries.
type DecisionEngine interface {
	Decide(ctx context.Context, dc *DecisionContext) (int, error)
}

// PlayerServer is a seated player bound to a transport. Humans carry a
// broker channel; bots carry a sink channel plus a decision engine.
type PlayerServer struct {
	*Player

	chMu           sync.Mutex
	channel        broker.Channel
	Connected      bool
	WantsFinal10   bool
	disconnectSent bool

	// Engine is non-nil for bots.
	Engine     DecisionEngine
	Difficulty string
}

// NewPlayerServer binds a player to its session channel.
func NewPlayerServer(p *Player, ch broker.Channel) *PlayerServer {
	return &PlayerServer{Player: p, channel: ch, Connected: true}
}

// IsBot reports whether decisions come from an engine instead of the
// channel.
func (ps *PlayerServer) IsBot() bool {
	return ps.Engine != nil
}

// UpdateChannel swaps the transport in place on reconnect. The stack
// and seat are untouched.
func (ps *PlayerServer) UpdateChannel(ch broker.Channel) {
	ps.chMu.Lock()
	defer ps.chMu.Unlock()
	if ps.channel != nil {
		ps.channel.Close()
	}
	ps.channel = ch
	ps.Connected = true
	ps.disconnectSent = false
}

func (ps *PlayerServer) currentChannel() broker.Channel {
	ps.chMu.Lock()
	defer ps.chMu.Unlock()
	return ps.channel
}

// Send encodes and delivers one message to the player.
func (ps *PlayerServer) Send(ctx context.Context, msg any) error {
	payload, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	return ps.currentChannel().Send(ctx, payload)
}

// Recv waits for one decoded client message until the deadline.
func (ps *PlayerServer) Recv(ctx context.Context, deadline time.Time) (any, error) {
	payload, err := ps.currentChannel().Recv(ctx, deadline)
	if err != nil {
		return nil, err
	}
	return protocol.DecodeClient(payload)
}

// Ping probes the player and folds the pong payload into readiness
// state. Bots are always ready. Frames other than pong arriving in the
// window are dropped.
func (ps *PlayerServer) Ping(ctx context.Context, deadline time.Time) error {
	if ps.IsBot() {
		ps.Ready = true
		return nil
	}

	if err := ps.Send(ctx, protocol.Ping{MessageType: protocol.TypePing}); err != nil {
		return err
	}

	for {
		msg, err := ps.Recv(ctx, deadline)
		if err != nil {
			if errors.Is(err, broker.ErrMessageFormat) {
				continue
			}
			return err
		}
		pong, ok := msg.(*protocol.Pong)
		if !ok {
			continue
		}
		ps.Ready = pong.Ready
		if pong.StartFinal10 {
			ps.WantsFinal10 = true
		}
		return nil
	}
}

// Disconnect sends the disconnect notice once and closes the channel.
func (ps *PlayerServer) Disconnect(ctx context.Context) {
	ps.chMu.Lock()
	alreadySent := ps.disconnectSent
	ps.disconnectSent = true
	ps.Connected = false
	ch := ps.channel
	ps.chMu.Unlock()

	if ch == nil {
		return
	}
	if !alreadySent {
		if payload, err := protocol.Encode(protocol.Disconnect{MessageType: protocol.TypeDisconnect}); err == nil {
			ch.Send(ctx, payload)
		}
	}
	ch.Close()
}
