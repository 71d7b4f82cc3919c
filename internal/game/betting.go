package game

import (
	"context"
	"errors"

	"github.com/tablestakes/holdemd/internal/broker"
	"github.com/tablestakes/holdemd/internal/protocol"
)

// Street is the betting round index persisted with each action.
type Street int

const (
	Preflop Street = iota
	Flop
	Turn
	River
)

func (s Street) String() string {
	return [...]string{"preflop", "flop", "turn", "river"}[s]
}

// Action types recorded in hand_actions and reported on the wire.
const (
	ActionFold       = "fold"
	ActionCheck      = "check"
	ActionBet        = "bet"
	ActionCall       = "call"
	ActionRaise      = "raise"
	ActionAllIn      = "all-in"
	ActionSmallBlind = "small_blind"
	ActionBigBlind   = "big_blind"
)

// ClassifyAction names an action from the resolved bet and the request
// bounds. forced overrides everything (blind posts, forced folds).
func ClassifyAction(bet, minBet, maxBet int, forced string) string {
	if forced != "" {
		return forced
	}
	if bet == -1 {
		return ActionFold
	}
	if bet == maxBet && bet > 0 {
		return ActionAllIn
	}
	if minBet == 0 {
		if bet == 0 {
			return ActionCheck
		}
		return ActionBet
	}
	if bet == minBet {
		return ActionCall
	}
	return ActionRaise
}

// ResolvedAction is one settled turn, delivered to the action callback
// for persistence.
type ResolvedAction struct {
	PlayerID   int64
	Street     Street
	ActionNum  int
	ActionType string
	Amount     int
	PotBefore  int
}

// ActionCallback receives every resolved turn, blinds and forced folds
// included.
type ActionCallback func(ResolvedAction)

// handPlayer is a seat's betting state for the duration of one hand.
type handPlayer struct {
	ps       *PlayerServer
	hole     []string
	folded   bool
	allIn    bool
	stale    bool
	bet      int // this street
	totalBet int // this hand
}

func (hp *handPlayer) active() bool {
	return !hp.folded && !hp.allIn
}

// minIncrement is the smallest legal raise increment under the
// configured rule.
func (g *Game) minIncrement() int {
	if g.cfg.MinRaiseRule == "big_blind" {
		return g.cfg.BigBlind
	}
	if g.lastIncrement > g.cfg.BigBlind {
		return g.lastIncrement
	}
	return g.cfg.BigBlind
}

func (g *Game) liveCount() int {
	n := 0
	for _, hp := range g.players {
		if !hp.folded {
			n++
		}
	}
	return n
}

func (g *Game) activeCount() int {
	n := 0
	for _, hp := range g.players {
		if hp.active() {
			n++
		}
	}
	return n
}

func (g *Game) streetBets() int {
	total := 0
	for _, hp := range g.players {
		total += hp.bet
	}
	return total
}

// bettingComplete reports whether every player still able to act has
// acted and matched the highest contribution. Blind posts do not set
// acted flags, which is what gives the big blind its option.
func (g *Game) bettingComplete() bool {
	if g.liveCount() <= 1 {
		return true
	}
	for i, hp := range g.players {
		if hp.active() && (!g.acted[i] || hp.bet < g.raiseTo) {
			return false
		}
	}
	return true
}

// resetActed clears acted flags; after a full raise everyone but the
// raiser must act again with full raising rights.
func (g *Game) resetActed(except int) {
	for i := range g.acted {
		g.acted[i] = i == except
		g.canRaise[i] = true
	}
}

// shortAllIn reopens matching only: players who already acted must
// still call the surplus but may not raise.
func (g *Game) shortAllIn(raiser int) {
	for i, hp := range g.players {
		if i == raiser || !hp.active() {
			continue
		}
		if g.acted[i] && hp.bet < g.raiseTo {
			g.acted[i] = false
			g.canRaise[i] = false
		}
	}
}

// postBlind commits a forced bet, going all-in for less when the stack
// cannot cover it.
func (g *Game) postBlind(idx int, amount int, actionType string) error {
	hp := g.players[idx]
	potBefore := g.committed + g.streetBets()

	if amount >= hp.ps.Money() {
		amount = hp.ps.Money()
		hp.allIn = true
	}
	if err := hp.ps.TakeMoney(amount); err != nil {
		return err
	}
	hp.bet += amount
	hp.totalBet += amount
	if hp.bet > g.raiseTo {
		g.raiseTo = hp.bet
	}

	g.recordAction(hp, Preflop, actionType, amount, potBefore)
	return nil
}

// betRound drives one street of betting starting at the given index.
func (g *Game) betRound(ctx context.Context, street Street, start int) error {
	n := len(g.players)
	idx := start
	for !g.bettingComplete() {
		hp := g.players[idx]
		if hp.active() {
			if err := g.requestBet(ctx, idx, street); err != nil {
				return err
			}
		}
		idx = (idx + 1) % n
	}
	return nil
}

// requestBet asks one player for a decision and applies the result.
// Bots decide synchronously through their engine; a missed deadline or
// a dead channel is a forced fold.
func (g *Game) requestBet(ctx context.Context, idx int, street Street) error {
	hp := g.players[idx]
	minBet := g.raiseTo - hp.bet
	maxBet := hp.ps.Money()
	deadline := g.clock.Now().Add(g.cfg.BetTimeout + g.cfg.TimeoutTolerance)

	g.emit(hp.ps.ID, protocol.BetRequest{
		MessageType: protocol.TypeBetRequest,
		PlayerID:    hp.ps.ID,
		MinBet:      minBet,
		MaxBet:      maxBet,
		Deadline:    deadline.Unix(),
	})

	amount, forced := g.collectBet(ctx, idx, street, minBet, maxBet)
	g.applyBet(idx, street, amount, minBet, maxBet, forced)
	return nil
}

// collectBet obtains the raw bet amount: engine call for bots, channel
// wait for humans. forced is the action type to record when the player
// did not answer for themselves.
func (g *Game) collectBet(ctx context.Context, idx int, street Street, minBet, maxBet int) (int, string) {
	hp := g.players[idx]

	if hp.ps.IsBot() {
		dcCtx, cancel := context.WithTimeout(ctx, g.cfg.BetTimeout)
		defer cancel()
		amount, err := hp.ps.Engine.Decide(dcCtx, g.decisionContext(idx, street, minBet, maxBet))
		if err != nil {
			g.logger.Warn().Err(err).Int64("player", hp.ps.ID).Msg("bot decision failed, folding")
			return -1, ActionFold
		}
		return amount, ""
	}

	if !hp.ps.Connected {
		hp.stale = true
		return -1, ActionFold
	}

	deadline := g.clock.Now().Add(g.cfg.BetTimeout + g.cfg.TimeoutTolerance)
	for {
		msg, err := hp.ps.Recv(ctx, deadline)
		if err != nil {
			switch {
			case errors.Is(err, broker.ErrMessageTimeout):
			case errors.Is(err, broker.ErrMessageFormat):
				hp.ps.Send(ctx, protocol.Error{
					MessageType: protocol.TypeError,
					Code:        "bad_message",
					Message:     err.Error(),
				})
				continue
			default:
				// Closed or failing channel: the player is gone.
				hp.stale = true
				hp.ps.Connected = false
			}
			return -1, ActionFold
		}
		if bet, ok := msg.(*protocol.ClientBet); ok {
			return bet.Amount, ""
		}
		// Anything else mid-turn is dropped.
	}
}

// applyBet settles one turn: normalizes the amount against the minimum
// raise discipline, moves chips, updates round state and fires events.
func (g *Game) applyBet(idx int, street Street, amount, minBet, maxBet int, forced string) {
	hp := g.players[idx]
	potBefore := g.committed + g.streetBets()

	if forced != "" || amount < 0 {
		hp.folded = true
		g.acted[idx] = true
		g.recordBetAction(hp, street, -1, minBet, maxBet, forced, 0, potBefore)
		g.emit(0, protocol.DeadPlayer{MessageType: protocol.TypeDeadPlayer, PlayerID: hp.ps.ID})
		return
	}

	if amount > maxBet {
		amount = maxBet
	}

	// Below the call amount and not all-in is not a legal action.
	if amount < minBet && amount != maxBet {
		hp.folded = true
		g.acted[idx] = true
		g.recordBetAction(hp, street, -1, minBet, maxBet, ActionFold, 0, potBefore)
		g.emit(0, protocol.DeadPlayer{MessageType: protocol.TypeDeadPlayer, PlayerID: hp.ps.ID})
		return
	}

	if amount > minBet && !g.canRaise[idx] {
		// Facing a short all-in: matching only, no raise rights.
		amount = minBet
	}

	if amount > minBet && amount < maxBet {
		// A raise must reach the previous raise-to plus the minimum
		// increment; short raises clamp upward.
		required := g.raiseTo + g.minIncrement() - hp.bet
		if amount < required {
			amount = required
			if amount >= maxBet {
				amount = maxBet
			}
		}
	}

	if err := hp.ps.TakeMoney(amount); err != nil {
		// The stack changed underneath us; treat as a forced fold
		// rather than corrupt the pot.
		g.logger.Error().Err(err).Int64("player", hp.ps.ID).Msg("bet exceeds stack")
		hp.folded = true
		g.acted[idx] = true
		g.recordBetAction(hp, street, -1, minBet, maxBet, ActionFold, 0, potBefore)
		return
	}

	hp.bet += amount
	hp.totalBet += amount
	allIn := amount == maxBet && maxBet > 0
	if allIn {
		hp.allIn = true
	}

	if hp.bet > g.raiseTo {
		increment := hp.bet - g.raiseTo
		fullRaise := increment >= g.minIncrement()
		g.raiseTo = hp.bet
		g.acted[idx] = true
		if fullRaise {
			g.lastIncrement = increment
			g.resetActed(idx)
		} else {
			// An all-in below a full raise does not re-open raising;
			// the others only match the surplus.
			g.shortAllIn(idx)
		}
	}
	g.acted[idx] = true

	g.recordBetAction(hp, street, amount, minBet, maxBet, "", amount, potBefore)
}

// recordBetAction classifies and publishes one resolved action.
func (g *Game) recordBetAction(hp *handPlayer, street Street, bet, minBet, maxBet int, forced string, amount, potBefore int) {
	actionType := ClassifyAction(bet, minBet, maxBet, forced)
	g.stats.record(hp.ps.ID, street, actionType, amount, minBet)
	g.fireAction(hp, street, actionType, amount, potBefore)
}

// recordAction publishes an already-classified action (blind posts).
func (g *Game) recordAction(hp *handPlayer, street Street, actionType string, amount, potBefore int) {
	g.stats.record(hp.ps.ID, street, actionType, amount, 0)
	g.fireAction(hp, street, actionType, amount, potBefore)
}

func (g *Game) fireAction(hp *handPlayer, street Street, actionType string, amount, potBefore int) {
	g.actionNum++
	action := ResolvedAction{
		PlayerID:   hp.ps.ID,
		Street:     street,
		ActionNum:  g.actionNum,
		ActionType: actionType,
		Amount:     amount,
		PotBefore:  potBefore,
	}
	g.history = append(g.history, action)
	if g.onAction != nil {
		g.onAction(action)
	}
	g.emit(0, protocol.Bet{
		MessageType: protocol.TypeBet,
		PlayerID:    hp.ps.ID,
		Amount:      amount,
		ActionType:  actionType,
	})
}
