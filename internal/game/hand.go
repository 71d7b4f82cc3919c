package game

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/tablestakes/holdemd/internal/deck"
	"github.com/tablestakes/holdemd/internal/protocol"
	"github.com/tablestakes/holdemd/internal/score"
)

// Config is the subset of table rules one hand needs. RoomID and
// HandID identify the hand to bot engines and are echoed in every
// decision context.
type Config struct {
	RoomID           string
	HandID           int64
	SmallBlind       int
	BigBlind         int
	MinRaiseRule     string
	BetTimeout       time.Duration
	TimeoutTolerance time.Duration
	RevealPause      time.Duration
}

// EmitFunc publishes an event. target 0 broadcasts to the room;
// otherwise only the named player receives it.
type EmitFunc func(target int64, msg any)

// Game runs one Texas Hold'em hand over the seated players. It is
// created per hand and never reused.
type Game struct {
	cfg    Config
	clock  quartz.Clock
	rng    *rand.Rand
	logger zerolog.Logger

	emit        EmitFunc
	onAction    ActionCallback
	onHoleCards func(playerID int64, cards []string)

	players []*handPlayer
	dealer  int
	deck    *deck.Deck
	board   []deck.Card

	committed     int // collected into pots from completed streets
	raiseTo       int
	lastIncrement int
	acted         []bool
	canRaise      []bool
	actionNum     int
	history       []ResolvedAction

	stats *statsTracker
}

// Result is the outcome of one hand.
type Result struct {
	Board          []string
	StartingStacks map[int64]int
	EndingStacks   map[int64]int
	Winners        map[int64]bool
	HoleCards      map[int64][]string
	TotalPot       int
	Showdown       bool
	Aborted        bool
	Stats          map[int64]*HandStats
}

// Option configures a Game.
type Option func(*Game)

// WithActionCallback registers the persistence hook fired on every
// resolved turn.
func WithActionCallback(cb ActionCallback) Option {
	return func(g *Game) { g.onAction = cb }
}

// WithHoleCardsCallback registers the persistence hook fired when hole
// cards are dealt.
func WithHoleCardsCallback(cb func(playerID int64, cards []string)) Option {
	return func(g *Game) { g.onHoleCards = cb }
}

// WithDeck replaces the shuffled deck, for deterministic hands.
func WithDeck(d *deck.Deck) Option {
	return func(g *Game) { g.deck = d }
}

// New creates a hand over the given players. dealer indexes players;
// order follows seat order.
func New(cfg Config, clock quartz.Clock, rng *rand.Rand, logger zerolog.Logger,
	players []*PlayerServer, dealer int, emit EmitFunc, opts ...Option) (*Game, error) {
	if len(players) < 2 {
		return nil, fmt.Errorf("need at least 2 players, have %d", len(players))
	}
	if emit == nil {
		emit = func(int64, any) {}
	}

	g := &Game{
		cfg:           cfg,
		clock:         clock,
		rng:           rng,
		logger:        logger.With().Str("component", "hand").Logger(),
		emit:          emit,
		dealer:        dealer,
		deck:          deck.New(deck.MinRankHoldem, rng),
		lastIncrement: cfg.BigBlind,
		acted:         make([]bool, len(players)),
		canRaise:      make([]bool, len(players)),
	}
	for i, ps := range players {
		g.canRaise[i] = true
		g.players = append(g.players, &handPlayer{ps: ps})
	}
	g.stats = newStatsTracker(g.players)
	for _, o := range opts {
		o(g)
	}
	return g, nil
}

// Run plays the hand to completion and returns the outcome. A chip
// conservation violation aborts the hand and refunds starting stacks.
func (g *Game) Run(ctx context.Context) (*Result, error) {
	n := len(g.players)
	starting := make(map[int64]int, n)
	for _, hp := range g.players {
		starting[hp.ps.ID] = hp.ps.Money()
	}

	sbIdx, bbIdx := g.blindSeats()
	if err := g.postBlind(sbIdx, g.cfg.SmallBlind, ActionSmallBlind); err != nil {
		return nil, err
	}
	if err := g.postBlind(bbIdx, g.cfg.BigBlind, ActionBigBlind); err != nil {
		return nil, err
	}

	g.dealHoleCards()

	// Preflop action opens after the big blind.
	if g.activeCount() > 1 {
		if err := g.betRound(ctx, Preflop, (bbIdx+1)%n); err != nil {
			return nil, err
		}
	}
	g.collectStreet(Preflop)

	streets := []struct {
		street Street
		cards  int
	}{
		{Flop, 3},
		{Turn, 1},
		{River, 1},
	}
	for _, st := range streets {
		if g.liveCount() <= 1 {
			break
		}
		if err := g.dealBoard(ctx, st.cards); err != nil {
			return nil, err
		}
		if g.activeCount() > 1 {
			if err := g.betRound(ctx, st.street, (g.dealer+1)%n); err != nil {
				return nil, err
			}
		}
		g.collectStreet(st.street)
	}

	return g.settle(starting)
}

// blindSeats returns the small and big blind indexes. Heads-up, the
// dealer posts the small blind.
func (g *Game) blindSeats() (int, int) {
	n := len(g.players)
	if n == 2 {
		return g.dealer, (g.dealer + 1) % n
	}
	return (g.dealer + 1) % n, (g.dealer + 2) % n
}

func (g *Game) dealHoleCards() {
	for _, hp := range g.players {
		cards, err := g.deck.PopCards(2)
		if err != nil {
			// A 52-card deck always covers a 10-seat table.
			panic(err)
		}
		hp.hole = []string{cards[0].String(), cards[1].String()}
		g.emit(hp.ps.ID, protocol.Cards{
			MessageType: protocol.TypeCards,
			Target:      hp.ps.ID,
			Cards:       hp.hole,
		})
		if g.onHoleCards != nil {
			g.onHoleCards(hp.ps.ID, hp.hole)
		}
	}
}

// dealBoard reveals community cards and pauses for the animation
// window.
func (g *Game) dealBoard(ctx context.Context, count int) error {
	cards, err := g.deck.PopCards(count)
	if err != nil {
		return err
	}
	g.board = append(g.board, cards...)

	texts := make([]string, 0, len(g.board))
	for _, c := range g.board {
		texts = append(texts, c.String())
	}
	g.emit(0, protocol.SharedCards{MessageType: protocol.TypeSharedCards, Cards: texts})

	if g.cfg.RevealPause > 0 {
		timer := g.clock.NewTimer(g.cfg.RevealPause)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// collectStreet folds the street's bets into the committed total and
// resets per-street betting state.
func (g *Game) collectStreet(street Street) {
	g.committed += g.streetBets()
	for _, hp := range g.players {
		hp.bet = 0
	}
	g.raiseTo = 0
	g.lastIncrement = g.cfg.BigBlind
	g.resetActed(-1)

	g.emit(0, protocol.GameUpdate{
		MessageType: protocol.TypeGameUpdate,
		Street:      int(street),
		Pots:        []int{g.committed},
		Seats:       g.seatSnapshot(),
	})
}

func (g *Game) seatSnapshot() []protocol.SeatDTO {
	seats := make([]protocol.SeatDTO, 0, len(g.players))
	for _, hp := range g.players {
		id := hp.ps.ID
		seats = append(seats, protocol.SeatDTO{
			Index:    hp.ps.Seat,
			PlayerID: &id,
			Name:     hp.ps.Name,
			Money:    hp.ps.Money(),
			Bot:      hp.ps.IsBot(),
		})
	}
	return seats
}

// settle builds the pots, decides winners and moves chips, enforcing
// chip conservation.
func (g *Game) settle(starting map[int64]int) (*Result, error) {
	pots := BuildPots(g.players)
	totalPot := potTotal(pots)

	res := &Result{
		StartingStacks: starting,
		EndingStacks:   make(map[int64]int, len(g.players)),
		Winners:        make(map[int64]bool),
		HoleCards:      make(map[int64][]string, len(g.players)),
		TotalPot:       totalPot,
		Stats:          g.stats.perPlayer,
	}
	for _, c := range g.board {
		res.Board = append(res.Board, c.String())
	}
	for _, hp := range g.players {
		res.HoleCards[hp.ps.ID] = hp.hole
	}

	if g.liveCount() == 1 {
		g.settleUncontested(pots, res)
	} else {
		g.settleShowdown(pots, res)
		res.Showdown = true
	}

	for _, hp := range g.players {
		res.EndingStacks[hp.ps.ID] = hp.ps.Money()
	}

	sumBefore, sumAfter := 0, 0
	for id := range starting {
		sumBefore += starting[id]
		sumAfter += res.EndingStacks[id]
	}
	if sumBefore != sumAfter {
		g.logger.Error().
			Int("before", sumBefore).
			Int("after", sumAfter).
			Msg("chip conservation violated, aborting hand")
		for _, hp := range g.players {
			hp.ps.SetMoney(starting[hp.ps.ID])
			res.EndingStacks[hp.ps.ID] = starting[hp.ps.ID]
		}
		res.Winners = map[int64]bool{}
		res.Aborted = true
		return res, nil
	}

	for _, hp := range g.players {
		g.stats.finish(hp.ps.ID, res.EndingStacks[hp.ps.ID]-starting[hp.ps.ID], g.cfg.BigBlind)
	}
	return res, nil
}

// settleUncontested awards everything to the last player standing; no
// cards are shown.
func (g *Game) settleUncontested(pots []Pot, res *Result) {
	var winner *handPlayer
	for _, hp := range g.players {
		if !hp.folded {
			winner = hp
			break
		}
	}
	total := potTotal(pots)
	if total > 0 {
		winner.ps.AddMoney(total)
	}
	res.Winners[winner.ps.ID] = true

	g.emit(0, protocol.WinnerDesignation{
		MessageType: protocol.TypeWinnerDesignation,
		Pot:         total,
		Winners:     []protocol.WinnerShare{{PlayerID: winner.ps.ID, Amount: total}},
	})
}

// settleShowdown scores every live player and splits each pot among
// its best eligible hands, odd chips to the earliest seat after the
// dealer.
func (g *Game) settleShowdown(pots []Pot, res *Result) {
	scores := make(map[int]score.Score, len(g.players))
	for i, hp := range g.players {
		if hp.folded {
			continue
		}
		cards := make([]deck.Card, 0, 7)
		for _, text := range hp.hole {
			c, err := deck.ParseCard(text)
			if err != nil {
				continue
			}
			cards = append(cards, c)
		}
		cards = append(cards, g.board...)
		scores[i] = score.Detect(cards)
	}

	for _, pot := range pots {
		if pot.Money == 0 {
			continue
		}
		var winners []int
		for _, i := range pot.Eligible {
			s, ok := scores[i]
			if !ok {
				continue
			}
			if len(winners) == 0 {
				winners = []int{i}
				continue
			}
			switch s.Compare(scores[winners[0]]) {
			case 1:
				winners = []int{i}
			case 0:
				winners = append(winners, i)
			}
		}
		if len(winners) == 0 {
			continue
		}

		share := pot.Money / len(winners)
		remainder := pot.Money % len(winners)
		shares := make([]protocol.WinnerShare, 0, len(winners))
		oddChip := g.earliestFromDealer(winners)
		for _, i := range winners {
			amount := share
			if remainder > 0 && i == oddChip {
				amount += remainder
			}
			hp := g.players[i]
			if amount > 0 {
				hp.ps.AddMoney(amount)
			}
			res.Winners[hp.ps.ID] = true
			shares = append(shares, protocol.WinnerShare{
				PlayerID: hp.ps.ID,
				Amount:   amount,
				Score:    scores[i].String(),
				Cards:    hp.hole,
			})
		}

		g.emit(0, protocol.WinnerDesignation{
			MessageType: protocol.TypeWinnerDesignation,
			Pot:         pot.Money,
			Winners:     shares,
		})
	}

	for i, hp := range g.players {
		if _, ok := scores[i]; ok {
			g.stats.showdown(hp.ps.ID, res.Winners[hp.ps.ID])
		}
	}
}

// earliestFromDealer picks the winner index closest clockwise from the
// dealer, for odd-chip awards.
func (g *Game) earliestFromDealer(winners []int) int {
	n := len(g.players)
	best := winners[0]
	bestDist := n + 1
	for _, i := range winners {
		dist := (i - g.dealer + n) % n
		if dist == 0 {
			dist = n
		}
		if dist < bestDist {
			bestDist = dist
			best = i
		}
	}
	return best
}

// decisionContext snapshots the table state for a bot engine.
func (g *Game) decisionContext(idx int, street Street, minBet, maxBet int) *DecisionContext {
	hp := g.players[idx]
	dc := &DecisionContext{
		RoomID:     g.cfg.RoomID,
		GameID:     g.cfg.HandID,
		Street:     street,
		PlayerID:   hp.ps.ID,
		Seat:       idx,
		Hand:       hp.hole,
		PotTotal:   g.committed + g.streetBets(),
		StreetBets: g.streetBets(),
		MinBet:     minBet,
		MaxBet:     maxBet,
		ToCall:     minBet,
		BigBlind:   g.cfg.BigBlind,
		Difficulty: hp.ps.Difficulty,
		History:    append([]ResolvedAction(nil), g.history...),
	}
	for _, c := range g.board {
		dc.Board = append(dc.Board, c.String())
	}
	for i, p := range g.players {
		dc.Players = append(dc.Players, DecisionPlayer{
			ID:     p.ps.ID,
			Seat:   i,
			Money:  p.ps.Money(),
			Bet:    p.bet,
			Folded: p.folded,
			AllIn:  p.allIn,
		})
	}
	return dc
}

// DecisionPlayer is one opponent's visible state.
type DecisionPlayer struct {
	ID     int64 `json:"id"`
	Seat   int   `json:"seat"`
	Money  int   `json:"money"`
	Bet    int   `json:"bet"`
	Folded bool  `json:"folded"`
	AllIn  bool  `json:"all_in"`
}

// DecisionContext is everything a bot engine sees for one turn.
type DecisionContext struct {
	RoomID     string           `json:"room_id"`
	GameID     int64            `json:"game_id"`
	Street     Street           `json:"street"`
	PlayerID   int64            `json:"player_id"`
	Seat       int              `json:"seat"`
	Hand       []string         `json:"hand"`
	Board      []string         `json:"board"`
	Players    []DecisionPlayer `json:"players"`
	PotTotal   int              `json:"pot_total"`
	StreetBets int              `json:"street_bets"`
	MinBet     int              `json:"min_bet"`
	MaxBet     int              `json:"max_bet"`
	ToCall     int              `json:"to_call"`
	BigBlind   int              `json:"big_blind"`
	Difficulty string           `json:"-"`
	History    []ResolvedAction `json:"action_history,omitempty"`
}
