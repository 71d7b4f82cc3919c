// Package room hosts the long-lived game rooms: seating, reconnects,
// bot control and the hand loop that drives games and persistence.
package room

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/tablestakes/holdemd/internal/bot"
	"github.com/tablestakes/holdemd/internal/broker"
	"github.com/tablestakes/holdemd/internal/config"
	"github.com/tablestakes/holdemd/internal/game"
	"github.com/tablestakes/holdemd/internal/protocol"
	"github.com/tablestakes/holdemd/internal/store"
)

var (
	ErrRoomFull       = errors.New("room is full")
	ErrNotOwner       = errors.New("only the room owner may manage bots")
	ErrSeatOccupied   = errors.New("seat is occupied")
	ErrSeatEmpty      = errors.New("seat is empty")
	ErrNotABot        = errors.New("seat is not occupied by a bot")
	ErrUnknownPlayer  = errors.New("player is not in the room")
	ErrHandInProgress = errors.New("seating changes wait for the hand to finish")
)

// bufferedEvent is one game event kept for replay to reconnecting
// players. target 0 means broadcast.
type bufferedEvent struct {
	target int64
	msg    any
}

// Room is one table. All seat mutations go through the mutex; the hand
// loop snapshots players before running a hand so the lock is never
// held across channel waits.
type Room struct {
	ID string

	cfg     *config.Config
	clock   quartz.Clock
	rng     *rand.Rand
	logger  zerolog.Logger
	store   *store.Store
	bots    *bot.Registry
	private bool

	mu             sync.Mutex
	seats          []*game.PlayerServer
	joinOrder      []int64
	owner          int64
	active         bool
	handInProgress bool
	finalCountdown bool
	finalHandCount int
	events         []bufferedEvent
	tableID        int64
}

// New creates a room and its backing table record. Private rooms are
// only reachable by name; the lobby's first-with-space scan skips them.
func New(id string, private bool, cfg *config.Config, clock quartz.Clock, rng *rand.Rand,
	st *store.Store, bots *bot.Registry, logger zerolog.Logger) (*Room, error) {
	tableID, err := st.GetOrCreateTable(id, cfg.Game.RoomSize)
	if err != nil {
		return nil, fmt.Errorf("room %s: %w", id, err)
	}
	return &Room{
		ID:      id,
		private: private,
		cfg:     cfg,
		clock:   clock,
		rng:     rng,
		logger:  logger.With().Str("room", id).Logger(),
		store:   st,
		bots:    bots,
		seats:   make([]*game.PlayerServer, cfg.Game.RoomSize),
		tableID: tableID,
	}, nil
}

// Private reports whether the room is excluded from open-seat routing.
func (r *Room) Private() bool {
	return r.private
}

// Active reports whether the hand loop is running.
func (r *Room) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Owner returns the current owner's player id, 0 when the room is
// empty.
func (r *Room) Owner() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.owner
}

// Join seats a new player or reattaches a reconnecting one. On
// reconnect the in-memory stack is kept; only the transport and avatar
// refresh, and the current hand's buffered events are replayed.
func (r *Room) Join(ctx context.Context, p *game.Player, ch broker.Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing := r.playerLocked(p.ID); existing != nil {
		existing.UpdateChannel(ch)
		existing.Avatar = p.Avatar
		r.logger.Info().Int64("player", p.ID).Int("money", existing.Money()).Msg("player reconnected")

		r.broadcastLocked(ctx, protocol.PlayerRejoined{
			MessageType: protocol.TypePlayerRejoined,
			PlayerID:    p.ID,
		})
		r.roomUpdateLocked(ctx)
		r.replayLocked(ctx, existing)
		return nil
	}

	seat := -1
	for i, ps := range r.seats {
		if ps == nil {
			seat = i
			break
		}
	}
	if seat == -1 {
		return ErrRoomFull
	}

	if chips, err := r.store.CheckAndResetDailyChips(p.ID, r.cfg.Game.InitMoney); err != nil {
		r.logger.Error().Err(err).Int64("player", p.ID).Msg("daily chip check failed")
	} else {
		p.SetMoney(chips)
	}

	p.Seat = seat
	ps := game.NewPlayerServer(p, ch)
	r.seats[seat] = ps
	r.joinOrder = append(r.joinOrder, p.ID)
	if r.owner == 0 {
		r.owner = p.ID
	}

	r.logger.Info().Int64("player", p.ID).Int("seat", seat).Msg("player joined")
	r.roomUpdateLocked(ctx)
	r.replayLocked(ctx, ps)
	return nil
}

// Leave removes a player, persisting their wallet first. The departing
// owner's role passes to the earliest remaining joiner.
func (r *Room) Leave(ctx context.Context, playerID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leaveLocked(ctx, playerID)
}

func (r *Room) leaveLocked(ctx context.Context, playerID int64) error {
	ps := r.playerLocked(playerID)
	if ps == nil {
		return ErrUnknownPlayer
	}

	if err := r.store.UpdateWalletChips(playerID, ps.Money()); err != nil {
		r.logger.Error().Err(err).Int64("player", playerID).Msg("wallet persist on leave failed")
	}
	ps.Disconnect(ctx)
	r.seats[ps.Seat] = nil
	for i, id := range r.joinOrder {
		if id == playerID {
			r.joinOrder = append(r.joinOrder[:i], r.joinOrder[i+1:]...)
			break
		}
	}
	if r.owner == playerID {
		r.owner = 0
		if len(r.joinOrder) > 0 {
			r.owner = r.joinOrder[0]
		}
	}

	r.logger.Info().Int64("player", playerID).Msg("player left")
	r.roomUpdateLocked(ctx)
	return nil
}

// AddBot seats a bot on behalf of the owner. Identities are reused
// from the database so bot stats accumulate.
func (r *Room) AddBot(ctx context.Context, requesterID int64, seatIndex int, difficulty string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if requesterID != r.owner {
		return ErrNotOwner
	}
	if r.handInProgress {
		return ErrHandInProgress
	}
	if seatIndex < 0 || seatIndex >= len(r.seats) {
		return fmt.Errorf("seat %d out of range", seatIndex)
	}
	if r.seats[seatIndex] != nil {
		return ErrSeatOccupied
	}

	difficulty = bot.Normalize(difficulty)
	identity, err := r.botIdentityLocked(difficulty)
	if err != nil {
		return err
	}

	chips := r.cfg.Game.InitMoney
	if c, err := r.store.CheckAndResetDailyChips(identity.ID, r.cfg.Game.InitMoney); err == nil {
		chips = c
	}

	p := game.NewPlayer(identity.ID, identity.Name, chips)
	p.Seat = seatIndex
	ps := r.bots.NewPlayer(p, difficulty)
	r.seats[seatIndex] = ps
	r.joinOrder = append(r.joinOrder, identity.ID)

	r.logger.Info().Int64("bot", identity.ID).Str("difficulty", difficulty).Int("seat", seatIndex).Msg("bot seated")
	r.roomUpdateLocked(ctx)
	return nil
}

// botIdentityLocked finds an unseated bot identity for the difficulty,
// creating one when every existing identity is already at the table.
func (r *Room) botIdentityLocked(difficulty string) (store.BotIdentity, error) {
	prefix := difficulty + "_bot_"
	candidates, err := r.store.BotPlayers(prefix)
	if err != nil {
		return store.BotIdentity{}, err
	}
	for _, c := range candidates {
		if r.playerLocked(c.ID) == nil {
			return c, nil
		}
	}

	name := fmt.Sprintf("%s%d", prefix, len(candidates)+1)
	id, err := r.store.CreateBotPlayer(name, name)
	if err != nil {
		return store.BotIdentity{}, err
	}
	return store.BotIdentity{ID: id, Name: name}, nil
}

// RemoveBot vacates a bot seat on behalf of the owner, addressed by
// seat index or bot id.
func (r *Room) RemoveBot(ctx context.Context, requesterID int64, seatIndex *int, botID *int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if requesterID != r.owner {
		return ErrNotOwner
	}
	if r.handInProgress {
		return ErrHandInProgress
	}

	var target *game.PlayerServer
	switch {
	case seatIndex != nil:
		if *seatIndex < 0 || *seatIndex >= len(r.seats) {
			return fmt.Errorf("seat %d out of range", *seatIndex)
		}
		target = r.seats[*seatIndex]
		if target == nil {
			return ErrSeatEmpty
		}
	case botID != nil:
		target = r.playerLocked(*botID)
		if target == nil {
			return ErrUnknownPlayer
		}
	default:
		return fmt.Errorf("remove-bot needs a seat_index or bot_id")
	}

	if !target.IsBot() {
		return ErrNotABot
	}
	return r.leaveLocked(ctx, target.ID)
}

// playerLocked finds a seated player by id.
func (r *Room) playerLocked(id int64) *game.PlayerServer {
	for _, ps := range r.seats {
		if ps != nil && ps.ID == id {
			return ps
		}
	}
	return nil
}

// Players returns the seated players in seat order.
func (r *Room) Players() []*game.PlayerServer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playersLocked()
}

func (r *Room) playersLocked() []*game.PlayerServer {
	players := make([]*game.PlayerServer, 0, len(r.seats))
	for _, ps := range r.seats {
		if ps != nil {
			players = append(players, ps)
		}
	}
	return players
}

// gameEvent receives every event of the running hand, delivers it, and
// buffers it for reconnect replay.
func (r *Room) gameEvent(target int64, msg any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx := context.Background()
	if target != 0 {
		if ps := r.playerLocked(target); ps != nil {
			if err := ps.Send(ctx, msg); err != nil {
				r.logger.Debug().Err(err).Int64("player", target).Msg("targeted send failed")
			}
		}
	} else {
		r.broadcastLocked(ctx, msg)
	}
	r.events = append(r.events, bufferedEvent{target: target, msg: msg})
}

// replayLocked resends the current hand's events to one player,
// keeping broadcasts and that player's targeted events only.
func (r *Room) replayLocked(ctx context.Context, ps *game.PlayerServer) {
	for _, ev := range r.events {
		if ev.target != 0 && ev.target != ps.ID {
			continue
		}
		if err := ps.Send(ctx, ev.msg); err != nil {
			r.logger.Debug().Err(err).Int64("player", ps.ID).Msg("event replay failed")
			return
		}
	}
}

func (r *Room) clearEventsLocked() {
	r.events = nil
}

func (r *Room) broadcastLocked(ctx context.Context, msg any) {
	for _, ps := range r.playersLocked() {
		if err := ps.Send(ctx, msg); err != nil {
			r.logger.Debug().Err(err).Int64("player", ps.ID).Msg("broadcast send failed")
		}
	}
}

// roomUpdateLocked broadcasts the current seating snapshot.
func (r *Room) roomUpdateLocked(ctx context.Context) {
	r.broadcastLocked(ctx, protocol.RoomUpdate{
		MessageType: protocol.TypeRoomUpdate,
		RoomID:      r.ID,
		OwnerID:     r.owner,
		Seats:       r.seatSnapshotLocked(),
	})
}

func (r *Room) seatSnapshotLocked() []protocol.SeatDTO {
	seats := make([]protocol.SeatDTO, len(r.seats))
	for i, ps := range r.seats {
		seats[i] = protocol.SeatDTO{Index: i}
		if ps != nil {
			id := ps.ID
			seats[i].PlayerID = &id
			seats[i].Name = ps.Name
			seats[i].Money = ps.Money()
			seats[i].Bot = ps.IsBot()
		}
	}
	return seats
}
