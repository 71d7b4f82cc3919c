// Package server consumes the gateway-facing queues: lobby join
// requests and room-control commands, routing both into rooms.
package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/coder/quartz"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tablestakes/holdemd/internal/bot"
	"github.com/tablestakes/holdemd/internal/broker"
	"github.com/tablestakes/holdemd/internal/config"
	"github.com/tablestakes/holdemd/internal/randutil"
	"github.com/tablestakes/holdemd/internal/room"
	"github.com/tablestakes/holdemd/internal/store"
)

// Broker abstracts queue and session channel construction so the
// server runs over Redis in production and in memory under test.
type Broker interface {
	LobbyQueue() broker.Queue
	RoomControlQueue() broker.Queue
	SessionChannel(playerID int64, sessionID string) broker.Channel
}

// RedisBroker is the production Broker over a Redis client.
type RedisBroker struct {
	client *redis.Client
}

// NewRedisBroker wraps a Redis client.
func NewRedisBroker(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client}
}

func (b *RedisBroker) LobbyQueue() broker.Queue {
	return broker.NewRedisQueue(b.client, broker.LobbyQueueName)
}

func (b *RedisBroker) RoomControlQueue() broker.Queue {
	return broker.NewRedisQueue(b.client, broker.RoomControlQueueName)
}

func (b *RedisBroker) SessionChannel(playerID int64, sessionID string) broker.Channel {
	return broker.NewRedisChannel(b.client, playerID, sessionID)
}

// Server owns the room set and the two consumer loops.
type Server struct {
	id     string
	cfg    *config.Config
	clock  quartz.Clock
	logger zerolog.Logger
	store  *store.Store
	broker Broker
	bots   *bot.Registry

	mu       sync.Mutex
	rooms    map[string]*room.Room
	nextRoom int

	// loops tracks room hand loops for shutdown.
	loops errgroup.Group
}

// New assembles a server. The bot solver URL comes from the api_keys
// table when present, the configuration otherwise.
func New(cfg *config.Config, clock quartz.Clock, st *store.Store, b Broker, logger zerolog.Logger) *Server {
	decisionURL := cfg.Bots.DecisionURL
	if key, err := st.GetAPIKey("solver"); err == nil && key != "" {
		decisionURL = key
	}

	return &Server{
		id:     cfg.Server.ID,
		cfg:    cfg,
		clock:  clock,
		logger: logger.With().Str("component", "server").Logger(),
		store:  st,
		broker: b,
		bots:   bot.NewRegistry(decisionURL, "", cfg.BotDecisionTimeout(), logger),
		rooms:  make(map[string]*room.Room),
	}
}

// Run consumes the lobby and room-control queues until the context
// ends, then waits for the room loops to wind down.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info().Str("server_id", s.id).Msg("server started")

	var g errgroup.Group
	g.Go(func() error { return s.lobbyLoop(ctx) })
	g.Go(func() error { return s.controlLoop(ctx) })
	err := g.Wait()
	s.loops.Wait()
	return err
}

// Room returns a room by id, nil when absent.
func (s *Server) Room(id string) *room.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms[id]
}

// roomFor resolves the target room for a join. A named join reaches or
// creates that room; gateway-named rooms are private tables. An
// unaddressed join fills the first public room with space, else a
// fresh public one.
func (s *Server) roomFor(ctx context.Context, roomID string) (*room.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if roomID != "" {
		if r, ok := s.rooms[roomID]; ok {
			return r, nil
		}
		return s.createRoomLocked(ctx, roomID, true)
	}

	for _, r := range s.rooms {
		if !r.Private() && len(r.Players()) < s.cfg.Game.RoomSize {
			return r, nil
		}
	}
	s.nextRoom++
	return s.createRoomLocked(ctx, fmt.Sprintf("room-%d", s.nextRoom), false)
}

func (s *Server) createRoomLocked(ctx context.Context, id string, private bool) (*room.Room, error) {
	r, err := room.New(id, private, s.cfg, s.clock, randutil.FromTime(s.clock.Now()),
		s.store, s.bots, s.logger)
	if err != nil {
		return nil, err
	}
	s.rooms[id] = r
	s.logger.Info().Str("room", id).Bool("private", private).Msg("room created")
	return r, nil
}

// activateRoom starts the room's hand loop unless it is already
// running. Rooms deactivate below two players, so every join and bot
// addition gives the loop a chance to resume.
func (s *Server) activateRoom(ctx context.Context, r *room.Room) {
	if r.Active() {
		return
	}
	s.loops.Go(func() error {
		r.Activate(ctx)
		return nil
	})
}
