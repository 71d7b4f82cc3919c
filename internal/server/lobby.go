package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tablestakes/holdemd/internal/broker"
	"github.com/tablestakes/holdemd/internal/game"
	"github.com/tablestakes/holdemd/internal/protocol"
)

const popTimeout = time.Second

// lobbyLoop consumes join requests. A bad request is logged and
// dropped; the queue never stalls on one.
func (s *Server) lobbyLoop(ctx context.Context) error {
	queue := s.broker.LobbyQueue()
	for {
		payload, err := queue.Pop(ctx, popTimeout)
		if err != nil {
			if errors.Is(err, broker.ErrMessageTimeout) {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Error().Err(err).Msg("lobby pop failed")
			continue
		}
		if err := s.connectPlayer(ctx, payload); err != nil {
			s.logger.Error().Err(err).Msg("unable to connect player")
		}
	}
}

// connectPlayer validates one lobby request, opens the session
// channel, acknowledges, and routes the player into a room.
func (s *Server) connectPlayer(ctx context.Context, payload []byte) error {
	var req protocol.LobbyRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("%w: lobby request: %v", broker.ErrMessageFormat, err)
	}

	if req.TimeoutEpoch < s.clock.Now().Unix() {
		return fmt.Errorf("%w: connection request expired", broker.ErrMessageTimeout)
	}
	if req.SessionID == "" {
		return fmt.Errorf("%w: missing session_id", broker.ErrMessageFormat)
	}
	if req.Player.ID == 0 {
		return fmt.Errorf("%w: missing player.id", broker.ErrMessageFormat)
	}
	if req.Player.Name == "" {
		return fmt.Errorf("%w: missing player.name", broker.ErrMessageFormat)
	}
	if len(req.Player.Avatar) > s.cfg.Game.AvatarLimitBytes {
		req.Player.Avatar = ""
	}

	if err := s.store.EnsurePlayer(req.Player.ID, req.Player.Name); err != nil {
		return err
	}

	ch := s.broker.SessionChannel(req.Player.ID, req.SessionID)

	ack, err := protocol.Encode(protocol.Connect{
		MessageType: protocol.TypeConnect,
		ServerID:    s.id,
		Player:      req.Player,
	})
	if err != nil {
		return err
	}
	if err := ch.Send(ctx, ack); err != nil {
		return fmt.Errorf("connect ack for player %d: %w", req.Player.ID, err)
	}

	r, err := s.roomFor(ctx, req.RoomID)
	if err != nil {
		return err
	}

	p := game.NewPlayer(req.Player.ID, req.Player.Name, req.Player.Money)
	p.Avatar = req.Player.Avatar
	if err := r.Join(ctx, p, ch); err != nil {
		s.sendError(ctx, ch, "join_failed", err.Error())
		ch.Close()
		return fmt.Errorf("join room %s: %w", r.ID, err)
	}

	s.activateRoom(ctx, r)
	s.logger.Info().Int64("player", req.Player.ID).Str("room", r.ID).Msg("player connected")
	return nil
}

func (s *Server) sendError(ctx context.Context, ch broker.Channel, code, message string) {
	payload, err := protocol.Encode(protocol.Error{
		MessageType: protocol.TypeError,
		Code:        code,
		Message:     message,
	})
	if err != nil {
		return
	}
	if err := ch.Send(ctx, payload); err != nil {
		s.logger.Debug().Err(err).Msg("error delivery failed")
	}
}
