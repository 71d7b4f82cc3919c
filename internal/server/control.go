package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/tablestakes/holdemd/internal/broker"
	"github.com/tablestakes/holdemd/internal/protocol"
)

// controlLoop consumes owner commands from the room-control queue.
// Failures are reported back on the requester's outbound channel.
func (s *Server) controlLoop(ctx context.Context) error {
	queue := s.broker.RoomControlQueue()
	for {
		payload, err := queue.Pop(ctx, popTimeout)
		if err != nil {
			if errors.Is(err, broker.ErrMessageTimeout) {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Error().Err(err).Msg("room control pop failed")
			continue
		}
		if err := s.handleRoomControl(ctx, payload); err != nil {
			s.logger.Warn().Err(err).Msg("room control rejected")
		}
	}
}

func (s *Server) handleRoomControl(ctx context.Context, payload []byte) error {
	msg, err := protocol.DecodeClient(payload)
	if err != nil {
		return err
	}
	cmd, ok := msg.(*protocol.RoomControl)
	if !ok {
		return fmt.Errorf("%w: unexpected message on control queue", broker.ErrMessageFormat)
	}
	if cmd.RoomID == "" || cmd.PlayerID == 0 {
		return fmt.Errorf("%w: room-control needs room_id and player_id", broker.ErrMessageFormat)
	}

	r := s.Room(cmd.RoomID)
	if r == nil {
		s.replyError(ctx, cmd, "unknown_room", fmt.Sprintf("room %s not found", cmd.RoomID))
		return fmt.Errorf("room %s not found", cmd.RoomID)
	}

	switch cmd.Action {
	case protocol.RoomControlAddBot:
		if cmd.SeatIndex == nil {
			s.replyError(ctx, cmd, "bad_request", "add-bot needs a seat_index")
			return fmt.Errorf("%w: add-bot without seat_index", broker.ErrMessageFormat)
		}
		difficulty := cmd.Difficulty
		if difficulty == "" {
			difficulty = s.cfg.Bots.DefaultDifficulty
		}
		if err := r.AddBot(ctx, cmd.PlayerID, *cmd.SeatIndex, difficulty); err != nil {
			s.replyError(ctx, cmd, "add_bot_failed", err.Error())
			return err
		}
		s.activateRoom(ctx, r)
		return nil

	case protocol.RoomControlRemoveBot:
		if err := r.RemoveBot(ctx, cmd.PlayerID, cmd.SeatIndex, cmd.BotID); err != nil {
			s.replyError(ctx, cmd, "remove_bot_failed", err.Error())
			return err
		}
		return nil

	default:
		s.replyError(ctx, cmd, "bad_request", fmt.Sprintf("unknown action %q", cmd.Action))
		return fmt.Errorf("%w: unknown room-control action %q", broker.ErrMessageFormat, cmd.Action)
	}
}

// replyError delivers a control failure to the requester's session
// channel when the request names one.
func (s *Server) replyError(ctx context.Context, cmd *protocol.RoomControl, code, message string) {
	if cmd.SessionID == "" {
		return
	}
	ch := s.broker.SessionChannel(cmd.PlayerID, cmd.SessionID)
	s.sendError(ctx, ch, code, message)
}
