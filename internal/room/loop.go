package room

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tablestakes/holdemd/internal/game"
	"github.com/tablestakes/holdemd/internal/protocol"
	"github.com/tablestakes/holdemd/internal/store"
)

const (
	pingDeadline    = 2 * time.Second
	idlePause       = 2 * time.Second
	finalHandsTotal = 10
)

// Activate runs the hand loop until the context is cancelled, the
// final-hands countdown completes, or fewer than two players remain.
func (r *Room) Activate(ctx context.Context) {
	r.mu.Lock()
	if r.active {
		r.mu.Unlock()
		return
	}
	r.active = true
	r.mu.Unlock()

	r.logger.Info().Msg("room activated")
	defer func() {
		r.mu.Lock()
		r.active = false
		r.mu.Unlock()
		r.logger.Info().Msg("room deactivated")
	}()

	dealer := -1
	for ctx.Err() == nil {
		r.pingAll(ctx)
		r.checkFinalRequest(ctx)

		players := r.Players()
		if len(players) < 2 {
			return
		}
		if !allReady(players) {
			if !r.pause(ctx, idlePause) {
				return
			}
			continue
		}

		if done := r.advanceFinalCountdown(ctx); done {
			return
		}

		dealer = (dealer + 1) % len(players)
		r.runHand(ctx, players, dealer)

		for _, ps := range players {
			ps.Ready = false
		}
	}
}

// pingAll probes every seated player in parallel. A missed pong earns
// one reconnection grace window and a second probe before the seat is
// vacated.
func (r *Room) pingAll(ctx context.Context) {
	var g errgroup.Group
	for _, ps := range r.Players() {
		g.Go(func() error {
			if err := ps.Ping(ctx, r.clock.Now().Add(pingDeadline)); err == nil {
				return nil
			}
			r.logger.Info().Int64("player", ps.ID).Msg("ping failed, granting reconnect grace")
			if !r.pause(ctx, r.cfg.PingGrace()) {
				return nil
			}
			if err := ps.Ping(ctx, r.clock.Now().Add(pingDeadline)); err != nil {
				r.logger.Info().Int64("player", ps.ID).Msg("removing unresponsive player")
				r.Leave(ctx, ps.ID)
			}
			return nil
		})
	}
	g.Wait()
}

// checkFinalRequest starts the ten-hand countdown when the owner asked
// for it in a pong.
func (r *Room) checkFinalRequest(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	owner := r.playerLocked(r.owner)
	if owner == nil || !owner.WantsFinal10 || r.finalCountdown {
		return
	}
	owner.WantsFinal10 = false
	r.finalCountdown = true
	r.finalHandCount = 0
	r.broadcastLocked(ctx, protocol.FinalHandsStarted{MessageType: protocol.TypeFinalHandsStarted})
	r.logger.Info().Msg("final hands countdown started")
}

// advanceFinalCountdown counts the upcoming hand against the
// countdown. It reports true when the countdown has finished and the
// room should deactivate.
func (r *Room) advanceFinalCountdown(ctx context.Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.finalCountdown {
		return false
	}
	r.finalHandCount++
	if r.finalHandCount > finalHandsTotal {
		r.finalCountdown = false
		r.broadcastLocked(ctx, protocol.FinalHandsFinished{MessageType: protocol.TypeFinalHandsFinished})
		r.logger.Info().Msg("final hands countdown finished")
		return true
	}
	r.broadcastLocked(ctx, protocol.FinalHandsUpdate{
		MessageType: protocol.TypeFinalHandsUpdate,
		HandCount:   r.finalHandCount,
	})
	return false
}

func allReady(players []*game.PlayerServer) bool {
	for _, ps := range players {
		if !ps.Ready {
			return false
		}
	}
	return true
}

// pause waits for the duration, returning false when the context ends
// first.
func (r *Room) pause(ctx context.Context, d time.Duration) bool {
	timer := r.clock.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// runHand plays one hand over the given players and persists it.
// Storage failures are logged and never interrupt play.
func (r *Room) runHand(ctx context.Context, players []*game.PlayerServer, dealer int) {
	r.mu.Lock()
	r.handInProgress = true
	r.clearEventsLocked()
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.handInProgress = false
		r.mu.Unlock()
	}()

	r.topUpShortStacks(players)

	handID, err := r.store.CreateHand(r.tableID, r.cfg.Game.SmallBlind, r.cfg.Game.BigBlind)
	if err != nil {
		r.logger.Error().Err(err).Msg("create hand record failed, playing unpersisted")
		handID = 0
	}

	ids := make([]int64, len(players))
	for i, ps := range players {
		ids[i] = ps.ID
	}
	r.gameEvent(0, protocol.NewGame{
		MessageType: protocol.TypeNewGame,
		DealerID:    players[dealer].ID,
		PlayerIDs:   ids,
	})

	if handID != 0 {
		for i, ps := range players {
			position := positionName(len(players), (i-dealer+len(players))%len(players))
			if err := r.store.AddHandPlayer(handID, ps.ID, ps.Seat, ps.Money(), position); err != nil {
				r.logger.Error().Err(err).Int64("player", ps.ID).Msg("add hand player failed")
			}
		}
	}

	opts := []game.Option{
		game.WithActionCallback(func(a game.ResolvedAction) {
			if handID == 0 {
				return
			}
			if err := r.store.AddHandAction(handID, a.PlayerID, int(a.Street), a.ActionNum,
				a.ActionType, a.Amount, a.PotBefore); err != nil {
				r.logger.Error().Err(err).Int("action", a.ActionNum).Msg("persist action failed")
			}
		}),
		game.WithHoleCardsCallback(func(playerID int64, cards []string) {
			if handID == 0 {
				return
			}
			if err := r.store.SetHoleCards(handID, playerID, cards); err != nil {
				r.logger.Error().Err(err).Int64("player", playerID).Msg("persist hole cards failed")
			}
		}),
	}

	g, err := game.New(game.Config{
		RoomID:           r.ID,
		HandID:           handID,
		SmallBlind:       r.cfg.Game.SmallBlind,
		BigBlind:         r.cfg.Game.BigBlind,
		MinRaiseRule:     r.cfg.Game.MinRaiseRule,
		BetTimeout:       r.cfg.BetTimeout(),
		TimeoutTolerance: r.cfg.TimeoutTolerance(),
		RevealPause:      r.cfg.RevealPause(),
	}, r.clock, r.rng, r.logger, players, dealer, r.gameEvent, opts...)
	if err != nil {
		r.logger.Error().Err(err).Msg("hand setup failed")
		return
	}

	res, err := g.Run(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("hand aborted")
		return
	}

	r.persistResult(handID, players, res)

	r.mu.Lock()
	r.clearEventsLocked()
	r.broadcastLocked(ctx, protocol.GameOver{MessageType: protocol.TypeGameOver})
	r.mu.Unlock()

	r.broadcastRanking(ctx)
}

// topUpShortStacks loans every player entering the hand with less than
// one big blind back up to the initial stake.
func (r *Room) topUpShortStacks(players []*game.PlayerServer) {
	for _, ps := range players {
		if ps.Money() >= r.cfg.Game.BigBlind {
			continue
		}
		if err := r.store.AutoTopup(ps.ID, r.cfg.Game.InitMoney, 0); err != nil {
			r.logger.Error().Err(err).Int64("player", ps.ID).Msg("auto topup failed")
			continue
		}
		ps.AddMoney(r.cfg.Game.InitMoney)
		r.logger.Info().Int64("player", ps.ID).Int("money", ps.Money()).Msg("auto topup applied")
	}
}

// persistResult writes the hand outcome, per-player results, stats and
// wallets.
func (r *Room) persistResult(handID int64, players []*game.PlayerServer, res *game.Result) {
	if handID != 0 {
		if err := r.store.FinishHand(handID, res.Board, res.TotalPot); err != nil {
			r.logger.Error().Err(err).Msg("finish hand failed")
		}
	}

	for _, ps := range players {
		ending := res.EndingStacks[ps.ID]

		if handID != 0 {
			if err := r.store.SetHandPlayerResult(handID, ps.ID, ending, res.Winners[ps.ID]); err != nil {
				r.logger.Error().Err(err).Int64("player", ps.ID).Msg("persist hand result failed")
			}
		}

		if !res.Aborted {
			net := ending - res.StartingStacks[ps.ID]
			if err := r.store.UpdateDailyStats(ps.ID, net); err != nil {
				r.logger.Error().Err(err).Int64("player", ps.ID).Msg("daily stats failed")
			}
			if hs := res.Stats[ps.ID]; hs != nil {
				if err := r.store.UpdateLifetimeStats(ps.ID, store.HandStats{
					NetChips: hs.NetChips,
					NetBB:    hs.NetBB,
					VPIP:     hs.VPIP,
					PFR:      hs.PFR,
					ThreeBet: hs.ThreeBet,
					AggBets:  hs.AggBets,
					AggCalls: hs.AggCalls,
					WTSD:     hs.WTSD,
					WSD:      hs.WSD,
				}); err != nil {
					r.logger.Error().Err(err).Int64("player", ps.ID).Msg("lifetime stats failed")
				}
			}
		}

		if err := r.store.UpdateWalletChips(ps.ID, ps.Money()); err != nil {
			r.logger.Error().Err(err).Int64("player", ps.ID).Msg("wallet persist failed")
		}
	}
}

// broadcastRanking publishes today's leaderboard after each hand.
func (r *Room) broadcastRanking(ctx context.Context) {
	ranking, err := r.store.DailyRanking()
	if err != nil {
		r.logger.Error().Err(err).Msg("daily ranking query failed")
		return
	}
	entries := make([]protocol.RankingEntry, len(ranking))
	for i, row := range ranking {
		entries[i] = protocol.RankingEntry{PlayerID: row.PlayerID, Name: row.Name, NetChips: row.NetChips}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastLocked(ctx, protocol.UpdateRankingData{
		MessageType: protocol.TypeUpdateRankingData,
		Ranking:     entries,
	})
}

// positionName derives the table position from the seat's clockwise
// offset from the dealer. Heads-up the dealer is the small blind.
func positionName(n, offset int) string {
	if n == 2 {
		if offset == 0 {
			return "SB"
		}
		return "BB"
	}
	switch offset {
	case 0:
		return "BTN"
	case 1:
		return "SB"
	case 2:
		return "BB"
	case 3:
		return "UTG"
	}
	switch offset {
	case n - 1:
		return "CO"
	case n - 2:
		return "HJ"
	}
	return "MP"
}
