package store

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) (*Store, *quartz.Mock) {
	t.Helper()

	clock := quartz.NewMock(t)
	clock.Set(time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC))

	s, err := Open(filepath.Join(t.TempDir(), "holdem.db"), clock, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, clock
}

func TestEnsurePlayerCreatesWalletByTrigger(t *testing.T) {
	t.Parallel()

	s, _ := openTestStore(t)
	require.NoError(t, s.EnsurePlayer(1, "alice"))

	chips, err := s.GetWalletChips(1)
	require.NoError(t, err)
	require.Equal(t, 3000, chips)

	// Idempotent for an existing player.
	require.NoError(t, s.EnsurePlayer(1, "alice"))
}

func TestHandWriteSequence(t *testing.T) {
	t.Parallel()

	s, _ := openTestStore(t)
	require.NoError(t, s.EnsurePlayer(1, "alice"))
	require.NoError(t, s.EnsurePlayer(2, "bob"))

	tableID, err := s.GetOrCreateTable("room-1", 10)
	require.NoError(t, err)
	again, err := s.GetOrCreateTable("room-1", 10)
	require.NoError(t, err)
	require.Equal(t, tableID, again)

	handID, err := s.CreateHand(tableID, 5, 10)
	require.NoError(t, err)

	require.NoError(t, s.AddHandPlayer(handID, 1, 0, 3000, "SB"))
	require.NoError(t, s.AddHandPlayer(handID, 2, 1, 3000, "BB"))
	require.NoError(t, s.SetHoleCards(handID, 1, []string{"As", "Kd"}))

	require.NoError(t, s.AddHandAction(handID, 1, 0, 1, "small_blind", 5, 0))
	require.NoError(t, s.AddHandAction(handID, 2, 0, 2, "big_blind", 10, 5))
	require.NoError(t, s.AddHandAction(handID, 1, 0, 3, "call", 5, 15))
	require.NoError(t, s.AddHandAction(handID, 2, 0, 4, "check", 0, 20))

	// action_num is unique per hand.
	require.Error(t, s.AddHandAction(handID, 1, 1, 4, "check", 0, 20))

	require.NoError(t, s.FinishHand(handID, []string{"2c", "7d", "Jh", "Qs", "3c"}, 20))
	require.NoError(t, s.SetHandPlayerResult(handID, 1, 3010, true))
	require.NoError(t, s.SetHandPlayerResult(handID, 2, 2990, false))

	actions, err := s.HandActions(handID)
	require.NoError(t, err)
	require.Len(t, actions, 4)
	require.Equal(t, "small_blind", actions[0].ActionType)
	require.Equal(t, "check", actions[3].ActionType)

	// net_chips is generated from the stacks.
	var net int
	require.NoError(t, s.db.QueryRow(
		`SELECT net_chips FROM hand_players WHERE hand_id = ? AND player_id = 1`, handID).Scan(&net))
	require.Equal(t, 10, net)
}

func TestDailyResetOnNewDay(t *testing.T) {
	t.Parallel()

	s, clock := openTestStore(t)
	require.NoError(t, s.EnsurePlayer(7, "carol"))

	// Lose chips during the day; same-day check keeps the balance.
	require.NoError(t, s.UpdateWalletChips(7, 1500))
	chips, err := s.CheckAndResetDailyChips(7, 3000)
	require.NoError(t, err)
	require.Equal(t, 1500, chips)

	// Next day's first touch resets to the initial bankroll.
	clock.Set(time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC))
	chips, err = s.CheckAndResetDailyChips(7, 3000)
	require.NoError(t, err)
	require.Equal(t, 3000, chips)

	var txType string
	var amount int
	require.NoError(t, s.db.QueryRow(`
		SELECT tx_type, amount FROM chip_transactions
		WHERE player_id = 7 ORDER BY id DESC LIMIT 1
	`).Scan(&txType, &amount))
	require.Equal(t, TxDailyReset, txType)
	require.Equal(t, 1500, amount)

	// Second touch on the same day is a no-op.
	chips, err = s.CheckAndResetDailyChips(7, 3000)
	require.NoError(t, err)
	require.Equal(t, 3000, chips)
}

func TestAutoTopupRecordsTransaction(t *testing.T) {
	t.Parallel()

	s, _ := openTestStore(t)
	require.NoError(t, s.EnsurePlayer(3, "dave"))
	require.NoError(t, s.UpdateWalletChips(3, 4))

	require.NoError(t, s.AutoTopup(3, 3000, 0))

	chips, err := s.GetWalletChips(3)
	require.NoError(t, err)
	require.Equal(t, 3004, chips)

	var txType string
	require.NoError(t, s.db.QueryRow(`
		SELECT tx_type FROM chip_transactions WHERE player_id = 3
	`).Scan(&txType))
	require.Equal(t, TxAutoTopup, txType)
}

func TestStatsAndRanking(t *testing.T) {
	t.Parallel()

	s, _ := openTestStore(t)
	require.NoError(t, s.EnsurePlayer(1, "alice"))
	require.NoError(t, s.EnsurePlayer(2, "bob"))

	require.NoError(t, s.UpdateDailyStats(1, 120))
	require.NoError(t, s.UpdateDailyStats(1, -20))
	require.NoError(t, s.UpdateDailyStats(2, 50))

	ranking, err := s.DailyRanking()
	require.NoError(t, err)
	require.Len(t, ranking, 2)
	require.Equal(t, int64(1), ranking[0].PlayerID)
	require.Equal(t, 100, ranking[0].NetChips)

	require.NoError(t, s.UpdateLifetimeStats(1, HandStats{
		NetChips: 100, NetBB: 10, VPIP: true, PFR: true, AggBets: 2, AggCalls: 1, WTSD: true, WSD: true,
	}))
	require.NoError(t, s.UpdateLifetimeStats(1, HandStats{NetChips: -20, NetBB: -2}))

	ls, err := s.GetLifetimeStats(1)
	require.NoError(t, err)
	require.Equal(t, 2, ls.HandsPlayed)
	require.Equal(t, 80, ls.NetChips)
	require.InDelta(t, 8.0, ls.NetBB, 0.001)
	require.Equal(t, 1, ls.VPIPHands)
	require.Equal(t, 1, ls.PFRHands)
	require.Equal(t, 2, ls.AggBets)
	require.Equal(t, 1, ls.AggCalls)
}

func TestAPIKeys(t *testing.T) {
	t.Parallel()

	s, _ := openTestStore(t)

	_, err := s.GetAPIKey("solver")
	require.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, s.SetAPIKey("solver", "http://solver:9000"))
	key, err := s.GetAPIKey("solver")
	require.NoError(t, err)
	require.Equal(t, "http://solver:9000", key)
}

func TestSettleFoldsDailyNetIntoTotalPoints(t *testing.T) {
	t.Parallel()

	s, clock := openTestStore(t)
	require.NoError(t, s.EnsurePlayer(1, "alice"))
	require.NoError(t, s.EnsurePlayer(2, "bob"))

	require.NoError(t, s.UpdateDailyStats(1, 120))
	require.NoError(t, s.UpdateDailyStats(1, 30))
	require.NoError(t, s.UpdateDailyStats(2, -40))

	require.NoError(t, s.Settle())

	ls, err := s.GetLifetimeStats(1)
	require.NoError(t, err)
	require.Equal(t, 150, ls.TotalPoints)
	ls, err = s.GetLifetimeStats(2)
	require.NoError(t, err)
	require.Equal(t, -40, ls.TotalPoints)

	// Re-running without new results never double-counts.
	require.NoError(t, s.Settle())
	ls, err = s.GetLifetimeStats(1)
	require.NoError(t, err)
	require.Equal(t, 150, ls.TotalPoints)

	// The next day's results settle on top.
	clock.Set(time.Date(2026, 3, 15, 1, 0, 0, 0, time.UTC))
	require.NoError(t, s.UpdateDailyStats(1, -50))
	require.NoError(t, s.Settle())
	ls, err = s.GetLifetimeStats(1)
	require.NoError(t, err)
	require.Equal(t, 100, ls.TotalPoints)
}

func TestSettleOnEmptyDatabase(t *testing.T) {
	t.Parallel()

	s, _ := openTestStore(t)
	require.NoError(t, s.Settle())
}
