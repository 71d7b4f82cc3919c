package store

import "fmt"

// HandStats is one player's classification for a finished hand, fed
// into the lifetime aggregates.
type HandStats struct {
	NetChips int
	NetBB    float64
	VPIP     bool
	PFR      bool
	ThreeBet bool
	AggBets  int
	AggCalls int
	WTSD     bool
	WSD      bool
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// UpdateDailyStats upserts today's row for the player.
func (s *Store) UpdateDailyStats(playerID int64, netChips int) error {
	_, err := s.db.Exec(`
		INSERT INTO player_daily_stats (stat_date, player_id, hands_played, net_chips)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(stat_date, player_id) DO UPDATE SET
			hands_played = hands_played + 1,
			net_chips    = net_chips + excluded.net_chips
	`, s.today(), playerID, netChips)
	if err != nil {
		return fmt.Errorf("daily stats for player %d: %w", playerID, err)
	}
	return nil
}

// UpdateLifetimeStats folds one hand's classification into the
// player's lifetime aggregates.
func (s *Store) UpdateLifetimeStats(playerID int64, hs HandStats) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO player_lifetime_stats (player_id) VALUES (?)
		ON CONFLICT(player_id) DO NOTHING
	`, playerID); err != nil {
		return fmt.Errorf("lifetime stats row for player %d: %w", playerID, err)
	}

	if _, err := tx.Exec(`
		UPDATE player_lifetime_stats
		SET hands_played    = hands_played + 1,
			net_chips       = net_chips + ?,
			net_bb          = net_bb + ?,
			vpip_hands      = vpip_hands + ?,
			pfr_hands       = pfr_hands + ?,
			threebet_hands  = threebet_hands + ?,
			agg_bets_raises = agg_bets_raises + ?,
			agg_calls       = agg_calls + ?,
			wtsd_hands      = wtsd_hands + ?,
			wsd_hands       = wsd_hands + ?,
			updated_at      = datetime('now')
		WHERE player_id = ?
	`, hs.NetChips, hs.NetBB, b2i(hs.VPIP), b2i(hs.PFR), b2i(hs.ThreeBet),
		hs.AggBets, hs.AggCalls, b2i(hs.WTSD), b2i(hs.WSD), playerID); err != nil {
		return fmt.Errorf("lifetime stats for player %d: %w", playerID, err)
	}

	return tx.Commit()
}

// RankingRow is one row of the daily leaderboard, ordered by daily
// net chips.
type RankingRow struct {
	PlayerID int64
	Name     string
	Chips    int
	NetChips int
}

// DailyRanking returns today's leaderboard.
func (s *Store) DailyRanking() ([]RankingRow, error) {
	rows, err := s.db.Query(`
		SELECT s.player_id, COALESCE(p.nickname, p.username), w.chips, s.net_chips
		FROM player_daily_stats s
		JOIN players p ON s.player_id = p.id
		JOIN wallet w ON s.player_id = w.player_id
		WHERE s.stat_date = ?
		ORDER BY s.net_chips DESC
	`, s.today())
	if err != nil {
		return nil, fmt.Errorf("daily ranking: %w", err)
	}
	defer rows.Close()

	var ranking []RankingRow
	for rows.Next() {
		var r RankingRow
		if err := rows.Scan(&r.PlayerID, &r.Name, &r.Chips, &r.NetChips); err != nil {
			return nil, err
		}
		ranking = append(ranking, r)
	}
	return ranking, rows.Err()
}

// LifetimeStats reads back a player's aggregates, mainly for tests.
type LifetimeStats struct {
	HandsPlayed int
	NetChips    int
	NetBB       float64
	TotalPoints int
	VPIPHands   int
	PFRHands    int
	ThreeBet    int
	AggBets     int
	AggCalls    int
	WTSDHands   int
	WSDHands    int
}

// GetLifetimeStats returns the player's lifetime aggregates.
func (s *Store) GetLifetimeStats(playerID int64) (LifetimeStats, error) {
	var ls LifetimeStats
	err := s.db.QueryRow(`
		SELECT hands_played, net_chips, net_bb, total_points, vpip_hands, pfr_hands,
			threebet_hands, agg_bets_raises, agg_calls, wtsd_hands, wsd_hands
		FROM player_lifetime_stats WHERE player_id = ?
	`, playerID).Scan(&ls.HandsPlayed, &ls.NetChips, &ls.NetBB, &ls.TotalPoints, &ls.VPIPHands,
		&ls.PFRHands, &ls.ThreeBet, &ls.AggBets, &ls.AggCalls, &ls.WTSDHands, &ls.WSDHands)
	if err != nil {
		return LifetimeStats{}, fmt.Errorf("lifetime stats for player %d: %w", playerID, err)
	}
	return ls, nil
}
