// Package store persists hands, actions, wallets and statistics to
// SQLite. Storage failures are logged by callers and never abort a
// hand in progress.
package store

import (
	"database/sql"
	"fmt"

	"github.com/coder/quartz"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// Store wraps the SQLite connection. The injected clock supplies the
// dates used for daily resets and stats so tests can pin the day.
type Store struct {
	db     *sql.DB
	clock  quartz.Clock
	logger zerolog.Logger
}

// Open opens (creating if needed) the database at path with WAL
// journaling and foreign keys on, and applies the schema.
func Open(path string, clock quartz.Clock, logger zerolog.Logger) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite serializes writers; a single connection avoids busy
	// retries under the per-room write pattern.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{
		db:     db,
		clock:  clock,
		logger: logger.With().Str("component", "store").Logger(),
	}, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) today() string {
	return s.clock.Now().Format("2006-01-02")
}

// EnsurePlayer makes sure a players row (and via trigger a wallet row)
// exists for the given id, returning the id. Gateway-created players
// pass through untouched.
func (s *Store) EnsurePlayer(id int64, name string) error {
	_, err := s.db.Exec(`
		INSERT INTO players (id, username, nickname)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, fmt.Sprintf("player-%d", id), name)
	if err != nil {
		return fmt.Errorf("ensure player %d: %w", id, err)
	}
	return nil
}

// GetAPIKey returns the stored key for a service, or sql.ErrNoRows.
func (s *Store) GetAPIKey(service string) (string, error) {
	var key string
	err := s.db.QueryRow(`SELECT api_key FROM api_keys WHERE service_name = ?`, service).Scan(&key)
	if err != nil {
		return "", err
	}
	return key, nil
}

// SetAPIKey upserts a service key.
func (s *Store) SetAPIKey(service, key string) error {
	_, err := s.db.Exec(`
		INSERT INTO api_keys (service_name, api_key) VALUES (?, ?)
		ON CONFLICT(service_name) DO UPDATE SET api_key = excluded.api_key
	`, service, key)
	return err
}

// Settle is the daily settlement entry point invoked by the cron
// caller. Every unsettled daily net result is folded into the player's
// lifetime total points, the days are marked settled, and the database
// gets its maintenance pass. Re-running never double-counts.
func (s *Store) Settle() error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO player_lifetime_stats (player_id, total_points)
		SELECT player_id, SUM(net_chips)
		FROM player_daily_stats
		WHERE settled = 0
		GROUP BY player_id
		ON CONFLICT(player_id) DO UPDATE SET
			total_points = total_points + excluded.total_points,
			updated_at   = datetime('now')
	`); err != nil {
		return fmt.Errorf("settle daily points: %w", err)
	}
	if _, err := tx.Exec(`UPDATE player_daily_stats SET settled = 1 WHERE settled = 0`); err != nil {
		return fmt.Errorf("mark days settled: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	if _, err := s.db.Exec(`PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return fmt.Errorf("wal checkpoint: %w", err)
	}
	if _, err := s.db.Exec(`ANALYZE`); err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	s.logger.Info().Str("date", s.today()).Msg("daily settlement completed")
	return nil
}
