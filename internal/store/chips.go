package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// Transaction types recorded in chip_transactions.
const (
	TxDailyReset  = "daily_reset"
	TxAutoTopup   = "auto_topup"
	TxAdminAdjust = "admin_adjust"
)

// GetWalletChips returns the player's current wallet balance.
func (s *Store) GetWalletChips(playerID int64) (int, error) {
	var chips int
	err := s.db.QueryRow(`SELECT chips FROM wallet WHERE player_id = ?`, playerID).Scan(&chips)
	if err != nil {
		return 0, fmt.Errorf("wallet for player %d: %w", playerID, err)
	}
	return chips, nil
}

// UpdateWalletChips writes the player's in-memory stack back to the
// wallet, on leave and after each persisted hand.
func (s *Store) UpdateWalletChips(playerID int64, chips int) error {
	res, err := s.db.Exec(`
		UPDATE wallet SET chips = ?, updated_at = unixepoch() WHERE player_id = ?
	`, chips, playerID)
	if err != nil {
		return fmt.Errorf("update wallet for player %d: %w", playerID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update wallet for player %d: no wallet row", playerID)
	}
	return nil
}

// AutoTopup adds chips to the wallet and records an auto_topup
// transaction atomically. handID may be zero when the topup happens
// outside a hand.
func (s *Store) AutoTopup(playerID int64, amount int, handID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		UPDATE wallet SET chips = chips + ?, updated_at = unixepoch() WHERE player_id = ?
	`, amount, playerID); err != nil {
		return fmt.Errorf("topup wallet for player %d: %w", playerID, err)
	}

	var hand any
	if handID != 0 {
		hand = handID
	}
	if _, err := tx.Exec(`
		INSERT INTO chip_transactions (player_id, tx_type, amount, hand_id)
		VALUES (?, ?, ?, ?)
	`, playerID, TxAutoTopup, amount, hand); err != nil {
		return fmt.Errorf("record topup for player %d: %w", playerID, err)
	}

	return tx.Commit()
}

// CheckAndResetDailyChips resets the wallet to initMoney on the first
// touch of a new day, recording a daily_reset transaction for the
// difference. It returns the current (possibly reset) balance.
func (s *Store) CheckAndResetDailyChips(playerID int64, initMoney int) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var chips int
	var lastReset sql.NullString
	err = tx.QueryRow(`
		SELECT chips, last_reset_date FROM wallet WHERE player_id = ?
	`, playerID).Scan(&chips, &lastReset)
	if errors.Is(err, sql.ErrNoRows) {
		// The trigger creates wallets with players, but an orphaned
		// id from the gateway still gets one.
		if _, err := tx.Exec(`
			INSERT INTO wallet (player_id, chips, last_reset_date) VALUES (?, ?, ?)
		`, playerID, initMoney, s.today()); err != nil {
			return 0, fmt.Errorf("create wallet for player %d: %w", playerID, err)
		}
		return initMoney, tx.Commit()
	}
	if err != nil {
		return 0, fmt.Errorf("read wallet for player %d: %w", playerID, err)
	}

	today := s.today()
	if lastReset.Valid && lastReset.String == today {
		return chips, tx.Commit()
	}

	diff := initMoney - chips
	if _, err := tx.Exec(`
		UPDATE wallet SET chips = ?, last_reset_date = ?, updated_at = unixepoch()
		WHERE player_id = ?
	`, initMoney, today, playerID); err != nil {
		return 0, fmt.Errorf("reset wallet for player %d: %w", playerID, err)
	}
	if _, err := tx.Exec(`
		INSERT INTO chip_transactions (player_id, tx_type, amount, tx_date, note)
		VALUES (?, ?, ?, ?, ?)
	`, playerID, TxDailyReset, diff, today,
		fmt.Sprintf("daily reset from %d to %d", chips, initMoney)); err != nil {
		return 0, fmt.Errorf("record reset for player %d: %w", playerID, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return initMoney, nil
}
