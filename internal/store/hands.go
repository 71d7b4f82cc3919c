package store

import (
	"encoding/json"
	"fmt"
)

// GetOrCreateTable returns the id of the named table, creating it on
// first use.
func (s *Store) GetOrCreateTable(name string, maxSeats int) (int64, error) {
	var id int64
	err := s.db.QueryRow(`SELECT id FROM poker_tables WHERE name = ?`, name).Scan(&id)
	if err == nil {
		return id, nil
	}

	res, err := s.db.Exec(`
		INSERT INTO poker_tables (name, max_seats) VALUES (?, ?)
	`, name, maxSeats)
	if err != nil {
		return 0, fmt.Errorf("create table %q: %w", name, err)
	}
	return res.LastInsertId()
}

// CreateHand opens a new hand record and returns its id.
func (s *Store) CreateHand(tableID int64, smallBlind, bigBlind int) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO hands (table_id, small_blind, big_blind, started_at)
		VALUES (?, ?, ?, ?)
	`, tableID, smallBlind, bigBlind, s.clock.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("create hand for table %d: %w", tableID, err)
	}
	return res.LastInsertId()
}

// AddHandPlayer records one participant. The ending stack starts equal
// to the starting stack and is corrected at settlement.
func (s *Store) AddHandPlayer(handID, playerID int64, seatNo, startingStack int, positionName string) error {
	_, err := s.db.Exec(`
		INSERT INTO hand_players (hand_id, player_id, seat_no, starting_stack, ending_stack, position_name)
		VALUES (?, ?, ?, ?, ?, ?)
	`, handID, playerID, seatNo, startingStack, startingStack, positionName)
	if err != nil {
		return fmt.Errorf("add player %d to hand %d: %w", playerID, handID, err)
	}
	return nil
}

// SetHoleCards stores a participant's hole cards in wire form.
func (s *Store) SetHoleCards(handID, playerID int64, cards []string) error {
	payload, err := json.Marshal(cards)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		UPDATE hand_players SET hole_cards = ? WHERE hand_id = ? AND player_id = ?
	`, string(payload), handID, playerID)
	if err != nil {
		return fmt.Errorf("set hole cards for player %d in hand %d: %w", playerID, handID, err)
	}
	return nil
}

// AddHandAction appends one resolved action. action_num is the
// hand-wide monotonic sequence, so replaying a hand is a single
// ordered scan.
func (s *Store) AddHandAction(handID, playerID int64, street, actionNum int, actionType string, amount, potBefore int) error {
	_, err := s.db.Exec(`
		INSERT INTO hand_actions (hand_id, player_id, street, action_num, action_type, amount, pot_before)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, handID, playerID, street, actionNum, actionType, amount, potBefore)
	if err != nil {
		return fmt.Errorf("add action %d to hand %d: %w", actionNum, handID, err)
	}
	return nil
}

// FinishHand closes the hand record with the board and the total pot.
func (s *Store) FinishHand(handID int64, board []string, totalPot int) error {
	payload, err := json.Marshal(board)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		UPDATE hands SET ended_at = ?, board_cards = ?, total_pot = ? WHERE id = ?
	`, s.clock.Now().Unix(), string(payload), totalPot, handID)
	if err != nil {
		return fmt.Errorf("finish hand %d: %w", handID, err)
	}
	return nil
}

// SetHandPlayerResult records a participant's ending stack and winner
// flag; net_chips derives in the schema.
func (s *Store) SetHandPlayerResult(handID, playerID int64, endingStack int, isWinner bool) error {
	_, err := s.db.Exec(`
		UPDATE hand_players SET ending_stack = ?, is_winner = ?
		WHERE hand_id = ? AND player_id = ?
	`, endingStack, isWinner, handID, playerID)
	if err != nil {
		return fmt.Errorf("set result for player %d in hand %d: %w", playerID, handID, err)
	}
	return nil
}

// HandAction is one recorded action row, used by tests and analysis.
type HandAction struct {
	PlayerID   int64
	Street     int
	ActionNum  int
	ActionType string
	Amount     int
	PotBefore  int
}

// HandActions returns a hand's actions in action_num order.
func (s *Store) HandActions(handID int64) ([]HandAction, error) {
	rows, err := s.db.Query(`
		SELECT player_id, street, action_num, action_type, amount, pot_before
		FROM hand_actions WHERE hand_id = ? ORDER BY action_num
	`, handID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []HandAction
	for rows.Next() {
		var a HandAction
		if err := rows.Scan(&a.PlayerID, &a.Street, &a.ActionNum, &a.ActionType, &a.Amount, &a.PotBefore); err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}
