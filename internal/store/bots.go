package store

import "fmt"

// BotIdentity is a players row reserved for a bot seat.
type BotIdentity struct {
	ID   int64
	Name string
}

// BotPlayers lists bot identities whose username starts with prefix,
// e.g. "easy_bot_". Rooms reuse identities so stats accumulate across
// sessions.
func (s *Store) BotPlayers(prefix string) ([]BotIdentity, error) {
	rows, err := s.db.Query(`
		SELECT id, COALESCE(nickname, username) FROM players
		WHERE username LIKE ? || '%' ORDER BY id
	`, prefix)
	if err != nil {
		return nil, fmt.Errorf("list bot players %q: %w", prefix, err)
	}
	defer rows.Close()

	var bots []BotIdentity
	for rows.Next() {
		var b BotIdentity
		if err := rows.Scan(&b.ID, &b.Name); err != nil {
			return nil, err
		}
		bots = append(bots, b)
	}
	return bots, rows.Err()
}

// CreateBotPlayer inserts a fresh bot identity; the wallet trigger
// funds it like any other player.
func (s *Store) CreateBotPlayer(username, nickname string) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO players (username, nickname) VALUES (?, ?)
	`, username, nickname)
	if err != nil {
		return 0, fmt.Errorf("create bot player %q: %w", username, err)
	}
	return res.LastInsertId()
}
