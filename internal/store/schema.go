package store

const schema = `
CREATE TABLE IF NOT EXISTS players
(
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    username      TEXT UNIQUE NOT NULL,
    password_hash TEXT,
    nickname      TEXT,
    avatar        TEXT,
    created_at    INTEGER NOT NULL DEFAULT (unixepoch()),
    last_login_at INTEGER
);

CREATE TABLE IF NOT EXISTS wallet
(
    player_id       INTEGER PRIMARY KEY REFERENCES players (id),
    chips           INTEGER NOT NULL DEFAULT 3000 CHECK (chips >= 0),
    last_reset_date TEXT,
    updated_at      INTEGER NOT NULL DEFAULT (unixepoch())
);

CREATE TRIGGER IF NOT EXISTS wallet_autocreate
    AFTER INSERT
    ON players
BEGIN
    INSERT INTO wallet (player_id, chips, last_reset_date)
    VALUES (NEW.id, 3000, date('now', 'localtime'));
END;

CREATE TABLE IF NOT EXISTS poker_tables
(
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    name      TEXT UNIQUE NOT NULL,
    max_seats INTEGER NOT NULL DEFAULT 10
);

CREATE TABLE IF NOT EXISTS hands
(
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    table_id    INTEGER NOT NULL REFERENCES poker_tables (id),
    started_at  INTEGER NOT NULL DEFAULT (unixepoch()),
    ended_at    INTEGER,
    small_blind INTEGER NOT NULL,
    big_blind   INTEGER NOT NULL,
    total_pot   INTEGER,
    board_cards TEXT
);

CREATE TABLE IF NOT EXISTS hand_players
(
    hand_id        INTEGER NOT NULL REFERENCES hands (id),
    player_id      INTEGER NOT NULL REFERENCES players (id),
    seat_no        INTEGER NOT NULL,
    starting_stack INTEGER NOT NULL,
    ending_stack   INTEGER NOT NULL,
    net_chips      INTEGER GENERATED ALWAYS AS (ending_stack - starting_stack) STORED,
    hole_cards     TEXT,
    position_name  TEXT,
    is_winner      INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (hand_id, player_id),
    UNIQUE (hand_id, seat_no)
);

CREATE TABLE IF NOT EXISTS hand_actions
(
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    hand_id     INTEGER NOT NULL REFERENCES hands (id),
    player_id   INTEGER NOT NULL REFERENCES players (id),
    street      INTEGER NOT NULL CHECK (street BETWEEN 0 AND 3),
    action_num  INTEGER NOT NULL,
    action_type TEXT NOT NULL,
    amount      INTEGER NOT NULL,
    pot_before  INTEGER NOT NULL,
    UNIQUE (hand_id, action_num)
);

CREATE TABLE IF NOT EXISTS chip_transactions
(
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    player_id INTEGER NOT NULL REFERENCES players (id),
    tx_time   INTEGER NOT NULL DEFAULT (unixepoch()),
    tx_date   TEXT NOT NULL DEFAULT (date('now', 'localtime')),
    tx_type   TEXT NOT NULL CHECK (tx_type IN ('daily_reset', 'auto_topup', 'admin_adjust')),
    amount    INTEGER NOT NULL,
    hand_id   INTEGER REFERENCES hands (id),
    note      TEXT
);

CREATE TABLE IF NOT EXISTS player_daily_stats
(
    stat_date    TEXT NOT NULL,
    player_id    INTEGER NOT NULL REFERENCES players (id),
    hands_played INTEGER NOT NULL DEFAULT 0,
    net_chips    INTEGER NOT NULL DEFAULT 0,
    settled      INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (stat_date, player_id)
);

CREATE TABLE IF NOT EXISTS player_lifetime_stats
(
    player_id       INTEGER PRIMARY KEY REFERENCES players (id),
    hands_played    INTEGER NOT NULL DEFAULT 0,
    net_chips       INTEGER NOT NULL DEFAULT 0,
    net_bb          REAL NOT NULL DEFAULT 0,
    total_points    INTEGER NOT NULL DEFAULT 0,
    vpip_hands      INTEGER NOT NULL DEFAULT 0,
    pfr_hands       INTEGER NOT NULL DEFAULT 0,
    threebet_hands  INTEGER NOT NULL DEFAULT 0,
    agg_bets_raises INTEGER NOT NULL DEFAULT 0,
    agg_calls       INTEGER NOT NULL DEFAULT 0,
    wtsd_hands      INTEGER NOT NULL DEFAULT 0,
    wsd_hands       INTEGER NOT NULL DEFAULT 0,
    updated_at      TEXT
);

CREATE TABLE IF NOT EXISTS api_keys
(
    service_name TEXT PRIMARY KEY,
    api_key      TEXT NOT NULL
);
`
