package main

import (
	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/tablestakes/holdemd/internal/config"
	"github.com/tablestakes/holdemd/internal/store"
)

// InitDBCmd creates the database schema. Opening the store applies it,
// so this exists to prepare a fresh deployment before first serve.
type InitDBCmd struct {
	Config string `kong:"default='holdemd.hcl',help='Path to the HCL configuration file'"`
	DBPath string `kong:"help='SQLite database path (overrides the config file)'"`
}

func (c *InitDBCmd) Run() error {
	st, logger, err := openStore(c.Config, c.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()
	logger.Info().Msg("database ready")
	return nil
}

// SettleCmd runs the daily settlement pass once and exits. Meant to be
// invoked from cron.
type SettleCmd struct {
	Config string `kong:"default='holdemd.hcl',help='Path to the HCL configuration file'"`
	DBPath string `kong:"help='SQLite database path (overrides the config file)'"`
}

func (c *SettleCmd) Run() error {
	st, logger, err := openStore(c.Config, c.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Settle(); err != nil {
		return err
	}
	logger.Info().Msg("settlement complete")
	return nil
}

func openStore(configPath, dbPath string) (*store.Store, zerolog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, err
	}
	if dbPath != "" {
		cfg.Server.DBPath = dbPath
	}
	logger := setupLogger(cfg)
	st, err := store.Open(cfg.Server.DBPath, quartz.NewReal(), logger)
	if err != nil {
		return nil, logger, err
	}
	return st, logger, nil
}
