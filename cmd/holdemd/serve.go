package main

import (
	"context"
	"time"

	"github.com/coder/quartz"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/tablestakes/holdemd/cmd/holdemd/shared"
	"github.com/tablestakes/holdemd/internal/config"
	"github.com/tablestakes/holdemd/internal/server"
	"github.com/tablestakes/holdemd/internal/store"
)

// ServeCmd runs the game server against Redis and SQLite.
type ServeCmd struct {
	Config    string `kong:"default='holdemd.hcl',help='Path to the HCL configuration file'"`
	RedisAddr string `kong:"help='Redis address (overrides the config file)'"`
	DBPath    string `kong:"help='SQLite database path (overrides the config file)'"`
	Debug     bool   `kong:"help='Enable debug logging'"`
}

func (c *ServeCmd) Run() error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}
	if c.RedisAddr != "" {
		cfg.Server.RedisAddr = c.RedisAddr
	}
	if c.DBPath != "" {
		cfg.Server.DBPath = c.DBPath
	}
	if c.Debug {
		cfg.Server.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := setupLogger(cfg)

	client := redis.NewClient(&redis.Options{Addr: cfg.Server.RedisAddr})
	defer client.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return err
	}

	st, err := store.Open(cfg.Server.DBPath, quartz.NewReal(), logger)
	if err != nil {
		return err
	}
	defer st.Close()

	s := server.New(cfg, quartz.NewReal(), st, server.NewRedisBroker(client), logger)

	logger.Info().
		Str("redis", cfg.Server.RedisAddr).
		Str("db", cfg.Server.DBPath).
		Int("small_blind", cfg.Game.SmallBlind).
		Int("big_blind", cfg.Game.BigBlind).
		Int("room_size", cfg.Game.RoomSize).
		Msg("Starting holdemd")

	ctx := shared.SetupSignalHandler(logger)
	return s.Run(ctx)
}

func setupLogger(cfg *config.Config) zerolog.Logger {
	if cfg.Server.LogJSON {
		return shared.SetupStructuredLogger(cfg.Server.LogLevel)
	}
	return shared.SetupLogger(cfg.Server.LogLevel)
}
