// Package config loads the server configuration from an HCL file and
// fills in the defaults the game engine runs with.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the complete server configuration.
type Config struct {
	Server Server `hcl:"server,block"`
	Game   Game   `hcl:"game,block"`
	Bots   Bots   `hcl:"bots,block"`
}

// Server holds process-level settings.
type Server struct {
	ID        string `hcl:"id,optional"`
	RedisAddr string `hcl:"redis_addr,optional"`
	DBPath    string `hcl:"db_path,optional"`
	LogLevel  string `hcl:"log_level,optional"`
	LogJSON   bool   `hcl:"log_json,optional"`
}

// Game holds the table rules and timing knobs.
type Game struct {
	SmallBlind       int    `hcl:"small_blind,optional"`
	BigBlind         int    `hcl:"big_blind,optional"`
	RoomSize         int    `hcl:"room_size,optional"`
	InitMoney        int    `hcl:"init_money,optional"`
	MinRaiseRule     string `hcl:"min_raise_rule,optional"`
	BetTimeoutSec    int    `hcl:"bet_timeout_sec,optional"`
	TimeoutTolSec    int    `hcl:"timeout_tolerance_sec,optional"`
	RevealPauseSec   int    `hcl:"reveal_pause_sec,optional"`
	PingGraceSec     int    `hcl:"ping_grace_sec,optional"`
	AvatarLimitBytes int    `hcl:"avatar_limit_bytes,optional"`
}

// Bots holds the bot decision pipeline settings.
type Bots struct {
	DecisionURL       string `hcl:"decision_url,optional"`
	DecisionTimeoutMS int    `hcl:"decision_timeout_ms,optional"`
	DefaultDifficulty string `hcl:"default_difficulty,optional"`
}

// Minimum-raise rules.
const (
	RaiseRuleFullIncrement = "full_increment"
	RaiseRuleBigBlind      = "big_blind"
)

// Default returns the configuration the server runs with when no file
// is present.
func Default() *Config {
	return &Config{
		Server: Server{
			ID:        "holdemd-1",
			RedisAddr: "localhost:6379",
			DBPath:    "holdem.db",
			LogLevel:  "info",
		},
		Game: Game{
			SmallBlind:       5,
			BigBlind:         10,
			RoomSize:         10,
			InitMoney:        3000,
			MinRaiseRule:     RaiseRuleFullIncrement,
			BetTimeoutSec:    30,
			TimeoutTolSec:    2,
			RevealPauseSec:   2,
			PingGraceSec:     3,
			AvatarLimitBytes: 150 * 1024,
		},
		Bots: Bots{
			DecisionTimeoutMS: 1200,
			DefaultDifficulty: "easy",
		},
	}
}

// Load reads an HCL config file, applying defaults for anything the
// file leaves out. A missing file yields the defaults.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var cfg Config
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	def := Default()

	if c.Server.ID == "" {
		c.Server.ID = def.Server.ID
	}
	if c.Server.RedisAddr == "" {
		c.Server.RedisAddr = def.Server.RedisAddr
	}
	if c.Server.DBPath == "" {
		c.Server.DBPath = def.Server.DBPath
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = def.Server.LogLevel
	}

	if c.Game.SmallBlind == 0 {
		c.Game.SmallBlind = def.Game.SmallBlind
	}
	if c.Game.BigBlind == 0 {
		c.Game.BigBlind = def.Game.BigBlind
	}
	if c.Game.RoomSize == 0 {
		c.Game.RoomSize = def.Game.RoomSize
	}
	if c.Game.InitMoney == 0 {
		c.Game.InitMoney = def.Game.InitMoney
	}
	if c.Game.MinRaiseRule == "" {
		c.Game.MinRaiseRule = def.Game.MinRaiseRule
	}
	if c.Game.BetTimeoutSec == 0 {
		c.Game.BetTimeoutSec = def.Game.BetTimeoutSec
	}
	if c.Game.TimeoutTolSec == 0 {
		c.Game.TimeoutTolSec = def.Game.TimeoutTolSec
	}
	if c.Game.RevealPauseSec == 0 {
		c.Game.RevealPauseSec = def.Game.RevealPauseSec
	}
	if c.Game.PingGraceSec == 0 {
		c.Game.PingGraceSec = def.Game.PingGraceSec
	}
	if c.Game.AvatarLimitBytes == 0 {
		c.Game.AvatarLimitBytes = def.Game.AvatarLimitBytes
	}

	if c.Bots.DecisionTimeoutMS == 0 {
		c.Bots.DecisionTimeoutMS = def.Bots.DecisionTimeoutMS
	}
	if c.Bots.DefaultDifficulty == "" {
		c.Bots.DefaultDifficulty = def.Bots.DefaultDifficulty
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Game.SmallBlind <= 0 {
		return fmt.Errorf("small blind must be positive")
	}
	if c.Game.BigBlind <= c.Game.SmallBlind {
		return fmt.Errorf("big blind must be greater than small blind")
	}
	if c.Game.RoomSize < 2 || c.Game.RoomSize > 10 {
		return fmt.Errorf("room size must be between 2 and 10")
	}
	if c.Game.InitMoney < c.Game.BigBlind {
		return fmt.Errorf("init money must cover at least one big blind")
	}
	switch c.Game.MinRaiseRule {
	case RaiseRuleFullIncrement, RaiseRuleBigBlind:
	default:
		return fmt.Errorf("invalid min_raise_rule %q", c.Game.MinRaiseRule)
	}
	if c.Game.BetTimeoutSec <= 0 {
		return fmt.Errorf("bet timeout must be positive")
	}
	return nil
}

// BetTimeout is the time a player has to answer a bet request.
func (c *Config) BetTimeout() time.Duration {
	return time.Duration(c.Game.BetTimeoutSec) * time.Second
}

// TimeoutTolerance pads the bet deadline for transport latency.
func (c *Config) TimeoutTolerance() time.Duration {
	return time.Duration(c.Game.TimeoutTolSec) * time.Second
}

// RevealPause is the pause after dealing flop, turn and river.
func (c *Config) RevealPause() time.Duration {
	return time.Duration(c.Game.RevealPauseSec) * time.Second
}

// PingGrace is the reconnection window after a missed pong.
func (c *Config) PingGrace() time.Duration {
	return time.Duration(c.Game.PingGraceSec) * time.Second
}

// BotDecisionTimeout bounds one remote bot decision call.
func (c *Config) BotDecisionTimeout() time.Duration {
	return time.Duration(c.Bots.DecisionTimeoutMS) * time.Millisecond
}
