package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.hcl"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	require.Equal(t, 10, cfg.Game.BigBlind)
	require.Equal(t, 3000, cfg.Game.InitMoney)
	require.Equal(t, RaiseRuleFullIncrement, cfg.Game.MinRaiseRule)
	require.Equal(t, 30*time.Second, cfg.BetTimeout())
	require.Equal(t, 2*time.Second, cfg.TimeoutTolerance())
	require.Equal(t, 1200*time.Millisecond, cfg.BotDecisionTimeout())
}

func TestLoadOverridesAndDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "holdemd.hcl")
	content := `
server {
  id         = "holdemd-test"
  redis_addr = "redis:6379"
}

game {
  small_blind    = 25
  big_blind      = 50
  min_raise_rule = "big_blind"
}

bots {
  decision_url = "http://solver:9000"
}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Equal(t, "holdemd-test", cfg.Server.ID)
	require.Equal(t, 25, cfg.Game.SmallBlind)
	require.Equal(t, 50, cfg.Game.BigBlind)
	require.Equal(t, RaiseRuleBigBlind, cfg.Game.MinRaiseRule)
	// Unset knobs fall back to defaults.
	require.Equal(t, 10, cfg.Game.RoomSize)
	require.Equal(t, 3000, cfg.Game.InitMoney)
	require.Equal(t, "http://solver:9000", cfg.Bots.DecisionURL)
}

func TestValidateRejectsBadConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"blind order", func(c *Config) { c.Game.SmallBlind = 20; c.Game.BigBlind = 10 }},
		{"room size", func(c *Config) { c.Game.RoomSize = 1 }},
		{"raise rule", func(c *Config) { c.Game.MinRaiseRule = "pot_limit" }},
		{"init money", func(c *Config) { c.Game.InitMoney = 5 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			tc.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
