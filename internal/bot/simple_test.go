package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablestakes/holdemd/internal/game"
)

func TestAlwaysCallEngine(t *testing.T) {
	t.Parallel()

	e := &AlwaysCallEngine{}

	bet, err := e.Decide(context.Background(), &game.DecisionContext{MinBet: 0, MaxBet: 100})
	require.NoError(t, err)
	assert.Equal(t, 0, bet)

	bet, err = e.Decide(context.Background(), &game.DecisionContext{MinBet: 30, MaxBet: 100})
	require.NoError(t, err)
	assert.Equal(t, 30, bet)
}

func TestRandomEnginesStayInBounds(t *testing.T) {
	t.Parallel()

	engines := []game.DecisionEngine{&TightRandomEngine{}, &AggressiveRandomEngine{}}
	contexts := []*game.DecisionContext{
		{MinBet: 0, MaxBet: 200, PotTotal: 60},
		{MinBet: 30, MaxBet: 200, PotTotal: 90},
		{MinBet: 30, MaxBet: 35, PotTotal: 500},
	}

	for _, e := range engines {
		for _, dc := range contexts {
			for i := 0; i < 200; i++ {
				bet, err := e.Decide(context.Background(), dc)
				require.NoError(t, err)
				if bet == -1 {
					continue
				}
				assert.GreaterOrEqual(t, bet, 0)
				assert.LessOrEqual(t, bet, dc.MaxBet)
				if bet > 0 && bet < dc.MaxBet {
					assert.GreaterOrEqual(t, bet, dc.MinBet)
				}
			}
		}
	}
}
