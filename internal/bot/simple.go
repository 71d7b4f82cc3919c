package bot

import (
	"context"
	"math/rand/v2"

	"github.com/tablestakes/holdemd/internal/game"
)

// AlwaysCallEngine checks when free and calls any bet. Useful for
// exercising the full action pipeline in tests.
type AlwaysCallEngine struct{}

func (e *AlwaysCallEngine) Decide(_ context.Context, dc *game.DecisionContext) (int, error) {
	if dc.MinBet == 0 {
		return 0, nil
	}
	return dc.MinBet, nil
}

// TightRandomEngine mostly folds, occasionally calling or probing
// small.
type TightRandomEngine struct{}

func (e *TightRandomEngine) Decide(_ context.Context, dc *game.DecisionContext) (int, error) {
	if dc.MinBet == 0 {
		if rand.Float64() < 0.7 {
			return 0, nil
		}
		bet := dc.MinBet + 10
		if bet > dc.MaxBet {
			bet = dc.MaxBet
		}
		return bet, nil
	}
	if rand.Float64() < 0.6 {
		return -1, nil
	}
	return dc.MinBet, nil
}

// AggressiveRandomEngine bets and raises often, folding rarely.
type AggressiveRandomEngine struct{}

func (e *AggressiveRandomEngine) Decide(_ context.Context, dc *game.DecisionContext) (int, error) {
	pot := dc.PotTotal
	if pot < 1 {
		pot = 1
	}

	if dc.MinBet == 0 {
		if rand.Float64() < 0.5 {
			return 0, nil
		}
		bet := int(float64(pot) * 0.66)
		if bet < dc.MinBet {
			bet = dc.MinBet
		}
		if bet > dc.MaxBet {
			bet = dc.MaxBet
		}
		return bet, nil
	}

	switch {
	case rand.Float64() < 0.3:
		return -1, nil
	case rand.Float64() < 0.5:
		return dc.MinBet, nil
	}
	bet := int(float64(pot) * 0.75)
	if bet < dc.MinBet+10 {
		bet = dc.MinBet + 10
	}
	if bet > dc.MaxBet {
		bet = dc.MaxBet
	}
	return bet, nil
}
