package bot

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/tablestakes/holdemd/internal/game"
)

// Difficulties the registry serves. "normal" is accepted as an alias
// for medium; anything unknown degrades to easy.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Registry hands out shared decision engines by difficulty. Every
// difficulty routes through the solver when one is configured, with
// the tabular strategy as fallback.
type Registry struct {
	engines  map[string]game.DecisionEngine
	fallback game.DecisionEngine
}

// NewRegistry builds the engine set. decisionURL may be empty, in
// which case all difficulties play the tabular strategy locally.
func NewRegistry(decisionURL, token string, timeout time.Duration, logger zerolog.Logger) *Registry {
	tabular := &TabularEngine{}
	r := &Registry{
		engines:  make(map[string]game.DecisionEngine, 3),
		fallback: tabular,
	}
	for _, difficulty := range []string{DifficultyEasy, DifficultyMedium, DifficultyHard} {
		r.engines[difficulty] = NewRemoteEngine(difficulty, decisionURL, token, timeout, tabular, logger)
	}
	return r
}

// Normalize maps aliases and unknown difficulties onto the served set.
func Normalize(difficulty string) string {
	switch difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return difficulty
	case "normal":
		return DifficultyMedium
	default:
		return DifficultyEasy
	}
}

// EngineFor returns the engine serving the given difficulty.
func (r *Registry) EngineFor(difficulty string) game.DecisionEngine {
	if e, ok := r.engines[Normalize(difficulty)]; ok {
		return e
	}
	return r.fallback
}

// NewPlayer seats a bot: the player is bound to a sink channel, marked
// ready, and wired to the difficulty's engine.
func (r *Registry) NewPlayer(p *game.Player, difficulty string) *game.PlayerServer {
	difficulty = Normalize(difficulty)
	p.Ready = true
	ps := game.NewPlayerServer(p, NewChannel())
	ps.Engine = r.EngineFor(difficulty)
	ps.Difficulty = difficulty
	return ps
}
