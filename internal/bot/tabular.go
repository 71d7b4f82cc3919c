package bot

import (
	"context"

	"github.com/tablestakes/holdemd/internal/deck"
	"github.com/tablestakes/holdemd/internal/game"
	"github.com/tablestakes/holdemd/internal/score"
)

// Starting hand classes for the tabular engine. Keys are rank pairs in
// high-low order with an s/o suffix for suited/offsuit, pairs without.
var (
	premiumHands = stringSet(
		"AA", "KK", "QQ", "JJ", "TT",
		"AKs", "AKo", "AQs", "AQo", "KQs",
	)
	strongHands = stringSet(
		"99", "88", "77",
		"AJs", "ATs", "KJs", "QJs", "JTs", "KQo", "AJo",
		"KTs", "QTs", "T9s", "98s",
	)
	speculativeHands = stringSet(
		"66", "55", "44", "33", "22",
		"A9s", "A8s", "A7s", "A6s", "A5s", "A4s", "A3s", "A2s",
		"87s", "76s", "65s", "54s",
	)
)

func stringSet(keys ...string) map[string]bool {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return set
}

// TabularEngine plays a fixed strategy: preflop by starting-hand class,
// postflop by made-hand category. It is stateless and safe to share.
type TabularEngine struct{}

// Decide implements game.DecisionEngine.
func (e *TabularEngine) Decide(_ context.Context, dc *game.DecisionContext) (int, error) {
	if dc.Street == game.Preflop {
		return e.preflop(dc), nil
	}
	return e.postflop(dc), nil
}

func (e *TabularEngine) preflop(dc *game.DecisionContext) int {
	key := handKey(dc.Hand)
	if key == "" {
		return checkOrFold(dc)
	}

	switch {
	case premiumHands[key]:
		return raiseAmount(dc, 0.9)
	case strongHands[key]:
		if dc.MinBet == 0 {
			return betAmount(dc, 0.6)
		}
		return callOrFold(dc, 0.5)
	case speculativeHands[key]:
		return callOrFold(dc, 0.25)
	}
	return checkOrFold(dc)
}

func (e *TabularEngine) postflop(dc *game.DecisionContext) int {
	s, ok := madeHand(dc)
	if !ok {
		return checkOrFold(dc)
	}

	if s.Category >= score.TwoPair {
		if dc.MinBet == 0 {
			return betAmount(dc, 0.6)
		}
		return raiseAmount(dc, 0.8)
	}
	if s.Category == score.Pair {
		return callOrFold(dc, 0.4)
	}
	return checkOrFold(dc)
}

// handKey classifies two hole cards into a table key like "AKs" or
// "99". Unparseable hands yield "".
func handKey(hand []string) string {
	if len(hand) < 2 {
		return ""
	}
	c1, err := deck.ParseCard(hand[0])
	if err != nil {
		return ""
	}
	c2, err := deck.ParseCard(hand[1])
	if err != nil {
		return ""
	}

	if c1.Rank == c2.Rank {
		return c1.Rank.String() + c2.Rank.String()
	}
	high, low := c1, c2
	if low.Rank > high.Rank {
		high, low = low, high
	}
	suffix := "o"
	if c1.Suit == c2.Suit {
		suffix = "s"
	}
	return high.Rank.String() + low.Rank.String() + suffix
}

// madeHand scores hole cards plus board.
func madeHand(dc *game.DecisionContext) (score.Score, bool) {
	cards := make([]deck.Card, 0, 7)
	for _, text := range dc.Hand {
		c, err := deck.ParseCard(text)
		if err != nil {
			return score.Score{}, false
		}
		cards = append(cards, c)
	}
	for _, text := range dc.Board {
		c, err := deck.ParseCard(text)
		if err != nil {
			return score.Score{}, false
		}
		cards = append(cards, c)
	}
	if len(cards) < 5 {
		return score.Score{}, false
	}
	return score.Detect(cards), true
}

func checkOrFold(dc *game.DecisionContext) int {
	if dc.MinBet == 0 {
		return 0
	}
	return -1
}

// callOrFold calls when the price is within the given fraction of the
// pot and folds otherwise.
func callOrFold(dc *game.DecisionContext, maxRatio float64) int {
	if dc.MinBet == 0 {
		return 0
	}
	pot := dc.PotTotal
	if pot < 1 {
		pot = 1
	}
	if float64(dc.MinBet) <= float64(pot)*maxRatio {
		return dc.MinBet
	}
	return -1
}

func betAmount(dc *game.DecisionContext, fraction float64) int {
	pot := dc.PotTotal
	if pot < 1 {
		pot = 1
	}
	size := int(float64(pot) * fraction)
	if size < 1 {
		size = 1
	}
	return clampBet(dc, size)
}

// raiseAmount sizes a raise by pot fraction; facing action it reaches
// at least twice the call amount.
func raiseAmount(dc *game.DecisionContext, fraction float64) int {
	pot := dc.PotTotal
	if pot < 1 {
		pot = 1
	}
	size := int(float64(pot) * fraction)
	if dc.MinBet > 0 && size < 2*dc.MinBet {
		size = 2 * dc.MinBet
	}
	if size < 1 {
		size = 1
	}
	return clampBet(dc, size)
}

func clampBet(dc *game.DecisionContext, size int) int {
	if size < dc.MinBet {
		size = dc.MinBet
	}
	if size > dc.MaxBet {
		size = dc.MaxBet
	}
	return size
}
