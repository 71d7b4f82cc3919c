package game

import "sort"

// Pot is one main or side pot. Level is the per-player contribution
// cap that formed it; zero for the open-ended top pot.
type Pot struct {
	Money    int
	Eligible []int // indexes into the hand's player slice
	Level    int
}

// BuildPots partitions total hand contributions into pots by ascending
// all-in level. Each level's pot takes min(contribution, level) minus
// what lower pots already took; its eligible set is every non-folded
// player who contributed at least the level. Folded contributions stay
// in the pots they reached.
func BuildPots(players []*handPlayer) []Pot {
	levels := make([]int, 0, len(players))
	seen := make(map[int]bool)
	for _, hp := range players {
		if hp.allIn && hp.totalBet > 0 && !seen[hp.totalBet] {
			seen[hp.totalBet] = true
			levels = append(levels, hp.totalBet)
		}
	}
	sort.Ints(levels)

	var pots []Pot
	carry := 0
	prev := 0
	for _, level := range levels {
		pot := Pot{Level: level, Money: carry}
		carry = 0
		for i, hp := range players {
			contrib := min(hp.totalBet, level) - prev
			if contrib > 0 {
				pot.Money += contrib
			}
			if !hp.folded && hp.totalBet >= level {
				pot.Eligible = append(pot.Eligible, i)
			}
		}
		switch {
		case pot.Money > 0 && len(pot.Eligible) > 0:
			pots = append(pots, pot)
		case pot.Money > 0:
			// No live player at this level; the chips roll into the
			// next pot.
			carry = pot.Money
		}
		prev = level
	}

	top := Pot{Money: carry}
	for i, hp := range players {
		if hp.totalBet > prev {
			top.Money += hp.totalBet - prev
			if !hp.folded {
				top.Eligible = append(top.Eligible, i)
			}
		}
	}
	if top.Money > 0 {
		if len(top.Eligible) > 0 {
			pots = append(pots, top)
		} else if len(pots) > 0 {
			// Every contributor above the last level folded; their
			// chips stay in play by joining the highest pot.
			pots[len(pots)-1].Money += top.Money
		}
	}

	if len(pots) == 0 {
		// Nothing committed yet; keep a single empty pot with every
		// live player eligible.
		empty := Pot{}
		for i, hp := range players {
			if !hp.folded {
				empty.Eligible = append(empty.Eligible, i)
			}
		}
		pots = append(pots, empty)
	}

	return pots
}

// potTotal sums all pot money.
func potTotal(pots []Pot) int {
	total := 0
	for _, p := range pots {
		total += p.Money
	}
	return total
}
