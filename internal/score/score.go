package score

import (
	"sort"
	"strings"

	"github.com/tablestakes/holdemd/internal/deck"
)

// Category is the hand category, ordered weakest to strongest.
type Category int

const (
	HighCard Category = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

// String returns the display name of a category
func (c Category) String() string {
	switch c {
	case HighCard:
		return "high card"
	case Pair:
		return "pair"
	case TwoPair:
		return "two pair"
	case ThreeOfAKind:
		return "three of a kind"
	case Straight:
		return "straight"
	case Flush:
		return "flush"
	case FullHouse:
		return "full house"
	case FourOfAKind:
		return "four of a kind"
	case StraightFlush:
		return "straight flush"
	default:
		return "unknown"
	}
}

// Score is the strength of a best five-card hand. Ranks is the
// category-specific tie-break tuple, most significant first: the
// primary group ranks, then kickers in descending order.
type Score struct {
	Category Category
	Ranks    []int
	Cards    []deck.Card
}

// Compare returns -1, 0 or 1 as s is weaker than, equal to, or
// stronger than other. Equal scores split the pot.
func (s Score) Compare(other Score) int {
	if s.Category != other.Category {
		if s.Category < other.Category {
			return -1
		}
		return 1
	}
	for i := 0; i < len(s.Ranks) && i < len(other.Ranks); i++ {
		if s.Ranks[i] != other.Ranks[i] {
			if s.Ranks[i] < other.Ranks[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// String returns a short description like "full house (T over 4)"
func (s Score) String() string {
	var b strings.Builder
	b.WriteString(s.Category.String())
	if len(s.Cards) > 0 {
		b.WriteString(" [")
		for i, c := range s.Cards {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(c.String())
		}
		b.WriteByte(']')
	}
	return b.String()
}

// Detect returns the strongest Score over every five-card subset of
// the given cards. It accepts between five and seven cards (two hole
// cards plus the board at any street from the flop on).
func Detect(cards []deck.Card) Score {
	n := len(cards)
	if n == 5 {
		s := scoreFive(cards)
		s.Cards = append([]deck.Card(nil), cards...)
		return s
	}

	best := Score{Category: -1}
	combo := make([]deck.Card, 5)
	var walk func(start, depth int)
	walk = func(start, depth int) {
		if depth == 5 {
			s := scoreFive(combo)
			if best.Category < 0 || s.Compare(best) > 0 {
				cs := make([]deck.Card, 5)
				copy(cs, combo)
				s.Cards = cs
				best = s
			}
			return
		}
		for i := start; i <= n-(5-depth); i++ {
			combo[depth] = cards[i]
			walk(i+1, depth+1)
		}
	}
	walk(0, 0)
	return best
}

// scoreFive classifies exactly five cards.
func scoreFive(cards []deck.Card) Score {
	vals := make([]int, 5)
	flush := true
	for i, c := range cards {
		vals[i] = c.Value()
		if c.Suit != cards[0].Suit {
			flush = false
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(vals)))

	straightHigh, isStraight := straightHighCard(vals)

	switch {
	case isStraight && flush:
		return Score{Category: StraightFlush, Ranks: []int{straightHigh}}
	case isStraight:
		return Score{Category: Straight, Ranks: []int{straightHigh}}
	case flush:
		return Score{Category: Flush, Ranks: vals}
	}

	// Group by rank: counts keyed by value, then ordered by
	// (count, value) descending to build the tie-break tuple.
	counts := make(map[int]int, 5)
	for _, v := range vals {
		counts[v]++
	}
	type group struct{ value, count int }
	groups := make([]group, 0, 5)
	for v, c := range counts {
		groups = append(groups, group{v, c})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].count != groups[j].count {
			return groups[i].count > groups[j].count
		}
		return groups[i].value > groups[j].value
	})

	ranks := make([]int, 0, 5)
	for _, g := range groups {
		ranks = append(ranks, g.value)
	}

	switch {
	case groups[0].count == 4:
		return Score{Category: FourOfAKind, Ranks: ranks}
	case groups[0].count == 3 && groups[1].count == 2:
		return Score{Category: FullHouse, Ranks: ranks}
	case groups[0].count == 3:
		return Score{Category: ThreeOfAKind, Ranks: ranks}
	case groups[0].count == 2 && groups[1].count == 2:
		return Score{Category: TwoPair, Ranks: ranks}
	case groups[0].count == 2:
		return Score{Category: Pair, Ranks: ranks}
	default:
		return Score{Category: HighCard, Ranks: ranks}
	}
}

// straightHighCard reports whether vals (sorted descending) form a
// straight, returning its high card. The wheel A-5-4-3-2 counts with
// high card 5.
func straightHighCard(vals []int) (int, bool) {
	run := true
	for i := 1; i < 5; i++ {
		if vals[i] != vals[i-1]-1 {
			run = false
			break
		}
	}
	if run {
		return vals[0], true
	}
	if vals[0] == 14 && vals[1] == 5 && vals[2] == 4 && vals[3] == 3 && vals[4] == 2 {
		return 5, true
	}
	return 0, false
}
