package score

import (
	"math/rand/v2"
	"testing"

	"github.com/tablestakes/holdemd/internal/deck"
)

func cards(t *testing.T, ss ...string) []deck.Card {
	t.Helper()
	out := make([]deck.Card, len(ss))
	for i, s := range ss {
		c, err := deck.ParseCard(s)
		if err != nil {
			t.Fatalf("bad test card %q: %v", s, err)
		}
		out[i] = c
	}
	return out
}

func TestDetectCategories(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cards    []string
		category Category
		ranks    []int
	}{
		{"high card", []string{"As", "Kd", "9c", "7h", "4s", "3d", "2c"}, HighCard, []int{14, 13, 9, 7, 4}},
		{"pair", []string{"As", "Ad", "9c", "7h", "4s", "3d", "2c"}, Pair, []int{14, 9, 7, 4}},
		{"two pair", []string{"As", "Ad", "9c", "9h", "4s", "3d", "2c"}, TwoPair, []int{14, 9, 4}},
		{"three of a kind", []string{"As", "Ad", "Ac", "9h", "4s", "3d", "2c"}, ThreeOfAKind, []int{14, 9, 4}},
		{"straight", []string{"9s", "8d", "7c", "6h", "5s", "Ad", "Ac"}, Straight, []int{9}},
		{"wheel straight", []string{"As", "2d", "3c", "4h", "5s", "Kd", "Kc"}, Straight, []int{5}},
		{"flush", []string{"As", "Js", "9s", "7s", "4s", "Kd", "Kc"}, Flush, []int{14, 11, 9, 7, 4}},
		{"full house", []string{"As", "Ad", "Ac", "9h", "9s", "3d", "2c"}, FullHouse, []int{14, 9}},
		{"four of a kind", []string{"As", "Ad", "Ac", "Ah", "9s", "3d", "2c"}, FourOfAKind, []int{14, 9}},
		{"straight flush", []string{"9s", "8s", "7s", "6s", "5s", "Ad", "Ac"}, StraightFlush, []int{9}},
		{"steel wheel", []string{"As", "2s", "3s", "4s", "5s", "Kd", "Qc"}, StraightFlush, []int{5}},
		{"royal", []string{"As", "Ks", "Qs", "Js", "Ts", "2d", "3c"}, StraightFlush, []int{14}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s := Detect(cards(t, tc.cards...))
			if s.Category != tc.category {
				t.Fatalf("category = %v, want %v", s.Category, tc.category)
			}
			for i, want := range tc.ranks {
				if i >= len(s.Ranks) || s.Ranks[i] != want {
					t.Fatalf("ranks = %v, want %v", s.Ranks, tc.ranks)
				}
			}
		})
	}
}

func TestDetectPicksBestSubset(t *testing.T) {
	t.Parallel()

	// Board plays a flush, but hole cards upgrade it to a full house.
	s := Detect(cards(t, "Ah", "Ad", "As", "Ks", "Kc", "7s", "2s"))
	if s.Category != FullHouse {
		t.Fatalf("category = %v, want %v", s.Category, FullHouse)
	}
}

func TestCompareOrdering(t *testing.T) {
	t.Parallel()

	weak := Detect(cards(t, "2s", "3d", "5c", "7h", "9s", "Jd", "Kc"))
	strong := Detect(cards(t, "As", "Ad", "9c", "7h", "4s", "3d", "2c"))

	if weak.Compare(strong) != -1 {
		t.Error("high card should lose to pair")
	}
	if strong.Compare(weak) != 1 {
		t.Error("pair should beat high card")
	}
	if strong.Compare(strong) != 0 {
		t.Error("score should tie with itself")
	}
}

func TestCompareKickers(t *testing.T) {
	t.Parallel()

	a := Detect(cards(t, "As", "Ad", "Kc", "7h", "4s", "3d", "2c"))
	b := Detect(cards(t, "Ah", "Ac", "Qc", "7d", "4d", "3h", "2h"))
	if a.Compare(b) != 1 {
		t.Error("ace pair with king kicker should beat queen kicker")
	}
}

func TestDetectSymmetricUnderReordering(t *testing.T) {
	t.Parallel()

	base := cards(t, "As", "Ad", "9c", "9h", "4s", "Jd", "2c")
	want := Detect(base)

	rng := rand.New(rand.NewPCG(42, 42))
	for i := 0; i < 20; i++ {
		shuffled := append([]deck.Card(nil), base...)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		got := Detect(shuffled)
		if got.Compare(want) != 0 {
			t.Fatalf("reordering changed score: %v vs %v", got, want)
		}
	}
}

func TestSplitPotTie(t *testing.T) {
	t.Parallel()

	// Board plays for both: broadway on the board.
	board := []string{"As", "Kd", "Qc", "Jh", "Ts"}
	a := Detect(cards(t, append([]string{"2s", "3d"}, board...)...))
	b := Detect(cards(t, append([]string{"4c", "5h"}, board...)...))
	if a.Compare(b) != 0 {
		t.Errorf("board-plays hands should tie: %v vs %v", a, b)
	}
}
