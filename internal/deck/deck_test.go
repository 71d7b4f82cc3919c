package deck

import (
	"math/rand/v2"
	"testing"
)

func testRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func TestNewDeckIsPermutation(t *testing.T) {
	t.Parallel()

	d := New(MinRankHoldem, testRNG(1))
	if d.Remaining() != 52 {
		t.Fatalf("expected 52 cards, got %d", d.Remaining())
	}

	seen := make(map[Card]int)
	cards, err := d.PopCards(52)
	if err != nil {
		t.Fatalf("PopCards: %v", err)
	}
	for _, c := range cards {
		seen[c]++
	}

	for suit := Spades; suit <= Clubs; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			if seen[NewCard(rank, suit)] != 1 {
				t.Errorf("card %v appeared %d times", NewCard(rank, suit), seen[NewCard(rank, suit)])
			}
		}
	}
}

func TestMinRankCutoff(t *testing.T) {
	t.Parallel()

	d := New(Six, testRNG(2))
	// 9 ranks (6..A) across 4 suits
	if d.Remaining() != 36 {
		t.Fatalf("expected 36 cards, got %d", d.Remaining())
	}

	cards, _ := d.PopCards(36)
	for _, c := range cards {
		if c.Rank < Six {
			t.Errorf("card %v below cutoff", c)
		}
	}
}

func TestPopCardsExhaustion(t *testing.T) {
	t.Parallel()

	d := New(MinRankHoldem, testRNG(3))
	if _, err := d.PopCards(50); err != nil {
		t.Fatalf("PopCards(50): %v", err)
	}
	if _, err := d.PopCards(3); err == nil {
		t.Fatal("expected error dealing past end of deck")
	}
	if d.Remaining() != 2 {
		t.Errorf("failed deal should not consume cards, %d remaining", d.Remaining())
	}
}

func TestShuffleIsSeedDeterministic(t *testing.T) {
	t.Parallel()

	a := New(MinRankHoldem, testRNG(7))
	b := New(MinRankHoldem, testRNG(7))

	ca, _ := a.PopCards(52)
	cb, _ := b.PopCards(52)
	for i := range ca {
		if ca[i] != cb[i] {
			t.Fatalf("same seed produced different orders at %d: %v vs %v", i, ca[i], cb[i])
		}
	}
}
