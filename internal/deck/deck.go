package deck

import (
	"fmt"
	"math/rand/v2"
)

// Deck holds the undealt cards for one hand. Decks are built from a
// minimum rank cutoff so short-deck variants reuse the same type;
// hold'em uses MinRankHoldem for the full 52 cards.
type Deck struct {
	cards []Card
	rng   *rand.Rand
}

// MinRankHoldem is the lowest rank included in a full hold'em deck.
const MinRankHoldem = Two

// New creates a shuffled deck containing every card of rank minRank
// and above. The caller supplies the RNG so hands are reproducible
// under a seeded source.
func New(minRank Rank, rng *rand.Rand) *Deck {
	d := &Deck{
		cards: make([]Card, 0, 52),
		rng:   rng,
	}

	for suit := Spades; suit <= Clubs; suit++ {
		for rank := minRank; rank <= Ace; rank++ {
			d.cards = append(d.cards, NewCard(rank, suit))
		}
	}

	d.shuffle()
	return d
}

// NewStacked creates a deck that deals the given cards in order, used
// for replays and deterministic tests.
func NewStacked(cards []Card) *Deck {
	return &Deck{cards: append([]Card(nil), cards...)}
}

func (d *Deck) shuffle() {
	d.rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// PopCards removes and returns n cards from the top of the deck.
// It fails rather than dealing short.
func (d *Deck) PopCards(n int) ([]Card, error) {
	if n < 0 || n > len(d.cards) {
		return nil, fmt.Errorf("cannot deal %d cards, %d remaining", n, len(d.cards))
	}

	cards := d.cards[:n]
	d.cards = d.cards[n:]
	return cards, nil
}

// Remaining returns the number of undealt cards.
func (d *Deck) Remaining() int {
	return len(d.cards)
}
