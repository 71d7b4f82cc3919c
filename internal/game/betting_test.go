package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyAction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		bet    int
		minBet int
		maxBet int
		forced string
		want   string
	}{
		{"forced fold wins over everything", 50, 10, 100, ActionFold, ActionFold},
		{"blind post", 5, 0, 100, ActionSmallBlind, ActionSmallBlind},
		{"negative is fold", -1, 10, 100, "", ActionFold},
		{"matching max is all-in", 100, 10, 100, "", ActionAllIn},
		{"all-in for a call amount", 10, 10, 10, "", ActionAllIn},
		{"zero facing nothing is check", 0, 0, 100, "", ActionCheck},
		{"opening amount is bet", 30, 0, 100, "", ActionBet},
		{"matching min is call", 10, 10, 100, "", ActionCall},
		{"above min is raise", 40, 10, 100, "", ActionRaise},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, ClassifyAction(tc.bet, tc.minBet, tc.maxBet, tc.forced))
		})
	}
}

func TestStreetString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "preflop", Preflop.String())
	assert.Equal(t, "flop", Flop.String())
	assert.Equal(t, "turn", Turn.String())
	assert.Equal(t, "river", River.String())
}
