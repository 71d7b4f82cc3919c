package game

// HandStats is one player's in-flight classification for the current
// hand; the room folds it into the persisted lifetime aggregates.
type HandStats struct {
	VPIP     bool
	PFR      bool
	ThreeBet bool
	AggBets  int
	AggCalls int
	WTSD     bool
	WSD      bool
	NetChips int
	NetBB    float64
}

// statsTracker derives the per-hand counters from the action stream.
type statsTracker struct {
	perPlayer     map[int64]*HandStats
	preflopRaises int
}

func newStatsTracker(players []*handPlayer) *statsTracker {
	t := &statsTracker{perPlayer: make(map[int64]*HandStats, len(players))}
	for _, hp := range players {
		t.perPlayer[hp.ps.ID] = &HandStats{}
	}
	return t
}

// record classifies one resolved action. Blind posts are involuntary
// and never count toward VPIP; a later raise or call by the blind
// does.
func (t *statsTracker) record(playerID int64, street Street, actionType string, bet, minBet int) {
	hs := t.perPlayer[playerID]
	if hs == nil {
		return
	}

	switch actionType {
	case ActionSmallBlind, ActionBigBlind, ActionFold, ActionCheck:
		return
	}

	// An all-in is a raise when it puts in more than the call amount,
	// a call otherwise.
	isRaise := actionType == ActionRaise || actionType == ActionBet ||
		(actionType == ActionAllIn && bet > minBet)
	isCall := actionType == ActionCall ||
		(actionType == ActionAllIn && bet <= minBet && minBet > 0)

	if street == Preflop && (isRaise || isCall) {
		hs.VPIP = true
	}
	if isRaise {
		hs.AggBets++
		if street == Preflop {
			hs.PFR = true
			t.preflopRaises++
			if t.preflopRaises == 2 {
				hs.ThreeBet = true
			}
		}
	}
	if isCall {
		hs.AggCalls++
	}
}

// showdown marks the players who reached showdown and those who won
// there.
func (t *statsTracker) showdown(playerID int64, won bool) {
	hs := t.perPlayer[playerID]
	if hs == nil {
		return
	}
	hs.WTSD = true
	if won {
		hs.WSD = true
	}
}

// finish fills the chip outcome once stacks are settled.
func (t *statsTracker) finish(playerID int64, netChips, bigBlind int) {
	hs := t.perPlayer[playerID]
	if hs == nil {
		return
	}
	hs.NetChips = netChips
	hs.NetBB = float64(netChips) / float64(bigBlind)
}
