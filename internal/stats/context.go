package stats

import "github.com/lox/pokerhud/internal/entity"

// HandState is the transient conversion state shared by all definitions for
// the duration of one hand. It is passed explicitly into every detector and
// updater call and discarded when the hand closes.
type HandState struct {
	// CBetter holds continuation-bet initiative: the last preflop
	// aggressor, until the postflop first-bet window resolves. 0 = none.
	CBetter int64

	// CBetBy, CBetPhase and CBetMade record a landed continuation bet so
	// the facing player's fold can be attributed on the same street.
	CBetBy    int64
	CBetPhase entity.Phase
	CBetMade  bool

	// ThreeBetter is the player who made the preflop 3-bet, if any.
	ThreeBetter int64

	// LastAggressor is the most recent player to bet or raise.
	LastAggressor int64
}

// NewHandState returns a fresh per-hand state.
func NewHandState() *HandState {
	return &HandState{}
}

// ActionContext is the per-action view handed to detectors and updaters.
type ActionContext struct {
	PlayerID int64
	Type     entity.ActionType
	Phase    entity.Phase

	// PhasePlayerActionIndex counts this player's prior actions on the
	// current street; 0 means this is their first action this street.
	PhasePlayerActionIndex int

	// PhasePrevBetCount counts prior bets/raises on the current street,
	// plus one on preflop for the big blind's forced bet level.
	PhasePrevBetCount int

	HandState *HandState
}

// CalcContext carries one player's assembled records into aggregation.
type CalcContext struct {
	PlayerID int64
	Hands    []entity.Hand
	Phases   []entity.PhaseRecord
	Actions  []entity.Action

	// WinningHandIDs is the set of hands the player both saw a flop in
	// and won.
	WinningHandIDs map[int64]struct{}
}

// taggedHands returns the distinct hand ids among the player's actions
// carrying the tag.
func (c *CalcContext) taggedHands(tag entity.ActionTag) map[int64]struct{} {
	hands := make(map[int64]struct{})
	for i := range c.Actions {
		if c.Actions[i].HasTag(tag) {
			hands[c.Actions[i].HandID] = struct{}{}
		}
	}
	return hands
}

// countTagged returns the number of the player's actions carrying the tag.
func (c *CalcContext) countTagged(tag entity.ActionTag) int {
	n := 0
	for i := range c.Actions {
		if c.Actions[i].HasTag(tag) {
			n++
		}
	}
	return n
}

// phaseHands returns the distinct hand ids with a phase record of the given
// street that includes the player.
func (c *CalcContext) phaseHands(phase entity.Phase) map[int64]struct{} {
	hands := make(map[int64]struct{})
	for i := range c.Phases {
		p := &c.Phases[i]
		if p.Phase != phase {
			continue
		}
		for _, id := range p.PlayerIDs {
			if id == c.PlayerID {
				hands[p.HandID] = struct{}{}
				break
			}
		}
	}
	return hands
}
