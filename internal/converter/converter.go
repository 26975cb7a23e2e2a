// Package converter turns one hand-event-group into normalized Hand, Phase
// and Action records, computing positions, bet-level counts and situational
// tags along the way. Conversion state lives only for the duration of one
// hand and is discarded after emission.
package converter

import (
	"github.com/charmbracelet/log"

	"github.com/lox/pokerhud/internal/entity"
	"github.com/lox/pokerhud/internal/event"
	"github.com/lox/pokerhud/internal/session"
	"github.com/lox/pokerhud/internal/stats"
)

// Output is one converted hand ready for bulk persistence.
type Output struct {
	Hand    entity.Hand
	Phases  []entity.PhaseRecord
	Actions []entity.Action
}

// Converter builds entities from hand-event-groups.
type Converter struct {
	session  *session.Context
	registry *stats.Registry
	logger   *log.Logger
}

// New creates a converter tagging actions through the given registry.
func New(sess *session.Context, registry *stats.Registry, logger *log.Logger) *Converter {
	return &Converter{
		session:  sess,
		registry: registry,
		logger:   logger.WithPrefix("converter"),
	}
}

// handBuild is the transient per-hand conversion state.
type handBuild struct {
	hand    entity.Hand
	phases  []entity.PhaseRecord
	actions []entity.Action

	state     *stats.HandState
	progress  event.Progress // retained snapshot preceding the next action
	phase     entity.Phase
	community []int

	seatPlayers []int64
	buttonSeat  int
	sbSeat      int
	bbSeat      int
}

// Convert produces the hand's records, or ok=false when no terminal event
// assigned an id or no phase was recorded. Missing fields degrade to
// defaults; this stage never fails.
func (c *Converter) Convert(group []*event.Event) (*Output, bool) {
	b := &handBuild{state: stats.NewHandState(), phase: entity.Preflop}

	for _, ev := range group {
		switch {
		case ev.Deal != nil:
			c.onDeal(b, ev)
		case ev.Round != nil:
			c.onRound(b, ev)
		case ev.Action != nil:
			c.onAction(b, ev)
		case ev.Result != nil:
			c.onResult(b, ev)
		}
	}

	if b.hand.ID <= 0 || len(b.phases) == 0 {
		return nil, false
	}

	for i := range b.phases {
		b.phases[i].HandID = b.hand.ID
	}
	for i := range b.actions {
		b.actions[i].HandID = b.hand.ID
	}

	return &Output{Hand: b.hand, Phases: b.phases, Actions: b.actions}, true
}

func (c *Converter) onDeal(b *handBuild, ev *event.Event) {
	deal := ev.Deal
	b.seatPlayers = deal.SeatPlayers
	b.buttonSeat = deal.ButtonSeat
	b.sbSeat = deal.SBSeat
	b.bbSeat = deal.BBSeat
	b.progress = deal.Progress
	b.phase = entity.Preflop

	b.hand = entity.Hand{
		Timestamp:   ev.Timestamp,
		SeatPlayers: append([]int64(nil), deal.SeatPlayers...),
		SmallBlind:  deal.SmallBlind,
		BigBlind:    deal.BigBlind,
		Session:     c.session.Ref(),
	}

	b.phases = append(b.phases, entity.PhaseRecord{
		Phase:     entity.Preflop,
		PlayerIDs: occupiedPlayers(deal.SeatPlayers),
	})
}

func (c *Converter) onRound(b *handBuild, ev *event.Event) {
	round := ev.Round
	b.phase = parsePhase(round.Phase, b.phase)
	b.progress = round.Progress

	// The board only ever grows: each street extends the cumulative list.
	b.community = append(b.community, round.CommunityCards...)

	b.phases = append(b.phases, entity.PhaseRecord{
		Phase:          b.phase,
		PlayerIDs:      c.survivors(b, round.Seats),
		CommunityCards: append([]int(nil), b.community...),
	})
}

func (c *Converter) onAction(b *handBuild, ev *event.Event) {
	act := ev.Action

	playerID := c.resolvePlayer(b, act.Seat)
	rawType := parseActionType(act.ActionType)
	actionType := rawType
	if rawType == entity.AllIn {
		actionType = resolveAllIn(b.progress.LegalActions)
	}

	actionIndex := 0
	prevBets := 0
	for i := range b.actions {
		if b.actions[i].Phase != b.phase {
			continue
		}
		if b.actions[i].PlayerID == playerID {
			actionIndex++
		}
		if b.actions[i].Type.Aggressive() {
			prevBets++
		}
	}
	if b.phase == entity.Preflop {
		// The big blind is the forced first bet level.
		prevBets++
	}

	ac := &stats.ActionContext{
		PlayerID:               playerID,
		Type:                   actionType,
		Phase:                  b.phase,
		PhasePlayerActionIndex: actionIndex,
		PhasePrevBetCount:      prevBets,
		HandState:              b.state,
	}
	tags := c.registry.DetectTags(ac)
	c.registry.UpdateHandState(ac)

	action := entity.Action{
		Index:    len(b.actions),
		PlayerID: playerID,
		Phase:    b.phase,
		Type:     actionType,
		BetChips: act.BetChips,
		Pot:      act.Progress.Pot,
		SidePots: append([]int(nil), act.Progress.SidePots...),
		Position: c.position(b, act.Seat),
		Tags:     tags,
	}
	if rawType == entity.AllIn {
		action.AddTag(entity.TagAllIn)
	}
	b.actions = append(b.actions, action)
	b.progress = act.Progress
}

func (c *Converter) onResult(b *handBuild, ev *event.Event) {
	result := ev.Result
	b.hand.ID = result.HandID

	if len(result.Results) > 1 {
		// Two or more contestants reached comparison: a synthetic
		// showdown phase records who got there. The board is whatever
		// the last street already showed.
		ids := make([]int64, 0, len(result.Results))
		for _, entry := range result.Results {
			ids = append(ids, entry.PlayerID)
		}
		var cards []int
		if len(b.phases) > 0 {
			cards = append([]int(nil), b.phases[len(b.phases)-1].CommunityCards...)
		}
		b.phases = append(b.phases, entity.PhaseRecord{
			Phase:          entity.Showdown,
			PlayerIDs:      ids,
			CommunityCards: cards,
		})
	}

	winners := make(map[int64]struct{})
	for _, entry := range result.Results {
		if entry.Place == 1 {
			winners[entry.PlayerID] = struct{}{}
			b.hand.Winners = append(b.hand.Winners, entry.PlayerID)
		}
		b.hand.Results = append(b.hand.Results, entity.Result{
			PlayerID:    entry.PlayerID,
			Place:       entry.Place,
			HandRank:    entry.HandRank,
			RewardChips: entry.Reward,
			HoleCards:   entry.HoleCards,
			BoardCards:  entry.BoardCards,
		})
	}

	// River calls can only be judged once the winners are known.
	for i := range b.actions {
		a := &b.actions[i]
		if !a.HasTag(entity.TagRiverCall) {
			continue
		}
		if _, won := winners[a.PlayerID]; won {
			a.AddTag(entity.TagRiverCallWon)
		}
	}
}

// resolvePlayer maps a seat index to a player id. Out-of-range seats fall
// back to id 0 rather than failing the hand.
func (c *Converter) resolvePlayer(b *handBuild, seat int) int64 {
	if seat < 0 || seat >= len(b.seatPlayers) {
		c.logger.Debug("action seat out of range", "seat", seat, "seats", len(b.seatPlayers))
		return 0
	}
	id := b.seatPlayers[seat]
	if id == entity.EmptySeat {
		return 0
	}
	return id
}

// survivors maps the seats still able to act to player ids in seat order.
func (c *Converter) survivors(b *handBuild, seats []event.SeatState) []int64 {
	if len(seats) == 0 {
		return occupiedPlayers(b.seatPlayers)
	}
	ids := make([]int64, 0, len(seats))
	for _, s := range seats {
		if !s.CanAct() {
			continue
		}
		if s.Seat < 0 || s.Seat >= len(b.seatPlayers) {
			continue
		}
		if id := b.seatPlayers[s.Seat]; id != entity.EmptySeat {
			ids = append(ids, id)
		}
	}
	return ids
}

func occupiedPlayers(seatPlayers []int64) []int64 {
	ids := make([]int64, 0, len(seatPlayers))
	for _, id := range seatPlayers {
		if id != entity.EmptySeat {
			ids = append(ids, id)
		}
	}
	return ids
}

func parsePhase(s string, current entity.Phase) entity.Phase {
	switch s {
	case "preflop":
		return entity.Preflop
	case "flop":
		return entity.Flop
	case "turn":
		return entity.Turn
	case "river":
		return entity.River
	default:
		return current
	}
}

func parseActionType(s string) entity.ActionType {
	switch s {
	case "check":
		return entity.Check
	case "bet":
		return entity.Bet
	case "fold":
		return entity.Fold
	case "call":
		return entity.Call
	case "raise":
		return entity.Raise
	case "allin":
		return entity.AllIn
	default:
		return entity.Check
	}
}

// resolveAllIn reclassifies a raw all-in using the legal-action set of the
// snapshot preceding the action: shoving when a bet was legal is a bet,
// shoving over a callable bet is a raise, and anything else is a call.
func resolveAllIn(legal []string) entity.ActionType {
	betLegal, callLegal := false, false
	for _, a := range legal {
		switch a {
		case "bet":
			betLegal = true
		case "call":
			callLegal = true
		}
	}
	if betLegal {
		return entity.Bet
	}
	if callLegal {
		return entity.Raise
	}
	return entity.Call
}
