package converter

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokerhud/internal/entity"
	"github.com/lox/pokerhud/internal/event"
	"github.com/lox/pokerhud/internal/session"
	"github.com/lox/pokerhud/internal/stats"
)

func newTestConverter(t *testing.T) *Converter {
	t.Helper()
	logger := log.New(io.Discard)
	registry := stats.NewRegistry(logger)
	for _, def := range stats.BuiltinDefinitions() {
		registry.Register(def)
	}
	return New(session.New(), registry, logger)
}

// Four-handed table: seat 0 button (101), seat 1 SB (102), seat 2 BB (103),
// seat 3 UTG (104).
func deal(ts int64) *event.Event {
	return &event.Event{
		Kind:      event.KindDeal,
		Timestamp: ts,
		Deal: &event.DealPayload{
			SeatPlayers: []int64{101, 102, 103, 104},
			SmallBlind:  100,
			BigBlind:    200,
			ButtonSeat:  0,
			SBSeat:      1,
			BBSeat:      2,
			HeroSeat:    0,
			Progress:    event.Progress{Pot: 300, NextActionSeat: 3, LegalActions: []string{"fold", "call", "raise"}},
		},
	}
}

func action(ts int64, seat int, actionType string, bet, pot int, legal ...string) *event.Event {
	return &event.Event{
		Kind:      event.KindAction,
		Timestamp: ts,
		Action: &event.ActionPayload{
			Seat:       seat,
			ActionType: actionType,
			BetChips:   bet,
			Progress:   event.Progress{Pot: pot, LegalActions: legal},
		},
	}
}

func round(ts int64, phase string, cards []int, activeSeats ...int) *event.Event {
	seats := make([]event.SeatState, 4)
	for i := range seats {
		seats[i] = event.SeatState{Seat: i, BetStatus: event.BetStatusFolded}
	}
	for _, s := range activeSeats {
		seats[s].BetStatus = event.BetStatusActive
	}
	return &event.Event{
		Kind:      event.KindRound,
		Timestamp: ts,
		Round: &event.RoundPayload{
			Phase:          phase,
			CommunityCards: cards,
			Seats:          seats,
			Progress:       event.Progress{LegalActions: []string{"check", "bet"}},
		},
	}
}

func result(ts, handID int64, entries ...event.ResultEntry) *event.Event {
	return &event.Event{
		Kind:      event.KindResult,
		Timestamp: ts,
		Result:    &event.ResultPayload{HandID: handID, Results: entries},
	}
}

func TestConvertFullHand(t *testing.T) {
	c := newTestConverter(t)

	group := []*event.Event{
		deal(1000),
		action(1001, 3, "raise", 600, 900),         // UTG opens
		action(1002, 0, "raise", 1800, 2700),       // BTN 3-bets
		action(1003, 1, "fold", 0, 2700),
		action(1004, 2, "fold", 0, 2700),
		action(1005, 3, "call", 1200, 3900),
		round(1006, "flop", []int{4, 18, 33}, 0, 3),
		action(1007, 3, "check", 0, 3900),
		action(1008, 0, "bet", 2000, 5900),
		action(1009, 3, "fold", 0, 5900),
		result(1010, 777, event.ResultEntry{PlayerID: 101, Place: 1, Reward: 3900}),
	}

	out, ok := c.Convert(group)
	require.True(t, ok)

	assert.Equal(t, int64(777), out.Hand.ID)
	assert.Equal(t, int64(1000), out.Hand.Timestamp)
	assert.Equal(t, []int64{101}, out.Hand.Winners)
	assert.Equal(t, 100, out.Hand.SmallBlind)
	assert.Equal(t, 200, out.Hand.BigBlind)

	// Preflop and flop, no showdown (single contestant at result).
	require.Len(t, out.Phases, 2)
	assert.Equal(t, entity.Preflop, out.Phases[0].Phase)
	assert.Equal(t, []int64{101, 102, 103, 104}, out.Phases[0].PlayerIDs)
	assert.Empty(t, out.Phases[0].CommunityCards)
	assert.Equal(t, entity.Flop, out.Phases[1].Phase)
	assert.Equal(t, []int64{101, 104}, out.Phases[1].PlayerIDs)
	assert.Equal(t, []int{4, 18, 33}, out.Phases[1].CommunityCards)

	require.Len(t, out.Actions, 8)
	for i, a := range out.Actions {
		assert.Equal(t, i, a.Index)
		assert.Equal(t, int64(777), a.HandID)
	}
}

func TestConvertPrevBetCountAndTags(t *testing.T) {
	c := newTestConverter(t)

	group := []*event.Event{
		deal(1000),
		action(1001, 3, "raise", 600, 900),
		action(1002, 0, "raise", 1800, 2700),
		action(1003, 1, "fold", 0, 2700),
		action(1004, 2, "fold", 0, 2700),
		action(1005, 3, "call", 1200, 3900),
		round(1006, "flop", []int{4, 18, 33}, 0, 3),
		action(1007, 3, "check", 0, 3900),
		action(1008, 0, "bet", 2000, 5900),
		action(1009, 3, "fold", 0, 5900),
		result(1010, 777, event.ResultEntry{PlayerID: 101, Place: 1}),
	}

	out, ok := c.Convert(group)
	require.True(t, ok)

	utgOpen := out.Actions[0]
	assert.True(t, utgOpen.HasTag(entity.TagVPIP))
	assert.True(t, utgOpen.HasTag(entity.TagPFR))
	assert.False(t, utgOpen.HasTag(entity.TagThreeBetOpp))

	btnThreeBet := out.Actions[1]
	assert.True(t, btnThreeBet.HasTag(entity.TagVPIP))
	assert.True(t, btnThreeBet.HasTag(entity.TagThreeBetOpp))
	assert.True(t, btnThreeBet.HasTag(entity.TagThreeBet))

	// Blind folds face two raises, past the 3-bet window.
	sbFold := out.Actions[2]
	assert.False(t, sbFold.HasTag(entity.TagThreeBetOpp))

	// BTN was the last preflop aggressor; its flop bet is a c-bet.
	flopBet := out.Actions[6]
	assert.Equal(t, int64(101), flopBet.PlayerID)
	assert.True(t, flopBet.HasTag(entity.TagCBetOpp))
	assert.True(t, flopBet.HasTag(entity.TagCBet))

	// UTG folding to the landed c-bet is a c-bet-fold.
	flopFold := out.Actions[7]
	assert.Equal(t, int64(104), flopFold.PlayerID)
	assert.True(t, flopFold.HasTag(entity.TagCBetFoldOpp))
	assert.True(t, flopFold.HasTag(entity.TagCBetFold))

	// UTG's flop check was not a c-bet chance: no initiative.
	flopCheck := out.Actions[5]
	assert.Equal(t, int64(104), flopCheck.PlayerID)
	assert.False(t, flopCheck.HasTag(entity.TagCBetOpp))
}

func TestConvertPositions(t *testing.T) {
	c := newTestConverter(t)

	group := []*event.Event{
		deal(1000),
		action(1001, 3, "fold", 0, 300),
		action(1002, 0, "call", 200, 500),
		action(1003, 1, "call", 100, 600),
		action(1004, 2, "check", 0, 600),
		result(1005, 778, event.ResultEntry{PlayerID: 103, Place: 1}),
	}

	out, ok := c.Convert(group)
	require.True(t, ok)
	require.Len(t, out.Actions, 4)
	assert.Equal(t, entity.PositionUTG, out.Actions[0].Position)
	assert.Equal(t, entity.PositionBTN, out.Actions[1].Position)
	assert.Equal(t, entity.PositionSB, out.Actions[2].Position)
	assert.Equal(t, entity.PositionBB, out.Actions[3].Position)
}

func TestConvertAllInNormalization(t *testing.T) {
	tests := []struct {
		name  string
		legal []string
		want  entity.ActionType
	}{
		{"bet legal resolves to bet", []string{"check", "bet"}, entity.Bet},
		{"call legal resolves to raise", []string{"fold", "call", "raise"}, entity.Raise},
		{"neither resolves to call", []string{"fold"}, entity.Call},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestConverter(t)
			dealEv := deal(1000)
			dealEv.Deal.Progress.LegalActions = tt.legal
			group := []*event.Event{
				dealEv,
				action(1001, 3, "allin", 5000, 5300),
				result(1002, 779, event.ResultEntry{PlayerID: 104, Place: 1}),
			}
			out, ok := c.Convert(group)
			require.True(t, ok)
			require.Len(t, out.Actions, 1)
			assert.Equal(t, tt.want, out.Actions[0].Type)
			assert.True(t, out.Actions[0].HasTag(entity.TagAllIn))
		})
	}
}

func TestConvertShowdownSynthesized(t *testing.T) {
	c := newTestConverter(t)

	group := []*event.Event{
		deal(1000),
		action(1001, 3, "call", 200, 500),
		action(1002, 0, "fold", 0, 500),
		action(1003, 1, "fold", 0, 500),
		action(1004, 2, "check", 0, 500),
		round(1005, "flop", []int{4, 18, 33}, 2, 3),
		action(1006, 2, "check", 0, 500),
		action(1007, 3, "check", 0, 500),
		round(1008, "turn", []int{40}, 2, 3),
		action(1009, 2, "check", 0, 500),
		action(1010, 3, "check", 0, 500),
		round(1011, "river", []int{51}, 2, 3),
		action(1012, 2, "check", 0, 500),
		action(1013, 3, "check", 0, 500),
		result(1014, 780,
			event.ResultEntry{PlayerID: 103, Place: 1, HandRank: 3},
			event.ResultEntry{PlayerID: 104, Place: 2, HandRank: 1},
		),
	}

	out, ok := c.Convert(group)
	require.True(t, ok)

	require.Len(t, out.Phases, 5)
	showdown := out.Phases[4]
	assert.Equal(t, entity.Showdown, showdown.Phase)
	assert.Equal(t, []int64{103, 104}, showdown.PlayerIDs)
	assert.Equal(t, []int{4, 18, 33, 40, 51}, showdown.CommunityCards)

	// Community cards never shrink street to street.
	prev := 0
	for _, p := range out.Phases {
		assert.GreaterOrEqual(t, len(p.CommunityCards), prev)
		prev = len(p.CommunityCards)
	}

	assert.Equal(t, []int64{103}, out.Hand.Winners)
}

func TestConvertRiverCallWon(t *testing.T) {
	c := newTestConverter(t)

	group := []*event.Event{
		deal(1000),
		action(1001, 3, "call", 200, 500),
		action(1002, 0, "fold", 0, 500),
		action(1003, 1, "fold", 0, 500),
		action(1004, 2, "check", 0, 500),
		round(1005, "flop", []int{4, 18, 33}, 2, 3),
		action(1006, 2, "check", 0, 500),
		action(1007, 3, "check", 0, 500),
		round(1008, "turn", []int{40}, 2, 3),
		action(1009, 2, "check", 0, 500),
		action(1010, 3, "check", 0, 500),
		round(1011, "river", []int{51}, 2, 3),
		action(1012, 2, "bet", 400, 900),
		action(1013, 3, "call", 400, 1300),
		result(1014, 781,
			event.ResultEntry{PlayerID: 104, Place: 1},
			event.ResultEntry{PlayerID: 103, Place: 2},
		),
	}

	out, ok := c.Convert(group)
	require.True(t, ok)

	riverCall := out.Actions[len(out.Actions)-1]
	assert.Equal(t, int64(104), riverCall.PlayerID)
	assert.True(t, riverCall.HasTag(entity.TagRiverCall))
	assert.True(t, riverCall.HasTag(entity.TagRiverCallWon))
}

func TestConvertNothingWithoutTerminalID(t *testing.T) {
	c := newTestConverter(t)

	group := []*event.Event{
		deal(1000),
		action(1001, 3, "call", 200, 500),
	}
	_, ok := c.Convert(group)
	assert.False(t, ok)

	// A result carrying no id is equally non-terminal.
	group = append(group, result(1002, 0, event.ResultEntry{PlayerID: 104, Place: 1}))
	_, ok = c.Convert(group)
	assert.False(t, ok)
}

func TestConvertOutOfRangeSeatDefaultsPlayer(t *testing.T) {
	c := newTestConverter(t)

	group := []*event.Event{
		deal(1000),
		action(1001, 9, "call", 200, 500),
		result(1002, 782, event.ResultEntry{PlayerID: 104, Place: 1}),
	}
	out, ok := c.Convert(group)
	require.True(t, ok)
	require.Len(t, out.Actions, 1)
	assert.Equal(t, int64(0), out.Actions[0].PlayerID)
}
