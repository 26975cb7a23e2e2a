package aggregator

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokerhud/internal/event"
	"github.com/lox/pokerhud/internal/session"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func dealEvent(ts int64, nextSeat int) *event.Event {
	return &event.Event{
		Kind:      event.KindDeal,
		Timestamp: ts,
		Deal: &event.DealPayload{
			SeatPlayers: []int64{101, 102, 103, -1},
			SmallBlind:  100,
			BigBlind:    200,
			ButtonSeat:  0,
			SBSeat:      1,
			BBSeat:      2,
			HeroSeat:    0,
			Progress:    event.Progress{Pot: 300, NextActionSeat: nextSeat},
		},
	}
}

func actionEvent(ts int64, seat, nextSeat int, actionType string) *event.Event {
	return &event.Event{
		Kind:      event.KindAction,
		Timestamp: ts,
		Action: &event.ActionPayload{
			Seat:       seat,
			ActionType: actionType,
			Progress:   event.Progress{Pot: 300, NextActionSeat: nextSeat},
		},
	}
}

func resultEvent(ts, handID int64) *event.Event {
	return &event.Event{
		Kind:      event.KindResult,
		Timestamp: ts,
		Result: &event.ResultPayload{
			HandID:  handID,
			Results: []event.ResultEntry{{PlayerID: 101, Place: 1}},
		},
	}
}

func newTestAggregator(t *testing.T) (*Aggregator, *[][]*event.Event) {
	t.Helper()
	var groups [][]*event.Event
	agg := New(session.New(), func(group []*event.Event) error {
		groups = append(groups, group)
		return nil
	}, testLogger())
	return agg, &groups
}

func TestEmitsCompleteHand(t *testing.T) {
	agg, groups := newTestAggregator(t)

	agg.Handle(dealEvent(1000, 0))
	agg.Handle(actionEvent(1001, 0, 1, "call"))
	agg.Handle(actionEvent(1002, 1, 2, "call"))
	agg.Handle(actionEvent(1003, 2, -1, "check"))
	agg.Handle(resultEvent(1004, 42))

	require.Len(t, *groups, 1)
	group := (*groups)[0]
	assert.Len(t, group, 5)
	assert.Equal(t, event.KindDeal, group[0].Kind)
	assert.Equal(t, event.KindResult, group[len(group)-1].Kind)
}

func TestActorMismatchResetsBuffer(t *testing.T) {
	agg, groups := newTestAggregator(t)

	agg.Handle(dealEvent(1000, 0))
	// Seat 2 acts while seat 0 was announced: stream is desynchronized.
	agg.Handle(actionEvent(1001, 2, 1, "call"))
	agg.Handle(resultEvent(1002, 42))

	assert.Empty(t, *groups)
}

func TestTimestampRegressionResetsBuffer(t *testing.T) {
	agg, groups := newTestAggregator(t)

	agg.Handle(dealEvent(1000, 0))
	agg.Handle(actionEvent(900, 0, 1, "call")) // older than the deal
	agg.Handle(resultEvent(1100, 42))

	assert.Empty(t, *groups)
}

func TestResultWithoutDealDiscardedSilently(t *testing.T) {
	agg, groups := newTestAggregator(t)

	// Stream attached mid-hand: actions arrive with no deal in the buffer.
	agg.Handle(actionEvent(1000, 0, 1, "call"))
	agg.Handle(resultEvent(1001, 42))

	assert.Empty(t, *groups)
}

func TestOverlappingDealStartsFreshBuffer(t *testing.T) {
	agg, groups := newTestAggregator(t)

	agg.Handle(dealEvent(1000, 0))
	agg.Handle(actionEvent(1001, 0, 1, "call"))
	agg.Handle(dealEvent(1002, 0)) // prior hand never terminated
	agg.Handle(actionEvent(1003, 0, -1, "check"))
	agg.Handle(resultEvent(1004, 43))

	require.Len(t, *groups, 1)
	assert.Len(t, (*groups)[0], 3)
}

func TestRoundTransitionNotActionGated(t *testing.T) {
	agg, groups := newTestAggregator(t)

	agg.Handle(dealEvent(1000, 0))
	agg.Handle(actionEvent(1001, 0, 1, "call"))
	agg.Handle(&event.Event{
		Kind:      event.KindRound,
		Timestamp: 1002,
		Round: &event.RoundPayload{
			Phase:          "flop",
			CommunityCards: []int{10, 11, 12},
			Progress:       event.Progress{NextActionSeat: 1},
		},
	})
	agg.Handle(actionEvent(1003, 1, -1, "check"))
	agg.Handle(resultEvent(1004, 44))

	require.Len(t, *groups, 1)
	assert.Len(t, (*groups)[0], 5)
}

func TestNoiseIgnored(t *testing.T) {
	agg, groups := newTestAggregator(t)

	agg.Handle(dealEvent(1000, 0))
	agg.Handle(&event.Event{Kind: "chat_message", Timestamp: 1001})
	agg.Handle(actionEvent(1002, 0, -1, "check"))
	agg.Handle(resultEvent(1003, 45))

	require.Len(t, *groups, 1)
	assert.Len(t, (*groups)[0], 3)
}

func TestHeroAndLatestDealTracked(t *testing.T) {
	agg, _ := newTestAggregator(t)

	assert.Equal(t, int64(-1), agg.HeroID())
	assert.Nil(t, agg.LatestDeal())

	deal := dealEvent(1000, 0)
	agg.Handle(deal)
	assert.Equal(t, int64(101), agg.HeroID())
	assert.Same(t, deal, agg.LatestDeal())
}

func TestSessionEventsDoNotTouchBuffer(t *testing.T) {
	agg, groups := newTestAggregator(t)

	agg.Handle(dealEvent(1000, 0))
	agg.Handle(&event.Event{
		Kind:           event.KindSessionDetails,
		Timestamp:      1001,
		SessionDetails: &event.SessionDetailsPayload{BattleType: 4, Name: "Gold Stakes"},
	})
	agg.Handle(actionEvent(1002, 0, -1, "check"))
	agg.Handle(resultEvent(1003, 46))

	require.Len(t, *groups, 1)
	assert.Len(t, (*groups)[0], 3)
}
