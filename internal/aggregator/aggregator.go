// Package aggregator groups the raw event stream into hand-event-groups:
// ordered event slices spanning exactly one dealt hand. It is a small state
// machine, either idle or accumulating, that degrades to a buffer reset on
// any ordering anomaly instead of surfacing errors.
package aggregator

import (
	"github.com/charmbracelet/log"

	"github.com/lox/pokerhud/internal/entity"
	"github.com/lox/pokerhud/internal/event"
	"github.com/lox/pokerhud/internal/session"
)

// Sink receives one completed hand-event-group. Errors are logged by the
// aggregator and do not stop subsequent events.
type Sink func(group []*event.Event) error

// Aggregator buffers events from deal-start to hand-result.
type Aggregator struct {
	session *session.Context
	sink    Sink
	logger  *log.Logger

	buffer        []*event.Event
	lastTimestamp int64
	expectedSeat  int // next actor announced by prior progress; -1 when not gated

	heroID     int64
	latestDeal *event.Event
}

// New creates an aggregator feeding completed groups into sink.
func New(sess *session.Context, sink Sink, logger *log.Logger) *Aggregator {
	return &Aggregator{
		session:      sess,
		sink:         sink,
		logger:       logger.WithPrefix("aggregator"),
		expectedSeat: -1,
		heroID:       entity.EmptySeat,
	}
}

// HeroID returns the viewing player's id, or entity.EmptySeat before any
// deal has named one.
func (a *Aggregator) HeroID() int64 {
	return a.heroID
}

// LatestDeal returns the most recent deal event, nil before the first hand.
func (a *Aggregator) LatestDeal() *event.Event {
	return a.latestDeal
}

// Handle consumes one classified protocol event. Never returns an error:
// malformed or out-of-order input resets the buffer and the stream carries
// on.
func (a *Aggregator) Handle(ev *event.Event) {
	cat, ok := event.Classify(ev)
	if !ok {
		return
	}

	// Replayed or reordered delivery: anything older than the last seen
	// timestamp invalidates the partial hand.
	if ev.Timestamp < a.lastTimestamp {
		a.reset("timestamp regression")
	}
	a.lastTimestamp = ev.Timestamp

	switch cat {
	case event.CategorySession:
		a.session.Apply(ev)
	case event.CategoryDeal:
		a.onDeal(ev)
	case event.CategoryRound:
		a.onRound(ev)
	case event.CategoryAction:
		a.onAction(ev)
	case event.CategoryResult:
		a.onResult(ev)
	}
}

func (a *Aggregator) onDeal(ev *event.Event) {
	deal := ev.Deal
	if deal.HeroSeat >= 0 && deal.HeroSeat < len(deal.SeatPlayers) {
		a.heroID = deal.SeatPlayers[deal.HeroSeat]
	}
	a.latestDeal = ev

	// Two hands must never merge: an unterminated buffer is abandoned.
	if len(a.buffer) > 0 {
		a.reset("overlapping deal")
	}
	a.buffer = append(a.buffer, ev)
	a.expectedSeat = deal.Progress.NextActionSeat
}

func (a *Aggregator) onRound(ev *event.Event) {
	if len(a.buffer) == 0 {
		return
	}
	// Round transitions are not action-gated; the expected actor simply
	// moves to whatever the new street announces.
	a.buffer = append(a.buffer, ev)
	a.expectedSeat = ev.Round.Progress.NextActionSeat
}

func (a *Aggregator) onAction(ev *event.Event) {
	if len(a.buffer) == 0 {
		return
	}
	if a.expectedSeat >= 0 && ev.Action.Seat != a.expectedSeat {
		a.logger.Debug("actor mismatch, dropping partial hand",
			"expected_seat", a.expectedSeat, "seat", ev.Action.Seat)
		a.reset("actor mismatch")
		return
	}
	a.buffer = append(a.buffer, ev)
	a.expectedSeat = ev.Action.Progress.NextActionSeat
}

func (a *Aggregator) onResult(ev *event.Event) {
	if len(a.buffer) == 0 {
		return
	}
	a.buffer = append(a.buffer, ev)
	group := a.buffer
	a.buffer = nil
	a.expectedSeat = -1

	// A group is only a hand if it begins at the deal. Streams attached
	// mid-hand produce a headless fragment that is discarded silently.
	if group[0].Kind != event.KindDeal {
		a.logger.Debug("discarding partial hand without deal start", "events", len(group))
		return
	}
	if err := a.sink(group); err != nil {
		a.logger.Error("hand group sink failed", "err", err, "events", len(group))
	}
}

func (a *Aggregator) reset(reason string) {
	if len(a.buffer) > 0 {
		a.logger.Debug("resetting hand buffer", "reason", reason, "dropped", len(a.buffer))
	}
	a.buffer = nil
	a.expectedSeat = -1
}
