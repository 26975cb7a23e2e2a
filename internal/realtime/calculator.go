// Package realtime computes pot odds and stack-to-pot ratio for the hero
// player straight off the live event stream, without waiting for persisted
// entities.
package realtime

import (
	"fmt"
	"math"

	"github.com/charmbracelet/log"

	"github.com/lox/pokerhud/internal/event"
)

// Snapshot is one decision-point calculation pushed to the display.
type Snapshot struct {
	// Pot is the playable pot: main pot plus side pots plus the call
	// amount still owed.
	Pot int

	// Call is what the hero owes to continue.
	Call int

	// Percentage is Call as a share of the playable pot.
	Percentage float64

	// Ratio is the reduced pot:call ratio, e.g. "9:4". Empty when there
	// is nothing to call.
	Ratio string

	// SPR is the hero's stack-to-pot ratio to one decimal. Undefined
	// (HasSPR false) when the pot is zero.
	SPR    float64
	HasSPR bool

	// HeroTurn is false when the figures are informational only: the
	// consumer should de-emphasize them.
	HeroTurn bool
}

// Calculator tracks the live table state needed for pot odds. It holds no
// persisted state and must be Reset between sessions.
type Calculator struct {
	logger *log.Logger

	heroSeat  int
	heroStack int
	pot       int
	sidePots  []int
	seatBets  map[int]int // chips committed this street, by seat
	nextSeat  int
}

// New creates a calculator with no hand in progress.
func New(logger *log.Logger) *Calculator {
	c := &Calculator{logger: logger.WithPrefix("realtime")}
	c.Reset()
	return c
}

// Reset clears all per-hand state.
func (c *Calculator) Reset() {
	c.heroSeat = -1
	c.heroStack = 0
	c.pot = 0
	c.sidePots = nil
	c.seatBets = make(map[int]int)
	c.nextSeat = -1
}

// OnEvent consumes one raw event and returns a snapshot when the event is a
// decision point or a visible betting change for the hero.
func (c *Calculator) OnEvent(ev *event.Event) (*Snapshot, bool) {
	switch {
	case ev.Deal != nil:
		return c.onDeal(ev.Deal)
	case ev.Round != nil:
		c.onRound(ev.Round)
		return nil, false
	case ev.Action != nil:
		return c.onAction(ev.Action)
	default:
		return nil, false
	}
}

func (c *Calculator) onDeal(deal *event.DealPayload) (*Snapshot, bool) {
	c.seatBets = make(map[int]int)
	c.heroSeat = deal.HeroSeat
	c.pot = deal.Progress.Pot
	c.sidePots = append([]int(nil), deal.Progress.SidePots...)
	c.nextSeat = deal.Progress.NextActionSeat
	for _, s := range deal.Seats {
		c.seatBets[s.Seat] = s.BetChips
		if s.Seat == c.heroSeat {
			c.heroStack = s.Stack
		}
	}
	if c.heroSeat < 0 {
		return nil, false
	}
	return c.snapshot(), true
}

func (c *Calculator) onRound(round *event.RoundPayload) {
	// New street: committed bets return to zero.
	c.seatBets = make(map[int]int)
	c.pot = round.Progress.Pot
	c.sidePots = append([]int(nil), round.Progress.SidePots...)
	c.nextSeat = round.Progress.NextActionSeat
	for _, s := range round.Seats {
		c.seatBets[s.Seat] = s.BetChips
		if s.Seat == c.heroSeat {
			c.heroStack = s.Stack
		}
	}
}

func (c *Calculator) onAction(act *event.ActionPayload) (*Snapshot, bool) {
	delta := act.BetChips - c.seatBets[act.Seat]
	c.seatBets[act.Seat] = act.BetChips
	if act.Seat == c.heroSeat && delta > 0 {
		c.heroStack -= delta
	}
	c.pot = act.Progress.Pot
	c.sidePots = append([]int(nil), act.Progress.SidePots...)
	c.nextSeat = act.Progress.NextActionSeat

	if c.heroSeat < 0 {
		return nil, false
	}
	return c.snapshot(), true
}

func (c *Calculator) snapshot() *Snapshot {
	call := c.callAmount()
	playable := c.pot + sum(c.sidePots) + call

	snap := &Snapshot{
		Pot:      playable,
		Call:     call,
		HeroTurn: c.nextSeat == c.heroSeat,
	}
	if call > 0 && playable > 0 {
		snap.Percentage = float64(call) / float64(playable) * 100
		snap.Ratio = reduceRatio(playable-call, call)
	}
	if potAll := c.pot + sum(c.sidePots); potAll > 0 {
		snap.SPR = math.Round(float64(c.heroStack)/float64(potAll)*10) / 10
		snap.HasSPR = true
	}
	return snap
}

// callAmount is the highest opponent bet this street minus what the hero
// has already committed, never negative.
func (c *Calculator) callAmount() int {
	highest := 0
	for seat, bet := range c.seatBets {
		if seat != c.heroSeat && bet > highest {
			highest = bet
		}
	}
	call := highest - c.seatBets[c.heroSeat]
	if call < 0 {
		return 0
	}
	return call
}

func sum(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}

func reduceRatio(a, b int) string {
	d := gcd(a, b)
	if d == 0 {
		return ""
	}
	return fmt.Sprintf("%d:%d", a/d, b/d)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
