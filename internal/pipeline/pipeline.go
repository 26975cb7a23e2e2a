// Package pipeline wires the event stream end to end: classification and
// grouping, entity conversion, persistence and stat recalculation. One
// pipeline serves one upstream connection; events must be handed to it in
// arrival order.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/lox/pokerhud/internal/aggregator"
	"github.com/lox/pokerhud/internal/converter"
	"github.com/lox/pokerhud/internal/engine"
	"github.com/lox/pokerhud/internal/entity"
	"github.com/lox/pokerhud/internal/event"
	"github.com/lox/pokerhud/internal/realtime"
	"github.com/lox/pokerhud/internal/session"
	"github.com/lox/pokerhud/internal/stats"
	"github.com/lox/pokerhud/internal/store"
)

// Options controls how stats are recalculated after each persisted hand.
type Options struct {
	// BattleTypes restricts aggregation to matching sessions. Empty means
	// all sessions.
	BattleTypes []int

	// RecentLimit caps aggregation to the N most recent hands. Zero means
	// unlimited.
	RecentLimit int

	// StatIDs selects which stats to calculate. Empty means all enabled.
	StatIDs []string
}

// StatsFunc receives freshly calculated table stats.
type StatsFunc func(players []engine.PlayerStats)

// OddsFunc receives live pot-odds snapshots for the hero.
type OddsFunc func(snap *realtime.Snapshot)

// Pipeline owns the per-connection processing chain.
type Pipeline struct {
	session *session.Context
	agg     *aggregator.Aggregator
	conv    *converter.Converter
	store   store.Store
	engine  *engine.Engine
	calc    *realtime.Calculator
	logger  *log.Logger
	opts    Options

	mu            sync.Mutex
	ctx           context.Context
	batch         bool
	pendingRecalc bool
	onStats       StatsFunc
	onOdds        OddsFunc
}

// New builds a pipeline over the given store and engine. The registry tags
// actions during conversion and must already hold its stat definitions.
func New(sess *session.Context, registry *stats.Registry, st store.Store, eng *engine.Engine, logger *log.Logger, opts Options) *Pipeline {
	p := &Pipeline{
		session: sess,
		conv:    converter.New(sess, registry, logger),
		store:   st,
		engine:  eng,
		calc:    realtime.New(logger),
		logger:  logger.WithPrefix("pipeline"),
		opts:    opts,
		ctx:     context.Background(),
	}
	p.agg = aggregator.New(sess, p.persist, logger)
	return p
}

// OnStats registers the stats subscriber. Must be set before events flow.
func (p *Pipeline) OnStats(fn StatsFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onStats = fn
}

// OnOdds registers the pot-odds subscriber. Must be set before events flow.
func (p *Pipeline) OnOdds(fn OddsFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onOdds = fn
}

// HandleRaw decodes one wire frame and processes it. Undecodable frames are
// reported but never stop the stream.
func (p *Pipeline) HandleRaw(ctx context.Context, data []byte) error {
	ev, err := event.Decode(data)
	if err != nil {
		p.logger.Warn("dropping undecodable frame", "err", err)
		return nil
	}
	p.Handle(ctx, ev)
	return nil
}

// Handle processes one decoded event through grouping, persistence and the
// live calculator.
func (p *Pipeline) Handle(ctx context.Context, ev *event.Event) {
	p.mu.Lock()
	p.ctx = ctx
	odds := p.onOdds
	p.mu.Unlock()

	if snap, ok := p.calc.OnEvent(ev); ok && odds != nil {
		odds(snap)
	}
	p.agg.Handle(ev)
}

// HeroID returns the viewing player's id, or entity.EmptySeat before any
// deal has named one.
func (p *Pipeline) HeroID() int64 {
	return p.agg.HeroID()
}

// SetBatch toggles backfill mode. While enabled, persisted hands accumulate
// without triggering recalculation; disabling it runs exactly one
// recalculation if any hand landed in between.
func (p *Pipeline) SetBatch(enabled bool) {
	p.mu.Lock()
	p.batch = enabled
	recalc := !enabled && p.pendingRecalc
	if recalc {
		p.pendingRecalc = false
	}
	ctx := p.ctx
	p.mu.Unlock()

	if recalc {
		p.Refresh(ctx)
	}
}

// Refresh recalculates stats for the players seated in the most recent hand
// and pushes them to the stats subscriber. A no-op until the stream has
// produced both a hero and a deal.
func (p *Pipeline) Refresh(ctx context.Context) {
	deal := p.agg.LatestDeal()
	if p.agg.HeroID() == entity.EmptySeat || deal == nil || deal.Deal == nil {
		return
	}

	players, err := p.engine.StatsForPlayers(ctx, deal.Deal.SeatPlayers, engine.Options{
		BattleTypes: p.opts.BattleTypes,
		RecentLimit: p.opts.RecentLimit,
		StatIDs:     p.opts.StatIDs,
	})
	if err != nil {
		p.logger.Error("stat recalculation failed", "err", err)
		return
	}

	p.mu.Lock()
	fn := p.onStats
	p.mu.Unlock()
	if fn != nil {
		fn(players)
	}
}

// ResetSession clears per-session state ahead of a new connection.
func (p *Pipeline) ResetSession() {
	p.session.Reset()
	p.calc.Reset()
}

// persist is the aggregator sink: convert the group and write all three
// record kinds in one transaction.
func (p *Pipeline) persist(group []*event.Event) error {
	out, ok := p.conv.Convert(group)
	if !ok {
		p.logger.Debug("group produced no persistable hand", "events", len(group))
		return nil
	}

	p.mu.Lock()
	ctx := p.ctx
	p.mu.Unlock()

	err := p.store.WithTx(ctx, store.ReadWrite, func(tx store.Store) error {
		if err := tx.PutHand(ctx, &out.Hand); err != nil {
			return fmt.Errorf("put hand: %w", err)
		}
		if err := tx.PutPhases(ctx, out.Phases); err != nil {
			return fmt.Errorf("put phases: %w", err)
		}
		if err := tx.PutActions(ctx, out.Actions); err != nil {
			return fmt.Errorf("put actions: %w", err)
		}
		return nil
	})
	if err != nil {
		classified := store.Classify(err)
		p.logger.Error("hand persistence failed",
			"hand_id", out.Hand.ID,
			"kind", classified.Kind.String(),
			"err", classified)
		return classified
	}

	p.logger.Debug("hand persisted",
		"hand_id", out.Hand.ID,
		"phases", len(out.Phases),
		"actions", len(out.Actions))

	p.engine.Invalidate()

	p.mu.Lock()
	batch := p.batch
	if batch {
		p.pendingRecalc = true
	}
	p.mu.Unlock()

	if !batch {
		p.Refresh(ctx)
	}
	return nil
}
