// Package engine assembles per-player record sets from the store and runs
// the statistic registry over them, with short-lived caching keyed by seat
// tuple and filter.
package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/lox/pokerhud/internal/entity"
	"github.com/lox/pokerhud/internal/stats"
	"github.com/lox/pokerhud/internal/store"
)

const (
	defaultCacheTTL   = 3 * time.Second
	defaultCacheLimit = 64
)

// Options filter and shape one calculation.
type Options struct {
	// BattleTypes restricts hands to the listed battle types; empty
	// means no filter.
	BattleTypes []int

	// RecentLimit keeps only the most recent N hands by id; 0 keeps all.
	RecentLimit int

	// StatIDs is the ordered enabled-metric list; nil means all
	// registered metrics in default order.
	StatIDs []string

	// BypassCache forces a fresh calculation.
	BypassCache bool
}

// PlayerStats is one player's calculated results.
type PlayerStats struct {
	PlayerID int64          `json:"player_id"`
	Results  []stats.Result `json:"results,omitempty"`

	// Filtered marks a player whose hands all fell to the battle-type
	// filter; distinct from a brand-new player whose stats are computed
	// (as zeroes) over no hands.
	Filtered bool `json:"filtered,omitempty"`
}

type cacheEntry struct {
	at      time.Time
	results []PlayerStats
}

// Engine computes display statistics on demand.
type Engine struct {
	store    store.Store
	registry *stats.Registry
	logger   *log.Logger
	clock    quartz.Clock

	ttl        time.Duration
	cacheLimit int

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// Option configures the engine.
type Option func(*Engine)

// WithClock injects a clock, used by tests.
func WithClock(clock quartz.Clock) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithCacheTTL overrides the cache lifetime. Zero disables caching, the
// test/debug configuration.
func WithCacheTTL(ttl time.Duration) Option {
	return func(e *Engine) { e.ttl = ttl }
}

// WithCacheLimit overrides the entry count that triggers a purge.
func WithCacheLimit(n int) Option {
	return func(e *Engine) { e.cacheLimit = n }
}

// New creates a stats engine.
func New(st store.Store, registry *stats.Registry, logger *log.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:      st,
		registry:   registry,
		logger:     logger.WithPrefix("engine"),
		clock:      quartz.NewReal(),
		ttl:        defaultCacheTTL,
		cacheLimit: defaultCacheLimit,
		cache:      make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StatsForPlayers calculates one result set per player id. Empty-seat
// sentinels short-circuit to an empty entry. Per-player failures are logged
// and yield an empty entry; the remaining players still calculate. The
// per-player computations share no mutable state and run concurrently.
func (e *Engine) StatsForPlayers(ctx context.Context, playerIDs []int64, opts Options) ([]PlayerStats, error) {
	key := cacheKey(playerIDs, opts.BattleTypes)
	if !opts.BypassCache && e.ttl > 0 {
		if cached, ok := e.lookup(key); ok {
			return cached, nil
		}
	}

	results := make([]PlayerStats, len(playerIDs))
	g, gctx := errgroup.WithContext(ctx)
	for i, playerID := range playerIDs {
		g.Go(func() error {
			if playerID == entity.EmptySeat {
				results[i] = PlayerStats{PlayerID: playerID}
				return nil
			}
			ps, err := e.calculatePlayer(gctx, playerID, opts)
			if err != nil {
				e.logger.Error("player stats calculation failed",
					"stage", "aggregate", "player_id", playerID, "err", err)
				results[i] = PlayerStats{PlayerID: playerID}
				return nil
			}
			results[i] = ps
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if e.ttl > 0 {
		e.remember(key, results)
	}
	return results, nil
}

// Invalidate drops all cached results.
func (e *Engine) Invalidate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make(map[string]cacheEntry)
}

func (e *Engine) calculatePlayer(ctx context.Context, playerID int64, opts Options) (PlayerStats, error) {
	hands, err := e.store.HandsByPlayer(ctx, playerID)
	if err != nil {
		return PlayerStats{}, fmt.Errorf("fetch hands: %w", err)
	}

	if len(opts.BattleTypes) > 0 {
		filtered := hands[:0:0]
		for i := range hands {
			if containsInt(opts.BattleTypes, hands[i].Session.BattleType) {
				filtered = append(filtered, hands[i])
			}
		}
		// An existing player whose every hand fell to the filter still
		// renders, just empty; a brand-new player computes zero stats.
		if len(filtered) == 0 && len(hands) > 0 {
			return PlayerStats{PlayerID: playerID, Filtered: true}, nil
		}
		hands = filtered
	}

	if opts.RecentLimit > 0 && len(hands) > opts.RecentLimit {
		sort.Slice(hands, func(i, j int) bool { return hands[i].ID > hands[j].ID })
		hands = hands[:opts.RecentLimit]
	}

	handIDs := make(map[int64]struct{}, len(hands))
	for i := range hands {
		handIDs[hands[i].ID] = struct{}{}
	}

	// One bulk query per table, filtered client-side by the surviving
	// hand set; avoids a query per hand.
	actions, err := e.store.ActionsByPlayer(ctx, playerID)
	if err != nil {
		return PlayerStats{}, fmt.Errorf("fetch actions: %w", err)
	}
	actions = filterActions(actions, handIDs)

	phases, err := e.store.PhasesByPlayer(ctx, playerID)
	if err != nil {
		return PlayerStats{}, fmt.Errorf("fetch phases: %w", err)
	}
	phases = filterPhases(phases, handIDs)

	calcCtx := &stats.CalcContext{
		PlayerID:       playerID,
		Hands:          hands,
		Phases:         phases,
		Actions:        actions,
		WinningHandIDs: winningHandIDs(playerID, hands, phases),
	}
	return PlayerStats{
		PlayerID: playerID,
		Results:  e.registry.CalculateWithConfig(calcCtx, opts.StatIDs),
	}, nil
}

// winningHandIDs intersects the hands the player reached a flop in with the
// hands they are a recorded winner of.
func winningHandIDs(playerID int64, hands []entity.Hand, phases []entity.PhaseRecord) map[int64]struct{} {
	sawFlop := make(map[int64]struct{})
	for i := range phases {
		if phases[i].Phase < entity.Flop {
			continue
		}
		for _, id := range phases[i].PlayerIDs {
			if id == playerID {
				sawFlop[phases[i].HandID] = struct{}{}
				break
			}
		}
	}
	winning := make(map[int64]struct{})
	for i := range hands {
		if _, ok := sawFlop[hands[i].ID]; !ok {
			continue
		}
		for _, w := range hands[i].Winners {
			if w == playerID {
				winning[hands[i].ID] = struct{}{}
				break
			}
		}
	}
	return winning
}

func filterActions(actions []entity.Action, handIDs map[int64]struct{}) []entity.Action {
	kept := actions[:0:0]
	for i := range actions {
		if _, ok := handIDs[actions[i].HandID]; ok {
			kept = append(kept, actions[i])
		}
	}
	return kept
}

func filterPhases(phases []entity.PhaseRecord, handIDs map[int64]struct{}) []entity.PhaseRecord {
	kept := phases[:0:0]
	for i := range phases {
		if _, ok := handIDs[phases[i].HandID]; ok {
			kept = append(kept, phases[i])
		}
	}
	return kept
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func cacheKey(playerIDs []int64, battleTypes []int) string {
	return fmt.Sprintf("%v|%v", playerIDs, battleTypes)
}

func (e *Engine) lookup(key string) ([]PlayerStats, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, ok := e.cache[key]
	if !ok || e.clock.Now().Sub(entry.at) > e.ttl {
		return nil, false
	}
	return entry.results, true
}

func (e *Engine) remember(key string, results []PlayerStats) {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.clock.Now()
	e.cache[key] = cacheEntry{at: now, results: results}
	// Opportunistic purge once the cache outgrows its limit.
	if len(e.cache) > e.cacheLimit {
		for k, entry := range e.cache {
			if now.Sub(entry.at) > e.ttl {
				delete(e.cache, k)
			}
		}
	}
}
