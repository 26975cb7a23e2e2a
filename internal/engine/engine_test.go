package engine

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokerhud/internal/entity"
	"github.com/lox/pokerhud/internal/stats"
	"github.com/lox/pokerhud/internal/store"
)

func testRegistry() *stats.Registry {
	r := stats.NewRegistry(log.New(io.Discard))
	for _, def := range stats.BuiltinDefinitions() {
		r.Register(def)
	}
	return r
}

func seedHand(t *testing.T, st store.Store, handID int64, battleType int, winner int64) {
	t.Helper()
	ctx := context.Background()
	hand := entity.Hand{
		ID:          handID,
		Timestamp:   1000 + handID,
		SeatPlayers: []int64{101, 102},
		Winners:     []int64{winner},
		SmallBlind:  100,
		BigBlind:    200,
		Session:     entity.SessionRef{ID: "s1", BattleType: battleType},
	}
	require.NoError(t, st.PutHand(ctx, &hand))
	require.NoError(t, st.PutPhases(ctx, []entity.PhaseRecord{
		{HandID: handID, Phase: entity.Preflop, PlayerIDs: []int64{101, 102}},
		{HandID: handID, Phase: entity.Flop, PlayerIDs: []int64{101, 102}},
	}))
	require.NoError(t, st.PutActions(ctx, []entity.Action{
		{HandID: handID, Index: 0, PlayerID: 101, Phase: entity.Preflop,
			Type: entity.Raise, Tags: []entity.ActionTag{entity.TagVPIP, entity.TagPFR}},
		{HandID: handID, Index: 1, PlayerID: 102, Phase: entity.Preflop, Type: entity.Call,
			Tags: []entity.ActionTag{entity.TagVPIP}},
	}))
}

func resultByID(results []stats.Result, id string) (stats.Result, bool) {
	for _, r := range results {
		if r.ID == id {
			return r, true
		}
	}
	return stats.Result{}, false
}

func TestStatsForPlayers(t *testing.T) {
	st := store.NewMemory()
	seedHand(t, st, 1, 4, 101)
	seedHand(t, st, 2, 4, 102)

	e := New(st, testRegistry(), log.New(io.Discard), WithCacheTTL(0))
	results, err := e.StatsForPlayers(context.Background(), []int64{101, 102}, Options{})
	require.NoError(t, err)
	require.Len(t, results, 2)

	hands, ok := resultByID(results[0].Results, stats.StatHands)
	require.True(t, ok)
	assert.Equal(t, 2, hands.Value)

	vpip, ok := resultByID(results[0].Results, stats.StatVPIP)
	require.True(t, ok)
	assert.Equal(t, stats.Fraction{Num: 2, Den: 2}, vpip.Value)

	// Player 101 won hand 1 after seeing a flop.
	wwsf, ok := resultByID(results[0].Results, stats.StatWWSF)
	require.True(t, ok)
	assert.Equal(t, stats.Fraction{Num: 1, Den: 2}, wwsf.Value)
}

func TestEmptySeatShortCircuits(t *testing.T) {
	e := New(store.NewMemory(), testRegistry(), log.New(io.Discard), WithCacheTTL(0))
	results, err := e.StatsForPlayers(context.Background(), []int64{-1, -1}, Options{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Empty(t, results[0].Results)
	assert.False(t, results[0].Filtered)
}

func TestBrandNewPlayerRendersZeroStats(t *testing.T) {
	e := New(store.NewMemory(), testRegistry(), log.New(io.Discard), WithCacheTTL(0))
	results, err := e.StatsForPlayers(context.Background(), []int64{999}, Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Filtered)

	hands, ok := resultByID(results[0].Results, stats.StatHands)
	require.True(t, ok)
	assert.Equal(t, 0, hands.Value)

	vpip, ok := resultByID(results[0].Results, stats.StatVPIP)
	require.True(t, ok)
	assert.Equal(t, "-", vpip.Formatted)
}

func TestBattleTypeFilter(t *testing.T) {
	st := store.NewMemory()
	seedHand(t, st, 1, 4, 101)
	seedHand(t, st, 2, 8, 101)

	e := New(st, testRegistry(), log.New(io.Discard), WithCacheTTL(0))

	results, err := e.StatsForPlayers(context.Background(), []int64{101}, Options{BattleTypes: []int{8}})
	require.NoError(t, err)
	hands, _ := resultByID(results[0].Results, stats.StatHands)
	assert.Equal(t, 1, hands.Value)

	// Every hand filtered away: explicitly empty, not zero-stats.
	results, err = e.StatsForPlayers(context.Background(), []int64{101}, Options{BattleTypes: []int{99}})
	require.NoError(t, err)
	assert.True(t, results[0].Filtered)
	assert.Empty(t, results[0].Results)
}

func TestRecentLimitKeepsNewestHands(t *testing.T) {
	st := store.NewMemory()
	for id := int64(1); id <= 5; id++ {
		seedHand(t, st, id, 4, 101)
	}

	e := New(st, testRegistry(), log.New(io.Discard), WithCacheTTL(0))
	results, err := e.StatsForPlayers(context.Background(), []int64{101}, Options{RecentLimit: 2})
	require.NoError(t, err)
	hands, _ := resultByID(results[0].Results, stats.StatHands)
	assert.Equal(t, 2, hands.Value)
}

func TestStatIDsConfigRestrictsAndOrders(t *testing.T) {
	st := store.NewMemory()
	seedHand(t, st, 1, 4, 101)

	e := New(st, testRegistry(), log.New(io.Discard), WithCacheTTL(0))
	results, err := e.StatsForPlayers(context.Background(), []int64{101},
		Options{StatIDs: []string{stats.StatVPIP, stats.StatHands, "mystery"}})
	require.NoError(t, err)
	require.Len(t, results[0].Results, 3)
	assert.Equal(t, stats.StatVPIP, results[0].Results[0].ID)
	assert.Equal(t, stats.StatHands, results[0].Results[1].ID)
	assert.Equal(t, "Unknown", results[0].Results[2].Name)
}

func TestCacheExpiryAndBypass(t *testing.T) {
	st := store.NewMemory()
	seedHand(t, st, 1, 4, 101)

	mock := quartz.NewMock(t)
	e := New(st, testRegistry(), log.New(io.Discard),
		WithClock(mock), WithCacheTTL(3*time.Second))

	ctx := context.Background()
	results, err := e.StatsForPlayers(ctx, []int64{101}, Options{})
	require.NoError(t, err)
	hands, _ := resultByID(results[0].Results, stats.StatHands)
	assert.Equal(t, 1, hands.Value)

	// New data inside the TTL window: cached result still served.
	seedHand(t, st, 2, 4, 101)
	results, err = e.StatsForPlayers(ctx, []int64{101}, Options{})
	require.NoError(t, err)
	hands, _ = resultByID(results[0].Results, stats.StatHands)
	assert.Equal(t, 1, hands.Value)

	// Bypass sees the new hand immediately.
	results, err = e.StatsForPlayers(ctx, []int64{101}, Options{BypassCache: true})
	require.NoError(t, err)
	hands, _ = resultByID(results[0].Results, stats.StatHands)
	assert.Equal(t, 2, hands.Value)

	// Past the TTL the cache refreshes.
	mock.Advance(4 * time.Second)
	results, err = e.StatsForPlayers(ctx, []int64{101}, Options{})
	require.NoError(t, err)
	hands, _ = resultByID(results[0].Results, stats.StatHands)
	assert.Equal(t, 2, hands.Value)
}

func TestInvalidateDropsCache(t *testing.T) {
	st := store.NewMemory()
	seedHand(t, st, 1, 4, 101)

	e := New(st, testRegistry(), log.New(io.Discard), WithClock(quartz.NewMock(t)))
	ctx := context.Background()

	_, err := e.StatsForPlayers(ctx, []int64{101}, Options{})
	require.NoError(t, err)

	seedHand(t, st, 2, 4, 101)
	e.Invalidate()

	results, err := e.StatsForPlayers(ctx, []int64{101}, Options{})
	require.NoError(t, err)
	hands, _ := resultByID(results[0].Results, stats.StatHands)
	assert.Equal(t, 2, hands.Value)
}
