package main

import (
	"context"
	"fmt"

	"github.com/lox/pokerhud/internal/config"
	"github.com/lox/pokerhud/internal/engine"
)

// StatsCmd prints one player's aggregated stats straight from the store.
type StatsCmd struct {
	Player      int64    `arg:"" help:"Player id to aggregate"`
	Config      string   `short:"c" default:"pokerhud.hcl" help:"Path to HCL configuration file"`
	BattleTypes []int    `short:"b" help:"Restrict to battle types (overrides config)"`
	Recent      int      `short:"r" help:"Only the N most recent hands (overrides config)"`
	Stats       []string `short:"s" help:"Stat ids to calculate (overrides config)"`
}

func (c *StatsCmd) Run() error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger("warn")

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}

	battleTypes := cfg.HUD.BattleTypes
	if len(c.BattleTypes) > 0 {
		battleTypes = c.BattleTypes
	}
	recent := cfg.HUD.RecentLimit
	if c.Recent > 0 {
		recent = c.Recent
	}
	statIDs := cfg.HUD.Stats
	if len(c.Stats) > 0 {
		statIDs = c.Stats
	}

	eng := engine.New(st, newRegistry(logger), logger)
	players, err := eng.StatsForPlayers(context.Background(), []int64{c.Player}, engine.Options{
		BattleTypes: battleTypes,
		RecentLimit: recent,
		StatIDs:     statIDs,
		BypassCache: true,
	})
	if err != nil {
		return fmt.Errorf("calculating stats: %w", err)
	}
	if len(players) == 0 {
		return fmt.Errorf("no stats for player %d", c.Player)
	}

	ps := players[0]
	if ps.Filtered {
		fmt.Printf("Player %d has no hands matching the filter\n", ps.PlayerID)
	}
	for _, res := range ps.Results {
		fmt.Printf("%-16s %s\n", res.Name, res.Formatted)
	}
	return nil
}
