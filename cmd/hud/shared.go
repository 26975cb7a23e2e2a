package main

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/pokerhud/internal/config"
	"github.com/lox/pokerhud/internal/engine"
	"github.com/lox/pokerhud/internal/pipeline"
	"github.com/lox/pokerhud/internal/session"
	"github.com/lox/pokerhud/internal/stats"
	"github.com/lox/pokerhud/internal/store"
)

// openStore opens the configured store, falling back to memory when no path
// is set.
func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.Store.Path == "" || cfg.Store.Path == ":memory:" {
		return store.NewMemory(), nil
	}
	return store.OpenSQLite(cfg.Store.Path)
}

// newRegistry builds a registry holding every built-in stat.
func newRegistry(logger *log.Logger) *stats.Registry {
	registry := stats.NewRegistry(logger)
	for _, def := range stats.BuiltinDefinitions() {
		registry.Register(def)
	}
	return registry
}

// buildPipeline assembles the full processing chain from configuration.
func buildPipeline(cfg *config.Config, st store.Store, logger *log.Logger) *pipeline.Pipeline {
	registry := newRegistry(logger)
	eng := engine.New(st, registry, logger,
		engine.WithCacheTTL(time.Duration(cfg.HUD.CacheTTLSeconds)*time.Second))

	return pipeline.New(session.New(), registry, st, eng, logger, pipeline.Options{
		BattleTypes: cfg.HUD.BattleTypes,
		RecentLimit: cfg.HUD.RecentLimit,
		StatIDs:     cfg.HUD.Stats,
	})
}
