package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lox/pokerhud/internal/config"
	"github.com/lox/pokerhud/internal/ingest"
)

// ServeCmd runs the ingest endpoint and serves HUD subscribers.
type ServeCmd struct {
	Config   string `short:"c" default:"pokerhud.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" help:"Listen address (overrides config)"`
	LogLevel string `short:"l" help:"Log level (overrides config)"`
}

func (c *ServeCmd) Run() error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if c.LogLevel != "" {
		cfg.Server.LogLevel = c.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	addr := cfg.ListenAddress()
	if c.Addr != "" {
		addr = c.Addr
	}

	logger := setupLogger(cfg.Server.LogLevel)

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}

	p := buildPipeline(cfg, st, logger)
	server := ingest.NewServer(addr, p, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("shutting down", "signal", sig)
		_ = server.Stop()
		os.Exit(0)
	}()

	logger.Info("starting pokerhud",
		"addr", addr,
		"store", cfg.Store.Path,
		"battle_types", cfg.HUD.BattleTypes)
	return server.Start()
}
