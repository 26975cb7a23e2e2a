package main

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"os"

	"github.com/lox/pokerhud/internal/config"
)

// ReplayCmd backfills the store from a newline-delimited event log captured
// off the wire. Recalculation is suppressed until the whole file has been
// ingested.
type ReplayCmd struct {
	File     string `arg:"" help:"Path to newline-delimited JSON event log"`
	Config   string `short:"c" default:"pokerhud.hcl" help:"Path to HCL configuration file"`
	LogLevel string `short:"l" default:"warn" help:"Log level during replay"`
}

func (c *ReplayCmd) Run() error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(c.LogLevel)

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}

	file, err := os.Open(c.File)
	if err != nil {
		return fmt.Errorf("opening event log: %w", err)
	}
	defer file.Close()

	p := buildPipeline(cfg, st, logger)
	ctx := context.Background()

	p.SetBatch(true)
	lines := 0
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		if err := p.HandleRaw(ctx, scanner.Bytes()); err != nil {
			return fmt.Errorf("line %d: %w", lines+1, err)
		}
		lines++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading event log: %w", err)
	}
	p.SetBatch(false)

	hands, err := st.HandsBetween(ctx, 0, math.MaxInt64)
	if err != nil {
		return fmt.Errorf("counting hands: %w", err)
	}

	fmt.Printf("Replayed %d events, store now holds %d hands\n", lines, len(hands))
	return nil
}
