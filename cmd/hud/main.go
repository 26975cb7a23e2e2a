package main

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Serve   ServeCmd         `cmd:"" help:"Run the ingest server and push HUD updates"`
	Watch   WatchCmd         `cmd:"" help:"Attach the terminal overlay to a running server"`
	Replay  ReplayCmd        `cmd:"" help:"Backfill the store from a recorded event log"`
	Stats   StatsCmd         `cmd:"" help:"Print a player's stats from the store"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("pokerhud"),
		kong.Description("Real-time poker statistics HUD"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

func setupLogger(level string) *log.Logger {
	logger := log.New(os.Stderr)
	switch level {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}
	return logger
}
