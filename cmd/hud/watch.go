package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"

	"github.com/lox/pokerhud/internal/config"
	"github.com/lox/pokerhud/internal/hud"
	"github.com/lox/pokerhud/internal/ingest"
)

// WatchCmd attaches the terminal overlay to a running serve instance.
type WatchCmd struct {
	Config string `short:"c" default:"pokerhud.hcl" help:"Path to HCL configuration file"`
	URL    string `short:"u" help:"HUD stream URL (defaults to ws://<server>/hud)"`
}

func (c *WatchCmd) Run() error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := c.URL
	if url == "" {
		url = fmt.Sprintf("ws://%s/hud", cfg.ListenAddress())
	}

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", url, err)
	}
	defer conn.Close()

	logger := setupLogger("error")
	program := tea.NewProgram(hud.NewModel(logger), tea.WithAltScreen())

	go func() {
		for {
			var push ingest.Push
			if err := conn.ReadJSON(&push); err != nil {
				program.Send(hud.LogMsg{Line: fmt.Sprintf("stream closed: %v", err)})
				return
			}
			switch push.Type {
			case "stats":
				heroID := push.HeroID
				if cfg.HUD.HeroID != 0 {
					heroID = cfg.HUD.HeroID
				}
				program.Send(hud.StatsMsg{Players: push.Players, HeroID: heroID})
				program.Send(hud.LogMsg{Line: fmt.Sprintf("stats updated for %d players", len(push.Players))})
			case "odds":
				program.Send(hud.OddsMsg{Snapshot: push.Odds})
			}
		}
	}()

	_, err = program.Run()
	return err
}
