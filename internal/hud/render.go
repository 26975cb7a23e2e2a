// Package hud renders calculated stats and live pot odds as a terminal
// overlay.
package hud

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lox/pokerhud/internal/engine"
	"github.com/lox/pokerhud/internal/realtime"
)

// RenderPanel draws one player's stat panel. The hero's panel gets the
// highlighted border.
func RenderPanel(ps engine.PlayerStats, hero bool) string {
	var b strings.Builder

	name := fmt.Sprintf("Player %d", ps.PlayerID)
	if hero {
		name += " (you)"
	}
	b.WriteString(PlayerNameStyle.Render(name))
	b.WriteString("\n")

	if len(ps.Results) == 0 {
		b.WriteString(FreshPlayerStyle.Render("no data"))
	}
	for i, res := range ps.Results {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(StatNameStyle.Render(fmt.Sprintf("%-14s", res.Name)))
		b.WriteString(" ")
		b.WriteString(StatValueStyle.Render(res.Formatted))
	}

	style := PanelStyle
	if hero {
		style = HeroPanelStyle
	}
	return style.Render(b.String())
}

// RenderPanels lays the table's panels out side by side.
func RenderPanels(players []engine.PlayerStats, heroID int64) string {
	if len(players) == 0 {
		return ""
	}
	panels := make([]string, 0, len(players))
	for _, ps := range players {
		panels = append(panels, RenderPanel(ps, ps.PlayerID == heroID))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, panels...)
}

// RenderOdds draws the live pot-odds strip. Figures dim when it is not the
// hero's turn.
func RenderOdds(snap *realtime.Snapshot) string {
	if snap == nil {
		return OddsIdleStyle.Render("waiting for a hand")
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("Pot %d", snap.Pot))
	if snap.Call > 0 {
		parts = append(parts, fmt.Sprintf("Call %d (%.1f%%, %s)", snap.Call, snap.Percentage, snap.Ratio))
	}
	if snap.HasSPR {
		parts = append(parts, fmt.Sprintf("SPR %.1f", snap.SPR))
	}
	line := strings.Join(parts, "  ")

	if !snap.HeroTurn {
		return OddsIdleStyle.Render(line)
	}
	return OddsStyle.Render(line)
}
