package hud

import "github.com/charmbracelet/lipgloss"

// Static styles for HUD elements
var (
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#626262")).
			Padding(0, 1)

	HeroPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#04B575")).
			Padding(0, 1)

	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1).
			Bold(true)

	PlayerNameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true)

	StatNameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	StatValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))

	FreshPlayerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFEAA7"))

	OddsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true)

	OddsIdleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	LogStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))
)
