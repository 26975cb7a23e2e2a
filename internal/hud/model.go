package hud

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/pokerhud/internal/engine"
	"github.com/lox/pokerhud/internal/realtime"
)

// StatsMsg replaces the displayed table stats.
type StatsMsg struct {
	Players []engine.PlayerStats
	HeroID  int64
}

// OddsMsg replaces the live pot-odds strip.
type OddsMsg struct {
	Snapshot *realtime.Snapshot
}

// LogMsg appends one line to the activity log.
type LogMsg struct {
	Line string
}

// Model is the Bubble Tea model for the HUD overlay. Feed it messages via
// Program.Send from the pipeline callbacks.
type Model struct {
	logger *log.Logger

	players []engine.PlayerStats
	heroID  int64
	odds    *realtime.Snapshot

	logView  viewport.Model
	logLines []string

	width    int
	height   int
	quitting bool
}

// NewModel creates an empty HUD model.
func NewModel(logger *log.Logger) *Model {
	vp := viewport.New(80, 8)
	vp.SetContent("")
	return &Model{
		logger:  logger.WithPrefix("hud"),
		logView: vp,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logView.Width = msg.Width - 4
		if h := msg.Height - 16; h > 2 {
			m.logView.Height = h
		}

	case StatsMsg:
		m.players = msg.Players
		m.heroID = msg.HeroID

	case OddsMsg:
		m.odds = msg.Snapshot

	case LogMsg:
		m.logLines = append(m.logLines, msg.Line)
		if len(m.logLines) > 200 {
			m.logLines = m.logLines[len(m.logLines)-200:]
		}
		m.logView.SetContent(LogStyle.Render(strings.Join(m.logLines, "\n")))
		m.logView.GotoBottom()
	}

	var cmd tea.Cmd
	m.logView, cmd = m.logView.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	header := HeaderStyle.Render(fmt.Sprintf("pokerhud — %d players tracked", len(m.players)))

	sections := []string{
		header,
		RenderOdds(m.odds),
		RenderPanels(m.players, m.heroID),
		m.logView.View(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}
