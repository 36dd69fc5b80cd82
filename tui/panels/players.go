package panels

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zappabad/bullbear/internal/session/core"
	"github.com/zappabad/bullbear/internal/trader"
	"github.com/zappabad/bullbear/tui/styles"
)

// PlayersPanel lists every player with stance, balance, record and score.
type PlayersPanel struct {
	players       []core.PlayerView
	selectedIndex int
	focused       bool
	width         int
	height        int
}

// NewPlayersPanel creates a players panel.
func NewPlayersPanel() *PlayersPanel {
	return &PlayersPanel{}
}

// Init initializes the panel.
func (p *PlayersPanel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the panel.
func (p *PlayersPanel) Update(msg tea.Msg) (*PlayersPanel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if !p.focused {
			return p, nil
		}
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
			if p.selectedIndex > 0 {
				p.selectedIndex--
			}
		case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
			if p.selectedIndex < len(p.players)-1 {
				p.selectedIndex++
			}
		}
	}
	return p, nil
}

// SetPlayers replaces the listed players.
func (p *PlayersPanel) SetPlayers(players []core.PlayerView) {
	p.players = players
	if p.selectedIndex >= len(players) {
		p.selectedIndex = 0
	}
}

// SetFocus sets the focus state.
func (p *PlayersPanel) SetFocus(focused bool) { p.focused = focused }

// SetSize sets the panel dimensions.
func (p *PlayersPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

func stanceStyle(s trader.Stance) lipgloss.Style {
	switch s {
	case trader.StanceBuy:
		return styles.BuyStyle
	case trader.StanceSell:
		return styles.SellStyle
	default:
		return styles.NeutralStyle
	}
}

// View renders the panel.
func (p *PlayersPanel) View() string {
	var content strings.Builder

	content.WriteString(styles.HeaderStyle.Render(
		fmt.Sprintf("%-12s %-8s %10s %7s %8s", "Player", "Stance", "Balance", "W/L", "Score")))
	content.WriteString("\n")

	if len(p.players) == 0 {
		content.WriteString(styles.PlaceholderStyle.Render("no session"))
	}

	for i, pv := range p.players {
		name := pv.Name
		if pv.Kind == trader.KindAI {
			name = name + "*"
		}
		if len(name) > 12 {
			name = name[:12]
		}

		line := fmt.Sprintf("%-12s %-8s %10s %3d/%-3d %8.0f",
			name,
			pv.Stance.String(),
			styles.FormatMoney(pv.Balance),
			pv.Wins, pv.Losses,
			pv.Score)

		rowStyle := styles.RowStyle
		if p.focused && i == p.selectedIndex {
			rowStyle = styles.SelectedRowStyle
		}
		content.WriteString(rowStyle.Render(line))
		content.WriteString(" ")
		content.WriteString(stanceStyle(pv.Stance).Render("●"))
		content.WriteString("\n")
	}

	style := styles.PanelStyle
	if p.focused {
		style = styles.FocusedPanelStyle
	}
	title := styles.RenderTitle("Traders", p.focused)
	body := style.Width(p.width - 2).Height(p.height - 3).Render(content.String())
	return lipgloss.JoinVertical(lipgloss.Left, title, body)
}
