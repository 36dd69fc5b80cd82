// Package tui is the terminal front end: four panels over the session
// service, driven by its event stream and a periodic snapshot refresh.
package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	newsservice "github.com/zappabad/bullbear/internal/news/service"
	"github.com/zappabad/bullbear/internal/session/core"
	sessionservice "github.com/zappabad/bullbear/internal/session/service"
	"github.com/zappabad/bullbear/internal/trader"
	"github.com/zappabad/bullbear/tui/panels"
	"github.com/zappabad/bullbear/tui/styles"
)

// PanelFocus represents which panel is currently focused.
type PanelFocus int

const (
	FocusMarket  PanelFocus = 0
	FocusPlayers PanelFocus = 1
	FocusTrade   PanelFocus = 2
	FocusNews    PanelFocus = 3
)

const commandTimeout = 2 * time.Second

// Model is the main TUI application model.
type Model struct {
	session *sessionservice.Service
	news    *newsservice.Service

	playerName string

	marketPanel  *panels.MarketPanel
	playersPanel *panels.PlayersPanel
	tradePanel   *panels.TradePanel
	newsPanel    *panels.NewsPanel

	snap      core.Snapshot
	standings []core.Standing

	focusedPanel PanelFocus

	width  int
	height int

	statusMsg string
	ready     bool
}

// NewModel creates a new TUI model.
func NewModel(session *sessionservice.Service, news *newsservice.Service, playerName string) *Model {
	return &Model{
		session:      session,
		news:         news,
		playerName:   playerName,
		marketPanel:  panels.NewMarketPanel(),
		playersPanel: panels.NewPlayersPanel(),
		tradePanel:   panels.NewTradePanel(),
		newsPanel:    panels.NewNewsPanel(),
		focusedPanel: FocusTrade,
		statusMsg:    "enter to start",
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.marketPanel.Init(),
		m.playersPanel.Init(),
		m.tradePanel.Init(),
		m.newsPanel.Init(),
		m.listenSessionEvents(),
		m.tickRefresh(),
	)
}

// messages

type snapshotMsg struct {
	snap core.Snapshot
}

type sessionEventMsg struct {
	event core.Event
}

type commandResultMsg struct {
	message string
}

type tickMsg struct{}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case snapshotMsg:
		m.snap = msg.snap
		m.marketPanel.SetSnapshot(msg.snap)
		m.playersPanel.SetPlayers(msg.snap.Players)
		for _, pv := range msg.snap.Players {
			if pv.Kind == trader.KindHuman {
				m.tradePanel.SetPositions(pv.OpenPositions, msg.snap.Price)
			}
		}

	case sessionEventMsg:
		m.handleSessionEvent(msg.event)
		cmds = append(cmds, m.listenSessionEvents())

	case panels.OpenPositionMsg:
		cmds = append(cmds, m.openPosition(msg))

	case panels.ClosePositionMsg:
		cmds = append(cmds, m.closePosition(msg.ID))

	case commandResultMsg:
		m.statusMsg = msg.message

	case tickMsg:
		m.newsPanel.SetItems(m.news.Latest(20))
		cmds = append(cmds, m.refreshSnapshot(), m.tickRefresh())
	}

	m.updateFocusedPanel(msg, &cmds)

	return m, tea.Batch(cmds...)
}

// handleKey covers the global bindings; returns handled=false for keys the
// focused panel should see.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		return tea.Quit, true
	case "q":
		// the trade form needs the letter
		if m.focusedPanel != FocusTrade {
			return tea.Quit, true
		}
	case "tab":
		m.focusedPanel = (m.focusedPanel + 1) % 4
		return nil, true
	case "shift+tab":
		m.focusedPanel--
		if m.focusedPanel < 0 {
			m.focusedPanel = 3
		}
		return nil, true
	case "f1":
		m.focusedPanel = FocusMarket
		return nil, true
	case "f2":
		m.focusedPanel = FocusPlayers
		return nil, true
	case "f3":
		m.focusedPanel = FocusTrade
		return nil, true
	case "f4":
		m.focusedPanel = FocusNews
		return nil, true
	case "enter":
		if m.snap.State == core.StateSetup {
			return m.begin(), true
		}
	case "b", "s", "n":
		if m.focusedPanel != FocusTrade {
			stance, _ := trader.ParseStance(map[string]string{
				"b": "buy", "s": "sell", "n": "neutral",
			}[msg.String()])
			return m.placeTrade(stance), true
		}
	case " ":
		switch m.snap.State {
		case core.StateActive:
			return m.pause(), true
		case core.StatePaused:
			return m.resume(), true
		}
	case "ctrl+r":
		return m.reset(), true
	}
	return nil, false
}

func (m *Model) updateFocusedPanel(msg tea.Msg, cmds *[]tea.Cmd) {
	var cmd tea.Cmd
	switch m.focusedPanel {
	case FocusMarket:
		m.marketPanel, cmd = m.marketPanel.Update(msg)
	case FocusPlayers:
		m.playersPanel, cmd = m.playersPanel.Update(msg)
	case FocusTrade:
		m.tradePanel, cmd = m.tradePanel.Update(msg)
	case FocusNews:
		m.newsPanel, cmd = m.newsPanel.Update(msg)
	}
	if cmd != nil {
		*cmds = append(*cmds, cmd)
	}
}

func (m *Model) handleSessionEvent(ev core.Event) {
	switch e := ev.(type) {
	case core.RoundSettledEvent:
		wins := 0
		for _, o := range e.Outcomes {
			if o.Result == core.ResultWin {
				wins++
			}
		}
		m.statusMsg = fmt.Sprintf("round %d settled %s: %d winners",
			e.Round, e.Regime.String(), wins)
	case core.GameOverEvent:
		m.standings = e.Standings
		m.statusMsg = "game over"
	case core.StateChangedEvent:
		if e.To == core.StateSetup {
			m.standings = nil
		}
	}
}

// View renders the UI.
func (m *Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	m.marketPanel.SetFocus(m.focusedPanel == FocusMarket)
	m.playersPanel.SetFocus(m.focusedPanel == FocusPlayers)
	m.tradePanel.SetFocus(m.focusedPanel == FocusTrade)
	m.newsPanel.SetFocus(m.focusedPanel == FocusNews)

	if m.snap.State == core.StateGameOver && len(m.standings) > 0 {
		return m.renderGameOver()
	}

	// ┌──────────────────┬──────────────────┐
	// │      Market      │     Traders      │
	// ├──────────────────┼──────────────────┤
	// │    Positions     │      News        │
	// └──────────────────┴──────────────────┘
	leftWidth := m.width / 2
	rightWidth := m.width - leftWidth
	topHeight := (m.height - 3) / 2
	bottomHeight := m.height - topHeight - 3

	m.marketPanel.SetSize(leftWidth, topHeight)
	m.playersPanel.SetSize(rightWidth, topHeight)
	m.tradePanel.SetSize(leftWidth, bottomHeight)
	m.newsPanel.SetSize(rightWidth, bottomHeight)

	topRow := lipgloss.JoinHorizontal(lipgloss.Top,
		m.marketPanel.View(), m.playersPanel.View())
	bottomRow := lipgloss.JoinHorizontal(lipgloss.Top,
		m.tradePanel.View(), m.newsPanel.View())

	return lipgloss.JoinVertical(lipgloss.Left, topRow, bottomRow, m.renderStatusBar())
}

func (m *Model) renderGameOver() string {
	var rows string
	for i, s := range m.standings {
		style := styles.RowStyle
		if i == 0 {
			style = styles.NewsImportantStyle
		}
		rows += style.Render(fmt.Sprintf("%2d. %-14s %8.0f  (%d-%d, %s)",
			i+1, s.Name, s.Score, s.Wins, s.Losses, styles.FormatMoney(s.Balance))) + "\n"
	}
	box := styles.FocusedPanelStyle.Render(
		styles.TitleStyle.Render("Final standings") + "\n\n" + rows +
			"\n" + styles.StatusBarDescStyle.Render("ctrl+r new game, q quit"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m *Model) renderStatusBar() string {
	help := lipgloss.JoinHorizontal(lipgloss.Center,
		styles.StatusBarKeyStyle.Render("b/s/n")+styles.StatusBarDescStyle.Render(" stance"),
		" │ ",
		styles.StatusBarKeyStyle.Render("space")+styles.StatusBarDescStyle.Render(" pause"),
		" │ ",
		styles.StatusBarKeyStyle.Render("ctrl+r")+styles.StatusBarDescStyle.Render(" reset"),
		" │ ",
		styles.StatusBarKeyStyle.Render("tab")+styles.StatusBarDescStyle.Render(" panels"),
		" │ ",
		styles.StatusBarKeyStyle.Render("q")+styles.StatusBarDescStyle.Render(" quit"),
	)

	status := ""
	if m.statusMsg != "" {
		status = " │ " + m.statusMsg
	}
	return styles.StatusBarStyle.Width(m.width).Render(help + status)
}

// commands

func (m *Model) withSession(run func(ctx context.Context) error, okMsg string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		if err := run(ctx); err != nil {
			return commandResultMsg{message: "✗ " + err.Error()}
		}
		return commandResultMsg{message: okMsg}
	}
}

func (m *Model) begin() tea.Cmd {
	return m.withSession(func(ctx context.Context) error {
		if err := m.session.Initialize(ctx, m.playerName); err != nil {
			return err
		}
		return m.session.Start(ctx)
	}, "session started")
}

func (m *Model) placeTrade(stance trader.Stance) tea.Cmd {
	return m.withSession(func(ctx context.Context) error {
		return m.session.PlaceTrade(ctx, stance)
	}, "stance: "+stance.String())
}

func (m *Model) pause() tea.Cmd {
	return m.withSession(m.session.Pause, "paused")
}

func (m *Model) resume() tea.Cmd {
	return m.withSession(m.session.Resume, "resumed")
}

func (m *Model) reset() tea.Cmd {
	return m.withSession(m.session.Reset, "reset, enter to start")
}

func (m *Model) openPosition(msg panels.OpenPositionMsg) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		pos, err := m.session.OpenPosition(ctx, msg.Size, msg.Leverage, msg.StopLoss, msg.TakeProfit)
		if err != nil {
			return commandResultMsg{message: "✗ " + err.Error()}
		}
		return commandResultMsg{message: fmt.Sprintf("✓ opened %s @ %s",
			pos.ID[:8], styles.FormatMoney(pos.EntryPrice))}
	}
}

func (m *Model) closePosition(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		pos, err := m.session.ClosePosition(ctx, id)
		if err != nil {
			return commandResultMsg{message: "✗ " + err.Error()}
		}
		return commandResultMsg{message: fmt.Sprintf("✓ closed, PnL %s",
			styles.FormatMoney(pos.PnL))}
	}
}

func (m *Model) refreshSnapshot() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		snap, err := m.session.Snapshot(ctx)
		if err != nil {
			return nil
		}
		return snapshotMsg{snap: snap}
	}
}

func (m *Model) listenSessionEvents() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.session.Events()
		if !ok {
			return nil
		}
		return sessionEventMsg{event: ev}
	}
}

func (m *Model) tickRefresh() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}
