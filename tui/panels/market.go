package panels

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zappabad/bullbear/internal/session/core"
	"github.com/zappabad/bullbear/tui/styles"
)

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// MarketPanel shows the asset price, the current regime, the round clock
// and a sparkline of recent history.
type MarketPanel struct {
	snap      core.Snapshot
	prevPrice float64
	focused   bool
	width     int
	height    int
}

// NewMarketPanel creates a market panel.
func NewMarketPanel() *MarketPanel {
	return &MarketPanel{}
}

// Init initializes the panel.
func (p *MarketPanel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the panel.
func (p *MarketPanel) Update(msg tea.Msg) (*MarketPanel, tea.Cmd) {
	return p, nil
}

// SetSnapshot replaces the displayed session state.
func (p *MarketPanel) SetSnapshot(snap core.Snapshot) {
	p.prevPrice = p.snap.Price
	p.snap = snap
}

// SetFocus sets the focus state.
func (p *MarketPanel) SetFocus(focused bool) { p.focused = focused }

// SetSize sets the panel dimensions.
func (p *MarketPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// View renders the panel.
func (p *MarketPanel) View() string {
	var content strings.Builder

	priceStyle := styles.RowStyle
	arrow := " "
	if p.prevPrice > 0 && p.snap.Price > p.prevPrice {
		priceStyle = styles.PriceUpStyle
		arrow = "▲"
	} else if p.prevPrice > 0 && p.snap.Price < p.prevPrice {
		priceStyle = styles.PriceDownStyle
		arrow = "▼"
	}

	content.WriteString(fmt.Sprintf("%s  %s %s\n",
		styles.HeaderStyle.Render(p.snap.Asset),
		priceStyle.Render(styles.FormatMoney(p.snap.Price)),
		priceStyle.Render(arrow)))

	regime := p.snap.Regime.String()
	content.WriteString(fmt.Sprintf("%s %s\n",
		styles.LabelStyle.Render("Regime:"),
		styles.RegimeStyle(regime).Render(strings.ToUpper(regime))))

	content.WriteString(fmt.Sprintf("%s %d/%d  %s %02ds\n",
		styles.LabelStyle.Render("Round:"),
		p.snap.Round.Index, p.snap.MaxRounds,
		styles.LabelStyle.Render("Clock:"),
		p.snap.Round.TimeRemaining))

	content.WriteString(p.renderSparkline())

	style := styles.PanelStyle
	if p.focused {
		style = styles.FocusedPanelStyle
	}
	title := styles.RenderTitle("Market", p.focused)
	body := style.Width(p.width - 2).Height(p.height - 3).Render(content.String())
	return lipgloss.JoinVertical(lipgloss.Left, title, body)
}

func (p *MarketPanel) renderSparkline() string {
	hist := p.snap.History
	cols := p.width - 6
	if cols < 8 {
		cols = 8
	}
	if len(hist) > cols {
		hist = hist[len(hist)-cols:]
	}
	if len(hist) < 2 {
		return styles.PlaceholderStyle.Render("waiting for ticks...")
	}

	lo, hi := hist[0].Price, hist[0].Price
	for _, t := range hist {
		if t.Price < lo {
			lo = t.Price
		}
		if t.Price > hi {
			hi = t.Price
		}
	}

	var line strings.Builder
	for _, t := range hist {
		idx := 0
		if hi > lo {
			idx = int((t.Price - lo) / (hi - lo) * float64(len(sparkRunes)-1))
		}
		line.WriteRune(sparkRunes[idx])
	}

	return fmt.Sprintf("%s\n%s\n%s",
		styles.ChartAxisStyle.Render(styles.FormatMoney(hi)),
		styles.SparklineStyle.Render(line.String()),
		styles.ChartAxisStyle.Render(styles.FormatMoney(lo)))
}
