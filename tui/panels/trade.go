package panels

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zappabad/bullbear/internal/ledger"
	"github.com/zappabad/bullbear/tui/styles"
)

// OpenPositionMsg asks the application to open a leveraged position.
type OpenPositionMsg struct {
	Size       float64
	Leverage   float64
	StopLoss   float64
	TakeProfit float64
}

// ClosePositionMsg asks the application to close a position.
type ClosePositionMsg struct {
	ID string
}

const (
	fieldSize = iota
	fieldLeverage
	fieldStopLoss
	fieldTakeProfit
	fieldCount
)

// TradePanel is the position entry form plus the open position list.
type TradePanel struct {
	inputs     []textinput.Model
	fieldIndex int

	positions []ledger.Position
	posIndex  int
	price     float64

	errMsg  string
	focused bool
	width   int
	height  int
}

// NewTradePanel creates a trade panel.
func NewTradePanel() *TradePanel {
	labels := []string{"0.10", "10", "0", "0"}
	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		ti := textinput.New()
		ti.Placeholder = labels[i]
		ti.CharLimit = 12
		ti.Width = 10
		inputs[i] = ti
	}
	inputs[fieldSize].Focus()
	return &TradePanel{inputs: inputs}
}

// Init initializes the panel.
func (p *TradePanel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the panel.
func (p *TradePanel) Update(msg tea.Msg) (*TradePanel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		if !p.focused {
			return p, nil
		}
		switch key.String() {
		case "enter":
			return p, p.submit()
		case "down":
			p.cycleField(1)
			return p, nil
		case "up":
			p.cycleField(-1)
			return p, nil
		case "left":
			if p.posIndex > 0 {
				p.posIndex--
			}
			return p, nil
		case "right":
			if p.posIndex < len(p.positions)-1 {
				p.posIndex++
			}
			return p, nil
		case "x":
			if len(p.positions) > 0 {
				id := p.positions[p.posIndex].ID
				return p, func() tea.Msg { return ClosePositionMsg{ID: id} }
			}
			return p, nil
		}
	}

	var cmd tea.Cmd
	p.inputs[p.fieldIndex], cmd = p.inputs[p.fieldIndex].Update(msg)
	return p, cmd
}

func (p *TradePanel) cycleField(delta int) {
	p.inputs[p.fieldIndex].Blur()
	p.fieldIndex = (p.fieldIndex + delta + fieldCount) % fieldCount
	p.inputs[p.fieldIndex].Focus()
}

func (p *TradePanel) submit() tea.Cmd {
	parse := func(i int, fallback float64) (float64, error) {
		raw := strings.TrimSpace(p.inputs[i].Value())
		if raw == "" {
			return fallback, nil
		}
		return strconv.ParseFloat(raw, 64)
	}

	size, err := parse(fieldSize, 0.1)
	if err != nil {
		p.errMsg = "bad size"
		return nil
	}
	leverage, err := parse(fieldLeverage, 10)
	if err != nil {
		p.errMsg = "bad leverage"
		return nil
	}
	stopLoss, err := parse(fieldStopLoss, 0)
	if err != nil {
		p.errMsg = "bad stop loss"
		return nil
	}
	takeProfit, err := parse(fieldTakeProfit, 0)
	if err != nil {
		p.errMsg = "bad take profit"
		return nil
	}

	p.errMsg = ""
	return func() tea.Msg {
		return OpenPositionMsg{
			Size:       size,
			Leverage:   leverage,
			StopLoss:   stopLoss,
			TakeProfit: takeProfit,
		}
	}
}

// SetPositions replaces the listed open positions.
func (p *TradePanel) SetPositions(positions []ledger.Position, price float64) {
	p.positions = positions
	p.price = price
	if p.posIndex >= len(positions) {
		p.posIndex = 0
	}
}

// SetError shows a submission error in the panel.
func (p *TradePanel) SetError(msg string) { p.errMsg = msg }

// SetFocus sets the focus state.
func (p *TradePanel) SetFocus(focused bool) { p.focused = focused }

// SetSize sets the panel dimensions.
func (p *TradePanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// View renders the panel.
func (p *TradePanel) View() string {
	var content strings.Builder

	labels := []string{"Size", "Leverage", "Stop loss", "Take profit"}
	for i, ti := range p.inputs {
		content.WriteString(fmt.Sprintf("%s %s  ",
			styles.LabelStyle.Render(fmt.Sprintf("%-11s", labels[i])),
			ti.View()))
		if i == fieldLeverage {
			content.WriteString("\n")
		}
	}
	content.WriteString("\n")

	if p.errMsg != "" {
		content.WriteString(styles.SellStyle.Render(p.errMsg))
		content.WriteString("\n")
	}

	if len(p.positions) == 0 {
		content.WriteString(styles.PlaceholderStyle.Render("no open positions"))
	} else {
		content.WriteString(styles.HeaderStyle.Render(
			fmt.Sprintf("%-9s %8s %6s %10s", "Position", "Entry", "Lev", "uPnL")))
		content.WriteString("\n")
		for i, pos := range p.positions {
			upnl := pos.UnrealizedPnL(p.price)
			pnlStyle := styles.PriceUpStyle
			if upnl < 0 {
				pnlStyle = styles.PriceDownStyle
			}
			side := "long"
			if pos.Size < 0 {
				side = "short"
			}
			line := fmt.Sprintf("%-9s %8s %5.0fx ", side, styles.FormatMoney(pos.EntryPrice), pos.Leverage)
			rowStyle := styles.RowStyle
			if p.focused && i == p.posIndex {
				rowStyle = styles.SelectedRowStyle
			}
			content.WriteString(rowStyle.Render(line))
			content.WriteString(pnlStyle.Render(fmt.Sprintf("%10s", styles.FormatMoney(upnl))))
			content.WriteString("\n")
		}
	}

	style := styles.PanelStyle
	if p.focused {
		style = styles.FocusedPanelStyle
	}
	title := styles.RenderTitle("Positions  (enter open, x close)", p.focused)
	body := style.Width(p.width - 2).Height(p.height - 3).Render(content.String())
	return lipgloss.JoinVertical(lipgloss.Left, title, body)
}
