package panels

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/charmbracelet/lipgloss"

	"github.com/zappabad/bullbear/internal/news"
	"github.com/zappabad/bullbear/tui/styles"
)

// NewsPanel displays the headline tape.
type NewsPanel struct {
	items        []news.Item
	scrollOffset int
	focused      bool
	width        int
	height       int
}

// NewNewsPanel creates a news panel.
func NewNewsPanel() *NewsPanel {
	return &NewsPanel{}
}

// Init initializes the panel.
func (p *NewsPanel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the panel.
func (p *NewsPanel) Update(msg tea.Msg) (*NewsPanel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if !p.focused {
			return p, nil
		}
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
			if p.scrollOffset > 0 {
				p.scrollOffset--
			}
		case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
			if p.scrollOffset < len(p.items)-1 {
				p.scrollOffset++
			}
		}
	}
	return p, nil
}

// SetItems replaces the tape.
func (p *NewsPanel) SetItems(items []news.Item) {
	p.items = items
	if p.scrollOffset >= len(items) {
		p.scrollOffset = 0
	}
}

// SetFocus sets the focus state.
func (p *NewsPanel) SetFocus(focused bool) { p.focused = focused }

// SetSize sets the panel dimensions.
func (p *NewsPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// View renders the panel.
func (p *NewsPanel) View() string {
	var content strings.Builder

	if len(p.items) == 0 {
		content.WriteString(styles.PlaceholderStyle.Render("No news yet"))
	} else {
		visible := p.height - 4
		if visible < 1 {
			visible = 1
		}
		end := p.scrollOffset + visible
		if end > len(p.items) {
			end = len(p.items)
		}
		for _, item := range p.items[p.scrollOffset:end] {
			timeStr := time.Unix(item.Time, 0).Format("15:04:05")

			headline := item.Headline
			if max := p.width - 14; max > 3 && len(headline) > max {
				headline = headline[:max-3] + "..."
			}

			style := styles.NewsNormalStyle
			if item.Severity > 0 {
				style = styles.NewsImportantStyle
			}
			direction := styles.NeutralStyle.Render("→")
			if item.Bias > 0 {
				direction = styles.BuyStyle.Render("↑")
			} else if item.Bias < 0 {
				direction = styles.SellStyle.Render("↓")
			}

			content.WriteString(fmt.Sprintf("%s %s %s\n",
				styles.TimeStyle.Render(timeStr),
				direction,
				style.Render(headline)))
		}
	}

	style := styles.PanelStyle
	if p.focused {
		style = styles.FocusedPanelStyle
	}
	title := styles.RenderTitle("News", p.focused)
	body := style.Width(p.width - 2).Height(p.height - 3).Render(content.String())
	return lipgloss.JoinVertical(lipgloss.Left, title, body)
}
