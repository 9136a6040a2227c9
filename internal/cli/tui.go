package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/pkgexplorer/pkg/integrations/npm"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// SearchModel - Interactive search result selection
// =============================================================================

// SearchModel is the bubbletea model for picking a search result.
type SearchModel struct {
	Query    string
	Results  []npm.SearchEntry
	Cursor   int
	Offset   int
	Height   int
	Selected *npm.SearchEntry
}

// NewSearchModel creates a picker over results.
func NewSearchModel(query string, results []npm.SearchEntry) SearchModel {
	return SearchModel{Query: query, Results: results, Height: 15}
}

func (m SearchModel) Init() tea.Cmd {
	return nil
}

func (m SearchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Results)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Results) == 0 {
				return m, tea.Quit
			}
			sel := m.Results[m.Cursor]
			m.Selected = &sel
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
		if m.Cursor >= m.Offset+m.Height {
			m.Offset = m.Cursor - m.Height + 1
		}
	}
	return m, nil
}

func (m SearchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(fmt.Sprintf("Results for %q", m.Query)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Results))
	for i := m.Offset; i < end; i++ {
		r := m.Results[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		line := fmt.Sprintf("%s%-32s %-10s %s", cursor, truncate(r.Package.Name, 32), r.Package.Version,
			listDimStyle.Render(truncate(r.Package.Description, 50)))
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Results))))
	return b.String()
}
