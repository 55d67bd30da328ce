package cli

import (
	"bytes"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/dcmdict/pkg/dictionary"
	"github.com/matzehuels/dcmdict/pkg/report"
)

// List styles
var (
	listDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	listHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

const defaultBrowserHeight = 15

// =============================================================================
// BrowserModel - Interactive SOP class browser
// =============================================================================

// BrowserModel is the bubbletea model browsing resolved SOP classes. The
// list view shows one row per SOP class; enter opens the attribute tree of
// the selected class.
type BrowserModel struct {
	Sops   []dictionary.Sop
	Cursor int
	Offset int
	Height int

	// Tree view state; Tree is nil while the list is shown.
	Tree   []string
	Scroll int
}

// NewBrowserModel creates a browser over sops.
func NewBrowserModel(sops []dictionary.Sop) BrowserModel {
	return BrowserModel{Sops: sops, Height: defaultBrowserHeight}
}

func (m BrowserModel) Init() tea.Cmd {
	return nil
}

func (m BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.Tree != nil {
			return m.updateTree(msg)
		}
		return m.updateList(msg)
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m BrowserModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
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
		if m.Cursor < len(m.Sops)-1 {
			m.Cursor++
			if m.Cursor >= m.Offset+m.Height {
				m.Offset = m.Cursor - m.Height + 1
			}
		}
	case "enter":
		if len(m.Sops) == 0 {
			return m, nil
		}
		m.Tree = treeLines(m.Sops[m.Cursor])
		m.Scroll = 0
	}
	return m, nil
}

func (m BrowserModel) updateTree(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "backspace":
		m.Tree = nil
	case "up", "k":
		if m.Scroll > 0 {
			m.Scroll--
		}
	case "down", "j":
		if m.Scroll < m.maxScroll() {
			m.Scroll++
		}
	case "pgdown", " ":
		m.Scroll = min(m.Scroll+m.Height, m.maxScroll())
	case "pgup":
		m.Scroll = max(m.Scroll-m.Height, 0)
	}
	return m, nil
}

func (m BrowserModel) maxScroll() int {
	return max(len(m.Tree)-m.Height, 0)
}

func (m BrowserModel) View() string {
	if m.Tree != nil {
		return m.treeView()
	}
	return m.listView()
}

func (m BrowserModel) listView() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("SOP Classes"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ attributes  q quit"))
	b.WriteString("\n\n")

	if len(m.Sops) == 0 {
		b.WriteString(listDimStyle.Render("  no SOP classes"))
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Sops))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		sop := m.Sops[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		iod := "—"
		if sop.Iod != nil {
			iod = sop.Iod.Name
		}
		rows = append(rows, []string{cursor, sop.Uid.Value, sop.Uid.Name, iod})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "UID", "Name", "IOD").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return listHeaderStyle
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			if col == 1 {
				return lipgloss.NewStyle().Foreground(colorGray)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Sops))))

	return b.String()
}

func (m BrowserModel) treeView() string {
	var b strings.Builder

	sop := m.Sops[m.Cursor]
	b.WriteString(StyleTitle.Render(sop.Uid.Name))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ scroll  esc back  q quit"))
	b.WriteString("\n\n")

	end := min(m.Scroll+m.Height, len(m.Tree))
	for _, line := range m.Tree[m.Scroll:end] {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  lines %d-%d of %d", m.Scroll+1, end, len(m.Tree))))

	return b.String()
}

// treeLines renders the attribute tree of sop as lines.
func treeLines(sop dictionary.Sop) []string {
	var buf bytes.Buffer
	if err := report.Tree(&buf, sop); err != nil {
		return []string{StyleWarning.Render(err.Error())}
	}
	return strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
}
