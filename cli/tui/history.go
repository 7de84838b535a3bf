package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/ffpkg/cli/reader"
)

// maxTableRows caps the visible rows before a window size is known.
const maxTableRows = 15

// HistoryModel is a Bubble Tea model listing published builds under a row
// of summary boxes.
type HistoryModel struct {
	items    []reader.BuildItem
	stats    reader.HistoryStats
	table    table.Model
	quitting bool
}

// NewHistoryModel creates a history view over items, newest first.
func NewHistoryModel(items []reader.BuildItem) HistoryModel {
	columns := []table.Column{
		{Title: "Build", Width: 36},
		{Title: "Source", Width: 24},
		{Title: "Day", Width: 10},
		{Title: "Size", Width: 10},
		{Title: "Duration", Width: 9},
	}
	rows := make([]table.Row, 0, len(items))
	for _, it := range items {
		rows = append(rows, table.Row{
			it.BuildID,
			it.Source,
			it.Day,
			formatSize(it.ImageBytes),
			formatDuration(it.DurationMs),
		})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(min(len(rows), maxTableRows)+2),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(subtle).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(accent)
	t.SetStyles(s)

	return HistoryModel{
		items: items,
		stats: reader.Summarize(items),
		table: t,
	}
}

func newHistoryModel(data any) (HistoryModel, error) {
	items, ok := data.([]reader.BuildItem)
	if !ok {
		return HistoryModel{}, fmt.Errorf("history view needs []reader.BuildItem, got %T", data)
	}
	return NewHistoryModel(items), nil
}

// Init implements tea.Model.
func (m HistoryModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m HistoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// Title, boxes and help take about ten lines.
		m.table.SetHeight(max(min(len(m.items), msg.Height-10), 1) + 2)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, viewKeys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m HistoryModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Build History"))
	b.WriteString("\n\n")

	boxes := []string{
		renderStatBox("Builds", fmt.Sprintf("%d", m.stats.Builds), info),
		renderStatBox("Sources", fmt.Sprintf("%d", m.stats.Sources), accent),
		renderStatBox("Total Size", formatSize(m.stats.TotalImageBytes), good),
		renderStatBox("Avg Duration", formatDuration(m.stats.AverageDurationMs), caution),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
	b.WriteString("\n\n")

	if len(m.items) == 0 {
		b.WriteString(ValueStyle.Render("No published builds."))
	} else {
		b.WriteString(m.table.View())
	}

	b.WriteString("\n")
	b.WriteString(HelpStyle.Render("↑/↓ to scroll, q to quit"))
	return b.String()
}

// SelectedBuild returns the build ID under the cursor, or "" when empty.
func (m HistoryModel) SelectedBuild() string {
	row := m.table.SelectedRow()
	if len(row) == 0 {
		return ""
	}
	return row[0]
}

func renderStatBox(label, value string, color lipgloss.TerminalColor) string {
	valueStr := StatValueStyle.Foreground(color).Render(value)
	labelStr := StatLabelStyle.Render(label)
	content := lipgloss.JoinVertical(lipgloss.Center, valueStr, labelStr)
	return StatBoxStyle.BorderForeground(color).Render(content)
}
