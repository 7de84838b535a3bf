package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pithecene-io/ffpkg/cli/reader"
)

// InspectModel is a Bubble Tea model showing one published build.
type InspectModel struct {
	build    *reader.BuildDetail
	quitting bool
}

// NewInspectModel creates an inspect view for build.
func NewInspectModel(build *reader.BuildDetail) InspectModel {
	return InspectModel{build: build}
}

func newInspectModel(data any) (InspectModel, error) {
	build, ok := data.(*reader.BuildDetail)
	if !ok || build == nil {
		return InspectModel{}, fmt.Errorf("inspect view needs *reader.BuildDetail, got %T", data)
	}
	return NewInspectModel(build), nil
}

// Init implements tea.Model.
func (m InspectModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m InspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, viewKeys.Quit) {
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

// View implements tea.Model.
func (m InspectModel) View() string {
	if m.quitting {
		return ""
	}
	d := m.build

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Build " + d.BuildID))
	b.WriteString("\n\n")

	rows := [][2]string{
		{"Source", d.Source},
		{"Source dir", d.SourceDir},
		{"Day", d.Day},
		{"Image", d.Name},
		{"Image size", formatSize(d.ImageBytes)},
		{"Estimated", fmt.Sprintf("about %d MB", d.RoundedMegabytes)},
		{"SHA-256", d.SHA256},
		{"Image path", d.ImagePath},
		{"Manifest path", d.ManifestPath},
		{"Created", d.CreatedAt},
		{"Published", d.PublishedAt},
		{"Duration", formatDuration(d.DurationMs)},
		{"Builder args", strings.Join(d.ToolArgs, " ")},
	}
	for _, row := range rows {
		fmt.Fprintf(&b, "%s %s\n", LabelStyle.Render(row[0]+":"), ValueStyle.Render(row[1]))
	}

	// Leftover temp files need a clean run.
	if d.CleanupFailures > 0 {
		fmt.Fprintf(&b, "%s %s\n", LabelStyle.Render("Cleanup failures:"),
			WarnValueStyle.Render(fmt.Sprintf("%d (run ffpkg clean)", d.CleanupFailures)))
	}

	out := BoxStyle.Render(strings.TrimRight(b.String(), "\n"))
	return out + "\n" + HelpStyle.Render("Press q or Ctrl+C to quit")
}
