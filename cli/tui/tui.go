package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/inhies/go-bytesize"
)

// View types that have a TUI.
const (
	ViewHistory      = "history"
	ViewInspectBuild = "inspect_build"
)

// viewKeys are shared by the read-only views.
var viewKeys = struct {
	Quit key.Binding
}{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c", "esc"),
		key.WithHelp("q", "quit"),
	),
}

// Run starts the TUI for viewType on the alternate screen.
// Returns an error if the view type doesn't support TUI.
func Run(viewType string, data any) error {
	model, err := newViewModel(viewType, data)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}

// RenderStatic renders a view once without running a program, for output
// that is not a terminal.
func RenderStatic(viewType string, data any) (string, error) {
	model, err := newViewModel(viewType, data)
	if err != nil {
		return "", err
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View()), nil
}

// IsTUISupported returns true if the view type supports TUI mode.
func IsTUISupported(viewType string) bool {
	for _, v := range SupportedTUIViews() {
		if v == viewType {
			return true
		}
	}
	return false
}

// SupportedTUIViews returns a list of view types that support TUI.
func SupportedTUIViews() []string {
	return []string{ViewHistory, ViewInspectBuild}
}

func newViewModel(viewType string, data any) (tea.Model, error) {
	switch viewType {
	case ViewHistory:
		return newHistoryModel(data)
	case ViewInspectBuild:
		return newInspectModel(data)
	default:
		return nil, fmt.Errorf("TUI mode is not supported for %s", viewType)
	}
}

func formatSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return bytesize.ByteSize(n).String()
}

func formatDuration(ms int64) string {
	return (time.Duration(ms) * time.Millisecond).Round(100 * time.Millisecond).String()
}
