package tui

import (
	"errors"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrCancelled is returned when the user aborts a prompt (Ctrl+C, Esc, EOF).
var ErrCancelled = errors.New("prompt cancelled")

// Question describes one prompt.
type Question struct {
	// Title is the question shown to the user.
	Title string
	// Default is used when the answer is empty. Empty means an answer is required.
	Default string
	// Placeholder is shown greyed out in the terminal prompt.
	Placeholder string
	// Validate rejects an answer; the user is asked again. Optional.
	Validate func(string) error
}

// Clean normalizes a typed or pasted path: surrounding whitespace and
// surrounding quote characters are removed. Quotes inside the value are kept.
func Clean(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

// resolve applies the default and validation to a raw answer.
func (q Question) resolve(raw string) (string, error) {
	v := Clean(raw)
	if v == "" {
		v = q.Default
	}
	if q.Validate != nil {
		if err := q.Validate(v); err != nil {
			return "", err
		}
	}
	return v, nil
}

// keyMap defines key bindings.
type keyMap struct {
	Submit key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "submit"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "esc"),
		key.WithHelp("esc", "cancel"),
	),
}

// PromptModel is a Bubble Tea model asking a single question.
type PromptModel struct {
	question  Question
	input     textinput.Model
	err       error
	value     string
	done      bool
	cancelled bool
}

// NewPromptModel creates a focused prompt for q.
func NewPromptModel(q Question) PromptModel {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = q.Placeholder
	ti.Width = 72
	ti.Focus()
	return PromptModel{question: q, input: ti}
}

// Init implements tea.Model.
func (m PromptModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m PromptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Quit):
			m.cancelled = true
			return m, tea.Quit

		case key.Matches(msg, keys.Submit):
			v, err := m.question.resolve(m.input.Value())
			if err != nil {
				m.err = err
				m.input.Reset()
				return m, nil
			}
			m.value = v
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m PromptModel) View() string {
	if m.cancelled {
		return ""
	}
	if m.done {
		return TitleStyle.Render(m.question.Title) + " " + AnswerStyle.Render(m.value) + "\n"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(m.question.Title))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(ErrorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(HelpStyle.Render("enter to submit, esc to cancel"))
	b.WriteString("\n")
	return b.String()
}

// Value returns the accepted answer.
func (m PromptModel) Value() string { return m.value }

// Cancelled reports whether the user aborted the prompt.
func (m PromptModel) Cancelled() bool { return m.cancelled }

// runPrompt runs a PromptModel on the given streams.
func runPrompt(q Question, in io.Reader, out io.Writer) (string, error) {
	p := tea.NewProgram(NewPromptModel(q), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return "", err
	}
	m, ok := final.(PromptModel)
	if !ok || m.cancelled || !m.done {
		return "", ErrCancelled
	}
	return m.value, nil
}
