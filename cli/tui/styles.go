// Package tui holds the interactive prompts and the read-only views of the
// ffpkg CLI.
//
// Prompts appear only when ffpkg runs without arguments. On a terminal they
// are Bubble Tea text inputs; otherwise plain line prompts. Both modes clean
// answers the same way.
package tui

import "github.com/charmbracelet/lipgloss"

// Palette. Each color has a light and a dark terminal variant.
var (
	accent  = lipgloss.AdaptiveColor{Light: "#0F766E", Dark: "#2DD4BF"} // teal
	good    = lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#4ADE80"}
	caution = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}
	bad     = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
	subtle  = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	info    = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#60A5FA"}
)

// Prompt styles.
var (
	TitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(accent)
	AnswerStyle = lipgloss.NewStyle().Foreground(good)
	ErrorStyle  = lipgloss.NewStyle().Foreground(bad)
	HelpStyle   = lipgloss.NewStyle().Foreground(subtle).MarginTop(1)
)

// View styles. LabelStyle is fixed width so inspect rows line up.
var (
	LabelStyle     = lipgloss.NewStyle().Foreground(subtle).Width(18)
	ValueStyle     = lipgloss.NewStyle()
	WarnValueStyle = lipgloss.NewStyle().Bold(true).Foreground(caution)
	BoxStyle       = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 2)
	StatBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2).MarginRight(1)
	StatValueStyle = lipgloss.NewStyle().Bold(true)
	StatLabelStyle = lipgloss.NewStyle().Foreground(subtle)
)
