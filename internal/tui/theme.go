package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/hpungsan/pomo/internal/timer"
)

// Theme defines the color palette for the TUI. Each phase has its own accent.
type Theme struct {
	Study      lipgloss.Color
	ShortBreak lipgloss.Color
	LongBreak  lipgloss.Color

	TextPrimary lipgloss.Color
	TextDim     lipgloss.Color
	Border      lipgloss.Color

	Warning lipgloss.Color
	Error   lipgloss.Color
}

// DefaultTheme returns the default dark theme.
var DefaultTheme = Theme{
	Study:      lipgloss.Color("#f7768e"),
	ShortBreak: lipgloss.Color("#73daca"),
	LongBreak:  lipgloss.Color("#7aa2f7"),

	TextPrimary: lipgloss.Color("#c0caf5"),
	TextDim:     lipgloss.Color("#565f89"),
	Border:      lipgloss.Color("#414868"),

	Warning: lipgloss.Color("#e0af68"),
	Error:   lipgloss.Color("#f7768e"),
}

// Accent returns the phase color.
func (t Theme) Accent(phase timer.Phase) lipgloss.Color {
	switch phase {
	case timer.PhaseShortBreak:
		return t.ShortBreak
	case timer.PhaseLongBreak:
		return t.LongBreak
	default:
		return t.Study
	}
}

// Styles provides pre-configured lipgloss styles using the theme.
type Styles struct {
	Title   lipgloss.Style
	Tab     lipgloss.Style
	Dim     lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Help    lipgloss.Style
}

// NewStyles builds the static styles for t.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(t.TextPrimary),
		Tab:     lipgloss.NewStyle().Padding(0, 1).Foreground(t.TextDim),
		Dim:     lipgloss.NewStyle().Foreground(t.TextDim),
		Warning: lipgloss.NewStyle().Foreground(t.Warning),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(t.Error),
		Help:    lipgloss.NewStyle().Foreground(t.TextDim).MarginTop(1),
	}
}

// activeTab highlights the current phase tab.
func (s Styles) activeTab(t Theme, phase timer.Phase) lipgloss.Style {
	return s.Tab.Bold(true).Foreground(lipgloss.Color("#1a1b26")).Background(t.Accent(phase))
}

// clockBox frames the countdown in the phase color.
func clockBox(t Theme, phase timer.Phase) lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Accent(phase)).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Accent(phase)).
		Padding(1, 6).
		Align(lipgloss.Center)
}
