package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the colour palette for the chat view.
type Theme struct {
	Primary    lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Error      lipgloss.Color
	Border     lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    lipgloss.Color("#7C3AED"),
		Foreground: lipgloss.Color("#CDD6F4"),
		Muted:      lipgloss.Color("#6C7086"),
		Error:      lipgloss.Color("#F38BA8"),
		Border:     lipgloss.Color("#45475A"),
	}
}

// Styles contains pre-configured lipgloss styles for the chat view.
type Styles struct {
	Title    lipgloss.Style
	Question lipgloss.Style
	Answer   lipgloss.Style
	Source   lipgloss.Style
	Error    lipgloss.Style
	Help     lipgloss.Style
	Input    lipgloss.Style
}

// DefaultStyles builds the styles for a theme.
func DefaultStyles(t *Theme) *Styles {
	if t == nil {
		t = DefaultTheme()
	}
	return &Styles{
		Title:    lipgloss.NewStyle().Foreground(t.Primary).Bold(true),
		Question: lipgloss.NewStyle().Foreground(t.Primary),
		Answer:   lipgloss.NewStyle().Foreground(t.Foreground),
		Source:   lipgloss.NewStyle().Foreground(t.Muted),
		Error:    lipgloss.NewStyle().Foreground(t.Error),
		Help:     lipgloss.NewStyle().Foreground(t.Muted),
		Input: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),
	}
}
