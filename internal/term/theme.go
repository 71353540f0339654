package term

import "github.com/charmbracelet/lipgloss"

// Theme holds the pre-built styles used by the session's console output.
type Theme struct {
	Banner   lipgloss.Style
	Prompt   lipgloss.Style
	BotLabel lipgloss.Style
	Info     lipgloss.Style
	Muted    lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
}

// DefaultTheme returns the standard session styling.
func DefaultTheme() Theme {
	return Theme{
		Banner:   lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED")).Bold(true),
		Prompt:   lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true),
		BotLabel: lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4")).Bold(true),
		Info:     lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4")),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")),
		Success:  lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")),
	}
}

// PlainTheme returns zero styles for non-TTY output.
func PlainTheme() Theme {
	plain := lipgloss.NewStyle()
	return Theme{
		Banner:   plain,
		Prompt:   plain,
		BotLabel: plain,
		Info:     plain,
		Muted:    plain,
		Error:    plain,
		Success:  plain,
	}
}
