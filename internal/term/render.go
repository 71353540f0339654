// Package term renders console output for the chat session: lipgloss
// styles for prompts and banners, glamour for markdown answers, and a
// spinner for long calls.
package term

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// RenderMarkdown renders markdown text for the terminal. On any renderer
// failure the raw text is returned unchanged.
func RenderMarkdown(content string, width int) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n")
}
