package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown text nodes using glamour.
// Style "auto" (or empty) detects the terminal background; any other value names a
// glamour standard style such as "dark", "light" or "notty".
func NewRenderer(style string, width int) (func(string) (string, error), error) {
	opts := []glamour.TermRendererOption{glamour.WithEmoji()}
	if style == "" || style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, err
	}
	return func(markdown string) (string, error) {
		s, err := r.Render(markdown)
		if err != nil {
			return "", err
		}
		// glamour pads documents with blank lines; the text handler adds its own spacing.
		return strings.Trim(s, "\n"), nil
	}, nil
}
