package layout

import (
	"context"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/muesli/reflow/wordwrap"

	"tableflip.dev/easel/pkg/cell"
)

// Text measures and renders styled terminal text. The body is word-wrapped
// at the available width and counted in display cells, so ANSI escape
// sequences never contribute to the measured size. An optional prefix
// (bullet, glyph, timestamp) occupies a gutter on the first line and is
// padded out on continuation lines.
type Text struct {
	Body   string
	Prefix string
}

// Measure implements cell.Content: the size of Render at the constraint's
// maximum width.
func (t Text) Measure(_ context.Context, c cell.Constraint) (cell.Size, error) {
	c = c.Normalized()
	limit := c.Max.Width
	if limit >= cell.Unbounded {
		limit = 0
	}
	widest := 0
	lines := t.lines(limit)
	for _, line := range lines {
		if w := lipgloss.Width(line); w > widest {
			widest = w
		}
	}
	return c.Clamp(cell.Size{Width: widest, Height: len(lines)}), nil
}

// Render wraps the text to the given width. A width of zero or less leaves
// lines unwrapped.
func (t Text) Render(width int) string {
	return strings.Join(t.lines(width), "\n")
}

func (t Text) lines(limit int) []string {
	prefixWidth := lipgloss.Width(t.Prefix)
	available := limit - prefixWidth
	if limit > 0 && available < 1 {
		available = 1
	}

	wrapLine := func(s string) []string {
		if limit <= 0 || strings.TrimSpace(s) == "" {
			return []string{s}
		}
		wrapped := wordwrap.String(s, available)
		if wrapped == "" {
			return []string{""}
		}
		return strings.Split(wrapped, "\n")
	}

	padding := strings.Repeat(" ", prefixWidth)
	lines := make([]string, 0, 4)
	first := true
	for _, raw := range strings.Split(t.Body, "\n") {
		for i, seg := range wrapLine(raw) {
			if first && i == 0 {
				lines = append(lines, t.Prefix+seg)
				continue
			}
			lines = append(lines, padding+seg)
		}
		first = false
	}
	if len(lines) == 0 {
		lines = append(lines, t.Prefix)
	}
	return lines
}
