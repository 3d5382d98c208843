package feedview

import (
	"image/color"

	"github.com/charmbracelet/lipgloss/v2"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Styles centralizes the Lip Gloss styles for the feed view.
type Styles struct {
	Header      lipgloss.Style
	Subtle      lipgloss.Style
	Row         lipgloss.Style
	SelectedRow lipgloss.Style
	Placeholder lipgloss.Style
	Status      lipgloss.Style
	Prompt      lipgloss.Style
}

// DefaultStyles returns the built-in look.
func DefaultStyles() Styles {
	return Styles{
		Header:      lipgloss.NewStyle().Bold(true),
		Subtle:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Row:         lipgloss.NewStyle(),
		SelectedRow: lipgloss.NewStyle().Reverse(true),
		Placeholder: lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true),
		Status:      lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		Prompt:      lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true),
	}
}

// accentRamp blends section header accents between two anchors so a long
// feed stays visually navigable.
func accentRamp(n int) []color.Color {
	if n <= 0 {
		return nil
	}
	from, _ := colorful.Hex("#F25D94")
	to, _ := colorful.Hex("#6B50FF")
	ramp := make([]color.Color, n)
	for i := range ramp {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		ramp[i] = from.BlendLuv(to, t).Clamped()
	}
	return ramp
}
