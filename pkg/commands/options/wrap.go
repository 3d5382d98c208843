package options

import (
	"strings"

	"github.com/muesli/reflow/wordwrap"
)

// Wrap80 rewraps help text at the conventional 80 columns.
func Wrap80(text string) string {
	return Wrap(text, 80)
}

func Wrap(text string, width int) string {
	return wordwrap.String(strings.TrimSpace(text), width)
}
