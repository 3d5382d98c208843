package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/easel/pkg/source"
	"tableflip.dev/easel/pkg/tui/feedview"
)

func addDemo(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "open the feed over generated in-memory sections",
		Example: `
easel demo
`,
		ValidArgs: []string{},
		RunE: func(cmd *cobra.Command, args []string) error {
			return feedview.RunStatic(demoSource())
		},
	}

	topLevel.AddCommand(cmd)
}

func demoSource() *source.Static {
	return source.NewStatic(
		source.TextItems(
			"water the plants",
			"renew the domain before it lapses again",
			"write up the migration notes for the storage layer and send them around before the sync tomorrow morning",
		),
		source.TextItems(
			"the long rows above wrap to the terminal width; resize the window and the feed re-measures in the background",
			"press a to add a row, S to add a section, x to delete the selected row",
		),
		source.TextItems(
			"short",
			"rows keep their order while measurement happens off the interactive thread, so a slow row never blocks a keystroke",
		),
	)
}
