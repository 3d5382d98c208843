package commands

import (
	"os"

	"github.com/spf13/cobra"

	"tableflip.dev/easel/pkg/commands/options"
	"tableflip.dev/easel/pkg/source"
	"tableflip.dev/easel/pkg/tui/feedview"
)

func addUI(topLevel *cobra.Command) {
	po := &options.PathOptions{}
	do := &options.DebugOptions{}

	cmd := &cobra.Command{
		Use:   "ui",
		Short: "open the journal feed",
		Example: `
easel ui
easel ui --path ./scratch.db
`,
		ValidArgs: []string{},
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := source.OpenJournal(po.Config())
			if err != nil {
				return err
			}
			m := feedview.NewJournal(j)
			if do.LogFile != "" {
				f, err := os.Create(do.LogFile)
				if err != nil {
					return err
				}
				defer f.Close()
				m.SetDebugWriter(f)
			}
			return feedview.RunModel(m)
		},
	}

	options.AddPathArgs(cmd, po)
	options.AddDebugArgs(cmd, do)

	topLevel.AddCommand(cmd)
}
