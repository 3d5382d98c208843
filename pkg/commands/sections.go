package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"tableflip.dev/easel/pkg/commands/options"
	"tableflip.dev/easel/pkg/source"
)

func addSections(topLevel *cobra.Command) {
	oo := &options.OutputOptions{}
	po := &options.PathOptions{}

	cmd := &cobra.Command{
		Use:     "sections",
		Aliases: []string{"ls"},
		Short:   "list the journal's sections",
		Example: `
easel sections
easel sections --json
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := source.OpenJournal(po.Config())
			if err != nil {
				return oo.HandleError(err)
			}
			names, entries := j.Snapshot()

			if oo.JSON {
				out := make(map[string]int, len(names))
				for i, name := range names {
					out[name] = len(entries[i])
				}
				return oo.PrintJSON(out)
			}

			bold := color.New(color.Bold).SprintFunc()
			tbl := uitable.New()
			tbl.Separator = "  "
			tbl.AddRow(bold("Section"), bold("Entries"), bold("Latest"))
			for i, name := range names {
				latest := ""
				if n := len(entries[i]); n > 0 {
					latest = entries[i][n-1].Created.Format("2006-01-02")
				}
				tbl.AddRow(name, len(entries[i]), latest)
			}
			_, _ = fmt.Fprintln(color.Output, tbl)
			return nil
		},
	}

	options.AddOutputArg(cmd, oo)
	options.AddPathArgs(cmd, po)

	topLevel.AddCommand(cmd)
}
