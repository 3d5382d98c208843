package commands

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tableflip.dev/easel/pkg/commands/options"
	"tableflip.dev/easel/pkg/source"
)

func addAppend(topLevel *cobra.Command) {
	so := &options.SectionOptions{}
	oo := &options.OutputOptions{}
	po := &options.PathOptions{}

	cmd := &cobra.Command{
		Use:   "append [body]",
		Short: "append an entry to a section",
		Example: `
easel append pick up milk
easel append --section someday learn to sail
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := source.OpenJournal(po.Config())
			if err != nil {
				return oo.HandleError(err)
			}
			e, p, err := j.Append(so.Section, strings.Join(args, " "))
			if err != nil {
				return oo.HandleError(err)
			}
			if oo.JSON {
				return oo.PrintJSON(e)
			}
			_, _ = fmt.Fprintf(color.Output, "%s %s %s\n",
				color.New(color.Faint).Sprintf("%s[%d]", e.Section, p.Item),
				color.CyanString("•"),
				e.Body)
			return nil
		},
	}

	options.AddSectionArgs(cmd, so)
	flagName := "section"
	_ = cmd.RegisterFlagCompletionFunc(flagName, func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return sectionCompletions(toComplete), cobra.ShellCompDirectiveNoFileComp
	})
	options.AddOutputArg(cmd, oo)
	options.AddPathArgs(cmd, po)

	topLevel.AddCommand(cmd)
}
