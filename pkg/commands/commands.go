package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/easel/pkg/commands/options"
)

func New() *cobra.Command {

	cmd := &cobra.Command{
		Use:   "easel",
		Short: options.Wrap80("Asynchronous measurement and layout for terminal feeds."),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addUI(topLevel)
	addDemo(topLevel)
	addAppend(topLevel)
	addSections(topLevel)
	addBench(topLevel)
	addVersion(topLevel)
	addCompletions(topLevel)
}
