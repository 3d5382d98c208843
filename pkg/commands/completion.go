package commands

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/easel/pkg/source"
)

func addCompletions(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "completion",
		Short: "Generates bash completion scripts",
		Long: `To load completion run

. <(easel completion)

To configure your bash shell to load completions for each session add to your bashrc

# ~/.bashrc or ~/.profile
. <(easel completion)
`,
		Run: func(cmd *cobra.Command, args []string) {
			_ = topLevel.GenBashCompletion(os.Stdout)
		},
	}

	topLevel.AddCommand(cmd)
}

func sectionCompletions(toComplete string) []string {
	j, err := source.OpenJournal(nil)
	if err != nil {
		return nil
	}
	var names []string
	for _, name := range j.SectionNames() {
		if strings.HasPrefix(name, toComplete) {
			names = append(names, name)
		}
	}
	return names
}
