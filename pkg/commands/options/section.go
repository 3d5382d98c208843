// Package options defines shared flag helpers for CLI commands.
package options

import (
	"github.com/spf13/cobra"
)

// SectionOptions captures section selection flags for commands.
type SectionOptions struct {
	Section string
	All     bool
}

// AddSectionArgs wires section-related flags on the provided command.
func AddSectionArgs(cmd *cobra.Command, o *SectionOptions) {
	cmd.Flags().StringVarP(&o.Section, "section", "s", "inbox",
		"Specify the section.")
}

// AddAllSectionsArg registers the flag that widens a command to every section.
func AddAllSectionsArg(cmd *cobra.Command, o *SectionOptions) {
	cmd.Flags().BoolVar(&o.All, "all", false,
		"Operate on all sections.")
}
