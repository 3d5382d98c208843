package options

import (
	"github.com/spf13/cobra"
)

// DebugOptions
type DebugOptions struct {
	LogFile string
}

func AddDebugArgs(cmd *cobra.Command, o *DebugOptions) {
	cmd.Flags().StringVar(&o.LogFile, "debug-log", "",
		Wrap80("Write feed diagnostics to this file."))
}
