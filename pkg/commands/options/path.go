package options

import (
	"github.com/spf13/cobra"

	"tableflip.dev/easel/pkg/source"
)

// PathOptions
type PathOptions struct {
	Path string
}

func AddPathArgs(cmd *cobra.Command, o *PathOptions) {
	cmd.Flags().StringVar(&o.Path, "path", "",
		Wrap80("Journal base path. Defaults to config discovery."))
}

// Config turns the flag into a journal config; empty means discover.
func (o *PathOptions) Config() source.Config {
	if o.Path == "" {
		return nil
	}
	return source.ConfigAt(o.Path)
}
