package options

import (
	"github.com/spf13/cobra"
)

// BenchOptions
type BenchOptions struct {
	Sections int
	Rows     int
	Width    int
	Columns  int
	Chunk    int
	Workers  []int
}

func AddBenchArgs(cmd *cobra.Command, o *BenchOptions) {
	cmd.Flags().IntVar(&o.Sections, "sections", 12,
		"Number of synthetic sections.")
	cmd.Flags().IntVar(&o.Rows, "rows", 64,
		"Rows per section.")
	cmd.Flags().IntVar(&o.Width, "width", 80,
		"Wrap width the rows are measured against.")
	cmd.Flags().IntVar(&o.Columns, "columns", 1,
		"Arrange each section into this many columns.")
	cmd.Flags().IntVar(&o.Chunk, "chunk", 0,
		"Rows per worker batch. Zero keeps the pool default.")
	cmd.Flags().IntSliceVar(&o.Workers, "workers", []int{1, 2, 4, 8},
		"Pool sizes to measure with.")
}
