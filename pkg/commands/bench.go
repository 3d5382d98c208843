package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"tableflip.dev/easel/pkg/cell"
	"tableflip.dev/easel/pkg/commands/options"
	"tableflip.dev/easel/pkg/coordinator"
	"tableflip.dev/easel/pkg/layout"
	"tableflip.dev/easel/pkg/source"
)

func addBench(topLevel *cobra.Command) {
	bo := &options.BenchOptions{}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "measure a synthetic feed across worker pool sizes",
		Example: `
easel bench
easel bench --sections 24 --rows 200 --workers 1,2,4,8,16
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(bo)
		},
	}

	options.AddBenchArgs(cmd, bo)

	topLevel.AddCommand(cmd)
}

func runBench(bo *options.BenchOptions) error {
	bold := color.New(color.Bold).SprintFunc()
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold("Workers"), bold("Rows"), bold("Height"), bold("Elapsed"), bold("Rows/sec"))

	for _, workers := range bo.Workers {
		if workers < 1 {
			continue
		}
		pool := layout.NewPool(workers)
		if bo.Chunk > 0 {
			pool.ChunkSize = bo.Chunk
		}
		c := coordinator.New(benchSource(bo.Sections, bo.Rows, bo.Width),
			coordinator.WithPool(pool))

		start := time.Now()
		c.ReloadData(coordinator.ReloadOptions{}, nil)
		c.Drain()
		elapsed := time.Since(start)

		snap := c.CompletedNodes()
		rows := snap.TotalItems()
		height := 0
		for s := 0; s < snap.NumberOfSections(); s++ {
			if bo.Columns > 1 {
				height += layout.Grid(snap.Items(s), bo.Width, bo.Columns)
			} else {
				height += layout.Stack(snap.Items(s), bo.Width)
			}
		}
		c.Close()

		if elapsed <= 0 {
			elapsed = time.Nanosecond
		}
		rate := float64(rows) / elapsed.Seconds()
		tbl.AddRow(workers, rows, height, elapsed.Round(10*time.Microsecond), fmt.Sprintf("%.0f", rate))
	}

	_, _ = fmt.Fprintln(color.Output, tbl)
	return nil
}

var benchWords = strings.Fields(
	"the quick brown fox jumps over a lazy dog while measurement " +
		"runs on worker goroutines and every row wraps to the width " +
		"it was constrained against before landing in the feed")

// benchSource builds a deterministic feed; row lengths vary so the pool
// sees uneven work.
func benchSource(sections, rows, width int) *source.Static {
	secs := make([][]source.Item, sections)
	for s := range secs {
		items := make([]source.Item, rows)
		for r := range items {
			items[r] = source.Item{Content: layout.Text{Prefix: "• ", Body: benchBody(s, r)}}
		}
		secs[s] = items
	}
	st := source.NewStatic(secs...)
	st.SetDefaultConstraint(cell.Width(width))
	return st
}

func benchBody(section, row int) string {
	n := 6 + (section*31+row*17)%40
	words := make([]string, n)
	for i := range words {
		words[i] = benchWords[(section*13+row*7+i)%len(benchWords)]
	}
	return strings.Join(words, " ")
}
