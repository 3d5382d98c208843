package layout

import "tableflip.dev/easel/pkg/cell"

// Stack assigns vertical list frames to a section's nodes: every row spans
// the full width and rows abut top to bottom. Returns the stacked height.
// Frames are advisory geometry owned by whoever renders, so arranging is
// safe on already-published nodes.
func Stack(nodes []*cell.Node, width int) int {
	y := 0
	for _, n := range nodes {
		h := n.Size().Height
		n.SetFrame(cell.Rect{X: 0, Y: y, Width: width, Height: h})
		y += h
	}
	return y
}

// Grid flows nodes left to right into equal-width columns, starting a new
// row after every `columns` nodes. Each row is as tall as its tallest node.
// Returns the total height.
func Grid(nodes []*cell.Node, width, columns int) int {
	if columns < 1 {
		columns = 1
	}
	colWidth := width / columns
	if colWidth < 1 {
		colWidth = 1
	}

	y := 0
	for row := 0; row*columns < len(nodes); row++ {
		lo := row * columns
		hi := min(lo+columns, len(nodes))
		rowHeight := 0
		for col, n := range nodes[lo:hi] {
			h := n.Size().Height
			n.SetFrame(cell.Rect{X: col * colWidth, Y: y, Width: colWidth, Height: h})
			if h > rowHeight {
				rowHeight = h
			}
		}
		y += rowHeight
	}
	return y
}
