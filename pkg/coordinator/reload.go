package coordinator

import (
	"context"

	"tableflip.dev/easel/pkg/cell"
	"tableflip.dev/easel/pkg/elements"
	"tableflip.dev/easel/pkg/layout"
)

// ReloadPhase tracks where a full reload currently is. Readable from any
// goroutine; it moves strictly forward within one reload.
type ReloadPhase int32

const (
	PhaseIdle ReloadPhase = iota
	PhaseLoading
	PhasePopulating
	PhasePipelined
	PhasePublished
)

func (p ReloadPhase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhasePopulating:
		return "populating"
	case PhasePipelined:
		return "pipelined"
	case PhasePublished:
		return "published"
	}
	return "unknown"
}

// ReloadOptions tunes ReloadData.
type ReloadOptions struct {
	// Async moves the source enumeration onto the pipeline goroutine, so
	// ReloadData returns as soon as the reload is ordered. The pipeline's
	// FIFO still serializes it against surrounding edits.
	Async bool
}

// Phase returns the current reload phase.
func (c *Coordinator) Phase() ReloadPhase {
	return ReloadPhase(c.phase.Load())
}

// ReloadData discards every section and rebuilds the model from the source:
// drain whatever is in flight, enumerate the source wholesale under its
// lock, then apply the replacement as one pipelined transaction. The
// completion callback is dispatched to the interactive queue after the new
// store is published. No per-section or per-item delegate notifications are
// sent; a reload is a new world, not an edit. Interactive thread only.
func (c *Coordinator) ReloadData(opts ReloadOptions, completion func()) {
	if c.depth > 0 {
		panic("easel: ReloadData inside an update bracket")
	}
	c.pipe.drain()
	c.phase.Store(int32(PhaseLoading))
	c.debugf("easel: reload: loading (async=%t)", opts.Async)

	if opts.Async {
		c.pipe.submit(func() {
			specs := c.fetchAllSections()
			c.applyReload(specs, completion)
		})
		return
	}

	specs := c.fetchAllSections()
	c.phase.Store(int32(PhasePipelined))
	c.pipe.submit(func() { c.applyReload(specs, completion) })
}

// fetchAllSections enumerates counts, content, and constraints for the whole
// source under one Lock/Unlock bracket.
func (c *Coordinator) fetchAllSections() [][]itemSpec {
	c.source.Lock()
	defer c.source.Unlock()
	c.phase.Store(int32(PhasePopulating))

	sections := c.source.NumberOfSections()
	out := make([][]itemSpec, 0, sections)
	for s := 0; s < sections; s++ {
		rows := c.source.NumberOfItems(s)
		specs := make([]itemSpec, 0, rows)
		for i := 0; i < rows; i++ {
			p := cell.Path{Section: s, Item: i}
			specs = append(specs, itemSpec{content: c.source.Content(p), constraint: c.source.Constraint(p)})
		}
		out = append(out, specs)
	}
	return out
}

// applyReload runs on the pipeline goroutine: lay out empty sections, build
// and measure every node in one pass, fill the fresh store, swap the editing
// store wholesale, publish, and hand the completion to the interactive queue.
func (c *Coordinator) applyReload(specs [][]itemSpec, completion func()) {
	c.phase.Store(int32(PhasePipelined))

	fresh := elements.New()
	var nodes []*cell.Node
	var constraints []cell.Constraint
	var paths []cell.Path
	for s, rowSpecs := range specs {
		fresh.AppendSection()
		for i, sp := range rowSpecs {
			nodes = append(nodes, cell.NewNode(sp.content))
			constraints = append(constraints, sp.constraint)
			paths = append(paths, cell.Path{Section: s, Item: i})
		}
	}

	ctx := layout.WithTransition(context.Background(), layout.NewTransitionID())
	c.pool.MeasureAll(ctx, nodes, constraints)

	fresh.InsertItems(nodes, paths)
	c.editing = fresh
	c.completed.Store(fresh.Copy())
	c.phase.Store(int32(PhasePublished))
	c.debugf("easel: reload: published %d sections, %d items", fresh.NumberOfSections(), fresh.TotalItems())

	if completion != nil {
		c.main.Dispatch(completion)
	}
}
