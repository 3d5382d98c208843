package coordinator

import (
	"context"
	"fmt"
	"sort"

	"tableflip.dev/easel/pkg/cell"
	"tableflip.dev/easel/pkg/elements"
	"tableflip.dev/easel/pkg/layout"
)

// itemSpec is one item's fetch result: what to measure and under which
// bounds. Specs are gathered under the source's lock and carried into the
// pipeline so application never touches the source again.
type itemSpec struct {
	content    cell.Content
	constraint cell.Constraint
}

type itemMove struct {
	from, to cell.Path
}

type sectionMove struct {
	from, to int
}

// editBatch accumulates one bracket's commands in canonical category form.
// Deletion paths and section indices are pre-update coordinates; insertion
// paths and indices are post-update coordinates.
type editBatch struct {
	reloadSections cell.IndexSet
	deleteSections cell.IndexSet
	insertSections cell.IndexSet

	reloadItems []cell.Path
	deleteItems []cell.Path
	insertItems []cell.Path

	itemMoves    []itemMove
	sectionMoves []sectionMove
}

func (b *editBatch) empty() bool {
	return len(b.reloadSections) == 0 && len(b.deleteSections) == 0 && len(b.insertSections) == 0 &&
		len(b.reloadItems) == 0 && len(b.deleteItems) == 0 && len(b.insertItems) == 0 &&
		len(b.itemMoves) == 0 && len(b.sectionMoves) == 0
}

// canonicalize dedupes, filters, and orders the batch so application is a
// straight walk through the six categories: reload-sections, reload-items,
// delete-items, delete-sections, insert-sections, insert-items. Section-level
// operations supersede item-level operations inside the same section; a
// reload of a section or path that is also deleted is dropped outright.
func (b *editBatch) canonicalize() {
	b.reloadSections = b.reloadSections.Without(b.deleteSections)

	b.reloadItems = sortUniquePaths(b.reloadItems)
	b.deleteItems = sortUniquePaths(b.deleteItems)
	b.insertItems = sortUniquePaths(b.insertItems)

	b.reloadItems = withoutPaths(b.reloadItems, b.deleteItems)

	gone := b.deleteSections.Union(b.reloadSections)
	b.deleteItems = dropPathsInSections(b.deleteItems, gone)
	b.reloadItems = dropPathsInSections(b.reloadItems, gone)
	b.insertItems = dropPathsInSections(b.insertItems, b.insertSections.Union(b.reloadSections))

	// Deletes apply and notify largest-path-first.
	cell.SortPathsDescending(b.deleteItems)

	b.checkMoveConflicts()
}

// checkMoveConflicts rejects batches where a move endpoint is also touched
// by another edit. Composing those is ambiguous, so it is a contract
// violation rather than a silent precedence rule.
func (b *editBatch) checkMoveConflicts() {
	sectionOps := b.reloadSections.Union(b.deleteSections).Union(b.insertSections)
	movedSections := cell.IndexSet(nil)
	for _, mv := range b.sectionMoves {
		movedSections = movedSections.Union(cell.NewIndexSet(mv.from, mv.to))
	}

	for i, mv := range b.itemMoves {
		if sectionOps.Contains(mv.from.Section) || sectionOps.Contains(mv.to.Section) ||
			movedSections.Contains(mv.from.Section) || movedSections.Contains(mv.to.Section) {
			panic(fmt.Sprintf("easel: move %v -> %v conflicts with a section edit in the same batch", mv.from, mv.to))
		}
		if containsPath(b.deleteItems, mv.from) || containsPath(b.reloadItems, mv.from) ||
			containsPath(b.insertItems, mv.to) || containsPath(b.reloadItems, mv.to) {
			panic(fmt.Sprintf("easel: move %v -> %v conflicts with an item edit in the same batch", mv.from, mv.to))
		}
		for _, prev := range b.itemMoves[:i] {
			if prev.from == mv.from || prev.to == mv.to {
				panic(fmt.Sprintf("easel: duplicate move endpoint %v in the same batch", mv))
			}
		}
	}

	for i, mv := range b.sectionMoves {
		if sectionOps.Contains(mv.from) || sectionOps.Contains(mv.to) {
			panic(fmt.Sprintf("easel: section move %d -> %d conflicts with a section edit in the same batch", mv.from, mv.to))
		}
		for _, p := range b.deleteItems {
			if p.Section == mv.from {
				panic(fmt.Sprintf("easel: section move %d -> %d conflicts with an item edit in the same batch", mv.from, mv.to))
			}
		}
		for _, p := range b.insertItems {
			if p.Section == mv.to {
				panic(fmt.Sprintf("easel: section move %d -> %d conflicts with an item edit in the same batch", mv.from, mv.to))
			}
		}
		for _, p := range b.reloadItems {
			if p.Section == mv.from || p.Section == mv.to {
				panic(fmt.Sprintf("easel: section move %d -> %d conflicts with an item edit in the same batch", mv.from, mv.to))
			}
		}
		for _, prev := range b.sectionMoves[:i] {
			if prev.from == mv.from || prev.to == mv.to {
				panic(fmt.Sprintf("easel: duplicate section move endpoint in %d -> %d", mv.from, mv.to))
			}
		}
	}
}

// postSectionIndex maps a pre-update section index to where the source holds
// that section once the batch's own section deletes, inserts, and moves are
// accounted for. Edits mirror changes the source has already made, so by
// fetch time the source answers only post-update coordinates.
func (b *editBatch) postSectionIndex(s int) int {
	out := s
	for _, d := range b.deleteSections {
		if d < s {
			out--
		}
	}
	for _, mv := range b.sectionMoves {
		if mv.from < s {
			out--
		}
	}
	ins := b.insertSections.Ascending()
	for _, mv := range b.sectionMoves {
		ins = append(ins, mv.to)
	}
	sort.Ints(ins)
	for _, t := range ins {
		if t <= out {
			out++
		}
	}
	return out
}

// postItemPath maps a pre-update item path the same way: the section
// component shifts with the batch's section edits, the item component with
// same-section item deletes, inserts, and move endpoints.
func (b *editBatch) postItemPath(p cell.Path) cell.Path {
	s := b.postSectionIndex(p.Section)
	i := p.Item
	for _, q := range b.deleteItems {
		if q.Section == p.Section && q.Item < p.Item {
			i--
		}
	}
	for _, mv := range b.itemMoves {
		if mv.from.Section == p.Section && mv.from.Item < p.Item {
			i--
		}
	}
	var ins []int
	for _, q := range b.insertItems {
		if q.Section == s {
			ins = append(ins, q.Item)
		}
	}
	for _, mv := range b.itemMoves {
		if mv.to.Section == s {
			ins = append(ins, mv.to.Item)
		}
	}
	sort.Ints(ins)
	for _, t := range ins {
		if t <= i {
			i++
		}
	}
	return cell.Path{Section: s, Item: i}
}

func sortUniquePaths(paths []cell.Path) []cell.Path {
	if len(paths) < 2 {
		return paths
	}
	cell.SortPaths(paths)
	out := paths[:1]
	for _, p := range paths[1:] {
		if p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	return out
}

func dropPathsInSections(paths []cell.Path, sections cell.IndexSet) []cell.Path {
	if len(paths) == 0 || len(sections) == 0 {
		return paths
	}
	out := paths[:0]
	for _, p := range paths {
		if !sections.Contains(p.Section) {
			out = append(out, p)
		}
	}
	return out
}

func withoutPaths(paths, drop []cell.Path) []cell.Path {
	if len(paths) == 0 || len(drop) == 0 {
		return paths
	}
	out := paths[:0]
	for _, p := range paths {
		if !containsPath(drop, p) {
			out = append(out, p)
		}
	}
	return out
}

func containsPath(paths []cell.Path, p cell.Path) bool {
	for _, q := range paths {
		if q == p {
			return true
		}
	}
	return false
}

// batchData carries everything the batch needs from the data source, fetched
// in one Lock/Unlock bracket. Every read uses post-update coordinates, which
// the source already reflects because edits mirror changes the source has
// made: inserts are recorded that way, while reload indices are recorded
// pre-update and run through the batch's own index arithmetic before the
// read. Reload results stay keyed by their recorded indices so application
// lines up with the batch.
type batchData struct {
	reloadSections map[int][]itemSpec
	insertSections map[int][]itemSpec
	reloadItems    []itemSpec
	insertItems    []itemSpec
}

func (c *Coordinator) fetchBatchData(b *editBatch) *batchData {
	d := &batchData{}
	src := c.source
	src.Lock()
	defer src.Unlock()
	d.reloadSections = fetchSectionSpecs(src, b.reloadSections, b.postSectionIndex)
	d.insertSections = fetchSectionSpecs(src, b.insertSections, nil)
	if len(b.reloadItems) > 0 {
		at := make([]cell.Path, 0, len(b.reloadItems))
		for _, p := range b.reloadItems {
			at = append(at, b.postItemPath(p))
		}
		d.reloadItems = fetchItemSpecs(src, at)
	}
	d.insertItems = fetchItemSpecs(src, b.insertItems)
	return d
}

// fetchSectionSpecs enumerates full rows for every index in set, reading the
// source at the mapped index when at is non-nil. Results stay keyed by the
// recorded index.
func fetchSectionSpecs(src DataSource, set cell.IndexSet, at func(int) int) map[int][]itemSpec {
	if len(set) == 0 {
		return nil
	}
	out := make(map[int][]itemSpec, len(set))
	for _, s := range set.Ascending() {
		read := s
		if at != nil {
			read = at(s)
		}
		rows := src.NumberOfItems(read)
		specs := make([]itemSpec, 0, rows)
		for i := 0; i < rows; i++ {
			p := cell.Path{Section: read, Item: i}
			specs = append(specs, itemSpec{content: src.Content(p), constraint: src.Constraint(p)})
		}
		out[s] = specs
	}
	return out
}

func fetchItemSpecs(src DataSource, paths []cell.Path) []itemSpec {
	if len(paths) == 0 {
		return nil
	}
	specs := make([]itemSpec, 0, len(paths))
	for _, p := range paths {
		specs = append(specs, itemSpec{content: src.Content(p), constraint: src.Constraint(p)})
	}
	return specs
}

type eventKind int

const (
	eventDeleteSections eventKind = iota
	eventInsertSections
	eventDeleteNodes
	eventInsertNodes
)

// changeEvent is one delegate receipt, recorded during application and
// replayed on the interactive thread in the same order.
type changeEvent struct {
	kind  eventKind
	set   cell.IndexSet
	nodes []*cell.Node
	paths []cell.Path
}

// applyBatch runs on the pipeline goroutine: it materializes fresh nodes,
// measures them in one pool pass, mutates the editing store through the six
// canonical categories, and returns the receipts to replay.
func (c *Coordinator) applyBatch(ctx context.Context, b *editBatch, d *batchData) []changeEvent {
	var fresh []*cell.Node
	var constraints []cell.Constraint
	newNode := func(sp itemSpec) *cell.Node {
		n := cell.NewNode(sp.content)
		fresh = append(fresh, n)
		constraints = append(constraints, sp.constraint)
		return n
	}
	buildSlice := func(specs []itemSpec) []*cell.Node {
		if len(specs) == 0 {
			return nil
		}
		nodes := make([]*cell.Node, 0, len(specs))
		for _, sp := range specs {
			nodes = append(nodes, newNode(sp))
		}
		return nodes
	}
	buildSections := func(set cell.IndexSet, rows map[int][]itemSpec) [][]*cell.Node {
		if len(set) == 0 {
			return nil
		}
		out := make([][]*cell.Node, 0, len(set))
		for _, s := range set.Ascending() {
			out = append(out, buildSlice(rows[s]))
		}
		return out
	}

	reloadSectionNodes := buildSections(b.reloadSections, d.reloadSections)
	insertSectionNodes := buildSections(b.insertSections, d.insertSections)
	reloadItemNodes := buildSlice(d.reloadItems)
	insertItemNodes := buildSlice(d.insertItems)

	// Move sources resolve against the pre-batch store; the handles carry
	// their measurements with them.
	movedItemNodes := make([]*cell.Node, len(b.itemMoves))
	for i, mv := range b.itemMoves {
		movedItemNodes[i] = c.editing.NodeAt(mv.from)
	}
	movedSectionSlices := make([][]*cell.Node, len(b.sectionMoves))
	for i, mv := range b.sectionMoves {
		movedSectionSlices[i] = c.editing.Items(mv.from)
	}

	c.pool.MeasureAll(ctx, fresh, constraints)

	events := make([]changeEvent, 0, 8)

	// Reload sections: replace wholesale at the same indices, surfaced to
	// observers as a delete/insert pair.
	if len(b.reloadSections) > 0 {
		c.editing.DeleteSections(b.reloadSections)
		c.editing.InsertSections(reloadSectionNodes, b.reloadSections)
		events = append(events,
			changeEvent{kind: eventDeleteSections, set: b.reloadSections},
			changeEvent{kind: eventInsertSections, set: b.reloadSections})
	}

	// Reload items: replace at the same paths.
	if len(b.reloadItems) > 0 {
		old := c.editing.NodesAt(b.reloadItems)
		c.editing.DeleteItems(b.reloadItems)
		c.editing.InsertItems(reloadItemNodes, b.reloadItems)
		events = append(events,
			changeEvent{kind: eventDeleteNodes, nodes: old, paths: b.reloadItems},
			changeEvent{kind: eventInsertNodes, nodes: reloadItemNodes, paths: b.reloadItems})
	}

	// Delete items, explicit plus move sources, largest path first.
	delPaths := b.deleteItems
	if len(b.itemMoves) > 0 {
		delPaths = append(append([]cell.Path{}, b.deleteItems...), moveFroms(b.itemMoves)...)
		cell.SortPathsDescending(delPaths)
	}
	if len(delPaths) > 0 {
		removed := c.editing.DeleteItems(delPaths)
		events = append(events, changeEvent{kind: eventDeleteNodes, nodes: removed, paths: delPaths})
	}

	// Delete sections, explicit plus section-move sources.
	delSections := b.deleteSections
	for _, mv := range b.sectionMoves {
		delSections = delSections.Union(cell.NewIndexSet(mv.from))
	}
	if len(delSections) > 0 {
		c.editing.DeleteSections(delSections)
		events = append(events, changeEvent{kind: eventDeleteSections, set: delSections})
	}

	// Insert sections, explicit plus section-move targets, ascending.
	type sectionEntry struct {
		index int
		nodes []*cell.Node
	}
	secEntries := make([]sectionEntry, 0, len(b.insertSections)+len(b.sectionMoves))
	for i, s := range b.insertSections.Ascending() {
		secEntries = append(secEntries, sectionEntry{index: s, nodes: insertSectionNodes[i]})
	}
	for i, mv := range b.sectionMoves {
		secEntries = append(secEntries, sectionEntry{index: mv.to, nodes: movedSectionSlices[i]})
	}
	if len(secEntries) > 0 {
		sort.Slice(secEntries, func(i, j int) bool { return secEntries[i].index < secEntries[j].index })
		indices := make([]int, len(secEntries))
		slices := make([][]*cell.Node, len(secEntries))
		for i, e := range secEntries {
			indices[i] = e.index
			slices[i] = e.nodes
		}
		set := cell.NewIndexSet(indices...)
		c.editing.InsertSections(slices, set)
		events = append(events, changeEvent{kind: eventInsertSections, set: set})
	}

	// Insert items, explicit fresh nodes plus moved handles, ascending.
	type insertEntry struct {
		path cell.Path
		node *cell.Node
	}
	insEntries := make([]insertEntry, 0, len(b.insertItems)+len(b.itemMoves))
	for i, p := range b.insertItems {
		insEntries = append(insEntries, insertEntry{path: p, node: insertItemNodes[i]})
	}
	for i, mv := range b.itemMoves {
		insEntries = append(insEntries, insertEntry{path: mv.to, node: movedItemNodes[i]})
	}
	if len(insEntries) > 0 {
		sort.Slice(insEntries, func(i, j int) bool { return insEntries[i].path.Before(insEntries[j].path) })
		paths := make([]cell.Path, len(insEntries))
		nodes := make([]*cell.Node, len(insEntries))
		for i, e := range insEntries {
			paths[i] = e.path
			nodes[i] = e.node
		}
		c.editing.InsertItems(nodes, paths)
		events = append(events, changeEvent{kind: eventInsertNodes, nodes: nodes, paths: paths})
	}

	return events
}

func moveFroms(moves []itemMove) []cell.Path {
	out := make([]cell.Path, 0, len(moves))
	for _, mv := range moves {
		out = append(out, mv.from)
	}
	return out
}

func (c *Coordinator) notify(events []changeEvent, opts AnimationOptions) {
	for _, ev := range events {
		switch ev.kind {
		case eventDeleteSections:
			c.proxy.didDeleteSections(ev.set, opts)
		case eventInsertSections:
			c.proxy.didInsertSections(ev.set, opts)
		case eventDeleteNodes:
			c.proxy.didDeleteNodes(ev.nodes, ev.paths, opts)
		case eventInsertNodes:
			c.proxy.didInsertNodes(ev.nodes, ev.paths, opts)
		}
	}
}

// batchJob packages one closed batch for the pipeline. In async-fetch mode
// the source bracket runs here, off the interactive thread; otherwise data
// was fetched by the caller and rides in pre-resolved.
func (c *Coordinator) batchJob(b *editBatch, d *batchData, animated bool, completion func(bool), snap *elements.Store, bracketed bool) func() {
	return func() {
		id := layout.NewTransitionID()
		opts := AnimationOptions{Animated: animated, Transition: id}

		if !b.empty() {
			if d == nil {
				d = c.fetchBatchData(b)
			}
			ctx := layout.WithTransition(context.Background(), id)
			events := c.applyBatch(ctx, b, d)
			c.publish()
			if len(events) > 0 {
				c.main.Dispatch(func() { c.notify(events, opts) })
			}
		}

		if bracketed {
			c.main.Dispatch(func() {
				c.releaseSnapshot(snap)
				c.proxy.endUpdates(animated, completion)
			})
		}
	}
}
