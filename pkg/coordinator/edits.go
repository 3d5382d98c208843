package coordinator

import "tableflip.dev/easel/pkg/cell"

// BeginUpdates opens a batch bracket; brackets nest. The outermost open
// drains the pipeline first, so the bracket's edits compose against a
// quiesced, fully published state. Interactive thread only.
func (c *Coordinator) BeginUpdates() {
	c.depth++
	if c.depth == 1 {
		c.pipe.drain()
	}
}

// EndUpdates closes a bracket. Closing the outermost bracket retains the
// completed store as the external snapshot, notifies the delegate that
// updates begin, replays the bracket's recorded commands into canonical
// category form, hands the batch to the pipeline, and queues the batch tail
// that releases the snapshot and delivers EndUpdates(animated, completion)
// once the change notifications have drained. EndUpdates itself never waits
// on measurement. Interactive thread only.
func (c *Coordinator) EndUpdates(animated bool, completion func(bool)) {
	if c.depth == 0 {
		panic("easel: EndUpdates without a matching BeginUpdates")
	}
	c.depth--
	if c.depth > 0 {
		return
	}

	pending := c.pending
	c.pending = nil

	snap := c.completed.Load()
	c.external = snap
	c.proxy.beginUpdates()

	b := &editBatch{}
	for _, record := range pending {
		record(b)
	}
	b.canonicalize()
	c.debugf("easel: batch close: %d/%d/%d section reload/delete/insert, %d/%d/%d item reload/delete/insert, %d+%d moves",
		len(b.reloadSections), len(b.deleteSections), len(b.insertSections),
		len(b.reloadItems), len(b.deleteItems), len(b.insertItems),
		len(b.itemMoves), len(b.sectionMoves))

	var d *batchData
	if !b.empty() && !c.asyncFetch {
		d = c.fetchBatchData(b)
	}
	c.pipe.submit(c.batchJob(b, d, animated, completion, snap, true))
}

// record either parks the command for the open bracket or, at depth zero,
// runs it immediately as an unbracketed mini-batch: no external snapshot, no
// begin/end delegate calls, just the change applied and notified.
func (c *Coordinator) record(fn func(*editBatch)) {
	if c.depth > 0 {
		c.pending = append(c.pending, fn)
		return
	}
	b := &editBatch{}
	fn(b)
	b.canonicalize()
	if b.empty() {
		return
	}
	var d *batchData
	if !c.asyncFetch {
		d = c.fetchBatchData(b)
	}
	c.pipe.submit(c.batchJob(b, d, false, nil, nil, false))
}

// InsertSections queues an insert of fresh sections at the given indices,
// populated and measured from the data source. Empty sets are no-ops.
func (c *Coordinator) InsertSections(set cell.IndexSet) {
	if len(set) == 0 {
		return
	}
	set = cell.NewIndexSet(set...)
	c.record(func(b *editBatch) { b.insertSections = b.insertSections.Union(set) })
}

// DeleteSections queues removal of the sections at the given indices.
func (c *Coordinator) DeleteSections(set cell.IndexSet) {
	if len(set) == 0 {
		return
	}
	set = cell.NewIndexSet(set...)
	c.record(func(b *editBatch) { b.deleteSections = b.deleteSections.Union(set) })
}

// ReloadSections queues a wholesale rebuild of the given sections from the
// source. Observers see it as a delete followed by an insert of the same
// indices.
func (c *Coordinator) ReloadSections(set cell.IndexSet) {
	if len(set) == 0 {
		return
	}
	set = cell.NewIndexSet(set...)
	c.record(func(b *editBatch) { b.reloadSections = b.reloadSections.Union(set) })
}

// InsertItems queues fresh items at the given post-update paths.
func (c *Coordinator) InsertItems(paths []cell.Path) {
	if len(paths) == 0 {
		return
	}
	paths = append([]cell.Path(nil), paths...)
	c.record(func(b *editBatch) { b.insertItems = append(b.insertItems, paths...) })
}

// DeleteItems queues removal of the items at the given pre-update paths.
func (c *Coordinator) DeleteItems(paths []cell.Path) {
	if len(paths) == 0 {
		return
	}
	paths = append([]cell.Path(nil), paths...)
	c.record(func(b *editBatch) { b.deleteItems = append(b.deleteItems, paths...) })
}

// ReloadItems queues a rebuild of the items at the given paths from the
// source. Observers see a delete of the old nodes and an insert of the new
// ones at the same paths.
func (c *Coordinator) ReloadItems(paths []cell.Path) {
	if len(paths) == 0 {
		return
	}
	paths = append([]cell.Path(nil), paths...)
	c.record(func(b *editBatch) { b.reloadItems = append(b.reloadItems, paths...) })
}

// MoveItem queues a relocation of one item. The node handle moves with its
// measurement; nothing is refetched. Combining a move with other edits that
// touch either endpoint in the same bracket is a contract violation.
func (c *Coordinator) MoveItem(from, to cell.Path) {
	if from == to {
		return
	}
	c.record(func(b *editBatch) { b.itemMoves = append(b.itemMoves, itemMove{from: from, to: to}) })
}

// MoveSection queues a relocation of one whole section, handles included.
func (c *Coordinator) MoveSection(from, to int) {
	if from == to {
		return
	}
	c.record(func(b *editBatch) { b.sectionMoves = append(b.sectionMoves, sectionMove{from: from, to: to}) })
}
