package coordinator

import (
	"fmt"
	"io"
	"sync/atomic"

	"tableflip.dev/easel/pkg/cell"
	"tableflip.dev/easel/pkg/elements"
	"tableflip.dev/easel/pkg/layout"
)

// DataSource supplies section/row counts, measurable content, and sizing
// constraints. The coordinator brackets every enumeration with Lock/Unlock,
// so a source backed by mutable state stays internally consistent while it
// is read. Edits mirror changes the source has already made: by the time an
// insert is queued, the source answers for the inserted coordinates.
type DataSource interface {
	NumberOfSections() int
	NumberOfItems(section int) int
	Content(at cell.Path) cell.Content
	Constraint(at cell.Path) cell.Constraint
	Lock()
	Unlock()
}

// Option configures a Coordinator at construction.
type Option func(*Coordinator)

// WithPool substitutes the measurement pool, usually to pin worker count in
// benchmarks and tests.
func WithPool(p *layout.Pool) Option {
	return func(c *Coordinator) {
		if p != nil {
			c.pool = p
		}
	}
}

// WithAsyncFetch moves source enumeration onto the pipeline goroutine, so
// closing a batch never blocks the interactive thread on a slow source. The
// source's Lock/Unlock must then tolerate being taken off the interactive
// thread.
func WithAsyncFetch() Option {
	return func(c *Coordinator) { c.asyncFetch = true }
}

// Coordinator accepts ordered editing commands against a data source,
// measures affected items off the interactive thread, and publishes
// consistent snapshots that readers query without ever observing a torn
// state.
//
// Three execution domains share the work. The interactive goroutine owns the
// reader API, the batch brackets, and the delegate; it blocks on the
// pipeline only in ReloadData and the outermost BeginUpdates. The pipeline
// goroutine applies one transaction at a time and is the sole mutator of the
// editing store. Measurement fans out to a bounded worker pool and joins
// before the transaction commits.
type Coordinator struct {
	source DataSource
	pool   *layout.Pool
	main   *MainQueue
	pipe   *pipeline

	// editing is owned by the pipeline goroutine after construction.
	editing *elements.Store

	// completed is replaced wholesale on every publish, never mutated.
	completed atomic.Pointer[elements.Store]

	// Interactive-thread state: the retained pre-batch snapshot, the batch
	// bracket, and the delegate proxy.
	external *elements.Store
	depth    int
	pending  []func(*editBatch)
	proxy    delegateProxy

	asyncFetch bool
	phase      atomic.Int32
	debug      io.Writer
}

// New returns a coordinator over src. The coordinator starts empty; call
// ReloadData to populate it, or drive it edit by edit.
func New(src DataSource, opts ...Option) *Coordinator {
	if src == nil {
		panic("easel: coordinator requires a data source")
	}
	c := &Coordinator{
		source:  src,
		pool:    &layout.Pool{},
		main:    NewMainQueue(),
		editing: elements.New(),
	}
	c.completed.Store(elements.New())
	for _, opt := range opts {
		opt(c)
	}
	c.pipe = newPipeline()
	return c
}

// Main returns the queue the interactive loop must drain. Everything the
// coordinator wants run on the interactive thread goes through it.
func (c *Coordinator) Main() *MainQueue {
	return c.main
}

// SetDelegate registers the batch/change observer and probes its optional
// capabilities once. Replaces any previous delegate; nil clears. Interactive
// thread only.
func (c *Coordinator) SetDelegate(d Delegate) {
	c.proxy = newDelegateProxy(d)
}

// SetDebugWriter directs lifecycle traces to w. Set it before driving edits;
// the writer is shared across goroutines unguarded, which stderr and test
// buffers behind a mutex tolerate.
func (c *Coordinator) SetDebugWriter(w io.Writer) {
	c.debug = w
}

func (c *Coordinator) debugf(format string, args ...any) {
	if c.debug == nil {
		return
	}
	fmt.Fprintf(c.debug, format+"\n", args...)
}

// Drain blocks until every previously queued transaction has been applied.
// Pending interactive callbacks may still be sitting on Main afterwards.
func (c *Coordinator) Drain() {
	c.pipe.drain()
}

// Close applies any remaining transactions and stops the pipeline goroutine.
// Further edits panic. Idempotent.
func (c *Coordinator) Close() {
	c.pipe.close()
}

// publish snapshots the editing store into the completed pointer. Pipeline
// goroutine only.
func (c *Coordinator) publish() {
	c.completed.Store(c.editing.Copy())
	c.debugf("easel: published %d sections, %d items", c.editing.NumberOfSections(), c.editing.TotalItems())
}

// releaseSnapshot drops the external snapshot if it is still the one this
// batch retained. A later batch may have replaced it; its own tail owns the
// release then.
func (c *Coordinator) releaseSnapshot(snap *elements.Store) {
	if c.external == snap {
		c.external = nil
	}
}
