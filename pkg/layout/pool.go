package layout

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"tableflip.dev/easel/pkg/cell"
)

// DefaultChunkSize is how many nodes one worker measures per job. Small
// enough to spread a burst across workers, large enough that scheduling is
// not the dominant cost.
const DefaultChunkSize = 5

// Pool measures batches of nodes concurrently. Nodes in a batch must be
// disjoint; measurement itself is stateless, so a zero Pool is usable and
// pools may be shared.
type Pool struct {
	// Workers bounds concurrent measurement. Zero means GOMAXPROCS.
	Workers int
	// ChunkSize is nodes per job. Zero means DefaultChunkSize.
	ChunkSize int
}

// NewPool returns a pool bounded to the given worker count.
func NewPool(workers int) *Pool {
	return &Pool{Workers: workers}
}

func (p *Pool) workers() int {
	if p == nil || p.Workers < 1 {
		return runtime.GOMAXPROCS(0)
	}
	return p.Workers
}

func (p *Pool) chunkSize() int {
	if p == nil || p.ChunkSize < 1 {
		return DefaultChunkSize
	}
	return p.ChunkSize
}

// MeasureAll measures nodes[i] under constraints[i], in chunks across the
// pool's workers. Work proceeds in super-batches of Workers×ChunkSize nodes
// and blocks until each super-batch fully joins before starting the next, so
// a huge batch cannot flood the scheduler. Nodes already measured under an
// identical constraint are skipped.
//
// Per-node failures are contained by Node.Measure: an erroring or panicking
// content degrades to a clamped zero size and its siblings proceed. There are
// no retries and no cancellation; scheduled work runs to completion.
func (p *Pool) MeasureAll(ctx context.Context, nodes []*cell.Node, constraints []cell.Constraint) {
	if len(nodes) == 0 {
		return
	}
	if len(constraints) != len(nodes) {
		panic(fmt.Sprintf("easel: measure: %d constraints for %d nodes", len(constraints), len(nodes)))
	}

	chunk := p.chunkSize()
	super := p.workers() * chunk

	for start := 0; start < len(nodes); start += super {
		end := min(start+super, len(nodes))

		var g errgroup.Group
		g.SetLimit(p.workers())
		for lo := start; lo < end; lo += chunk {
			lo, hi := lo, min(lo+chunk, end)
			g.Go(func() error {
				for i := lo; i < hi; i++ {
					n, c := nodes[i], constraints[i].Normalized()
					if n.Measured() && n.Constraint() == c {
						continue
					}
					n.Measure(ctx, c)
				}
				return nil
			})
		}
		// Barrier: the next super-batch starts only once this one joins.
		_ = g.Wait()
	}
}
