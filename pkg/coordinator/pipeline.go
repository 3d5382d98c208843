package coordinator

import "sync"

// pipeline is the editing transaction queue: a single goroutine applying
// jobs strictly in submission order. It is the sole mutator of the editing
// store, which is what makes every mutation a serial transaction. The queue
// is unbounded so submitters never stall behind a slow measurement pass;
// they block only when they explicitly drain.
type pipeline struct {
	mu     sync.Mutex
	fifo   []func()
	closed bool

	wake chan struct{}
	done chan struct{}
}

func newPipeline() *pipeline {
	p := &pipeline{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *pipeline) run() {
	defer close(p.done)
	for {
		p.mu.Lock()
		batch := p.fifo
		p.fifo = nil
		closed := p.closed
		p.mu.Unlock()

		for _, job := range batch {
			job()
		}
		if len(batch) > 0 {
			// More work may have landed while jobs ran.
			continue
		}
		if closed {
			return
		}
		<-p.wake
	}
}

func (p *pipeline) submit(job func()) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		panic("easel: submit on a closed pipeline")
	}
	p.fifo = append(p.fifo, job)
	p.mu.Unlock()
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// drain blocks until every job submitted before it has completed. There is
// no cancellation; scheduled work always runs.
func (p *pipeline) drain() {
	ch := make(chan struct{})
	p.submit(func() { close(ch) })
	<-ch
}

// close runs the remaining jobs and stops the goroutine. Idempotent.
func (p *pipeline) close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.done
		return
	}
	p.closed = true
	p.mu.Unlock()
	select {
	case p.wake <- struct{}{}:
	default:
	}
	<-p.done
}
