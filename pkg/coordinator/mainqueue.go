package coordinator

import "sync"

// MainQueue is the explicit stand-in for "run this on the interactive
// thread": a FIFO of closures that any goroutine may append to and that the
// interactive loop drains between events. Delegate notifications, completion
// callbacks, and external-snapshot teardown all run inside Drain, so they can
// touch interactive state without locks.
type MainQueue struct {
	mu   sync.Mutex
	fifo []func()
	wake chan struct{}
}

// NewMainQueue returns an empty queue.
func NewMainQueue() *MainQueue {
	return &MainQueue{wake: make(chan struct{}, 1)}
}

// Dispatch appends fn and nudges the wake channel. Safe from any goroutine;
// never blocks.
func (q *MainQueue) Dispatch(fn func()) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	q.fifo = append(q.fifo, fn)
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Wake returns a channel that carries a token after new work arrives. The
// demo bridges it into an event-loop subscription; tests select on it with a
// deadline. The channel holds at most one token, so a drain pass may find
// more work than wakes.
func (q *MainQueue) Wake() <-chan struct{} {
	return q.wake
}

// Drain runs queued closures in dispatch order until the queue is empty,
// including closures dispatched by the ones it runs. Returns how many ran.
// Call only from the interactive goroutine.
func (q *MainQueue) Drain() int {
	total := 0
	for {
		q.mu.Lock()
		batch := q.fifo
		q.fifo = nil
		q.mu.Unlock()
		if len(batch) == 0 {
			return total
		}
		for _, fn := range batch {
			fn()
		}
		total += len(batch)
	}
}
