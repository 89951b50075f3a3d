package engine

import (
	"sync"

	"github.com/roach88/boundary/internal/channel"
	"github.com/roach88/boundary/internal/ir"
)

// itemKind distinguishes queued work.
type itemKind int

const (
	// itemInit runs Core.Init.
	itemInit itemKind = iota + 1
	// itemMsg carries a message from the channel.
	itemMsg
	// itemHost carries a host-originated message (Engine.Send).
	itemHost
)

// item is one unit of work for the cycle goroutine.
type item struct {
	kind itemKind
	msg  channel.Msg
	host HostMsg

	// Set when msg is the pure result of a message-with-effect. The
	// resolved cycle reuses the id under which the effect ran.
	cycleID  string
	resolved *ir.Effect
	value    ir.IRValue
}

// itemQueue is a thread-safe FIFO queue of work items.
//
// The queue is unbounded so that listener callbacks and timer ticks
// never block on a busy core.
//
// The queue uses a channel for signaling to enable context-aware waiting
// in the Run loop (prevents goroutine hangs on context cancellation).
type itemQueue struct {
	mu     sync.Mutex
	items  []item
	closed bool
	signal chan struct{} // Signals item availability (buffered, size 1)
}

func newItemQueue() *itemQueue {
	return &itemQueue{
		items:  make([]item, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an item to the back of the queue.
// Thread-safe: may be called from any goroutine.
// Returns false if the queue is closed.
func (q *itemQueue) Enqueue(it item) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.items = append(q.items, it)

	// Non-blocking: the buffer of 1 coalesces multiple signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue attempts to dequeue without blocking.
func (q *itemQueue) TryDequeue() (item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return item{}, false
	}

	it := q.items[0]

	// Nil out the slot so the backing array does not retain messages.
	q.items[0] = item{}

	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}

	return it, true
}

// Wait returns a channel that signals when items may be available.
// Use with select for context-aware waiting:
//
//	select {
//	case <-ctx.Done():
//	    return ctx.Err()
//	case <-q.Wait():
//	    // Try TryDequeue
//	}
func (q *itemQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *itemQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Closed reports whether Close has been called.
func (q *itemQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close signals that no more items will be enqueued.
// Wakes any blocked waiters by closing the signal channel.
func (q *itemQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
