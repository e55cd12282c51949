package input

import "sync"

// Queue is an unbounded FIFO of paths shared by one producer and one
// consumer. Take blocks until an item arrives or the queue is closed and
// drained. Once closed, Add refuses new items but queued ones still drain.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []string
	closed bool
}

// NewQueue creates an open, empty queue.
func NewQueue() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Add appends item. It returns false if the queue is closed.
func (q *Queue) Add(item string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.items = append(q.items, item)
	q.cond.Signal()
	return true
}

// Close marks the queue closed for additions. It returns true if this
// call closed it and false if it was already closed.
func (q *Queue) Close() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.closed = true
	q.cond.Broadcast()
	return true
}

// Closed reports whether the queue refuses new items.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Take removes and returns the oldest item. ok is false once the queue is
// closed and empty.
func (q *Queue) Take() (item string, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return "", false
	}

	item = q.items[0]
	q.items[0] = ""
	q.items = q.items[1:]
	return item, true
}
