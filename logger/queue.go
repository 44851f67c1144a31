package logger

import "sync"

// queue is the FIFO of one worker. With limit 0 it grows without bound so a
// caller never waits on a slow worker; with a positive limit push reports
// errQueueFull and the pool applies the overflow policy.
type queue struct {
	mu     sync.Mutex
	items  []task
	limit  int
	closed bool
	// ready wakes the worker after a push or close
	ready chan struct{}
	// space wakes one caller waiting for room in a bounded queue
	space chan struct{}
}

func newQueue(limit int) *queue {
	return &queue{
		limit: limit,
		ready: make(chan struct{}, 1),
		space: make(chan struct{}, 1),
	}
}

func (q *queue) push(t task) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrPoolClosed
	}
	if q.limit > 0 && len(q.items) >= q.limit {
		q.mu.Unlock()
		return errQueueFull
	}
	q.items = append(q.items, t)
	roomLeft := q.limit > 0 && len(q.items) < q.limit
	q.mu.Unlock()

	notify(q.ready)
	if roomLeft {
		// pass a wakeup on to the next waiting caller
		notify(q.space)
	}
	return nil
}

// evictOldest removes the head of the queue, if any
func (q *queue) evictOldest() (task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return task{}, false
	}
	return q.shift(), true
}

// pop waits for the next task. It returns false once the queue is closed
// and empty.
func (q *queue) pop() (task, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			t := q.shift()
			q.mu.Unlock()
			notify(q.space)
			return t, true
		}
		if q.closed {
			q.mu.Unlock()
			return task{}, false
		}
		q.mu.Unlock()
		<-q.ready
	}
}

func (q *queue) shift() task {
	t := q.items[0]
	q.items[0] = task{}
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return t
}

func (q *queue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	notify(q.ready)
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func notify(c chan struct{}) {
	select {
	case c <- struct{}{}:
	default:
	}
}
