package dexy

import "sync"

// WorkQueue is the FIFO of directories waiting to be listed, shared by a
// fixed number of workers. It also decides when the scan is over.
//
// Every worker loops on Next. A worker inside Next counts as idle; a worker
// that has returned from Next is busy until it calls Next again, and any
// subdirectories it discovers must be pushed before that call. Because the
// idle count and the emptiness check are read under the same lock, the queue
// can only be declared quiescent when all workers are waiting on an empty
// queue, i.e. when nobody holds an unpublished discovery.
type WorkQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	items   []string
	head    int
	workers int
	idle    int
	done    bool
}

// NewWorkQueue creates a queue for exactly workers consumers.
func NewWorkQueue(workers int) *WorkQueue {
	if workers < 1 {
		workers = 1
	}
	q := &WorkQueue{workers: workers}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends directories to the tail of the queue and wakes idle workers.
func (q *WorkQueue) Push(paths ...string) {
	if len(paths) == 0 {
		return
	}

	q.mu.Lock()
	q.items = append(q.items, paths...)
	q.mu.Unlock()

	if len(paths) == 1 {
		q.cond.Signal()
	} else {
		q.cond.Broadcast()
	}
}

// TryPop removes and returns the head of the queue without blocking. It
// reports false when the queue is currently empty.
func (q *WorkQueue) TryPop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pop()
}

func (q *WorkQueue) pop() (string, bool) {
	if q.head == len(q.items) {
		return "", false
	}
	path := q.items[q.head]
	q.items[q.head] = ""
	q.head++
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	}
	return path, true
}

// Next blocks until a directory is available or the whole pool is idle.
// It returns false once the scan is quiescent; every later call returns
// false as well. Only the workers the queue was created for may call it.
func (q *WorkQueue) Next() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.done {
		return "", false
	}

	q.idle++
	for {
		if path, ok := q.pop(); ok {
			q.idle--
			return path, true
		}
		if q.idle == q.workers {
			q.done = true
			q.cond.Broadcast()
			return "", false
		}
		q.cond.Wait()
		if q.done {
			return "", false
		}
	}
}

// Len is the number of directories currently queued.
func (q *WorkQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

// Idle is the number of workers currently waiting in Next.
func (q *WorkQueue) Idle() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.idle
}

// Quiescent reports whether the queue has declared the scan finished.
func (q *WorkQueue) Quiescent() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.done
}
