package queue

import "sync"

// Base linked list queue.
type queue struct {
	h, t *Item
	n    int
	sync.Mutex
}

// Basic is a FIFO queue drained by a single dispatcher goroutine.
type Basic struct {
	queue
	trig   *sync.Cond
	closed bool
}

func (q *Basic) Init() {
	q.trig = sync.NewCond(q)
}

func (q *Basic) Reset() {
	q.Lock()
	for i := q.h; i != nil; {
		next := i.next
		i.prev, i.next = nil, nil
		ReturnItem(i)
		i = next
	}
	q.h, q.t, q.n = nil, nil, 0
	q.Unlock()
}

func (q *queue) add(i *Item) {
	if q.h == nil {
		q.h = i
		q.t = i
	} else {
		q.t.next = i
		i.prev = q.t
		q.t = i
	}
	q.n++
}

func (q *queue) pop() *Item {
	i := q.h
	if i == nil {
		return nil
	}

	q.h = i.next
	if q.h == nil {
		q.t = nil
	} else {
		q.h.prev = nil
	}
	i.next = nil // avoid memory leakage
	q.n--
	return i
}

// Add appends i and wakes the dispatcher. It returns false if the queue is closed.
func (q *Basic) Add(i *Item) bool {
	q.Lock()
	if q.closed {
		q.Unlock()
		return false
	}
	q.add(i)
	q.NotifyDispatcher()
	q.Unlock()
	return true
}

// Len returns the number of items waiting for dispatch.
func (q *Basic) Len() int {
	q.Lock()
	n := q.n
	q.Unlock()
	return n
}

// NotifyDispatcher will signal dispatcher to check the queue.
func (q *Basic) NotifyDispatcher() {
	q.trig.Signal()
}

// Close stops accepting items. The dispatcher drains what is queued and returns.
func (q *Basic) Close() {
	q.Lock()
	q.closed = true
	q.trig.Broadcast()
	q.Unlock()
}

// StartDispatcher will continuously dispatch queue items and remove them.
// It returns when the queue is closed and empty, or when d returns an error.
func (q *Basic) StartDispatcher(d func(*Item) error, wg *sync.WaitGroup) error {
	defer func() {
		if wg != nil {
			wg.Done()
		}
	}()
	for {
		q.Lock()
		for q.h == nil && !q.closed {
			q.trig.Wait()
		}
		i := q.pop()
		q.Unlock()

		if i == nil {
			return nil // closed and drained
		}
		if err := d(i); err != nil {
			return err
		}
	}
}
