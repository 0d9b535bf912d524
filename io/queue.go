package io

import (
	"sync"
	"time"
)

// Queue is an unbounded FIFO of values, safe for one producer and one
// consumer on separate goroutines.
type Queue struct {
	mutex  sync.Mutex
	data   []int64
	closed bool
	sent   int
	ready  chan struct{}
	once   sync.Once
}

var _ Channel = (*Queue)(nil)

// NewQueue creates an empty queue.
func NewQueue() (queue *Queue) {
	queue = &Queue{}
	queue.init()
	return
}

func (queue *Queue) init() {
	queue.once.Do(func() {
		queue.ready = make(chan struct{}, 1)
	})
}

// notify wakes a waiting receiver, if any. The signal slot holds at most
// one pending wake-up.
func (queue *Queue) notify() {
	select {
	case queue.ready <- struct{}{}:
	default:
	}
}

// Send appends a value to the tail of the queue.
// Returns ErrClosed if the queue has been closed.
func (queue *Queue) Send(value int64) (err error) {
	queue.init()

	queue.mutex.Lock()
	if queue.closed {
		queue.mutex.Unlock()
		err = ErrClosed
		return
	}
	queue.data = append(queue.data, value)
	queue.sent++
	queue.mutex.Unlock()

	queue.notify()

	return
}

// pop removes the head value, if present.
func (queue *Queue) pop() (value int64, ok bool, closed bool) {
	queue.mutex.Lock()
	defer queue.mutex.Unlock()

	closed = queue.closed
	if len(queue.data) > 0 {
		ok = true
		value = queue.data[0]
		queue.data = queue.data[1:]
	}

	return
}

// Receive removes and returns the head value. If the queue is empty the
// caller waits until a value arrives or the timeout elapses, returning
// ErrTimeout. A timeout of zero or less polls without waiting.
// An empty, closed queue returns ErrClosed without waiting.
func (queue *Queue) Receive(timeout time.Duration) (value int64, err error) {
	queue.init()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	for {
		var ok, closed bool
		value, ok, closed = queue.pop()
		switch {
		case ok:
			return
		case closed:
			err = ErrClosed
			return
		case expired == nil:
			err = ErrTimeout
			return
		}

		select {
		case <-queue.ready:
			// Re-check the queue.
		case <-expired:
			value, ok, _ = queue.pop()
			if !ok {
				err = ErrTimeout
			}
			return
		}
	}
}

// Close marks the queue as finished. Values already queued can still be
// received.
func (queue *Queue) Close() {
	queue.init()

	queue.mutex.Lock()
	queue.closed = true
	queue.mutex.Unlock()

	queue.notify()
}

// Len returns the count of values waiting in the queue.
func (queue *Queue) Len() int {
	queue.mutex.Lock()
	defer queue.mutex.Unlock()

	return len(queue.data)
}

// Sent returns the total count of values ever sent to the queue.
func (queue *Queue) Sent() int {
	queue.mutex.Lock()
	defer queue.mutex.Unlock()

	return queue.sent
}
