// Package dispatch provides the single goroutine on which state visible to the
// user interface is mutated.
package dispatch

import "sync"

// Dispatcher runs fn at some later point on its own goroutine.
type Dispatcher interface {
	Async(fn func())
}

// Queue executes submitted functions one at a time, in submission order, on
// one dedicated goroutine. The queue is unbounded so Async never blocks, even
// when called from a task running on the queue.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	tasks  []func()
	closed bool
	done   chan struct{}
}

func NewQueue() *Queue {
	q := &Queue{done: make(chan struct{})}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

func (q *Queue) run() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.tasks) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.tasks) == 0 {
			q.mu.Unlock()
			return
		}
		fn := q.tasks[0]
		q.tasks[0] = nil
		q.tasks = q.tasks[1:]
		q.mu.Unlock()

		fn()
	}
}

// Async enqueues fn. Calls after Close are dropped.
func (q *Queue) Async(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.tasks = append(q.tasks, fn)
	q.cond.Signal()
}

// Sync enqueues fn and waits for it to finish. Must not be called from a task
// running on q.
func (q *Queue) Sync(fn func()) {
	finished := make(chan struct{})
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.tasks = append(q.tasks, func() {
		defer close(finished)
		fn()
	})
	q.cond.Signal()
	q.mu.Unlock()
	<-finished
}

// Flush waits until every task enqueued before the call has run.
func (q *Queue) Flush() {
	q.Sync(func() {})
}

// Close drains pending tasks and stops the goroutine.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()
	<-q.done
}

// Inline runs functions on the calling goroutine. Used where there is no
// user interface thread, e.g. the CLI and tests.
type Inline struct{}

func (Inline) Async(fn func()) { fn() }
