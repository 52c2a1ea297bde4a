// Package screen adapts the resolution subsystem to a UI that owns a single
// rendering goroutine. Fetch completions and state machine notifications
// arrive on arbitrary goroutines; screens hand every view update to a
// Dispatcher so views are only touched from the rendering goroutine.
package screen

import "context"

// Dispatcher runs functions on the rendering goroutine.
type Dispatcher interface {
	Dispatch(fn func())
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(fn func())

// Dispatch calls f(fn).
func (f DispatcherFunc) Dispatch(fn func()) { f(fn) }

// Queue is a Dispatcher backed by a single goroutine running Run.
type Queue struct {
	ch   chan func()
	done chan struct{}
}

// NewQueue returns a queue buffering up to size pending functions.
func NewQueue(size int) *Queue {
	return &Queue{ch: make(chan func(), size), done: make(chan struct{})}
}

// Run executes dispatched functions in order until ctx is cancelled.
func (q *Queue) Run(ctx context.Context) {
	defer close(q.done)
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-q.ch:
			fn()
		}
	}
}

// Dispatch enqueues fn. Functions dispatched after Run returned are dropped.
func (q *Queue) Dispatch(fn func()) {
	select {
	case q.ch <- fn:
	case <-q.done:
	}
}

// Sync runs fn on the queue and waits for it to finish. It must not be
// called from the queue goroutine.
func (q *Queue) Sync(fn func()) {
	finished := make(chan struct{})
	q.Dispatch(func() {
		defer close(finished)
		fn()
	})
	select {
	case <-finished:
	case <-q.done:
	}
}
