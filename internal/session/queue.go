package session

import (
	"context"
	"sync"
)

// writeQueue serializes store writes for a single list id. Each list's
// writes are full replaces, so they must apply in issue order; out-of-order
// completion could silently revert a later edit. Once enqueued a write runs
// to completion regardless of the caller's context, matching the
// no-cancellation model for store operations.
type writeQueue struct {
	jobs chan queueJob
	wg   sync.WaitGroup
}

type queueJob struct {
	fn   func(context.Context) error
	errc chan error
}

func newWriteQueue() *writeQueue {
	q := &writeQueue{jobs: make(chan queueJob, 16)}
	q.wg.Add(1)
	go q.loop()
	return q
}

func (q *writeQueue) loop() {
	defer q.wg.Done()
	for job := range q.jobs {
		job.errc <- job.fn(context.Background())
	}
}

// Enqueue adds fn to the queue and returns a channel delivering its result.
// The controller enqueues under its own lock so issue order is well-defined,
// then waits outside the lock.
func (q *writeQueue) Enqueue(fn func(context.Context) error) <-chan error {
	job := queueJob{fn: fn, errc: make(chan error, 1)}
	q.jobs <- job
	return job.errc
}

// Do enqueues fn and waits for its result. The caller's ctx only bounds the
// wait, never the write itself; on ctx expiry the write still applies in
// order.
func (q *writeQueue) Do(ctx context.Context, fn func(context.Context) error) error {
	errc := q.Enqueue(fn)
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains the queue and stops the worker.
func (q *writeQueue) Close() {
	close(q.jobs)
	q.wg.Wait()
}
