// Package workqueue runs pushed tasks with a bounded number in flight.
//
// A Queue starts paused: tasks are collected with Push and only start once
// Run is called. With a limit of one, tasks run strictly one at a time in
// submission order.
package workqueue

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Task is a unit of work run by the queue.
type Task func(ctx context.Context) error

// Callback receives the result of a task. Returning a non-nil error stops the
// queue; returning nil lets the remaining tasks run.
type Callback func(err error) error

type item struct {
	task     Task
	callback Callback
}

// Queue is a paused work queue. It is not safe for concurrent Push calls.
type Queue struct {
	limit int
	items []item
}

// New returns a paused queue that runs at most limit tasks at once.
func New(limit int) *Queue {
	if limit < 1 {
		limit = 1
	}
	return &Queue{limit: limit}
}

// Push enqueues a task. cb may be nil.
func (q *Queue) Push(task Task, cb Callback) {
	q.items = append(q.items, item{task: task, callback: cb})
}

// Len reports the number of tasks waiting to run.
func (q *Queue) Len() int {
	return len(q.items)
}

// Run resumes the queue and blocks until it drains. It returns the first
// error returned by a callback, or the context error if ctx was cancelled
// before all tasks started.
func (q *Queue) Run(ctx context.Context) error {
	items := q.items
	q.items = nil

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(q.limit)
	for _, it := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			err := it.task(gctx)
			if it.callback == nil {
				return nil
			}
			return it.callback(err)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
