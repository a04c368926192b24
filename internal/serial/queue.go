// Package serial runs operations of one entity namespace strictly one at a time.
//
// Storage primitives have no optimistic concurrency control, so every
// read-modify-write over a namespace must run inside a single Queue job.
package serial

import (
	"context"
	"errors"
	"fmt"

	"github.com/nkiryanov/foodrhapsody/internal/logger"
)

var ErrQueueStopped = errors.New("queue stopped")

type job struct {
	ctx  context.Context
	fn   func(ctx context.Context) error
	done chan error
}

// Queue executes submitted jobs on a single goroutine in arrival order
type Queue struct {
	name    string
	jobs    chan job
	stopped chan struct{}
	logger  logger.Logger
}

func New(name string, l logger.Logger) *Queue {
	return &Queue{
		name:    name,
		jobs:    make(chan job),
		stopped: make(chan struct{}),
		logger:  l.With("queue", name),
	}
}

func (q *Queue) Name() string {
	return q.name
}

// Run processes jobs until ctx is cancelled. A job already taken is finished first.
// Returned channel is closed when the queue stopped. Run must be called once.
func (q *Queue) Run(ctx context.Context) <-chan struct{} {
	idleStopped := make(chan struct{})

	go func() {
		defer close(idleStopped)
		defer close(q.stopped)

		for {
			select {
			case <-ctx.Done():
				q.logger.Debug("Queue stopped")
				return
			case j := <-q.jobs:
				j.done <- q.execute(j)
			}
		}
	}()

	return idleStopped
}

func (q *Queue) execute(j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("Job panicked", "panic", r)
			err = fmt.Errorf("%s: job panicked: %v", q.name, r)
		}
	}()

	return j.fn(j.ctx)
}

// Do waits until the queue takes fn and returns its result.
// ctx bounds waiting for the turn only: once taken, fn runs with a context that is never cancelled.
func (q *Queue) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	j := job{
		ctx:  context.WithoutCancel(ctx),
		fn:   fn,
		done: make(chan error, 1),
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-q.stopped:
		return ErrQueueStopped
	case q.jobs <- j:
	}

	return <-j.done
}

// Call is Do for functions returning a value
func Call[T any](ctx context.Context, q *Queue, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := q.Do(ctx, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	})

	return result, err
}
