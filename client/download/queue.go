package download

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// WorkFunc is the signature for async work.
type WorkFunc func(ctx context.Context) error

// Queue runs a batch of transfers with bounded concurrency.
type Queue struct {
	wg       sync.WaitGroup
	mu       sync.Mutex
	sem      chan struct{}
	shutdown atomic.Bool
	errs     []error
}

// NewQueue creates a Queue with the given concurrency limit.
// If maxConcurrent <= 0, concurrency is unlimited.
func NewQueue(maxConcurrent int) *Queue {
	q := &Queue{}
	if maxConcurrent > 0 {
		q.sem = make(chan struct{}, maxConcurrent)
	}

	return q
}

// Wait blocks until every job in the queue completes.
// Returns all errors joined via errors.Join.
func (q *Queue) Wait() error {
	q.wg.Wait()

	q.mu.Lock()
	defer q.mu.Unlock()

	return errors.Join(q.errs...)
}

// Shutdown prevents jobs that have not yet acquired a slot from running.
func (q *Queue) Shutdown() {
	q.shutdown.Store(true)
}

// Start launches fn in a new goroutine once a slot is free and
// returns a Job for tracking it.
func (q *Queue) Start(ctx context.Context, fn WorkFunc) *Job {
	ctx, cancel := context.WithCancel(ctx)
	j := &Job{
		done:   make(chan struct{}),
		cancel: cancel,
		queue:  q,
	}

	q.wg.Add(1)
	go func() {
		defer func() {
			cancel()
			close(j.done)
			q.wg.Done()
		}()

		if q.sem != nil {
			select {
			case q.sem <- struct{}{}:
				defer func() {
					<-q.sem
				}()
			case <-ctx.Done():
				j.err = ctx.Err()
				q.recordErr(j.err)
				return
			}
		}

		if q.shutdown.Load() {
			j.err = ErrGroupShutdown
			q.recordErr(j.err)
			return
		}

		j.started.Store(true)
		j.err = fn(ctx)
		if j.err != nil {
			q.recordErr(j.err)
		}
	}()

	return j
}

// recordErr appends err to the queue's error slice under the mutex.
func (q *Queue) recordErr(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.errs = append(q.errs, err)
}

// Job represents an in-flight or completed unit of queued work.
type Job struct {
	done    chan struct{}
	err     error
	started atomic.Bool
	cancel  context.CancelFunc
	queue   *Queue
}

// Done returns a channel that is closed when the job completes.
func (j *Job) Done() <-chan struct{} { return j.done }

// Err blocks until the job completes and returns its error.
func (j *Job) Err() error {
	<-j.done
	return j.err
}

// Started reports whether the work function ran. Jobs turned away by
// Shutdown or a cancelled context never start.
func (j *Job) Started() bool { return j.started.Load() }

// Wait blocks until every job in the queue completes.
func (j *Job) Wait() error {
	return j.queue.Wait()
}

// Cancel cancels the job's context.
func (j *Job) Cancel() {
	j.cancel()
}
