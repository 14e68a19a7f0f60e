// worker/pool.go
package worker

import (
	"context"
	"errors"
	"sync"
)

var ErrClosed = errors.New("worker pool closed")

// Job receives the pool's context.
type Job[T any] func(ctx context.Context) (T, error)

type Result[T any] struct {
	JobID  string
	Output T
	Err    error
}

// Pool runs jobs on a fixed number of goroutines. Call Close once every job
// is submitted; Results is closed when the last job finishes. Jobs still
// queued when ctx is done are reported with ctx's error instead of running.
type Pool[T any] struct {
	ctx     context.Context
	jobs    chan jobWrapper[T]
	results chan Result[T]
	wg      sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

type jobWrapper[T any] struct {
	id string
	fn Job[T]
}

func NewPool[T any](ctx context.Context, workerCount int, bufferSize int) *Pool[T] {
	if workerCount < 1 {
		workerCount = 1
	}
	p := &Pool[T]{
		ctx:     ctx,
		jobs:    make(chan jobWrapper[T], bufferSize),
		results: make(chan Result[T], bufferSize),
	}

	p.wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go p.worker()
	}
	go func() {
		p.wg.Wait()
		close(p.results)
	}()

	return p
}

func (p *Pool[T]) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		result := Result[T]{JobID: job.id}
		if err := p.ctx.Err(); err != nil {
			result.Err = err
		} else {
			result.Output, result.Err = job.fn(p.ctx)
		}
		p.results <- result
	}
}

// Submit queues fn. It blocks while the queue is full and fails once the
// pool is closed or its context is done.
func (p *Pool[T]) Submit(id string, fn Job[T]) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}

	select {
	case p.jobs <- jobWrapper[T]{id: id, fn: fn}:
		return nil
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

// Close stops accepting jobs. It is safe to call more than once.
func (p *Pool[T]) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
}

func (p *Pool[T]) Results() <-chan Result[T] {
	return p.results
}
