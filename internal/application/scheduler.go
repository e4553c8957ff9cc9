package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

var (
	// ErrNestedAwait is returned when a scheduler worker tries to block on a
	// result produced by the same scheduler. That wait could starve the pool.
	ErrNestedAwait = errors.New("await called from a scheduler worker")

	// ErrSchedulerClosed is returned for work submitted after Close.
	ErrSchedulerClosed = errors.New("scheduler closed")

	// ErrMutationInFlight is returned when a mutation is requested while
	// another one is still awaiting its result.
	ErrMutationInFlight = errors.New("another change is still in progress")
)

// Result is the single value produced by a submitted task.
type Result[T any] struct {
	Value T
	Err   error
}

type workerKey struct{}

type task struct {
	ctx context.Context
	run func(ctx context.Context)
}

// Scheduler executes network work on a fixed pool of worker goroutines.
// Callers that must block (the terminal UI, CLI commands) never run that
// work themselves: they submit it and wait on a one-shot result channel.
type Scheduler struct {
	tasks   chan task
	closed  chan struct{}
	mu      sync.RWMutex // orders Close against Submit registering a sender
	done    bool
	senders sync.WaitGroup // Submit calls between registration and hand-off
	once    sync.Once
	wg      sync.WaitGroup
	workers int
}

// NewScheduler creates a scheduler with the given number of workers and
// starts them. Call Close to stop it.
func NewScheduler(workers int) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	s := &Scheduler{
		tasks:   make(chan task, workers*4),
		closed:  make(chan struct{}),
		workers: workers,
	}

	s.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go s.worker(i)
	}
	return s
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()
	for {
		select {
		case <-s.closed:
			return
		case t := <-s.tasks:
			t.run(context.WithValue(t.ctx, workerKey{}, id))
		}
	}
}

// Close stops the workers after their current task. Tasks still queued
// receive ErrSchedulerClosed.
func (s *Scheduler) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		s.done = true
		close(s.closed)
		s.mu.Unlock()

		s.wg.Wait()
		s.senders.Wait()
		for {
			select {
			case t := <-s.tasks:
				t.run(context.WithValue(t.ctx, workerKey{}, -1))
			default:
				slog.Debug("scheduler stopped", "workers", s.workers)
				return
			}
		}
	})
}

// onWorker reports whether ctx belongs to a task running on a worker.
func onWorker(ctx context.Context) bool {
	return ctx.Value(workerKey{}) != nil
}

// Submit hands fn to the pool as an independent task and returns a channel
// that receives exactly one Result. The channel is buffered so the task
// never blocks on a caller that stopped listening.
//
// While the queue is full Submit blocks until a worker frees a slot, the
// scheduler is closed or ctx is done. A task that submits more work from a
// worker should pass a cancellable ctx: if every worker waits on a full
// queue, only cancellation or Close releases them.
func Submit[T any](ctx context.Context, s *Scheduler, fn func(ctx context.Context) (T, error)) <-chan Result[T] {
	done := make(chan Result[T], 1)

	t := task{
		ctx: ctx,
		run: func(wctx context.Context) {
			var r Result[T]
			defer func() {
				if p := recover(); p != nil {
					slog.Error("scheduled task panicked", "panic", p)
					r = Result[T]{Err: fmt.Errorf("task panicked: %v", p)}
				}
				done <- r
			}()

			if s.isClosed() {
				r.Err = ErrSchedulerClosed
				return
			}
			r.Value, r.Err = fn(wctx)
		},
	}

	s.mu.RLock()
	if s.done {
		s.mu.RUnlock()
		done <- Result[T]{Err: ErrSchedulerClosed}
		return done
	}
	s.senders.Add(1)
	s.mu.RUnlock()
	defer s.senders.Done()

	select {
	case s.tasks <- t:
	case <-s.closed:
		done <- Result[T]{Err: ErrSchedulerClosed}
	case <-ctx.Done():
		done <- Result[T]{Err: ctx.Err()}
	}
	return done
}

func (s *Scheduler) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// Await blocks until the task behind ch delivers its result. It refuses to
// run on a scheduler worker.
func Await[T any](ctx context.Context, ch <-chan Result[T]) (T, error) {
	if onWorker(ctx) {
		var zero T
		return zero, ErrNestedAwait
	}
	r := <-ch
	return r.Value, r.Err
}

// Call submits fn and awaits its result, giving the caller synchronous
// semantics while the work itself runs on the pool.
func Call[T any](ctx context.Context, s *Scheduler, fn func(ctx context.Context) (T, error)) (T, error) {
	if onWorker(ctx) {
		var zero T
		return zero, ErrNestedAwait
	}
	return Await(ctx, Submit(ctx, s, fn))
}

// MutationGate admits one mutation at a time.
type MutationGate struct {
	busy atomic.Bool
}

// Acquire claims the gate or returns ErrMutationInFlight. The returned
// release function must be called once the mutation has completed.
func (g *MutationGate) Acquire() (release func(), err error) {
	if !g.busy.CompareAndSwap(false, true) {
		return nil, ErrMutationInFlight
	}
	var once sync.Once
	return func() { once.Do(func() { g.busy.Store(false) }) }, nil
}

// Busy reports whether a mutation currently holds the gate.
func (g *MutationGate) Busy() bool {
	return g.busy.Load()
}
