package lazytext

import (
	"sync"

	"golang.org/x/sync/semaphore"
)

// Executor runs deferred tasks for the scatter-gather assembler.
type Executor interface {
	Submit(task func() error) Handle
}

// Handle joins a submitted task.
type Handle interface {
	// Wait blocks until the task finishes and returns its error.
	Wait() error
}

type future struct {
	done chan struct{}
	err  error
}

func (f *future) Wait() error {
	<-f.done
	return f.err
}

type doneHandle struct {
	err error
}

func (h doneHandle) Wait() error {
	return h.err
}

// runTask calls task, turning a panic into an error.
func runTask(task func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = RecoverError(r)
		}
	}()
	return task()
}

// Pool runs tasks on their own goroutines, at most workers at a time. When
// every slot is taken the task runs in the submitting goroutine instead, so
// a task that itself submits to the same pool can never wait on a slot
// held by its parent.
type Pool struct {
	workers int64
	sem     *semaphore.Weighted
}

// NewPool returns a pool bounded to workers concurrent tasks. A value below
// one is treated as one.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		workers: int64(workers),
		sem:     semaphore.NewWeighted(int64(workers)),
	}
}

// Workers returns the pool bound.
func (p *Pool) Workers() int {
	return int(p.workers)
}

func (p *Pool) Submit(task func() error) Handle {
	if !p.sem.TryAcquire(1) {
		return doneHandle{err: runTask(task)}
	}

	f := &future{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		defer p.sem.Release(1)
		f.err = runTask(task)
	}()
	return f
}

type inline struct{}

func (inline) Submit(task func() error) Handle {
	return doneHandle{err: runTask(task)}
}

// Inline returns an executor that runs each task synchronously in Submit.
func Inline() Executor {
	return inline{}
}

var (
	defaultExecutor     *Pool
	defaultExecutorOnce sync.Once
)

// DefaultExecutor returns the shared pool used by concurrent sequences that
// were given no executor. It is sized from the global config the first
// time it is needed.
func DefaultExecutor() Executor {
	defaultExecutorOnce.Do(func() {
		defaultExecutor = NewPool(GetGlobalConfig().ScatterWorkers)
	})
	return defaultExecutor
}
