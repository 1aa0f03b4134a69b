// Package parallel runs CPU-side work for gpgpu on a work-stealing pool of
// goroutines: concurrent kernel submission, staging of input data and the
// CPU reference checks of results read back from the GPU.
package parallel

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned for work handed to a closed pool.
var ErrClosed = errors.New("parallel: pool closed")

// Task is a unit of work. A panicking task is reported as an error.
type Task func() error

// WorkerPool is a pool of goroutines running Tasks.
//
// Each worker has its own queue and steals from the others when it runs
// dry, which balances load when some tasks are slower than others.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers    int
	workQueues []chan func()
	done       chan struct{}
	wg         sync.WaitGroup
	running    atomic.Bool
}

// NewWorkerPool creates a pool with the given number of workers. If workers
// is 0 or negative, GOMAXPROCS is used. Workers start immediately.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	queueSize := max(workers*4, 8)

	p := &WorkerPool{
		workers:    workers,
		workQueues: make([]chan func(), workers),
		done:       make(chan struct{}),
	}
	for i := range workers {
		p.workQueues[i] = make(chan func(), queueSize)
	}

	p.running.Store(true)
	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	myQueue := p.workQueues[id]
	for {
		select {
		case <-p.done:
			p.drainQueue(myQueue)
			return
		case work := <-myQueue:
			work()
		default:
			if stolen := p.steal(id); stolen != nil {
				stolen()
				continue
			}
			select {
			case <-p.done:
				p.drainQueue(myQueue)
				return
			case work := <-myQueue:
				work()
			}
		}
	}
}

func (p *WorkerPool) drainQueue(queue chan func()) {
	for {
		select {
		case work := <-queue:
			work()
		default:
			return
		}
	}
}

// steal takes one queued item from another worker, or returns nil.
func (p *WorkerPool) steal(myID int) func() {
	for i := range p.workers {
		if i == myID {
			continue
		}
		select {
		case work := <-p.workQueues[i]:
			return work
		default:
		}
	}
	return nil
}

// run calls task, converting a panic into an error.
func run(task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parallel: task panicked: %v", r)
		}
	}()
	return task()
}

// ExecuteAll runs every task and waits for all of them. The errors of the
// failed tasks are joined in task order, each prefixed with its index.
// Nil tasks are skipped.
func (p *WorkerPool) ExecuteAll(tasks []Task) error {
	if len(tasks) == 0 {
		return nil
	}
	if !p.running.Load() {
		return ErrClosed
	}

	errs := make([]error, len(tasks))
	var completion sync.WaitGroup
	completion.Add(len(tasks))

	for i, task := range tasks {
		if task == nil {
			completion.Done()
			continue
		}
		wrapped := func() {
			defer completion.Done()
			if err := run(task); err != nil {
				errs[i] = fmt.Errorf("task %d: %w", i, err)
			}
		}
		select {
		case p.workQueues[i%p.workers] <- wrapped:
		case <-p.done:
			errs[i] = fmt.Errorf("task %d: %w", i, ErrClosed)
			completion.Done()
		}
	}

	completion.Wait()
	return errors.Join(errs...)
}

// Submit queues one task on the least loaded worker. The returned channel
// receives the task's error (nil on success) and is then closed.
func (p *WorkerPool) Submit(task Task) <-chan error {
	result := make(chan error, 1)
	if task == nil {
		close(result)
		return result
	}
	if !p.running.Load() {
		result <- ErrClosed
		close(result)
		return result
	}

	minIdx := 0
	for i := 1; i < p.workers; i++ {
		if len(p.workQueues[i]) < len(p.workQueues[minIdx]) {
			minIdx = i
		}
	}

	work := func() {
		result <- run(task)
		close(result)
	}
	select {
	case p.workQueues[minIdx] <- work:
	case <-p.done:
		result <- ErrClosed
		close(result)
	}
	return result
}

// Close stops accepting work, runs everything already queued and stops
// the workers. Close is safe to call multiple times.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning reports whether the pool accepts work.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}

// QueuedWork returns the approximate number of queued tasks.
func (p *WorkerPool) QueuedWork() int {
	total := 0
	for _, q := range p.workQueues {
		total += len(q)
	}
	return total
}
