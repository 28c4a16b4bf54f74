package engine

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
)

// Task is a unit of background work.
type Task func()

// Pool runs tasks on a fixed set of goroutines fed by a queue.
type Pool struct {
	tasks    chan Task
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewPool starts workers goroutines with a queue of queueSize pending tasks.
func NewPool(workers, queueSize int) *Pool {
	workers = max(workers, 1)
	queueSize = max(queueSize, 0)
	p := &Pool{
		tasks: make(chan Task, queueSize),
		done:  make(chan struct{}),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker(i)
	}
	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case task := <-p.tasks:
			p.run(id, task)
		case <-p.done:
			return
		}
	}
}

func (p *Pool) run(id int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Worker %d recovered from panic: %v", id, r)
		}
	}()
	task()
}

// Submit queues task. It blocks while the queue is full and fails when ctx
// is done or the pool is stopped.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	select {
	case <-p.done:
		return ErrStopped
	default:
	}
	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.done:
		return ErrStopped
	}
}

// Stop signals the workers to exit and waits for running tasks. Queued tasks
// that have not started are dropped.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
	})
	p.wg.Wait()
}
