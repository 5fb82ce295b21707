// Package workerpool runs fire-and-forget tasks on a fixed set of
// goroutines. Submit never blocks: when every worker is busy and the queue
// is full the task is refused with ErrPoolFull and the caller decides
// whether to drop it or do the work inline.
//
//	pool := workerpool.New("cache-fill", 4, 64)
//	defer pool.Shutdown()
//
//	if err := pool.Submit(func() { fill(key) }); err != nil {
//	    // skipped
//	}
package workerpool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/shashiranjanraj/storefront/pkg/logger"
)

var (
	ErrPoolFull   = errors.New("workerpool: pool is full")
	ErrPoolClosed = errors.New("workerpool: pool is closed")
)

// Pool is a bounded goroutine pool.
type Pool struct {
	name  string
	tasks chan func()
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// New starts size workers sharing a queue of queue pending tasks. Sizes
// below 1 are raised to 1; a negative queue means 2×size.
func New(name string, size, queue int) *Pool {
	if size < 1 {
		size = 1
	}
	if queue < 0 {
		queue = size * 2
	}

	p := &Pool{name: name, tasks: make(chan func(), queue)}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.worker()
	}
	return p
}

// Submit enqueues task without blocking.
func (p *Pool) Submit(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrPoolFull
	}
}

// Shutdown refuses new tasks, runs everything already queued and waits for
// the workers to exit. Safe to call more than once.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.tasks)
	}
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		p.run(task)
	}
}

// run executes task; a panic is logged and the worker keeps going.
func (p *Pool) run(task func()) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("worker task panicked", "pool", p.name, "error", fmt.Sprintf("%v", rec))
		}
	}()
	task()
}
