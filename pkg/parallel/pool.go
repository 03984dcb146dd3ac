// Package parallel provides a bounded worker pool for fan-out evaluation of
// independent tasks, such as batched route searches.
package parallel

import (
	"sync"

	"github.com/dd0wney/trellis/pkg/logging"
)

// Pool runs submitted tasks on a fixed set of worker goroutines. A panic in
// a task is recovered and logged so one bad task cannot take a worker down.
type Pool struct {
	tasks  chan func()
	wg     sync.WaitGroup
	once   sync.Once
	mu     sync.RWMutex // guards closed against Submit racing Close
	closed bool
}

// New creates a pool with the given number of workers; counts below one are
// raised to one. Workers start immediately.
func New(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{
		tasks: make(chan func(), workers*2),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		p.run(task)
	}
}

func (p *Pool) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			logging.ErrorLog("worker recovered from panic", logging.Any("panic", r))
		}
	}()
	task()
}

// Submit queues a task, blocking when the queue is full. It reports false
// once the pool is closed.
func (p *Pool) Submit(task func()) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	p.tasks <- task
	return true
}

// Close stops intake, drains queued tasks, and waits for the workers to
// finish. It is safe to call more than once.
func (p *Pool) Close() {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.tasks)
		p.mu.Unlock()
	})
	p.wg.Wait()
}
