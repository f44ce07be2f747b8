package engine

import (
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// pool runs tasks on a fixed set of worker goroutines. Tasks may submit
// further tasks. The queue is FIFO and unbounded. A task that panics ends
// its worker; join reports the first such failure.
type pool struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool

	g errgroup.Group
}

func newPool(workers int) *pool {
	if workers < 1 {
		workers = 1
	}
	p := &pool{}
	p.cond = sync.NewCond(&p.mu)
	for i := 0; i < workers; i++ {
		p.g.Go(p.work)
	}
	return p
}

func (p *pool) work() error {
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if p.closed {
			p.mu.Unlock()
			return nil
		}
		task := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.mu.Unlock()

		if err := run(task); err != nil {
			return err
		}
	}
}

func run(task func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	task()
	return nil
}

// submit queues a task. It returns false once the pool has been stopped.
func (p *pool) submit(task func()) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	p.queue = append(p.queue, task)
	p.cond.Signal()
	return true
}

// stop rejects further submissions and drops queued tasks. Running tasks are
// not interrupted. It returns the number of dropped tasks.
func (p *pool) stop() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	dropped := len(p.queue)
	p.queue = nil
	p.cond.Broadcast()
	return dropped
}

// join blocks until every worker has returned and returns the first task
// failure. Call stop first.
func (p *pool) join() error {
	return p.g.Wait()
}

// pending returns the number of queued tasks.
func (p *pool) pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}
