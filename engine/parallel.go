package engine

import (
	"sync"
)

// workerPool is a fixed set of goroutines, started once and released once per
// tick through a condition-variable barrier.
//
// A dispatch arms the barrier with n = min(size, groups) participants and
// advances the epoch. Worker i wakes when the epoch moves and i < n,
// processes groups i, i+size, i+2*size, ..., then decrements the active
// count. The dispatcher returns once the count reaches zero, so no worker is
// still touching a group when run returns.
type workerPool struct {
	size int

	mu     sync.Mutex
	start  *sync.Cond // signalled when a new epoch is armed or on stop
	done   *sync.Cond // signalled when active reaches zero
	epoch  uint64
	want   int // participants in the current epoch
	active int // participants still working
	stop   bool
	job    func(worker int)

	wg sync.WaitGroup
}

func newWorkerPool(size int) *workerPool {
	if size < 1 {
		size = 1
	}
	p := &workerPool{size: size}
	p.start = sync.NewCond(&p.mu)
	p.done = sync.NewCond(&p.mu)

	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.worker(i)
	}
	return p
}

func (p *workerPool) worker(id int) {
	defer p.wg.Done()

	var seen uint64
	p.mu.Lock()
	for {
		for !p.stop && (p.epoch == seen || id >= p.want) {
			p.start.Wait()
		}
		if p.stop {
			p.mu.Unlock()
			return
		}
		seen = p.epoch
		job := p.job
		p.mu.Unlock()

		job(id)

		p.mu.Lock()
		p.active--
		if p.active == 0 {
			p.done.Signal()
		}
	}
}

// run executes job on min(size, groups) workers and blocks until all of them
// have finished. It panics with ErrShutdown once the pool is closed.
func (p *workerPool) run(groups int, job func(worker int)) {
	n := min(p.size, groups)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop {
		panic(ErrShutdown)
	}
	if n <= 0 {
		return
	}

	p.job = job
	p.want = n
	p.active = n
	p.epoch++
	p.start.Broadcast()

	for p.active > 0 {
		p.done.Wait()
	}
	p.job = nil
	p.want = 0
}

// close stops every worker and waits for them to exit.
func (p *workerPool) close() {
	p.mu.Lock()
	p.stop = true
	p.start.Broadcast()
	p.mu.Unlock()

	p.wg.Wait()
}
