// Package parallel provides the worker pool used by the pixel passes.
//
// The pool distributes work items across workers, each with its own queue.
// Workers steal from other queues when their own runs dry, which balances
// load when some bands of a pass are more expensive than others (pixels
// inside the glass cost far more than skipped exterior pixels).
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool is a pool of goroutines for data-parallel pixel work.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers int

	// queues holds per-worker work queues. Each worker primarily pulls
	// from its own queue but can steal from the others.
	queues []chan func()

	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
}

// NewWorkerPool creates a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used. Workers start
// immediately and wait for work.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	queueSize := workers * 4
	if queueSize < 8 {
		queueSize = 8
	}

	p := &WorkerPool{
		workers: workers,
		queues:  make([]chan func(), workers),
		done:    make(chan struct{}),
	}
	for i := range p.queues {
		p.queues[i] = make(chan func(), queueSize)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker(i)
	}
	return p
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	own := p.queues[id]

	for {
		select {
		case <-p.done:
			p.drain(own)
			return
		case work := <-own:
			if work != nil {
				work()
			}
		default:
			if stolen := p.steal(id); stolen != nil {
				stolen()
				continue
			}
			// Nothing anywhere; block on the own queue.
			select {
			case <-p.done:
				p.drain(own)
				return
			case work := <-own:
				if work != nil {
					work()
				}
			}
		}
	}
}

// drain executes all remaining work in a queue.
func (p *WorkerPool) drain(queue chan func()) {
	for {
		select {
		case work := <-queue:
			if work != nil {
				work()
			}
		default:
			return
		}
	}
}

// steal takes one work item from another worker's queue, or nil.
func (p *WorkerPool) steal(myID int) func() {
	for i := 0; i < p.workers; i++ {
		if i == myID {
			continue
		}
		select {
		case work := <-p.queues[i]:
			return work
		default:
		}
	}
	return nil
}

// ExecuteAll distributes work round-robin across workers and waits for
// every item to complete. A closed pool executes nothing.
func (p *WorkerPool) ExecuteAll(work []func()) {
	if len(work) == 0 || !p.running.Load() {
		return
	}

	var completion sync.WaitGroup
	completion.Add(len(work))

	for i, fn := range work {
		workFn := fn
		wrapped := func() {
			defer completion.Done()
			workFn()
		}
		select {
		case p.queues[i%p.workers] <- wrapped:
		case <-p.done:
			completion.Done()
		}
	}

	completion.Wait()
}

// ForRows splits the half-open row range [0, height) into bands, roughly
// bandsPerWorker per worker, and runs fn(y0, y1) for each band on the
// pool. It returns after every band has completed. Bands never overlap,
// so fn may write disjoint rows of a shared buffer without locking.
//
// A height of zero or less is a no-op. With one worker the bands run
// sequentially in order, which keeps single-threaded runs deterministic
// for debugging.
func (p *WorkerPool) ForRows(height int, fn func(y0, y1 int)) {
	if height <= 0 {
		return
	}

	const bandsPerWorker = 4
	bands := p.workers * bandsPerWorker
	if bands > height {
		bands = height
	}
	rowsPerBand := (height + bands - 1) / bands

	work := make([]func(), 0, bands)
	for y0 := 0; y0 < height; y0 += rowsPerBand {
		y1 := y0 + rowsPerBand
		if y1 > height {
			y1 = height
		}
		start, end := y0, y1
		work = append(work, func() { fn(start, end) })
	}
	p.ExecuteAll(work)
}

// Close gracefully shuts down the pool: it stops accepting work, lets
// queued work finish and joins the workers. Safe to call multiple times.
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

// IsRunning returns true if the pool is still accepting work.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}
