// Package wavefront implements the parallel alpha/beta back-end: a
// persistent worker pool that tiles one sequence's (time, label-step) grid
// into row-groups and advances them wave by wave, using atomic per-row
// counters to let a worker on row t block only until row t-1 has reached
// the columns it depends on.
//
// The pool shape is grounded on the teacher's acoustic/dnn_train.go
// goroutine-per-worker fan-out joined with sync.WaitGroup; the persistent,
// reusable-across-calls pool structure (rather than spinning up fresh
// goroutines per call) is grounded on
// janpfeifer-go-highway/hwy/contrib/workerpool/workerpool.go's Pool type.
package wavefront

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool runs row-tiled wave-front computations with a fixed number of
// persistent workers. The zero value is not usable; call New.
type Pool struct {
	numWorkers int
	workC      chan func()
	closeOnce  sync.Once
	closed     atomic.Bool
	wg         sync.WaitGroup
}

// New starts a Pool with the given number of persistent workers. workers
// <= 0 is treated as 1.
func New(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	p := &Pool{
		numWorkers: workers,
		workC:      make(chan func()),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.loop()
	}
	return p
}

func (p *Pool) loop() {
	defer p.wg.Done()
	for task := range p.workC {
		task()
	}
}

// Close stops all workers and waits for the current in-flight tasks to
// drain. Close is idempotent.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.workC)
	})
	p.wg.Wait()
}

// RowCounters tracks how many columns of each row have been completed so
// far, for the producer/consumer handoff between adjacent rows of a
// wave-front sweep. Writers call Advance with release semantics; readers
// call WaitFor, which spins, yielding the processor every 64 iterations,
// until the dependency is satisfied. There is no timeout.
type RowCounters struct {
	done []atomic.Int64
}

// NewRowCounters wraps counters, which the caller owns (typically a slice
// of a Workspace's alphaCounters/betaCounters sized for the call's
// sequence), resetting every entry to zero. It allocates nothing itself.
func NewRowCounters(counters []atomic.Int64) *RowCounters {
	for i := range counters {
		counters[i].Store(0)
	}
	return &RowCounters{done: counters}
}

// Advance records that row has completed through column (exclusive),
// release-ordered so a concurrent WaitFor on another goroutine observes it.
func (c *RowCounters) Advance(row, through int) {
	c.done[row].Store(int64(through))
}

// WaitFor blocks (via bounded spin) until row has completed through at
// least column.
func (c *RowCounters) WaitFor(row, column int) {
	if row < 0 {
		return
	}
	spins := 0
	for c.done[row].Load() < int64(column) {
		spins++
		if spins > 64 {
			runtime.Gosched()
			spins = 0
		}
	}
}

// ComputeAlphaRowTiled runs the dense forward recurrence over rowGroups
// goroutines, each owning a contiguous band of rows and advancing them
// left to right, synchronizing with the row above it through counters.
// cell(t,u) is expected to fill alpha[t*maxU+u] from skip/emit the same way
// internal/lattice.ComputeAlpha does; it is supplied by the caller so this
// package stays independent of the recurrence's exact algebra. rowCounters
// must have at least maxT entries; it is typically a per-sequence slice of
// a Workspace's alphaCounters so the call allocates nothing of its own.
func (p *Pool) ComputeAlphaRowTiled(rowCounters []atomic.Int64, maxT, maxU int, cell func(t, u int)) {
	counters := NewRowCounters(rowCounters[:maxT])
	rowsPerWorker := (maxT + p.numWorkers - 1) / p.numWorkers
	if rowsPerWorker < 1 {
		rowsPerWorker = 1
	}

	var wg sync.WaitGroup
	for start := 0; start < maxT; start += rowsPerWorker {
		end := start + rowsPerWorker
		if end > maxT {
			end = maxT
		}
		wg.Add(1)
		start, end := start, end
		p.workC <- func() {
			defer wg.Done()
			for t := start; t < end; t++ {
				for u := 0; u < maxU; u++ {
					if t > 0 {
						counters.WaitFor(t-1, u+1)
					}
					cell(t, u)
					counters.Advance(t, u+1)
				}
			}
		}
	}
	wg.Wait()
}

// ComputeBetaRowTiled is the backward-sweep counterpart to
// ComputeAlphaRowTiled: row groups run from the bottom up, each row
// finalised right to left, waiting on the row below rather than above.
// rowCounters follows the same caller-owned contract as
// ComputeAlphaRowTiled's.
func (p *Pool) ComputeBetaRowTiled(rowCounters []atomic.Int64, maxT, maxU int, cell func(t, u int)) {
	counters := NewRowCounters(rowCounters[:maxT])
	rowsPerWorker := (maxT + p.numWorkers - 1) / p.numWorkers
	if rowsPerWorker < 1 {
		rowsPerWorker = 1
	}

	var wg sync.WaitGroup
	for end := maxT; end > 0; end -= rowsPerWorker {
		start := end - rowsPerWorker
		if start < 0 {
			start = 0
		}
		wg.Add(1)
		start, end := start, end
		p.workC <- func() {
			defer wg.Done()
			for t := end - 1; t >= start; t-- {
				for u := maxU - 1; u >= 0; u-- {
					if t < maxT-1 {
						counters.WaitFor(t+1, maxU-u)
					}
					cell(t, u)
					counters.Advance(t, maxU-u)
				}
			}
		}
	}
	wg.Wait()
}
