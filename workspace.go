package rnnt

import (
	"sync/atomic"

	"github.com/tspeech/rnnt-loss/internal/dtype"
)

// Workspace is a single contiguous scratch allocation sliced into typed
// sub-buffers for denominators, skip/emit log-probabilities, alphas, and
// betas, plus separately allocated atomic counters, one per (sequence, row),
// for the wave-front back-end. Grounded on the teacher's acoustic/gmm_batch.go BatchWorkspace,
// generalized from several independently-grown slices to one allocation
// sized once by gridCells(Options) and sliced into sub-buffers, per
// spec.md §4.2's "single contiguous allocation" requirement.
//
// Workspace does not zero its buffers on reuse. Every stage that reads a
// cell must have written it first in this call, or rely on the
// band-restricted stage's -Inf pre-fill.
type Workspace struct {
	buf []float32

	denom []float32 // gridCells
	skip  []float32 // gridCells
	emit  []float32 // gridCells
	alpha []float32 // gridCells
	beta  []float32 // gridCells

	quant []dtype.Float16 // gridCells*numTargets, only allocated for Options.WithDType(DTypeFloat16)

	alphaCounters []atomic.Int64 // one per (sequence, row)
	betaCounters  []atomic.Int64
}

// gridCells returns the number of (time, label-step) cells across the
// whole batch: dense mode uses B*H*T*U, sparse mode uses sparseCells.
func gridCells(o Options, sparse bool) int {
	if sparse {
		return o.sparseCells
	}
	return o.batchSize * o.nHypos * o.maxSrcLen * o.maxTgtLen
}

// NewWorkspace allocates a Workspace sized for dense-mode calls against o.
func NewWorkspace(o Options) *Workspace {
	return newWorkspace(o, false)
}

// NewSparseWorkspace allocates a Workspace sized for sparse-mode calls
// against o; o.sparseCells must already reflect the batch's total
// materialised cell count.
func NewSparseWorkspace(o Options) *Workspace {
	return newWorkspace(o, true)
}

func newWorkspace(o Options, sparse bool) *Workspace {
	n := gridCells(o, sparse)
	buf := make([]float32, 5*n)
	w := &Workspace{
		buf:   buf,
		denom: buf[0*n : 1*n],
		skip:  buf[1*n : 2*n],
		emit:  buf[2*n : 3*n],
		alpha: buf[3*n : 4*n],
		beta:  buf[4*n : 5*n],
	}
	rows := o.batchSize * o.nHypos * o.maxSrcLen
	w.alphaCounters = make([]atomic.Int64, rows)
	w.betaCounters = make([]atomic.Int64, rows)

	if o.dtype == DTypeFloat16 {
		w.quant = make([]dtype.Float16, n*o.numTargets)
	}
	return w
}

// Reset zeroes nothing; it exists only to document the reuse contract at
// call sites: a caller reusing a Workspace across calls of compatible
// shape does not need to clear it, since every dense-mode read is
// preceded by a write and restricted-mode reads are preceded by an
// explicit -Inf pre-fill in internal/lattice.
func (w *Workspace) Reset() {}
