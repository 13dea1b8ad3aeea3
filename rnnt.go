// Package rnnt computes the RNN-Transducer loss: given per-frame,
// per-label-step logits over a vocabulary with a distinguished blank
// symbol and a batch of target sequences, it produces the negative
// log-likelihood of each target sequence under the RNN-T alignment
// lattice and, on request, the gradient with respect to the logits.
//
// The driver sequences the stages in internal/denom, internal/logprob,
// internal/lattice, and internal/grad per sequence, dispatching either
// sequentially (golang.org/x/sync/errgroup, first-error-wins fan-out) or
// to internal/wavefront's row-tiled back-end, selected by
// Options.parallelism.
package rnnt

import (
	"context"
	"sync/atomic"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/tspeech/rnnt-loss/internal/band"
	"github.com/tspeech/rnnt-loss/internal/denom"
	"github.com/tspeech/rnnt-loss/internal/dtype"
	"github.com/tspeech/rnnt-loss/internal/grad"
	"github.com/tspeech/rnnt-loss/internal/lattice"
	"github.com/tspeech/rnnt-loss/internal/logprob"
	"github.com/tspeech/rnnt-loss/internal/mathutil"
	"github.com/tspeech/rnnt-loss/internal/sparse"
	"github.com/tspeech/rnnt-loss/internal/wavefront"
)

// Batch bundles one dense call's input buffers. Logits is indexed
// [bh*T*U*D + t*U*D + u*D + k] for bh in [0, B*H); Targets is indexed
// [b*(U-1) + u] for b in [0, B) (targets and lengths are per batch item,
// shared across the H hypotheses of that item); WPEnds, when non-nil, is
// indexed [bh*U + u] and required whenever Options has an alignment band.
type Batch struct {
	Logits     []float32
	Targets    []int
	SrcLengths []int
	TgtLengths []int
	WPEnds     []int
}

// SparseBatch supplies the per-(b,h) compacted layouts for sparse-mode
// calls. ValidRanges is indexed [offset(bh) + 2*u : offset(bh)+2*u+2] where
// offset(bh) = 2 * sum of maxTgtLen over preceding bh (i.e. 2*bh*maxTgtLen
// for a dense-padded U); CellsPerSample holds each sequence's materialised
// cell count, summing to Options.sparseCells.
type SparseBatch struct {
	ValidRanges    []int
	CellsPerSample []int
}

// Compute runs the full dense pipeline: denominator, log-probabilities,
// alpha/beta/cost, and (if gradients is non-nil) gradients. aliasing must
// be true when gradients shares backing storage with b.Logits.
func Compute(b Batch, ws *Workspace, o Options, costs, gradients []float32, aliasing bool) (Status, error) {
	return run(b, nil, ws, o, costs, gradients, aliasing, false, true, true)
}

// ComputeSparse is Compute's sparse-mode counterpart.
func ComputeSparse(b Batch, sb SparseBatch, ws *Workspace, o Options, costs, gradients []float32, aliasing bool) (Status, error) {
	return run(b, &sb, ws, o, costs, gradients, aliasing, true, true, true)
}

// ComputeAlphas runs denominator, log-probabilities, and the forward
// recurrence only, leaving ws.alpha populated for diagnostics. No cost or
// gradient is produced.
func ComputeAlphas(b Batch, ws *Workspace, o Options) (Status, error) {
	return run(b, nil, ws, o, nil, nil, false, false, true, false)
}

// ComputeAlphasSparse is ComputeAlphas's sparse-mode counterpart.
func ComputeAlphasSparse(b Batch, sb SparseBatch, ws *Workspace, o Options) (Status, error) {
	return run(b, &sb, ws, o, nil, nil, false, true, true, false)
}

// ComputeBetas runs denominator, log-probabilities, and the backward
// recurrence, producing costs but no gradients.
func ComputeBetas(b Batch, ws *Workspace, o Options, costs []float32) (Status, error) {
	return run(b, nil, ws, o, costs, nil, false, false, false, true)
}

// ComputeBetasSparse is ComputeBetas's sparse-mode counterpart.
func ComputeBetasSparse(b Batch, sb SparseBatch, ws *Workspace, o Options, costs []float32) (Status, error) {
	return run(b, &sb, ws, o, costs, nil, false, true, false, true)
}

// run is shared by every entry point. wantAlpha/wantBeta select which
// lattice passes execute; when both are requested the recurrences still
// run independently (they read disjoint predecessor sets, per spec's
// concurrency model) and the cost is taken from the backward score.
func run(b Batch, sb *SparseBatch, ws *Workspace, o Options, costs, gradients []float32, aliasing, isSparse, wantAlpha, wantBeta bool) (Status, error) {
	if o.strict && !isSparse {
		if err := ValidateShapes(b, ws, o); err != nil {
			return StatusComputeDenominatorReduceMaxFailed, errors.Wrap(err, "rnnt: precondition check failed")
		}
	}

	numSeqs := o.batchSize * o.nHypos

	var cellOffsets []int
	if isSparse {
		cellOffsets = make([]int, numSeqs)
		running := 0
		for i := 0; i < numSeqs; i++ {
			cellOffsets[i] = running
			running += sb.CellsPerSample[i]
		}
	}

	var pool *wavefront.Pool
	if o.parallelism == WaveFront {
		pool = wavefront.New(o.maxWorkers)
		defer pool.Close()
	}

	g, ctx := errgroup.WithContext(context.Background())
	if o.maxWorkers > 0 {
		g.SetLimit(o.maxWorkers)
	}

	for bh := 0; bh < numSeqs; bh++ {
		if ctx.Err() != nil {
			break
		}
		bh := bh
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			return computeOneSequence(b, sb, ws, o, costs, gradients, aliasing, isSparse, wantAlpha, wantBeta, pool, bh, cellOffsets)
		})
	}

	if err := g.Wait(); err != nil {
		return failureStatus(err), errors.Wrap(err, "rnnt: sequence failed")
	}
	return StatusSuccess, nil
}

type stageError struct {
	status Status
	cause  error
}

func (e *stageError) Error() string { return e.status.String() + ": " + e.cause.Error() }
func (e *stageError) Unwrap() error { return e.cause }

func failureStatus(err error) Status {
	if se, ok := err.(*stageError); ok {
		return se.status
	}
	return StatusComputeAlphasBetasCostsFailed
}

// computeOneSequence runs one sequence's pipeline. A panic partway through
// (malformed Workspace/Options, corrupt band input) is recovered and
// reported as the stage-specific Status that was in flight, matching
// spec.md §7's "back-end failures ... returned as stage-specific status
// codes; the driver does not retry" — this pure-CPU port has no launch or
// synchronization failures of its own, so a recovered panic is the only
// surviving failure mode.
func computeOneSequence(b Batch, sb *SparseBatch, ws *Workspace, o Options, costs, gradients []float32, aliasing, isSparse, wantAlpha, wantBeta bool, pool *wavefront.Pool, bh int, cellOffsets []int) (err error) {
	stage := StatusComputeDenominatorReduceMaxFailed
	defer func() {
		if r := recover(); r != nil {
			err = &stageError{status: stage, cause: errors.Errorf("%v", r)}
		}
	}()

	batchItem := bh / o.nHypos
	srcLen := b.SrcLengths[batchItem]
	tgtLen := b.TgtLengths[batchItem] + 1
	maxU := o.maxTgtLen
	d := o.numTargets

	targets := b.Targets[batchItem*(o.maxTgtLen-1) : batchItem*(o.maxTgtLen-1)+tgtLen-1]

	if isSparse {
		return computeOneSparseSequence(b, sb, ws, o, costs, gradients, aliasing, wantAlpha, wantBeta, bh, srcLen, tgtLen, targets, cellOffsets[bh])
	}

	gridN := o.maxSrcLen * maxU
	cellOff := bh * gridN
	logitsOff := cellOff * d

	logitsSeq := b.Logits[logitsOff : logitsOff+gridN*d]
	denomSeq := ws.denom[cellOff : cellOff+gridN]
	skipSeq := ws.skip[cellOff : cellOff+gridN]
	emitSeq := ws.emit[cellOff : cellOff+gridN]
	alphaSeq := ws.alpha[cellOff : cellOff+gridN]
	betaSeq := ws.beta[cellOff : cellOff+gridN]

	var quantSeq []dtype.Float16
	if o.dtype == DTypeFloat16 {
		quantSeq = ws.quant[logitsOff : logitsOff+gridN*d]
		dtype.FromFloat32(logitsSeq, quantSeq)
		dtype.ToFloat32(quantSeq, logitsSeq)
	}

	denom.ComputeSequence(logitsSeq, gridN, d, denomSeq)

	stage = StatusComputeLogProbsFailed
	logprob.ComputeSequence(logitsSeq, targets, denomSeq, o.maxSrcLen, maxU, d, srcLen, tgtLen, o.blank, o.fusedLogSmax, skipSeq, emitSeq)

	var bd *band.Band
	if o.HasAlignmentBand() {
		wpEnds := b.WPEnds[bh*maxU : bh*maxU+maxU]
		bd = band.New(wpEnds, srcLen, tgtLen, o.lBuffer, o.rBuffer)
	}

	rowOff := bh * o.maxSrcLen
	alphaCounters := ws.alphaCounters[rowOff : rowOff+o.maxSrcLen]
	betaCounters := ws.betaCounters[rowOff : rowOff+o.maxSrcLen]

	stage = StatusComputeAlphasBetasCostsFailed
	var fwd, bwd float32
	if wantAlpha {
		fwd = runAlpha(pool, alphaCounters, skipSeq, emitSeq, maxU, srcLen, tgtLen, alphaSeq, bd)
	}
	if wantBeta {
		bwd = runBeta(pool, betaCounters, skipSeq, emitSeq, maxU, srcLen, tgtLen, betaSeq, bd)
	}

	cost := -fwd
	if wantBeta {
		cost = -bwd
	}
	if costs != nil {
		costs[bh] = cost
	}

	if gradients != nil {
		stage = StatusComputeGradientsFailed
		gradSeq := gradients[logitsOff : logitsOff+gridN*d]
		grad.ComputeSequence(logitsSeq, targets, denomSeq, alphaSeq, betaSeq, o.maxSrcLen, maxU, d, srcLen, tgtLen, o.blank, o.clamp, o.fusedLogSmax, aliasing, cost, gradSeq)
		if o.dtype == DTypeFloat16 {
			dtype.FromFloat32(gradSeq, quantSeq)
			dtype.ToFloat32(quantSeq, gradSeq)
		}
	}
	return nil
}

func runAlpha(pool *wavefront.Pool, counters []atomic.Int64, skip, emit []float32, maxU, srcLen, tgtLen int, alpha []float32, bd *band.Band) float32 {
	if bd != nil {
		return lattice.ComputeAlphaRestricted(skip, emit, maxU, srcLen, tgtLen, alpha, bd)
	}
	if pool != nil {
		pool.ComputeAlphaRowTiled(counters, srcLen, tgtLen, func(t, u int) {
			fillAlphaCell(skip, emit, maxU, alpha, t, u)
		})
		last := (srcLen-1)*maxU + (tgtLen - 1)
		return alpha[last] + skip[last]
	}
	return lattice.ComputeAlpha(skip, emit, maxU, srcLen, tgtLen, alpha)
}

func runBeta(pool *wavefront.Pool, counters []atomic.Int64, skip, emit []float32, maxU, srcLen, tgtLen int, beta []float32, bd *band.Band) float32 {
	if bd != nil {
		return lattice.ComputeBetaRestricted(skip, emit, maxU, srcLen, tgtLen, beta, bd)
	}
	if pool != nil {
		pool.ComputeBetaRowTiled(counters, srcLen, tgtLen, func(t, u int) {
			fillBetaCell(skip, emit, maxU, srcLen, tgtLen, beta, t, u)
		})
		return beta[0]
	}
	return lattice.ComputeBeta(skip, emit, maxU, srcLen, tgtLen, beta)
}

func fillAlphaCell(skip, emit []float32, maxU int, alpha []float32, t, u int) {
	switch {
	case t == 0 && u == 0:
		alpha[0] = 0
	case t == 0:
		alpha[u] = alpha[u-1] + emit[u-1]
	case u == 0:
		alpha[t*maxU] = alpha[(t-1)*maxU] + skip[(t-1)*maxU]
	default:
		alpha[t*maxU+u] = mathutil.LSE(
			alpha[(t-1)*maxU+u]+skip[(t-1)*maxU+u],
			alpha[t*maxU+u-1]+emit[t*maxU+u-1],
		)
	}
}

func fillBetaCell(skip, emit []float32, maxU, srcLen, tgtLen int, beta []float32, t, u int) {
	last := (srcLen-1)*maxU + (tgtLen - 1)
	switch {
	case t == srcLen-1 && u == tgtLen-1:
		beta[last] = skip[last]
	case t == srcLen-1:
		beta[t*maxU+u] = beta[t*maxU+u+1] + emit[t*maxU+u]
	case u == tgtLen-1:
		beta[t*maxU+u] = beta[(t+1)*maxU+u] + skip[t*maxU+u]
	default:
		beta[t*maxU+u] = mathutil.LSE(
			beta[(t+1)*maxU+u]+skip[t*maxU+u],
			beta[t*maxU+u+1]+emit[t*maxU+u],
		)
	}
}

func computeOneSparseSequence(b Batch, sb *SparseBatch, ws *Workspace, o Options, costs, gradients []float32, aliasing, wantAlpha, wantBeta bool, bh, srcLen, tgtLen int, targets []int, cellOff int) (err error) {
	stage := StatusComputeDenominatorReduceMaxFailed
	defer func() {
		if r := recover(); r != nil {
			err = &stageError{status: stage, cause: errors.Errorf("%v", r)}
		}
	}()

	maxU := o.maxTgtLen
	d := o.numTargets

	vrOff := bh * 2 * maxU
	validRanges := sb.ValidRanges[vrOff : vrOff+2*maxU]
	layout := sparse.New(validRanges, maxU)

	n := sb.CellsPerSample[bh]

	logitsSeq := b.Logits[cellOff*d : cellOff*d+n*d]
	denomSeq := ws.denom[cellOff : cellOff+n]
	skipSeq := ws.skip[cellOff : cellOff+n]
	emitSeq := ws.emit[cellOff : cellOff+n]
	alphaSeq := ws.alpha[cellOff : cellOff+n]
	betaSeq := ws.beta[cellOff : cellOff+n]

	var quantSeq []dtype.Float16
	if o.dtype == DTypeFloat16 {
		quantSeq = ws.quant[cellOff*d : cellOff*d+n*d]
		dtype.FromFloat32(logitsSeq, quantSeq)
		dtype.ToFloat32(quantSeq, logitsSeq)
	}

	denom.ComputeSequence(logitsSeq, n, d, denomSeq)

	stage = StatusComputeLogProbsFailed
	sparseLogProb(logitsSeq, targets, denomSeq, layout, srcLen, tgtLen, d, o.blank, o.fusedLogSmax, skipSeq, emitSeq)

	stage = StatusComputeAlphasBetasCostsFailed
	var fwd, bwd float32
	if wantAlpha {
		fwd = lattice.ComputeAlphaSparse(skipSeq, emitSeq, layout, srcLen, tgtLen, alphaSeq)
	}
	if wantBeta {
		bwd = lattice.ComputeBetaSparse(skipSeq, emitSeq, layout, srcLen, tgtLen, betaSeq)
	}

	cost := -bwd
	if wantAlpha && !wantBeta {
		cost = -fwd
	}
	if costs != nil {
		costs[bh] = cost
	}

	if gradients != nil {
		stage = StatusComputeGradientsFailed
		gradSeq := gradients[cellOff*d : cellOff*d+n*d]
		sparseGrad(logitsSeq, targets, denomSeq, alphaSeq, betaSeq, layout, srcLen, tgtLen, d, o.blank, o.clamp, o.fusedLogSmax, cost, gradSeq)
		if o.dtype == DTypeFloat16 {
			dtype.FromFloat32(gradSeq, quantSeq)
			dtype.ToFloat32(quantSeq, gradSeq)
		}
	}
	return nil
}

// sparseLogProb and sparseGrad mirror internal/logprob.ComputeSequence and
// internal/grad.ComputeSequence, but index through a sparse.Layout instead
// of a dense maxU stride; they live here rather than in those packages so
// those packages don't need to depend on internal/sparse.
func sparseLogProb(logits []float32, targets []int, denom []float32, l *sparse.Layout, srcLen, tgtLen, d, blank int, fused bool, skip, emit []float32) {
	for u := 0; u < tgtLen; u++ {
		startT, endT := l.Range(u)
		for t := startT; t <= endT && t < srcLen; t++ {
			if t < 0 {
				continue
			}
			idx := l.Index(t, u)
			base := idx * d
			var norm float32
			if fused {
				norm = denom[idx]
			}
			if u < tgtLen-1 {
				emit[idx] = logits[base+targets[u]] - norm
			}
			skip[idx] = logits[base+blank] - norm
		}
	}
}

func sparseGrad(logits []float32, targets []int, denom, alpha, beta []float32, l *sparse.Layout, srcLen, tgtLen, d, blank int, clamp float32, fused bool, cost float32, gradients []float32) {
	for u := 0; u < tgtLen; u++ {
		startT, endT := l.Range(u)
		for t := startT; t <= endT && t < srcLen; t++ {
			if t < 0 {
				continue
			}
			idx := l.Index(t, u)
			c := alpha[idx] + cost
			if fused {
				c -= denom[idx]
			}
			base := idx * d
			betaHere := beta[idx]

			for k := 0; k < d; k++ {
				g := logits[base+k] + c
				var val float32
				switch {
				case k == blank && t == srcLen-1 && u == tgtLen-1:
					val = mathutil.Exp(g+betaHere) - mathutil.Exp(g)
				case k == blank && t < srcLen-1 && l.Contains(t+1, u):
					val = mathutil.Exp(g+betaHere) - mathutil.Exp(g+beta[l.Index(t+1, u)])
				case u < tgtLen-1 && k == targets[u] && l.Contains(t, u+1):
					val = mathutil.Exp(g+betaHere) - mathutil.Exp(g+beta[l.Index(t, u+1)])
				default:
					val = mathutil.Exp(g + betaHere)
				}
				gradients[base+k] = mathutil.ClampSym(val, clamp)
			}
		}
	}
}
