package lattice

import (
	"math"
	"testing"

	"github.com/tspeech/rnnt-loss/internal/band"
	"github.com/tspeech/rnnt-loss/internal/sparse"
)

// e1SkipEmit builds the skip/emit buffers for spec.md scenario E1:
// T=2, U=2 (tgtLen, prepended blank + one target), D=2, blank=0, target=[1],
// logits all zero so every skip/emit is -log(2).
func e1SkipEmit() (skip, emit []float32) {
	v := float32(-math.Log(2))
	skip = []float32{v, v, v, v}
	emit = []float32{v, v, v, v}
	return
}

func TestComputeAlphaBetaAgreeE1(t *testing.T) {
	skip, emit := e1SkipEmit()
	alpha := make([]float32, 4)
	beta := make([]float32, 4)

	fwd := ComputeAlpha(skip, emit, 2, 2, 2, alpha)
	bwd := ComputeBeta(skip, emit, 2, 2, 2, beta)

	if math.Abs(float64(fwd-bwd)) > 1e-5 {
		t.Errorf("forward score %f != backward score %f", fwd, bwd)
	}
	want := float32(-2 * math.Log(2))
	if math.Abs(float64(fwd-want)) > 1e-5 {
		t.Errorf("forward score = %f, want %f", fwd, want)
	}
}

func TestRestrictedMatchesDenseWithInfiniteBuffer(t *testing.T) {
	skip, emit := e1SkipEmit()
	alphaDense := make([]float32, 4)
	alphaRestricted := make([]float32, 4)

	fwdDense := ComputeAlpha(skip, emit, 2, 2, 2, alphaDense)

	bd := band.New([]int{0, 0}, 2, 2, 1<<20, 1<<20)
	fwdRestricted := ComputeAlphaRestricted(skip, emit, 2, 2, 2, alphaRestricted, bd)

	if math.Abs(float64(fwdDense-fwdRestricted)) > 1e-5 {
		t.Errorf("dense forward %f != restricted forward %f", fwdDense, fwdRestricted)
	}
}

func TestRestrictedInfeasibleAlignmentIsNegInf(t *testing.T) {
	skip, emit := e1SkipEmit()
	alpha := make([]float32, 4)

	// wpEnds=[0,0] with zero buffer forces column 1 to t=0 only, but the
	// forward pass needs t=1 to reach u=1 from the t==0 boundary row when
	// srcLen=2 — the alignment becomes infeasible, matching spec.md E6.
	bd := band.New([]int{0, 0}, 2, 2, 0, 0)
	fwd := ComputeAlphaRestricted(skip, emit, 2, 2, 2, alpha, bd)
	if fwd != float32(math.Inf(-1)) {
		t.Errorf("forward score = %f, want -Inf (infeasible alignment)", fwd)
	}
}

func TestSparseMatchesDenseWhenFullyCovered(t *testing.T) {
	skip, emit := e1SkipEmit()
	alphaDense := make([]float32, 4)
	fwdDense := ComputeAlpha(skip, emit, 2, 2, 2, alphaDense)

	// Full coverage: column 0 and column 1 both span t in [0,1].
	l := sparse.New([]int{0, 1, 0, 1}, 2)
	skipSparse := []float32{skip[0], skip[2], skip[1], skip[3]} // (t=0,u=0),(t=1,u=0),(t=0,u=1),(t=1,u=1)
	emitSparse := []float32{emit[0], emit[2], emit[1], emit[3]}
	alphaSparse := make([]float32, l.NumCells())

	fwdSparse := ComputeAlphaSparse(skipSparse, emitSparse, l, 2, 2, alphaSparse)
	if math.Abs(float64(fwdDense-fwdSparse)) > 1e-5 {
		t.Errorf("dense forward %f != sparse forward %f", fwdDense, fwdSparse)
	}
}

func TestSparseAlphaBetaAgree(t *testing.T) {
	skip, emit := e1SkipEmit()
	l := sparse.New([]int{0, 1, 0, 1}, 2)
	skipSparse := []float32{skip[0], skip[2], skip[1], skip[3]}
	emitSparse := []float32{emit[0], emit[2], emit[1], emit[3]}

	alpha := make([]float32, l.NumCells())
	beta := make([]float32, l.NumCells())
	fwd := ComputeAlphaSparse(skipSparse, emitSparse, l, 2, 2, alpha)
	bwd := ComputeBetaSparse(skipSparse, emitSparse, l, 2, 2, beta)

	if math.Abs(float64(fwd-bwd)) > 1e-5 {
		t.Errorf("sparse forward %f != sparse backward %f", fwd, bwd)
	}
}
