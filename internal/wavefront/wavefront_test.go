package wavefront

import (
	"math"
	"sync/atomic"
	"testing"

	"github.com/tspeech/rnnt-loss/internal/mathutil"
)

// TestComputeAlphaRowTiledMatchesSequential drives ComputeAlphaRowTiled with
// the same skip/emit cell update internal/lattice.ComputeAlpha uses for
// spec.md scenario E1 (T=2, U=2, D=2, blank=0, target=[1], logits all zero)
// and checks it reaches the same forward score without importing
// internal/lattice (which would create an import cycle were lattice to ever
// depend on wavefront).
func TestComputeAlphaRowTiledMatchesSequential(t *testing.T) {
	v := float32(-math.Log(2))
	skip := []float32{v, v, v, v}
	emit := []float32{v, v, v, v}
	maxT, maxU := 2, 2
	alpha := make([]float32, maxT*maxU)

	p := New(2)
	defer p.Close()

	counters := make([]atomic.Int64, maxT)
	p.ComputeAlphaRowTiled(counters, maxT, maxU, func(t, u int) {
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
	})

	last := (maxT-1)*maxU + (maxU - 1)
	fwd := alpha[last] + skip[last]
	want := float32(-2 * math.Log(2))
	if math.Abs(float64(fwd-want)) > 1e-5 {
		t.Errorf("forward score = %f, want %f", fwd, want)
	}
}

func TestComputeBetaRowTiledMatchesSequential(t *testing.T) {
	v := float32(-math.Log(2))
	skip := []float32{v, v, v, v}
	emit := []float32{v, v, v, v}
	maxT, maxU := 2, 2
	beta := make([]float32, maxT*maxU)
	last := (maxT-1)*maxU + (maxU - 1)

	p := New(2)
	defer p.Close()

	counters := make([]atomic.Int64, maxT)
	p.ComputeBetaRowTiled(counters, maxT, maxU, func(t, u int) {
		switch {
		case t == maxT-1 && u == maxU-1:
			beta[last] = skip[last]
		case t == maxT-1:
			beta[t*maxU+u] = beta[t*maxU+u+1] + emit[t*maxU+u]
		case u == maxU-1:
			beta[t*maxU+u] = beta[(t+1)*maxU+u] + skip[t*maxU+u]
		default:
			beta[t*maxU+u] = mathutil.LSE(
				beta[(t+1)*maxU+u]+skip[t*maxU+u],
				beta[t*maxU+u+1]+emit[t*maxU+u],
			)
		}
	})

	want := float32(-2 * math.Log(2))
	if math.Abs(float64(beta[0]-want)) > 1e-5 {
		t.Errorf("backward score = %f, want %f", beta[0], want)
	}
}

func TestRowCountersWaitForUnblocksAfterAdvance(t *testing.T) {
	c := NewRowCounters(make([]atomic.Int64, 2))
	done := make(chan struct{})
	go func() {
		c.WaitFor(0, 3)
		close(done)
	}()
	c.Advance(0, 3)
	<-done
}

func TestPoolCloseIsIdempotent(t *testing.T) {
	p := New(1)
	p.Close()
	p.Close()
}
