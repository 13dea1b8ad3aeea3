// Package grad implements the RNN-T gradient stage: closed-form gradient
// assembly from logits, denominator, alpha, and beta, with optional
// symmetric clamping and in-place zeroing of padding when the gradient
// buffer aliases the logits buffer.
//
// Grounded on original_source/torchaudio/csrc/rnnt/cpu/cpu_kernels.h's
// ComputeGradientsOneSequence. The fusedLogSmax=false branch (omitting the
// denominator term from c) is derived from spec.md §4.8/§9 rather than
// copied — see DESIGN.md, Open Question #2.
package grad

import "github.com/tspeech/rnnt-loss/internal/mathutil"

// ComputeSequence fills gradients (maxT*maxU*d, indexed [t*maxU*d+u*d+k])
// for the in-band region t in [0,srcLen), u in [0,tgtLen) of one sequence.
// logits, denom, alpha, and beta share the same dense indexing as the
// stages that produced them. cost is -beta(0,0). When fused is false, c
// omits the -denom(t,u) term (logits are assumed already log-normalised).
// gradients may alias logits.
func ComputeSequence(logits []float32, targets []int, denom, alpha, beta []float32, maxT, maxU, d, srcLen, tgtLen, blank int, clamp float32, fused, aliasing bool, cost float32, gradients []float32) {
	T, U := srcLen, tgtLen

	for t := 0; t < T; t++ {
		for u := 0; u < U; u++ {
			cell := t*maxU + u
			c := alpha[cell] + cost
			if fused {
				c -= denom[cell]
			}
			base := cell * d
			betaHere := beta[cell]

			for k := 0; k < d; k++ {
				g := logits[base+k] + c
				var val float32
				switch {
				case k == blank && t == T-1 && u == U-1:
					val = mathutil.Exp(g+betaHere) - mathutil.Exp(g)
				case k == blank && t < T-1:
					val = mathutil.Exp(g+betaHere) - mathutil.Exp(g+beta[(t+1)*maxU+u])
				case u < U-1 && k == targets[u]:
					val = mathutil.Exp(g+betaHere) - mathutil.Exp(g+beta[t*maxU+u+1])
				default:
					val = mathutil.Exp(g + betaHere)
				}
				gradients[base+k] = mathutil.ClampSym(val, clamp)
			}
		}
	}

	if !aliasing {
		return
	}

	for t := T; t < maxT; t++ {
		for u := 0; u < maxU; u++ {
			base := (t*maxU + u) * d
			for k := 0; k < d; k++ {
				gradients[base+k] = 0
			}
		}
	}
	for t := 0; t < T; t++ {
		for u := U; u < maxU; u++ {
			base := (t*maxU + u) * d
			for k := 0; k < d; k++ {
				gradients[base+k] = 0
			}
		}
	}
}
