// Package lattice implements the RNN-T forward (alpha) and backward (beta)
// dynamic programs over one sequence's time x label-step grid, in dense,
// band-restricted, and sparse forms.
//
// Grounded on the teacher's acoustic/baumwelch.go Forward/Backward (a
// log-domain 2-D DP generalized here from HMM time x state to RNN-T time x
// label-step), cross-checked recurrence-for-recurrence against
// original_source/torchaudio/csrc/rnnt/cpu/cpu_kernels.h's
// ComputeAlphaOneSequence[Restricted]/ComputeBetaOneSequence[Restricted].
package lattice

import (
	"github.com/tspeech/rnnt-loss/internal/band"
	"github.com/tspeech/rnnt-loss/internal/mathutil"
	"github.com/tspeech/rnnt-loss/internal/sparse"
)

// ComputeAlpha runs the dense forward recurrence. skip, emit, and alpha are
// all indexed [t*maxU+u] over the full srcLen x tgtLen region. Returns the
// forward score alpha(T-1,U-1) + skip(T-1,U-1).
func ComputeAlpha(skip, emit []float32, maxU, srcLen, tgtLen int, alpha []float32) float32 {
	T, U := srcLen, tgtLen

	alpha[0] = 0

	for t := 1; t < T; t++ {
		alpha[t*maxU] = alpha[(t-1)*maxU] + skip[(t-1)*maxU]
	}
	for u := 1; u < U; u++ {
		alpha[u] = alpha[u-1] + emit[u-1]
	}
	for t := 1; t < T; t++ {
		for u := 1; u < U; u++ {
			alpha[t*maxU+u] = mathutil.LSE(
				alpha[(t-1)*maxU+u]+skip[(t-1)*maxU+u],
				alpha[t*maxU+u-1]+emit[t*maxU+u-1],
			)
		}
	}
	last := (T-1)*maxU + (U - 1)
	return alpha[last] + skip[last]
}

// ComputeBeta runs the dense backward recurrence, symmetric to ComputeAlpha.
// Returns the backward score beta(0,0).
func ComputeBeta(skip, emit []float32, maxU, srcLen, tgtLen int, beta []float32) float32 {
	T, U := srcLen, tgtLen

	last := (T-1)*maxU + (U - 1)
	beta[last] = skip[last]

	for t := T - 2; t >= 0; t-- {
		beta[t*maxU+U-1] = beta[(t+1)*maxU+U-1] + skip[t*maxU+U-1]
	}
	for u := U - 2; u >= 0; u-- {
		beta[(T-1)*maxU+u] = beta[(T-1)*maxU+u+1] + emit[(T-1)*maxU+u]
	}
	for t := T - 2; t >= 0; t-- {
		for u := U - 2; u >= 0; u-- {
			beta[t*maxU+u] = mathutil.LSE(
				beta[(t+1)*maxU+u]+skip[t*maxU+u],
				beta[t*maxU+u+1]+emit[t*maxU+u],
			)
		}
	}
	return beta[0]
}

// ComputeAlphaRestricted runs the band-restricted forward recurrence. All
// cells are pre-filled with -Inf; the boundary rows stop as soon as the
// band rejects a transition; interior cells only iterate over
// bd.ValidTimeRanges(u).
func ComputeAlphaRestricted(skip, emit []float32, maxU, srcLen, tgtLen int, alpha []float32, bd *band.Band) float32 {
	T, U := srcLen, tgtLen

	for i := range alpha[:T*maxU] {
		alpha[i] = mathutil.NegInf
	}
	alpha[0] = 0

	for t := 1; t < T; t++ {
		if !bd.AlphaBlankTransition(t, 0) {
			break
		}
		alpha[t*maxU] = alpha[(t-1)*maxU] + skip[(t-1)*maxU]
	}
	for u := 1; u < U; u++ {
		if !bd.AlphaEmitTransition(0, u) {
			break
		}
		alpha[u] = alpha[u-1] + emit[u-1]
	}

	for u := 1; u < U; u++ {
		startT, endT := bd.ValidTimeRanges(u)
		for t := startT; t <= endT; t++ {
			skipV, emitV := mathutil.NegInf, mathutil.NegInf
			if bd.AlphaBlankTransition(t, u) {
				skipV = alpha[(t-1)*maxU+u] + skip[(t-1)*maxU+u]
			}
			if bd.AlphaEmitTransition(t, u) {
				emitV = alpha[t*maxU+u-1] + emit[t*maxU+u-1]
			}
			if skipV != mathutil.NegInf || emitV != mathutil.NegInf {
				alpha[t*maxU+u] = mathutil.LSE(skipV, emitV)
			}
		}
	}

	last := (T-1)*maxU + (U - 1)
	if alpha[last] == mathutil.NegInf {
		return mathutil.NegInf
	}
	return alpha[last] + skip[last]
}

// ComputeBetaRestricted runs the band-restricted backward recurrence,
// symmetric to ComputeAlphaRestricted.
func ComputeBetaRestricted(skip, emit []float32, maxU, srcLen, tgtLen int, beta []float32, bd *band.Band) float32 {
	T, U := srcLen, tgtLen

	for i := range beta[:T*maxU] {
		beta[i] = mathutil.NegInf
	}
	last := (T-1)*maxU + (U - 1)
	beta[last] = skip[last]

	for t := T - 2; t >= 0; t-- {
		if !bd.BetaBlankTransition(t, U-1) {
			break
		}
		beta[t*maxU+U-1] = beta[(t+1)*maxU+U-1] + skip[t*maxU+U-1]
	}
	for u := U - 2; u >= 0; u-- {
		if !bd.BetaEmitTransition(T-1, u) {
			break
		}
		beta[(T-1)*maxU+u] = beta[(T-1)*maxU+u+1] + emit[(T-1)*maxU+u]
	}

	for u := U - 2; u >= 0; u-- {
		startT, endT := bd.ValidTimeRanges(u)
		for t := endT; t >= startT; t-- {
			skipV, emitV := mathutil.NegInf, mathutil.NegInf
			if bd.BetaBlankTransition(t, u) {
				skipV = beta[(t+1)*maxU+u] + skip[t*maxU+u]
			}
			if bd.BetaEmitTransition(t, u) {
				emitV = beta[t*maxU+u+1] + emit[t*maxU+u]
			}
			if skipV != mathutil.NegInf || emitV != mathutil.NegInf {
				beta[t*maxU+u] = mathutil.LSE(skipV, emitV)
			}
		}
	}

	if beta[0] == mathutil.NegInf {
		return mathutil.NegInf
	}
	return beta[0]
}

// ComputeAlphaSparse runs the forward recurrence over a sparse Layout: skip,
// emit, and alpha are all indexed through l.Index. Adjacency is determined
// purely by l.Contains — cells outside the band are absent from memory
// rather than pre-filled with -Inf.
func ComputeAlphaSparse(skip, emit []float32, l *sparse.Layout, srcLen, tgtLen int, alpha []float32) float32 {
	if !l.Contains(0, 0) {
		return mathutil.NegInf
	}
	alpha[l.Index(0, 0)] = 0

	for u := 0; u < tgtLen; u++ {
		startT, endT := l.Range(u)
		for t := startT; t <= endT; t++ {
			if t == 0 && u == 0 {
				continue
			}
			skipV, emitV := mathutil.NegInf, mathutil.NegInf
			if t > 0 && l.Contains(t-1, u) {
				skipV = alpha[l.Index(t-1, u)] + skip[l.Index(t-1, u)]
			}
			if u > 0 && l.Contains(t, u-1) {
				emitV = alpha[l.Index(t, u-1)] + emit[l.Index(t, u-1)]
			}
			if skipV == mathutil.NegInf && emitV == mathutil.NegInf {
				alpha[l.Index(t, u)] = mathutil.NegInf
				continue
			}
			alpha[l.Index(t, u)] = mathutil.LSE(skipV, emitV)
		}
	}

	if !l.Contains(srcLen-1, tgtLen-1) {
		return mathutil.NegInf
	}
	idx := l.Index(srcLen-1, tgtLen-1)
	if alpha[idx] == mathutil.NegInf {
		return mathutil.NegInf
	}
	return alpha[idx] + skip[idx]
}

// ComputeBetaSparse runs the backward recurrence over a sparse Layout,
// symmetric to ComputeAlphaSparse.
func ComputeBetaSparse(skip, emit []float32, l *sparse.Layout, srcLen, tgtLen int, beta []float32) float32 {
	if !l.Contains(srcLen-1, tgtLen-1) {
		return mathutil.NegInf
	}
	lastIdx := l.Index(srcLen-1, tgtLen-1)
	beta[lastIdx] = skip[lastIdx]

	for u := tgtLen - 1; u >= 0; u-- {
		startT, endT := l.Range(u)
		for t := endT; t >= startT; t-- {
			if t == srcLen-1 && u == tgtLen-1 {
				continue
			}
			skipV, emitV := mathutil.NegInf, mathutil.NegInf
			if t+1 < srcLen && l.Contains(t+1, u) {
				skipV = beta[l.Index(t+1, u)] + skip[l.Index(t, u)]
			}
			if u+1 < tgtLen && l.Contains(t, u+1) {
				emitV = beta[l.Index(t, u+1)] + emit[l.Index(t, u)]
			}
			if skipV == mathutil.NegInf && emitV == mathutil.NegInf {
				beta[l.Index(t, u)] = mathutil.NegInf
				continue
			}
			beta[l.Index(t, u)] = mathutil.LSE(skipV, emitV)
		}
	}

	if !l.Contains(0, 0) {
		return mathutil.NegInf
	}
	idx := l.Index(0, 0)
	return beta[idx]
}
