// Package diagnostics exposes matrix views over one sequence's alpha/beta
// lattice for inspection and plotting. Each view is a float64 copy of the
// lattice values; changes to the view do not reach the source buffer.
//
// Grounded on other_examples/23skdu-longbow-fletcher__bert.go's
// mat.NewDense(rows, cols, data)-over-a-flat-slice idiom, adapted from
// hidden-state matrices to lattice score matrices.
package diagnostics

import "gonum.org/v1/gonum/mat"

// AlphaView returns a (srcLen x tgtLen) *mat.Dense holding a float64 copy
// of the alpha buffer computed for one sequence, sliced out of the dense
// maxU stride. alpha must have at least srcLen*maxU elements.
func AlphaView(alpha []float32, maxU, srcLen, tgtLen int) *mat.Dense {
	return denseView(alpha, maxU, srcLen, tgtLen)
}

// BetaView is the beta-buffer counterpart to AlphaView.
func BetaView(beta []float32, maxU, srcLen, tgtLen int) *mat.Dense {
	return denseView(beta, maxU, srcLen, tgtLen)
}

func denseView(buf []float32, maxU, srcLen, tgtLen int) *mat.Dense {
	data := make([]float64, srcLen*tgtLen)
	for t := 0; t < srcLen; t++ {
		for u := 0; u < tgtLen; u++ {
			data[t*tgtLen+u] = float64(buf[t*maxU+u])
		}
	}
	return mat.NewDense(srcLen, tgtLen, data)
}
