// Package denom implements the RNN-T denominator stage: a per-cell,
// two-pass stable log-sum-exp reduction over the vocabulary axis.
//
// Grounded on original_source/torchaudio/csrc/rnnt/cpu/cpu_kernels.h's
// LogSumExp2D, reduction-by-reduction (row max, then stable sum).
package denom

import "github.com/tspeech/rnnt-loss/internal/mathutil"

// ComputeSequence fills out[i] = log(sum_k exp(logits[i*d+k])) for the
// rows x d logits belonging to one (batch, hypothesis) sequence. In dense
// mode every cell of the padded grid is reduced, valid or padding, since
// lengths aren't consulted until the log-probability stage.
// rows is maxSrcLen*maxTgtLen for the dense driver, or the per-sequence
// cell count (from cellsPerSample) for the sparse driver — the reduction
// itself doesn't care which grid it's indexing into.
func ComputeSequence(logits []float32, rows, d int, out []float32) {
	for i := 0; i < rows; i++ {
		out[i] = mathutil.LSEReduce(logits[i*d : i*d+d])
	}
}
