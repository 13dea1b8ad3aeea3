// Package logprob implements the RNN-T log-probability stage: per-cell
// extraction of the two transitions the lattice uses, "emit target symbol"
// and "emit blank", in log space.
//
// Grounded on original_source/torchaudio/csrc/rnnt/cpu/cpu_kernels.h's
// ComputeLogProbsOneSequence. That source unconditionally subtracts the
// denominator; the fusedLogSmax=false branch below is derived from spec.md
// §4.6/§9 rather than copied, since the CPU reference never implements it
// (see DESIGN.md, Open Question #2).
package logprob

// ComputeSequence fills skip and emit, both sized maxT*maxU and indexed
// [t*maxU+u], for one sequence's in-band cells t in [0,srcLen), u in
// [0,tgtLen). logits is indexed [t*maxU*d + u*d + k]; denom is indexed
// [t*maxU+u]. targets holds tgtLen-1 label ids (the prepended blank has no
// target). When fused is true the denominator is subtracted (logits are
// raw, unnormalised scores); when false, logits are assumed already
// log-normalised and denom is ignored.
func ComputeSequence(logits []float32, targets []int, denom []float32, maxT, maxU, d, srcLen, tgtLen, blank int, fused bool, skip, emit []float32) {
	for t := 0; t < srcLen; t++ {
		for u := 0; u < tgtLen; u++ {
			cell := t*maxU + u
			base := cell * d

			var norm float32
			if fused {
				norm = denom[cell]
			}

			if u < tgtLen-1 {
				emit[cell] = logits[base+targets[u]] - norm
			}
			skip[cell] = logits[base+blank] - norm
		}
	}
}
