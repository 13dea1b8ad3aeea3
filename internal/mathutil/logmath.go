// Package mathutil provides the numerically stable log-domain primitives
// the RNN-T lattice recurrences are built on.
package mathutil

import "math"

// NegInf is the value used for unreachable lattice cells. It is a real
// -Inf rather than a large negative sentinel so it composes correctly with
// math.Exp (underflows to 0) and with LSE's own -Inf handling.
var NegInf = float32(math.Inf(-1))

// LSE returns log(exp(a) + exp(b)) computed as
// max(a,b) + log1p(exp(-|a-b|)), with the conventions LSE(-Inf, x) = x and
// LSE(-Inf, -Inf) = -Inf.
func LSE(a, b float32) float32 {
	if a == NegInf {
		return b
	}
	if b == NegInf {
		return a
	}
	var max, min float32
	if a > b {
		max, min = a, b
	} else {
		max, min = b, a
	}
	return max + float32(math.Log1p(math.Exp(float64(min-max))))
}

// LSEReduce computes log(sum(exp(xs))) as m + log(sum(exp(x_i - m))) where
// m = max(xs), the standard two-pass stable reduction. Returns -Inf for an
// empty or all -Inf input.
func LSEReduce(xs []float32) float32 {
	max := NegInf
	for _, x := range xs {
		if x > max {
			max = x
		}
	}
	if max == NegInf {
		return NegInf
	}
	var sum float64
	for _, x := range xs {
		sum += math.Exp(float64(x - max))
	}
	return max + float32(math.Log(sum))
}

// ClampSym clamps x to [-c, c]. c <= 0 disables clamping and returns x
// unchanged.
func ClampSym(x, c float32) float32 {
	if c <= 0 {
		return x
	}
	if x > c {
		return c
	}
	if x < -c {
		return -c
	}
	return x
}

// Exp is math.Exp at float32 precision, exported so callers outside this
// package never need to round-trip through float64 by hand.
func Exp(x float32) float32 {
	return float32(math.Exp(float64(x)))
}
