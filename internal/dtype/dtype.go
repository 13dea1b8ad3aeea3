// Package dtype handles the storage-type boundary for the f16 DTYPE
// variant. All internal arithmetic (denominator, log-prob, lattice, and
// gradient stages) stays in float32; ToFloat32/FromFloat32 convert logits
// and gradients at the edges when Options.DType selects float16 storage.
//
// Grounded on the pack's use of github.com/x448/float16 for compact
// activation storage at the boundary of float32-accumulating kernels.
package dtype

import "github.com/x448/float16"

// Float16 is a 16-bit floating point storage value.
type Float16 = float16.Float16

// ToFloat32 widens src into dst. dst must be at least len(src).
func ToFloat32(src []Float16, dst []float32) {
	for i, v := range src {
		dst[i] = v.Float32()
	}
}

// FromFloat32 narrows src into dst, rounding to nearest. dst must be at
// least len(src).
func FromFloat32(src []float32, dst []Float16) {
	for i, v := range src {
		dst[i] = float16.Fromfloat32(v)
	}
}
