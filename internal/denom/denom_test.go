package denom

import (
	"math"
	"testing"
)

func TestComputeSequenceUniform(t *testing.T) {
	// One row of [0,0] reduces to log(2).
	logits := []float32{0, 0}
	out := make([]float32, 1)
	ComputeSequence(logits, 1, 2, out)
	want := float32(math.Log(2))
	if math.Abs(float64(out[0]-want)) > 1e-5 {
		t.Errorf("row0 = %f, want %f", out[0], want)
	}
}

func TestComputeSequenceMultiRow(t *testing.T) {
	logits := []float32{1, 2, 3, 0, 0, 0}
	out := make([]float32, 2)
	ComputeSequence(logits, 2, 3, out)

	want0 := float32(math.Log(math.Exp(1) + math.Exp(2) + math.Exp(3)))
	want1 := float32(math.Log(3))
	if math.Abs(float64(out[0]-want0)) > 1e-4 {
		t.Errorf("row0 = %f, want %f", out[0], want0)
	}
	if math.Abs(float64(out[1]-want1)) > 1e-5 {
		t.Errorf("row1 = %f, want %f", out[1], want1)
	}
}
