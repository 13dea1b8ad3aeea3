package rnnt

import "testing"

func TestValidateShapesCatchesWrongLogitsLength(t *testing.T) {
	o := New(1, 2, 2, 2)
	b := Batch{
		Logits:     make([]float32, 3),
		Targets:    []int{1},
		SrcLengths: []int{2},
		TgtLengths: []int{1},
	}
	ws := NewWorkspace(o)
	if err := ValidateShapes(b, ws, o); err == nil {
		t.Fatal("want error for undersized Logits buffer")
	}
}

func TestValidateShapesAcceptsWellFormedBatch(t *testing.T) {
	o := New(1, 2, 2, 2)
	b := Batch{
		Logits:     make([]float32, 1*2*2*2),
		Targets:    []int{1},
		SrcLengths: []int{2},
		TgtLengths: []int{1},
	}
	ws := NewWorkspace(o)
	if err := ValidateShapes(b, ws, o); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateShapesRejectsOutOfRangeBlank(t *testing.T) {
	o := New(1, 2, 2, 2, WithBlank(5))
	b := Batch{
		Logits:     make([]float32, 1*2*2*2),
		Targets:    []int{1},
		SrcLengths: []int{2},
		TgtLengths: []int{1},
	}
	ws := NewWorkspace(o)
	if err := ValidateShapes(b, ws, o); err == nil {
		t.Fatal("want error for blank id outside numTargets")
	}
}

func TestValidateShapesRequiresWPEndsWhenBandEnabled(t *testing.T) {
	o := New(1, 2, 2, 2, WithAlignmentBand(1, 1))
	b := Batch{
		Logits:     make([]float32, 1*2*2*2),
		Targets:    []int{1},
		SrcLengths: []int{2},
		TgtLengths: []int{1},
	}
	ws := NewWorkspace(o)
	if err := ValidateShapes(b, ws, o); err == nil {
		t.Fatal("want error for missing WPEnds in restricted mode")
	}
}
