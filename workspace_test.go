package rnnt

import "testing"

func TestNewWorkspaceSlicesAreDisjointAndCorrectlySized(t *testing.T) {
	o := New(2, 3, 4, 5)
	w := NewWorkspace(o)
	n := gridCells(o, false)
	if n != 2*1*3*4 {
		t.Fatalf("gridCells = %d, want %d", n, 2*1*3*4)
	}
	if len(w.denom) != n || len(w.skip) != n || len(w.emit) != n || len(w.alpha) != n || len(w.beta) != n {
		t.Fatalf("sub-buffer length mismatch, want %d each", n)
	}
	// Writing through one sub-buffer must not bleed into an adjacent one.
	w.skip[0] = 42
	if w.emit[0] == 42 || w.denom[0] == 42 {
		t.Errorf("sub-buffers alias memory they should not share")
	}
	if len(w.alphaCounters) != o.batchSize*o.nHypos*o.maxSrcLen {
		t.Errorf("alphaCounters length = %d, want %d", len(w.alphaCounters), o.batchSize*o.nHypos*o.maxSrcLen)
	}
}

func TestNewSparseWorkspaceUsesSparseCells(t *testing.T) {
	o := New(2, 3, 4, 5, WithSparseCells(7))
	w := NewSparseWorkspace(o)
	if len(w.denom) != 7 {
		t.Errorf("sparse denom length = %d, want 7", len(w.denom))
	}
}

func TestNewWorkspaceAllocatesQuantOnlyForFloat16(t *testing.T) {
	o32 := New(2, 3, 4, 5)
	if len(NewWorkspace(o32).quant) != 0 {
		t.Errorf("quant should be unallocated for DTypeFloat32")
	}
	o16 := New(2, 3, 4, 5, WithDType(DTypeFloat16))
	w16 := NewWorkspace(o16)
	n := gridCells(o16, false)
	if len(w16.quant) != n*o16.numTargets {
		t.Errorf("quant length = %d, want %d", len(w16.quant), n*o16.numTargets)
	}
}

func TestWithAlignmentBandZeroBufferStillEnablesBand(t *testing.T) {
	o := New(1, 2, 2, 2, WithAlignmentBand(0, 0))
	if !o.HasAlignmentBand() {
		t.Errorf("HasAlignmentBand() = false, want true for an explicit zero-buffer band")
	}
	if o2 := New(1, 2, 2, 2); o2.HasAlignmentBand() {
		t.Errorf("HasAlignmentBand() = true, want false when WithAlignmentBand was never called")
	}
}
