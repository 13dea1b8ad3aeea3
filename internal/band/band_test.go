package band

import "testing"

func TestValidTimeRangesSpansBuffersAroundAnchor(t *testing.T) {
	b := New([]int{5}, 10, 1, 2, 2)
	startT, endT := b.ValidTimeRanges(0)
	if startT != 3 || endT != 7 {
		t.Errorf("ValidTimeRanges(0) = (%d,%d), want (3,7)", startT, endT)
	}
}

func TestValidTimeRangesClampsAtBoundaries(t *testing.T) {
	b := New([]int{0, 9}, 10, 2, 3, 3)
	startT, endT := b.ValidTimeRanges(0)
	if startT != 0 || endT != 3 {
		t.Errorf("ValidTimeRanges(0) = (%d,%d), want (0,3)", startT, endT)
	}
	startT, endT = b.ValidTimeRanges(1)
	if startT != 6 || endT != 9 {
		t.Errorf("ValidTimeRanges(1) = (%d,%d), want (6,9)", startT, endT)
	}
}

func TestTransitionsAreSymmetric(t *testing.T) {
	b := New([]int{3, 3}, 6, 2, 1, 1)
	for tIdx := 0; tIdx < 6; tIdx++ {
		for u := 0; u < 2; u++ {
			if got, want := b.AlphaBlankTransition(tIdx+1, u), b.BetaBlankTransition(tIdx, u); got != want {
				t.Errorf("AlphaBlankTransition(%d,%d)=%v != BetaBlankTransition(%d,%d)=%v", tIdx+1, u, got, tIdx, u, want)
			}
		}
	}
	for tIdx := 0; tIdx < 6; tIdx++ {
		if got, want := b.AlphaEmitTransition(tIdx, 1), b.BetaEmitTransition(tIdx, 0); got != want {
			t.Errorf("AlphaEmitTransition(%d,1)=%v != BetaEmitTransition(%d,0)=%v", tIdx, got, tIdx, want)
		}
	}
}

func TestInfiniteBufferCoversWholeGrid(t *testing.T) {
	const bigBuf = 1 << 20
	b := New([]int{0, 0, 0}, 4, 3, bigBuf, bigBuf)
	for tIdx := 0; tIdx < 4; tIdx++ {
		for u := 0; u < 3; u++ {
			startT, endT := b.ValidTimeRanges(u)
			if tIdx < startT || tIdx > endT {
				t.Errorf("cell (%d,%d) unexpectedly out of band", tIdx, u)
			}
		}
	}
}
