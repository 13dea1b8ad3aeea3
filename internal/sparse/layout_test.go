package sparse

import "testing"

func TestLayoutIndexing(t *testing.T) {
	// column 0: t in [2,4] (3 cells); column 1: t in [3,5] (3 cells).
	l := New([]int{2, 4, 3, 5}, 2)
	if l.NumCells() != 6 {
		t.Fatalf("NumCells() = %d, want 6", l.NumCells())
	}
	if idx := l.Index(2, 0); idx != 0 {
		t.Errorf("Index(2,0) = %d, want 0", idx)
	}
	if idx := l.Index(4, 0); idx != 2 {
		t.Errorf("Index(4,0) = %d, want 2", idx)
	}
	if idx := l.Index(3, 1); idx != 3 {
		t.Errorf("Index(3,1) = %d, want 3", idx)
	}
	if !l.Contains(3, 0) || l.Contains(5, 0) {
		t.Errorf("Contains mismatch for column 0")
	}
}
