// Package sparse implements the compaction scheme used by sparse mode: for
// one sequence, only cells inside the per-column [tStart(u), tEnd(u)] range
// are materialised, packed contiguously column by column. This scheme is an
// implementation decision (spec.md leaves the exact packing unspecified);
// it is documented here rather than in spec.md because it is purely an
// internal storage detail the driver and caller never observe — callers
// only see the flat S-sized buffers spec.md's data model describes.
package sparse

// Layout maps (t, u) cells of one sequence's band to a position in a
// compacted, column-major buffer of size NumCells().
type Layout struct {
	validRanges []int // length 2*U: tStart(u), tEnd(u) pairs
	offsets     []int // length U+1: offsets[u] = cells before column u
}

// New builds a Layout from a flat validRanges buffer ([tStart0,tEnd0,
// tStart1,tEnd1,...]) covering u columns.
func New(validRanges []int, u int) *Layout {
	offsets := make([]int, u+1)
	for col := 0; col < u; col++ {
		tStart, tEnd := validRanges[2*col], validRanges[2*col+1]
		n := 0
		if tEnd >= tStart {
			n = tEnd - tStart + 1
		}
		offsets[col+1] = offsets[col] + n
	}
	return &Layout{validRanges: validRanges, offsets: offsets}
}

// Range returns the inclusive time range materialised for column u.
func (l *Layout) Range(u int) (tStart, tEnd int) {
	return l.validRanges[2*u], l.validRanges[2*u+1]
}

// Contains reports whether (t, u) is materialised.
func (l *Layout) Contains(t, u int) bool {
	if u < 0 || u >= len(l.offsets)-1 {
		return false
	}
	tStart, tEnd := l.Range(u)
	return t >= tStart && t <= tEnd
}

// Index returns the flat buffer position of materialised cell (t, u). The
// caller must have checked Contains(t, u) first.
func (l *Layout) Index(t, u int) int {
	tStart, _ := l.Range(u)
	return l.offsets[u] + (t - tStart)
}

// NumCells returns the total number of materialised cells for this
// sequence, i.e. cellsPerSample[b] in spec.md's data model.
func (l *Layout) NumCells() int {
	return l.offsets[len(l.offsets)-1]
}
