// Package band implements the RNN-T alignment-restriction predicate: given
// per-label-step time anchors and symmetric left/right buffers, it answers
// which lattice cells and which transitions between them are legal.
//
// Grounded on the teacher's acoustic/align.go, which derives per-phoneme
// frame boundaries from a Viterbi backtrace; here the boundaries (wpEnds)
// are supplied by the caller instead of derived, and the predicate is a
// static reachability test rather than a backpointer walk.
package band

// Band answers reachability questions about a single sequence's lattice
// cells and transitions, restricted to a buffer around per-label-step time
// anchors.
type Band struct {
	wpEnds           []int // length U; wpEnds[u] is the anchor time for column u
	t, u             int   // srcLen, tgtLen (effective, with prepended blank already folded into u)
	lBuffer, rBuffer int
}

// New builds a Band for a sequence with effective extents T (srcLen) and U
// (tgtLen, i.e. tgtLengths[b]+1), given per-column time anchors and
// symmetric buffers. wpEnds must have at least U entries.
func New(wpEnds []int, t, u, lBuffer, rBuffer int) *Band {
	return &Band{wpEnds: wpEnds, t: t, u: u, lBuffer: lBuffer, rBuffer: rBuffer}
}

// ValidTimeRanges returns the inclusive time range in which column u is
// reachable.
func (b *Band) ValidTimeRanges(u int) (startT, endT int) {
	anchor := b.wpEnds[u]
	startT = anchor - b.lBuffer
	if startT < 0 {
		startT = 0
	}
	endT = anchor + b.rBuffer
	if endT > b.t-1 {
		endT = b.t - 1
	}
	return startT, endT
}

// contains reports whether cell (t, u) lies inside the band. Cells outside
// [0,T)x[0,U) are never contained.
func (b *Band) contains(t, u int) bool {
	if t < 0 || t >= b.t || u < 0 || u >= b.u {
		return false
	}
	startT, endT := b.ValidTimeRanges(u)
	return t >= startT && t <= endT
}

// edgeBlank reports whether the skip edge (t,u) -> (t+1,u) is legal: both
// endpoints must be in-band. Defining both alpha's and beta's blank
// predicates in terms of this single function is what makes the band
// symmetric by construction (spec contract: if alpha allows a transition,
// beta must allow its reverse).
func (b *Band) edgeBlank(t, u int) bool {
	return b.contains(t, u) && b.contains(t+1, u)
}

// edgeEmit reports whether the emit edge (t,u) -> (t,u+1) is legal.
func (b *Band) edgeEmit(t, u int) bool {
	return b.contains(t, u) && b.contains(t, u+1)
}

// AlphaBlankTransition reports whether the forward predecessor edge
// (t-1,u) -> (t,u) is permitted.
func (b *Band) AlphaBlankTransition(t, u int) bool {
	return b.edgeBlank(t-1, u)
}

// AlphaEmitTransition reports whether the forward predecessor edge
// (t,u-1) -> (t,u) is permitted.
func (b *Band) AlphaEmitTransition(t, u int) bool {
	return b.edgeEmit(t, u-1)
}

// BetaBlankTransition reports whether the backward successor edge
// (t,u) -> (t+1,u) is permitted.
func (b *Band) BetaBlankTransition(t, u int) bool {
	return b.edgeBlank(t, u)
}

// BetaEmitTransition reports whether the backward successor edge
// (t,u) -> (t,u+1) is permitted.
func (b *Band) BetaEmitTransition(t, u int) bool {
	return b.edgeEmit(t, u)
}
