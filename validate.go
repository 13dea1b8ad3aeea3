package rnnt

import "fmt"

// ValidateShapes checks the pre-conditions spec.md §7.2 leaves as the
// caller's responsibility: buffer lengths, target ranges, blank range, and
// (in restricted mode) the presence of WPEnds. It is only ever invoked when
// Options.strict is set; production callers pay nothing for it.
func ValidateShapes(b Batch, ws *Workspace, o Options) error {
	numSeqs := o.batchSize * o.nHypos
	wantLogits := numSeqs * o.maxSrcLen * o.maxTgtLen * o.numTargets
	if len(b.Logits) != wantLogits {
		return fmt.Errorf("rnnt: Logits has %d elements, want %d", len(b.Logits), wantLogits)
	}
	if len(b.SrcLengths) != o.batchSize || len(b.TgtLengths) != o.batchSize {
		return fmt.Errorf("rnnt: SrcLengths/TgtLengths must have %d elements", o.batchSize)
	}
	if o.blank < 0 || o.blank >= o.numTargets {
		return fmt.Errorf("rnnt: blank %d out of range [0, %d)", o.blank, o.numTargets)
	}
	for i, srcLen := range b.SrcLengths {
		if srcLen <= 0 || srcLen > o.maxSrcLen {
			return fmt.Errorf("rnnt: SrcLengths[%d] = %d out of range (0, %d]", i, srcLen, o.maxSrcLen)
		}
	}
	for i, tgtLen := range b.TgtLengths {
		if tgtLen < 0 || tgtLen+1 > o.maxTgtLen {
			return fmt.Errorf("rnnt: TgtLengths[%d] = %d out of range [0, %d)", i, tgtLen, o.maxTgtLen)
		}
	}
	for _, tok := range b.Targets {
		if tok < 0 || tok >= o.numTargets {
			return fmt.Errorf("rnnt: target label %d out of range [0, %d)", tok, o.numTargets)
		}
	}
	if o.HasAlignmentBand() && len(b.WPEnds) != numSeqs*o.maxTgtLen {
		return fmt.Errorf("rnnt: WPEnds has %d elements, want %d for a restricted-mode call", len(b.WPEnds), numSeqs*o.maxTgtLen)
	}
	if ws == nil {
		return fmt.Errorf("rnnt: Workspace is nil")
	}
	wantGrid := gridCells(o, false)
	if len(ws.denom) != wantGrid || len(ws.alpha) != wantGrid || len(ws.beta) != wantGrid {
		return fmt.Errorf("rnnt: Workspace sized for %d cells, want %d", len(ws.denom), wantGrid)
	}
	return nil
}
