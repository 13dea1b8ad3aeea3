// Command rnntbench exercises the rnnt package against a synthetic batch,
// printing the resulting costs and timing the call. It exists to give the
// numerical core a runnable surface without pulling in any dataset or
// tensor-library adapter.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/tspeech/rnnt-loss"
)

func main() {
	batch := flag.Int("batch", 8, "number of sequences in the synthetic batch")
	srcLen := flag.Int("src", 100, "source (time) length per sequence")
	tgtLen := flag.Int("tgt", 20, "target label length per sequence")
	vocab := flag.Int("vocab", 32, "vocabulary size, including blank")
	blank := flag.Int("blank", 0, "blank symbol id")
	clamp := flag.Float64("clamp", 0, "symmetric gradient clamp (0 disables)")
	gradients := flag.Bool("grad", true, "also compute gradients, not just cost")
	lBuffer := flag.Int("lbuffer", 0, "left alignment-band half-width (0 with -band=false means unrestricted)")
	rBuffer := flag.Int("rbuffer", 0, "right alignment-band half-width")
	band := flag.Bool("band", false, "enable alignment-restricted mode using -lbuffer/-rbuffer")
	workers := flag.Int("workers", 1, "max concurrent sequences; also the wavefront pool size with -wavefront")
	wavefront := flag.Bool("wavefront", false, "use the wave-front parallel back-end instead of sequential")
	iters := flag.Int("iters", 1, "number of timed repetitions")
	seed := flag.Int64("seed", 1, "PRNG seed for the synthetic batch")

	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: rnntbench [flags]")
		fmt.Fprintln(os.Stderr, "  Runs the RNN-T loss over a synthetic random batch and reports cost and timing.")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *batch <= 0 || *srcLen <= 0 || *tgtLen <= 0 || *vocab < 2 {
		fmt.Fprintln(os.Stderr, "batch, src, tgt must be positive and vocab must be at least 2")
		os.Exit(1)
	}
	if *blank < 0 || *blank >= *vocab {
		fmt.Fprintf(os.Stderr, "blank %d out of range [0, %d)\n", *blank, *vocab)
		os.Exit(1)
	}

	rng := rand.New(rand.NewSource(*seed))
	b := synthesizeBatch(rng, *batch, *srcLen, *tgtLen, *vocab, *blank, *band)

	parallelism := rnnt.Sequential
	if *wavefront {
		parallelism = rnnt.WaveFront
	}
	rOpts := []rnnt.Option{
		rnnt.WithBlank(*blank),
		rnnt.WithClamp(float32(*clamp)),
		rnnt.WithParallelism(parallelism, *workers),
	}
	if *band {
		rOpts = append(rOpts, rnnt.WithAlignmentBand(*lBuffer, *rBuffer))
	}
	o := rnnt.New(*batch, *srcLen, *tgtLen+1, *vocab, rOpts...)

	ws := rnnt.NewWorkspace(o)
	costs := make([]float32, *batch)
	var grads []float32
	if *gradients {
		grads = make([]float32, len(b.Logits))
	}

	var elapsed time.Duration
	var status rnnt.Status
	var err error
	for i := 0; i < *iters; i++ {
		start := time.Now()
		status, err = rnnt.Compute(b, ws, o, costs, grads, false)
		elapsed += time.Since(start)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "compute: %v (status %s)\n", err, status)
		os.Exit(1)
	}

	fmt.Printf("batch=%d src=%d tgt=%d vocab=%d band=%v wavefront=%v workers=%d\n",
		*batch, *srcLen, *tgtLen, *vocab, *band, *wavefront, *workers)
	fmt.Printf("mean cost = %f\n", meanCost(costs))
	fmt.Printf("%d call(s) in %s, %s/call\n", *iters, elapsed, elapsed/time.Duration(*iters))
}

// synthesizeBatch builds a Batch of independent sequences with random
// Gaussian logits and random non-blank targets, uniform lengths across the
// batch. When band is true, WPEnds are filled with evenly spaced anchors,
// wpEnds[u] = u*(srcLen-1)/(tgtLen+1). A zero-width band (-lbuffer=0
// -rbuffer=0) admits no blank step, so with src > 1 every alignment is
// infeasible and the costs are +Inf.
func synthesizeBatch(rng *rand.Rand, batch, srcLen, tgtLen, vocab, blank int, band bool) rnnt.Batch {
	maxU := tgtLen + 1
	grid := srcLen * maxU * vocab
	logits := make([]float32, batch*grid)
	for i := range logits {
		logits[i] = float32(rng.NormFloat64())
	}

	targets := make([]int, batch*tgtLen)
	for i := range targets {
		tok := rng.Intn(vocab - 1)
		if tok >= blank {
			tok++
		}
		targets[i] = tok
	}

	srcLens := make([]int, batch)
	tgtLens := make([]int, batch)
	for i := range srcLens {
		srcLens[i] = srcLen
		tgtLens[i] = tgtLen
	}

	var wpEnds []int
	if band {
		wpEnds = make([]int, batch*maxU)
		for bi := 0; bi < batch; bi++ {
			for u := 0; u < maxU; u++ {
				wpEnds[bi*maxU+u] = (u * (srcLen - 1)) / maxU
			}
		}
	}

	return rnnt.Batch{
		Logits:     logits,
		Targets:    targets,
		SrcLengths: srcLens,
		TgtLengths: tgtLens,
		WPEnds:     wpEnds,
	}
}

func meanCost(costs []float32) float32 {
	var sum float32
	for _, c := range costs {
		sum += c
	}
	if len(costs) == 0 {
		return 0
	}
	return sum / float32(len(costs))
}
