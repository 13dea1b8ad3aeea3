package rnnt

// ParallelismMode selects the back-end a driver call dispatches to.
type ParallelismMode int

const (
	// Sequential runs each sequence's own alpha/beta back-to-back with the
	// sequential recurrences; up to maxWorkers sequences run concurrently.
	Sequential ParallelismMode = iota
	// WaveFront tiles each sequence's lattice across a wavefront.Pool.
	WaveFront
)

// DType selects the storage width the driver round-trips logits and
// gradients through at the call boundary. Internal arithmetic always
// accumulates in float32 regardless of DType; see internal/dtype.
type DType int

const (
	// DTypeFloat32 performs no boundary conversion.
	DTypeFloat32 DType = iota
	// DTypeFloat16 narrows logits and gradients to dtype.Float16 and widens
	// them back to float32 at the call boundary, so the call's numerics
	// reflect f16 storage precision even though accumulation stays f32.
	DTypeFloat16
)

// Options is the immutable configuration record every stage consumes.
// Build one with New and the With* functions below; there is no exported
// way to mutate an Options after construction.
type Options struct {
	batchSize    int
	nHypos       int
	maxSrcLen    int
	maxTgtLen    int
	numTargets   int
	blank        int
	clamp        float32
	fusedLogSmax bool
	lBuffer      int
	rBuffer      int
	bandEnabled  bool
	sparseCells  int
	parallelism  ParallelismMode
	maxWorkers   int
	strict       bool
	dtype        DType
}

// Option configures an Options record. Mirrors the teacher's
// Option func(*Recognizer) pattern.
type Option func(*Options)

// New builds an Options from batch/grid dimensions and any With* overrides.
// Defaults: blank=0, fusedLogSmax=true, clamp disabled, no alignment band,
// sequential back-end, maxWorkers = 1.
func New(batchSize, maxSrcLen, maxTgtLen, numTargets int, opts ...Option) Options {
	o := Options{
		batchSize:    batchSize,
		nHypos:       1,
		maxSrcLen:    maxSrcLen,
		maxTgtLen:    maxTgtLen,
		numTargets:   numTargets,
		blank:        0,
		fusedLogSmax: true,
		parallelism:  Sequential,
		maxWorkers:   1,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithHypotheses sets the number of hypotheses per batch item (H); the
// logical batch size becomes B*H.
func WithHypotheses(h int) Option {
	return func(o *Options) { o.nHypos = h }
}

// WithBlank sets the id of the blank symbol.
func WithBlank(blank int) Option {
	return func(o *Options) { o.blank = blank }
}

// WithClamp sets the symmetric gradient clamp; c<=0 disables clamping.
func WithClamp(c float32) Option {
	return func(o *Options) { o.clamp = c }
}

// WithFusedLogSmax controls whether the log-probability stage subtracts
// the denominator and the gradient stage uses the fused-softmax form.
func WithFusedLogSmax(fused bool) Option {
	return func(o *Options) { o.fusedLogSmax = fused }
}

// WithAlignmentBand enables alignment restriction with the given
// half-widths. Use math.Inf-sized buffers (e.g. 1<<30) for an
// effectively-infinite band.
func WithAlignmentBand(lBuffer, rBuffer int) Option {
	return func(o *Options) {
		o.lBuffer = lBuffer
		o.rBuffer = rBuffer
		o.bandEnabled = true
	}
}

// WithSparseCells sets the total number of materialised cells across the
// batch for sparse-mode calls.
func WithSparseCells(s int) Option {
	return func(o *Options) { o.sparseCells = s }
}

// WithParallelism selects the back-end and maxWorkers, which caps how many
// sequences run concurrently in either mode and, for WaveFront, is also the
// worker count used by internal/wavefront.Pool.
func WithParallelism(mode ParallelismMode, maxWorkers int) Option {
	return func(o *Options) {
		o.parallelism = mode
		o.maxWorkers = maxWorkers
	}
}

// WithStrict enables debug-only precondition validation (ValidateShapes)
// before dispatch. Production callers should leave this off.
func WithStrict(strict bool) Option {
	return func(o *Options) { o.strict = strict }
}

// HasAlignmentBand reports whether this Options configures a restricted
// (banded) lattice, including the zero-buffer "exact forced alignment"
// case.
func (o Options) HasAlignmentBand() bool {
	return o.bandEnabled
}

// WithDType selects the storage width round-tripped at the call boundary.
// The default, DTypeFloat32, performs no conversion.
func WithDType(d DType) Option {
	return func(o *Options) { o.dtype = d }
}
