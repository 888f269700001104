// Package dwt implements the inverse Discrete Wavelet Transform for JPEG 2000.
//
// An Engine reconstructs one tile-component from its subband tree and
// coefficient plane. Reconstruction is resolution scalable: synthesizing to
// resolution level R walks the LL chain of the tree from the final LL band up
// to the node of level R and never reads the subbands of finer levels.
//
// Each tree level is a separable 2-D synthesis: the vertical filter runs
// over every column, then the horizontal filter over every row.
package dwt

import (
	"io"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/mrjoshuak/go-jpeg2000-idwt/internal/filter"
	"github.com/mrjoshuak/go-jpeg2000-idwt/internal/subband"
)

var (
	// ErrLevelRange is returned for a target resolution level outside the
	// tree.
	ErrLevelRange = errors.New("dwt: resolution level out of range")

	// ErrFilterType is returned when a node filter cannot synthesize the
	// engine's sample type.
	ErrFilterType = errors.New("dwt: filter does not match sample type")

	// ErrFilterSupport is returned when a filter's synthesis supports do not
	// cover the boundary overlap the filter declares it needs.
	ErrFilterSupport = errors.New("dwt: filter support does not cover boundary overlap")

	// ErrShortBuffer is returned when the coefficient plane is smaller than
	// the tree geometry requires.
	ErrShortBuffer = errors.New("dwt: coefficient buffer too short")

	// ErrNotReady is returned by Result before a synthesis has completed.
	ErrNotReady = errors.New("dwt: no reconstructed plane")

	// ErrNilTree is returned when an engine is created without a tree.
	ErrNilTree = errors.New("dwt: nil subband tree")
)

// State is the reconstruction state of an Engine.
type State int

// Engine states.
const (
	// Idle means no synthesis has been performed yet.
	Idle State = iota
	// Synthesizing means the engine is merging subbands.
	Synthesizing
	// Ready means a reconstructed plane is available.
	Ready
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Synthesizing:
		return "synthesizing"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// Options configures an Engine.
type Options struct {
	// Workers is the number of goroutines a single pass may use.
	// Values below 2 run every pass on the calling goroutine.
	Workers int

	// Logger receives debug records on state transitions.
	// If nil, nothing is logged.
	Logger *slog.Logger
}

// DefaultOptions returns the default engine options.
func DefaultOptions() *Options {
	return &Options{
		Workers: 1,
	}
}

// level is one node of the LL chain with its filters resolved to T.
type level[T filter.Sample] struct {
	sb *subband.Subband
	h  filter.Synthesizer[T]
	v  filter.Synthesizer[T]
}

// Engine reconstructs a tile-component plane from its subband tree.
//
// An Engine is not safe for concurrent use. Independent engines may run
// concurrently.
type Engine[T filter.Sample] struct {
	tree   *subband.Subband
	coeffs *Plane[T]
	work   *Plane[T]

	// levels[r] is the LL chain node producing resolution level r.
	levels []level[T]

	state  State
	target int

	workers int
	log     *slog.Logger
	lines   linePool[T]
}

// NewEngine creates an engine for tree whose coefficients are stored in
// coeffs at the positions given by each subband's ULX/ULY.
//
// The coefficient plane is only read. Every node filter must implement
// filter.Synthesizer[T].
func NewEngine[T filter.Sample](tree *subband.Subband, coeffs *Plane[T], opts *Options) (*Engine[T], error) {
	if tree == nil {
		return nil, ErrNilTree
	}
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := tree.Validate(); err != nil {
		return nil, err
	}
	if coeffs == nil || !coeffs.covers(tree.ULX, tree.ULY, tree.W, tree.H) {
		return nil, errors.Wrapf(ErrShortBuffer, "need %dx%d at (%d, %d)", tree.W, tree.H, tree.ULX, tree.ULY)
	}

	chain := tree.Nodes()
	levels := make([]level[T], len(chain))
	for _, sb := range chain {
		lv := level[T]{sb: sb}
		if sb.IsNode {
			var ok bool
			if lv.h, ok = sb.HFilter().(filter.Synthesizer[T]); !ok {
				return nil, errors.Wrapf(ErrFilterType, "horizontal filter %s at resolution level %d", sb.HFilter(), sb.ResLevel)
			}
			if lv.v, ok = sb.VFilter().(filter.Synthesizer[T]); !ok {
				return nil, errors.Wrapf(ErrFilterType, "vertical filter %s at resolution level %d", sb.VFilter(), sb.ResLevel)
			}
			if err := checkOverlap(lv.h, sb.W); err != nil {
				return nil, errors.Wrapf(err, "horizontal filter at resolution level %d", sb.ResLevel)
			}
			if err := checkOverlap(lv.v, sb.H); err != nil {
				return nil, errors.Wrapf(err, "vertical filter at resolution level %d", sb.ResLevel)
			}
		}
		levels[sb.ResLevel] = lv
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Engine[T]{
		tree:    tree,
		coeffs:  coeffs,
		work:    NewPlane[T](tree.ULX+tree.W, tree.ULY+tree.H),
		levels:  levels,
		workers: opts.Workers,
		log:     logger,
	}, nil
}

// Tree returns the subband tree.
func (e *Engine[T]) Tree() *subband.Subband { return e.tree }

// MaxLevel returns the highest resolution level the tree can produce.
func (e *Engine[T]) MaxLevel() int { return e.tree.ResLevel }

// State returns the engine state and the resolution level it refers to.
// The level is meaningless in the Idle state.
func (e *Engine[T]) State() (State, int) { return e.state, e.target }

// Synthesize reconstructs the tile-component at resolution level rl
// (0 = final LL band, MaxLevel() = full resolution).
//
// If the engine is Ready at a level below rl, synthesis continues from the
// already reconstructed plane; otherwise it restarts from the coefficients.
// Both paths give identical samples.
func (e *Engine[T]) Synthesize(rl int) error {
	if rl < 0 || rl > e.tree.ResLevel {
		return errors.Wrapf(ErrLevelRange, "level %d not in [0, %d]", rl, e.tree.ResLevel)
	}

	from := 0
	if e.state == Ready && e.target <= rl {
		from = e.target
	} else {
		ll := e.levels[0].sb
		copyRegion(e.work, e.coeffs, ll.ULX, ll.ULY, ll.W, ll.H)
	}

	for r := from + 1; r <= rl; r++ {
		e.state, e.target = Synthesizing, r
		sb := e.levels[r].sb
		for _, band := range []*subband.Subband{sb.HL(), sb.LH(), sb.HH()} {
			copyRegion(e.work, e.coeffs, band.ULX, band.ULY, band.W, band.H)
		}
		e.synthesize2D(e.levels[r])
		e.log.Debug("synthesized resolution level",
			slog.Int("resolution", r),
			slog.Int("width", e.levels[r].sb.W),
			slog.Int("height", e.levels[r].sb.H))
	}

	e.state, e.target = Ready, rl
	return nil
}

// Result returns the reconstructed plane of the Ready state as a view into
// the engine's work buffer. The view is overwritten by the next Synthesize.
func (e *Engine[T]) Result() (*Plane[T], error) {
	if e.state != Ready {
		return nil, ErrNotReady
	}
	sb := e.levels[e.target].sb
	return e.work.Sub(sb.ULX, sb.ULY, sb.W, sb.H), nil
}

// Reconstruct synthesizes level rl and returns a compact copy of the result.
func (e *Engine[T]) Reconstruct(rl int) (*Plane[T], error) {
	if err := e.Synthesize(rl); err != nil {
		return nil, err
	}
	p, err := e.Result()
	if err != nil {
		return nil, err
	}
	return p.Clone(), nil
}

// synthesize2D merges the four children of lv.sb, laid out in the work
// plane, into lv.sb's region.
func (e *Engine[T]) synthesize2D(lv level[T]) {
	sb := lv.sb
	ll := sb.LL()
	d := e.work.Data
	stride := e.work.Stride
	origin := sb.ULY*stride + sb.ULX

	// Vertical pass: LL over LH on the left columns, HL over HH on the right.
	lowLen, highLen := ll.H, sb.H-ll.H
	parallelFor(e.workers, sb.W, func(start, end int) {
		bp := e.lines.get(sb.H)
		buf := *bp
		for x := start; x < end; x++ {
			base := origin + x
			for y := 0; y < sb.H; y++ {
				buf[y] = d[base+y*stride]
			}
			synthesize1D(lv.v, sb.ULCY,
				filter.Signal[T]{Data: buf, Off: 0, Len: lowLen, Step: 1},
				filter.Signal[T]{Data: buf, Off: lowLen, Len: highLen, Step: 1},
				filter.Signal[T]{Data: d, Off: base, Step: stride})
		}
		e.lines.put(bp)
	})

	// Horizontal pass over the rows of the intermediate plane.
	lowLen, highLen = ll.W, sb.W-ll.W
	parallelFor(e.workers, sb.H, func(start, end int) {
		bp := e.lines.get(sb.W)
		buf := *bp
		for y := start; y < end; y++ {
			base := origin + y*stride
			copy(buf, d[base:base+sb.W])
			synthesize1D(lv.h, sb.ULCX,
				filter.Signal[T]{Data: buf, Off: 0, Len: lowLen, Step: 1},
				filter.Signal[T]{Data: buf, Off: lowLen, Len: highLen, Step: 1},
				filter.Signal[T]{Data: d, Off: base, Step: 1})
		}
		e.lines.put(bp)
	})
}

// checkOverlap rejects a filter whose synthesis supports on an n sample line
// are smaller than the overlap it requires to match a full transform. Lines
// are always synthesized whole, so boundary samples must be produced by the
// filter's own symmetric extension.
func checkOverlap(f filter.Filter, n int) error {
	tail := max(f.SynLowNegSupport(), f.SynHighNegSupport())
	head := max(f.SynLowPosSupport(), f.SynHighPosSupport())
	if !f.IsSameAsFullWT(tail, head, n) {
		return errors.Wrapf(ErrFilterSupport, "%s needs more than %d/%d samples of overlap on %d samples", f, tail, head, n)
	}
	return nil
}

// synthesize1D picks the filter phase from the parity of the canvas origin.
func synthesize1D[T filter.Sample](f filter.Synthesizer[T], origin int, low, high, out filter.Signal[T]) {
	if origin&1 == 0 {
		f.SynthesizeLowPhase(low, high, out)
	} else {
		f.SynthesizeHighPhase(low, high, out)
	}
}
