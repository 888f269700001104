package idwt

import (
	"image"
	"io"
	"log/slog"
	"math"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/mrjoshuak/go-jpeg2000-idwt/internal/codestream"
	"github.com/mrjoshuak/go-jpeg2000-idwt/internal/dwt"
	"github.com/mrjoshuak/go-jpeg2000-idwt/internal/geometry"
	"github.com/mrjoshuak/go-jpeg2000-idwt/internal/tcd"
)

// Errors returned by a Reconstructor. They match with errors.Is.
var (
	ErrInvalidHeader   = codestream.ErrInvalidHeader
	ErrResolutionRange = geometry.ErrResolutionRange
	ErrNoSuchTile      = tcd.ErrNoSuchTile
	ErrNoNextTile      = tcd.ErrNoNextTile
	ErrComponentRange  = tcd.ErrComponentRange
)

type tileComp struct{ t, c int }

// engines caches the engine of one tile-component so that raising the
// resolution level continues from the last reconstruction.
type engines struct {
	ints   *dwt.Engine[int32]
	floats *dwt.Engine[float32]
}

// Reconstructor runs the inverse DWT over the tile-components of one image.
//
// Coefficients of a tile-component must be filled before its first
// reconstruction, or Reset must be called after refilling them.
// Reconstruct methods are safe for concurrent use on distinct
// tile-components. Resolution level and tile cursor changes need a single
// writer.
type Reconstructor struct {
	opts  *Options
	log   *slog.Logger
	tiles *tcd.TileDecoder
	geom  *geometry.Adapter

	mu      sync.Mutex
	engines map[tileComp]*engines
}

// New creates a Reconstructor for the image described by header, set to full
// resolution.
func New(header *Header, opts *Options) (*Reconstructor, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	tiles, err := tcd.NewTileDecoder(header)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Reconstructor{
		opts:    opts,
		log:     logger,
		tiles:   tiles,
		geom:    geometry.NewAdapter(tiles),
		engines: make(map[tileComp]*engines),
	}, nil
}

// SetResolutionLevel selects the image resolution level to reconstruct.
// Level 0 is the lowest resolution; MaxResolutionLevel is full resolution.
func (r *Reconstructor) SetResolutionLevel(rl int) error {
	if err := r.geom.SetImgResLevel(rl); err != nil {
		return err
	}
	r.log.Debug("resolution level set", slog.Int("resolution", rl))
	return nil
}

// ResolutionLevel returns the selected image resolution level.
func (r *Reconstructor) ResolutionLevel() int { return r.geom.ImgResLevel() }

// MaxResolutionLevel returns the highest image resolution level that every
// tile-component can deliver.
func (r *Reconstructor) MaxResolutionLevel() int { return r.geom.MaxImgResLevel() }

// Geometry returns the image geometry at the selected resolution level.
func (r *Reconstructor) Geometry() Geometry { return r.geom }

// SetTile moves the geometry tile cursor to tile (x, y).
func (r *Reconstructor) SetTile(x, y int) error { return r.geom.SetTile(x, y) }

// NextTile moves the geometry tile cursor to the next tile.
func (r *Reconstructor) NextTile() error { return r.geom.NextTile() }

// Coefficients returns the integer coefficient plane of tile t, component c,
// for upstream code to fill. Subbands are laid out as in the subband tree.
func (r *Reconstructor) Coefficients(t, c int) (*Plane, error) {
	tc, err := r.tiles.TileComponent(t, c)
	if err != nil {
		return nil, err
	}
	return tc.Coefficients(), nil
}

// FloatCoefficients returns the floating point coefficient plane of tile t,
// component c, used when the tile-component has the 9-7 transform.
func (r *Reconstructor) FloatCoefficients(t, c int) (*FloatPlane, error) {
	tc, err := r.tiles.TileComponent(t, c)
	if err != nil {
		return nil, err
	}
	return tc.FloatCoefficients(), nil
}

// TileComponent returns the tile-component store, with its subband tree and
// resolution geometry.
func (r *Reconstructor) TileComponent(t, c int) (*tcd.TileComponent, error) {
	return r.tiles.TileComponent(t, c)
}

// Reset drops every cached reconstruction.
func (r *Reconstructor) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.engines)
}

// enginesFor returns the cached engines of tile t, component c.
func (r *Reconstructor) enginesFor(t, c int) *engines {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := tileComp{t, c}
	e, ok := r.engines[key]
	if !ok {
		e = &engines{}
		r.engines[key] = e
	}
	return e
}

func (r *Reconstructor) engineOptions() *dwt.Options {
	return &dwt.Options{Workers: r.opts.Workers, Logger: r.log}
}

// ReconstructTileComponent reconstructs tile t, component c at the selected
// resolution level. Results of the 9-7 transform are rounded to the nearest
// integer.
func (r *Reconstructor) ReconstructTileComponent(t, c int) (*Plane, error) {
	tc, err := r.tiles.TileComponent(t, c)
	if err != nil {
		return nil, err
	}
	rl := r.geom.TileCompResLevel(t, c)
	eng := r.enginesFor(t, c)

	var out *Plane
	if tc.WaveletTransform == Transform5x3 {
		if eng.ints == nil {
			if eng.ints, err = dwt.NewEngine(tc.Tree, tc.Coefficients(), r.engineOptions()); err != nil {
				return nil, errors.Wrapf(err, "tile %d component %d", t, c)
			}
		}
		if out, err = eng.ints.Reconstruct(rl); err != nil {
			return nil, errors.Wrapf(err, "tile %d component %d", t, c)
		}
	} else {
		if eng.floats == nil {
			if eng.floats, err = dwt.NewEngine(tc.Tree, tc.FloatCoefficients(), r.engineOptions()); err != nil {
				return nil, errors.Wrapf(err, "tile %d component %d", t, c)
			}
		}
		fp, err := eng.floats.Reconstruct(rl)
		if err != nil {
			return nil, errors.Wrapf(err, "tile %d component %d", t, c)
		}
		out = roundPlane(fp)
	}

	r.log.Debug("reconstructed tile-component",
		slog.Int("tile", t),
		slog.Int("component", c),
		slog.Int("resolution", rl),
		slog.Int("width", out.Width),
		slog.Int("height", out.Height))
	return out, nil
}

// ReconstructTile reconstructs every component of tile t concurrently.
func (r *Reconstructor) ReconstructTile(t int) ([]*Plane, error) {
	if t < 0 || t >= r.tiles.NumTiles() {
		return nil, errors.Wrapf(ErrNoSuchTile, "tile %d of %d", t, r.tiles.NumTiles())
	}
	planes := make([]*Plane, r.tiles.NumComps())

	g := r.group()
	for c := range planes {
		c := c
		g.Go(func() error {
			p, err := r.ReconstructTileComponent(t, c)
			if err != nil {
				return err
			}
			planes[c] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return planes, nil
}

// ReconstructComponent reconstructs component c over the whole image by
// placing every reconstructed tile-component at its position.
func (r *Reconstructor) ReconstructComponent(c int) (*Plane, error) {
	if c < 0 || c >= r.tiles.NumComps() {
		return nil, errors.Wrapf(ErrComponentRange, "component %d of %d", c, r.tiles.NumComps())
	}

	origin, err := r.resOrigin(0, c)
	if err != nil {
		return nil, err
	}
	out := dwt.NewPlane[int32](r.geom.CompImgWidth(c), r.geom.CompImgHeight(c))

	g := r.group()
	for t := 0; t < r.tiles.NumTiles(); t++ {
		t := t
		g.Go(func() error {
			p, err := r.ReconstructTileComponent(t, c)
			if err != nil {
				return err
			}
			at, err := r.resOrigin(t, c)
			if err != nil {
				return err
			}
			x, y := at.X-origin.X, at.Y-origin.Y
			for j := 0; j < p.Height; j++ {
				copy(out.Row(y + j)[x:x+p.Width], p.Row(j))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// resOrigin returns the canvas origin of tile t, component c at the
// selected resolution level.
func (r *Reconstructor) resOrigin(t, c int) (image.Point, error) {
	tc, err := r.tiles.TileComponent(t, c)
	if err != nil {
		return image.Point{}, err
	}
	rl := r.geom.TileCompResLevel(t, c)
	if rl < 0 || rl >= len(tc.Resolutions) {
		return image.Point{}, errors.Wrapf(ErrResolutionRange, "tile %d component %d level %d", t, c, rl)
	}
	res := tc.Resolutions[rl]
	return image.Pt(res.X0, res.Y0), nil
}

func (r *Reconstructor) group() *errgroup.Group {
	g := &errgroup.Group{}
	limit := r.opts.ComponentWorkers
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	g.SetLimit(limit)
	return g
}

// roundPlane rounds a floating point plane to the nearest integers.
func roundPlane(fp *FloatPlane) *Plane {
	out := dwt.NewPlane[int32](fp.Width, fp.Height)
	for y := 0; y < fp.Height; y++ {
		src, dst := fp.Row(y), out.Row(y)
		for x, v := range src {
			dst[x] = int32(math.Floor(float64(v) + 0.5))
		}
	}
	return out
}
