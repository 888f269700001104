// Package tcd implements the tile-component store of the inverse transform.
//
// A TileDecoder derives the geometry of every tile, tile-component,
// resolution level and band from the main header, owns the coefficient
// planes that upstream decoding fills, and builds the subband tree that the
// inverse DWT walks. It also implements geometry.Source.
package tcd

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/mrjoshuak/go-jpeg2000-idwt/internal/codestream"
	"github.com/mrjoshuak/go-jpeg2000-idwt/internal/dwt"
	"github.com/mrjoshuak/go-jpeg2000-idwt/internal/filter"
	"github.com/mrjoshuak/go-jpeg2000-idwt/internal/geometry"
	"github.com/mrjoshuak/go-jpeg2000-idwt/internal/subband"
)

var (
	// ErrNoSuchTile is returned for tile coordinates or an index outside the
	// tile grid.
	ErrNoSuchTile = errors.New("tcd: no such tile")

	// ErrNoNextTile is returned by NextTile on the last tile.
	ErrNoNextTile = errors.New("tcd: no next tile")

	// ErrComponentRange is returned for a component index outside the image.
	ErrComponentRange = errors.New("tcd: component index out of range")

	// ErrNotInTree is returned when a subband does not belong to the
	// tile-component it is used with.
	ErrNotInTree = errors.New("tcd: subband not in tile-component tree")
)

var _ geometry.Source = (*TileDecoder)(nil)

// Tile represents a single tile in the image.
type Tile struct {
	// Tile index
	Index int

	// Tile bounds in image coordinates
	X0, Y0, X1, Y1 int

	// Components
	Components []*TileComponent
}

// TileComponent represents a single component within a tile.
type TileComponent struct {
	// Component index
	Index int

	// Component bounds (may differ due to subsampling)
	X0, Y0, X1, Y1 int

	// NumDecompositions is the number of decomposition levels.
	NumDecompositions int

	// WaveletTransform is the COD/COC wavelet id.
	WaveletTransform int

	// Resolution levels, index 0 is the lowest resolution
	Resolutions []*Resolution

	// Tree is the subband tree rooted at the tile-component.
	Tree *subband.Subband

	mu        sync.Mutex
	data      *dwt.Plane[int32]
	dataFloat *dwt.Plane[float32]
}

// Resolution represents a resolution level within a tile-component.
type Resolution struct {
	// Resolution level (0 = lowest)
	Level int

	// Bounds at this resolution
	X0, Y0, X1, Y1 int

	// Bands at this resolution: LL for level 0, HL, LH and HH otherwise
	Bands []*Band
}

// Band represents a subband within a resolution level.
type Band struct {
	Orientation subband.Orientation

	// Band bounds on the canvas at the band's resolution
	X0, Y0, X1, Y1 int

	// Subband is the tree leaf holding the band's coefficients.
	Subband *subband.Subband
}

// Width returns the tile-component width.
func (tc *TileComponent) Width() int { return tc.X1 - tc.X0 }

// Height returns the tile-component height.
func (tc *TileComponent) Height() int { return tc.Y1 - tc.Y0 }

// Coefficients returns the integer coefficient plane, allocating it on first
// use.
func (tc *TileComponent) Coefficients() *dwt.Plane[int32] {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if tc.data == nil {
		tc.data = dwt.NewPlane[int32](tc.Width(), tc.Height())
	}
	return tc.data
}

// FloatCoefficients returns the floating point coefficient plane used by the
// irreversible transform, allocating it on first use.
func (tc *TileComponent) FloatCoefficients() *dwt.Plane[float32] {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if tc.dataFloat == nil {
		tc.dataFloat = dwt.NewPlane[float32](tc.Width(), tc.Height())
	}
	return tc.dataFloat
}

// TileDecoder holds the tiles of one image.
//
// Tiles are built on first access; concurrent access to distinct
// tile-components is safe. The tile cursor used by the geometry.Source
// methods must have a single writer.
type TileDecoder struct {
	header *codestream.Header

	mu    sync.Mutex
	tiles []*Tile

	cur int
}

// NewTileDecoder creates a new tile decoder for a validated header.
func NewTileDecoder(header *codestream.Header) (*TileDecoder, error) {
	if err := header.Validate(); err != nil {
		return nil, err
	}
	if header.NumTilesX == 0 || header.NumTilesY == 0 {
		header.CalculateDerivedValues()
	}
	return &TileDecoder{
		header: header,
		tiles:  make([]*Tile, header.NumTiles()),
	}, nil
}

// Header returns the main header.
func (d *TileDecoder) Header() *codestream.Header { return d.header }

// TileAt returns tile t, initializing it on first use.
func (d *TileDecoder) TileAt(t int) (*Tile, error) {
	if t < 0 || t >= len(d.tiles) {
		return nil, errors.Wrapf(ErrNoSuchTile, "tile %d of %d", t, len(d.tiles))
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tiles[t] == nil {
		tile, err := d.initTile(t)
		if err != nil {
			return nil, err
		}
		d.tiles[t] = tile
	}
	return d.tiles[t], nil
}

// TileComponent returns component c of tile t.
func (d *TileDecoder) TileComponent(t, c int) (*TileComponent, error) {
	if c < 0 || c >= int(d.header.NumComponents) {
		return nil, errors.Wrapf(ErrComponentRange, "component %d of %d", c, d.header.NumComponents)
	}
	tile, err := d.TileAt(t)
	if err != nil {
		return nil, err
	}
	return tile.Components[c], nil
}

// SubbandData returns the region of the integer coefficient plane of tile t,
// component c that holds subband sb.
func (d *TileDecoder) SubbandData(t, c int, sb *subband.Subband) (*dwt.Plane[int32], error) {
	tc, err := d.checkBand(t, c, sb)
	if err != nil {
		return nil, err
	}
	return tc.Coefficients().Sub(sb.ULX, sb.ULY, sb.W, sb.H), nil
}

// SubbandDataFloat is the floating point counterpart of SubbandData.
func (d *TileDecoder) SubbandDataFloat(t, c int, sb *subband.Subband) (*dwt.Plane[float32], error) {
	tc, err := d.checkBand(t, c, sb)
	if err != nil {
		return nil, err
	}
	return tc.FloatCoefficients().Sub(sb.ULX, sb.ULY, sb.W, sb.H), nil
}

// BandData returns the integer coefficients of band b of resolution level rl
// of tile t, component c. Bands are numbered as in Resolution.Bands.
func (d *TileDecoder) BandData(t, c, rl, b int) (*dwt.Plane[int32], error) {
	band, err := d.band(t, c, rl, b)
	if err != nil {
		return nil, err
	}
	return d.SubbandData(t, c, band.Subband)
}

// BandDataFloat is the floating point counterpart of BandData.
func (d *TileDecoder) BandDataFloat(t, c, rl, b int) (*dwt.Plane[float32], error) {
	band, err := d.band(t, c, rl, b)
	if err != nil {
		return nil, err
	}
	return d.SubbandDataFloat(t, c, band.Subband)
}

func (d *TileDecoder) band(t, c, rl, b int) (*Band, error) {
	tc, err := d.TileComponent(t, c)
	if err != nil {
		return nil, err
	}
	if rl < 0 || rl >= len(tc.Resolutions) {
		return nil, errors.Wrapf(subband.ErrIndexRange, "resolution level %d of tile %d component %d", rl, t, c)
	}
	bands := tc.Resolutions[rl].Bands
	if b < 0 || b >= len(bands) {
		return nil, errors.Wrapf(subband.ErrIndexRange, "band %d at resolution level %d", b, rl)
	}
	return bands[b], nil
}

func (d *TileDecoder) checkBand(t, c int, sb *subband.Subband) (*TileComponent, error) {
	tc, err := d.TileComponent(t, c)
	if err != nil {
		return nil, err
	}
	root := sb
	for root != nil && root.Parent() != nil {
		root = root.Parent()
	}
	if root != tc.Tree {
		return nil, errors.Wrapf(ErrNotInTree, "tile %d component %d", t, c)
	}
	return tc, nil
}

// initTile initializes a tile for decoding.
func (d *TileDecoder) initTile(tileIndex int) (*Tile, error) {
	h := d.header
	bounds := h.TileBounds(tileIndex)

	tile := &Tile{
		Index:      tileIndex,
		X0:         bounds.Min.X,
		Y0:         bounds.Min.Y,
		X1:         bounds.Max.X,
		Y1:         bounds.Max.Y,
		Components: make([]*TileComponent, h.NumComponents),
	}

	// Initialize components
	for c := 0; c < int(h.NumComponents); c++ {
		comp := h.ComponentInfo[c]

		// Apply subsampling
		tc := &TileComponent{
			Index:             c,
			X0:                ceilDiv(tile.X0, int(comp.SubsamplingX)),
			Y0:                ceilDiv(tile.Y0, int(comp.SubsamplingY)),
			X1:                ceilDiv(tile.X1, int(comp.SubsamplingX)),
			Y1:                ceilDiv(tile.Y1, int(comp.SubsamplingY)),
			NumDecompositions: h.DecompositionLevels(tileIndex, c),
			WaveletTransform:  h.WaveletTransform(tileIndex, c),
		}

		f, err := filter.ForTransform(tc.WaveletTransform)
		if err != nil {
			return nil, errors.Wrapf(err, "tile %d component %d", tileIndex, c)
		}
		filters := []filter.Filter{f}
		tc.Tree, err = subband.New(tc.Width(), tc.Height(), tc.X0, tc.Y0, tc.NumDecompositions, filters, filters)
		if err != nil {
			return nil, errors.Wrapf(err, "tile %d component %d", tileIndex, c)
		}

		// Initialize resolutions
		tc.Resolutions = lo.Times(tc.NumDecompositions+1, func(r int) *Resolution {
			return initResolution(tc, r)
		})

		tile.Components[c] = tc
	}

	return tile, nil
}

// initResolution initializes a resolution level.
func initResolution(tc *TileComponent, resLevel int) *Resolution {
	// Calculate resolution bounds
	shift := tc.NumDecompositions - resLevel
	res := &Resolution{
		Level: resLevel,
		X0:    resCoord(tc.X0, shift),
		Y0:    resCoord(tc.Y0, shift),
		X1:    resCoord(tc.X1, shift),
		Y1:    resCoord(tc.Y1, shift),
	}

	// Initialize bands
	node, _ := tc.Tree.Node(resLevel)
	bands := []*subband.Subband{node}
	if resLevel > 0 {
		bands = []*subband.Subband{node.HL(), node.LH(), node.HH()}
	}
	res.Bands = lo.Map(bands, func(sb *subband.Subband, _ int) *Band {
		return &Band{
			Orientation: sb.Orientation,
			X0:          sb.ULCX,
			Y0:          sb.ULCY,
			X1:          sb.ULCX + sb.W,
			Y1:          sb.ULCY + sb.H,
			Subband:     sb,
		}
	})

	return res
}

// Helper functions

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// resCoord maps a full resolution coordinate down by shift dyadic levels.
func resCoord(v, shift int) int {
	if shift <= 0 {
		return v << -shift
	}
	return ceilDiv(v, 1<<shift)
}
