package geometry

import (
	"image"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// ErrResolutionRange is returned when a reconstruction resolution level is
// negative or higher than every tile-component can deliver.
var ErrResolutionRange = errors.New("geometry: resolution level out of range")

var _ Image = (*Adapter)(nil)

// Adapter answers geometry queries for one image resolution level by
// forwarding them to a Source at the matching per-item level.
//
// The tile cursor is shared with the source; an Adapter must have a single
// writer.
type Adapter struct {
	src Source

	// index of the current tile, refreshed after every cursor move
	tIdx int

	// image resolution level, in [0, maxImgRes]
	resLevel int

	// highest image resolution level every tile-component can deliver
	maxImgRes int
}

// NewAdapter returns an adapter over src set to the highest image resolution
// level.
func NewAdapter(src Source) *Adapter {
	maxRes := src.MinDecompositionLevels()
	return &Adapter{
		src:       src,
		tIdx:      src.TileIdx(),
		resLevel:  maxRes,
		maxImgRes: maxRes,
	}
}

// Source returns the underlying source.
func (a *Adapter) Source() Source { return a.src }

// SetImgResLevel sets the image resolution level at which geometry is
// reported and the image is reconstructed.
func (a *Adapter) SetImgResLevel(rl int) error {
	if rl < 0 || rl > a.maxImgRes {
		return errors.Wrapf(ErrResolutionRange, "level %d not in [0, %d]", rl, a.maxImgRes)
	}
	a.resLevel = rl
	return nil
}

// ImgResLevel returns the current image resolution level.
func (a *Adapter) ImgResLevel() int { return a.resLevel }

// MaxImgResLevel returns the highest valid image resolution level.
func (a *Adapter) MaxImgResLevel() int { return a.maxImgRes }

// TileCompResLevel returns the resolution level of tile t, component c that
// corresponds to the current image resolution level.
func (a *Adapter) TileCompResLevel(t, c int) int {
	return a.resLevel - a.maxImgRes + a.src.DecompositionLevels(t, c)
}

// tileResLevel is the resolution level of the current tile, relative to the
// smallest number of decomposition levels among its components.
func (a *Adapter) tileResLevel() int {
	ndl := lo.Min(lo.Times(a.src.NumComps(), func(c int) int {
		return a.src.DecompositionLevels(a.tIdx, c)
	}))
	return a.resLevel - a.maxImgRes + ndl
}

// compResLevel is the component-wide counterpart of TileCompResLevel.
func (a *Adapter) compResLevel(c int) int {
	return a.resLevel - a.maxImgRes + a.src.CompDecompositionLevels(c)
}

func (a *Adapter) NomTileWidth() int  { return a.src.NomTileWidth() }
func (a *Adapter) NomTileHeight() int { return a.src.NomTileHeight() }
func (a *Adapter) NumComps() int      { return a.src.NumComps() }

func (a *Adapter) CompSubsX(c int) int { return a.src.CompSubsX(c) }
func (a *Adapter) CompSubsY(c int) int { return a.src.CompSubsY(c) }

// ImgWidth returns the image width at the current resolution level.
func (a *Adapter) ImgWidth() int  { return a.src.ImgWidth(a.resLevel) }
func (a *Adapter) ImgHeight() int { return a.src.ImgHeight(a.resLevel) }
func (a *Adapter) ImgULX() int    { return a.src.ImgULX(a.resLevel) }
func (a *Adapter) ImgULY() int    { return a.src.ImgULY(a.resLevel) }

// TileWidth returns the width of the current tile at the current resolution
// level.
func (a *Adapter) TileWidth() int  { return a.src.TileWidth(a.tileResLevel()) }
func (a *Adapter) TileHeight() int { return a.src.TileHeight(a.tileResLevel()) }

// TileCompWidth returns the width of tile t, component c at the current
// resolution level.
func (a *Adapter) TileCompWidth(t, c int) int {
	return a.src.TileCompWidth(t, c, a.TileCompResLevel(t, c))
}

func (a *Adapter) TileCompHeight(t, c int) int {
	return a.src.TileCompHeight(t, c, a.TileCompResLevel(t, c))
}

// CompImgWidth returns the width of component c over the whole image at the
// current resolution level.
func (a *Adapter) CompImgWidth(c int) int {
	return a.src.CompImgWidth(c, a.compResLevel(c))
}

func (a *Adapter) CompImgHeight(c int) int {
	return a.src.CompImgHeight(c, a.compResLevel(c))
}

// CompULX returns the horizontal origin of component c of the current tile at
// the current resolution level.
func (a *Adapter) CompULX(c int) int {
	return a.src.ResULX(c, a.TileCompResLevel(a.tIdx, c))
}

func (a *Adapter) CompULY(c int) int {
	return a.src.ResULY(c, a.TileCompResLevel(a.tIdx, c))
}

func (a *Adapter) TilePartULX() int { return a.src.TilePartULX() }
func (a *Adapter) TilePartULY() int { return a.src.TilePartULY() }

// SetTile moves the source to tile (x, y).
func (a *Adapter) SetTile(x, y int) error {
	if err := a.src.SetTile(x, y); err != nil {
		return err
	}
	a.tIdx = a.src.TileIdx()
	return nil
}

// NextTile moves the source to the next tile.
func (a *Adapter) NextTile() error {
	if err := a.src.NextTile(); err != nil {
		return err
	}
	a.tIdx = a.src.TileIdx()
	return nil
}

func (a *Adapter) Tile() image.Point       { return a.src.Tile() }
func (a *Adapter) TileIdx() int            { return a.tIdx }
func (a *Adapter) NumTilesXY() image.Point { return a.src.NumTilesXY() }
func (a *Adapter) NumTiles() int           { return a.src.NumTiles() }
