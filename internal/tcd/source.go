package tcd

import (
	"image"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/mrjoshuak/go-jpeg2000-idwt/internal/subband"
)

func (d *TileDecoder) NomTileWidth() int  { return int(d.header.TileWidth) }
func (d *TileDecoder) NomTileHeight() int { return int(d.header.TileHeight) }
func (d *TileDecoder) NumComps() int      { return int(d.header.NumComponents) }

func (d *TileDecoder) CompSubsX(c int) int { return int(d.header.ComponentInfo[c].SubsamplingX) }
func (d *TileDecoder) CompSubsY(c int) int { return int(d.header.ComponentInfo[c].SubsamplingY) }

// ImgWidth returns the image width at resolution level rl.
func (d *TileDecoder) ImgWidth(rl int) int {
	shift := d.MinDecompositionLevels() - rl
	return resCoord(int(d.header.ImageWidth), shift) - resCoord(int(d.header.ImageXOffset), shift)
}

// ImgHeight returns the image height at resolution level rl.
func (d *TileDecoder) ImgHeight(rl int) int {
	shift := d.MinDecompositionLevels() - rl
	return resCoord(int(d.header.ImageHeight), shift) - resCoord(int(d.header.ImageYOffset), shift)
}

func (d *TileDecoder) ImgULX(rl int) int {
	return resCoord(int(d.header.ImageXOffset), d.MinDecompositionLevels()-rl)
}

func (d *TileDecoder) ImgULY(rl int) int {
	return resCoord(int(d.header.ImageYOffset), d.MinDecompositionLevels()-rl)
}

// tileMinDecompositions returns the smallest number of decomposition levels
// among the components of tile t.
func (d *TileDecoder) tileMinDecompositions(t int) int {
	return lo.Min(lo.Times(int(d.header.NumComponents), func(c int) int {
		return d.header.DecompositionLevels(t, c)
	}))
}

// TileWidth returns the width of the current tile at resolution level rl,
// without component subsampling.
func (d *TileDecoder) TileWidth(rl int) int {
	b := d.header.TileBounds(d.cur)
	shift := d.tileMinDecompositions(d.cur) - rl
	return resCoord(b.Max.X, shift) - resCoord(b.Min.X, shift)
}

// TileHeight returns the height of the current tile at resolution level rl.
func (d *TileDecoder) TileHeight(rl int) int {
	b := d.header.TileBounds(d.cur)
	shift := d.tileMinDecompositions(d.cur) - rl
	return resCoord(b.Max.Y, shift) - resCoord(b.Min.Y, shift)
}

// compBounds returns the bounds of component c of tile t at full resolution.
func (d *TileDecoder) compBounds(t, c int) image.Rectangle {
	b := d.header.TileBounds(t)
	info := d.header.ComponentInfo[c]
	sx, sy := int(info.SubsamplingX), int(info.SubsamplingY)
	return image.Rect(ceilDiv(b.Min.X, sx), ceilDiv(b.Min.Y, sy), ceilDiv(b.Max.X, sx), ceilDiv(b.Max.Y, sy))
}

// TileCompWidth returns the width of tile t, component c at resolution level
// rl of that tile-component.
func (d *TileDecoder) TileCompWidth(t, c, rl int) int {
	b := d.compBounds(t, c)
	shift := d.header.DecompositionLevels(t, c) - rl
	return resCoord(b.Max.X, shift) - resCoord(b.Min.X, shift)
}

// TileCompHeight returns the height of tile t, component c at resolution
// level rl of that tile-component.
func (d *TileDecoder) TileCompHeight(t, c, rl int) int {
	b := d.compBounds(t, c)
	shift := d.header.DecompositionLevels(t, c) - rl
	return resCoord(b.Max.Y, shift) - resCoord(b.Min.Y, shift)
}

// CompImgWidth returns the width of component c over the whole image at
// resolution level rl.
func (d *TileDecoder) CompImgWidth(c, rl int) int {
	h := d.header
	sx := int(h.ComponentInfo[c].SubsamplingX)
	shift := h.CompDecompositionLevels(c) - rl
	return resCoord(ceilDiv(int(h.ImageWidth), sx), shift) - resCoord(ceilDiv(int(h.ImageXOffset), sx), shift)
}

// CompImgHeight returns the height of component c over the whole image at
// resolution level rl.
func (d *TileDecoder) CompImgHeight(c, rl int) int {
	h := d.header
	sy := int(h.ComponentInfo[c].SubsamplingY)
	shift := h.CompDecompositionLevels(c) - rl
	return resCoord(ceilDiv(int(h.ImageHeight), sy), shift) - resCoord(ceilDiv(int(h.ImageYOffset), sy), shift)
}

// ResULX returns the horizontal origin of component c of the current tile at
// resolution level rl.
func (d *TileDecoder) ResULX(c, rl int) int {
	return resCoord(d.compBounds(d.cur, c).Min.X, d.header.DecompositionLevels(d.cur, c)-rl)
}

// ResULY returns the vertical origin of component c of the current tile at
// resolution level rl.
func (d *TileDecoder) ResULY(c, rl int) int {
	return resCoord(d.compBounds(d.cur, c).Min.Y, d.header.DecompositionLevels(d.cur, c)-rl)
}

func (d *TileDecoder) TilePartULX() int { return int(d.header.TileXOffset) }
func (d *TileDecoder) TilePartULY() int { return int(d.header.TileYOffset) }

// SetTile moves the tile cursor to tile (x, y).
func (d *TileDecoder) SetTile(x, y int) error {
	nx, ny := int(d.header.NumTilesX), int(d.header.NumTilesY)
	if x < 0 || y < 0 || x >= nx || y >= ny {
		return errors.Wrapf(ErrNoSuchTile, "tile (%d, %d) outside %dx%d grid", x, y, nx, ny)
	}
	d.cur = y*nx + x
	return nil
}

// NextTile moves the tile cursor to the next tile in raster order.
func (d *TileDecoder) NextTile() error {
	if d.cur+1 >= d.NumTiles() {
		return errors.Wrapf(ErrNoNextTile, "at tile %d", d.cur)
	}
	d.cur++
	return nil
}

// Tile returns the grid coordinates of the current tile.
func (d *TileDecoder) Tile() image.Point {
	nx := int(d.header.NumTilesX)
	return image.Pt(d.cur%nx, d.cur/nx)
}

func (d *TileDecoder) TileIdx() int { return d.cur }

func (d *TileDecoder) NumTilesXY() image.Point {
	return image.Pt(int(d.header.NumTilesX), int(d.header.NumTilesY))
}

func (d *TileDecoder) NumTiles() int { return d.header.NumTiles() }

// SubbandTree returns the subband tree of tile t, component c.
func (d *TileDecoder) SubbandTree(t, c int) (*subband.Subband, error) {
	tc, err := d.TileComponent(t, c)
	if err != nil {
		return nil, err
	}
	return tc.Tree, nil
}

func (d *TileDecoder) DecompositionLevels(t, c int) int {
	return d.header.DecompositionLevels(t, c)
}

func (d *TileDecoder) CompDecompositionLevels(c int) int {
	return d.header.CompDecompositionLevels(c)
}

func (d *TileDecoder) MinDecompositionLevels() int {
	return d.header.MinDecompositionLevels()
}
