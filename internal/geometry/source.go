// Package geometry derives image, tile and tile-component geometry at a
// selected reconstruction resolution level.
//
// Resolution levels are counted from the lowest resolution (0). Every
// tile-component may be decomposed a different number of times, so the same
// image resolution level maps to different tile-component levels. The
// Adapter centralizes that arithmetic on top of a Source.
package geometry

import (
	"image"

	"github.com/mrjoshuak/go-jpeg2000-idwt/internal/subband"
)

// Source is a multi-resolution image data source. Methods that take a
// resolution level rl interpret it relative to the number of decomposition
// levels of the item they describe: rl equal to that number is full
// resolution.
type Source interface {
	// NomTileWidth returns the nominal tile width on the reference grid.
	NomTileWidth() int
	// NomTileHeight returns the nominal tile height on the reference grid.
	NomTileHeight() int

	// NumComps returns the number of components.
	NumComps() int

	// CompSubsX returns the horizontal subsampling factor of component c.
	CompSubsX(c int) int
	// CompSubsY returns the vertical subsampling factor of component c.
	CompSubsY(c int) int

	// ImgWidth returns the image width at resolution level rl, relative to
	// MinDecompositionLevels.
	ImgWidth(rl int) int
	// ImgHeight returns the image height at resolution level rl.
	ImgHeight(rl int) int
	// ImgULX returns the horizontal image origin at resolution level rl.
	ImgULX(rl int) int
	// ImgULY returns the vertical image origin at resolution level rl.
	ImgULY(rl int) int

	// TileWidth returns the width of the current tile at resolution level
	// rl, relative to the smallest decomposition count of its components.
	TileWidth(rl int) int
	// TileHeight returns the height of the current tile at resolution level
	// rl.
	TileHeight(rl int) int

	// TileCompWidth returns the width of tile t, component c at resolution
	// level rl of that tile-component.
	TileCompWidth(t, c, rl int) int
	// TileCompHeight returns the height of tile t, component c at
	// resolution level rl.
	TileCompHeight(t, c, rl int) int

	// CompImgWidth returns the width of component c over the whole image at
	// resolution level rl, relative to CompDecompositionLevels(c).
	CompImgWidth(c, rl int) int
	// CompImgHeight returns the height of component c over the whole image.
	CompImgHeight(c, rl int) int

	// ResULX returns the horizontal origin of component c of the current
	// tile at resolution level rl.
	ResULX(c, rl int) int
	// ResULY returns the vertical origin of component c of the current tile.
	ResULY(c, rl int) int

	// TilePartULX returns the horizontal origin of the tile partition.
	TilePartULX() int
	// TilePartULY returns the vertical origin of the tile partition.
	TilePartULY() int

	// SetTile moves the tile cursor to tile (x, y).
	SetTile(x, y int) error
	// NextTile moves the tile cursor to the next tile in raster order.
	NextTile() error
	// Tile returns the coordinates of the current tile.
	Tile() image.Point
	// TileIdx returns the index of the current tile.
	TileIdx() int
	// NumTilesXY returns the number of tiles in each direction.
	NumTilesXY() image.Point
	// NumTiles returns the total number of tiles.
	NumTiles() int

	// SubbandTree returns the subband tree of tile t, component c.
	SubbandTree(t, c int) (*subband.Subband, error)
	// DecompositionLevels returns the number of decomposition levels of
	// tile t, component c.
	DecompositionLevels(t, c int) int
	// CompDecompositionLevels returns the smallest number of decomposition
	// levels of component c over all tiles.
	CompDecompositionLevels(c int) int
	// MinDecompositionLevels returns the smallest number of decomposition
	// levels over all tile-components.
	MinDecompositionLevels() int
}

// Image is the geometry of the image as seen at one reconstruction
// resolution level. It is implemented by Adapter.
type Image interface {
	ImgResLevel() int
	NomTileWidth() int
	NomTileHeight() int
	NumComps() int
	CompSubsX(c int) int
	CompSubsY(c int) int
	ImgWidth() int
	ImgHeight() int
	ImgULX() int
	ImgULY() int
	TileWidth() int
	TileHeight() int
	TileCompWidth(t, c int) int
	TileCompHeight(t, c int) int
	TileCompResLevel(t, c int) int
	CompImgWidth(c int) int
	CompImgHeight(c int) int
	CompULX(c int) int
	CompULY(c int) int
	TilePartULX() int
	TilePartULY() int
	Tile() image.Point
	TileIdx() int
	NumTilesXY() image.Point
	NumTiles() int
}
