// Package codestream holds the image and tile geometry of a JPEG 2000
// codestream, as carried by the SIZ, COD and COC marker segments.
//
// Marker parsing happens upstream; this package only describes the decoded
// values and derives the tiling and decomposition structure from them.
package codestream

import (
	"image"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// ErrInvalidHeader is returned by Validate for an inconsistent header.
var ErrInvalidHeader = errors.New("codestream: invalid header")

// MaxDecompositions is the largest number of decomposition levels allowed by
// the COD/COC markers.
const MaxDecompositions = 32

// Header represents the geometry-related main header values.
type Header struct {
	// SIZ marker data. ImageWidth and ImageHeight are the canvas extents
	// (Xsiz, Ysiz); the image area is [ImageXOffset, ImageWidth) x
	// [ImageYOffset, ImageHeight).
	ImageWidth    uint32
	ImageHeight   uint32
	ImageXOffset  uint32
	ImageYOffset  uint32
	TileWidth     uint32
	TileHeight    uint32
	TileXOffset   uint32
	TileYOffset   uint32
	NumComponents uint16
	ComponentInfo []ComponentInfo

	// Derived values
	NumTilesX uint32
	NumTilesY uint32

	// COD marker data (default coding style)
	CodingStyle CodingStyleDefault

	// Optional per-component coding styles (COC markers)
	ComponentCodingStyles map[uint16]CodingStyleComponent

	// Optional tile-part coding styles, keyed by tile index
	TileCodingStyles map[uint16]TileCodingStyle
}

// ComponentInfo holds per-component size information from the SIZ marker.
type ComponentInfo struct {
	// Bit depth of the component (Ssiz).
	// If bit 7 is set, the component is signed.
	BitDepth uint8

	// Horizontal subsampling factor (XRsiz).
	SubsamplingX uint8

	// Vertical subsampling factor (YRsiz).
	SubsamplingY uint8
}

// Precision returns the bit precision (1-38).
func (c ComponentInfo) Precision() int {
	return int(c.BitDepth&0x7F) + 1
}

// IsSigned returns true if the component values are signed.
func (c ComponentInfo) IsSigned() bool {
	return c.BitDepth&0x80 != 0
}

// CodingStyleDefault holds the transform fields of the COD marker.
type CodingStyleDefault struct {
	NumDecompositions uint8
	WaveletTransform  uint8
}

// NumResolutions returns the number of resolution levels.
func (c CodingStyleDefault) NumResolutions() int {
	return int(c.NumDecompositions) + 1
}

// IsReversible returns true if the 5-3 reversible wavelet is used.
func (c CodingStyleDefault) IsReversible() bool {
	return c.WaveletTransform == 1
}

// CodingStyleComponent holds the transform fields of a COC marker.
type CodingStyleComponent struct {
	ComponentIndex    uint16
	NumDecompositions uint8
	WaveletTransform  uint8
}

// TileCodingStyle holds COD/COC overrides from a tile-part header.
type TileCodingStyle struct {
	CodingStyle           *CodingStyleDefault
	ComponentCodingStyles map[uint16]CodingStyleComponent
}

// Validate checks the header for consistency.
func (h *Header) Validate() error {
	if h.ImageWidth <= h.ImageXOffset || h.ImageHeight <= h.ImageYOffset {
		return errors.Wrapf(ErrInvalidHeader, "empty image area: %dx%d at (%d, %d)",
			h.ImageWidth, h.ImageHeight, h.ImageXOffset, h.ImageYOffset)
	}

	if h.TileWidth == 0 || h.TileHeight == 0 {
		return errors.Wrapf(ErrInvalidHeader, "invalid tile dimensions: %dx%d", h.TileWidth, h.TileHeight)
	}

	if h.TileXOffset > h.ImageXOffset || h.TileYOffset > h.ImageYOffset ||
		h.TileXOffset+h.TileWidth <= h.ImageXOffset || h.TileYOffset+h.TileHeight <= h.ImageYOffset {
		return errors.Wrapf(ErrInvalidHeader, "first tile does not cover the image origin")
	}

	if h.NumComponents == 0 || h.NumComponents > 16384 {
		return errors.Wrapf(ErrInvalidHeader, "invalid number of components: %d", h.NumComponents)
	}

	if len(h.ComponentInfo) != int(h.NumComponents) {
		return errors.Wrapf(ErrInvalidHeader, "component info mismatch: expected %d, got %d",
			h.NumComponents, len(h.ComponentInfo))
	}

	for i, comp := range h.ComponentInfo {
		if comp.SubsamplingX == 0 || comp.SubsamplingY == 0 {
			return errors.Wrapf(ErrInvalidHeader, "component %d: invalid subsampling: %dx%d",
				i, comp.SubsamplingX, comp.SubsamplingY)
		}
		prec := comp.Precision()
		if prec < 1 || prec > 38 {
			return errors.Wrapf(ErrInvalidHeader, "component %d: invalid precision: %d", i, prec)
		}
	}

	if h.CodingStyle.NumDecompositions > MaxDecompositions {
		return errors.Wrapf(ErrInvalidHeader, "invalid number of decompositions: %d", h.CodingStyle.NumDecompositions)
	}
	if err := h.validateComponentStyles(h.ComponentCodingStyles); err != nil {
		return err
	}

	nx, ny := h.tileGrid()
	numTiles := int(nx) * int(ny)
	for t, ts := range h.TileCodingStyles {
		if int(t) >= numTiles {
			return errors.Wrapf(ErrInvalidHeader, "tile-part coding style for unknown tile %d of %d", t, numTiles)
		}
		if ts.CodingStyle != nil && ts.CodingStyle.NumDecompositions > MaxDecompositions {
			return errors.Wrapf(ErrInvalidHeader, "tile %d: invalid number of decompositions: %d", t, ts.CodingStyle.NumDecompositions)
		}
		if err := h.validateComponentStyles(ts.ComponentCodingStyles); err != nil {
			return errors.Wrapf(err, "tile %d", t)
		}
	}

	return nil
}

func (h *Header) validateComponentStyles(styles map[uint16]CodingStyleComponent) error {
	for c, coc := range styles {
		if int(c) >= int(h.NumComponents) {
			return errors.Wrapf(ErrInvalidHeader, "COC for unknown component %d", c)
		}
		if coc.NumDecompositions > MaxDecompositions {
			return errors.Wrapf(ErrInvalidHeader, "component %d: invalid number of decompositions: %d", c, coc.NumDecompositions)
		}
	}
	return nil
}

// tileGrid returns the number of tiles in each direction.
func (h *Header) tileGrid() (nx, ny uint32) {
	if h.TileWidth > 0 {
		nx = (h.ImageWidth - h.TileXOffset + h.TileWidth - 1) / h.TileWidth
	}
	if h.TileHeight > 0 {
		ny = (h.ImageHeight - h.TileYOffset + h.TileHeight - 1) / h.TileHeight
	}
	return nx, ny
}

// CalculateDerivedValues computes values derived from the main header.
func (h *Header) CalculateDerivedValues() {
	h.NumTilesX, h.NumTilesY = h.tileGrid()
}

// NumTiles returns the total number of tiles.
func (h *Header) NumTiles() int {
	return int(h.NumTilesX) * int(h.NumTilesY)
}

// TileBounds returns the canvas area covered by tile t.
func (h *Header) TileBounds(t int) image.Rectangle {
	tx := t % int(h.NumTilesX)
	ty := t / int(h.NumTilesX)

	x0 := max(int(h.TileXOffset)+tx*int(h.TileWidth), int(h.ImageXOffset))
	y0 := max(int(h.TileYOffset)+ty*int(h.TileHeight), int(h.ImageYOffset))
	x1 := min(int(h.TileXOffset)+(tx+1)*int(h.TileWidth), int(h.ImageWidth))
	y1 := min(int(h.TileYOffset)+(ty+1)*int(h.TileHeight), int(h.ImageHeight))
	return image.Rect(x0, y0, x1, y1)
}

// ImageBounds returns the image area on the canvas.
func (h *Header) ImageBounds() image.Rectangle {
	return image.Rect(int(h.ImageXOffset), int(h.ImageYOffset), int(h.ImageWidth), int(h.ImageHeight))
}

// codingStyle resolves the transform fields for tile t, component c.
// Precedence: tile COC, tile COD, main COC, main COD.
func (h *Header) codingStyle(t, c int) (decomp, transform uint8) {
	decomp, transform = h.CodingStyle.NumDecompositions, h.CodingStyle.WaveletTransform
	if coc, ok := h.ComponentCodingStyles[uint16(c)]; ok {
		decomp, transform = coc.NumDecompositions, coc.WaveletTransform
	}
	ts, ok := h.TileCodingStyles[uint16(t)]
	if !ok {
		return decomp, transform
	}
	if ts.CodingStyle != nil {
		decomp, transform = ts.CodingStyle.NumDecompositions, ts.CodingStyle.WaveletTransform
	}
	if coc, ok := ts.ComponentCodingStyles[uint16(c)]; ok {
		decomp, transform = coc.NumDecompositions, coc.WaveletTransform
	}
	return decomp, transform
}

// DecompositionLevels returns the number of decomposition levels of tile t,
// component c.
func (h *Header) DecompositionLevels(t, c int) int {
	d, _ := h.codingStyle(t, c)
	return int(d)
}

// WaveletTransform returns the wavelet transform id of tile t, component c.
func (h *Header) WaveletTransform(t, c int) int {
	_, w := h.codingStyle(t, c)
	return int(w)
}

// CompDecompositionLevels returns the smallest number of decomposition
// levels of component c over all tiles.
func (h *Header) CompDecompositionLevels(c int) int {
	return lo.Min(lo.Times(h.NumTiles(), func(t int) int {
		return h.DecompositionLevels(t, c)
	}))
}

// MinDecompositionLevels returns the smallest number of decomposition levels
// over all tile-components. This is the highest image resolution level every
// tile-component can deliver.
func (h *Header) MinDecompositionLevels() int {
	return lo.Min(lo.Times(int(h.NumComponents), h.CompDecompositionLevels))
}
