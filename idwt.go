// Package idwt reconstructs JPEG 2000 tile-components from their wavelet
// coefficients at a selectable resolution level.
//
// Upstream decoding (entropy decoding and dequantization) fills the
// coefficient planes; a Reconstructor then runs the inverse DWT for any tile,
// component and resolution level the header describes.
//
// Basic usage:
//
//	r, err := idwt.New(header, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	coeffs, _ := r.Coefficients(0, 0)
//	// ... fill coeffs ...
//	_ = r.SetResolutionLevel(1) // half of the full resolution
//	plane, err := r.ReconstructTileComponent(0, 0)
package idwt

import (
	"log/slog"
	"runtime"

	"github.com/mrjoshuak/go-jpeg2000-idwt/internal/codestream"
	"github.com/mrjoshuak/go-jpeg2000-idwt/internal/dwt"
	"github.com/mrjoshuak/go-jpeg2000-idwt/internal/filter"
	"github.com/mrjoshuak/go-jpeg2000-idwt/internal/geometry"
)

// Header describes image, tile and decomposition geometry.
type Header = codestream.Header

// ComponentInfo holds per-component precision and subsampling.
type ComponentInfo = codestream.ComponentInfo

// CodingStyleDefault holds the decomposition levels and wavelet of the COD
// marker.
type CodingStyleDefault = codestream.CodingStyleDefault

// CodingStyleComponent holds the per-component COC overrides.
type CodingStyleComponent = codestream.CodingStyleComponent

// TileCodingStyle holds tile-part overrides.
type TileCodingStyle = codestream.TileCodingStyle

// Plane is an integer sample plane stored row-major with a stride.
type Plane = dwt.Plane[int32]

// FloatPlane is a floating point sample plane used by the 9-7 transform.
type FloatPlane = dwt.Plane[float32]

// Geometry reports image and tile geometry at the configured resolution
// level.
type Geometry = geometry.Image

// Wavelet transform ids as carried by the COD and COC markers.
const (
	Transform9x7 = filter.Transform9x7
	Transform5x3 = filter.Transform5x3
)

// Options configures a Reconstructor.
type Options struct {
	// Workers is the number of goroutines one tile-component synthesis may
	// use for its row and column passes. Values below 2 disable splitting.
	Workers int

	// ComponentWorkers limits how many tile-components of a tile or tiles of
	// a component are reconstructed at once.
	// If 0, runtime.NumCPU() is used.
	ComponentWorkers int

	// Logger receives debug records. If nil, nothing is logged.
	Logger *slog.Logger
}

// DefaultOptions returns the default reconstruction options.
func DefaultOptions() *Options {
	return &Options{
		Workers:          1,
		ComponentWorkers: runtime.NumCPU(),
	}
}
