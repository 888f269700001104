// Package filter implements the wavelet synthesis filters for JPEG 2000.
//
// JPEG 2000 Part 1 defines two filters:
// - 5-3 reversible (lossless): integer lifting
// - 9-7 irreversible (lossy): floating-point lifting
//
// A filter merges a low-pass and a high-pass half sequence into one
// full-resolution sequence. Filters carry no state and are shared by every
// subband that uses them.
package filter

import (
	"github.com/pkg/errors"
)

// ErrUnknownFilter is returned when a wavelet transform id has no filter.
var ErrUnknownFilter = errors.New("filter: unknown wavelet filter")

// Kind identifies how a filter is implemented.
type Kind int

// Implementation kinds.
const (
	// IntLift is an integer lifting implementation.
	IntLift Kind = iota
	// FloatLift is a floating-point lifting implementation.
	FloatLift
	// FloatConvol is a floating-point convolution implementation.
	FloatConvol
)

// String returns the name of the implementation kind.
func (k Kind) String() string {
	switch k {
	case IntLift:
		return "int-lift"
	case FloatLift:
		return "float-lift"
	case FloatConvol:
		return "float-convol"
	default:
		return "unknown"
	}
}

// DataType identifies the sample type a filter operates on.
type DataType int

// Sample data types.
const (
	Int DataType = iota
	Float
)

// Wavelet transform ids as carried in the COD/COC marker (SPcod).
const (
	Transform9x7 = 0
	Transform5x3 = 1
)

// Sample is the set of sample types a synthesis filter can operate on.
type Sample interface {
	~int32 | ~float32
}

// Signal addresses a strided 1-D sequence inside a shared array.
// Element k lives at Data[Off+k*Step].
type Signal[T Sample] struct {
	Data []T
	Off  int
	Len  int
	Step int
}

// Filter describes the static properties of a wavelet filter.
//
// Supports are given in samples: AnLowNegSupport is the number of taps of the
// analysis low-pass filter on the negative side, and so on.
type Filter interface {
	AnLowNegSupport() int
	AnLowPosSupport() int
	AnHighNegSupport() int
	AnHighPosSupport() int
	SynLowNegSupport() int
	SynLowPosSupport() int
	SynHighNegSupport() int
	SynHighPosSupport() int

	ImplType() Kind
	DataType() DataType
	Reversible() bool

	// IsSameAsFullWT reports whether a transform over a segment with the
	// given tail and head overlap gives the same result as a transform
	// over the whole signal.
	IsSameAsFullWT(tailOvrlp, headOvrlp, inLen int) bool

	String() string
}

// Synthesizer is a Filter that can reconstruct samples of type T.
//
// The output length is low.Len+high.Len and out.Len is ignored.
// SynthesizeLowPhase is used when the first output sample sits on an even
// canvas coordinate (it is a low-pass sample), SynthesizeHighPhase when it
// sits on an odd one. In the low phase low.Len = ceil(n/2) and
// high.Len = floor(n/2); the high phase swaps the two.
type Synthesizer[T Sample] interface {
	Filter
	SynthesizeLowPhase(low, high, out Signal[T])
	SynthesizeHighPhase(low, high, out Signal[T])
}

// Split returns the low-pass and high-pass lengths of an n sample signal
// whose first sample sits on canvas coordinate origin.
func Split(n, origin int) (lowLen, highLen int) {
	if origin&1 == 0 {
		return (n + 1) >> 1, n >> 1
	}
	return n >> 1, (n + 1) >> 1
}

var (
	w5x3 = Lift5x3{}
	w9x7 = Lift9x7{}
)

// ForTransform returns the synthesis filter for a COD/COC wavelet transform id.
func ForTransform(id int) (Filter, error) {
	switch id {
	case Transform5x3:
		return w5x3, nil
	case Transform9x7:
		return w9x7, nil
	default:
		return nil, errors.Wrapf(ErrUnknownFilter, "transform id %d", id)
	}
}
