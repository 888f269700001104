// Package wavelettest provides forward wavelet analysis for tests.
//
// The decoder never runs a forward transform; these helpers exist so tests
// can build subband pyramids from known sample planes and check that
// synthesis gives the samples back.
package wavelettest

import (
	"github.com/mrjoshuak/go-jpeg2000-idwt/internal/subband"
)

// 9-7 analysis coefficients, matching the synthesis filter.
const (
	alpha97 = -1.586134342
	beta97  = -0.05298011854
	gamma97 = 0.8829110762
	delta97 = 0.4435068522
	kl97    = 0.8128930655
	kh97    = 1.230174106
)

// Analyze53 performs the forward 5-3 transform of x, whose first sample sits
// on canvas coordinate origin, and returns the low and high bands.
func Analyze53(x []int32, origin int) (low, high []int32) {
	n := len(x)
	if origin&1 == 0 {
		low = make([]int32, (n+1)/2)
		high = make([]int32, n/2)
		analyze53Low(x, low, high)
	} else {
		low = make([]int32, n/2)
		high = make([]int32, (n+1)/2)
		analyze53High(x, low, high)
	}
	return low, high
}

func analyze53Low(x, low, high []int32) {
	n := len(x)
	if n == 0 {
		return
	}

	// Step 1: Predict odd samples
	// H[n] = X[2n+1] - floor((X[2n] + X[2n+2]) / 2)
	k := 0
	for i := 1; i < n-1; i += 2 {
		high[k] = x[i] - ((x[i-1] + x[i+1]) >> 1)
		k++
	}
	if n%2 == 0 {
		high[k] = x[n-1] - x[n-2]
	}

	// Step 2: Update even samples
	// L[n] = X[2n] + floor((H[n-1] + H[n] + 2) / 4)
	if n > 1 {
		low[0] = x[0] + ((high[0] + 1) >> 1)
	} else {
		low[0] = x[0]
	}
	k = 1
	for i := 2; i < n-1; i += 2 {
		low[k] = x[i] + ((high[k-1] + high[k] + 2) >> 2)
		k++
	}
	if n%2 == 1 && n > 2 {
		low[k] = x[n-1] + ((2*high[k-1] + 2) >> 2)
	}
}

func analyze53High(x, low, high []int32) {
	n := len(x)
	if n == 0 {
		return
	}

	if n > 1 {
		high[0] = x[0] - x[1]
	} else {
		high[0] = x[0] << 1
	}
	k := 1
	for i := 2; i < n-1; i += 2 {
		high[k] = x[i] - ((x[i-1] + x[i+1]) >> 1)
		k++
	}
	if n%2 == 1 && n > 1 {
		high[k] = x[n-1] - x[n-2]
	}

	k = 0
	for i := 1; i < n-1; i += 2 {
		low[k] = x[i] + ((high[k] + high[k+1] + 2) >> 2)
		k++
	}
	if n > 1 && n%2 == 0 {
		low[k] = x[n-1] + ((2*high[k] + 2) >> 2)
	}
}

// Analyze97 performs the forward 9-7 transform of x, whose first sample sits
// on canvas coordinate origin, and returns the low and high bands.
func Analyze97(x []float32, origin int) (low, high []float32) {
	n := len(x)
	lowParity := 0
	if origin&1 == 0 {
		low = make([]float32, (n+1)/2)
		high = make([]float32, n/2)
	} else {
		low = make([]float32, n/2)
		high = make([]float32, (n+1)/2)
		lowParity = 1
	}
	if n == 0 {
		return low, high
	}
	if n == 1 {
		if lowParity == 0 {
			low[0] = x[0]
		} else {
			high[0] = 2 * x[0]
		}
		return low, high
	}

	buf := make([]float32, n)
	copy(buf, x)
	highParity := 1 - lowParity
	lift97(buf, highParity, alpha97)
	lift97(buf, lowParity, beta97)
	lift97(buf, highParity, gamma97)
	lift97(buf, lowParity, delta97)

	for k := range low {
		low[k] = buf[lowParity+2*k] * kl97
	}
	for k := range high {
		high[k] = buf[highParity+2*k] * kh97
	}
	return low, high
}

// lift97 applies X[i] += c * (X[i-1] + X[i+1]) on samples of one parity with
// symmetric extension.
func lift97(x []float32, parity int, c float32) {
	n := len(x)
	for i := parity; i < n; i += 2 {
		left, right := x[max(i-1, 0)], x[min(i+1, n-1)]
		if i == 0 {
			left = x[1]
		}
		if i == n-1 {
			right = x[n-2]
		}
		x[i] += c * (left + right)
	}
}

// Decompose runs the forward transform over the subband tree rooted at root,
// in place on a row-major plane. Each node is analysed rows first, then
// columns, and the bands are written to the positions given by the children.
func Decompose[T int32 | float32](data []T, stride int, root *subband.Subband, analyze func(x []T, origin int) (low, high []T)) {
	for sb := root; sb != nil && sb.IsNode; sb = sb.LL() {
		ll := sb.LL()
		line := make([]T, max(sb.W, sb.H))

		for y := 0; y < sb.H; y++ {
			row := data[(sb.ULY+y)*stride+sb.ULX:]
			copy(line, row[:sb.W])
			low, high := analyze(line[:sb.W], sb.ULCX)
			copy(row, low)
			copy(row[ll.W:], high)
		}

		for x := 0; x < sb.W; x++ {
			base := sb.ULY*stride + sb.ULX + x
			for y := 0; y < sb.H; y++ {
				line[y] = data[base+y*stride]
			}
			low, high := analyze(line[:sb.H], sb.ULCY)
			for y, v := range low {
				data[base+y*stride] = v
			}
			for y, v := range high {
				data[base+(ll.H+y)*stride] = v
			}
		}
	}
}
