package filter

// 9-7 lifting coefficients (ITU-T Rec. T.800 Table F.4) and the subband
// scaling factors of the irreversible transform.
const (
	Alpha97 = -1.586134342
	Beta97  = -0.05298011854
	Gamma97 = 0.8829110762
	Delta97 = 0.4435068522
	KL97    = 0.8128930655
	KH97    = 1.230174106
)

const (
	invKL97 float32 = 1 / KL97
	invKH97 float32 = 1 / KH97
)

// Lift9x7 is the 9-7 irreversible floating-point lifting filter.
type Lift9x7 struct{}

var _ Synthesizer[float32] = Lift9x7{}

func (Lift9x7) AnLowNegSupport() int   { return 4 }
func (Lift9x7) AnLowPosSupport() int   { return 4 }
func (Lift9x7) AnHighNegSupport() int  { return 3 }
func (Lift9x7) AnHighPosSupport() int  { return 3 }
func (Lift9x7) SynLowNegSupport() int  { return 3 }
func (Lift9x7) SynLowPosSupport() int  { return 3 }
func (Lift9x7) SynHighNegSupport() int { return 4 }
func (Lift9x7) SynHighPosSupport() int { return 4 }

func (Lift9x7) ImplType() Kind     { return FloatLift }
func (Lift9x7) DataType() DataType { return Float }
func (Lift9x7) Reversible() bool   { return false }

// IsSameAsFullWT reports whether the overlap is enough for the 9-7 kernel.
func (Lift9x7) IsSameAsFullWT(tailOvrlp, headOvrlp, inLen int) bool {
	if inLen%2 == 0 {
		return tailOvrlp >= 4 && headOvrlp >= 3
	}
	return tailOvrlp >= 4 && headOvrlp >= 4
}

func (Lift9x7) String() string { return "w9x7" }

// SynthesizeLowPhase reconstructs a signal whose first sample is a low-pass
// sample.
func (Lift9x7) SynthesizeLowPhase(low, high, out Signal[float32]) {
	n := low.Len + high.Len
	if n == 0 {
		return
	}
	if n == 1 {
		out.Data[out.Off] = low.Data[low.Off]
		return
	}

	// Rearrange into even (low) / odd (high) positions and undo scaling
	scatter(low, out, 0, invKL97)
	scatter(high, out, 1, invKH97)

	liftPhase(out, n, 0, Delta97)
	liftPhase(out, n, 1, Gamma97)
	liftPhase(out, n, 0, Beta97)
	liftPhase(out, n, 1, Alpha97)
}

// SynthesizeHighPhase reconstructs a signal whose first sample is a
// high-pass sample.
func (Lift9x7) SynthesizeHighPhase(low, high, out Signal[float32]) {
	n := low.Len + high.Len
	if n == 0 {
		return
	}
	if n == 1 {
		out.Data[out.Off] = high.Data[high.Off] / 2
		return
	}

	scatter(high, out, 0, invKH97)
	scatter(low, out, 1, invKL97)

	liftPhase(out, n, 1, Delta97)
	liftPhase(out, n, 0, Gamma97)
	liftPhase(out, n, 1, Beta97)
	liftPhase(out, n, 0, Alpha97)
}

// scatter copies src into every other sample of out starting at parity,
// multiplying by scale.
func scatter(src, out Signal[float32], parity int, scale float32) {
	sk := src.Off
	ik := out.Off + parity*out.Step
	iStep := 2 * out.Step
	for k := 0; k < src.Len; k++ {
		out.Data[ik] = src.Data[sk] * scale
		sk += src.Step
		ik += iStep
	}
}

// liftPhase undoes one lifting step on the samples of the given parity:
// X[i] -= c * (X[i-1] + X[i+1]), with missing neighbours replaced by their
// mirror (whole-sample symmetric extension). n must be at least 2.
func liftPhase(out Signal[float32], n, parity int, c float32) {
	d, s := out.Data, out.Step
	ik := out.Off + parity*s
	for i := parity; i < n; i += 2 {
		var left, right float32
		if i > 0 {
			left = d[ik-s]
		} else {
			left = d[ik+s]
		}
		if i < n-1 {
			right = d[ik+s]
		} else {
			right = d[ik-s]
		}
		d[ik] -= c * (left + right)
		ik += 2 * s
	}
}
