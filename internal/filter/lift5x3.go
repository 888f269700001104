package filter

// Lift5x3 is the 5-3 reversible integer lifting filter.
//
// All arithmetic is int32 and the divisions by 2 and 4 are arithmetic right
// shifts, which gives the floor rounding JPEG 2000 requires for negative
// sums. The reconstruction is bit exact for any signal length.
type Lift5x3 struct{}

var _ Synthesizer[int32] = Lift5x3{}

func (Lift5x3) AnLowNegSupport() int   { return 2 }
func (Lift5x3) AnLowPosSupport() int   { return 2 }
func (Lift5x3) AnHighNegSupport() int  { return 1 }
func (Lift5x3) AnHighPosSupport() int  { return 1 }
func (Lift5x3) SynLowNegSupport() int  { return 1 }
func (Lift5x3) SynLowPosSupport() int  { return 1 }
func (Lift5x3) SynHighNegSupport() int { return 2 }
func (Lift5x3) SynHighPosSupport() int { return 2 }

func (Lift5x3) ImplType() Kind     { return IntLift }
func (Lift5x3) DataType() DataType { return Int }
func (Lift5x3) Reversible() bool   { return true }

// IsSameAsFullWT reports whether the overlap is enough for the 5-3 kernel.
func (Lift5x3) IsSameAsFullWT(tailOvrlp, headOvrlp, inLen int) bool {
	if inLen%2 == 0 {
		return tailOvrlp >= 2 && headOvrlp >= 1
	}
	return tailOvrlp >= 2 && headOvrlp >= 2
}

func (Lift5x3) String() string { return "w5x3 (lifting)" }

// SynthesizeLowPhase reconstructs a signal whose first sample is a low-pass
// sample.
func (Lift5x3) SynthesizeLowPhase(low, high, out Signal[int32]) {
	n := low.Len + high.Len
	if n == 0 {
		return
	}
	ld, hd, od := low.Data, high.Data, out.Data
	iStep := 2 * out.Step

	// Step 1: even samples
	// X[2n] = L[n] - floor((H[n-1] + H[n] + 2) / 4)
	lk, hk, ik := low.Off, high.Off, out.Off
	if n > 1 {
		od[ik] = ld[lk] - ((hd[hk] + 1) >> 1)
	} else {
		od[ik] = ld[lk]
	}
	lk += low.Step
	hk += high.Step
	ik += iStep
	for i := 2; i < n-1; i += 2 {
		od[ik] = ld[lk] - ((hd[hk-high.Step] + hd[hk] + 2) >> 2)
		lk += low.Step
		hk += high.Step
		ik += iStep
	}
	// Last even sample of an odd length signal (symmetric extension)
	if n%2 == 1 && n > 2 {
		od[ik] = ld[lk] - ((2*hd[hk-high.Step] + 2) >> 2)
	}

	// Step 2: odd samples
	// X[2n+1] = H[n] + floor((X[2n] + X[2n+2]) / 2)
	hk, ik = high.Off, out.Off+out.Step
	for i := 1; i < n-1; i += 2 {
		od[ik] = hd[hk] + ((od[ik-out.Step] + od[ik+out.Step]) >> 1)
		hk += high.Step
		ik += iStep
	}
	if n%2 == 0 && n > 1 {
		od[ik] = hd[hk] + od[ik-out.Step]
	}
}

// SynthesizeHighPhase reconstructs a signal whose first sample is a
// high-pass sample.
func (Lift5x3) SynthesizeHighPhase(low, high, out Signal[int32]) {
	n := low.Len + high.Len
	if n == 0 {
		return
	}
	ld, hd, od := low.Data, high.Data, out.Data
	iStep := 2 * out.Step

	// Step 1: odd samples carry the low-pass band
	lk, hk, ik := low.Off, high.Off, out.Off+out.Step
	for i := 1; i < n-1; i += 2 {
		od[ik] = ld[lk] - ((hd[hk] + hd[hk+high.Step] + 2) >> 2)
		lk += low.Step
		hk += high.Step
		ik += iStep
	}
	if n > 1 && n%2 == 0 {
		od[ik] = ld[lk] - ((2*hd[hk] + 2) >> 2)
	}

	// Step 2: even samples carry the high-pass band
	hk, ik = high.Off, out.Off
	if n > 1 {
		od[ik] = hd[hk] + od[ik+out.Step]
	} else {
		od[ik] = hd[hk] >> 1
	}
	hk += high.Step
	ik += iStep
	for i := 2; i < n-1; i += 2 {
		od[ik] = hd[hk] + ((od[ik-out.Step] + od[ik+out.Step]) >> 1)
		hk += high.Step
		ik += iStep
	}
	if n%2 == 1 && n > 1 {
		od[ik] = hd[hk] + od[ik-out.Step]
	}
}
