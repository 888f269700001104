package dwt

import (
	"bytes"
	"log/slog"
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrjoshuak/go-jpeg2000-idwt/internal/filter"
	"github.com/mrjoshuak/go-jpeg2000-idwt/internal/subband"
	"github.com/mrjoshuak/go-jpeg2000-idwt/internal/wavelettest"
)

var (
	w53 = []filter.Filter{filter.Lift5x3{}}
	w97 = []filter.Filter{filter.Lift9x7{}}
)

func randomPlane(w, h int, seed int64) *Plane[int32] {
	rng := rand.New(rand.NewSource(seed))
	p := NewPlane[int32](w, h)
	for i := range p.Data {
		p.Data[i] = int32(rng.Intn(256) - 128)
	}
	return p
}

// setup53 builds a 5-3 tree and the coefficient plane of a random image.
func setup53(t testing.TB, w, h, ulcx, ulcy, lvls int) (*subband.Subband, *Plane[int32], *Plane[int32]) {
	t.Helper()
	tree, err := subband.New(w, h, ulcx, ulcy, lvls, w53, w53)
	require.NoError(t, err)

	img := randomPlane(w, h, int64(w*1000+h))
	coeffs := img.Clone()
	wavelettest.Decompose(coeffs.Data, coeffs.Stride, tree, wavelettest.Analyze53)
	return tree, img, coeffs
}

func newEngine53(t testing.TB, tree *subband.Subband, coeffs *Plane[int32]) *Engine[int32] {
	t.Helper()
	e, err := NewEngine(tree, coeffs, nil)
	require.NoError(t, err)
	return e
}

func TestEngine_EndToEnd8x8(t *testing.T) {
	tree, img, coeffs := setup53(t, 8, 8, 0, 0, 2)
	e := newEngine53(t, tree, coeffs)

	full, err := e.Reconstruct(2)
	require.NoError(t, err)
	if diff := cmp.Diff(img, full); diff != "" {
		t.Fatalf("full resolution mismatch (-want +got):\n%s", diff)
	}

	// Level 0 is the LL band obtained by analysing the full resolution
	// result twice.
	lowest, err := e.Reconstruct(0)
	require.NoError(t, err)
	assert.Equal(t, 2, lowest.Width)
	assert.Equal(t, 2, lowest.Height)

	again := full.Clone()
	wavelettest.Decompose(again.Data, again.Stride, tree, wavelettest.Analyze53)
	if diff := cmp.Diff(again.Sub(0, 0, 2, 2).Clone(), lowest); diff != "" {
		t.Errorf("level 0 mismatch (-want +got):\n%s", diff)
	}

	// Level 1 is the LL band of a single analysis level.
	one, err := subband.New(8, 8, 0, 0, 1, w53, w53)
	require.NoError(t, err)
	ll1 := img.Clone()
	wavelettest.Decompose(ll1.Data, ll1.Stride, one, wavelettest.Analyze53)

	half, err := e.Reconstruct(1)
	require.NoError(t, err)
	if diff := cmp.Diff(ll1.Sub(0, 0, 4, 4).Clone(), half); diff != "" {
		t.Errorf("level 1 mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_PerfectReconstruction(t *testing.T) {
	tests := []struct {
		name                   string
		w, h, ulcx, ulcy, lvls int
	}{
		{"single sample", 1, 1, 0, 0, 1},
		{"single sample odd origin", 1, 1, 1, 1, 2},
		{"two samples", 2, 2, 0, 0, 1},
		{"two samples odd origin", 2, 2, 1, 1, 1},
		{"odd size", 7, 5, 0, 0, 2},
		{"odd origin", 7, 5, 3, 1, 3},
		{"row", 17, 1, 2, 0, 3},
		{"column", 1, 17, 0, 3, 3},
		{"no decomposition", 6, 4, 1, 1, 0},
		{"deep", 64, 48, 5, 9, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, img, coeffs := setup53(t, tt.w, tt.h, tt.ulcx, tt.ulcy, tt.lvls)
			e := newEngine53(t, tree, coeffs)

			got, err := e.Reconstruct(tt.lvls)
			require.NoError(t, err)
			if diff := cmp.Diff(img, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEngine_ProgressiveMatchesDirect(t *testing.T) {
	const lvls = 4
	tree, _, coeffs := setup53(t, 37, 29, 3, 2, lvls)
	progressive := newEngine53(t, tree, coeffs)

	for rl := 0; rl <= lvls; rl++ {
		require.NoError(t, progressive.Synthesize(rl))
		got, err := progressive.Result()
		require.NoError(t, err)

		direct, err := newEngine53(t, tree, coeffs).Reconstruct(rl)
		require.NoError(t, err)
		if diff := cmp.Diff(direct, got.Clone()); diff != "" {
			t.Errorf("level %d mismatch (-direct +progressive):\n%s", rl, diff)
		}
	}

	// Going down restarts from the coefficients.
	require.NoError(t, progressive.Synthesize(1))
	got, err := progressive.Result()
	require.NoError(t, err)
	direct, err := newEngine53(t, tree, coeffs).Reconstruct(1)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(direct, got.Clone()))
}

func TestEngine_ResultGeometry(t *testing.T) {
	tree, _, coeffs := setup53(t, 13, 9, 1, 0, 3)
	e := newEngine53(t, tree, coeffs)

	for rl := 0; rl <= 3; rl++ {
		node, err := tree.Node(rl)
		require.NoError(t, err)

		p, err := e.Reconstruct(rl)
		require.NoError(t, err)
		assert.Equal(t, node.W, p.Width, "level %d", rl)
		assert.Equal(t, node.H, p.Height, "level %d", rl)
		assert.Equal(t, p.Width, p.Stride)
	}
}

func TestEngine_CoefficientsUntouched(t *testing.T) {
	tree, _, coeffs := setup53(t, 16, 16, 0, 0, 3)
	snapshot := coeffs.Clone()
	e := newEngine53(t, tree, coeffs)

	for _, rl := range []int{3, 0, 2, 3} {
		require.NoError(t, e.Synthesize(rl))
	}
	assert.Empty(t, cmp.Diff(snapshot, coeffs))
}

// spoilFinerBands overwrites the detail bands of every resolution level above
// rl with v.
func spoilFinerBands[T filter.Sample](tree *subband.Subband, p *Plane[T], rl int, v T) {
	for _, node := range tree.Nodes() {
		if !node.IsNode || node.ResLevel <= rl {
			continue
		}
		for _, band := range []*subband.Subband{node.HL(), node.LH(), node.HH()} {
			p.Sub(band.ULX, band.ULY, band.W, band.H).Fill(v)
		}
	}
}

func TestEngine_FinerBandsNotRead(t *testing.T) {
	const lvls = 3
	tree, _, coeffs := setup53(t, 19, 16, 1, 2, lvls)

	for rl := 0; rl < lvls; rl++ {
		want, err := newEngine53(t, tree, coeffs).Reconstruct(rl)
		require.NoError(t, err)

		spoiled := coeffs.Clone()
		spoilFinerBands(tree, spoiled, rl, math.MaxInt32)
		got, err := newEngine53(t, tree, spoiled).Reconstruct(rl)
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(want, got), "level %d", rl)
	}

	tree97, err := subband.New(19, 16, 1, 2, lvls, w97, w97)
	require.NoError(t, err)
	coeffs97 := NewPlane[float32](19, 16)
	for i, v := range coeffs.Data {
		coeffs97.Data[i] = float32(v)
	}

	for rl := 0; rl < lvls; rl++ {
		e, err := NewEngine(tree97, coeffs97, nil)
		require.NoError(t, err)
		want, err := e.Reconstruct(rl)
		require.NoError(t, err)

		spoiled := coeffs97.Clone()
		spoilFinerBands(tree97, spoiled, rl, float32(math.NaN()))
		e, err = NewEngine(tree97, spoiled, nil)
		require.NoError(t, err)
		got, err := e.Reconstruct(rl)
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(want, got), "level %d", rl)
	}
}

func TestEngine_LevelRange(t *testing.T) {
	tree, _, coeffs := setup53(t, 8, 8, 0, 0, 2)
	e := newEngine53(t, tree, coeffs)

	assert.ErrorIs(t, e.Synthesize(-1), ErrLevelRange)
	assert.ErrorIs(t, e.Synthesize(3), ErrLevelRange)
	state, _ := e.State()
	assert.Equal(t, Idle, state)

	_, err := e.Result()
	assert.ErrorIs(t, err, ErrNotReady)

	require.NoError(t, e.Synthesize(1))
	assert.ErrorIs(t, e.Synthesize(5), ErrLevelRange)
	state, level := e.State()
	assert.Equal(t, Ready, state)
	assert.Equal(t, 1, level)

	_, err = e.Reconstruct(-2)
	assert.ErrorIs(t, err, ErrLevelRange)
}

func TestNewEngine_Errors(t *testing.T) {
	tree, _, coeffs := setup53(t, 8, 8, 0, 0, 2)

	_, err := NewEngine[int32](nil, coeffs, nil)
	assert.ErrorIs(t, err, ErrNilTree)

	_, err = NewEngine(tree, NewPlane[int32](8, 7), nil)
	assert.ErrorIs(t, err, ErrShortBuffer)

	_, err = NewEngine[int32](tree, nil, nil)
	assert.ErrorIs(t, err, ErrShortBuffer)

	// A 5-3 tree cannot run on float samples, nor a 9-7 tree on integers.
	_, err = NewEngine(tree, NewPlane[float32](8, 8), nil)
	assert.ErrorIs(t, err, ErrFilterType)

	tree97, err := subband.New(8, 8, 0, 0, 2, w97, w97)
	require.NoError(t, err)
	_, err = NewEngine(tree97, coeffs, nil)
	assert.ErrorIs(t, err, ErrFilterType)
}

// narrowLift5x3 declares a high-pass synthesis support too small for the
// overlap the 5-3 kernel needs.
type narrowLift5x3 struct{ filter.Lift5x3 }

func (narrowLift5x3) SynHighNegSupport() int { return 1 }

func TestNewEngine_FilterSupport(t *testing.T) {
	narrow := []filter.Filter{narrowLift5x3{}}
	tree, err := subband.New(8, 8, 0, 0, 2, narrow, w53)
	require.NoError(t, err)

	_, err = NewEngine(tree, NewPlane[int32](8, 8), nil)
	assert.ErrorIs(t, err, ErrFilterSupport)

	// Both standard filters cover their own overlap for odd and even lines.
	for _, n := range []int{1, 2, 7, 8} {
		assert.NoError(t, checkOverlap(filter.Lift5x3{}, n), "5-3 on %d samples", n)
		assert.NoError(t, checkOverlap(filter.Lift9x7{}, n), "9-7 on %d samples", n)
	}
}

func TestEngine_Workers(t *testing.T) {
	tree, img, coeffs := setup53(t, 150, 97, 1, 2, 4)

	single := newEngine53(t, tree, coeffs)
	want, err := single.Reconstruct(4)
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(img, want))

	multi, err := NewEngine(tree, coeffs, &Options{Workers: 4})
	require.NoError(t, err)
	for rl := 0; rl <= 4; rl++ {
		got, err := multi.Reconstruct(rl)
		require.NoError(t, err)
		ref, err := single.Reconstruct(rl)
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(ref, got), "level %d", rl)
	}
}

func TestEngine_Irreversible(t *testing.T) {
	tests := []struct {
		w, h, ulcx, ulcy, lvls int
	}{
		{8, 8, 0, 0, 2},
		{21, 13, 3, 1, 3},
		{1, 1, 1, 0, 1},
	}

	for _, tt := range tests {
		tree, err := subband.New(tt.w, tt.h, tt.ulcx, tt.ulcy, tt.lvls, w97, w97)
		require.NoError(t, err)

		src := randomPlane(tt.w, tt.h, 7)
		img := NewPlane[float32](tt.w, tt.h)
		for i, v := range src.Data {
			img.Data[i] = float32(v)
		}
		coeffs := img.Clone()
		wavelettest.Decompose(coeffs.Data, coeffs.Stride, tree, wavelettest.Analyze97)

		e, err := NewEngine(tree, coeffs, nil)
		require.NoError(t, err)
		got, err := e.Reconstruct(tt.lvls)
		require.NoError(t, err)

		if diff := cmp.Diff(img, got, cmpopts.EquateApprox(0, 0.05)); diff != "" {
			t.Errorf("%+v mismatch (-want +got):\n%s", tt, diff)
		}
	}
}

func TestEngine_Logging(t *testing.T) {
	tree, _, coeffs := setup53(t, 8, 8, 0, 0, 2)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	e, err := NewEngine(tree, coeffs, &Options{Logger: logger})
	require.NoError(t, err)

	require.NoError(t, e.Synthesize(2))
	assert.Contains(t, buf.String(), "synthesized resolution level")
	assert.Contains(t, buf.String(), "resolution=2")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "synthesizing", Synthesizing.String())
	assert.Equal(t, "ready", Ready.String())
	assert.Equal(t, "unknown", State(9).String())
}

func BenchmarkEngine53_512(b *testing.B) {
	tree, _, coeffs := setup53(b, 512, 512, 0, 0, 5)
	e := newEngine53(b, tree, coeffs)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := e.Synthesize(0); err != nil {
			b.Fatal(err)
		}
		if err := e.Synthesize(5); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEngine53_512_Workers(b *testing.B) {
	tree, _, coeffs := setup53(b, 512, 512, 0, 0, 5)
	e, err := NewEngine(tree, coeffs, &Options{Workers: 4})
	require.NoError(b, err)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := e.Synthesize(0); err != nil {
			b.Fatal(err)
		}
		if err := e.Synthesize(5); err != nil {
			b.Fatal(err)
		}
	}
}
