package subband

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrjoshuak/go-jpeg2000-idwt/internal/filter"
)

var w53 = []filter.Filter{filter.Lift5x3{}}

func newTree(t *testing.T, w, h, ulcx, ulcy, lvls int) *Subband {
	t.Helper()
	root, err := New(w, h, ulcx, ulcy, lvls, w53, w53)
	require.NoError(t, err)
	return root
}

func TestSplitRule(t *testing.T) {
	tests := []struct {
		name        string
		w, ulcx     int
		llULCX, llW int
		hlULCX, hlW int
	}{
		{"even origin even width", 8, 0, 0, 4, 0, 4},
		{"even origin odd width", 5, 0, 0, 3, 0, 2},
		{"odd origin odd width", 5, 1, 1, 2, 0, 3},
		{"odd origin even width", 4, 3, 2, 2, 1, 2},
		{"single sample even origin", 1, 2, 1, 1, 1, 0},
		{"single sample odd origin", 1, 1, 1, 0, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Same geometry on both axes
			root := newTree(t, tt.w, tt.w, tt.ulcx, tt.ulcx, 1)

			assert.Equal(t, tt.llULCX, root.LL().ULCX)
			assert.Equal(t, tt.llW, root.LL().W)
			assert.Equal(t, tt.hlULCX, root.HL().ULCX)
			assert.Equal(t, tt.hlW, root.HL().W)

			assert.Equal(t, tt.llULCX, root.LL().ULCY)
			assert.Equal(t, tt.llW, root.LL().H)
			assert.Equal(t, tt.hlULCX, root.LH().ULCY)
			assert.Equal(t, tt.hlW, root.LH().H)
		})
	}
}

func TestNew_Layout(t *testing.T) {
	root := newTree(t, 8, 8, 0, 0, 2)

	tests := []struct {
		name                         string
		sb                           *Subband
		orient                       Orientation
		level, resLevel, index, gain int
		ulx, uly, w, h               int
		node                         bool
	}{
		{"root", root, LL, 0, 2, 0, 0, 0, 0, 8, 8, true},
		{"LL", root.LL(), LL, 1, 1, 0, 0, 0, 0, 4, 4, true},
		{"HL", root.HL(), HL, 1, 2, 1, 1, 4, 0, 4, 4, false},
		{"LH", root.LH(), LH, 1, 2, 2, 1, 0, 4, 4, 4, false},
		{"HH", root.HH(), HH, 1, 2, 3, 2, 4, 4, 4, 4, false},
		{"LL.LL", root.LL().LL(), LL, 2, 0, 0, 0, 0, 0, 2, 2, false},
		{"LL.HL", root.LL().HL(), HL, 2, 1, 1, 1, 2, 0, 2, 2, false},
		{"LL.HH", root.LL().HH(), HH, 2, 1, 3, 2, 2, 2, 2, 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sb := tt.sb
			assert.Equal(t, tt.orient, sb.Orientation)
			assert.Equal(t, tt.level, sb.Level)
			assert.Equal(t, tt.resLevel, sb.ResLevel)
			assert.Equal(t, tt.index, sb.Index)
			assert.Equal(t, tt.gain, sb.AnGainExp)
			assert.Equal(t, [4]int{tt.ulx, tt.uly, tt.w, tt.h}, [4]int{sb.ULX, sb.ULY, sb.W, sb.H})
			assert.Equal(t, tt.node, sb.IsNode)
		})
	}
}

// checkInvariant verifies the structural invariant of every node.
func checkInvariant(t *testing.T, root *Subband) {
	t.Helper()
	require.NoError(t, root.Validate())
	err := root.Walk(func(sb *Subband) error {
		if !sb.IsNode {
			assert.Nil(t, sb.Children())
			assert.Nil(t, sb.HFilter())
			return nil
		}
		for _, c := range sb.Children() {
			assert.Same(t, sb, c.Parent())
			assert.Equal(t, sb.Level+1, c.Level)
		}
		assert.Equal(t, sb.W, sb.LL().W+sb.HL().W)
		assert.Equal(t, sb.H, sb.LL().H+sb.LH().H)
		assert.Equal(t, sb.HL().H, sb.LL().H)
		assert.Equal(t, sb.LH().W, sb.LL().W)
		assert.Equal(t, sb.ULX+sb.LL().W, sb.HL().ULX)
		assert.Equal(t, sb.ULY+sb.LL().H, sb.LH().ULY)
		return nil
	})
	require.NoError(t, err)
}

func TestSplit_Invariant(t *testing.T) {
	root := &Subband{W: 13, H: 7, ULCX: 3, ULCY: 5, ResLevel: 4}
	checkInvariant(t, root)

	cur := root
	for i := 0; i < 4; i++ {
		next, err := cur.Split(filter.Lift5x3{}, filter.Lift5x3{})
		require.NoError(t, err)
		checkInvariant(t, root)
		cur = next
	}
	assert.Equal(t, 0, cur.ResLevel)
	assert.Same(t, cur, root.Lowest())
}

func TestSplit_Twice(t *testing.T) {
	sb := &Subband{W: 4, H: 4, ResLevel: 1}
	_, err := sb.Split(filter.Lift5x3{}, filter.Lift5x3{})
	require.NoError(t, err)

	_, err = sb.Split(filter.Lift5x3{}, filter.Lift5x3{})
	assert.ErrorIs(t, err, ErrAlreadySplit)
}

func TestSplit_NilFilter(t *testing.T) {
	sb := &Subband{W: 4, H: 4, ResLevel: 1}
	_, err := sb.Split(nil, filter.Lift5x3{})
	assert.ErrorIs(t, err, ErrNoFilters)
	assert.False(t, sb.IsNode)
}

func TestNew_Errors(t *testing.T) {
	_, err := New(8, 8, 0, 0, -1, w53, w53)
	assert.ErrorIs(t, err, ErrIndexRange)

	_, err = New(8, 8, 0, 0, 2, nil, w53)
	assert.ErrorIs(t, err, ErrNoFilters)

	// No decomposition needs no filters.
	root, err := New(8, 8, 0, 0, 0, nil, nil)
	require.NoError(t, err)
	assert.False(t, root.IsNode)
	assert.Equal(t, 0, root.ResLevel)
}

func TestNew_FilterPerLevel(t *testing.T) {
	h := []filter.Filter{filter.Lift5x3{}, filter.Lift9x7{}}
	root, err := New(16, 16, 0, 0, 3, h, w53)
	require.NoError(t, err)

	// The node at resolution level rl uses filters[rl-1], clamped.
	assert.Equal(t, filter.Lift9x7{}, root.HFilter())
	assert.Equal(t, filter.Lift9x7{}, root.LL().HFilter())
	assert.Equal(t, filter.Lift5x3{}, root.LL().LL().HFilter())
	assert.Equal(t, filter.Lift5x3{}, root.VFilter())
}

func TestNode(t *testing.T) {
	root := newTree(t, 8, 8, 0, 0, 2)

	n, err := root.Node(2)
	require.NoError(t, err)
	assert.Same(t, root, n)

	n, err = root.Node(1)
	require.NoError(t, err)
	assert.Same(t, root.LL(), n)

	n, err = root.Node(0)
	require.NoError(t, err)
	assert.Same(t, root.LL().LL(), n)

	_, err = root.Node(3)
	assert.ErrorIs(t, err, ErrIndexRange)
	_, err = root.Node(-1)
	assert.ErrorIs(t, err, ErrIndexRange)

	assert.Equal(t, []*Subband{root, root.LL(), root.LL().LL()}, root.Nodes())
}

func TestByIndex(t *testing.T) {
	root := newTree(t, 8, 8, 0, 0, 2)

	tests := []struct {
		rl, idx int
		want    *Subband
	}{
		{0, 0, root.LL().LL()},
		{1, 0, root.LL()},
		{1, 1, root.LL().HL()},
		{1, 2, root.LL().LH()},
		{1, 3, root.LL().HH()},
		{2, 0, root},
		{2, 3, root.HH()},
	}
	for _, tt := range tests {
		got, err := root.ByIndex(tt.rl, tt.idx)
		require.NoError(t, err)
		assert.Same(t, tt.want, got, "ByIndex(%d, %d)", tt.rl, tt.idx)
	}

	for _, bad := range [][2]int{{0, 1}, {1, 4}, {3, 0}, {-1, 0}, {1, -1}} {
		_, err := root.ByIndex(bad[0], bad[1])
		assert.ErrorIs(t, err, ErrIndexRange, "ByIndex(%d, %d)", bad[0], bad[1])
	}
}

func TestAt(t *testing.T) {
	root := newTree(t, 8, 8, 0, 0, 2)

	tests := []struct {
		x, y int
		want *Subband
	}{
		{0, 0, root.LL().LL()},
		{1, 1, root.LL().LL()},
		{3, 0, root.LL().HL()},
		{1, 3, root.LL().LH()},
		{3, 3, root.LL().HH()},
		{5, 1, root.HL()},
		{0, 7, root.LH()},
		{7, 7, root.HH()},
	}
	for _, tt := range tests {
		got, err := root.At(tt.x, tt.y)
		require.NoError(t, err)
		assert.Same(t, tt.want, got, "At(%d, %d)", tt.x, tt.y)
	}

	_, err := root.At(8, 0)
	assert.ErrorIs(t, err, ErrIndexRange)
}

func TestNextSubband(t *testing.T) {
	root := newTree(t, 8, 8, 0, 0, 2)

	assert.Nil(t, root.LL().LL().NextSubband())
	assert.Same(t, root.LL().LH(), root.LL().HL().NextSubband())
	assert.Same(t, root.LL().HH(), root.LL().LH().NextSubband())
	assert.Nil(t, root.LL().HH().NextSubband())
	assert.Same(t, root.LH(), root.HL().NextSubband())
	assert.Nil(t, root.HH().NextSubband())

	assert.Nil(t, root.NextSubband())
	assert.Nil(t, root.LL().NextSubband())
}

func TestNextResLevel(t *testing.T) {
	root := newTree(t, 8, 8, 0, 0, 2)

	assert.Same(t, root.LL().HL(), root.LL().LL().NextResLevel())
	assert.Same(t, root.HL(), root.LL().HH().NextResLevel())
	assert.Nil(t, root.HH().NextResLevel())
	assert.Nil(t, root.NextResLevel())
}

func TestLeaves(t *testing.T) {
	root := newTree(t, 8, 8, 0, 0, 2)
	want := []*Subband{
		root.LL().LL(),
		root.LL().HL(), root.LL().LH(), root.LL().HH(),
		root.HL(), root.LH(), root.HH(),
	}
	assert.Equal(t, want, root.Leaves())
}

func TestLeaves_CoverTileComponent(t *testing.T) {
	tests := []struct {
		w, h, ulcx, ulcy, lvls int
	}{
		{8, 8, 0, 0, 3},
		{7, 5, 3, 1, 3},
		{1, 1, 1, 1, 2},
		{33, 17, 5, 2, 5},
	}

	for _, tt := range tests {
		root := newTree(t, tt.w, tt.h, tt.ulcx, tt.ulcy, tt.lvls)
		checkInvariant(t, root)

		area := 0
		for _, sb := range root.Leaves() {
			area += sb.W * sb.H
		}
		assert.Equal(t, tt.w*tt.h, area, "%+v", tt)
	}
}

func TestValidate_Broken(t *testing.T) {
	root := newTree(t, 8, 8, 0, 0, 1)
	root.hh = nil
	assert.ErrorIs(t, root.Validate(), ErrInvalidTree)

	leaf := &Subband{W: 2, H: 2, hFilter: filter.Lift5x3{}}
	assert.ErrorIs(t, leaf.Validate(), ErrInvalidTree)
}

func TestOrientationString(t *testing.T) {
	assert.Equal(t, "LL", LL.String())
	assert.Equal(t, "HH", HH.String())
	assert.Equal(t, "Orientation(9)", Orientation(9).String())
}
