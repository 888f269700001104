// Package subband implements the subband decomposition tree of a
// tile-component.
//
// The root of the tree is the tile-component itself. Splitting a subband
// turns it into a node with four children (LL, HL, LH, HH); the LL child is
// split again for the next decomposition level, down to the final LL band
// which has resolution level 0.
package subband

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/mrjoshuak/go-jpeg2000-idwt/internal/filter"
)

var (
	// ErrAlreadySplit is returned by Split on a node.
	ErrAlreadySplit = errors.New("subband: already split")

	// ErrNoFilters is returned when a tree needs filters but none are given.
	ErrNoFilters = errors.New("subband: no filters for decomposition")

	// ErrIndexRange is returned for a resolution level or band index outside
	// the tree.
	ErrIndexRange = errors.New("subband: index out of range")

	// ErrInvalidTree is returned by Validate when a node breaks the tree
	// invariant.
	ErrInvalidTree = errors.New("subband: invalid tree")
)

// Orientation is the position of a subband within its parent.
type Orientation int

// Subband orientations.
const (
	LL Orientation = iota
	HL
	LH
	HH
)

// String returns the band name.
func (o Orientation) String() string {
	switch o {
	case LL:
		return "LL"
	case HL:
		return "HL"
	case LH:
		return "LH"
	case HH:
		return "HH"
	default:
		return fmt.Sprintf("Orientation(%d)", int(o))
	}
}

// Subband is one band of the decomposition tree.
type Subband struct {
	// IsNode is true once the subband has been split.
	IsNode bool

	// Orientation within the parent
	Orientation Orientation

	// Level is the number of decompositions from the tile-component to
	// this subband (0 for the root).
	Level int

	// ResLevel is the resolution level this subband belongs to
	// (0 = lowest resolution).
	ResLevel int

	// Index of the subband within its resolution level (0 for LL, 1-3 for
	// HL, LH, HH of a resolution level, multiplied by 4 per LL step).
	Index int

	// AnGainExp is the base 2 exponent of the analysis gain.
	AnGainExp int

	// Upper-left corner on the canvas at this subband's resolution
	ULCX, ULCY int

	// Upper-left corner inside the tile-component coefficient plane
	ULX, ULY int

	// Dimensions in samples
	W, H int

	parent         *Subband
	ll, hl, lh, hh *Subband
	hFilter        filter.Filter
	vFilter        filter.Filter
}

// New builds a tree for a w x h tile-component with upper-left canvas
// corner (ulcx, ulcy) decomposed lvls times.
//
// The filters used to split the node at resolution level rl are
// hfilters[rl-1] and vfilters[rl-1]; the last entry is reused for levels past
// the end of the slices.
func New(w, h, ulcx, ulcy, lvls int, hfilters, vfilters []filter.Filter) (*Subband, error) {
	if lvls < 0 {
		return nil, errors.Wrapf(ErrIndexRange, "decomposition levels %d", lvls)
	}
	if lvls > 0 && (len(hfilters) == 0 || len(vfilters) == 0) {
		return nil, ErrNoFilters
	}

	root := &Subband{
		W:        w,
		H:        h,
		ULCX:     ulcx,
		ULCY:     ulcy,
		ResLevel: lvls,
	}
	cur := root
	for i := 0; i < lvls; i++ {
		hi := min(cur.ResLevel, len(hfilters)) - 1
		vi := min(cur.ResLevel, len(vfilters)) - 1
		next, err := cur.Split(hfilters[hi], vfilters[vi])
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return root, nil
}

// Split turns a leaf into a node with four children whose geometry follows
// the dyadic split rule, and returns the LL child.
func (s *Subband) Split(hfilter, vfilter filter.Filter) (*Subband, error) {
	if s.IsNode {
		return nil, errors.Wrapf(ErrAlreadySplit, "level %d %s", s.Level, s.Orientation)
	}
	if hfilter == nil || vfilter == nil {
		return nil, ErrNoFilters
	}

	s.IsNode = true
	s.hFilter = hfilter
	s.vFilter = vfilter
	s.ll = &Subband{parent: s, Orientation: LL}
	s.hl = &Subband{parent: s, Orientation: HL}
	s.lh = &Subband{parent: s, Orientation: LH}
	s.hh = &Subband{parent: s, Orientation: HH}
	s.initChildren()
	return s.ll, nil
}

// initChildren derives the children geometry from the parent's.
func (s *Subband) initChildren() {
	ll, hl, lh, hh := s.ll, s.hl, s.lh, s.hh

	ll.Level = s.Level + 1
	ll.ULCX = (s.ULCX + 1) >> 1
	ll.ULCY = (s.ULCY + 1) >> 1
	ll.ULX = s.ULX
	ll.ULY = s.ULY
	ll.W = ((s.ULCX + s.W + 1) >> 1) - ll.ULCX
	ll.H = ((s.ULCY + s.H + 1) >> 1) - ll.ULCY
	ll.ResLevel = s.ResLevel
	if s.Orientation == LL {
		ll.ResLevel--
	}
	ll.AnGainExp = s.AnGainExp
	ll.Index = s.Index << 2

	hl.Level = ll.Level
	hl.ULCX = s.ULCX >> 1
	hl.ULCY = ll.ULCY
	hl.ULX = s.ULX + ll.W
	hl.ULY = s.ULY
	hl.W = ((s.ULCX + s.W) >> 1) - hl.ULCX
	hl.H = ll.H
	hl.ResLevel = s.ResLevel
	hl.AnGainExp = s.AnGainExp + 1
	hl.Index = (s.Index << 2) + 1

	lh.Level = ll.Level
	lh.ULCX = ll.ULCX
	lh.ULCY = s.ULCY >> 1
	lh.ULX = s.ULX
	lh.ULY = s.ULY + ll.H
	lh.W = ll.W
	lh.H = ((s.ULCY + s.H) >> 1) - lh.ULCY
	lh.ResLevel = s.ResLevel
	lh.AnGainExp = s.AnGainExp + 1
	lh.Index = (s.Index << 2) + 2

	hh.Level = ll.Level
	hh.ULCX = hl.ULCX
	hh.ULCY = lh.ULCY
	hh.ULX = hl.ULX
	hh.ULY = lh.ULY
	hh.W = hl.W
	hh.H = lh.H
	hh.ResLevel = s.ResLevel
	hh.AnGainExp = s.AnGainExp + 2
	hh.Index = (s.Index << 2) + 3
}

// Parent returns the parent subband, or nil for the root.
func (s *Subband) Parent() *Subband { return s.parent }

// LL returns the low-low child, or nil for a leaf.
func (s *Subband) LL() *Subband { return s.ll }

// HL returns the high-low (horizontally high-pass) child, or nil for a leaf.
func (s *Subband) HL() *Subband { return s.hl }

// LH returns the low-high (vertically high-pass) child, or nil for a leaf.
func (s *Subband) LH() *Subband { return s.lh }

// HH returns the high-high child, or nil for a leaf.
func (s *Subband) HH() *Subband { return s.hh }

// HFilter returns the horizontal synthesis filter, or nil for a leaf.
func (s *Subband) HFilter() filter.Filter { return s.hFilter }

// VFilter returns the vertical synthesis filter, or nil for a leaf.
func (s *Subband) VFilter() filter.Filter { return s.vFilter }

// Children returns the four children in LL, HL, LH, HH order, or nil for a
// leaf.
func (s *Subband) Children() []*Subband {
	if !s.IsNode {
		return nil
	}
	return []*Subband{s.ll, s.hl, s.lh, s.hh}
}

// Lowest returns the final LL band (resolution level 0).
func (s *Subband) Lowest() *Subband {
	sb := s
	for sb.IsNode {
		sb = sb.ll
	}
	return sb
}

// Node returns the subband on the LL chain whose output is the image at
// resolution level rl. For rl equal to the tree's resolution level this is
// the root; for rl == 0 it is the final LL leaf.
func (s *Subband) Node(rl int) (*Subband, error) {
	if rl < 0 || rl > s.ResLevel {
		return nil, errors.Wrapf(ErrIndexRange, "resolution level %d not in [0, %d]", rl, s.ResLevel)
	}
	sb := s
	for sb.ResLevel > rl {
		sb = sb.ll
	}
	return sb, nil
}

// Nodes returns the LL chain from the root down to the final LL band.
func (s *Subband) Nodes() []*Subband {
	var chain []*Subband
	for sb := s; sb != nil; sb = sb.ll {
		chain = append(chain, sb)
	}
	return chain
}

// NextResLevel returns the first leaf of the next higher resolution level,
// or nil if there is none.
func (s *Subband) NextResLevel() *Subband {
	if s.Level == 0 {
		return nil
	}
	sb := s
	for {
		sb = sb.parent
		if sb == nil {
			return nil
		}
		if sb.ResLevel != s.ResLevel {
			break
		}
	}
	sb = sb.hl
	for sb.IsNode {
		sb = sb.ll
	}
	return sb
}

// NextSubband returns the next leaf of the same resolution level, or nil if s
// is the last one or is not a leaf.
func (s *Subband) NextSubband() *Subband {
	if s.IsNode {
		return nil
	}

	var sb *Subband
	switch s.Orientation {
	case LL:
		sb = s.parent
		if sb == nil || sb.ResLevel != s.ResLevel {
			return nil
		}
		return sb.hl
	case HL:
		return s.parent.lh
	case LH:
		return s.parent.hh
	}

	// HH: climb to the first ancestor that is not an HH band
	sb = s
	for sb.Orientation == HH {
		sb = sb.parent
	}
	switch sb.Orientation {
	case LL:
		sb = sb.parent
		if sb == nil || sb.ResLevel != s.ResLevel {
			return nil
		}
		sb = sb.hl
	case HL:
		sb = sb.parent.lh
	case LH:
		sb = sb.parent.hh
	}
	for sb.IsNode {
		sb = sb.ll
	}
	return sb
}

// ByIndex returns the subband with index idx in resolution level rl.
// Index 0 is the LL chain subband of that level (the final LL band for
// rl == 0); 1-3 are its HL, LH and HH children.
func (s *Subband) ByIndex(rl, idx int) (*Subband, error) {
	if rl < 0 || rl > s.ResLevel {
		return nil, errors.Wrapf(ErrIndexRange, "resolution level %d", rl)
	}
	if idx < 0 || idx > 3 || (rl == 0 && idx != 0) {
		return nil, errors.Wrapf(ErrIndexRange, "subband index %d at resolution level %d", idx, rl)
	}
	if rl == 0 {
		return s.Lowest(), nil
	}
	node, err := s.Node(rl)
	if err != nil {
		return nil, err
	}
	if idx == 0 {
		return node, nil
	}
	return node.Children()[idx], nil
}

// At returns the leaf that contains coefficient (x, y) of the tile-component
// plane.
func (s *Subband) At(x, y int) (*Subband, error) {
	if x < s.ULX || y < s.ULY || x >= s.ULX+s.W || y >= s.ULY+s.H {
		return nil, errors.Wrapf(ErrIndexRange, "coefficient (%d, %d)", x, y)
	}
	cur := s
	for cur.IsNode {
		hh := cur.hh
		switch {
		case x < hh.ULX && y < hh.ULY:
			cur = cur.ll
		case x < hh.ULX:
			cur = cur.lh
		case y < hh.ULY:
			cur = cur.hl
		default:
			cur = cur.hh
		}
	}
	return cur, nil
}

// Walk calls fn for s and every descendant, parents before children.
// Walking stops at the first error.
func (s *Subband) Walk(fn func(*Subband) error) error {
	if err := fn(s); err != nil {
		return err
	}
	for _, c := range s.Children() {
		if err := c.Walk(fn); err != nil {
			return err
		}
	}
	return nil
}

// Leaves returns every leaf, in resolution order: the final LL band first,
// then HL, LH, HH of each resolution level from coarse to fine.
func (s *Subband) Leaves() []*Subband {
	var out []*Subband
	for rl := 0; rl <= s.ResLevel; rl++ {
		first := s.Lowest()
		if rl > 0 {
			node, _ := s.Node(rl)
			first = node.hl
			for first.IsNode {
				first = first.ll
			}
		}
		for sb := first; sb != nil; sb = sb.NextSubband() {
			out = append(out, sb)
		}
	}
	return out
}

// Validate checks that every node has four children and a filter pair and
// that every leaf has neither.
func (s *Subband) Validate() error {
	return s.Walk(func(sb *Subband) error {
		children := []*Subband{sb.ll, sb.hl, sb.lh, sb.hh}
		filters := []filter.Filter{sb.hFilter, sb.vFilter}
		isNil := func(c *Subband) bool { return c == nil }
		noFilter := func(f filter.Filter) bool { return f == nil }
		if sb.IsNode {
			if lo.SomeBy(children, isNil) || lo.SomeBy(filters, noFilter) {
				return errors.Wrapf(ErrInvalidTree, "node %s at level %d is incomplete", sb.Orientation, sb.Level)
			}
			return nil
		}
		if !lo.EveryBy(children, isNil) || !lo.EveryBy(filters, noFilter) {
			return errors.Wrapf(ErrInvalidTree, "leaf %s at level %d has children or filters", sb.Orientation, sb.Level)
		}
		return nil
	})
}

// String returns a one-line description of the subband geometry.
func (s *Subband) String() string {
	return fmt.Sprintf("w=%d,h=%d,ulx=%d,uly=%d,ulcx=%d,ulcy=%d,idx=%d,orient=%s,node=%t,level=%d,resLvl=%d",
		s.W, s.H, s.ULX, s.ULY, s.ULCX, s.ULCY, s.Index, s.Orientation, s.IsNode, s.Level, s.ResLevel)
}
