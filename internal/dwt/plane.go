package dwt

import (
	"github.com/mrjoshuak/go-jpeg2000-idwt/internal/filter"
)

// Plane is a row-major 2-D sample buffer. Sample (x, y) is stored at
// Data[y*Stride+x].
type Plane[T filter.Sample] struct {
	Width  int
	Height int
	Stride int
	Data   []T
}

// NewPlane allocates a zeroed width x height plane with Stride == width.
func NewPlane[T filter.Sample](width, height int) *Plane[T] {
	return &Plane[T]{
		Width:  width,
		Height: height,
		Stride: width,
		Data:   make([]T, width*height),
	}
}

// At returns the sample at (x, y).
func (p *Plane[T]) At(x, y int) T {
	return p.Data[y*p.Stride+x]
}

// Set stores v at (x, y).
func (p *Plane[T]) Set(x, y int, v T) {
	p.Data[y*p.Stride+x] = v
}

// Row returns the Width samples of row y.
func (p *Plane[T]) Row(y int) []T {
	start := y * p.Stride
	return p.Data[start : start+p.Width]
}

// Sub returns a view of the w x h region at (x, y). The view shares the
// underlying samples.
func (p *Plane[T]) Sub(x, y, w, h int) *Plane[T] {
	if w <= 0 || h <= 0 {
		return &Plane[T]{Stride: p.Stride}
	}
	start := y*p.Stride + x
	end := (y+h-1)*p.Stride + x + w
	return &Plane[T]{
		Width:  w,
		Height: h,
		Stride: p.Stride,
		Data:   p.Data[start:end],
	}
}

// Clone returns a compact copy of the plane (Stride == Width).
func (p *Plane[T]) Clone() *Plane[T] {
	c := NewPlane[T](p.Width, p.Height)
	for y := 0; y < p.Height; y++ {
		copy(c.Row(y), p.Row(y))
	}
	return c
}

// Fill sets every sample of the plane to v.
func (p *Plane[T]) Fill(v T) {
	for y := 0; y < p.Height; y++ {
		row := p.Row(y)
		for i := range row {
			row[i] = v
		}
	}
}

// covers reports whether the w x h region at (x, y) lies inside the plane
// and its backing slice.
func (p *Plane[T]) covers(x, y, w, h int) bool {
	if w == 0 || h == 0 {
		return true
	}
	if x < 0 || y < 0 || x+w > p.Width || y+h > p.Height || p.Stride < p.Width {
		return false
	}
	return len(p.Data) >= (y+h-1)*p.Stride+x+w
}

// copyRegion copies the w x h region at (x, y) from src to dst.
func copyRegion[T filter.Sample](dst, src *Plane[T], x, y, w, h int) {
	for j := y; j < y+h; j++ {
		copy(dst.Data[j*dst.Stride+x:j*dst.Stride+x+w], src.Data[j*src.Stride+x:j*src.Stride+x+w])
	}
}
