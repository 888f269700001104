package idwt

import (
	"image"
	"image/color"
)

// Gray converts a reconstructed plane of a component with the given bit
// precision to a grayscale image.
//
// Reconstructed samples are centered on zero, so the DC level shift of
// 2^(precision-1) is added back before they are clamped to
// [0, 2^precision-1]. Precisions up to 8 give an *image.Gray scaled to 8
// bits, higher precisions an *image.Gray16 scaled to 16 bits.
func Gray(p *Plane, precision int) image.Image {
	precision = max(1, min(precision, 31))
	maxVal := int64(1)<<precision - 1
	shift := int64(1) << (precision - 1)
	rect := image.Rect(0, 0, p.Width, p.Height)

	if precision <= 8 {
		img := image.NewGray(rect)
		for y := 0; y < p.Height; y++ {
			for x, v := range p.Row(y) {
				s := clampInt64(int64(v)+shift, 0, maxVal)
				// Scale to 8-bit
				if precision != 8 {
					s = s * 255 / maxVal
				}
				img.SetGray(x, y, color.Gray{Y: uint8(s)})
			}
		}
		return img
	}

	// 16-bit grayscale
	img := image.NewGray16(rect)
	for y := 0; y < p.Height; y++ {
		for x, v := range p.Row(y) {
			s := clampInt64(int64(v)+shift, 0, maxVal)
			if precision != 16 {
				s = s * 65535 / maxVal
			}
			img.SetGray16(x, y, color.Gray16{Y: uint16(s)})
		}
	}
	return img
}

// GrayComponent reconstructs component c over the whole image and converts
// it with Gray, using the component precision from the header.
func (r *Reconstructor) GrayComponent(c int) (image.Image, error) {
	p, err := r.ReconstructComponent(c)
	if err != nil {
		return nil, err
	}
	return Gray(p, r.tiles.Header().ComponentInfo[c].Precision()), nil
}

func clampInt64(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
