// Package image provides raw RGBA8 buffer views, sampling, and blur
// used by the glass renderer. It holds no references to the public
// package so it can sit at the bottom of the import graph.
package image

// Buf is a view over an RGBA8 pixel buffer. Pix holds 4 bytes per pixel
// in row-major order; Stride is the byte distance between rows, which
// allows views over sub-regions of a larger allocation.
type Buf struct {
	Pix    []uint8
	Width  int
	Height int
	Stride int
}

// New allocates a zeroed RGBA8 buffer of the given size.
func New(width, height int) *Buf {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Buf{
		Pix:    make([]uint8, width*height*4),
		Width:  width,
		Height: height,
		Stride: width * 4,
	}
}

// FromRaw wraps an existing pixel slice without copying.
// stride is in bytes; pass width*4 for tightly packed rows.
func FromRaw(pix []uint8, width, height, stride int) *Buf {
	return &Buf{Pix: pix, Width: width, Height: height, Stride: stride}
}

// PixelOffset returns the byte offset of pixel (x, y).
// Coordinates must be in bounds.
func (b *Buf) PixelOffset(x, y int) int {
	return y*b.Stride + x*4
}

// RGBAAt returns the pixel at (x, y). Out-of-bounds reads return zero.
func (b *Buf) RGBAAt(x, y int) (r, g, bl, a uint8) {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return 0, 0, 0, 0
	}
	i := b.PixelOffset(x, y)
	return b.Pix[i], b.Pix[i+1], b.Pix[i+2], b.Pix[i+3]
}

// SetRGBA writes the pixel at (x, y). Out-of-bounds writes are ignored.
func (b *Buf) SetRGBA(x, y int, r, g, bl, a uint8) {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return
	}
	i := b.PixelOffset(x, y)
	b.Pix[i] = r
	b.Pix[i+1] = g
	b.Pix[i+2] = bl
	b.Pix[i+3] = a
}

// Clone returns a deep copy with tightly packed rows.
func (b *Buf) Clone() *Buf {
	out := New(b.Width, b.Height)
	for y := 0; y < b.Height; y++ {
		src := b.Pix[y*b.Stride : y*b.Stride+b.Width*4]
		dst := out.Pix[y*out.Stride : y*out.Stride+b.Width*4]
		copy(dst, src)
	}
	return out
}

// CopyFrom copies the overlapping region of src into b.
func (b *Buf) CopyFrom(src *Buf) {
	w := b.Width
	if src.Width < w {
		w = src.Width
	}
	h := b.Height
	if src.Height < h {
		h = src.Height
	}
	for y := 0; y < h; y++ {
		copy(b.Pix[y*b.Stride:y*b.Stride+w*4], src.Pix[y*src.Stride:y*src.Stride+w*4])
	}
}

// clamp restricts v to [lo, hi].
func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
