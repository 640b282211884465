package image

import "math"

// SampleBilinear samples the buffer at normalized coordinates (u, v)
// with bilinear filtering. (0,0) is the top-left corner and (1,1) the
// bottom-right; out-of-range coordinates clamp to the edge. Channels
// are returned in [0, 1].
//
// The half-texel offset places integer pixel centers at
// (x+0.5)/width, matching GPU texture sampling.
func SampleBilinear(b *Buf, u, v float64) (r, g, bl, a float64) {
	w, h := b.Width, b.Height
	if w == 0 || h == 0 {
		return 0, 0, 0, 0
	}

	// Convert normalized coords to continuous pixel coords.
	fx := u*float64(w) - 0.5
	fy := v*float64(h) - 0.5

	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	x1 := x0 + 1
	y1 := y0 + 1

	// Clamp to edge.
	x0 = clamp(x0, 0, w-1)
	y0 = clamp(y0, 0, h-1)
	x1 = clamp(x1, 0, w-1)
	y1 = clamp(y1, 0, h-1)

	i00 := b.PixelOffset(x0, y0)
	i10 := b.PixelOffset(x1, y0)
	i01 := b.PixelOffset(x0, y1)
	i11 := b.PixelOffset(x1, y1)

	const inv = 1.0 / 255.0
	r = lerp2D(float64(b.Pix[i00]), float64(b.Pix[i10]), float64(b.Pix[i01]), float64(b.Pix[i11]), tx, ty) * inv
	g = lerp2D(float64(b.Pix[i00+1]), float64(b.Pix[i10+1]), float64(b.Pix[i01+1]), float64(b.Pix[i11+1]), tx, ty) * inv
	bl = lerp2D(float64(b.Pix[i00+2]), float64(b.Pix[i10+2]), float64(b.Pix[i01+2]), float64(b.Pix[i11+2]), tx, ty) * inv
	a = lerp2D(float64(b.Pix[i00+3]), float64(b.Pix[i10+3]), float64(b.Pix[i01+3]), float64(b.Pix[i11+3]), tx, ty) * inv
	return r, g, bl, a
}

// lerp2D interpolates between four corner values with fractional
// weights (tx, ty).
func lerp2D(v00, v10, v01, v11, tx, ty float64) float64 {
	top := v00 + (v10-v00)*tx
	bot := v01 + (v11-v01)*tx
	return top + (bot-top)*ty
}
