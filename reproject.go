package glass

import (
	stdimage "image"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// reprojectEps bounds how far the delta transform's linear part may
// deviate from identity before matte reuse is rejected.
const reprojectEps = 1e-6

// reprojectMatte relocates a baked matte to the group's current
// transform without re-evaluating the distance field. It succeeds only
// for translation deltas: scaling or rotating the group changes the
// device-space geometry itself (thickness, band widths, displacement
// directions), so those deltas must rebake.
//
// The result is aligned to the group's current integral bounds, so
// Paint sees the same dimensions a fresh bake would produce. Integer
// shifts reduce to row copies; subpixel residues cost one bilinear
// warp. The matte channels interpolate channelwise, which is the right
// resampling for the smooth displacement field; mixed covered and
// uncovered texels stay gated by their near-zero coverage.
func (g *Group) reprojectMatte(old *GeometryMatte) (*GeometryMatte, bool) {
	oldTd := Scaling(old.scale, old.scale).Multiply(old.transform)
	inv, ok := oldTd.Invert()
	if !ok {
		return nil, false
	}
	delta := g.deviceTransform().Multiply(inv)

	if math.Abs(delta.A-1) > reprojectEps || math.Abs(delta.B) > reprojectEps ||
		math.Abs(delta.D) > reprojectEps || math.Abs(delta.E-1) > reprojectEps {
		return nil, false
	}

	fresh := g.Bounds()
	if fresh.IsEmpty() || old.bounds.IsEmpty() {
		return nil, false
	}
	w := int(fresh.Width())
	h := int(fresh.Height())

	// Where old matte content lands inside the fresh bounds.
	shiftX := old.bounds.Min.X + delta.C - fresh.Min.X
	shiftY := old.bounds.Min.Y + delta.F - fresh.Min.Y

	nm := &GeometryMatte{
		bounds:     fresh,
		transform:  g.transform,
		scale:      old.scale,
		dispRange:  old.dispRange,
		key:        old.key,
		snapshots:  old.snapshots,
		generation: old.generation,
	}

	si := math.Round(shiftX)
	sj := math.Round(shiftY)
	if math.Abs(shiftX-si) < reprojectEps && math.Abs(shiftY-sj) < reprojectEps {
		if si == 0 && sj == 0 && w == old.pix.Width() && h == old.pix.Height() {
			// Exact overlap: the baked pixels are reused as they are.
			nm.pix = old.pix
			return nm, true
		}
		nm.pix = old.pix.SubPixmap(-int(si), -int(sj), w, h)
		return nm, true
	}

	nm.pix = NewPixmap(w, h)
	ow := old.pix.Width()
	oh := old.pix.Height()
	src := &stdimage.RGBA{Pix: old.pix.Data(), Stride: ow * 4, Rect: stdimage.Rect(0, 0, ow, oh)}
	dst := &stdimage.RGBA{Pix: nm.pix.Data(), Stride: w * 4, Rect: stdimage.Rect(0, 0, w, h)}
	draw.BiLinear.Transform(dst, f64.Aff3{
		1, 0, shiftX,
		0, 1, shiftY,
	}, src, src.Rect, draw.Src, nil)
	return nm, true
}
