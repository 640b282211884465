package glass

import "github.com/gogpu/glass/internal/image"

// backdropMargin returns how far past the glass bounds the backdrop
// capture must extend, in device pixels: the worst-case refraction
// displacement (including the chromatic spread) plus the blur kernel
// support. Sampling outside the capture clamps to its edge, so an
// undersized capture would smear border colors into the glass.
func backdropMargin(s Settings, unitScale float64) float64 {
	n := s.normalized()
	disp := dispRangeFor(n.Thickness, unitScale) * (1 + n.ChromaticAberration*dispersionHalf)
	return disp + float64(image.BlurPad(n.BlurRadius*unitScale))
}

// BackdropBounds returns the device-pixel rectangle the host must
// capture behind the group this frame. It is the glass bounds inflated
// by the sampling margin; empty when the group has no visible shapes.
func (g *Group) BackdropBounds() Rect {
	b := g.Bounds()
	if b.IsEmpty() {
		return Rect{}
	}
	unitScale := similarityScale(g.deviceTransform())
	return b.Inflate(backdropMargin(g.settings, unitScale)).Integral()
}

// prepareBackdrop applies the backdrop pre-blur when configured. The
// captured snapshot is frame-scoped and read-only, so the blur runs on
// a clone.
func (g *Group) prepareBackdrop(captured *Pixmap) *Pixmap {
	n := g.settings.normalized()
	if n.BlurRadius <= 0 {
		return captured
	}
	radius := n.BlurRadius * similarityScale(g.deviceTransform())
	out := captured.Clone()
	buf := image.FromRaw(out.Data(), out.Width(), out.Height(), out.Width()*4)
	image.Blur(buf, buf, radius)
	return out
}
