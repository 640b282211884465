package glass

import (
	"math"

	"github.com/gogpu/glass/internal/image"
)

// Optical pass tuning, matched to the reference falloffs. Like the
// geometry constants these are not user settings.
const (
	// rimWidth is the width of the rim highlight band in device pixels.
	rimWidth = 1.5

	// rimK shapes the rational rim falloff 1/(1+k*x^2), with x the
	// distance from the silhouette in rimWidth units.
	rimK = 0.89

	// fillLightFactor is the strength of the opposite fill light
	// relative to the main light.
	fillLightFactor = 0.8

	// dispersionHalf splits the red and blue samples around the green
	// displacement when chromatic aberration is enabled.
	dispersionHalf = 0.5
)

// shade runs the optical pass: every covered matte pixel samples the
// backdrop through its refraction displacement, gets tinted, lit and
// saturated, and is composited into dst by its coverage. dst has the
// matte's dimensions; backdrop covers backdropBounds, a superset of the
// matte bounds.
func (g *Group) shade(dst *Pixmap, m *GeometryMatte, backdrop *Pixmap, backdropBounds Rect) {
	s := g.settings.normalized()

	if a := RegisteredAccelerator(); a != nil && a.CanAccelerate(AccelOpticalShade) {
		if err := g.shadeAccelerated(a, dst, m, backdrop, backdropBounds, s); err == nil {
			return
		} else if err != ErrFallbackToCPU {
			Logger().Debug("glass: accelerated shade failed, using CPU",
				"accelerator", a.Name(), "error", err)
		}
	}

	g.shadeCPU(dst, m, backdrop, backdropBounds, s)
}

func (g *Group) shadeCPU(dst *Pixmap, m *GeometryMatte, backdrop *Pixmap, backdropBounds Rect, s Settings) {
	w := m.pix.Width()
	h := m.pix.Height()
	if w == 0 || h == 0 {
		return
	}

	bg := image.FromRaw(backdrop.Data(), backdrop.Width(), backdrop.Height(), backdrop.Width()*4)
	bgW := backdropBounds.Width()
	bgH := backdropBounds.Height()
	if bgW <= 0 || bgH <= 0 {
		return
	}

	// Device thickness falls out of the matte's quantization range.
	thickness := m.dispRange / baseHeightFactor

	lightDir := s.lightDir()
	chromatic := s.ChromaticAberration
	tintLum := s.Tint.Luminance()

	// sample reads the backdrop at a device position plus displacement,
	// in normalized backdrop coordinates with edge clamp.
	sample := func(px, py float64, d Vec2) RGBA {
		u := (px + d.X - backdropBounds.Min.X) / bgW
		v := (py + d.Y - backdropBounds.Min.Y) / bgH
		r, gr, b, a := image.SampleBilinear(bg, u, v)
		return RGBA{R: r, G: gr, B: b, A: a}
	}

	g.workers().ForRows(h, func(r0, r1 int) {
		for y := r0; y < r1; y++ {
			py := m.bounds.Min.Y + float64(y) + 0.5
			for x := 0; x < w; x++ {
				disp, nz, alpha := m.texel(x, y)
				if alpha <= 0 {
					dst.SetPixel(x, y, RGBA{})
					continue
				}
				px := m.bounds.Min.X + float64(x) + 0.5

				// Refracted backdrop sample, split per channel when
				// dispersion is on: green at the base displacement, red
				// and blue pushed apart around it.
				var c RGBA
				if chromatic <= 0 {
					c = sample(px, py, disp)
				} else {
					green := sample(px, py, disp)
					red := sample(px, py, disp.Mul(1+chromatic*dispersionHalf))
					blue := sample(px, py, disp.Mul(1-chromatic*dispersionHalf))
					c = RGBA{R: red.R, G: green.G, B: blue.B, A: green.A}
				}

				// Glass tint: darken for dark tints, lighten for bright
				// ones, mixed in by tint alpha.
				if s.Tint.A > 0 {
					var blended RGBA
					if tintLum < 0.5 {
						blended = RGBA{
							R: c.R * s.Tint.R,
							G: c.G * s.Tint.G,
							B: c.B * s.Tint.B,
							A: c.A,
						}
					} else {
						blended = RGBA{
							R: 1 - (1-c.R)*(1-s.Tint.R),
							G: 1 - (1-c.G)*(1-s.Tint.G),
							B: 1 - (1-c.B)*(1-s.Tint.B),
							A: c.A,
						}
					}
					c = c.Lerp(blended, s.Tint.A)
				}

				// Rim and two-lobe directional lighting. The lateral
				// normal points against the displacement; its length is
				// the cosine term of the height profile.
				nCos := math.Sqrt(math.Max(0, 1-nz*nz))
				edgeDist := (1 - nCos) * thickness
				xr := edgeDist / rimWidth
				rim := 1 / (1 + rimK*xr*xr)

				var main, fill float64
				if dl := disp.Length(); dl > 1e-9 {
					nxy := disp.Mul(-nCos / dl)
					main = math.Max(0, nxy.Dot(lightDir))
					fill = math.Max(0, -nxy.Dot(lightDir))
				}
				light := rim * (s.Ambient + s.LightIntensity*(main+fillLightFactor*fill))
				if light > 0 {
					lc := lightColorFrom(c)
					c.R += lc.R * light
					c.G += lc.G * light
					c.B += lc.B * light
				}

				// Saturation, then clamp.
				if s.Saturation != 1 {
					lum := c.Luminance()
					c.R = lum + (c.R-lum)*s.Saturation
					c.G = lum + (c.G-lum)*s.Saturation
					c.B = lum + (c.B-lum)*s.Saturation
				}
				c = c.Clamp()

				// Composite over the untouched backdrop by coverage.
				if alpha < 1 {
					bg0 := sample(px, py, Vec2{})
					out := bg0.Lerp(RGBA{R: c.R, G: c.G, B: c.B, A: 1}, alpha)
					dst.SetPixel(x, y, out)
				} else {
					dst.SetPixel(x, y, RGBA{R: c.R, G: c.G, B: c.B, A: 1})
				}
			}
		}
	})
}

// lightColorFrom derives the highlight color from the backdrop sample:
// saturated, bright backgrounds tint the highlight toward their hue,
// dim or gray ones fade it to plain white.
func lightColorFrom(bg RGBA) RGBA {
	w := bg.Saturation() * clamp01(bg.Luminance()*2)
	if w <= 0 {
		return White
	}
	maxc := math.Max(bg.R, math.Max(bg.G, bg.B))
	if maxc < 1e-6 {
		return White
	}
	hue := RGBA{R: bg.R / maxc, G: bg.G / maxc, B: bg.B / maxc, A: 1}
	return White.Lerp(hue, w)
}

// passThrough copies the backdrop region under bounds into dst
// unchanged. Used when thickness is zero: no refraction, no lighting.
func passThrough(dst *Pixmap, backdrop *Pixmap, backdropBounds, bounds Rect) {
	offX := int(bounds.Min.X - backdropBounds.Min.X)
	offY := int(bounds.Min.Y - backdropBounds.Min.Y)
	sub := backdrop.SubPixmap(offX, offY, dst.Width(), dst.Height())
	dst.CopyFrom(sub)
}

func (g *Group) shadeAccelerated(a Accelerator, dst *Pixmap, m *GeometryMatte, backdrop *Pixmap, backdropBounds Rect, s Settings) error {
	target := RenderTarget{
		Data:   dst.Data(),
		Width:  dst.Width(),
		Height: dst.Height(),
		Stride: dst.Width() * 4,
	}
	matte := RenderTarget{
		Data:   m.pix.Data(),
		Width:  m.pix.Width(),
		Height: m.pix.Height(),
		Stride: m.pix.Width() * 4,
	}
	bg := RenderTarget{
		Data:   backdrop.Data(),
		Width:  backdrop.Width(),
		Height: backdrop.Height(),
		Stride: backdrop.Width() * 4,
	}
	desc := ShadeDesc{
		TintR:          float32(s.Tint.R),
		TintG:          float32(s.Tint.G),
		TintB:          float32(s.Tint.B),
		TintA:          float32(s.Tint.A),
		Chromatic:      float32(s.ChromaticAberration),
		LightAngle:     float32(s.LightAngle),
		LightIntensity: float32(s.LightIntensity),
		Ambient:        float32(s.Ambient),
		Saturation:     float32(s.Saturation),
		Thickness:      float32(m.dispRange / baseHeightFactor),
		OffsetX:        float32(m.bounds.Min.X - backdropBounds.Min.X),
		OffsetY:        float32(m.bounds.Min.Y - backdropBounds.Min.Y),
	}
	return a.Shade(target, matte, bg, desc)
}
