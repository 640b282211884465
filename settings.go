package glass

import "math"

// Settings is the immutable optical parameter set of a group. A new value
// replaces the previous one wholesale; there is no partial mutation.
//
// Thickness, RefractiveIndex and BlendRadius shape the baked geometry;
// changing any of them forces a matte rebuild. The remaining fields only
// affect per-frame shading.
type Settings struct {
	// Tint is the glass tint color. A zero alpha disables tinting.
	Tint RGBA

	// Thickness is the distance-field-to-height scale in pixels.
	// Zero means no refraction: the glass passes the backdrop through.
	Thickness float64

	// RefractiveIndex is the ratio of refraction, typically 1.0 to 2.0.
	RefractiveIndex float64

	// ChromaticAberration is the dispersion strength. Zero samples the
	// backdrop once; positive values split the red and blue samples.
	ChromaticAberration float64

	// BlurRadius pre-blurs the backdrop snapshot before sampling.
	BlurRadius float64

	// LightAngle is the direction of the main light in radians.
	LightAngle float64

	// LightIntensity scales the directional rim/specular term.
	LightIntensity float64

	// Ambient is the view-independent lighting contribution.
	Ambient float64

	// Saturation adjusts the shaded color; 1.0 leaves it unchanged.
	Saturation float64

	// BlendRadius is the smooth-union softness between shapes, in pixels.
	// Zero gives a hard union.
	BlendRadius float64
}

// DefaultSettings returns the reference glass tuning.
func DefaultSettings() Settings {
	return Settings{
		Tint:                Transparent,
		Thickness:           20,
		RefractiveIndex:     1.51,
		ChromaticAberration: 0,
		BlurRadius:          0,
		LightAngle:          math.Pi / 4,
		LightIntensity:      1.0,
		Ambient:             0.1,
		Saturation:          1.0,
		BlendRadius:         0,
	}
}

// minRefractiveIndex floors the refraction denominator.
const minRefractiveIndex = 1e-3

// normalized applies the numeric guards: negative magnitudes clamp to
// zero and the refractive index is floored away from the divide-by-zero.
// These are degenerate-geometry cases, not errors; they arise naturally
// from animations passing through zero.
func (s Settings) normalized() Settings {
	out := s
	out.Thickness = math.Max(out.Thickness, 0)
	out.RefractiveIndex = math.Max(out.RefractiveIndex, minRefractiveIndex)
	out.ChromaticAberration = math.Max(out.ChromaticAberration, 0)
	out.BlurRadius = math.Max(out.BlurRadius, 0)
	out.LightIntensity = math.Max(out.LightIntensity, 0)
	out.Ambient = math.Max(out.Ambient, 0)
	out.Saturation = math.Max(out.Saturation, 0)
	out.BlendRadius = math.Max(out.BlendRadius, 0)
	if !isFinite(out.LightAngle) {
		out.LightAngle = 0
	}
	return out
}

// validate rejects non-finite parameters. Out-of-range magnitudes are
// handled by normalized instead.
func (s Settings) validate() error {
	if !isFinite(s.Thickness) {
		return configErr("Thickness", "must be finite", nil)
	}
	if !isFinite(s.RefractiveIndex) {
		return configErr("RefractiveIndex", "must be finite", nil)
	}
	if !isFinite(s.ChromaticAberration) || !isFinite(s.BlurRadius) ||
		!isFinite(s.LightIntensity) || !isFinite(s.Ambient) ||
		!isFinite(s.Saturation) || !isFinite(s.BlendRadius) {
		return configErr("Settings", "parameters must be finite", nil)
	}
	return nil
}

// lightDir returns the unit direction of the main light.
func (s Settings) lightDir() Vec2 {
	return Vec2{X: math.Cos(s.LightAngle), Y: math.Sin(s.LightAngle)}
}

// geomKey is the subset of settings baked into the geometry matte.
// Two settings values with equal geomKeys can share a matte.
type geomKey struct {
	thickness       float64
	refractiveIndex float64
	blendRadius     float64
}

func (s Settings) geometryKey() geomKey {
	n := s.normalized()
	return geomKey{
		thickness:       n.Thickness,
		refractiveIndex: n.RefractiveIndex,
		blendRadius:     n.BlendRadius,
	}
}
