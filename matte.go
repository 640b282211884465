package glass

import "math"

// Matte texel packing, 4x8 bits per pixel:
//
//	R, G  signed refraction displacement, quantized per axis around 127
//	B     surface normal z component (0 at the rim, 255 on the plateau)
//	A     coverage alpha
//
// The displacement quantization range is derived from the baked
// thickness (see dispRange), so decode restores pixel units. Height and
// raw distance are not stored: the optical pass needs only the
// displacement, the normal z and the coverage, and the lateral normal
// direction is recovered from the displacement direction.
const (
	dispZero = 127
	dispHalf = 127
)

// packDisp quantizes a displacement component to a byte. d is clamped
// to [-dispRange, dispRange]; zero maps exactly to dispZero.
func packDisp(d, dispRange float64) uint8 {
	if dispRange <= 0 {
		return dispZero
	}
	v := d / dispRange
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return uint8(dispZero + math.Round(v*dispHalf))
}

// unpackDisp restores a displacement component from its byte encoding.
func unpackDisp(b uint8, dispRange float64) float64 {
	return (float64(b) - dispZero) / dispHalf * dispRange
}

// packUnit quantizes a [0, 1] value to a byte.
func packUnit(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Round(v * 255))
}

// unpackUnit restores a [0, 1] value from its byte encoding.
func unpackUnit(b uint8) float64 {
	return float64(b) / 255
}

// GeometryMatte is the cached output of the geometry pass: per-pixel
// refraction displacement, pseudo-3D normal and coverage for one group,
// baked at a specific transform and device scale.
//
// A matte is exclusively owned by its group. It stays valid while the
// group's shape layout and geometry-affecting settings are unchanged;
// pure translations of the group reuse it through reprojection instead
// of a rebake.
type GeometryMatte struct {
	pix        *Pixmap
	bounds     Rect // integral, device pixels, screen space
	transform  Matrix
	scale      float64
	dispRange  float64
	key        geomKey
	snapshots  []shapeSnapshot
	generation uint64
}

// newGeometryMatte allocates a matte covering the given integral
// screen-space rectangle. unitScale is the local-to-device length
// factor (device pixel ratio times the transform's zoom).
func newGeometryMatte(bounds Rect, transform Matrix, scale, unitScale float64, key geomKey, snapshots []shapeSnapshot, generation uint64) *GeometryMatte {
	b := bounds.Integral()
	return &GeometryMatte{
		pix:        NewPixmap(int(b.Width()), int(b.Height())),
		bounds:     b,
		transform:  transform,
		scale:      scale,
		dispRange:  dispRangeFor(key.thickness, unitScale),
		key:        key,
		snapshots:  snapshots,
		generation: generation,
	}
}

// dispRangeFor returns the displacement quantization range in device
// pixels for a given thickness. The range matches the projection depth
// constant of the geometry pass, which displacement rarely exceeds.
func dispRangeFor(thickness, unitScale float64) float64 {
	return thickness * unitScale * baseHeightFactor
}

// Bounds returns the screen-space rectangle the matte covers, in device
// pixels.
func (m *GeometryMatte) Bounds() Rect { return m.bounds }

// Transform returns the group transform the matte was baked at.
func (m *GeometryMatte) Transform() Matrix { return m.transform }

// Scale returns the device pixel ratio the matte was baked at.
func (m *GeometryMatte) Scale() float64 { return m.scale }

// Generation returns the bake counter value of this matte. Each rebake
// of a group produces a larger generation.
func (m *GeometryMatte) Generation() uint64 { return m.generation }

// SizeBytes returns the memory footprint of the matte pixels, used for
// the matte cache byte budget.
func (m *GeometryMatte) SizeBytes() int64 {
	if m.pix == nil {
		return 0
	}
	return int64(len(m.pix.Data()))
}

// texel reads the decoded matte values at a pixel. x and y are in matte
// space (0,0 = top-left of bounds).
func (m *GeometryMatte) texel(x, y int) (disp Vec2, nz, alpha float64) {
	data := m.pix.Data()
	i := (y*m.pix.Width() + x) * 4
	disp.X = unpackDisp(data[i], m.dispRange)
	disp.Y = unpackDisp(data[i+1], m.dispRange)
	nz = unpackUnit(data[i+2])
	alpha = unpackUnit(data[i+3])
	return disp, nz, alpha
}

// setTexel writes encoded matte values at a pixel.
func (m *GeometryMatte) setTexel(x, y int, disp Vec2, nz, alpha float64) {
	data := m.pix.Data()
	i := (y*m.pix.Width() + x) * 4
	data[i] = packDisp(disp.X, m.dispRange)
	data[i+1] = packDisp(disp.Y, m.dispRange)
	data[i+2] = packUnit(nz)
	data[i+3] = packUnit(alpha)
}

// setOutside writes the canonical texel for an uncovered pixel: zero
// displacement, zero normal z, zero coverage. Writing a fixed pattern
// keeps rebakes bit-identical.
func (m *GeometryMatte) setOutside(x, y int) {
	data := m.pix.Data()
	i := (y*m.pix.Width() + x) * 4
	data[i] = dispZero
	data[i+1] = dispZero
	data[i+2] = 0
	data[i+3] = 0
}
