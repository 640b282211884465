package glass

import (
	"math"

	"github.com/soypat/geometry/ms2"

	"github.com/gogpu/glass/sdf"
)

// Geometry pass tuning. These are the reference visual constants; they
// are deliberately not user settings.
const (
	// baseHeightFactor is the assumed depth from the glass to the
	// backdrop plane, in thickness units. It scales how far refraction
	// displaces the sample position.
	baseHeightFactor = 8.0

	// coverageBand is the antialiasing band width at the silhouette,
	// in device pixels.
	coverageBand = 2.0

	// coverageSkip is the alpha below which a pixel is written as fully
	// outside and skipped by the optical pass.
	coverageSkip = 0.01

	// matteApron is the extra margin around the silhouette bounds, in
	// device pixels, so gradient neighbors at the boundary stay valid.
	matteApron = 2
)

// buildScene assembles the distance field for a shape list in
// group-local coordinates. Zero-size shapes drop out; they contribute
// no area and would only distort the blend.
func buildScene(shapes []shape, blend float64) *sdf.Scene {
	scene := sdf.NewScene(float32(blend))
	for _, s := range shapes {
		d := s.desc.normalized()
		if d.Size.X <= 0 || d.Size.Y <= 0 {
			continue
		}
		var kind sdf.Kind
		switch d.Kind {
		case ShapeEllipse:
			kind = sdf.KindEllipse
		case ShapeSuperellipse:
			kind = sdf.KindSuperellipse
		default:
			kind = sdf.KindRoundedRect
		}
		// Cap is enforced at registration, Add cannot fail here.
		scene.Add(sdf.Shape{
			Kind:   kind,
			Center: ms2.Vec{X: float32(d.Center.X), Y: float32(d.Center.Y)},
			Half:   ms2.Vec{X: float32(d.Size.X / 2), Y: float32(d.Size.Y / 2)},
			Radius: float32(d.CornerRadius),
		})
	}
	return scene
}

// deviceTransform returns the full group-local to device-pixel mapping.
func (g *Group) deviceTransform() Matrix {
	return Scaling(g.scale, g.scale).Multiply(g.transform)
}

// similarityScale returns the length scale factor of an affine map,
// exact for similarity transforms and the geometric mean of the axis
// scales otherwise.
func similarityScale(m Matrix) float64 {
	det := m.A*m.E - m.B*m.D
	return math.Sqrt(math.Abs(det))
}

// matteBounds returns the integral device-pixel rectangle the matte
// must cover for the given scene, including the apron margin.
func (g *Group) matteBounds(scene *sdf.Scene) Rect {
	if scene.Len() == 0 {
		return Rect{}
	}
	bb := scene.Bounds()
	local := NewRect(
		Pt(float64(bb.Min.X), float64(bb.Min.Y)),
		Pt(float64(bb.Max.X), float64(bb.Max.Y)),
	)
	dev := local.Transform(g.deviceTransform())
	return dev.Inflate(matteApron).Integral()
}

// bakeMatte runs the geometry pass for the group's current shapes,
// settings and transform, producing a new matte. A registered
// accelerator is tried first; ErrFallbackToCPU or any accelerator error
// falls back to the CPU bake.
func (g *Group) bakeMatte() *GeometryMatte {
	s := g.settings.normalized()
	key := s.geometryKey()
	scene := buildScene(g.shapes, key.blendRadius)

	td := g.deviceTransform()
	unitScale := similarityScale(td)
	bounds := g.matteBounds(scene)

	g.generation++
	m := newGeometryMatte(bounds, g.transform, g.scale, unitScale, key, g.layoutSnapshots(), g.generation)
	if bounds.IsEmpty() {
		return m
	}

	if a := RegisteredAccelerator(); a != nil && a.CanAccelerate(AccelGeometryBake) {
		if err := g.bakeAccelerated(a, m, scene, key, td, unitScale); err == nil {
			return m
		} else if err != ErrFallbackToCPU {
			Logger().Debug("glass: accelerated bake failed, using CPU",
				"accelerator", a.Name(), "error", err)
		}
	}

	g.bakeCPU(m, scene, key, td, unitScale)
	return m
}

// bakeCPU rasterizes the distance field and derives the matte texels on
// the worker pool, row band by row band.
func (g *Group) bakeCPU(m *GeometryMatte, scene *sdf.Scene, key geomKey, td Matrix, unitScale float64) {
	w := m.pix.Width()
	h := m.pix.Height()

	// The distance grid carries a one-pixel apron on every side so the
	// per-pixel gradient can always read its four neighbors.
	gw := w + 2
	gh := h + 2
	grid := make([]float32, gw*gh)
	pos := make([]ms2.Vec, gw*gh)

	inv, ok := td.Invert()
	if !ok {
		// Degenerate transform collapses the group to zero area.
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				m.setOutside(x, y)
			}
		}
		return
	}

	x0 := m.bounds.Min.X
	y0 := m.bounds.Min.Y
	stepX := inv.ApplyVector(Pt(1, 0))

	// Pass 1: evaluate device-space distances over the grid. Grid cell
	// (gx, gy) is the device pixel center (x0-1+gx+0.5, y0-1+gy+0.5)
	// pulled back into group-local space.
	distScale := float32(unitScale)
	g.workers().ForRows(gh, func(r0, r1 int) {
		for gy := r0; gy < r1; gy++ {
			row := grid[gy*gw : (gy+1)*gw]
			prow := pos[gy*gw : (gy+1)*gw]
			p := inv.Apply(Pt(x0-0.5, y0-0.5+float64(gy)))
			for gx := 0; gx < gw; gx++ {
				prow[gx] = ms2.Vec{X: float32(p.X), Y: float32(p.Y)}
				p = p.Add(stepX)
			}
			scene.Evaluate(prow, row, nil)
			for i := range row {
				row[i] *= distScale
			}
		}
	})

	thickness := key.thickness * unitScale
	eta := 1 / key.refractiveIndex

	// Pass 2: derive coverage, normal and displacement per pixel.
	g.workers().ForRows(h, func(r0, r1 int) {
		for y := r0; y < r1; y++ {
			for x := 0; x < w; x++ {
				gi := (y+1)*gw + (x + 1)
				sd := float64(grid[gi])

				alpha := 1 - smoothstep(-coverageBand, 0, sd)
				if alpha < coverageSkip {
					m.setOutside(x, y)
					continue
				}

				disp, nz := refractionAt(
					sd,
					float64(grid[gi+1])-float64(grid[gi-1]),
					float64(grid[gi+gw])-float64(grid[gi-gw]),
					thickness, eta,
				)
				m.setTexel(x, y, disp, nz, alpha)
			}
		}
	})
}

// refractionAt converts one distance sample plus its central
// differences into the refraction displacement and the normal z
// component. dx and dy are the full-width neighbor differences.
func refractionAt(sd, dx, dy, thickness, eta float64) (disp Vec2, nz float64) {
	if thickness <= 0 {
		return Vec2{}, 1
	}

	height := heightProfile(sd, thickness)

	// Lens normal: distance gradient tilted by the height profile's
	// slope. n_cos is 1 at the rim and 0 on the interior plateau.
	nCos := clamp01((thickness + sd) / thickness)
	nSin := math.Sqrt(1 - nCos*nCos)

	grad := Vec2{X: dx * 0.5, Y: dy * 0.5}.Normalize()
	normal := Vec3{X: grad.X * nCos, Y: grad.Y * nCos, Z: nSin}
	if normal.Length() < 1e-9 {
		normal = Vec3{Z: 1}
	} else {
		normal = normal.Normalize()
	}

	// View ray straight down, bent by Snell's law and projected onto
	// the backdrop plane at the assumed depth.
	refr := Vec3{Z: -1}.Refract(normal, eta)
	if math.Abs(refr.Z) < 1e-6 {
		// Grazing or total internal reflection: no usable projection.
		return Vec2{}, nSin
	}
	project := (height + thickness*baseHeightFactor) / math.Abs(refr.Z)
	return refr.XY().Mul(project), nSin
}

// heightProfile is the hemispherical lens cross-section: zero at the
// silhouette, a flat plateau of height thickness in the deep interior.
func heightProfile(sd, thickness float64) float64 {
	switch {
	case thickness <= 0 || sd >= 0:
		return 0
	case sd < -thickness:
		return thickness
	default:
		t := thickness + sd
		return math.Sqrt(thickness*thickness - t*t)
	}
}

// smoothstep is the Hermite step between edges e0 and e1.
func smoothstep(e0, e1, x float64) float64 {
	t := clamp01((x - e0) / (e1 - e0))
	return t * t * (3 - 2*t)
}

// bakeAccelerated encodes the scene in wire form and runs the geometry
// pass on the registered accelerator. Only axis-aligned device
// transforms map onto the accelerator's shape records; anything else
// falls back to the CPU.
func (g *Group) bakeAccelerated(a Accelerator, m *GeometryMatte, scene *sdf.Scene, key geomKey, td Matrix, unitScale float64) error {
	if td.B != 0 || td.D != 0 || math.Abs(td.A-td.E) > 1e-9 || td.A <= 0 {
		return ErrFallbackToCPU
	}

	shapes := make([]FieldShape, 0, len(g.shapes))
	for _, s := range g.shapes {
		d := s.desc.normalized()
		if d.Size.X <= 0 || d.Size.Y <= 0 {
			continue
		}
		c := td.Apply(d.Center)
		shapes = append(shapes, FieldShape{
			Kind:         uint32(d.Kind),
			CenterX:      float32(c.X - m.bounds.Min.X),
			CenterY:      float32(c.Y - m.bounds.Min.Y),
			HalfW:        float32(d.Size.X / 2 * td.A),
			HalfH:        float32(d.Size.Y / 2 * td.A),
			CornerRadius: float32(d.CornerRadius * td.A),
		})
	}

	target := RenderTarget{
		Data:   m.pix.Data(),
		Width:  m.pix.Width(),
		Height: m.pix.Height(),
		Stride: m.pix.Width() * 4,
	}
	field := FieldDesc{
		Shapes:      shapes,
		BlendRadius: float32(key.blendRadius * unitScale),
		Thickness:   float32(key.thickness * unitScale),
		RefractIdx:  float32(key.refractiveIndex),
	}
	return a.BakeMatte(target, field)
}
