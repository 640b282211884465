package glass

import (
	"fmt"
	"math"
)

// MaxShapes is the hard cap on shapes per group. Registering more is a
// configuration error, never a silent truncation.
const MaxShapes = 16

// ShapeKind identifies a glass primitive.
type ShapeKind uint8

const (
	// ShapeRoundedRect is a rectangle with circular-arc corners.
	ShapeRoundedRect ShapeKind = iota

	// ShapeEllipse is an axis-aligned ellipse.
	ShapeEllipse

	// ShapeSuperellipse is a squircle: rectangle-based with
	// continuous-curvature corners, visually between rounded rectangle
	// and ellipse.
	ShapeSuperellipse
)

// String returns the kind name.
func (k ShapeKind) String() string {
	switch k {
	case ShapeRoundedRect:
		return "rounded-rect"
	case ShapeEllipse:
		return "ellipse"
	case ShapeSuperellipse:
		return "superellipse"
	default:
		return fmt.Sprintf("ShapeKind(%d)", uint8(k))
	}
}

// ShapeID is a caller-chosen handle identifying a shape within its group.
type ShapeID uint64

// ShapeDescriptor describes one glass primitive.
//
// Center is in the coordinate space of the owning group. CornerRadius is a
// single uniform scalar; elliptical corners (distinct x/y radii) are not
// representable and therefore cannot occur. The radius is clamped to half
// the smaller side during evaluation.
type ShapeDescriptor struct {
	Kind         ShapeKind
	Center       Point
	Size         Vec2
	CornerRadius float64

	// ContainsChildContent marks a shape whose interior the host redraws
	// above the composited glass. It does not change how the glass
	// renders; hosts query Group.HasChildContent to schedule the redraw.
	ContainsChildContent bool
}

// validate rejects configurations that must not proceed. Degenerate but
// animatable values (zero size, zero radius) are not errors; they are
// normalized during evaluation instead.
func (d ShapeDescriptor) validate() error {
	if d.Kind > ShapeSuperellipse {
		return configErr("Kind", fmt.Sprintf("unknown shape kind %d", d.Kind), nil)
	}
	if !isFinite(d.Center.X) || !isFinite(d.Center.Y) {
		return configErr("Center", "coordinates must be finite", nil)
	}
	if !isFinite(d.Size.X) || !isFinite(d.Size.Y) {
		return configErr("Size", "dimensions must be finite", nil)
	}
	if !isFinite(d.CornerRadius) || d.CornerRadius < 0 {
		return configErr("CornerRadius", "must be finite and >= 0", nil)
	}
	return nil
}

// normalized clamps degenerate values: negative sizes collapse to zero,
// the corner radius is limited to half the smaller side.
func (d ShapeDescriptor) normalized() ShapeDescriptor {
	out := d
	if out.Size.X < 0 {
		out.Size.X = 0
	}
	if out.Size.Y < 0 {
		out.Size.Y = 0
	}
	maxRadius := math.Min(out.Size.X, out.Size.Y) / 2
	if out.CornerRadius > maxRadius {
		out.CornerRadius = maxRadius
	}
	return out
}

// bounds returns the axis-aligned box of the shape in group space.
func (d ShapeDescriptor) bounds() Rect {
	half := Vec2{X: d.Size.X / 2, Y: d.Size.Y / 2}
	return NewRect(
		Pt(d.Center.X-half.X, d.Center.Y-half.Y),
		Pt(d.Center.X+half.X, d.Center.Y+half.Y),
	)
}

// shape is the validated, group-owned record for one registered primitive.
type shape struct {
	id   ShapeID
	desc ShapeDescriptor
}

// shapeSnapshot captures the layout-relevant fields of a shape at bake
// time, for the cache controller's cheap staleness comparison.
type shapeSnapshot struct {
	id           ShapeID
	kind         ShapeKind
	center       Point
	size         Vec2
	cornerRadius float64
}

func snapshotOf(s shape) shapeSnapshot {
	d := s.desc.normalized()
	return shapeSnapshot{
		id:           s.id,
		kind:         d.Kind,
		center:       d.Center,
		size:         d.Size,
		cornerRadius: d.CornerRadius,
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
