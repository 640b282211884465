package glass

import "math"

// Rect represents an axis-aligned rectangle.
// Min is the top-left corner (minimum coordinates).
// Max is the bottom-right corner (maximum coordinates).
type Rect struct {
	Min, Max Point
}

// NewRect creates a rectangle from two points.
// The points are normalized so Min <= Max.
func NewRect(p1, p2 Point) Rect {
	return Rect{
		Min: Point{X: math.Min(p1.X, p2.X), Y: math.Min(p1.Y, p2.Y)},
		Max: Point{X: math.Max(p1.X, p2.X), Y: math.Max(p1.Y, p2.Y)},
	}
}

// RectWH creates a rectangle from an origin and a width/height pair.
func RectWH(x, y, w, h float64) Rect {
	return NewRect(Pt(x, y), Pt(x+w, y+h))
}

// Width returns the width of the rectangle.
func (r Rect) Width() float64 {
	return r.Max.X - r.Min.X
}

// Height returns the height of the rectangle.
func (r Rect) Height() float64 {
	return r.Max.Y - r.Min.Y
}

// IsEmpty reports whether the rectangle has zero or negative area.
func (r Rect) IsEmpty() bool {
	return r.Max.X <= r.Min.X || r.Max.Y <= r.Min.Y
}

// Union returns the smallest rectangle containing both r and other.
func (r Rect) Union(other Rect) Rect {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}
	return Rect{
		Min: Point{X: math.Min(r.Min.X, other.Min.X), Y: math.Min(r.Min.Y, other.Min.Y)},
		Max: Point{X: math.Max(r.Max.X, other.Max.X), Y: math.Max(r.Max.Y, other.Max.Y)},
	}
}

// Intersect returns the overlapping region of r and other.
// The result is empty when the rectangles do not overlap.
func (r Rect) Intersect(other Rect) Rect {
	out := Rect{
		Min: Point{X: math.Max(r.Min.X, other.Min.X), Y: math.Max(r.Min.Y, other.Min.Y)},
		Max: Point{X: math.Min(r.Max.X, other.Max.X), Y: math.Min(r.Max.Y, other.Max.Y)},
	}
	if out.IsEmpty() {
		return Rect{}
	}
	return out
}

// Contains returns true if the point is inside the rectangle.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Inflate returns the rectangle grown by d on every side.
// Negative d shrinks the rectangle.
func (r Rect) Inflate(d float64) Rect {
	return NewRect(Pt(r.Min.X-d, r.Min.Y-d), Pt(r.Max.X+d, r.Max.Y+d))
}

// Integral returns the smallest integer-aligned rectangle containing r.
func (r Rect) Integral() Rect {
	return Rect{
		Min: Point{X: math.Floor(r.Min.X), Y: math.Floor(r.Min.Y)},
		Max: Point{X: math.Ceil(r.Max.X), Y: math.Ceil(r.Max.Y)},
	}
}

// Transform returns the bounding rectangle of r mapped through m.
func (r Rect) Transform(m Matrix) Rect {
	corners := [4]Point{
		m.Apply(r.Min),
		m.Apply(Pt(r.Max.X, r.Min.Y)),
		m.Apply(r.Max),
		m.Apply(Pt(r.Min.X, r.Max.Y)),
	}
	out := NewRect(corners[0], corners[1])
	out = out.Union(NewRect(corners[2], corners[3]))
	return out
}
