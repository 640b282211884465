package sdf

import (
	"errors"

	"github.com/soypat/geometry/ms2"
)

// MaxShapes is the hard cap on shapes per scene.
const MaxShapes = 16

// FarDistance is returned by an empty scene: effectively infinite, so
// every pixel reads as outside.
const FarDistance = 1e9

// ErrTooManyShapes is returned by Scene.Add past the MaxShapes cap.
var ErrTooManyShapes = errors.New("sdf: too many shapes in scene")

// Kind selects the primitive formula of a Shape.
type Kind uint8

const (
	KindRoundedRect Kind = iota
	KindEllipse
	KindSuperellipse
)

// Shape is one primitive of a Scene, positioned in evaluation space.
type Shape struct {
	Kind   Kind
	Center ms2.Vec
	Half   ms2.Vec // half extents
	Radius float32 // corner radius for rect-based kinds
}

func (s Shape) distance(p ms2.Vec) float32 {
	q := ms2.Sub(p, s.Center)
	switch s.Kind {
	case KindEllipse:
		return Ellipse(q, s.Half)
	case KindSuperellipse:
		return Superellipse(q, s.Half, s.Radius)
	default:
		return RoundedRect(q, s.Half, s.Radius)
	}
}

func (s Shape) bounds() ms2.Box {
	return ms2.Box{
		Min: ms2.Sub(s.Center, s.Half),
		Max: ms2.Add(s.Center, s.Half),
	}
}

// Field is a 2D signed distance field in vectorized form.
// Scene implements it; so can any composed field.
type Field interface {
	// Evaluate evaluates the field over pos positions. dist and pos must
	// be of the same length. Resulting distances are stored in dist.
	Evaluate(pos []ms2.Vec, dist []float32, userData any) error

	// Bounds returns a box containing the entire negative region.
	Bounds() ms2.Box
}

// Scene is the combined distance field of up to MaxShapes primitives
// joined by a smooth union with one shared blend radius.
//
// The combination is a left fold over the shape list. The polynomial
// smooth minimum is not strictly associative, but reorderings agree
// within float tolerance; callers should still keep a stable order for
// bit-identical rebuilds.
type Scene struct {
	shapes [MaxShapes]Shape
	n      int
	blend  float32
}

// NewScene creates an empty scene with the given blend radius.
// Negative blend radii are treated as zero (hard union).
func NewScene(blend float32) *Scene {
	s := &Scene{}
	s.Reset(blend)
	return s
}

// Reset empties the scene and sets a new blend radius, keeping the
// backing storage.
func (s *Scene) Reset(blend float32) {
	if blend < 0 {
		blend = 0
	}
	s.n = 0
	s.blend = blend
}

// Add appends a shape to the scene. Adding beyond MaxShapes returns
// ErrTooManyShapes and leaves the scene unchanged.
func (s *Scene) Add(sh Shape) error {
	if s.n >= MaxShapes {
		return ErrTooManyShapes
	}
	s.shapes[s.n] = sh
	s.n++
	return nil
}

// Len returns the number of shapes in the scene.
func (s *Scene) Len() int { return s.n }

// Blend returns the smooth-union blend radius.
func (s *Scene) Blend() float32 { return s.blend }

// Distance evaluates the combined field at a single point.
//
// Counts 1 through 4 are unrolled: they cover the dominant real-world
// case and let the compiler keep everything in registers. Larger scenes
// fall back to the bounded loop.
func (s *Scene) Distance(p ms2.Vec) float32 {
	switch s.n {
	case 0:
		return FarDistance
	case 1:
		return s.shapes[0].distance(p)
	case 2:
		return SmoothUnion(s.shapes[0].distance(p), s.shapes[1].distance(p), s.blend)
	case 3:
		d := SmoothUnion(s.shapes[0].distance(p), s.shapes[1].distance(p), s.blend)
		return SmoothUnion(d, s.shapes[2].distance(p), s.blend)
	case 4:
		d := SmoothUnion(s.shapes[0].distance(p), s.shapes[1].distance(p), s.blend)
		d = SmoothUnion(d, s.shapes[2].distance(p), s.blend)
		return SmoothUnion(d, s.shapes[3].distance(p), s.blend)
	}
	d := s.shapes[0].distance(p)
	for i := 1; i < s.n; i++ {
		d = SmoothUnion(d, s.shapes[i].distance(p), s.blend)
	}
	return d
}

// Evaluate evaluates the field over pos positions, storing results in
// dist. It implements Field.
func (s *Scene) Evaluate(pos []ms2.Vec, dist []float32, userData any) error {
	if len(pos) != len(dist) {
		return errors.New("sdf: length of pos must match length of dist")
	}
	for i, p := range pos {
		dist[i] = s.Distance(p)
	}
	return nil
}

// Bounds returns the union of the shape boxes inflated by the blend
// radius. The inflation is required because the smooth union pulls the
// field below zero beyond each shape's own box.
func (s *Scene) Bounds() ms2.Box {
	if s.n == 0 {
		return ms2.Box{}
	}
	bb := s.shapes[0].bounds()
	for i := 1; i < s.n; i++ {
		bb = bb.Union(s.shapes[i].bounds())
	}
	bb.Max = ms2.AddScalar(s.blend, bb.Max)
	bb.Min = ms2.AddScalar(-s.blend, bb.Min)
	return bb
}
