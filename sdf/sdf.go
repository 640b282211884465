// Package sdf implements the signed distance field math of the glass
// pipeline: closed-form primitives, the smooth-union combinator and a
// bounded scene evaluator with a vectorized interface.
//
// Distances follow the usual convention: negative inside, zero on the
// boundary, positive outside. All math is float32.
package sdf

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms2"
)

// epsRadius floors radii so degenerate shapes divide safely.
const epsRadius = 1e-4

// superellipseExponent fixes the corner norm of Superellipse. The general
// Lp variant is not exposed; 2 matches the optimized reference pipeline.
const superellipseExponent = 2

// RoundedRect returns the signed distance from p to a rounded rectangle
// centered at the origin with half extents b and corner radius r. The
// radius is clamped to the smaller half extent.
func RoundedRect(p, b ms2.Vec, r float32) float32 {
	r = math32.Min(r, math32.Min(b.X, b.Y))
	q := ms2.AddScalar(r, ms2.Sub(ms2.AbsElem(p), b))
	return math32.Min(math32.Max(q.X, q.Y), 0) + ms2.Norm(ms2.MaxElem(q, ms2.Vec{})) - r
}

// Ellipse returns the signed distance from p to an axis-aligned ellipse
// centered at the origin with radii r. This is the normalized-radius
// approximation: exact on the axes, slightly conservative elsewhere.
// Radii are floored to a small epsilon so collapsing shapes stay finite.
func Ellipse(p, r ms2.Vec) float32 {
	rx := math32.Max(r.X, epsRadius)
	ry := math32.Max(r.Y, epsRadius)
	k1 := ms2.Norm(ms2.Vec{X: p.X / rx, Y: p.Y / ry})
	k2 := ms2.Norm(ms2.Vec{X: p.X / (rx * rx), Y: p.Y / (ry * ry)})
	if k2 < 1e-12 {
		// Query at the exact center.
		return -math32.Min(rx, ry)
	}
	return k1 * (k1 - 1) / k2
}

// Superellipse returns the signed distance from p to a squircle centered
// at the origin with half extents b and corner radius r. It shares the
// rectangle-inset construction of RoundedRect but combines the corner
// overflow through an Lp norm with the exponent fixed at 2.
func Superellipse(p, b ms2.Vec, r float32) float32 {
	r = math32.Min(r, math32.Min(b.X, b.Y))
	q := ms2.AddScalar(r, ms2.Sub(ms2.AbsElem(p), b))
	v := ms2.MaxElem(q, ms2.Vec{})
	const n = superellipseExponent
	overflow := math32.Pow(math32.Pow(v.X, n)+math32.Pow(v.Y, n), 1.0/n)
	return math32.Min(math32.Max(q.X, q.Y), 0) + overflow - r
}

// SmoothUnion blends two distances with softness k, simulating surface
// tension between nearby shapes. k <= 0 degenerates to the hard union
// min(d1, d2). The result never exceeds min(d1, d2).
func SmoothUnion(d1, d2, k float32) float32 {
	if k <= 0 {
		return math32.Min(d1, d2)
	}
	e := math32.Max(k-math32.Abs(d1-d2), 0)
	return math32.Min(d1, d2) - e*e/(4*k)
}
