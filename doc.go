// Package glass renders a liquid glass visual effect for 2D scenes.
//
// # Overview
//
// glass draws one or more shapes (rounded rectangles, ellipses,
// superellipses) that refract, tint and light whatever content sits behind
// them, with optional metaball-style blending between shapes, chromatic
// dispersion and backdrop blur. It is designed to sit inside a retained-mode
// UI host: the host captures the backdrop, glass paints the effect.
//
// # Quick Start
//
//	import "github.com/gogpu/glass"
//
//	g := glass.NewGroup()
//	g.Register(1, glass.ShapeDescriptor{
//	    Kind:         glass.ShapeRoundedRect,
//	    Center:       glass.Pt(200, 150),
//	    Size:         glass.V2(240, 140),
//	    CornerRadius: 32,
//	})
//
//	// backdrop is a Pixmap snapshot of the content behind the group.
//	out := backdrop.Clone()
//	g.Paint(out, backdrop)
//
// # Pipeline
//
// Rendering is split into two passes. The geometry pass evaluates the
// combined signed distance field of the group's shapes and bakes per-pixel
// coverage, surface normal and refraction displacement into an intermediate
// texture, the geometry matte. The optical pass consumes the matte plus the
// backdrop snapshot and produces the final pixels. The matte is cached: a
// group that merely moves under an affine transform reprojects its matte
// instead of re-evaluating the field.
//
// # Architecture
//
//   - Public API: Group, Compositor, ShapeDescriptor, Settings, Pixmap, Matrix
//   - Field math: sdf (primitives, smooth union, scene evaluation)
//   - Internal: image (sampling, warp, blur), parallel (worker pool)
//   - Acceleration: gpu (optional wgpu compute backend, blank import)
//
// # Coordinate System
//
// Uses standard computer graphics coordinates:
//   - Origin (0,0) at top-left
//   - X increases right
//   - Y increases down
//   - Angles in radians
package glass

// Version information
const (
	// Version is the current version of the library
	Version = "0.3.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 3

	// VersionPatch is the patch version
	VersionPatch = 0
)
