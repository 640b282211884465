package glass

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/gogpu/glass/internal/parallel"
)

// groupSerial hands out cache keys for groups.
var groupSerial atomic.Uint64

// Group is one glass region: up to MaxShapes primitives merged into a
// single lens by a smooth union, with shared optical settings and one
// screen transform.
//
// A Group is not safe for concurrent use. The intended model is
// frame-synchronous: mutate between frames, then one Paint per frame.
// Rendering internally fans pixel rows out to a worker pool, but Paint
// itself does not return until the frame is complete.
type Group struct {
	id        uint64
	shapes    []shape
	settings  Settings
	transform Matrix
	scale     float64

	state      cacheState
	matte      *GeometryMatte // live matte when no cache is attached
	cache      *MatteCache    // shared budget, set by a Compositor
	generation uint64

	parallelism int
	pool        *parallel.WorkerPool
}

// NewGroup creates an empty glass group.
func NewGroup(opts ...GroupOption) *Group {
	o := defaultGroupOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Group{
		id:          groupSerial.Add(1),
		settings:    o.settings,
		transform:   o.transform,
		scale:       normalizeScale(o.scale),
		state:       cacheStale,
		parallelism: o.parallelism,
	}
}

func normalizeScale(s float64) float64 {
	if !isFinite(s) || s < 1e-3 {
		return 1
	}
	return s
}

// Close releases the group's worker pool. The group must not be
// painted afterwards.
func (g *Group) Close() {
	if g.pool != nil {
		g.pool.Close()
		g.pool = nil
	}
}

// workers returns the group's lazily started worker pool.
func (g *Group) workers() *parallel.WorkerPool {
	if g.pool == nil {
		n := g.parallelism
		if n <= 0 {
			n = runtime.NumCPU()
		}
		g.pool = parallel.NewWorkerPool(n)
	}
	return g.pool
}

// Register adds a shape under a caller-chosen handle. Registering more
// than MaxShapes shapes or reusing a live handle is a configuration
// error; the group is left unchanged in both cases.
func (g *Group) Register(id ShapeID, desc ShapeDescriptor) error {
	if err := desc.validate(); err != nil {
		return err
	}
	if g.findShape(id) >= 0 {
		return configErr("ShapeID", fmt.Sprintf("shape %d already registered", id), nil)
	}
	if len(g.shapes) >= MaxShapes {
		return configErr("Shapes", fmt.Sprintf("group already holds %d shapes", MaxShapes), ErrTooManyShapes)
	}
	g.shapes = append(g.shapes, shape{id: id, desc: desc})
	g.markLayout()
	return nil
}

// Update replaces the descriptor of a registered shape.
func (g *Group) Update(id ShapeID, desc ShapeDescriptor) error {
	if err := desc.validate(); err != nil {
		return err
	}
	i := g.findShape(id)
	if i < 0 {
		return ErrShapeNotFound
	}
	g.shapes[i].desc = desc
	g.markLayout()
	return nil
}

// Unregister removes a shape. The remaining shapes keep their order.
func (g *Group) Unregister(id ShapeID) error {
	i := g.findShape(id)
	if i < 0 {
		return ErrShapeNotFound
	}
	g.shapes = append(g.shapes[:i], g.shapes[i+1:]...)
	g.markLayout()
	return nil
}

func (g *Group) findShape(id ShapeID) int {
	for i := range g.shapes {
		if g.shapes[i].id == id {
			return i
		}
	}
	return -1
}

// ShapeCount returns the number of registered shapes.
func (g *Group) ShapeCount() int { return len(g.shapes) }

// Shape returns the descriptor registered under id.
func (g *Group) Shape(id ShapeID) (ShapeDescriptor, bool) {
	i := g.findShape(id)
	if i < 0 {
		return ShapeDescriptor{}, false
	}
	return g.shapes[i].desc, true
}

// HasChildContent reports whether any registered shape is flagged as
// containing host-drawn child content. Hosts use this to schedule the
// children's repaint above the glass.
func (g *Group) HasChildContent() bool {
	for i := range g.shapes {
		if g.shapes[i].desc.ContainsChildContent {
			return true
		}
	}
	return false
}

// SetSettings replaces the group's optical settings wholesale. The old
// and new values are diffed to pick the invalidation severity: changes
// to thickness, refractive index or blend radius invalidate the baked
// matte, all other changes only affect the next shading pass.
func (g *Group) SetSettings(s Settings) error {
	if err := s.validate(); err != nil {
		return err
	}
	if s.geometryKey() != g.settings.geometryKey() {
		g.state = cacheStale
	}
	g.settings = s
	return nil
}

// Settings returns the current optical settings.
func (g *Group) Settings() Settings { return g.settings }

// SetTransform replaces the group-to-screen transform. Transform moves
// alone never rebake: pure translations reuse the matte through
// reprojection. Non-finite transforms are ignored.
func (g *Group) SetTransform(m Matrix) {
	if !isFinite(m.A) || !isFinite(m.B) || !isFinite(m.C) ||
		!isFinite(m.D) || !isFinite(m.E) || !isFinite(m.F) {
		Logger().Warn("glass: ignoring non-finite transform")
		return
	}
	if m == g.transform {
		return
	}
	g.transform = m
	g.markLayout()
}

// Transform returns the group-to-screen transform.
func (g *Group) Transform() Matrix { return g.transform }

// SetScale changes the device pixel ratio. The matte is baked in
// device pixels, so a scale change always forces a rebake.
func (g *Group) SetScale(scale float64) {
	scale = normalizeScale(scale)
	if scale == g.scale {
		return
	}
	g.scale = scale
	g.state = cacheStale
}

// Scale returns the device pixel ratio.
func (g *Group) Scale() float64 { return g.scale }

// Generation returns the bake counter. It increments on every matte
// rebake and is stable across reuse and reprojection.
func (g *Group) Generation() uint64 { return g.generation }

// Bounds returns the integral device-pixel rectangle the glass covers
// under the current transform, including the blend inflation and the
// antialiasing apron. Empty when the group has no visible shapes.
func (g *Group) Bounds() Rect {
	key := g.settings.geometryKey()
	return g.matteBounds(buildScene(g.shapes, key.blendRadius))
}

// Paint renders the group into dst using the host-captured backdrop.
//
// dst must have the dimensions of Bounds() and backdrop those of
// BackdropBounds(), both captured for this frame; a Compositor
// guarantees that. Pixels outside every shape come out fully
// transparent, so the host can composite surrounding content
// unaffected.
func (g *Group) Paint(dst *Pixmap, backdrop *Pixmap) error {
	bounds := g.Bounds()
	if bounds.IsEmpty() {
		if dst != nil {
			dst.Clear(Transparent)
		}
		return nil
	}
	if dst == nil || dst.Width() != int(bounds.Width()) || dst.Height() != int(bounds.Height()) {
		return configErr("dst", fmt.Sprintf("size must match Bounds() %gx%g", bounds.Width(), bounds.Height()), nil)
	}
	bb := g.BackdropBounds()
	if backdrop == nil || backdrop.Width() != int(bb.Width()) || backdrop.Height() != int(bb.Height()) {
		return &ResourceError{Op: "paint", Err: fmt.Errorf("backdrop size must match BackdropBounds() %gx%g", bb.Width(), bb.Height())}
	}

	if g.settings.normalized().Thickness <= 0 {
		// No refraction, no lighting: the glass is optically absent.
		passThrough(dst, backdrop, bb, bounds)
		return nil
	}

	// The matte, fresh or reused, covers exactly Bounds(): the shading
	// pass writes every dst pixel, covered or not.
	m := g.ensureMatte()
	prepared := g.prepareBackdrop(backdrop)
	g.shade(dst, m, prepared, bb)
	return nil
}
