package glass

// BackdropSource supplies the per-frame backdrop captures the optical
// pass refracts. The host implements it over whatever holds the scene
// content already drawn behind the glass.
//
// Capture is called once per group per frame. bounds is the
// device-pixel rectangle to snapshot; transform and scale are the
// requesting group's screen mapping at capture time, so hosts that
// render on demand can align the snapshot. The returned pixmap must
// have exactly the bounds dimensions and is treated as read-only for
// the rest of the frame.
type BackdropSource interface {
	Capture(bounds Rect, transform Matrix, scale float64) (*Pixmap, error)
}

// BackdropFunc adapts a plain function to the BackdropSource interface.
type BackdropFunc func(bounds Rect, transform Matrix, scale float64) (*Pixmap, error)

// Capture implements BackdropSource.
func (f BackdropFunc) Capture(bounds Rect, transform Matrix, scale float64) (*Pixmap, error) {
	return f(bounds, transform, scale)
}

// Compositor drives the frame pipeline for an ordered set of groups:
// capture the backdrop behind each group, paint its glass, and blend
// the result over the destination. Groups render back to front in the
// order they were added; they are otherwise independent.
//
// Failures degrade instead of breaking the frame: when a capture or a
// paint fails, that group is skipped for the frame and the backdrop
// stays visible where its glass would be. The next frame retries
// naturally.
//
// Shapes flagged ContainsChildContent do not change how the glass
// renders; the flag tells the host, via Group.HasChildContent, that it
// must redraw those children above the composited output.
type Compositor struct {
	source BackdropSource
	groups []*Group
	cache  *MatteCache
}

// NewCompositor creates a compositor reading backdrops from source.
func NewCompositor(source BackdropSource, opts ...CompositorOption) *Compositor {
	o := defaultCompositorOptions()
	for _, opt := range opts {
		opt(&o)
	}
	c := &Compositor{source: source}
	if o.matteBudget > 0 {
		c.cache = NewMatteCache(o.matteBudget)
	}
	return c
}

// AddGroup appends a group to the composition order and attaches it to
// the shared matte cache. Adding the same group twice is a no-op.
func (c *Compositor) AddGroup(g *Group) {
	if g == nil {
		return
	}
	for _, have := range c.groups {
		if have == g {
			return
		}
	}
	c.groups = append(c.groups, g)
	if c.cache != nil {
		g.cache = c.cache
		if g.matte != nil {
			c.cache.Put(g.id, g.matte)
			g.matte = nil
		}
	}
}

// RemoveGroup detaches a group from the compositor and drops its
// cached matte. The group itself stays usable standalone.
func (c *Compositor) RemoveGroup(g *Group) {
	for i, have := range c.groups {
		if have == g {
			c.groups = append(c.groups[:i], c.groups[i+1:]...)
			break
		}
	}
	if g != nil && g.cache == c.cache && c.cache != nil {
		c.cache.Invalidate(g.id)
		g.cache = nil
	}
}

// GroupCount returns the number of attached groups.
func (c *Compositor) GroupCount() int { return len(c.groups) }

// CacheStats returns the matte cache statistics. A compositor created
// with a zero budget has no cache and reports zeros.
func (c *Compositor) CacheStats() CacheStats {
	if c.cache == nil {
		return CacheStats{}
	}
	return c.cache.Stats()
}

// Composite renders every attached group for this frame and blends the
// results over dst. dst holds the scene content the glass sits on; a
// BackdropSource reading from dst sees each group's background with
// earlier groups' glass already applied.
func (c *Compositor) Composite(dst *Pixmap) error {
	if dst == nil {
		return configErr("dst", "must not be nil", nil)
	}
	for _, g := range c.groups {
		c.compositeGroup(dst, g)
	}
	return nil
}

// compositeGroup runs one group's frame: capture, paint, blend. Every
// failure path logs and leaves dst untouched for this group.
func (c *Compositor) compositeGroup(dst *Pixmap, g *Group) {
	bounds := g.Bounds()
	if bounds.IsEmpty() {
		return
	}
	bb := g.BackdropBounds()

	captured, err := c.source.Capture(bb, g.Transform(), g.Scale())
	if err != nil {
		Logger().Warn("glass: backdrop capture failed, skipping group this frame",
			"group", g.id, "error", err)
		return
	}
	if captured == nil || captured.Width() != int(bb.Width()) || captured.Height() != int(bb.Height()) {
		Logger().Warn("glass: backdrop capture has wrong dimensions, skipping group this frame",
			"group", g.id)
		return
	}

	out := NewPixmap(int(bounds.Width()), int(bounds.Height()))
	if err := g.Paint(out, captured); err != nil {
		Logger().Warn("glass: paint failed, skipping group this frame",
			"group", g.id, "error", err)
		return
	}

	drawOver(dst, out, int(bounds.Min.X), int(bounds.Min.Y))
}

// drawOver blends src over dst with straight-alpha source-over at the
// given offset. Fully transparent source pixels leave dst untouched;
// the glass interior is opaque and simply replaces.
func drawOver(dst, src *Pixmap, offX, offY int) {
	sd := src.Data()
	dd := dst.Data()
	dw := dst.Width()
	dh := dst.Height()
	sw := src.Width()

	for y := 0; y < src.Height(); y++ {
		dy := offY + y
		if dy < 0 || dy >= dh {
			continue
		}
		for x := 0; x < sw; x++ {
			dx := offX + x
			if dx < 0 || dx >= dw {
				continue
			}
			si := (y*sw + x) * 4
			sa := sd[si+3]
			if sa == 0 {
				continue
			}
			di := (dy*dw + dx) * 4
			if sa == 255 {
				dd[di] = sd[si]
				dd[di+1] = sd[si+1]
				dd[di+2] = sd[si+2]
				dd[di+3] = 255
				continue
			}
			a := uint32(sa)
			ia := 255 - a
			da := uint32(dd[di+3])
			outA := a*255 + da*ia
			if outA == 0 {
				continue
			}
			for ch := 0; ch < 3; ch++ {
				s := uint32(sd[si+ch]) * a * 255
				d := uint32(dd[di+ch]) * da * ia
				dd[di+ch] = uint8((s + d) / outA)
			}
			dd[di+3] = uint8(outA / 255)
		}
	}
}
