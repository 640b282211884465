// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package glasscanvas

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/glass"
)

// Common errors returned by Canvas operations.
var (
	// ErrCanvasClosed is returned when operations are attempted on a closed canvas.
	ErrCanvasClosed = errors.New("glasscanvas: canvas is closed")

	// ErrInvalidDimensions is returned when width or height is invalid.
	ErrInvalidDimensions = errors.New("glasscanvas: invalid dimensions")

	// ErrNilProvider is returned when a nil DeviceProvider is passed.
	ErrNilProvider = errors.New("glasscanvas: nil DeviceProvider")
)

// textureDestroyer matches the gogpu.Texture.Destroy signature.
type textureDestroyer interface {
	Destroy()
}

// Canvas composites glass groups over a host-drawn scene and manages
// the CPU-to-GPU upload of the result.
//
// Canvas is NOT safe for concurrent use. Create one Canvas per
// goroutine, or use external synchronization.
type Canvas struct {
	scene       *glass.Pixmap // host-drawn backdrop
	frame       *glass.Pixmap // scene with glass composited, uploaded to GPU
	comp        *glass.Compositor
	provider    gpucontext.DeviceProvider
	texture     any  // lazy-created texture (*gogpu.Texture)
	oldTexture  any  // previous texture awaiting deferred destruction
	dirty       bool // needs composite and GPU upload
	sizeChanged bool // resize pending, texture must be recreated
	width       int
	height      int
	closed      bool
}

// New creates a Canvas for integrated mode. The provider should come
// from gogpu.App.GPUContextProvider(). Compositor options (for example
// glass.WithMatteBudget) pass through to the embedded compositor.
//
// Returns an error if dimensions are invalid or provider is nil.
func New(provider gpucontext.DeviceProvider, width, height int, opts ...glass.CompositorOption) (*Canvas, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, width, height)
	}

	// Share the GPU device with the accelerator if one is registered.
	// Non-fatal: the accelerator may not support device sharing, or the
	// provider may not expose HAL types. The GPU then keeps its own
	// instance.
	_ = glass.SetAcceleratorDeviceProvider(provider)

	c := &Canvas{
		scene:    glass.NewPixmap(width, height),
		frame:    glass.NewPixmap(width, height),
		provider: provider,
		width:    width,
		height:   height,
		dirty:    true, // first Flush must create the texture
	}
	c.comp = glass.NewCompositor(glass.BackdropFunc(c.capture), opts...)
	return c, nil
}

// MustNew is like New but panics on error. Use only when errors are
// programming mistakes (e.g., hardcoded dimensions).
func MustNew(provider gpucontext.DeviceProvider, width, height int, opts ...glass.CompositorOption) *Canvas {
	c, err := New(provider, width, height, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// capture serves the compositor's backdrop requests from the scene
// pixmap. Regions beyond the scene read as transparent.
func (c *Canvas) capture(bounds glass.Rect, _ glass.Matrix, _ float64) (*glass.Pixmap, error) {
	return c.scene.SubPixmap(
		int(bounds.Min.X), int(bounds.Min.Y),
		int(bounds.Width()), int(bounds.Height()),
	), nil
}

// Scene returns the backdrop pixmap the host draws into. Call
// MarkDirty after drawing directly, or use Draw which handles it.
//
// Returns nil if the canvas is closed.
func (c *Canvas) Scene() *glass.Pixmap {
	if c.closed {
		return nil
	}
	return c.scene
}

// Compositor returns the embedded glass compositor, for cache stats or
// direct group management.
func (c *Canvas) Compositor() *glass.Compositor {
	if c.closed {
		return nil
	}
	return c.comp
}

// AddGroup attaches a glass group so it composites over the scene.
func (c *Canvas) AddGroup(g *glass.Group) {
	if c.closed {
		return
	}
	c.comp.AddGroup(g)
	c.dirty = true
}

// RemoveGroup detaches a glass group.
func (c *Canvas) RemoveGroup(g *glass.Group) {
	if c.closed {
		return
	}
	c.comp.RemoveGroup(g)
	c.dirty = true
}

// Width returns the canvas width in pixels.
func (c *Canvas) Width() int {
	return c.width
}

// Height returns the canvas height in pixels.
func (c *Canvas) Height() int {
	return c.height
}

// Size returns width and height as a convenience.
func (c *Canvas) Size() (width, height int) {
	return c.width, c.height
}

// MarkDirty flags the canvas for recomposite and GPU upload on the
// next Flush.
func (c *Canvas) MarkDirty() {
	c.dirty = true
}

// Draw calls fn with the scene pixmap and marks the canvas as dirty.
// This is the recommended way to update the backdrop, as it ensures
// the dirty flag is set for the next Flush/RenderTo.
func (c *Canvas) Draw(fn func(*glass.Pixmap)) error {
	if c.closed {
		return ErrCanvasClosed
	}
	fn(c.scene)
	c.dirty = true
	return nil
}

// IsDirty returns true if the canvas has pending changes that need to
// be composited and uploaded to the GPU.
func (c *Canvas) IsDirty() bool {
	return c.dirty
}

// Resize changes canvas dimensions. This recreates the scene and frame
// pixmaps and clears them; attached groups stay attached.
//
// Returns an error if dimensions are invalid or the canvas is closed.
func (c *Canvas) Resize(width, height int) error {
	if c.closed {
		return ErrCanvasClosed
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, width, height)
	}
	if c.width == width && c.height == height {
		return nil
	}

	c.scene = glass.NewPixmap(width, height)
	c.frame = glass.NewPixmap(width, height)
	c.width = width
	c.height = height
	c.sizeChanged = true
	c.dirty = true
	return nil
}

// Flush composites the glass groups over the scene and uploads the
// frame to the GPU texture if dirty. Returns the texture for manual
// drawing if needed.
//
// The texture is created lazily on first Flush. Subsequent calls only
// recomposite and upload when the dirty flag is set.
func (c *Canvas) Flush() (any, error) {
	if c.closed {
		return nil, ErrCanvasClosed
	}

	// If size changed, defer old texture destruction until after the
	// GPU is idle. The old texture may still be referenced by in-flight
	// command buffers; RenderToEx destroys it after the next upload
	// wait. See the matching logic there.
	if c.sizeChanged {
		if c.texture != nil {
			if c.oldTexture != nil {
				if destroyer, ok := c.oldTexture.(textureDestroyer); ok {
					destroyer.Destroy()
				}
			}
			c.oldTexture = c.texture
			c.texture = nil
		}
		c.sizeChanged = false
	}

	if !c.dirty && c.texture != nil {
		return c.texture, nil
	}

	// Composite into the frame copy so the scene stays a pristine
	// backdrop for the next frame's captures.
	c.frame.CopyFrom(c.scene)
	if err := c.comp.Composite(c.frame); err != nil {
		return nil, fmt.Errorf("glasscanvas: composite failed: %w", err)
	}
	data := c.frame.Data()

	if c.texture == nil {
		c.texture = &pendingTexture{
			width:  c.width,
			height: c.height,
			data:   data,
		}
		c.dirty = false
		return c.texture, nil
	}

	if updater, ok := c.texture.(gpucontext.TextureUpdater); ok {
		if err := updater.UpdateData(data); err != nil {
			return nil, fmt.Errorf("glasscanvas: texture update failed: %w", err)
		}
	}

	c.dirty = false
	return c.texture, nil
}

// Texture returns the current GPU texture without flushing. Returns
// nil if the texture hasn't been created yet.
func (c *Canvas) Texture() any {
	return c.texture
}

// Close releases all resources associated with the Canvas. Attached
// groups are not closed; they belong to the caller. Close is
// idempotent.
func (c *Canvas) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	if c.oldTexture != nil {
		if destroyer, ok := c.oldTexture.(textureDestroyer); ok {
			destroyer.Destroy()
		}
		c.oldTexture = nil
	}
	if c.texture != nil {
		if destroyer, ok := c.texture.(textureDestroyer); ok {
			destroyer.Destroy()
		}
		c.texture = nil
	}

	c.scene = nil
	c.frame = nil
	c.comp = nil
	c.provider = nil
	return nil
}

// pendingTexture is a placeholder for texture creation. It holds the
// frame data until RenderTo has access to a texture creator.
type pendingTexture struct {
	width  int
	height int
	data   []byte
}

// Provider returns the DeviceProvider associated with this canvas.
// Returns nil if the canvas is closed.
func (c *Canvas) Provider() gpucontext.DeviceProvider {
	if c.closed {
		return nil
	}
	return c.provider
}
