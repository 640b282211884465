// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package glasscanvas

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
)

// Rendering errors.
var (
	// ErrInvalidDrawContext is returned when the flushed texture doesn't
	// implement gpucontext.Texture.
	ErrInvalidDrawContext = errors.New("glasscanvas: dc must implement gpucontext.TextureDrawer")

	// ErrInvalidRenderer is returned when the drawer has no
	// gpucontext.TextureCreator.
	ErrInvalidRenderer = errors.New("glasscanvas: renderer must implement gpucontext.TextureCreator")
)

// RenderOptions controls how the canvas is rendered to the target.
type RenderOptions struct {
	// X, Y is the position to draw the texture (default: 0, 0)
	X, Y float32

	// Alpha is the opacity from 0 (transparent) to 1 (opaque) (default: 1)
	Alpha float32
}

// DefaultRenderOptions returns options with sensible defaults.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		X:     0,
		Y:     0,
		Alpha: 1,
	}
}

// RenderTo composites the canvas and draws the result to a
// gpucontext.TextureDrawer. This is the primary integration method.
//
// The dc parameter should be obtained from gogpu.Context.AsTextureDrawer().
// The composited frame is uploaded to the GPU and drawn at (0, 0).
//
// Example:
//
//	app.OnDraw(func(dc *gogpu.Context) {
//	    canvas.RenderTo(dc.AsTextureDrawer())
//	})
func (c *Canvas) RenderTo(dc gpucontext.TextureDrawer) error {
	return c.RenderToEx(dc, DefaultRenderOptions())
}

// RenderToEx draws the canvas with additional options.
func (c *Canvas) RenderToEx(dc gpucontext.TextureDrawer, opts RenderOptions) error {
	if c.closed {
		return ErrCanvasClosed
	}
	if dc == nil {
		return ErrInvalidDrawContext
	}

	tex, err := c.Flush()
	if err != nil {
		return err
	}

	// First render after creation or resize: materialize the real GPU
	// texture through the drawer's creator.
	if pending, isPending := tex.(*pendingTexture); isPending {
		creator := dc.TextureCreator()
		if creator == nil {
			return ErrInvalidRenderer
		}

		// NewTextureFromRGBA calls WriteTexture which waits for the GPU
		// internally, so all prior work referencing the old texture is
		// complete once this returns.
		realTex, err := creator.NewTextureFromRGBA(pending.width, pending.height, pending.data)
		if err != nil {
			return fmt.Errorf("glasscanvas: NewTextureFromRGBA failed: %w", err)
		}

		// Glass frames are straight alpha, so the drawer must use the
		// SrcAlpha blend pipeline rather than the premultiplied one.
		if pt, ok := realTex.(interface{ SetPremultiplied(bool) }); ok {
			pt.SetPremultiplied(false)
		}

		c.texture = realTex
		tex = realTex

		// Now safe to destroy the texture kept alive across the resize.
		if c.oldTexture != nil {
			if destroyer, ok := c.oldTexture.(textureDestroyer); ok {
				destroyer.Destroy()
			}
			c.oldTexture = nil
		}
	}

	gpuTex, ok := tex.(gpucontext.Texture)
	if !ok {
		return ErrInvalidDrawContext
	}

	// Alpha is currently ignored (basic rendering).
	return dc.DrawTexture(gpuTex, opts.X, opts.Y)
}

// RenderToPosition is a convenience method for rendering at a specific
// position.
//
//	canvas.RenderToPosition(dc.AsTextureDrawer(), 100, 50)
func (c *Canvas) RenderToPosition(dc gpucontext.TextureDrawer, x, y float32) error {
	return c.RenderToEx(dc, RenderOptions{
		X:     x,
		Y:     y,
		Alpha: 1,
	})
}
