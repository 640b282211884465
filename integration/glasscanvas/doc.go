// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package glasscanvas provides seamless integration between glass
// compositing and gogpu GPU-accelerated windows.
//
// This package enables liquid glass effects in GPU-accelerated windows
// by managing the CPU-to-GPU pipeline automatically. The data flow is:
//
//	scene Pixmap (host draws) -> glass.Compositor -> frame Pixmap -> GPU Texture -> Window
//
// # Architecture
//
// Canvas owns a scene pixmap, a glass compositor, and the texture
// upload pipeline:
//
//   - The host draws its backdrop into the scene pixmap
//   - Attached glass groups composite over a copy of the scene
//   - Flush() uploads the composited frame to a GPU texture
//   - RenderTo() draws the texture to a gogpu window
//
// The scene pixmap stays pristine across frames: compositing happens
// on a separate frame pixmap, so the backdrop the glass refracts is
// never the previous frame's output.
//
// # Usage
//
// Basic usage with gogpu:
//
//	canvas, err := glasscanvas.New(app.GPUContextProvider(), 800, 600)
//	if err != nil { ... }
//	defer canvas.Close()
//
//	group := glass.NewGroup()
//	group.Register(1, glass.ShapeDescriptor{
//	    Kind:         glass.ShapeRoundedRect,
//	    Center:       glass.Pt(140, 100),
//	    Size:         glass.V2(200, 120),
//	    CornerRadius: 24,
//	})
//	canvas.AddGroup(group)
//
//	canvas.Draw(func(scene *glass.Pixmap) {
//	    // draw the backdrop
//	})
//
//	// Render to gogpu window
//	canvas.RenderTo(dc.AsTextureDrawer())
//
// # Thread Safety
//
// Canvas is NOT safe for concurrent use. Create one Canvas per
// goroutine, or use external synchronization.
//
// # Performance Notes
//
//   - Texture is created lazily on first Flush()
//   - Dirty tracking avoids unnecessary composites and GPU uploads
//   - The compositor's matte cache persists across frames, so a static
//     group costs only the optical pass per frame
//
// # Integration Without Circular Imports
//
// This package uses gpucontext interfaces to avoid importing gogpu
// directly:
//
//   - gpucontext.DeviceProvider for device access
//   - gpucontext.TextureDrawer and TextureCreator for upload and draw
//
// This allows glass to provide integration without creating circular
// dependencies.
package glasscanvas
