// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package glasscanvas

import (
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/glass"
)

// mockProvider implements gpucontext.DeviceProvider for testing. The
// nil device mirrors a CPU-only host, which New must accept.
type mockProvider struct {
	format gputypes.TextureFormat
}

func newMockProvider() *mockProvider {
	return &mockProvider{format: gputypes.TextureFormatBGRA8Unorm}
}

func (m *mockProvider) Device() gpucontext.Device             { return nil }
func (m *mockProvider) Queue() gpucontext.Queue               { return nil }
func (m *mockProvider) Adapter() gpucontext.Adapter           { return nil }
func (m *mockProvider) SurfaceFormat() gputypes.TextureFormat { return m.format }
func (m *mockProvider) AdapterInfo() gpucontext.AdapterInfo   { return gpucontext.AdapterInfo{} }

// testGroup builds a group with one ellipse centered at (30, 30).
func testGroup(t *testing.T) *glass.Group {
	t.Helper()
	g := glass.NewGroup()
	if err := g.Register(1, glass.ShapeDescriptor{
		Kind:   glass.ShapeEllipse,
		Center: glass.Pt(30, 30),
		Size:   glass.V2(28, 20),
	}); err != nil {
		t.Fatal(err)
	}
	return g
}

// TestNew tests canvas creation.
func TestNew(t *testing.T) {
	provider := newMockProvider()

	tests := []struct {
		name      string
		provider  gpucontext.DeviceProvider
		width     int
		height    int
		wantErr   error
		checkFunc func(*testing.T, *Canvas)
	}{
		{
			name:     "valid creation",
			provider: provider,
			width:    800,
			height:   600,
			wantErr:  nil,
			checkFunc: func(t *testing.T, c *Canvas) {
				if c.Width() != 800 {
					t.Errorf("Width() = %d, want 800", c.Width())
				}
				if c.Height() != 600 {
					t.Errorf("Height() = %d, want 600", c.Height())
				}
				if c.Scene() == nil {
					t.Error("Scene() = nil, want non-nil")
				}
				if c.Compositor() == nil {
					t.Error("Compositor() = nil, want non-nil")
				}
				if !c.IsDirty() {
					t.Error("IsDirty() = false, want true (newly created)")
				}
			},
		},
		{
			name:     "nil provider",
			provider: nil,
			width:    800,
			height:   600,
			wantErr:  ErrNilProvider,
		},
		{
			name:     "zero width",
			provider: provider,
			width:    0,
			height:   600,
			wantErr:  ErrInvalidDimensions,
		},
		{
			name:     "negative height",
			provider: provider,
			width:    800,
			height:   -1,
			wantErr:  ErrInvalidDimensions,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.provider, tt.width, tt.height)

			if tt.wantErr != nil {
				if err == nil {
					t.Errorf("New() error = nil, want %v", tt.wantErr)
					return
				}
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("New() error = %v, want %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Errorf("New() unexpected error = %v", err)
				return
			}

			defer c.Close()

			if tt.checkFunc != nil {
				tt.checkFunc(t, c)
			}
		})
	}
}

// TestMustNew tests panic behavior.
func TestMustNew(t *testing.T) {
	provider := newMockProvider()

	t.Run("success", func(t *testing.T) {
		defer func() {
			if r := recover(); r != nil {
				t.Errorf("MustNew() panicked unexpectedly: %v", r)
			}
		}()

		c := MustNew(provider, 100, 100)
		defer c.Close()

		if c == nil {
			t.Error("MustNew() returned nil")
		}
	})

	t.Run("panic on nil provider", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Error("MustNew() did not panic with nil provider")
			}
		}()

		_ = MustNew(nil, 100, 100)
	})
}

// TestCompositorOptions tests option pass-through to the compositor.
func TestCompositorOptions(t *testing.T) {
	provider := newMockProvider()
	c, err := New(provider, 64, 64, glass.WithMatteBudget(1<<20))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer c.Close()

	if got := c.Compositor().CacheStats().MaxSize; got != 1<<20 {
		t.Errorf("CacheStats().MaxSize = %d, want %d", got, 1<<20)
	}
}

// TestCanvasDraw tests scene drawing and dirty tracking.
func TestCanvasDraw(t *testing.T) {
	provider := newMockProvider()
	c, err := New(provider, 64, 64)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer c.Close()

	c.dirty = false
	red := glass.RGBA{R: 1, A: 1}
	if err := c.Draw(func(scene *glass.Pixmap) {
		scene.Clear(red)
	}); err != nil {
		t.Errorf("Draw() error = %v", err)
	}

	if !c.IsDirty() {
		t.Error("IsDirty() after Draw = false, want true")
	}
	if got := c.Scene().GetPixel(10, 10); got != red {
		t.Errorf("Scene pixel = %+v, want %+v", got, red)
	}
}

// TestCanvasResize tests resize functionality.
func TestCanvasResize(t *testing.T) {
	provider := newMockProvider()
	c, err := New(provider, 100, 100)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer c.Close()

	// Verify initial size
	w, h := c.Size()
	if w != 100 || h != 100 {
		t.Errorf("Size() = %dx%d, want 100x100", w, h)
	}

	// Resize
	if err := c.Resize(200, 150); err != nil {
		t.Errorf("Resize() error = %v", err)
	}

	// Verify new size
	w, h = c.Size()
	if w != 200 || h != 150 {
		t.Errorf("Size() after resize = %dx%d, want 200x150", w, h)
	}

	// Verify dirty flag is set
	if !c.IsDirty() {
		t.Error("IsDirty() after resize = false, want true")
	}

	// Resize to same size should be no-op
	c.dirty = false
	if err := c.Resize(200, 150); err != nil {
		t.Errorf("Resize() same size error = %v", err)
	}
	if c.IsDirty() {
		t.Error("IsDirty() after same-size resize = true, want false")
	}

	// Invalid resize
	if err := c.Resize(0, 100); err == nil {
		t.Error("Resize(0, 100) error = nil, want error")
	}
}

// TestCanvasDirtyTracking tests the dirty flag behavior.
func TestCanvasDirtyTracking(t *testing.T) {
	provider := newMockProvider()
	c, err := New(provider, 100, 100)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer c.Close()

	// Newly created should be dirty
	if !c.IsDirty() {
		t.Error("new canvas should be dirty")
	}

	// Manual mark
	c.dirty = false
	c.MarkDirty()
	if !c.IsDirty() {
		t.Error("MarkDirty() should set dirty flag")
	}
}

// TestCanvasFlush tests the flush operation.
func TestCanvasFlush(t *testing.T) {
	provider := newMockProvider()
	c, err := New(provider, 50, 50)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer c.Close()

	// First flush should create pending texture
	tex, err := c.Flush()
	if err != nil {
		t.Errorf("Flush() error = %v", err)
	}
	if tex == nil {
		t.Error("Flush() returned nil texture")
	}

	// Should be pending
	pending, ok := tex.(*pendingTexture)
	if !ok {
		t.Fatal("First flush should return pending texture")
	}
	if pending.width != 50 || pending.height != 50 {
		t.Errorf("Pending texture = %dx%d, want 50x50", pending.width, pending.height)
	}

	// Dirty should be cleared
	if c.IsDirty() {
		t.Error("IsDirty() after flush = true, want false")
	}

	// Second flush without dirty should return same texture
	tex2, err := c.Flush()
	if err != nil {
		t.Errorf("Second Flush() error = %v", err)
	}
	if tex2 != tex {
		t.Error("Second flush should return same texture when not dirty")
	}
}

// TestFlushComposites tests that glass groups render over the scene
// while the scene pixmap stays pristine.
func TestFlushComposites(t *testing.T) {
	provider := newMockProvider()
	c, err := New(provider, 64, 64)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer c.Close()

	g := testGroup(t)
	defer g.Close()
	c.AddGroup(g)

	blue := glass.RGBA{B: 1, A: 1}
	if err := c.Draw(func(scene *glass.Pixmap) {
		scene.Clear(blue)
	}); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}

	tex, err := c.Flush()
	if err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	pending, ok := tex.(*pendingTexture)
	if !ok {
		t.Fatal("expected pending texture")
	}

	// The frame pixel under the shape center must differ from the
	// flat backdrop.
	idx := (30*64 + 30) * 4
	r, gr, b, a := pending.data[idx], pending.data[idx+1], pending.data[idx+2], pending.data[idx+3]
	if r == 0 && gr == 0 && b == 255 && a == 255 {
		t.Error("glass painted nothing over the scene")
	}

	// The scene itself must stay untouched so future captures see the
	// real backdrop, not last frame's output.
	if got := c.Scene().GetPixel(30, 30); got != blue {
		t.Errorf("Scene pixel after flush = %+v, want pristine %+v", got, blue)
	}
}

// TestResizeRecreatesTexture tests that resize produces a new pending
// texture with the new dimensions.
func TestResizeRecreatesTexture(t *testing.T) {
	provider := newMockProvider()
	c, err := New(provider, 100, 100)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer c.Close()

	tex1, err := c.Flush()
	if err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	if err := c.Resize(50, 40); err != nil {
		t.Fatalf("Resize() error = %v", err)
	}

	tex2, err := c.Flush()
	if err != nil {
		t.Fatalf("Flush() after resize error = %v", err)
	}
	if tex2 == tex1 {
		t.Error("Flush() after resize returned the old texture")
	}
	pending, ok := tex2.(*pendingTexture)
	if !ok {
		t.Fatal("expected pending texture after resize")
	}
	if pending.width != 50 || pending.height != 40 {
		t.Errorf("Pending texture = %dx%d, want 50x40", pending.width, pending.height)
	}
}

// TestGroupManagement tests attach and detach.
func TestGroupManagement(t *testing.T) {
	provider := newMockProvider()
	c, err := New(provider, 100, 100)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer c.Close()

	g := testGroup(t)
	defer g.Close()

	c.dirty = false
	c.AddGroup(g)
	if got := c.Compositor().GroupCount(); got != 1 {
		t.Errorf("GroupCount() = %d, want 1", got)
	}
	if !c.IsDirty() {
		t.Error("AddGroup should mark the canvas dirty")
	}

	c.RemoveGroup(g)
	if got := c.Compositor().GroupCount(); got != 0 {
		t.Errorf("GroupCount() after remove = %d, want 0", got)
	}
}

// TestCanvasClose tests cleanup behavior.
func TestCanvasClose(t *testing.T) {
	provider := newMockProvider()
	c, err := New(provider, 100, 100)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Close should succeed
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	// Accessors should return nil after close
	if c.Scene() != nil {
		t.Error("Scene() after close should return nil")
	}
	if c.Compositor() != nil {
		t.Error("Compositor() after close should return nil")
	}
	if c.Provider() != nil {
		t.Error("Provider() after close should return nil")
	}

	// Double close should be safe
	if err := c.Close(); err != nil {
		t.Errorf("Second Close() error = %v", err)
	}

	// Operations on closed canvas should fail
	if err := c.Resize(200, 200); !errors.Is(err, ErrCanvasClosed) {
		t.Errorf("Resize() on closed canvas error = %v, want %v", err, ErrCanvasClosed)
	}

	if _, err := c.Flush(); !errors.Is(err, ErrCanvasClosed) {
		t.Errorf("Flush() on closed canvas error = %v, want %v", err, ErrCanvasClosed)
	}

	if err := c.Draw(func(*glass.Pixmap) {}); !errors.Is(err, ErrCanvasClosed) {
		t.Errorf("Draw() on closed canvas error = %v, want %v", err, ErrCanvasClosed)
	}
}

// TestRenderToErrors tests render error paths that need no drawer.
func TestRenderToErrors(t *testing.T) {
	provider := newMockProvider()
	c, err := New(provider, 100, 100)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := c.RenderTo(nil); !errors.Is(err, ErrInvalidDrawContext) {
		t.Errorf("RenderTo(nil) error = %v, want %v", err, ErrInvalidDrawContext)
	}

	_ = c.Close()
	if err := c.RenderTo(nil); !errors.Is(err, ErrCanvasClosed) {
		t.Errorf("RenderTo() on closed canvas error = %v, want %v", err, ErrCanvasClosed)
	}
}

// TestRenderOptions tests default options.
func TestRenderOptions(t *testing.T) {
	opts := DefaultRenderOptions()

	if opts.X != 0 || opts.Y != 0 {
		t.Errorf("Default position = (%f, %f), want (0, 0)", opts.X, opts.Y)
	}
	if opts.Alpha != 1 {
		t.Errorf("Default alpha = %f, want 1", opts.Alpha)
	}
}
