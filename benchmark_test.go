package glass

import (
	"testing"

	"github.com/soypat/geometry/ms2"
)

// benchGroup builds a group with two overlapping shapes roughly filling
// a w x h region, painted single-threaded so runs are comparable.
func benchGroup(w, h float64, s Settings) *Group {
	g := NewGroup(WithSettings(s), WithParallelism(1))
	_ = g.Register(1, ShapeDescriptor{
		Kind:   ShapeEllipse,
		Center: Pt(w*0.4, h*0.5),
		Size:   V2(w*0.6, h*0.7),
	})
	_ = g.Register(2, ShapeDescriptor{
		Kind:         ShapeRoundedRect,
		Center:       Pt(w*0.65, h*0.5),
		Size:         V2(w*0.5, h*0.5),
		CornerRadius: h * 0.1,
	})
	return g
}

// BenchmarkBakeMatte benchmarks the geometry pass at various glass sizes.
func BenchmarkBakeMatte(b *testing.B) {
	sizes := []struct {
		name   string
		width  float64
		height float64
	}{
		{"64x48", 64, 48},
		{"128x96", 128, 96},
		{"256x192", 256, 192},
		{"512x384", 512, 384},
	}

	for _, size := range sizes {
		b.Run(size.name, func(b *testing.B) {
			g := benchGroup(size.width, size.height, DefaultSettings())
			defer g.Close()

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				g.state = cacheStale
				if m := g.ensureMatte(); m == nil {
					b.Fatal("bake produced no matte")
				}
			}
			bounds := g.Bounds()
			b.SetBytes(int64(bounds.Width()) * int64(bounds.Height()) * 4)
		})
	}
}

// BenchmarkPaint benchmarks the optical pass over a warm matte, which is
// the steady-state per-frame cost.
func BenchmarkPaint(b *testing.B) {
	sizes := []struct {
		name   string
		width  float64
		height float64
	}{
		{"64x48", 64, 48},
		{"256x192", 256, 192},
		{"512x384", 512, 384},
	}

	for _, size := range sizes {
		b.Run(size.name, func(b *testing.B) {
			g := benchGroup(size.width, size.height, DefaultSettings())
			defer g.Close()

			bounds := g.Bounds()
			dst := NewPixmap(int(bounds.Width()), int(bounds.Height()))
			backdrop := rampBackdrop(g.BackdropBounds())
			// Warm the matte so the loop measures shading alone.
			if err := g.Paint(dst, backdrop); err != nil {
				b.Fatal(err)
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := g.Paint(dst, backdrop); err != nil {
					b.Fatal(err)
				}
			}
			b.SetBytes(int64(bounds.Width()) * int64(bounds.Height()) * 4)
		})
	}
}

// BenchmarkPaintEffects compares the shading cost of the optional
// optical terms at one size.
func BenchmarkPaintEffects(b *testing.B) {
	plain := DefaultSettings()
	plain.LightIntensity = 0
	plain.Ambient = 0

	dispersion := plain
	dispersion.ChromaticAberration = 0.8

	tinted := plain
	tinted.Tint = RGBA{R: 0.9, G: 0.95, B: 1, A: 0.4}

	lit := DefaultSettings()

	variants := []struct {
		name     string
		settings Settings
	}{
		{"refraction_only", plain},
		{"dispersion", dispersion},
		{"tinted", tinted},
		{"lit", lit},
	}

	for _, v := range variants {
		b.Run(v.name, func(b *testing.B) {
			g := benchGroup(256, 192, v.settings)
			defer g.Close()

			bounds := g.Bounds()
			dst := NewPixmap(int(bounds.Width()), int(bounds.Height()))
			backdrop := rampBackdrop(g.BackdropBounds())
			if err := g.Paint(dst, backdrop); err != nil {
				b.Fatal(err)
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := g.Paint(dst, backdrop); err != nil {
					b.Fatal(err)
				}
			}
			b.SetBytes(int64(bounds.Width()) * int64(bounds.Height()) * 4)
		})
	}
}

// BenchmarkReprojectMatte benchmarks matte relocation against the rebake
// it replaces. An integer shift aliases the baked pixels, a subpixel
// shift pays one bilinear warp.
func BenchmarkReprojectMatte(b *testing.B) {
	shifts := []struct {
		name string
		dx   float64
	}{
		{"integer", 3},
		{"subpixel", 2.5},
	}

	for _, shift := range shifts {
		b.Run(shift.name, func(b *testing.B) {
			g := benchGroup(256, 192, DefaultSettings())
			defer g.Close()

			old := g.ensureMatte()
			if old == nil {
				b.Fatal("bake produced no matte")
			}
			g.SetTransform(Translate(shift.dx, 0))

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				nm, ok := g.reprojectMatte(old)
				if !ok || nm == nil {
					b.Fatal("reprojection rejected a pure translation")
				}
			}
			bounds := g.Bounds()
			b.SetBytes(int64(bounds.Width()) * int64(bounds.Height()) * 4)
		})
	}
}

// BenchmarkSceneDistance benchmarks the smooth-union field evaluation
// that dominates the bake inner loop.
func BenchmarkSceneDistance(b *testing.B) {
	counts := []struct {
		name   string
		shapes int
	}{
		{"1shape", 1},
		{"4shapes", 4},
		{"16shapes", 16},
	}

	for _, count := range counts {
		b.Run(count.name, func(b *testing.B) {
			g := NewGroup()
			defer g.Close()
			for i := 0; i < count.shapes; i++ {
				if err := g.Register(ShapeID(i), ShapeDescriptor{
					Kind:   ShapeEllipse,
					Center: Pt(float64(i%4)*40+20, float64(i/4)*40+20),
					Size:   V2(36, 28),
				}); err != nil {
					b.Fatal(err)
				}
			}
			scene := buildScene(g.shapes, 8)

			probes := make([]ms2.Vec, 64)
			for i := range probes {
				probes[i] = ms2.Vec{X: float32(i) * 2.5, Y: 40}
			}

			var sink float32
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				sink += scene.Distance(probes[i&63])
			}
			_ = sink
		})
	}
}

// BenchmarkPackDisp benchmarks the matte displacement codec.
func BenchmarkPackDisp(b *testing.B) {
	b.ReportAllocs()
	var sink uint8
	for i := 0; i < b.N; i++ {
		sink += packDisp(float64(i%320)-160, 160)
	}
	_ = sink
}

// BenchmarkComposite benchmarks a full cached frame: capture, shade and
// blit for one group over a static scene.
func BenchmarkComposite(b *testing.B) {
	backdrop := NewPixmap(512, 384)
	for y := 0; y < 384; y++ {
		for x := 0; x < 512; x++ {
			backdrop.SetPixel(x, y, RGBA{R: float64(x) / 512, G: float64(y) / 384, B: 0.5, A: 1})
		}
	}
	src := BackdropFunc(func(bounds Rect, _ Matrix, _ float64) (*Pixmap, error) {
		return backdrop.SubPixmap(int(bounds.Min.X), int(bounds.Min.Y), int(bounds.Width()), int(bounds.Height())), nil
	})

	c := NewCompositor(src)
	g := benchGroup(200, 150, DefaultSettings())
	defer g.Close()
	g.SetTransform(Translate(80, 60))
	c.AddGroup(g)

	dst := NewPixmap(512, 384)
	if err := c.Composite(dst); err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := c.Composite(dst); err != nil {
			b.Fatal(err)
		}
	}
	b.SetBytes(512 * 384 * 4)
}
