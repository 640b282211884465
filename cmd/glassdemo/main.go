// Command glassdemo renders liquid glass panels over a backdrop image.
//
// With no flags it composites a builtin scene over a procedural
// backdrop and writes glass.png. Pass -config for a YAML scene,
// -backdrop for a photo, -frames to render a drifting animation.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"
	"math"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/blend"
	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/noise"
	"github.com/anthonynsimon/bild/transform"

	"github.com/gogpu/glass"
)

func main() {
	var (
		width    = flag.Int("width", 960, "image width")
		height   = flag.Int("height", 640, "image height")
		output   = flag.String("output", "glass.png", "output file")
		config   = flag.String("config", "", "YAML scene file (default: builtin scene)")
		backdrop = flag.String("backdrop", "", "backdrop image file (default: procedural)")
		soften   = flag.Float64("soften", 8, "gaussian blur radius applied to the backdrop")
		frames   = flag.Int("frames", 1, "frames to render; groups drift between frames")
	)
	flag.Parse()

	bg, err := loadBackdrop(*backdrop, *width, *height, *soften)
	if err != nil {
		log.Fatalf("Failed to prepare backdrop: %v", err)
	}

	cfg := defaultScene(float64(*width), float64(*height))
	if *config != "" {
		cfg, err = LoadSceneConfig(*config)
		if err != nil {
			log.Fatalf("Failed to load scene: %v", err)
		}
	}

	groups, err := buildGroups(cfg)
	if err != nil {
		log.Fatalf("Failed to build scene: %v", err)
	}
	defer closeGroups(groups)

	comp := glass.NewCompositor(glass.BackdropFunc(
		func(bounds glass.Rect, _ glass.Matrix, _ float64) (*glass.Pixmap, error) {
			return bg.SubPixmap(
				int(bounds.Min.X), int(bounds.Min.Y),
				int(bounds.Width()), int(bounds.Height()),
			), nil
		}))
	for _, g := range groups {
		comp.AddGroup(g)
	}

	for frame := 0; frame < *frames; frame++ {
		if frame > 0 {
			// Drift the groups so the matte cache's reprojection path
			// is visible in the stats.
			phase := 2 * math.Pi * float64(frame) / float64(*frames)
			for _, g := range groups {
				g.SetTransform(glass.Translate(14*math.Sin(phase), 6*math.Cos(phase)))
			}
		}

		dst := bg.Clone()
		if err := comp.Composite(dst); err != nil {
			log.Fatalf("Frame %d: composite failed: %v", frame, err)
		}

		name := *output
		if *frames > 1 {
			name = frameName(*output, frame)
		}
		if err := imgio.Save(name, dst.ToImage(), imgio.PNGEncoder()); err != nil {
			log.Fatalf("Failed to save %s: %v", name, err)
		}
	}

	stats := comp.CacheStats()
	log.Printf("Demo saved to %s (%dx%d), matte cache: %d entries, %.0f%% hits\n",
		*output, *width, *height, stats.Entries, stats.HitRate*100)
}

// loadBackdrop opens and resizes the backdrop file, or generates a
// procedural one, then grades it for glass to refract.
func loadBackdrop(path string, w, h int, soften float64) (*glass.Pixmap, error) {
	var img image.Image
	if path != "" {
		loaded, err := imgio.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open backdrop: %w", err)
		}
		img = transform.Resize(loaded, w, h, transform.Lanczos)
	} else {
		img = proceduralBackdrop(w, h)
	}

	graded := adjust.Saturation(img, 0.15)
	if soften > 0 {
		graded = blur.Gaussian(graded, soften)
	}
	return glass.FromImage(graded), nil
}

// proceduralBackdrop builds a diagonal gradient with scattered bokeh
// disks and a little film grain.
func proceduralBackdrop(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		t := float64(y) / float64(h)
		for x := 0; x < w; x++ {
			s := float64(x) / float64(w)
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(40 + 140*s),
				G: uint8(60 + 90*t),
				B: uint8(150 - 60*s + 70*t),
				A: 255,
			})
		}
	}

	fw, fh := float64(w), float64(h)
	drawDisk(img, fw*0.18, fh*0.25, fw*0.09, color.RGBA{R: 250, G: 180, B: 90, A: 255})
	drawDisk(img, fw*0.55, fh*0.15, fw*0.05, color.RGBA{R: 240, G: 240, B: 250, A: 255})
	drawDisk(img, fw*0.80, fh*0.35, fw*0.12, color.RGBA{R: 90, G: 200, B: 170, A: 255})
	drawDisk(img, fw*0.40, fh*0.75, fw*0.07, color.RGBA{R: 230, G: 110, B: 140, A: 255})
	drawDisk(img, fw*0.88, fh*0.85, fw*0.06, color.RGBA{R: 130, G: 150, B: 250, A: 255})

	grain := noise.Generate(w, h, &noise.Options{NoiseFn: noise.Uniform, Monochrome: true})
	return blend.Opacity(img, grain, 0.05)
}

// drawDisk fills a hard circle; the backdrop blur softens it into a
// bokeh highlight.
func drawDisk(img *image.RGBA, cx, cy, r float64, c color.RGBA) {
	bounds := img.Bounds()
	x0 := max(int(cx-r), bounds.Min.X)
	x1 := min(int(cx+r)+1, bounds.Max.X)
	y0 := max(int(cy-r), bounds.Min.Y)
	y1 := min(int(cy+r)+1, bounds.Max.Y)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			dx := float64(x) + 0.5 - cx
			dy := float64(y) + 0.5 - cy
			if dx*dx+dy*dy <= r*r {
				img.SetRGBA(x, y, c)
			}
		}
	}
}

// frameName inserts the frame index before the extension:
// glass.png -> glass_004.png.
func frameName(output string, frame int) string {
	ext := filepath.Ext(output)
	base := strings.TrimSuffix(output, ext)
	return fmt.Sprintf("%s_%03d%s", base, frame, ext)
}
