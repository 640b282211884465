//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"unsafe"

	"github.com/gogpu/glass"
)

// A zero-value accelerator stands in for a host without a usable GPU.

func TestCanAccelerateNotReady(t *testing.T) {
	a := &GlassAccelerator{}
	if a.CanAccelerate(glass.AccelGeometryBake) {
		t.Error("CanAccelerate(bake) = true without GPU")
	}
	if a.CanAccelerate(glass.AccelOpticalShade) {
		t.Error("CanAccelerate(shade) = true without GPU")
	}
}

func TestBakeMatteFallsBackWithoutGPU(t *testing.T) {
	a := &GlassAccelerator{}
	target := glass.RenderTarget{Data: make([]uint8, 16), Width: 2, Height: 2, Stride: 8}
	field := glass.FieldDesc{
		Shapes:     []glass.FieldShape{{Kind: 0, CenterX: 1, CenterY: 1, HalfW: 1, HalfH: 1}},
		Thickness:  20,
		RefractIdx: 1.5,
	}
	if err := a.BakeMatte(target, field); !errors.Is(err, glass.ErrFallbackToCPU) {
		t.Fatalf("BakeMatte = %v, want ErrFallbackToCPU", err)
	}
}

func TestShadeFallsBackWithoutGPU(t *testing.T) {
	a := &GlassAccelerator{}
	rt := glass.RenderTarget{Data: make([]uint8, 16), Width: 2, Height: 2, Stride: 8}
	if err := a.Shade(rt, rt, rt, glass.ShadeDesc{}); !errors.Is(err, glass.ErrFallbackToCPU) {
		t.Fatalf("Shade = %v, want ErrFallbackToCPU", err)
	}
}

func TestCheckTarget(t *testing.T) {
	tests := []struct {
		name   string
		target glass.RenderTarget
		ok     bool
	}{
		{"valid", glass.RenderTarget{Data: make([]uint8, 32), Width: 2, Height: 4, Stride: 8}, true},
		{"wide stride", glass.RenderTarget{Data: make([]uint8, 44), Width: 2, Height: 4, Stride: 12}, true},
		{"zero width", glass.RenderTarget{Data: make([]uint8, 32), Width: 0, Height: 4, Stride: 8}, false},
		{"zero height", glass.RenderTarget{Data: make([]uint8, 32), Width: 2, Height: 0, Stride: 8}, false},
		{"narrow stride", glass.RenderTarget{Data: make([]uint8, 32), Width: 2, Height: 4, Stride: 4}, false},
		{"short buffer", glass.RenderTarget{Data: make([]uint8, 31), Width: 2, Height: 4, Stride: 8}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkTarget(tt.target)
			if (err == nil) != tt.ok {
				t.Errorf("checkTarget = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

// packShapes must produce 32-byte little-endian records in field order:
// the geometry shader indexes them by that stride.
func TestPackShapesLayout(t *testing.T) {
	shapes := []glass.FieldShape{
		{Kind: 1, CenterX: 10, CenterY: 20, HalfW: 30, HalfH: 40, CornerRadius: 5},
		{Kind: 2, CenterX: -1, CenterY: 0.5, HalfW: 7, HalfH: 8, CornerRadius: 0},
	}
	packed := packShapes(shapes)

	recSize := int(unsafe.Sizeof(ShapeRecord{}))
	if recSize != 32 {
		t.Fatalf("record size = %d, want 32", recSize)
	}
	if len(packed) != 2*recSize {
		t.Fatalf("packed %d bytes, want %d", len(packed), 2*recSize)
	}

	f32At := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(packed[off:]))
	}
	if got := binary.LittleEndian.Uint32(packed[0:]); got != 1 {
		t.Errorf("shape 0 kind = %d, want 1", got)
	}
	if got := f32At(4); got != 10 {
		t.Errorf("shape 0 center x = %v, want 10", got)
	}
	if got := f32At(20); got != 5 {
		t.Errorf("shape 0 corner radius = %v, want 5", got)
	}
	if got := binary.LittleEndian.Uint32(packed[recSize:]); got != 2 {
		t.Errorf("shape 1 kind = %d, want 2", got)
	}
	if got := f32At(recSize + 4); got != -1 {
		t.Errorf("shape 1 center x = %v, want -1", got)
	}
}

// FieldParams serializes through structToBytes; the scalar offsets must
// line up with the WGSL uniform block.
func TestFieldParamsLayout(t *testing.T) {
	p := FieldParams{
		TargetWidth:  640,
		TargetHeight: 480,
		ShapeCount:   3,
		BlendRadius:  12.5,
		Thickness:    20,
		Eta:          0.66,
	}
	b := structToBytes(unsafe.Pointer(&p), unsafe.Sizeof(p))
	if len(b) != 32 {
		t.Fatalf("params %d bytes, want 32", len(b))
	}
	if got := binary.LittleEndian.Uint32(b[0:]); got != 640 {
		t.Errorf("width = %d, want 640", got)
	}
	if got := binary.LittleEndian.Uint32(b[8:]); got != 3 {
		t.Errorf("shape count = %d, want 3", got)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(b[16:])); got != 12.5 {
		t.Errorf("blend radius = %v, want 12.5", got)
	}
}

func TestPackUnpackPixelsRoundTrip(t *testing.T) {
	const w, h, stride = 3, 2, 16
	data := make([]uint8, h*stride)
	for i := range data {
		data[i] = uint8(i * 7)
	}
	target := glass.RenderTarget{Data: data, Width: w, Height: h, Stride: stride}

	packed := packPixels(target)
	if len(packed) != w*h*4 {
		t.Fatalf("packed %d bytes, want %d", len(packed), w*h*4)
	}

	out := make([]uint8, h*stride)
	for i := range out {
		out[i] = 0xEE
	}
	unpackPixels(packed, glass.RenderTarget{Data: out, Width: w, Height: h, Stride: stride})

	for y := 0; y < h; y++ {
		for x := 0; x < w*4; x++ {
			if out[y*stride+x] != data[y*stride+x] {
				t.Fatalf("pixel byte (%d,%d) = %d, want %d", x, y, out[y*stride+x], data[y*stride+x])
			}
		}
		// Stride padding stays untouched.
		for x := w * 4; x < stride; x++ {
			if out[y*stride+x] != 0xEE {
				t.Fatalf("padding byte (%d,%d) overwritten", x, y)
			}
		}
	}
}

func TestAcceleratorName(t *testing.T) {
	a := &GlassAccelerator{}
	if a.Name() != "glass-gpu" {
		t.Errorf("Name = %q", a.Name())
	}
}
