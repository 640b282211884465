package glass

import (
	"errors"
	"sync"
)

// ErrFallbackToCPU indicates the accelerator cannot handle this operation.
// The caller should transparently fall back to CPU rendering.
var ErrFallbackToCPU = errors.New("glass: falling back to CPU rendering")

// AcceleratedOp describes operation types for acceleration capability checks.
type AcceleratedOp uint32

const (
	// AccelGeometryBake represents the matte bake pass.
	AccelGeometryBake AcceleratedOp = 1 << iota

	// AccelOpticalShade represents the optical shading pass.
	AccelOpticalShade
)

// RenderTarget provides pixel buffer access for accelerator output.
// The Data slice is straight (non-premultiplied) RGBA, 4 bytes per pixel,
// laid out row by row with the given Stride.
type RenderTarget struct {
	Data          []uint8
	Width, Height int
	Stride        int // bytes per row
}

// FieldShape is one shape of a group in the accelerator's wire form.
// Coordinates are in matte pixel space.
type FieldShape struct {
	Kind         uint32
	CenterX      float32
	CenterY      float32
	HalfW        float32
	HalfH        float32
	CornerRadius float32
}

// FieldDesc carries everything the geometry bake pass needs.
type FieldDesc struct {
	Shapes      []FieldShape
	BlendRadius float32
	Thickness   float32
	RefractIdx  float32
}

// ShadeDesc carries the optical pass parameters in wire form.
// OffsetX/OffsetY locate the matte origin inside the backdrop target,
// which extends past the matte by the sampling margin.
type ShadeDesc struct {
	TintR, TintG, TintB, TintA float32
	Chromatic                  float32
	LightAngle                 float32
	LightIntensity             float32
	Ambient                    float32
	Saturation                 float32
	Thickness                  float32
	OffsetX, OffsetY           float32
}

// Accelerator is an optional GPU acceleration provider.
//
// When registered via RegisterAccelerator, Group tries GPU acceleration
// first for supported passes. If the accelerator returns ErrFallbackToCPU
// or any error, rendering transparently falls back to CPU.
//
// Implementations are provided by GPU backend packages (glass/gpu).
// Users opt in to GPU acceleration via blank import:
//
//	import _ "github.com/gogpu/glass/gpu" // enables GPU acceleration
type Accelerator interface {
	// Name returns the accelerator name (e.g., "wgpu", "vulkan").
	Name() string

	// Init initializes GPU resources. Called once during registration.
	Init() error

	// Close releases GPU resources.
	Close()

	// CanAccelerate reports whether the accelerator supports the given pass.
	// This is a fast check used to skip the GPU entirely for unsupported work.
	CanAccelerate(op AcceleratedOp) bool

	// BakeMatte runs the geometry pass into target. The target holds the
	// packed matte texels on success.
	// Returns ErrFallbackToCPU if the pass cannot be GPU-accelerated.
	BakeMatte(target RenderTarget, field FieldDesc) error

	// Shade runs the optical pass: matte plus backdrop in, composited
	// pixels out. target and matte share dimensions; the backdrop
	// carries its own size and the matte offset from desc.
	// Returns ErrFallbackToCPU if the pass cannot be GPU-accelerated.
	Shade(target RenderTarget, matte, backdrop RenderTarget, desc ShadeDesc) error
}

// DeviceProviderAware is an optional interface for accelerators that can
// share GPU resources with an external provider (e.g., a host window).
// When SetDeviceProvider is called, the accelerator reuses the provided
// GPU device instead of creating its own.
type DeviceProviderAware interface {
	SetDeviceProvider(provider any) error
}

var (
	accelMu sync.RWMutex
	accel   Accelerator
)

// RegisterAccelerator registers an accelerator for optional GPU rendering.
//
// Only one accelerator can be registered. Subsequent calls replace the
// previous one. The accelerator's Init() method is called during
// registration. If Init() fails, the accelerator is not registered and the
// error is returned.
//
// Typical usage via blank import in GPU backend packages:
//
//	func init() {
//	    glass.RegisterAccelerator(NewWGPUAccelerator())
//	}
func RegisterAccelerator(a Accelerator) error {
	if a == nil {
		return errors.New("glass: accelerator must not be nil")
	}
	if err := a.Init(); err != nil {
		return err
	}
	propagateLogger(a, Logger())
	accelMu.Lock()
	old := accel
	accel = a
	accelMu.Unlock()
	if old != nil {
		old.Close()
	}
	return nil
}

// RegisteredAccelerator returns the current accelerator, or nil if none.
func RegisteredAccelerator() Accelerator {
	accelMu.RLock()
	a := accel
	accelMu.RUnlock()
	return a
}

// CloseAccelerator shuts down and unregisters the current accelerator.
// Hosts sharing a GPU device should call this before destroying the
// device so the accelerator can drain its queue first.
func CloseAccelerator() {
	accelMu.Lock()
	old := accel
	accel = nil
	accelMu.Unlock()
	if old != nil {
		old.Close()
	}
}

// SetAcceleratorDeviceProvider passes a device provider to the registered
// accelerator, enabling GPU device sharing. If no accelerator is
// registered or it doesn't support device sharing, this is a no-op.
//
// The provider should implement HalDevice() any and HalQueue() any methods
// that return wgpu/hal types, or be a gpucontext.DeviceProvider.
func SetAcceleratorDeviceProvider(provider any) error {
	a := RegisteredAccelerator()
	if a == nil {
		return nil
	}
	if dpa, ok := a.(DeviceProviderAware); ok {
		return dpa.SetDeviceProvider(provider)
	}
	return nil
}
