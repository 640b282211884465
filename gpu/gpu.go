//go:build !nogpu

// Package gpu registers the GPU accelerator for hardware-accelerated
// glass rendering.
//
// Import this package to run the geometry bake and the optical shade as
// wgpu/hal compute shaders. If GPU initialization fails (no
// Vulkan/Metal/DX12 available), the accelerator stays registered but
// inactive and rendering falls back to the CPU.
//
// Usage:
//
//	import _ "github.com/gogpu/glass/gpu" // enable GPU acceleration
package gpu

import (
	"github.com/gogpu/glass"
	gpuimpl "github.com/gogpu/glass/internal/gpu"
)

func init() {
	accel := &gpuimpl.GlassAccelerator{}
	if err := glass.RegisterAccelerator(accel); err != nil {
		glass.Logger().Warn("GPU accelerator not available", "err", err)
	}
}

// SetDeviceProvider configures the GPU accelerator to use a shared GPU
// device from an external provider (e.g., gogpu). This avoids creating
// a separate GPU instance and enables efficient device sharing.
//
// The provider should be a gpucontext.DeviceProvider that also
// implements gpucontext.HalProvider for direct HAL access.
//
// Call this before rendering, typically right after the host window's
// GPU context comes up.
func SetDeviceProvider(provider any) error {
	return glass.SetAcceleratorDeviceProvider(provider)
}
