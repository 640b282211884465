//go:build !nogpu

// Package gpu implements the GPU accelerator for the glass pipeline.
//
// Both render passes run as wgpu/hal compute shaders via the gogpu/wgpu
// Pure Go WebGPU implementation (zero CGO), which supports Vulkan,
// Metal, and DX12 backends depending on the platform:
//
//   - Geometry bake: evaluates the smooth-union distance field over the
//     matte rectangle and packs the per-pixel refraction matte
//     (glass_geometry.wgsl).
//   - Optical shade: samples the backdrop through the matte's refraction
//     displacement, applies tint, lighting and saturation, and composites
//     by coverage (glass_render.wgsl).
//
// WGSL sources are compiled to SPIR-V through gogpu/naga at pipeline
// creation. Pixel buffers travel as RGBA8 packed into little-endian u32
// storage words, with a staging buffer readback after each dispatch.
//
// The accelerator registers through glass.RegisterAccelerator; consumers
// enable it with a blank import of the glass/gpu package. If GPU
// initialization fails, every call returns glass.ErrFallbackToCPU and
// rendering stays on the CPU path.
package gpu
