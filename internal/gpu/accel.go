//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unsafe"

	"github.com/chewxy/math32"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/glass"
	"github.com/gogpu/glass/internal/shader"
	"github.com/gogpu/glass/sdf"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// baseHeightFactor mirrors the geometry pass: the matte displacement
// quantization range is thickness times this factor. Also hardcoded in
// both WGSL sources.
const baseHeightFactor = 8.0

// gpuTimeout bounds the fence wait per dispatch.
const gpuTimeout = 5 * time.Second

// GlassAccelerator runs both glass render passes as wgpu/hal compute
// shaders. It implements the glass.Accelerator interface.
//
// Each call uploads its inputs, dispatches one compute pass and reads
// the result back synchronously. If GPU initialization failed, every
// call returns glass.ErrFallbackToCPU so rendering stays on the CPU.
type GlassAccelerator struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	geometry *shader.ComputePipeline
	optical  *shader.ComputePipeline

	gpuReady       bool
	externalDevice bool // true when using a shared device (don't destroy on Close)
}

var _ glass.Accelerator = (*GlassAccelerator)(nil)
var _ glass.DeviceProviderAware = (*GlassAccelerator)(nil)

func (a *GlassAccelerator) Name() string { return "glass-gpu" }

// CanAccelerate reports support for both render passes while the GPU is
// up. After a failed init it returns false so callers skip the GPU
// entirely.
func (a *GlassAccelerator) CanAccelerate(op glass.AcceleratedOp) bool {
	a.mu.Lock()
	ready := a.gpuReady
	a.mu.Unlock()
	return ready && op&(glass.AccelGeometryBake|glass.AccelOpticalShade) != 0
}

// Init brings up the GPU device and pipelines. A GPU-less host is not
// an error: the accelerator stays registered and reports itself
// unavailable through CanAccelerate.
func (a *GlassAccelerator) Init() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.initGPU(); err != nil {
		slogger().Warn("glass-gpu: init failed, staying on CPU", "error", err)
	}
	return nil
}

func (a *GlassAccelerator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.destroyPipelines()
	if !a.externalDevice {
		if a.device != nil {
			a.device.Destroy()
			a.device = nil
		}
		if a.instance != nil {
			a.instance.Destroy()
			a.instance = nil
		}
	} else {
		// Shared resources are not ours to destroy.
		a.device = nil
		a.instance = nil
	}
	a.queue = nil
	a.gpuReady = false
	a.externalDevice = false
}

// SetLogger sets the logger for the GPU accelerator package.
// Called by glass.SetLogger to propagate logging configuration.
func (a *GlassAccelerator) SetLogger(l *slog.Logger) {
	setLogger(l)
}

// SetDeviceProvider switches the accelerator to a shared GPU device
// from an external provider (e.g., a gogpu window). The provider must
// implement HalDevice() any and HalQueue() any returning hal.Device and
// hal.Queue.
func (a *GlassAccelerator) SetDeviceProvider(provider any) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return fmt.Errorf("glass-gpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("glass-gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("glass-gpu: provider HalQueue is not hal.Queue")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.destroyPipelines()
	if !a.externalDevice && a.device != nil {
		a.device.Destroy()
	}
	if a.instance != nil {
		a.instance.Destroy()
		a.instance = nil
	}

	a.device = device
	a.queue = queue
	a.externalDevice = true

	if err := a.createPipelines(); err != nil {
		a.gpuReady = false
		return fmt.Errorf("glass-gpu: create pipelines with shared device: %w", err)
	}
	a.gpuReady = true
	slogger().Info("glass-gpu: switched to shared GPU device")
	return nil
}

// BakeMatte runs the geometry pass: shapes in, packed matte texels out.
func (a *GlassAccelerator) BakeMatte(target glass.RenderTarget, field glass.FieldDesc) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.gpuReady {
		return glass.ErrFallbackToCPU
	}
	if len(field.Shapes) == 0 || len(field.Shapes) > sdf.MaxShapes || field.RefractIdx <= 0 {
		return glass.ErrFallbackToCPU
	}
	if err := checkTarget(target); err != nil {
		return fmt.Errorf("glass-gpu: bake target: %w", err)
	}
	return a.dispatchGeometry(target, field)
}

// Shade runs the optical pass: matte plus backdrop in, composited
// pixels out.
func (a *GlassAccelerator) Shade(target glass.RenderTarget, matte, backdrop glass.RenderTarget, desc glass.ShadeDesc) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.gpuReady {
		return glass.ErrFallbackToCPU
	}
	if err := checkTarget(target); err != nil {
		return fmt.Errorf("glass-gpu: shade target: %w", err)
	}
	if err := checkTarget(matte); err != nil {
		return fmt.Errorf("glass-gpu: shade matte: %w", err)
	}
	if err := checkTarget(backdrop); err != nil {
		return fmt.Errorf("glass-gpu: shade backdrop: %w", err)
	}
	if target.Width != matte.Width || target.Height != matte.Height {
		return fmt.Errorf("glass-gpu: target %dx%d does not match matte %dx%d",
			target.Width, target.Height, matte.Width, matte.Height)
	}
	return a.dispatchShade(target, matte, backdrop, desc)
}

func (a *GlassAccelerator) dispatchGeometry(target glass.RenderTarget, field glass.FieldDesc) error {
	w, h := uint32(target.Width), uint32(target.Height)
	pixelBufSize := uint64(w) * uint64(h) * 4

	params := FieldParams{
		TargetWidth:  w,
		TargetHeight: h,
		ShapeCount:   uint32(len(field.Shapes)),
		BlendRadius:  field.BlendRadius,
		Thickness:    field.Thickness,
		Eta:          1 / field.RefractIdx,
	}
	paramsBytes := structToBytes(unsafe.Pointer(&params), unsafe.Sizeof(params))
	shapesBytes := packShapes(field.Shapes)

	uniformBuf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "glass_field_params", Size: uint64(len(paramsBytes)),
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create uniform buffer: %w", err)
	}
	defer a.device.DestroyBuffer(uniformBuf)

	shapesBuf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "glass_shapes", Size: uint64(len(shapesBytes)),
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create shapes buffer: %w", err)
	}
	defer a.device.DestroyBuffer(shapesBuf)

	// The pass writes every texel, so the pixel buffer needs no upload.
	pixelsBuf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "glass_matte_pixels", Size: pixelBufSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create pixel buffer: %w", err)
	}
	defer a.device.DestroyBuffer(pixelsBuf)

	stagingBuf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "glass_matte_staging", Size: pixelBufSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create staging buffer: %w", err)
	}
	defer a.device.DestroyBuffer(stagingBuf)

	a.queue.WriteBuffer(uniformBuf, 0, paramsBytes)
	a.queue.WriteBuffer(shapesBuf, 0, shapesBytes)

	bindGroup, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "glass_geometry_bind", Layout: a.geometry.BindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: uniformBuf.NativeHandle(), Offset: 0, Size: uint64(len(paramsBytes))}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: shapesBuf.NativeHandle(), Offset: 0, Size: uint64(len(shapesBytes))}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: pixelsBuf.NativeHandle(), Offset: 0, Size: pixelBufSize}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	defer a.device.DestroyBindGroup(bindGroup)

	readback, err := a.dispatch("glass_geometry", a.geometry, bindGroup, w, h, pixelsBuf, stagingBuf, pixelBufSize)
	if err != nil {
		return err
	}
	unpackPixels(readback, target)
	return nil
}

func (a *GlassAccelerator) dispatchShade(target glass.RenderTarget, matte, backdrop glass.RenderTarget, desc glass.ShadeDesc) error {
	w, h := uint32(target.Width), uint32(target.Height)
	targetBufSize := uint64(w) * uint64(h) * 4
	matteBytes := packPixels(matte)
	backdropBytes := packPixels(backdrop)

	params := ShadeParams{
		TargetWidth:    w,
		TargetHeight:   h,
		BackdropWidth:  uint32(backdrop.Width),
		BackdropHeight: uint32(backdrop.Height),
		OffsetX:        desc.OffsetX,
		OffsetY:        desc.OffsetY,
		DispRange:      desc.Thickness * baseHeightFactor,
		Thickness:      desc.Thickness,
		TintR:          desc.TintR,
		TintG:          desc.TintG,
		TintB:          desc.TintB,
		TintA:          desc.TintA,
		Chromatic:      desc.Chromatic,
		LightDirX:      math32.Cos(desc.LightAngle),
		LightDirY:      math32.Sin(desc.LightAngle),
		LightIntensity: desc.LightIntensity,
		Ambient:        desc.Ambient,
		Saturation:     desc.Saturation,
	}
	paramsBytes := structToBytes(unsafe.Pointer(&params), unsafe.Sizeof(params))

	uniformBuf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "glass_shade_params", Size: uint64(len(paramsBytes)),
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create uniform buffer: %w", err)
	}
	defer a.device.DestroyBuffer(uniformBuf)

	matteBuf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "glass_matte", Size: uint64(len(matteBytes)),
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create matte buffer: %w", err)
	}
	defer a.device.DestroyBuffer(matteBuf)

	backdropBuf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "glass_backdrop", Size: uint64(len(backdropBytes)),
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create backdrop buffer: %w", err)
	}
	defer a.device.DestroyBuffer(backdropBuf)

	// Every texel is written, no upload needed.
	targetBuf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "glass_shade_pixels", Size: targetBufSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create target buffer: %w", err)
	}
	defer a.device.DestroyBuffer(targetBuf)

	stagingBuf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "glass_shade_staging", Size: targetBufSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create staging buffer: %w", err)
	}
	defer a.device.DestroyBuffer(stagingBuf)

	a.queue.WriteBuffer(uniformBuf, 0, paramsBytes)
	a.queue.WriteBuffer(matteBuf, 0, matteBytes)
	a.queue.WriteBuffer(backdropBuf, 0, backdropBytes)

	bindGroup, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "glass_render_bind", Layout: a.optical.BindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: uniformBuf.NativeHandle(), Offset: 0, Size: uint64(len(paramsBytes))}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: matteBuf.NativeHandle(), Offset: 0, Size: uint64(len(matteBytes))}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: backdropBuf.NativeHandle(), Offset: 0, Size: uint64(len(backdropBytes))}},
			{Binding: 3, Resource: gputypes.BufferBinding{Buffer: targetBuf.NativeHandle(), Offset: 0, Size: targetBufSize}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	defer a.device.DestroyBindGroup(bindGroup)

	readback, err := a.dispatch("glass_render", a.optical, bindGroup, w, h, targetBuf, stagingBuf, targetBufSize)
	if err != nil {
		return err
	}
	unpackPixels(readback, target)
	return nil
}

// dispatch encodes one 8x8-workgroup compute pass over a w by h grid,
// submits it, waits on the fence and reads the result buffer back.
func (a *GlassAccelerator) dispatch(
	label string, pipe *shader.ComputePipeline, bindGroup hal.BindGroup,
	w, h uint32, resultBuf, stagingBuf hal.Buffer, resultSize uint64,
) ([]byte, error) {
	encoder, err := a.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label + "_encoder"})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: label + "_pass"})
	pass.SetPipeline(pipe.Pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.Dispatch((w+7)/8, (h+7)/8, 1)
	pass.End()

	encoder.CopyBufferToBuffer(resultBuf, stagingBuf, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: resultSize},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	defer a.device.FreeCommandBuffer(cmdBuf)

	fence, err := a.device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("create fence: %w", err)
	}
	defer a.device.DestroyFence(fence)
	if err := a.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := a.device.Wait(fence, 1, gpuTimeout)
	if err != nil {
		return nil, fmt.Errorf("wait for gpu: %w", err)
	}
	if !fenceOK {
		return nil, errors.New("wait for gpu: fence timeout")
	}

	readback := make([]byte, resultSize)
	if err := a.queue.ReadBuffer(stagingBuf, 0, readback); err != nil {
		return nil, fmt.Errorf("readback: %w", err)
	}
	return readback, nil
}

func (a *GlassAccelerator) initGPU() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	a.instance = instance
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return fmt.Errorf("no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	a.device = openDev.Device
	a.queue = openDev.Queue
	if err := a.createPipelines(); err != nil {
		a.device.Destroy()
		a.device = nil
		a.queue = nil
		return fmt.Errorf("create pipelines: %w", err)
	}
	a.gpuReady = true
	slogger().Info("glass-gpu: accelerator initialized", "adapter", selected.Info.Name)
	return nil
}

func (a *GlassAccelerator) createPipelines() error {
	geometry, err := shader.NewComputePipeline(a.device, "glass_geometry", geometryShaderSource,
		[]shader.BufferBinding{
			{Binding: 0, Type: gputypes.BufferBindingTypeUniform},
			{Binding: 1, Type: gputypes.BufferBindingTypeReadOnlyStorage},
			{Binding: 2, Type: gputypes.BufferBindingTypeStorage},
		})
	if err != nil {
		return fmt.Errorf("geometry pipeline: %w", err)
	}
	optical, err := shader.NewComputePipeline(a.device, "glass_render", renderShaderSource,
		[]shader.BufferBinding{
			{Binding: 0, Type: gputypes.BufferBindingTypeUniform},
			{Binding: 1, Type: gputypes.BufferBindingTypeReadOnlyStorage},
			{Binding: 2, Type: gputypes.BufferBindingTypeReadOnlyStorage},
			{Binding: 3, Type: gputypes.BufferBindingTypeStorage},
		})
	if err != nil {
		geometry.Destroy(a.device)
		return fmt.Errorf("render pipeline: %w", err)
	}
	a.geometry = geometry
	a.optical = optical
	return nil
}

func (a *GlassAccelerator) destroyPipelines() {
	if a.device == nil {
		return
	}
	if a.geometry != nil {
		a.geometry.Destroy(a.device)
		a.geometry = nil
	}
	if a.optical != nil {
		a.optical.Destroy(a.device)
		a.optical = nil
	}
}

// checkTarget validates that a render target's buffer covers its
// declared dimensions.
func checkTarget(t glass.RenderTarget) error {
	if t.Width <= 0 || t.Height <= 0 {
		return fmt.Errorf("empty target %dx%d", t.Width, t.Height)
	}
	if t.Stride < t.Width*4 {
		return fmt.Errorf("stride %d below row size %d", t.Stride, t.Width*4)
	}
	need := (t.Height-1)*t.Stride + t.Width*4
	if len(t.Data) < need {
		return fmt.Errorf("buffer %d bytes, need %d", len(t.Data), need)
	}
	return nil
}

// packShapes serializes the shape list into the 32-byte records the
// geometry shader indexes.
func packShapes(shapes []glass.FieldShape) []byte {
	recSize := int(unsafe.Sizeof(ShapeRecord{}))
	out := make([]byte, recSize*len(shapes))
	for i, s := range shapes {
		rec := ShapeRecord{
			Kind:         s.Kind,
			CenterX:      s.CenterX,
			CenterY:      s.CenterY,
			HalfW:        s.HalfW,
			HalfH:        s.HalfH,
			CornerRadius: s.CornerRadius,
		}
		src := structToBytes(unsafe.Pointer(&rec), unsafe.Sizeof(rec)) //nolint:gosec // safe struct access
		copy(out[i*recSize:], src)
	}
	return out
}

func structToBytes(ptr unsafe.Pointer, size uintptr) []byte {
	return unsafe.Slice((*byte)(ptr), size) //nolint:gosec // safe struct serialization
}

// packPixels serializes target rows into the tightly packed
// little-endian u32 pixel words the shaders read.
func packPixels(t glass.RenderTarget) []byte {
	out := make([]byte, t.Width*t.Height*4)
	for y := 0; y < t.Height; y++ {
		src := t.Data[y*t.Stride:]
		dst := out[y*t.Width*4:]
		for x := 0; x < t.Width; x++ {
			si := x * 4
			packed := uint32(src[si]) | uint32(src[si+1])<<8 | uint32(src[si+2])<<16 | uint32(src[si+3])<<24
			binary.LittleEndian.PutUint32(dst[x*4:], packed)
		}
	}
	return out
}

// unpackPixels distributes packed u32 pixel words back over the
// target's rows, honoring its stride.
func unpackPixels(packed []byte, t glass.RenderTarget) {
	for y := 0; y < t.Height; y++ {
		src := packed[y*t.Width*4:]
		dst := t.Data[y*t.Stride:]
		for x := 0; x < t.Width; x++ {
			val := binary.LittleEndian.Uint32(src[x*4:])
			di := x * 4
			dst[di] = uint8(val & 0xFF)           //nolint:gosec // masked to 8 bits
			dst[di+1] = uint8((val >> 8) & 0xFF)  //nolint:gosec // masked to 8 bits
			dst[di+2] = uint8((val >> 16) & 0xFF) //nolint:gosec // masked to 8 bits
			dst[di+3] = uint8((val >> 24) & 0xFF) //nolint:gosec // masked to 8 bits
		}
	}
}
