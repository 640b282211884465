//go:build !nogpu

// Package shader compiles WGSL compute shaders to SPIR-V and bundles
// the hal pipeline objects built around them.
package shader

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// CompileToSPIRV compiles WGSL source to SPIR-V words. naga validates
// the source as part of compilation, so this doubles as the shader
// sanity check in tests.
func CompileToSPIRV(wgslSource string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("compile shader: %w", err)
	}
	return WordsFromBytes(spirvBytes), nil
}

// WordsFromBytes converts SPIR-V bytes to the uint32 word form the hal
// shader module descriptor takes. SPIR-V words are little-endian.
func WordsFromBytes(spirvBytes []byte) []uint32 {
	code := make([]uint32, len(spirvBytes)/4)
	for i := range code {
		code[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return code
}

// BufferBinding describes one buffer entry of a compute bind group
// layout. All bindings are compute-stage visible.
type BufferBinding struct {
	Binding uint32
	Type    gputypes.BufferBindingType
}

// ComputePipeline bundles one compute pipeline with the layout objects
// it was built from, so teardown can release them in reverse order.
type ComputePipeline struct {
	Module     hal.ShaderModule
	BindLayout hal.BindGroupLayout
	PipeLayout hal.PipelineLayout
	Pipeline   hal.ComputePipeline
}

// NewComputePipeline compiles wgslSource and builds the full pipeline
// chain for a single-bind-group compute pass with entry point "main".
// On error the partially built objects are destroyed before returning.
func NewComputePipeline(device hal.Device, label, wgslSource string, bindings []BufferBinding) (*ComputePipeline, error) {
	code, err := CompileToSPIRV(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}

	p := &ComputePipeline{}
	fail := func(stage string, err error) (*ComputePipeline, error) {
		p.Destroy(device)
		return nil, fmt.Errorf("%s: %s: %w", label, stage, err)
	}

	p.Module, err = device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: code},
	})
	if err != nil {
		return fail("create shader module", err)
	}

	entries := make([]gputypes.BindGroupLayoutEntry, len(bindings))
	for i, b := range bindings {
		entries[i] = gputypes.BindGroupLayoutEntry{
			Binding:    b.Binding,
			Visibility: gputypes.ShaderStageCompute,
			Buffer:     &gputypes.BufferBindingLayout{Type: b.Type},
		}
	}
	p.BindLayout, err = device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   label + "_bind_layout",
		Entries: entries,
	})
	if err != nil {
		return fail("create bind group layout", err)
	}

	p.PipeLayout, err = device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            label + "_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.BindLayout},
	})
	if err != nil {
		return fail("create pipeline layout", err)
	}

	p.Pipeline, err = device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:   label + "_pipeline",
		Layout:  p.PipeLayout,
		Compute: hal.ComputeState{Module: p.Module, EntryPoint: "main"},
	})
	if err != nil {
		return fail("create compute pipeline", err)
	}

	return p, nil
}

// Destroy releases the pipeline objects in reverse creation order.
// Safe on a partially built pipeline: nil members are skipped.
func (p *ComputePipeline) Destroy(device hal.Device) {
	if p == nil || device == nil {
		return
	}
	if p.Pipeline != nil {
		device.DestroyComputePipeline(p.Pipeline)
		p.Pipeline = nil
	}
	if p.PipeLayout != nil {
		device.DestroyPipelineLayout(p.PipeLayout)
		p.PipeLayout = nil
	}
	if p.BindLayout != nil {
		device.DestroyBindGroupLayout(p.BindLayout)
		p.BindLayout = nil
	}
	if p.Module != nil {
		device.DestroyShaderModule(p.Module)
		p.Module = nil
	}
}
