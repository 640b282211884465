//go:build !nogpu

package gpu

import (
	_ "embed"
	"errors"
)

// Embedded WGSL shader sources, compiled to SPIR-V through naga at
// pipeline creation.

//go:embed shaders/glass_geometry.wgsl
var geometryShaderSource string

//go:embed shaders/glass_render.wgsl
var renderShaderSource string

// ValidateShaderSources checks that the embedded WGSL sources are
// present. Returns an error naming the missing shader.
func ValidateShaderSources() error {
	if geometryShaderSource == "" {
		return errors.New("glass geometry shader source is empty")
	}
	if renderShaderSource == "" {
		return errors.New("glass render shader source is empty")
	}
	return nil
}

// GeometryShaderSource returns the WGSL source of the geometry pass.
func GeometryShaderSource() string { return geometryShaderSource }

// RenderShaderSource returns the WGSL source of the optical pass.
func RenderShaderSource() string { return renderShaderSource }

// FieldParams is the uniform buffer of the geometry pass. It matches
// the FieldParams struct in glass_geometry.wgsl field for field.
type FieldParams struct {
	TargetWidth  uint32
	TargetHeight uint32
	ShapeCount   uint32
	Pad0         uint32
	BlendRadius  float32
	Thickness    float32
	Eta          float32 // 1 / refractive index
	Pad1         float32
}

// ShapeRecord is one shape in the geometry pass storage buffer. It
// matches the Shape struct in glass_geometry.wgsl: scalar fields only,
// padded to a 32-byte stride.
type ShapeRecord struct {
	Kind         uint32
	CenterX      float32
	CenterY      float32
	HalfW        float32
	HalfH        float32
	CornerRadius float32
	Pad0         uint32
	Pad1         uint32
}

// ShadeParams is the uniform buffer of the optical pass. It matches
// the ShadeParams struct in glass_render.wgsl; the Tint block sits at
// byte offset 32 so the WGSL vec4 keeps its 16-byte alignment.
type ShadeParams struct {
	TargetWidth    uint32
	TargetHeight   uint32
	BackdropWidth  uint32
	BackdropHeight uint32

	OffsetX   float32
	OffsetY   float32
	DispRange float32
	Thickness float32

	TintR, TintG, TintB, TintA float32

	Chromatic      float32
	LightDirX      float32
	LightDirY      float32
	LightIntensity float32

	Ambient    float32
	Saturation float32
	Pad0       float32
	Pad1       float32
}
