package material

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/resource"
	"github.com/cogentcore/webgpu/wgpu"
)

// MaterialGroup is the bind group index the geometry shader reads the material from.
const MaterialGroup = 1

// LayoutDescriptor returns the layout of a per-mesh material bind group: one
// uniform GPUMaterial at binding 0.
func LayoutDescriptor() wgpu.BindGroupLayoutDescriptor {
	return resource.NewLayoutBuilder("Material Layout").
		Uniform(0, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment).
		MinSize(uint64(GPUMaterial{}.Size())).
		Descriptor()
}
