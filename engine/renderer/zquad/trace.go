package zquad

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/resource"
	"github.com/cogentcore/webgpu/wgpu"
)

// TraceInclude is the virtual include name under which TraceDeclarations is registered.
const TraceInclude = "zquad_bindings.wgsl"

// TraceLayoutDescriptor returns the layout exposing every level to a tracing compute shader.
//
// Parameters:
//   - levels: the number of levels
//
// Returns:
//   - wgpu.BindGroupLayoutDescriptor: one unfilterable 2D texture per level
func TraceLayoutDescriptor(levels int) wgpu.BindGroupLayoutDescriptor {
	b := resource.NewLayoutBuilder("ZQuad Trace Layout")
	for i := range levels {
		b.Texture(uint32(i), wgpu.ShaderStageCompute, wgpu.TextureSampleTypeUnfilterableFloat, wgpu.TextureViewDimension2D)
	}
	return b.Descriptor()
}

// TraceDeclarations generates the WGSL binding block for the trace bind group: one
// texture per level plus zquad_load and zquad_dims helpers that branch on the level,
// and zquad_cell, which maps a pixel to its cell the same way the reduction does.
// Cells outside a level are clamped to its edge; an unknown level loads 0.
//
// Parameters:
//   - group: the @group index the tracing shader binds the quad-tree at
//   - levels: the number of levels
//
// Returns:
//   - string: WGSL source
func TraceDeclarations(group, levels int) string {
	var sb strings.Builder
	sb.WriteString("// Generated depth quad-tree trace bindings.\n")
	for i := range levels {
		fmt.Fprintf(&sb, "@group(%d) @binding(%d) var zquad_level_%d: texture_2d<f32>;\n", group, i, i)
	}
	fmt.Fprintf(&sb, "\nconst ZQUAD_LEVELS: u32 = %du;\n", levels)

	sb.WriteString("\nfn zquad_dims(level: u32) -> vec2<u32> {\n")
	for i := range levels {
		fmt.Fprintf(&sb, "    if (level == %du) { return textureDimensions(zquad_level_%d); }\n", i, i)
	}
	sb.WriteString("    return vec2<u32>(1u, 1u);\n}\n")

	sb.WriteString("\nfn zquad_cell(px: vec2<u32>, image: vec2<u32>, level: u32) -> vec2<i32> {\n")
	sb.WriteString("    let base = zquad_dims(0u);\n")
	sb.WriteString("    let footprint = (image + base - vec2<u32>(1u)) / base;\n")
	sb.WriteString("    let last = zquad_dims(level) - vec2<u32>(1u);\n")
	sb.WriteString("    return vec2<i32>(min((px / footprint) >> vec2<u32>(level), last));\n}\n")

	sb.WriteString("\nfn zquad_load(level: u32, cell: vec2<i32>) -> f32 {\n")
	sb.WriteString("    let last = vec2<i32>(zquad_dims(level)) - vec2<i32>(1);\n")
	sb.WriteString("    let c = clamp(cell, vec2<i32>(0), last);\n")
	for i := range levels {
		fmt.Fprintf(&sb, "    if (level == %du) { return textureLoad(zquad_level_%d, c, 0).r; }\n", i, i)
	}
	sb.WriteString("    return 0.0;\n}\n")
	return sb.String()
}
