package shader

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// typeLayout is the host-shareable size and alignment of a WGSL type.
type typeLayout struct {
	size  uint64
	align uint64
}

// scalarInfo describes a WGSL scalar: its byte size, the vertex formats of its
// 1..4 component vectors and the texture sample type it selects.
type scalarInfo struct {
	size       uint64
	formats    [5]wgpu.VertexFormat
	sampleType wgpu.TextureSampleType
}

var scalars = map[string]scalarInfo{
	"f32":  {4, [5]wgpu.VertexFormat{1: wgpu.VertexFormatFloat32, 2: wgpu.VertexFormatFloat32x2, 3: wgpu.VertexFormatFloat32x3, 4: wgpu.VertexFormatFloat32x4}, wgpu.TextureSampleTypeFloat},
	"i32":  {4, [5]wgpu.VertexFormat{1: wgpu.VertexFormatSint32, 2: wgpu.VertexFormatSint32x2, 3: wgpu.VertexFormatSint32x3, 4: wgpu.VertexFormatSint32x4}, wgpu.TextureSampleTypeSint},
	"u32":  {4, [5]wgpu.VertexFormat{1: wgpu.VertexFormatUint32, 2: wgpu.VertexFormatUint32x2, 3: wgpu.VertexFormatUint32x3, 4: wgpu.VertexFormatUint32x4}, wgpu.TextureSampleTypeUint},
	"f16":  {2, [5]wgpu.VertexFormat{2: wgpu.VertexFormatFloat16x2, 4: wgpu.VertexFormatFloat16x4}, wgpu.TextureSampleTypeFloat},
	"bool": {4, [5]wgpu.VertexFormat{}, wgpu.TextureSampleTypeUndefined},
}

var viewDimensions = map[string]wgpu.TextureViewDimension{
	"1d":         wgpu.TextureViewDimension1D,
	"2d":         wgpu.TextureViewDimension2D,
	"2d_array":   wgpu.TextureViewDimension2DArray,
	"3d":         wgpu.TextureViewDimension3D,
	"cube":       wgpu.TextureViewDimensionCube,
	"cube_array": wgpu.TextureViewDimensionCubeArray,
}

var texelFormats = map[string]wgpu.TextureFormat{
	"rgba8unorm":  wgpu.TextureFormatRGBA8Unorm,
	"rgba8snorm":  wgpu.TextureFormatRGBA8Snorm,
	"rgba8uint":   wgpu.TextureFormatRGBA8Uint,
	"rgba8sint":   wgpu.TextureFormatRGBA8Sint,
	"rgba16uint":  wgpu.TextureFormatRGBA16Uint,
	"rgba16sint":  wgpu.TextureFormatRGBA16Sint,
	"rgba16float": wgpu.TextureFormatRGBA16Float,
	"r32uint":     wgpu.TextureFormatR32Uint,
	"r32sint":     wgpu.TextureFormatR32Sint,
	"r32float":    wgpu.TextureFormatR32Float,
	"rg32uint":    wgpu.TextureFormatRG32Uint,
	"rg32sint":    wgpu.TextureFormatRG32Sint,
	"rg32float":   wgpu.TextureFormatRG32Float,
	"rgba32uint":  wgpu.TextureFormatRGBA32Uint,
	"rgba32sint":  wgpu.TextureFormatRGBA32Sint,
	"rgba32float": wgpu.TextureFormatRGBA32Float,
	"bgra8unorm":  wgpu.TextureFormatBGRA8Unorm,
}

var storageAccess = map[string]wgpu.StorageTextureAccess{
	"write":      wgpu.StorageTextureAccessWriteOnly,
	"read":       wgpu.StorageTextureAccessReadOnly,
	"read_write": wgpu.StorageTextureAccessReadWrite,
}

func roundUp(align, v uint64) uint64 {
	if align == 0 {
		return v
	}
	return (v + align - 1) / align * align
}

// vectorLayout applies the vecN rules: vec3 is sized like three scalars but
// aligned like four.
func vectorLayout(n int, scalar uint64) typeLayout {
	switch n {
	case 2:
		return typeLayout{2 * scalar, 2 * scalar}
	case 3:
		return typeLayout{3 * scalar, 4 * scalar}
	default:
		return typeLayout{4 * scalar, 4 * scalar}
	}
}

// resolveLayout computes the layout of a normalized type name. Runtime-sized
// arrays resolve to one element stride.
func resolveLayout(t string, structs map[string]typeLayout) (typeLayout, bool) {
	if s, ok := scalars[t]; ok {
		return typeLayout{s.size, s.size}, true
	}
	if l, ok := structs[t]; ok {
		return l, true
	}

	base, params := splitTypeParams(t)
	switch {
	case base == "atomic":
		return resolveLayout(params, structs)
	case len(base) == 4 && strings.HasPrefix(base, "vec"):
		s, ok := scalars[params]
		if !ok {
			return typeLayout{}, false
		}
		return vectorLayout(int(base[3]-'0'), s.size), true
	case len(base) == 6 && strings.HasPrefix(base, "mat"):
		s, ok := scalars[params]
		if !ok {
			return typeLayout{}, false
		}
		cols, rows := int(base[3]-'0'), int(base[5]-'0')
		col := vectorLayout(rows, s.size)
		stride := roundUp(col.align, col.size)
		return typeLayout{uint64(cols) * stride, col.align}, true
	case base == "array":
		parts := splitTopLevel(params)
		elem, ok := resolveLayout(parts[0], structs)
		if !ok {
			return typeLayout{}, false
		}
		stride := roundUp(elem.align, elem.size)
		if len(parts) == 1 {
			return typeLayout{stride, elem.align}, true
		}
		count, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			return typeLayout{}, false
		}
		return typeLayout{count * stride, elem.align}, true
	}
	return typeLayout{}, false
}

// structLayouts resolves every struct, repeating until no more can be resolved so
// that declaration order does not matter.
func structLayouts(structs []wgslStruct) map[string]typeLayout {
	known := make(map[string]typeLayout, len(structs))
	pending := append([]wgslStruct(nil), structs...)
	for len(pending) > 0 {
		var next []wgslStruct
		for _, st := range pending {
			if l, ok := structLayout(st, known); ok {
				known[st.name] = l
			} else {
				next = append(next, st)
			}
		}
		if len(next) == len(pending) {
			break
		}
		pending = next
	}
	return known
}

func structLayout(st wgslStruct, known map[string]typeLayout) (typeLayout, bool) {
	var offset uint64
	align := uint64(1)
	for _, f := range st.fields {
		if f.builtin || f.location >= 0 {
			// inter-stage structs have no host layout
			return typeLayout{}, false
		}
		l, ok := resolveLayout(f.typeName, known)
		if !ok {
			return typeLayout{}, false
		}
		offset = roundUp(l.align, offset) + l.size
		align = max(align, l.align)
	}
	return typeLayout{roundUp(align, offset), align}, len(st.fields) > 0
}

func vertexFormat(t string) (wgpu.VertexFormat, uint64, bool) {
	n, scalar := 1, t
	if base, params := splitTypeParams(t); len(base) == 4 && strings.HasPrefix(base, "vec") {
		n, scalar = int(base[3]-'0'), params
	}
	s, ok := scalars[scalar]
	if !ok || n < 1 || n > 4 || s.formats[n] == 0 {
		return 0, 0, false
	}
	return s.formats[n], uint64(n) * s.size, true
}

// classifyBinding builds the layout entry a declaration implies. addressSpace is
// the var<...> qualifier, empty for handle types.
func classifyBinding(binding uint32, visibility wgpu.ShaderStage, addressSpace, t string) wgpu.BindGroupLayoutEntry {
	e := wgpu.BindGroupLayoutEntry{Binding: binding, Visibility: visibility}

	switch {
	case addressSpace == "uniform":
		e.Buffer.Type = wgpu.BufferBindingTypeUniform
		return e
	case strings.HasPrefix(addressSpace, "storage"):
		e.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		if strings.Contains(addressSpace, "read_write") {
			e.Buffer.Type = wgpu.BufferBindingTypeStorage
		}
		return e
	}

	base, params := splitTypeParams(t)
	switch {
	case base == "sampler":
		e.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	case base == "sampler_comparison":
		e.Sampler.Type = wgpu.SamplerBindingTypeComparison
	case strings.HasPrefix(base, "texture_storage_"):
		e.StorageTexture.ViewDimension = viewDimensions[strings.TrimPrefix(base, "texture_storage_")]
		parts := splitTopLevel(params)
		e.StorageTexture.Format = texelFormats[parts[0]]
		if len(parts) > 1 {
			e.StorageTexture.Access = storageAccess[parts[1]]
		}
	case strings.HasPrefix(base, "texture_depth_"):
		dim := strings.TrimPrefix(base, "texture_depth_")
		e.Texture.SampleType = wgpu.TextureSampleTypeDepth
		e.Texture.Multisampled = strings.HasPrefix(dim, "multisampled_")
		e.Texture.ViewDimension = viewDimensions[strings.TrimPrefix(dim, "multisampled_")]
	case strings.HasPrefix(base, "texture_"):
		dim := strings.TrimPrefix(base, "texture_")
		e.Texture.Multisampled = strings.HasPrefix(dim, "multisampled_")
		e.Texture.ViewDimension = viewDimensions[strings.TrimPrefix(dim, "multisampled_")]
		e.Texture.SampleType = scalars[params].sampleType
	}
	return e
}

// compareEntry reports how an explicit entry fails to satisfy a declared one.
func compareEntry(declared, explicit wgpu.BindGroupLayoutEntry) error {
	if explicit.Visibility&declared.Visibility == 0 {
		return fmt.Errorf("not visible to the %v stage", declared.Visibility)
	}

	switch {
	case declared.Buffer.Type != wgpu.BufferBindingTypeUndefined:
		if explicit.Buffer.Type != declared.Buffer.Type {
			return fmt.Errorf("shader declares buffer %v, layout has %v", declared.Buffer.Type, explicit.Buffer.Type)
		}

	case declared.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
		got := explicit.Sampler.Type
		if declared.Sampler.Type == wgpu.SamplerBindingTypeComparison {
			if got != wgpu.SamplerBindingTypeComparison {
				return fmt.Errorf("shader declares sampler_comparison, layout has %v", got)
			}
		} else if got != wgpu.SamplerBindingTypeFiltering && got != wgpu.SamplerBindingTypeNonFiltering {
			return fmt.Errorf("shader declares sampler, layout has %v", got)
		}

	case declared.StorageTexture.Format != 0 || declared.StorageTexture.Access != 0:
		got := explicit.StorageTexture
		if got.Format != declared.StorageTexture.Format || got.Access != declared.StorageTexture.Access ||
			got.ViewDimension != declared.StorageTexture.ViewDimension {
			return fmt.Errorf("storage texture %v/%v/%v does not match layout %v/%v/%v",
				declared.StorageTexture.Format, declared.StorageTexture.Access, declared.StorageTexture.ViewDimension,
				got.Format, got.Access, got.ViewDimension)
		}

	case declared.Texture.SampleType != wgpu.TextureSampleTypeUndefined:
		got := explicit.Texture
		want := declared.Texture.SampleType
		compatible := got.SampleType == want ||
			(want == wgpu.TextureSampleTypeFloat && got.SampleType == wgpu.TextureSampleTypeUnfilterableFloat)
		if !compatible {
			return fmt.Errorf("shader samples %v, layout has %v", want, got.SampleType)
		}
		if got.ViewDimension != declared.Texture.ViewDimension || got.Multisampled != declared.Texture.Multisampled {
			return fmt.Errorf("texture dimension %v does not match layout %v", declared.Texture.ViewDimension, got.ViewDimension)
		}
	}
	return nil
}
