package shader

import (
	"fmt"
	"sort"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType identifies which entry points a shader module provides.
type ShaderType int

const (
	// ShaderTypeCompute indicates a shader containing a @compute entry point.
	ShaderTypeCompute ShaderType = iota

	// ShaderTypeVertex is a module with only a @vertex entry point.
	ShaderTypeVertex

	// ShaderTypeFragment is a module with only a @fragment entry point.
	ShaderTypeFragment

	// ShaderTypeRender is a module with both a @vertex and a @fragment entry point,
	// which is how every raster pass ships its shader.
	ShaderTypeRender
)

func (t ShaderType) String() string {
	switch t {
	case ShaderTypeCompute:
		return "compute"
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	case ShaderTypeRender:
		return "render"
	default:
		return fmt.Sprintf("ShaderType(%d)", int(t))
	}
}

// stages returns the single-stage types a module of this type must expose.
func (t ShaderType) stages() []ShaderType {
	if t == ShaderTypeRender {
		return []ShaderType{ShaderTypeVertex, ShaderTypeFragment}
	}
	return []ShaderType{t}
}

// visibility returns the stage flags applied to reflected bindings.
func (t ShaderType) visibility() wgpu.ShaderStage {
	switch t {
	case ShaderTypeVertex:
		return wgpu.ShaderStageVertex
	case ShaderTypeFragment:
		return wgpu.ShaderStageFragment
	case ShaderTypeRender:
		return wgpu.ShaderStageVertex | wgpu.ShaderStageFragment
	case ShaderTypeCompute:
		return wgpu.ShaderStageCompute
	default:
		return wgpu.ShaderStageNone
	}
}

// shader is the implementation of the Shader interface.
type shader struct {
	key                        string
	source                     string
	shaderType                 ShaderType
	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	bindingVarNames            map[int]map[int]string
	bufferSizes                map[int]map[int]uint64
	vertexLayouts              []wgpu.VertexBufferLayout
	workGroupSize              [3]uint32
	entryPoints                map[ShaderType]string
	module                     *wgpu.ShaderModuleDescriptor
}

// Shader is a preprocessed WGSL source plus the metadata reflected from it:
// entry points, workgroup size, vertex inputs and declared bindings.
type Shader interface {
	// Key retrieves the name the shader was built from.
	Key() string

	// Source retrieves the preprocessed WGSL.
	Source() string

	// ShaderType returns the kind of module.
	ShaderType() ShaderType

	// EntryPoint returns the function name for a single stage, or "" when absent.
	//
	// Parameters:
	//   - stage: ShaderTypeVertex, ShaderTypeFragment or ShaderTypeCompute
	//
	// Returns:
	//   - string: the entry point name
	EntryPoint(stage ShaderType) string

	// WorkgroupSize returns the compute workgroup size. Omitted dimensions are 1.
	WorkgroupSize() [3]uint32

	// VertexLayouts returns one buffer layout per vertex input struct, in source order.
	VertexLayouts() []wgpu.VertexBufferLayout

	// BindGroupLayoutDescriptor returns the reflected descriptor of a group.
	//
	// Parameters:
	//   - group: the @group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: entries sorted by binding, empty if undeclared
	BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor

	// BindGroupLayoutDescriptors returns all reflected descriptors keyed by group.
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName returns the variable declared at group and binding, or "".
	BindGroupVarName(group, binding int) string

	// BufferSize returns the byte size of the struct bound at group and binding,
	// or 0 when the binding is not a buffer of known size.
	BufferSize(group, binding int) uint64

	// CheckLayout compares the bindings this shader declares in a group against
	// an explicit layout. Every declared binding must exist in desc with a
	// compatible resource kind. Extra entries in desc are allowed.
	//
	// Parameters:
	//   - group: the @group index
	//   - desc: the layout the pass will create
	//
	// Returns:
	//   - error: wraps ErrLayoutMismatch naming the first disagreement
	CheckLayout(group int, desc wgpu.BindGroupLayoutDescriptor) error

	// Module returns the module descriptor for device compilation.
	Module() *wgpu.ShaderModuleDescriptor
}

var _ Shader = &shader{}

// NewShader reflects preprocessed WGSL.
//
// Parameters:
//   - key: name used as label and in errors
//   - shaderType: the kind of module, which decides the required entry points
//   - source: preprocessed WGSL
//
// Returns:
//   - Shader: the reflected shader
//   - error: *CompileError when a required entry point is missing
func NewShader(key string, shaderType ShaderType, source string) (Shader, error) {
	s := &shader{
		key:         key,
		source:      source,
		shaderType:  shaderType,
		entryPoints: make(map[ShaderType]string),
		module: &wgpu.ShaderModuleDescriptor{
			Label: key,
			WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
				Code: source,
			},
		},
	}

	for _, stage := range shaderType.stages() {
		ep := parseEntryPoint(source, stage)
		if ep == "" {
			return nil, &CompileError{Name: key, Msg: fmt.Sprintf("no @%s entry point", stage)}
		}
		s.entryPoints[stage] = ep
	}
	if shaderType == ShaderTypeVertex || shaderType == ShaderTypeRender {
		s.vertexLayouts = parseVertexLayouts(source)
	}
	if shaderType == ShaderTypeCompute {
		s.workGroupSize = parseWorkgroupSize(source)
	}
	s.bindGroupLayoutDescriptors, s.bindingVarNames, s.bufferSizes = parseBindGroupLayouts(source, shaderType.visibility())
	return s, nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint(stage ShaderType) string {
	return s.entryPoints[stage]
}

func (s *shader) WorkgroupSize() [3]uint32 {
	return s.workGroupSize
}

func (s *shader) VertexLayouts() []wgpu.VertexBufferLayout {
	return s.vertexLayouts
}

func (s *shader) BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors[group]
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) BindGroupVarName(group, binding int) string {
	return s.bindingVarNames[group][binding]
}

func (s *shader) BufferSize(group, binding int) uint64 {
	return s.bufferSizes[group][binding]
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

func (s *shader) CheckLayout(group int, desc wgpu.BindGroupLayoutDescriptor) error {
	declared := s.bindGroupLayoutDescriptors[group]
	explicit := make(map[uint32]wgpu.BindGroupLayoutEntry, len(desc.Entries))
	for _, e := range desc.Entries {
		explicit[e.Binding] = e
	}

	for _, d := range declared.Entries {
		e, ok := explicit[d.Binding]
		name := s.BindGroupVarName(group, int(d.Binding))
		if !ok {
			return fmt.Errorf("%w: %s @group(%d) @binding(%d) %s missing from layout %q",
				ErrLayoutMismatch, s.key, group, d.Binding, name, desc.Label)
		}
		if err := compareEntry(d, e); err != nil {
			return fmt.Errorf("%w: %s @group(%d) @binding(%d) %s: %s",
				ErrLayoutMismatch, s.key, group, d.Binding, name, err)
		}
		if size := s.BufferSize(group, int(d.Binding)); size > 0 && e.Buffer.MinBindingSize > 0 && e.Buffer.MinBindingSize != size {
			return fmt.Errorf("%w: %s @group(%d) @binding(%d) %s: shader struct is %d bytes, layout says %d",
				ErrLayoutMismatch, s.key, group, d.Binding, name, size, e.Buffer.MinBindingSize)
		}
	}
	return nil
}

// Groups returns the declared group indices in ascending order.
func Groups(s Shader) []int {
	groups := make([]int, 0, len(s.BindGroupLayoutDescriptors()))
	for g := range s.BindGroupLayoutDescriptors() {
		groups = append(groups, g)
	}
	sort.Ints(groups)
	return groups
}
