package pipeline

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// Shaders bundles the source library and the module cache a pass compiles against.
type Shaders struct {
	Library shader.Library
	Modules ModuleProvider
}

// Build loads a shader from the library and returns a pipeline running it.
//
// Parameters:
//   - name: root file name in the library
//   - pipelineType: compute or render
//   - defines: preprocessor defines
//   - opts: pipeline options; WithShader is applied automatically
//
// Returns:
//   - Pipeline: the pipeline, not yet built on a device
//   - error: wraps shader.ErrShaderCompile on a load or reflection failure
func (s Shaders) Build(name string, pipelineType PipelineType, defines []shader.Define, opts ...PipelineBuilderOption) (Pipeline, error) {
	st := shader.ShaderTypeCompute
	if pipelineType == PipelineTypeRender {
		st = shader.ShaderTypeRender
	}
	sh, err := s.Library.Build(name, st, defines...)
	if err != nil {
		return nil, fmt.Errorf("building shader %s: %w", name, err)
	}
	return NewPipeline(name, pipelineType, append([]PipelineBuilderOption{WithShader(sh)}, opts...)...), nil
}

// Create builds the pipeline on the device in one step.
func (s Shaders) Create(dev *wgpu.Device, name string, pipelineType PipelineType, defines []shader.Define, opts ...PipelineBuilderOption) (Pipeline, error) {
	p, err := s.Build(name, pipelineType, defines, opts...)
	if err != nil {
		return nil, err
	}
	if err := p.Build(dev, s.Modules); err != nil {
		return nil, err
	}
	return p, nil
}
