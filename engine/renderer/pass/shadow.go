package pass

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/logger"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/resource"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// ShadowFormat is the texel format of the shadow cube map.
const ShadowFormat = wgpu.TextureFormatR32Float

// ShadowPass renders the linear light distance of every mesh into the six faces
// of a cube map. A texel left at 0 saw no geometry.
type ShadowPass struct {
	queue      *wgpu.Queue
	resolution uint32

	cube  *resource.CubeMap
	depth *resource.Texture

	faceLayout *wgpu.BindGroupLayout
	faces      [resource.CubeFaces]*resource.Buffer[light.GPUShadowFace]
	faceGroups [resource.CubeFaces]bind_group_provider.BindGroupProvider

	pipeline pipeline.Pipeline
}

// ShadowFaceLayoutDescriptor returns the layout of the per-face uniform group.
func ShadowFaceLayoutDescriptor() wgpu.BindGroupLayoutDescriptor {
	return resource.NewLayoutBuilder("Shadow Face Layout").
		Uniform(0, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment).
		MinSize(uint64(light.GPUShadowFace{}.Size())).
		Descriptor()
}

// ShadowFaces packs the per-face uniforms for a light at pos.
func ShadowFaces(pos mgl32.Vec3) [resource.CubeFaces]light.GPUShadowFace {
	var faces [resource.CubeFaces]light.GPUShadowFace
	for i, vp := range light.CubeFaceViewProjections(pos) {
		faces[i] = light.GPUShadowFace{
			ViewProj: vp,
			LightPos: pos,
			Far:      light.ShadowFar,
		}
	}
	return faces
}

// NewShadowPass allocates the cube map and compiles the shadow pipeline.
//
// Parameters:
//   - dev: the device
//   - shaders: the shader library and module cache
//   - resolution: the width and height of every cube face
//
// Returns:
//   - *ShadowPass: the pass
//   - error: a shader or allocation failure
func NewShadowPass(dev *wgpu.Device, shaders pipeline.Shaders, resolution uint32) (*ShadowPass, error) {
	if resolution == 0 {
		resolution = light.DefaultShadowResolution
	}
	s := &ShadowPass{queue: dev.GetQueue(), resolution: resolution}
	if err := s.init(dev, shaders); err != nil {
		s.Release()
		return nil, fmt.Errorf("shadow pass: %w", err)
	}
	logger.Debug("shadow pass created", zap.Uint32("resolution", resolution))
	return s, nil
}

func (s *ShadowPass) init(dev *wgpu.Device, shaders pipeline.Shaders) error {
	var err error
	if s.cube, err = resource.NewCubeMap(dev, "Shadow Cube", s.resolution, ShadowFormat); err != nil {
		return err
	}
	size := common.Size{Width: s.resolution, Height: s.resolution}
	if s.depth, err = resource.NewDepthTexture(dev, "Shadow Depth", size); err != nil {
		return err
	}

	desc := ShadowFaceLayoutDescriptor()
	if s.faceLayout, err = dev.CreateBindGroupLayout(&desc); err != nil {
		return fmt.Errorf("creating face layout: %w", err)
	}
	initial := ShadowFaces(mgl32.Vec3{})
	for i := range s.faces {
		if s.faces[i], err = resource.NewUniformBuffer(dev, fmt.Sprintf("Shadow Face %d", i), initial[i:i+1]); err != nil {
			return err
		}
		s.faceGroups[i] = bind_group_provider.NewBindGroupProvider(fmt.Sprintf("Shadow Face %d Bind Group", i),
			bind_group_provider.WithBindGroupLayout(s.faceLayout),
			bind_group_provider.WithBuffer(0, s.faces[i].Buffer()),
		)
		if err := s.faceGroups[i].Build(dev); err != nil {
			return err
		}
	}

	// the face projection flips Y, which reverses winding, so nothing is culled
	s.pipeline, err = shaders.Create(dev, "shadow.wgsl", pipeline.PipelineTypeRender, nil,
		pipeline.WithBindGroupLayout(0, s.faceLayout, desc),
		pipeline.WithColorTargets(ShadowFormat),
		pipeline.WithDepth(wgpu.TextureFormatDepth32Float, true, wgpu.CompareFunctionLess),
		pipeline.WithCullMode(wgpu.CullModeNone),
	)
	return err
}

// Record uploads the face uniforms for the light and renders the six faces.
//
// Parameters:
//   - encoder: the frame encoder
//   - lightPos: the world-space light position
//   - meshes: the meshes that cast shadows
//
// Returns:
//   - error: an upload failure
func (s *ShadowPass) Record(encoder *wgpu.CommandEncoder, lightPos mgl32.Vec3, meshes []Mesh) error {
	faces := ShadowFaces(lightPos)
	for i := range faces {
		if err := s.faces[i].Upload(s.queue, faces[i:i+1]); err != nil {
			return err
		}
	}

	for i := range resource.CubeFaces {
		rp := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
			ColorAttachments: []wgpu.RenderPassColorAttachment{{
				View:       s.cube.FaceView(i),
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 0},
			}},
			DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
				View:            s.depth.View(),
				DepthLoadOp:     wgpu.LoadOpClear,
				DepthStoreOp:    wgpu.StoreOpDiscard,
				DepthClearValue: 1.0,
			},
		})
		rp.SetPipeline(s.pipeline.RenderPipeline())
		rp.SetBindGroup(0, s.faceGroups[i].BindGroup(), nil)
		drawMeshes(rp, meshes, -1)
		rp.End()
	}
	return nil
}

// CubeMap returns the shadow cube map.
func (s *ShadowPass) CubeMap() *resource.CubeMap {
	return s.cube
}

// Resolution returns the face resolution.
func (s *ShadowPass) Resolution() uint32 {
	return s.resolution
}

func (s *ShadowPass) Release() {
	if s.pipeline != nil {
		s.pipeline.Release()
		s.pipeline = nil
	}
	for i := range s.faces {
		if s.faceGroups[i] != nil {
			s.faceGroups[i].Release()
		}
		if s.faces[i] != nil {
			s.faces[i].Release()
		}
	}
	if s.faceLayout != nil {
		s.faceLayout.Release()
		s.faceLayout = nil
	}
	if s.depth != nil {
		s.depth.Release()
		s.depth = nil
	}
	if s.cube != nil {
		s.cube.Release()
		s.cube = nil
	}
}
