package zquad

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/logger"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gbuffer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/resource"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// Format is the texel format of every level.
const Format = wgpu.TextureFormatR32Float

// WorkgroupSize is the edge length of the reduction workgroups.
const WorkgroupSize = 16

// newLevelTexture allocates one level. Tests replace it to fail an allocation.
var newLevelTexture = resource.NewStorageTexture

// level holds the GPU state of one quad-tree level.
type level struct {
	size     common.Size
	texture  *resource.Texture
	params   *resource.Buffer[GPUParams]
	provider bind_group_provider.BindGroupProvider
}

// QuadTree is a min-depth pyramid built from the G-buffer depth every frame. Level 0
// reduces the depth buffer over a footprint; each further level reduces the previous
// one 2x2. A tracing shader reads all levels through the trace bind group.
type QuadTree struct {
	dev    *wgpu.Device
	queue  *wgpu.Queue
	levels []level
	image  common.Size
	count  int

	// boundDepth is the depth texture level 0 currently reads.
	boundDepth *resource.Texture

	level0Layout, levelNLayout *wgpu.BindGroupLayout
	level0, levelN             pipeline.Pipeline

	traceLayout     *wgpu.BindGroupLayout
	traceLayoutDesc wgpu.BindGroupLayoutDescriptor
	trace           bind_group_provider.BindGroupProvider
}

// level0LayoutDescriptor describes the depth input, output level and params of level 0.
func level0LayoutDescriptor() wgpu.BindGroupLayoutDescriptor {
	return resource.NewLayoutBuilder("ZQuad Level0 Layout").
		DepthTexture(0, wgpu.ShaderStageCompute).
		StorageTexture(1, wgpu.ShaderStageCompute, wgpu.StorageTextureAccessWriteOnly, Format, wgpu.TextureViewDimension2D).
		Uniform(2, wgpu.ShaderStageCompute).MinSize(uint64(GPUParams{}.Size())).
		Descriptor()
}

// levelNLayoutDescriptor describes the previous level input, output level and params.
func levelNLayoutDescriptor() wgpu.BindGroupLayoutDescriptor {
	return resource.NewLayoutBuilder("ZQuad LevelN Layout").
		Texture(0, wgpu.ShaderStageCompute, wgpu.TextureSampleTypeUnfilterableFloat, wgpu.TextureViewDimension2D).
		StorageTexture(1, wgpu.ShaderStageCompute, wgpu.StorageTextureAccessWriteOnly, Format, wgpu.TextureViewDimension2D).
		Uniform(2, wgpu.ShaderStageCompute).MinSize(uint64(GPUParams{}.Size())).
		Descriptor()
}

// New compiles the reduction pipelines and allocates the levels for an image size.
//
// Parameters:
//   - dev: the device
//   - shaders: the shader library and module cache
//   - size: the depth buffer size
//   - levels: number of levels, or <= 0 for a full chain down to 1x1
//
// Returns:
//   - *QuadTree: the quad-tree
//   - error: a shader or allocation failure
func New(dev *wgpu.Device, shaders pipeline.Shaders, size common.Size, levels int) (*QuadTree, error) {
	q := &QuadTree{
		dev:   dev,
		queue: dev.GetQueue(),
		count: levels,
	}
	if err := q.createPipelines(dev, shaders); err != nil {
		q.Release()
		return nil, err
	}
	if err := q.Resize(dev, size); err != nil {
		q.Release()
		return nil, err
	}
	return q, nil
}

func (q *QuadTree) createPipelines(dev *wgpu.Device, shaders pipeline.Shaders) error {
	l0Desc := level0LayoutDescriptor()
	lnDesc := levelNLayoutDescriptor()
	var err error
	if q.level0Layout, err = dev.CreateBindGroupLayout(&l0Desc); err != nil {
		return fmt.Errorf("creating zquad level0 layout: %w", err)
	}
	if q.levelNLayout, err = dev.CreateBindGroupLayout(&lnDesc); err != nil {
		return fmt.Errorf("creating zquad levelN layout: %w", err)
	}
	q.level0, err = shaders.Create(dev, "zquad_level0.wgsl", pipeline.PipelineTypeCompute, nil,
		pipeline.WithBindGroupLayout(0, q.level0Layout, l0Desc))
	if err != nil {
		return fmt.Errorf("zquad level0: %w", err)
	}
	q.levelN, err = shaders.Create(dev, "zquad_levelN.wgsl", pipeline.PipelineTypeCompute, nil,
		pipeline.WithBindGroupLayout(0, q.levelNLayout, lnDesc))
	if err != nil {
		return fmt.Errorf("zquad levelN: %w", err)
	}
	return nil
}

// Resize rebuilds the level textures and bind groups for a new image size. The
// pipelines are kept. Resizing to the current size does nothing. A failed resize
// leaves the quad-tree empty, so the next Resize rebuilds it and Record refuses to run.
//
// Parameters:
//   - dev: the device
//   - size: the new depth buffer size
//
// Returns:
//   - error: an allocation failure
func (q *QuadTree) Resize(dev *wgpu.Device, size common.Size) error {
	if size == q.image && q.levels != nil {
		return nil
	}
	sizes := LevelSizes(size, q.count)

	// the trace layout depends only on the level count, which may change with size
	if q.traceLayout == nil || len(q.traceLayoutDesc.Entries) != len(sizes) {
		if q.traceLayout != nil {
			q.traceLayout.Release()
		}
		q.traceLayoutDesc = TraceLayoutDescriptor(len(sizes))
		var err error
		if q.traceLayout, err = dev.CreateBindGroupLayout(&q.traceLayoutDesc); err != nil {
			q.traceLayout = nil
			return fmt.Errorf("creating zquad trace layout: %w", err)
		}
	}

	q.releaseLevels()
	q.image = common.Size{}
	if err := q.buildLevels(dev, size, sizes); err != nil {
		q.releaseLevels()
		return err
	}
	q.image = size

	logger.Debug("zquad resized",
		zap.Uint32("width", size.Width),
		zap.Uint32("height", size.Height),
		zap.Int("levels", len(q.levels)),
	)
	return nil
}

// buildLevels allocates the level textures, their params and the bind groups that do
// not depend on the depth texture. On error the caller releases what was built.
func (q *QuadTree) buildLevels(dev *wgpu.Device, size common.Size, sizes []common.Size) error {
	q.boundDepth = nil
	for i, s := range sizes {
		tex, err := newLevelTexture(dev, fmt.Sprintf("ZQuad Level %d", i), s, Format)
		if err != nil {
			return fmt.Errorf("creating zquad level %d: %w", i, err)
		}
		params, err := resource.NewUniformBuffer(dev, fmt.Sprintf("ZQuad Params %d", i), []GPUParams{NewGPUParams(size, s, i)})
		if err != nil {
			tex.Release()
			return fmt.Errorf("creating zquad params %d: %w", i, err)
		}
		q.levels = append(q.levels, level{size: s, texture: tex, params: params})
	}

	// levels 1..N read their predecessor, which never changes until the next resize
	for i := 1; i < len(q.levels); i++ {
		p := bind_group_provider.NewBindGroupProvider(fmt.Sprintf("ZQuad Level %d Bind Group", i),
			bind_group_provider.WithBindGroupLayout(q.levelNLayout),
			bind_group_provider.WithTextureView(0, q.levels[i-1].texture.View()),
			bind_group_provider.WithTextureView(1, q.levels[i].texture.View()),
			bind_group_provider.WithBuffer(2, q.levels[i].params.Buffer()),
		)
		if err := p.Build(dev); err != nil {
			return err
		}
		q.levels[i].provider = p
	}

	q.trace = bind_group_provider.NewBindGroupProvider("ZQuad Trace Bind Group",
		bind_group_provider.WithBindGroupLayout(q.traceLayout))
	for i, l := range q.levels {
		q.trace.SetTextureView(i, l.texture.View())
	}
	return q.trace.Build(dev)
}

// bindDepth (re)creates the level-0 bind group when the depth texture changed.
func (q *QuadTree) bindDepth(depth *resource.Texture) error {
	if depth == q.boundDepth && q.levels[0].provider != nil {
		return nil
	}
	if q.levels[0].provider != nil {
		q.levels[0].provider.Release()
	}
	p := bind_group_provider.NewBindGroupProvider("ZQuad Level 0 Bind Group",
		bind_group_provider.WithBindGroupLayout(q.level0Layout),
		bind_group_provider.WithTextureView(0, depth.View()),
		bind_group_provider.WithTextureView(1, q.levels[0].texture.View()),
		bind_group_provider.WithBuffer(2, q.levels[0].params.Buffer()),
	)
	if err := p.Build(q.dev); err != nil {
		return err
	}
	q.levels[0].provider = p
	q.boundDepth = depth
	return nil
}

// Record dispatches the reduction of every level, finest first, into one compute pass.
// Each dispatch reads the level written by the one before it.
//
// Parameters:
//   - gb: the G-buffer whose depth is reduced
//   - encoder: the frame encoder
//
// Returns:
//   - error: an empty quad-tree, a size disagreement with the G-buffer or a bind group failure
func (q *QuadTree) Record(gb *gbuffer.GBuffer, encoder *wgpu.CommandEncoder) error {
	if len(q.levels) == 0 {
		return fmt.Errorf("zquad has no levels, the last resize failed")
	}
	if gb.Size() != q.image {
		return fmt.Errorf("zquad built for %dx%d, gbuffer is %dx%d",
			q.image.Width, q.image.Height, gb.Size().Width, gb.Size().Height)
	}
	if err := q.bindDepth(gb.Depth()); err != nil {
		return err
	}

	pass := encoder.BeginComputePass(nil)
	for i, l := range q.levels {
		p := q.levelN
		if i == 0 {
			p = q.level0
		}
		pass.SetPipeline(p.ComputePipeline())
		pass.SetBindGroup(0, l.provider.BindGroup(), nil)
		pass.DispatchWorkgroups(common.CeilDiv(l.size.Width, WorkgroupSize), common.CeilDiv(l.size.Height, WorkgroupSize), 1)
	}
	pass.End()
	return nil
}

// Levels returns the number of levels.
func (q *QuadTree) Levels() int {
	return len(q.levels)
}

// LevelSize returns the size of level i.
func (q *QuadTree) LevelSize(i int) common.Size {
	return q.levels[i].size
}

// Level returns the texture of level i.
func (q *QuadTree) Level(i int) *resource.Texture {
	return q.levels[i].texture
}

// ImageSize returns the depth buffer size the quad-tree was built for.
func (q *QuadTree) ImageSize() common.Size {
	return q.image
}

func (q *QuadTree) TraceLayout() *wgpu.BindGroupLayout {
	return q.traceLayout
}

func (q *QuadTree) TraceLayoutDescriptor() wgpu.BindGroupLayoutDescriptor {
	return q.traceLayoutDesc
}

func (q *QuadTree) TraceBindGroup() *wgpu.BindGroup {
	return q.trace.BindGroup()
}

func (q *QuadTree) releaseLevels() {
	for _, l := range q.levels {
		if l.provider != nil {
			l.provider.Release()
		}
		l.params.Release()
		l.texture.Release()
	}
	q.levels = nil
	if q.trace != nil {
		q.trace.Release()
		q.trace = nil
	}
}

func (q *QuadTree) Release() {
	q.releaseLevels()
	for _, p := range []pipeline.Pipeline{q.level0, q.levelN} {
		if p != nil {
			p.Release()
		}
	}
	for _, l := range []*wgpu.BindGroupLayout{q.level0Layout, q.levelNLayout, q.traceLayout} {
		if l != nil {
			l.Release()
		}
	}
	q.level0Layout, q.levelNLayout, q.traceLayout = nil, nil, nil
}
