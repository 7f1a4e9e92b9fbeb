package zquad

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gputest"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseSize(t *testing.T) {
	cases := []struct {
		image, want common.Size
	}{
		{common.Size{Width: 1920, Height: 1080}, common.Size{Width: 512, Height: 512}},
		{common.Size{Width: 1280, Height: 720}, common.Size{Width: 512, Height: 256}},
		{common.Size{Width: 640, Height: 360}, common.Size{Width: 256, Height: 128}},
		{common.Size{Width: 1, Height: 3}, common.Size{Width: 1, Height: 1}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, BaseSize(c.image), "image %v", c.image)
	}
}

func TestLevelSizesHalveAndClamp(t *testing.T) {
	sizes := LevelSizes(common.Size{Width: 1280, Height: 720}, 0)
	require.Len(t, sizes, MaxLevels(common.Size{Width: 1280, Height: 720}))
	assert.Equal(t, common.Size{Width: 512, Height: 256}, sizes[0])
	assert.Equal(t, common.Size{Width: 1, Height: 1}, sizes[len(sizes)-1])

	for i := 1; i < len(sizes); i++ {
		assert.Equal(t, max(sizes[i-1].Width/2, 1), sizes[i].Width, "level %d", i)
		assert.Equal(t, max(sizes[i-1].Height/2, 1), sizes[i].Height, "level %d", i)
	}

	assert.Len(t, LevelSizes(common.Size{Width: 1280, Height: 720}, 4), 4)
	assert.Equal(t, 10, MaxLevels(common.Size{Width: 1280, Height: 720}))
}

func TestReductionIsConservative(t *testing.T) {
	image := common.Size{Width: 37, Height: 23}
	rng := rand.New(rand.NewPCG(1, 2))
	depth := make([]float32, image.Width*image.Height)
	for i := range depth {
		depth[i] = rng.Float32()
	}

	sizes := LevelSizes(image, 0)
	levels := [][]float32{ReduceMinFootprint(depth, image, sizes[0])}
	for i := 1; i < len(sizes); i++ {
		levels = append(levels, ReduceMin2x2(levels[i-1], sizes[i-1], sizes[i]))
	}

	// every pixel's depth is >= the stored minimum of the cell covering it at every level
	for y := range image.Height {
		for x := range image.Width {
			d := depth[y*image.Width+x]
			for i, s := range sizes {
				lx, ly := Cell(x, y, image, sizes, i)
				assert.LessOrEqual(t, levels[i][ly*s.Width+lx], d, "pixel (%d,%d) level %d", x, y, i)
			}
		}
	}

	var global float32 = 1
	for _, d := range depth {
		global = min(global, d)
	}
	assert.Equal(t, global, levels[len(levels)-1][0])
}

func TestCellFindsOccluderAtScreenEdge(t *testing.T) {
	for _, image := range []common.Size{
		{Width: 1280, Height: 720},
		{Width: 1920, Height: 1080},
		{Width: 641, Height: 359},
	} {
		t.Run(fmt.Sprintf("%dx%d", image.Width, image.Height), func(t *testing.T) {
			// an occluder band near the right edge of an otherwise empty buffer
			depth := make([]float32, image.Width*image.Height)
			for i := range depth {
				depth[i] = 1
			}
			for y := range image.Height {
				for x := image.Width - 180; x < image.Width-80; x++ {
					depth[y*image.Width+x] = 0.3
				}
			}

			sizes := LevelSizes(image, 5)
			levels := [][]float32{ReduceMinFootprint(depth, image, sizes[0])}
			for i := 1; i < len(sizes); i++ {
				levels = append(levels, ReduceMin2x2(levels[i-1], sizes[i-1], sizes[i]))
			}

			for y := uint32(0); y < image.Height; y += 7 {
				for x := image.Width - 180; x < image.Width-80; x++ {
					for i, s := range sizes {
						cx, cy := Cell(x, y, image, sizes, i)
						require.Less(t, cx, s.Width)
						require.Less(t, cy, s.Height)
						require.LessOrEqual(t, levels[i][cy*s.Width+cx], float32(0.3),
							"pixel (%d,%d) level %d cell (%d,%d)", x, y, i, cx, cy)
					}
				}
			}
		})
	}
}

func TestCellStaysInsideLevels(t *testing.T) {
	image := common.Size{Width: 1280, Height: 720}
	sizes := LevelSizes(image, 0)
	for i, s := range sizes {
		cx, cy := Cell(image.Width-1, image.Height-1, image, sizes, i)
		assert.Less(t, cx, s.Width, "level %d", i)
		assert.Less(t, cy, s.Height, "level %d", i)
	}
	cx, cy := Cell(0, 0, image, sizes, 0)
	assert.Zero(t, cx)
	assert.Zero(t, cy)
	assert.Equal(t, common.Size{Width: 3, Height: 3}, Footprint(image, sizes[0]))
}

func TestReduceMin2x2ClampsOddEdges(t *testing.T) {
	prev := []float32{
		0.9, 0.8, 0.2,
		0.7, 0.6, 0.5,
	}
	out := ReduceMin2x2(prev, common.Size{Width: 3, Height: 2}, common.Size{Width: 2, Height: 1})
	assert.Equal(t, []float32{0.6, 0.2}, out)
}

func TestGPUParamsLayout(t *testing.T) {
	p := NewGPUParams(common.Size{Width: 640, Height: 360}, common.Size{Width: 256, Height: 128}, 3)
	assert.Equal(t, 24, p.Size())
	data := p.Marshal()
	require.Len(t, data, 24)
	assert.Equal(t, byte(3), data[16])
}

func TestTraceDeclarations(t *testing.T) {
	src := TraceDeclarations(5, 3)
	for i := range 3 {
		assert.Contains(t, src, fmt.Sprintf("@group(5) @binding(%d) var zquad_level_%d: texture_2d<f32>;", i, i))
	}
	assert.Equal(t, 2, strings.Count(src, "level == 2u"))
	assert.NotContains(t, src, "level == 3u")
	assert.Contains(t, src, "fn zquad_cell(")

	harness := src + `
@group(0) @binding(0) var<storage, read_write> result: array<f32>;

@compute @workgroup_size(1)
fn main() {
    let cell = zquad_cell(vec2<u32>(10u, 20u), vec2<u32>(64u, 64u), 1u);
    result[0] = zquad_load(0u, cell) + f32(zquad_dims(2u).x) + f32(ZQUAD_LEVELS);
}
`
	require.NoError(t, shader.Validate("trace.wgsl", harness))

	s, err := shader.NewShader("trace", shader.ShaderTypeCompute, harness)
	require.NoError(t, err)
	assert.NoError(t, s.CheckLayout(5, TraceLayoutDescriptor(3)))
	assert.Error(t, s.CheckLayout(5, TraceLayoutDescriptor(2)))
}

func TestLayoutsMatchShaders(t *testing.T) {
	lib := shader.NewLibrary(nil)
	for name, desc := range map[string]wgpu.BindGroupLayoutDescriptor{
		"zquad_level0.wgsl": level0LayoutDescriptor(),
		"zquad_levelN.wgsl": levelNLayoutDescriptor(),
	} {
		s, err := lib.Build(name, shader.ShaderTypeCompute)
		require.NoError(t, err, name)
		assert.NoError(t, s.CheckLayout(0, desc), name)
	}
}

func TestFailedResizeLeavesTreeEmpty(t *testing.T) {
	dev := gputest.Device(t).Device()
	cache := shader.NewCache(
		func(name, source string, _ shader.ShaderType) (*wgpu.ShaderModule, error) {
			return dev.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
				Label:          name,
				WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: source},
			})
		},
		func(m *wgpu.ShaderModule) { m.Release() },
	)
	t.Cleanup(cache.Release)
	shaders := pipeline.Shaders{Library: shader.NewLibrary(nil), Modules: cache}

	small := common.Size{Width: 64, Height: 32}
	q, err := New(dev, shaders, small, 0)
	require.NoError(t, err)
	t.Cleanup(q.Release)
	require.Equal(t, small, q.ImageSize())

	// fail the third level allocation
	calls := 0
	newLevelTexture = func(dev *wgpu.Device, label string, size common.Size, format wgpu.TextureFormat) (*resource.Texture, error) {
		calls++
		if calls == 3 {
			return nil, fmt.Errorf("out of memory")
		}
		return resource.NewStorageTexture(dev, label, size, format)
	}
	t.Cleanup(func() { newLevelTexture = resource.NewStorageTexture })

	large := common.Size{Width: 128, Height: 64}
	require.Error(t, q.Resize(dev, large))
	assert.Zero(t, q.Levels())
	assert.Equal(t, common.Size{}, q.ImageSize())

	// the same size is rebuilt rather than skipped
	newLevelTexture = resource.NewStorageTexture
	require.NoError(t, q.Resize(dev, large))
	assert.Equal(t, large, q.ImageSize())
	assert.Equal(t, MaxLevels(large), q.Levels())
	assert.NotNil(t, q.TraceBindGroup())
}

func TestRecordRejectsEmptyTree(t *testing.T) {
	q := &QuadTree{}
	assert.ErrorContains(t, q.Record(nil, nil), "no levels")
}
