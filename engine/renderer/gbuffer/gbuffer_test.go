package gbuffer

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	std := Options{}
	assert.Equal(t, 3, std.TargetCount())
	assert.Empty(t, std.Defines())
	assert.Equal(t, []wgpu.TextureFormat{TargetFormat, TargetFormat, TargetFormat}, std.Formats())

	aov := Options{Variant: WithAOV}
	assert.Equal(t, 4, aov.TargetCount())
	require.Len(t, aov.Defines(), 1)
	assert.Equal(t, "GBUFFER_AOV", aov.Defines()[0].Name)
	assert.Equal(t, "aov", aov.Variant.String())
}

func TestLayoutDescriptor(t *testing.T) {
	for _, opts := range []Options{{Variant: Standard}, {Variant: WithAOV}} {
		t.Run(opts.Variant.String(), func(t *testing.T) {
			desc := LayoutDescriptor(opts)
			require.Len(t, desc.Entries, opts.TargetCount()+1)

			depth := desc.Entries[0]
			assert.Equal(t, uint32(0), depth.Binding)
			assert.Equal(t, wgpu.TextureSampleTypeDepth, depth.Texture.SampleType)
			assert.Equal(t, wgpu.TextureViewDimension2D, depth.Texture.ViewDimension)

			for i, e := range desc.Entries[1:] {
				assert.Equal(t, uint32(i+1), e.Binding)
				assert.Equal(t, wgpu.StorageTextureAccessReadOnly, e.StorageTexture.Access)
				assert.Equal(t, TargetFormat, e.StorageTexture.Format)
				assert.NotZero(t, e.Visibility&wgpu.ShaderStageCompute)
				assert.NotZero(t, e.Visibility&wgpu.ShaderStageFragment)
			}
		})
	}
}
