// Package pass holds the fixed render and compute passes of the deferred frame.
// Each pass owns its pipeline, uniforms and bind groups; shared textures are
// borrowed from their owners at record time.
package pass

import (
	"strconv"

	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/mesh"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// LightingWorkgroupSize is the edge length of the lighting compute workgroups.
const LightingWorkgroupSize = 16

// ColorFormat is the format of the HDR color buffer the lighting passes write.
const ColorFormat = wgpu.TextureFormatRGBA32Float

// Mesh is what the raster passes need to draw one object.
type Mesh interface {
	VertexBuffer() *wgpu.Buffer
	IndexBuffer() *wgpu.Buffer
	IndexCount() uint32
	MaterialBindGroup() *wgpu.BindGroup
}

// RegisterIncludes registers the WGSL struct definitions owned by the domain
// packages as virtual includes of lib.
func RegisterIncludes(lib shader.Library) {
	lib.Register("camera_uniform.wgsl", camera.GPUCameraUniformSource)
	lib.Register("light_uniform.wgsl", light.GPULightUniformSource)
	lib.Register("shadow_face.wgsl", light.GPUShadowFaceSource)
	lib.Register("vertex.wgsl", mesh.GPUVertexSource)
	lib.Register("material_uniform.wgsl", material.GPUMaterialSource)
}

// gbufferGroup returns the define placing the G-buffer bindings at group.
func gbufferGroup(group int) shader.Define {
	return shader.Define{Name: "GBUFFER_GROUP", Value: strconv.Itoa(group)}
}

// drawMeshes issues one indexed draw per mesh. When materialGroup is >= 0 the
// mesh's material bind group is set there first.
func drawMeshes(rp *wgpu.RenderPassEncoder, meshes []Mesh, materialGroup int) {
	for _, m := range meshes {
		if m.IndexCount() == 0 {
			continue
		}
		if materialGroup >= 0 {
			rp.SetBindGroup(uint32(materialGroup), m.MaterialBindGroup(), nil)
		}
		rp.SetVertexBuffer(0, m.VertexBuffer(), 0, wgpu.WholeSize)
		rp.SetIndexBuffer(m.IndexBuffer(), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		rp.DrawIndexed(m.IndexCount(), 1, 0, 0, 0)
	}
}
