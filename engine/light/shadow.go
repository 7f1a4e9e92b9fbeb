package light

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// DefaultShadowResolution is the default width and height in texels of each
// shadow cube face.
const DefaultShadowResolution = 1024

// ShadowNear is the near plane of every cube face projection.
const ShadowNear float32 = 0.01

// ShadowFar is the far plane of every cube face projection. Distances stored in
// the shadow cube are linear world units, so this also bounds the shadow range.
const ShadowFar float32 = 100.0

// CubeFace indexes the six faces in WebGPU array-layer order.
type CubeFace int

const (
	FacePosX CubeFace = iota
	FaceNegX
	FacePosY
	FaceNegY
	FacePosZ
	FaceNegZ
)

// faceBasis holds the look direction and up vector of each face.
var faceBasis = [6][2]mgl32.Vec3{
	FacePosX: {{1, 0, 0}, {0, -1, 0}},
	FaceNegX: {{-1, 0, 0}, {0, -1, 0}},
	FacePosY: {{0, 1, 0}, {0, 0, 1}},
	FaceNegY: {{0, -1, 0}, {0, 0, -1}},
	FacePosZ: {{0, 0, 1}, {0, -1, 0}},
	FaceNegZ: {{0, 0, -1}, {0, -1, 0}},
}

// faceFlipY converts the GL-style face image, where +Y is the top row, to
// texture rows where row 0 is at the top, matching cube sampling.
var faceFlipY = mgl32.Scale3D(1, -1, 1)

// FaceProjection returns the 90 degree, aspect 1 projection shared by all faces.
//
// Returns:
//   - mgl32.Mat4: clip remapped and Y flipped projection
func FaceProjection() mgl32.Mat4 {
	clipRemap := mgl32.Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 0.5, 0,
		0, 0, 0.5, 1,
	}
	return faceFlipY.Mul4(clipRemap).Mul4(mgl32.Perspective(math.Pi/2, 1, ShadowNear, ShadowFar))
}

// CubeFaceViewProjections builds the view-projection matrix of each cube face
// for a light at pos. The result is indexed by CubeFace.
//
// Parameters:
//   - pos: world-space light position
//
// Returns:
//   - [6]mgl32.Mat4: per-face view-projection matrices
func CubeFaceViewProjections(pos mgl32.Vec3) [6]mgl32.Mat4 {
	proj := FaceProjection()
	var out [6]mgl32.Mat4
	for i, basis := range faceBasis {
		view := mgl32.LookAtV(pos, pos.Add(basis[0]), basis[1])
		out[i] = proj.Mul4(view)
	}
	return out
}

// FaceDirection returns the world-space axis a face looks along.
func FaceDirection(face CubeFace) mgl32.Vec3 {
	return faceBasis[face][0]
}
