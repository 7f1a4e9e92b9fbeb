package light

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointLightMove(t *testing.T) {
	l := NewPointLight(WithPosition(0, 2, 0), WithColor(3, 3, 3))
	l.Move(1, -0.5, 2)

	assert.Equal(t, mgl32.Vec3{1, 1.5, 2}, l.Position())
	assert.Equal(t, mgl32.Vec3{3, 3, 3}, l.Color())
}

func TestLightUniformLayout(t *testing.T) {
	u := NewPointLight(WithPosition(1, 2, 3), WithColor(4, 5, 6)).Uniform()
	assert.Equal(t, 32, u.Size())

	buf := u.Marshal()
	require.Len(t, buf, 32)
	assert.Equal(t, math.Float32bits(3), le(buf[8:]))
	assert.Equal(t, math.Float32bits(ShadowFar), le(buf[12:]))
	assert.Equal(t, math.Float32bits(4), le(buf[16:]))
}

func TestShadowFaceLayout(t *testing.T) {
	f := GPUShadowFace{LightPos: [3]float32{0, 2, 0}, Far: ShadowFar}
	assert.Equal(t, 80, f.Size())
	assert.Equal(t, math.Float32bits(2), le(f.Marshal()[68:]))
}

func TestCubeFaceCentersProjectToScreenCenter(t *testing.T) {
	pos := mgl32.Vec3{0, 2, 0}
	vps := CubeFaceViewProjections(pos)

	for face := FacePosX; face <= FaceNegZ; face++ {
		p := pos.Add(FaceDirection(face).Mul(5)).Vec4(1)
		clip := vps[face].Mul4x1(p)

		require.Greater(t, clip.W(), float32(0), "face %d", face)
		assert.InDelta(t, 0, clip.X()/clip.W(), 1e-5, "face %d", face)
		assert.InDelta(t, 0, clip.Y()/clip.W(), 1e-5, "face %d", face)
		depth := clip.Z() / clip.W()
		assert.True(t, depth > 0 && depth < 1, "face %d depth %v", face, depth)
	}
}

func TestCubeFaceRowsMatchCubeAddressing(t *testing.T) {
	// On +X, cube sampling puts world -Y toward the bottom row, which is NDC -Y
	// after the flip.
	vp := CubeFaceViewProjections(mgl32.Vec3{})[FacePosX]
	clip := vp.Mul4x1(mgl32.Vec4{1, -0.5, 0, 1})
	assert.Less(t, clip.Y()/clip.W(), float32(0))
}

func le(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
