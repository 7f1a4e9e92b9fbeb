package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPerspective(t *testing.T) Perspective {
	t.Helper()
	p, err := NewPerspective(16.0/9.0, math.Pi/3, 0.1, 100)
	require.NoError(t, err)
	return p
}

func TestNewPerspectiveRejectsDegenerate(t *testing.T) {
	cases := []Perspective{
		{Aspect: 0, FovY: 1, Near: 0.1, Far: 10},
		{Aspect: 1, FovY: 0, Near: 0.1, Far: 10},
		{Aspect: 1, FovY: math.Pi, Near: 0.1, Far: 10},
		{Aspect: 1, FovY: 1, Near: 0, Far: 10},
		{Aspect: 1, FovY: 1, Near: 10, Far: 10},
		{Aspect: float32(math.NaN()), FovY: 1, Near: 0.1, Far: 10},
	}
	for _, p := range cases {
		_, err := NewPerspective(p.Aspect, p.FovY, p.Near, p.Far)
		assert.ErrorIs(t, err, ErrInvalidPerspective, "%+v", p)
	}
}

func TestProjectionMapsNearAndFarToUnitDepth(t *testing.T) {
	p := testPerspective(t)
	m := p.Matrix()

	near := m.Mul4x1(mgl32.Vec4{0, 0, -p.Near, 1})
	far := m.Mul4x1(mgl32.Vec4{0, 0, -p.Far, 1})

	assert.InDelta(t, 0, near.Z()/near.W(), 1e-5)
	assert.InDelta(t, 1, far.Z()/far.W(), 1e-5)
}

func TestFovConversionRoundTrip(t *testing.T) {
	for _, aspect := range []float32{0.5, 1, 16.0 / 9.0, 3} {
		for _, fovy := range []float32{0.2, 1, math.Pi / 2, 2.5} {
			back := FovxToFovy(FovyToFovx(fovy, aspect), aspect)
			assert.InDelta(t, fovy, back, 1e-5, "aspect %v fovy %v", aspect, fovy)
		}
	}
	assert.InDelta(t, math.Pi/2, FovxToFovy(math.Pi/2, 1), 1e-6)
}

func TestOrbitalEyeOnPositiveZ(t *testing.T) {
	cam, err := NewOrbital(testPerspective(t), WithRadius(1), WithAngles(0, math.Pi/2))
	require.NoError(t, err)

	eye := cam.Eye()
	assert.InDelta(t, 0, eye.X(), 1e-6)
	assert.InDelta(t, 0, eye.Y(), 1e-6)
	assert.InDelta(t, 1, eye.Z(), 1e-6)

	dir := cam.Direction()
	assert.InDelta(t, -1, dir.Z(), 1e-6)
}

func TestOrbitalCenterMapsToScreenCenter(t *testing.T) {
	center := mgl32.Vec3{1, 2, 3}
	cam, err := NewOrbital(testPerspective(t), WithCenter(center), WithRadius(5), WithAngles(0.7, 1.2))
	require.NoError(t, err)

	clip := cam.ViewProjection().Mul4x1(center.Vec4(1))
	assert.InDelta(t, 0, clip.X()/clip.W(), 1e-5)
	assert.InDelta(t, 0, clip.Y()/clip.W(), 1e-5)
	assert.InDelta(t, 5, cam.Eye().Sub(center).Len(), 1e-5)
}

func TestOrbitalThetaStaysOffPoles(t *testing.T) {
	cam, err := NewOrbital(testPerspective(t))
	require.NoError(t, err)

	cam.Rotate(0, 10)
	assert.Less(t, cam.Theta(), float32(math.Pi))
	cam.Rotate(0, -20)
	assert.Greater(t, cam.Theta(), float32(0))
}

func TestSetAspect(t *testing.T) {
	cam, err := NewLookAt(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}, testPerspective(t))
	require.NoError(t, err)

	require.NoError(t, cam.SetAspect(2))
	assert.Equal(t, float32(2), cam.Perspective().Aspect)
	assert.ErrorIs(t, cam.SetAspect(0), ErrInvalidPerspective)
	assert.Equal(t, float32(2), cam.Perspective().Aspect)
}

func TestLookAtDirection(t *testing.T) {
	cam, err := NewLookAt(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}, testPerspective(t))
	require.NoError(t, err)

	assert.True(t, cam.Direction().ApproxEqual(mgl32.Vec3{0, 0, -1}))
	assert.True(t, cam.View().Mul4x1(mgl32.Vec4{0, 0, 0, 1}).Vec3().ApproxEqual(mgl32.Vec3{0, 0, -5}))
}

func TestOrbitControllerDrag(t *testing.T) {
	cam, err := NewOrbital(testPerspective(t), WithAngles(0, 1))
	require.NoError(t, err)
	oc := NewOrbitController(cam)

	oc.Drag(2000, 100)
	assert.InDelta(t, math.Pi, cam.Phi(), 1e-5)
	assert.InDelta(t, 1+math.Pi/10, cam.Theta(), 1e-5)
}

func TestOrbitControllerCursorOnlyWhileDragging(t *testing.T) {
	cam, err := NewOrbital(testPerspective(t), WithAngles(0, 1))
	require.NoError(t, err)
	oc := NewOrbitController(cam)

	oc.CursorMoved(10, 10)
	oc.CursorMoved(500, 10)
	assert.Equal(t, float32(0), cam.Phi())

	oc.SetDragging(true)
	oc.CursorMoved(0, 0)
	oc.CursorMoved(200, 0)
	assert.InDelta(t, math.Pi/10, cam.Phi(), 1e-5)
}

func TestOrbitControllerZoomClamps(t *testing.T) {
	cam, err := NewOrbital(testPerspective(t), WithRadius(3))
	require.NoError(t, err)
	oc := NewOrbitController(cam, WithRadiusLimits(1, 4), WithZoomSpeed(1))

	oc.Zoom(1)
	assert.Equal(t, float32(2), cam.Radius())
	oc.Zoom(100)
	assert.Equal(t, float32(1), cam.Radius())
	oc.Zoom(-100)
	assert.Equal(t, float32(4), cam.Radius())
}

func TestGPUCameraUniformLayout(t *testing.T) {
	u := GPUCameraUniform{Eye: [3]float32{1, 2, 3}, Direction: [3]float32{0, 0, -1}}
	assert.Equal(t, 96, u.Size())
	buf := u.Marshal()
	require.Len(t, buf, 96)
	assert.Equal(t, math.Float32bits(2), leUint32(buf[68:]))
	assert.Equal(t, math.Float32bits(-1), leUint32(buf[88:]))
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
