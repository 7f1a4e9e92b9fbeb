package camera

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera is the view the deferred passes render from.
// Both implementations recompute their matrices lazily from their own parameters.
type Camera interface {
	// View returns the world-to-view matrix.
	View() mgl32.Mat4

	// Projection returns the clip-remapped projection matrix.
	Projection() mgl32.Mat4

	// ViewProjection returns Projection() * View().
	ViewProjection() mgl32.Mat4

	// Eye returns the world-space camera position.
	Eye() mgl32.Vec3

	// Direction returns the unit view direction in world space.
	Direction() mgl32.Vec3

	// Perspective returns the current projection parameters.
	Perspective() Perspective

	// SetAspect updates the aspect ratio, typically after a resize.
	//
	// Parameters:
	//   - aspect: width / height
	//
	// Returns:
	//   - error: wraps ErrInvalidPerspective for a non-positive aspect
	SetAspect(aspect float32) error

	// Uniform packs the camera into its GPU layout.
	Uniform() GPUCameraUniform
}

// Orbital is a camera circling a center point on a sphere of the given radius.
// The eye sits at center + radius * (sin(phi) sin(theta), cos(theta), cos(phi) sin(theta)).
type Orbital interface {
	Camera

	Center() mgl32.Vec3
	Radius() float32
	Phi() float32
	Theta() float32

	SetCenter(center mgl32.Vec3)
	SetRadius(radius float32)

	// Rotate adds dphi and dtheta to the spherical angles, then clamps theta into (eps, pi-eps).
	Rotate(dphi, dtheta float32)
}

// LookAt is a camera defined by an eye, a target point and an up vector.
type LookAt interface {
	Camera

	Center() mgl32.Vec3
	Up() mgl32.Vec3

	SetEye(eye mgl32.Vec3)
	SetCenter(center mgl32.Vec3)
}

// thetaEpsilon keeps the orbital camera off the poles where the up vector degenerates.
const thetaEpsilon = 1e-3

type orbitalImpl struct {
	mu *sync.Mutex

	center mgl32.Vec3
	radius float32
	phi    float32
	theta  float32

	perspective Perspective
}

var _ Orbital = &orbitalImpl{}

// NewOrbital creates an orbital camera.
//
// Parameters:
//   - perspective: projection parameters, checked with Validate
//   - options: functional options for center, radius and angles
//
// Returns:
//   - Orbital: the camera
//   - error: wraps ErrInvalidPerspective
func NewOrbital(perspective Perspective, options ...OrbitalOption) (Orbital, error) {
	if err := perspective.Validate(); err != nil {
		return nil, err
	}
	o := &orbitalImpl{
		mu:          &sync.Mutex{},
		radius:      1,
		phi:         0,
		theta:       math.Pi / 2,
		perspective: perspective,
	}
	for _, option := range options {
		option(o)
	}
	o.theta = clampTheta(o.theta)
	return o, nil
}

func clampTheta(theta float32) float32 {
	return mgl32.Clamp(theta, thetaEpsilon, math.Pi-thetaEpsilon)
}

// dir is the unit vector from the center to the eye. Caller must hold the mutex.
func (o *orbitalImpl) dir() mgl32.Vec3 {
	sp, cp := math.Sincos(float64(o.phi))
	st, ct := math.Sincos(float64(o.theta))
	return mgl32.Vec3{float32(sp * st), float32(ct), float32(cp * st)}
}

func (o *orbitalImpl) eye() mgl32.Vec3 {
	return o.center.Add(o.dir().Mul(o.radius))
}

func (o *orbitalImpl) View() mgl32.Mat4 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return mgl32.LookAtV(o.eye(), o.center, mgl32.Vec3{0, 1, 0})
}

func (o *orbitalImpl) Projection() mgl32.Mat4 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.perspective.Matrix()
}

func (o *orbitalImpl) ViewProjection() mgl32.Mat4 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.perspective.Matrix().Mul4(mgl32.LookAtV(o.eye(), o.center, mgl32.Vec3{0, 1, 0}))
}

func (o *orbitalImpl) Eye() mgl32.Vec3 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.eye()
}

func (o *orbitalImpl) Direction() mgl32.Vec3 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dir().Mul(-1)
}

func (o *orbitalImpl) Perspective() Perspective {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.perspective
}

func (o *orbitalImpl) SetAspect(aspect float32) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	p, err := o.perspective.WithAspect(aspect)
	if err != nil {
		return err
	}
	o.perspective = p
	return nil
}

func (o *orbitalImpl) Uniform() GPUCameraUniform {
	return NewGPUCameraUniform(o)
}

func (o *orbitalImpl) Center() mgl32.Vec3 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.center
}

func (o *orbitalImpl) Radius() float32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.radius
}

func (o *orbitalImpl) Phi() float32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phi
}

func (o *orbitalImpl) Theta() float32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.theta
}

func (o *orbitalImpl) SetCenter(center mgl32.Vec3) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.center = center
}

func (o *orbitalImpl) SetRadius(radius float32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if radius > 0 {
		o.radius = radius
	}
}

func (o *orbitalImpl) Rotate(dphi, dtheta float32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.phi = float32(math.Mod(float64(o.phi+dphi), 2*math.Pi))
	o.theta = clampTheta(o.theta + dtheta)
}

type lookAtImpl struct {
	mu *sync.Mutex

	eye    mgl32.Vec3
	center mgl32.Vec3
	up     mgl32.Vec3

	perspective Perspective
}

var _ LookAt = &lookAtImpl{}

// NewLookAt creates a camera at eye looking toward center.
//
// Parameters:
//   - eye: world-space camera position
//   - center: world-space target
//   - up: up vector, need not be orthogonal to the view direction
//   - perspective: projection parameters, checked with Validate
//
// Returns:
//   - LookAt: the camera
//   - error: wraps ErrInvalidPerspective
func NewLookAt(eye, center, up mgl32.Vec3, perspective Perspective) (LookAt, error) {
	if err := perspective.Validate(); err != nil {
		return nil, err
	}
	return &lookAtImpl{
		mu:          &sync.Mutex{},
		eye:         eye,
		center:      center,
		up:          up,
		perspective: perspective,
	}, nil
}

func (l *lookAtImpl) View() mgl32.Mat4 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return mgl32.LookAtV(l.eye, l.center, l.up)
}

func (l *lookAtImpl) Projection() mgl32.Mat4 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.perspective.Matrix()
}

func (l *lookAtImpl) ViewProjection() mgl32.Mat4 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.perspective.Matrix().Mul4(mgl32.LookAtV(l.eye, l.center, l.up))
}

func (l *lookAtImpl) Eye() mgl32.Vec3 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.eye
}

func (l *lookAtImpl) Direction() mgl32.Vec3 {
	l.mu.Lock()
	defer l.mu.Unlock()
	d := l.center.Sub(l.eye)
	if d.Len() < 1e-8 {
		return mgl32.Vec3{0, 0, -1}
	}
	return d.Normalize()
}

func (l *lookAtImpl) Perspective() Perspective {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.perspective
}

func (l *lookAtImpl) SetAspect(aspect float32) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, err := l.perspective.WithAspect(aspect)
	if err != nil {
		return err
	}
	l.perspective = p
	return nil
}

func (l *lookAtImpl) Uniform() GPUCameraUniform {
	return NewGPUCameraUniform(l)
}

func (l *lookAtImpl) Center() mgl32.Vec3 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.center
}

func (l *lookAtImpl) Up() mgl32.Vec3 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.up
}

func (l *lookAtImpl) SetEye(eye mgl32.Vec3) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.eye = eye
}

func (l *lookAtImpl) SetCenter(center mgl32.Vec3) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.center = center
}
