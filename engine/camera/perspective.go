package camera

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrInvalidPerspective is returned when a projection would be degenerate.
var ErrInvalidPerspective = errors.New("invalid perspective")

// ClipRemap maps OpenGL clip depth [-w, w] onto the WebGPU range [0, w].
var ClipRemap = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// Perspective describes a symmetric perspective projection.
type Perspective struct {
	Aspect float32 // width / height
	FovY   float32 // vertical field of view in radians
	Near   float32
	Far    float32
}

// NewPerspective builds a Perspective and checks aspect > 0, 0 < fovy < pi and 0 < near < far.
//
// Parameters:
//   - aspect: width / height
//   - fovy: vertical field of view in radians
//   - near: near plane distance
//   - far: far plane distance
//
// Returns:
//   - Perspective: the projection parameters
//   - error: wraps ErrInvalidPerspective when a bound is violated
func NewPerspective(aspect, fovy, near, far float32) (Perspective, error) {
	p := Perspective{Aspect: aspect, FovY: fovy, Near: near, Far: far}
	return p, p.Validate()
}

// Validate reports whether the projection parameters are usable.
func (p Perspective) Validate() error {
	if !(p.Aspect > 0) {
		return fmt.Errorf("%w: aspect %v", ErrInvalidPerspective, p.Aspect)
	}
	if !(p.FovY > 0 && p.FovY < math.Pi) {
		return fmt.Errorf("%w: fovy %v", ErrInvalidPerspective, p.FovY)
	}
	if !(p.Near > 0 && p.Near < p.Far) {
		return fmt.Errorf("%w: near %v far %v", ErrInvalidPerspective, p.Near, p.Far)
	}
	return nil
}

// Matrix returns the projection with the clip remap applied, so depth lands in [0, 1].
func (p Perspective) Matrix() mgl32.Mat4 {
	return ClipRemap.Mul4(mgl32.Perspective(p.FovY, p.Aspect, p.Near, p.Far))
}

// WithAspect returns a copy of p using the given aspect ratio.
func (p Perspective) WithAspect(aspect float32) (Perspective, error) {
	p.Aspect = aspect
	return p, p.Validate()
}

// FovxToFovy converts a horizontal field of view to a vertical one for the given aspect.
func FovxToFovy(fovx, aspect float32) float32 {
	return 2 * float32(math.Atan(math.Tan(float64(fovx)/2)/float64(aspect)))
}

// FovyToFovx converts a vertical field of view to a horizontal one for the given aspect.
func FovyToFovx(fovy, aspect float32) float32 {
	return 2 * float32(math.Atan(math.Tan(float64(fovy)/2)*float64(aspect)))
}
