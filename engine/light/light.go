package light

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// lightImpl is the implementation of the PointLight interface.
type lightImpl struct {
	mu *sync.Mutex

	position mgl32.Vec3
	color    mgl32.Vec3
}

// PointLight is an omnidirectional light with an emission color.
//
// The first point light in a scene drives the shadow cube map and the lighting
// pass. Its position may change every frame; its GPU uniform is re-uploaded by
// the passes that read it.
type PointLight interface {
	// Position returns the world-space position of the light.
	//
	// Returns:
	//   - mgl32.Vec3: position as (x, y, z)
	Position() mgl32.Vec3

	// Color returns the emitted radiance. Values above 1 are expected, the
	// post-process pass tone maps the result.
	//
	// Returns:
	//   - mgl32.Vec3: color as (r, g, b)
	Color() mgl32.Vec3

	// SetPosition moves the light to an absolute position.
	//
	// Parameters:
	//   - x, y, z: world-space coordinates
	SetPosition(x, y, z float32)

	// SetColor sets the emission color.
	//
	// Parameters:
	//   - r, g, b: linear color components
	SetColor(r, g, b float32)

	// Move translates the light by a world-space offset.
	//
	// Parameters:
	//   - dx, dy, dz: offset to add to the position
	Move(dx, dy, dz float32)

	// Uniform packs the light into its GPU layout.
	//
	// Returns:
	//   - GPULightUniform: position, color and the shadow far plane
	Uniform() GPULightUniform
}

var _ PointLight = &lightImpl{}

// NewPointLight creates a white point light at the origin, adjusted by opts.
//
// Parameters:
//   - opts: functional options to configure the light
//
// Returns:
//   - PointLight: the new light
func NewPointLight(opts ...LightBuilderOption) PointLight {
	l := &lightImpl{
		mu:    &sync.Mutex{},
		color: mgl32.Vec3{1, 1, 1},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *lightImpl) Position() mgl32.Vec3 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.position
}

func (l *lightImpl) Color() mgl32.Vec3 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.color
}

func (l *lightImpl) SetPosition(x, y, z float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.position = mgl32.Vec3{x, y, z}
}

func (l *lightImpl) SetColor(r, g, b float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.color = mgl32.Vec3{r, g, b}
}

func (l *lightImpl) Move(dx, dy, dz float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.position = l.position.Add(mgl32.Vec3{dx, dy, dz})
}

func (l *lightImpl) Uniform() GPULightUniform {
	l.mu.Lock()
	defer l.mu.Unlock()
	return GPULightUniform{
		Position: l.position,
		Far:      ShadowFar,
		Color:    l.color,
	}
}
