package light

import "github.com/go-gl/mathgl/mgl32"

// LightBuilderOption is a functional option for configuring a PointLight.
type LightBuilderOption func(*lightImpl)

// WithPosition sets the world-space position of the light.
//
// Parameters:
//   - x, y, z: world-space coordinates
//
// Returns:
//   - LightBuilderOption: a function that sets the position
func WithPosition(x, y, z float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.position = mgl32.Vec3{x, y, z}
	}
}

// WithColor sets the emission color of the light.
//
// Parameters:
//   - r, g, b: linear color components
//
// Returns:
//   - LightBuilderOption: a function that sets the color
func WithColor(r, g, b float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.color = mgl32.Vec3{r, g, b}
	}
}
