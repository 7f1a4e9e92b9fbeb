package camera

import "github.com/go-gl/mathgl/mgl32"

// OrbitalOption is a functional option for configuring an Orbital camera.
type OrbitalOption func(*orbitalImpl)

// WithCenter sets the point the camera orbits and looks at.
//
// Parameters:
//   - center: world-space pivot
//
// Returns:
//   - OrbitalOption: functional option to set the center
func WithCenter(center mgl32.Vec3) OrbitalOption {
	return func(o *orbitalImpl) {
		o.center = center
	}
}

// WithRadius sets the distance from the center to the eye. Non-positive values are ignored.
//
// Parameters:
//   - radius: orbit distance
//
// Returns:
//   - OrbitalOption: functional option to set the radius
func WithRadius(radius float32) OrbitalOption {
	return func(o *orbitalImpl) {
		if radius > 0 {
			o.radius = radius
		}
	}
}

// WithAngles sets the azimuth phi and the polar angle theta, both in radians.
// Theta is measured from +Y and clamped away from the poles.
//
// Parameters:
//   - phi: azimuth around +Y, 0 faces +Z
//   - theta: polar angle from +Y
//
// Returns:
//   - OrbitalOption: functional option to set both angles
func WithAngles(phi, theta float32) OrbitalOption {
	return func(o *orbitalImpl) {
		o.phi = phi
		o.theta = theta
	}
}
