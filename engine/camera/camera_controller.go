package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
)

// OrbitController turns mouse input into Orbital rotation and zoom.
// A drag of dx pixels adds dx/2000*pi to phi and a drag of dy pixels adds dy/1000*pi to theta.
type OrbitController struct {
	mu *sync.Mutex

	camera Orbital

	minRadius float32
	maxRadius float32
	zoomSpeed float32

	dragging bool
	lastX    float64
	lastY    float64
	hasLast  bool
}

// OrbitControllerOption is a functional option for configuring an OrbitController.
type OrbitControllerOption func(*OrbitController)

// WithRadiusLimits bounds the zoom distance.
//
// Parameters:
//   - min: closest allowed radius
//   - max: farthest allowed radius
//
// Returns:
//   - OrbitControllerOption: functional option to set the zoom bounds
func WithRadiusLimits(min, max float32) OrbitControllerOption {
	return func(oc *OrbitController) {
		if min > 0 && max >= min {
			oc.minRadius = min
			oc.maxRadius = max
		}
	}
}

// WithZoomSpeed sets the radius change per scroll unit.
//
// Parameters:
//   - speed: multiplier for scroll input
//
// Returns:
//   - OrbitControllerOption: functional option to set the zoom speed
func WithZoomSpeed(speed float32) OrbitControllerOption {
	return func(oc *OrbitController) {
		oc.zoomSpeed = speed
	}
}

// NewOrbitController attaches a controller to an orbital camera.
//
// Parameters:
//   - cam: the camera to drive
//   - options: functional options to configure the controller
//
// Returns:
//   - *OrbitController: the controller
func NewOrbitController(cam Orbital, options ...OrbitControllerOption) *OrbitController {
	oc := &OrbitController{
		mu:        &sync.Mutex{},
		camera:    cam,
		minRadius: 0.5,
		maxRadius: 50,
		zoomSpeed: 0.25,
	}
	for _, option := range options {
		option(oc)
	}
	return oc
}

// Camera returns the driven camera.
func (oc *OrbitController) Camera() Orbital {
	return oc.camera
}

// Drag rotates the camera by a cursor delta in pixels.
func (oc *OrbitController) Drag(dx, dy float64) {
	dphi := float32(dx / 2000 * math.Pi)
	dtheta := float32(dy / 1000 * math.Pi)
	oc.camera.Rotate(dphi, dtheta)
}

// Zoom moves the eye toward the center for positive delta, clamped to the radius limits.
func (oc *OrbitController) Zoom(delta float64) {
	oc.mu.Lock()
	minR, maxR, speed := oc.minRadius, oc.maxRadius, oc.zoomSpeed
	oc.mu.Unlock()

	r := oc.camera.Radius() - float32(delta)*speed
	oc.camera.SetRadius(common.Clamp(r, minR, maxR))
}

// SetDragging records whether the orbit button is held. Releasing it forgets the last cursor.
func (oc *OrbitController) SetDragging(down bool) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.dragging = down
	if !down {
		oc.hasLast = false
	}
}

// CursorMoved feeds an absolute cursor position. While dragging, the delta from the
// previous position is applied with Drag.
func (oc *OrbitController) CursorMoved(x, y float64) {
	oc.mu.Lock()
	if !oc.dragging {
		oc.mu.Unlock()
		return
	}
	if !oc.hasLast {
		oc.lastX, oc.lastY, oc.hasLast = x, y, true
		oc.mu.Unlock()
		return
	}
	dx, dy := x-oc.lastX, y-oc.lastY
	oc.lastX, oc.lastY = x, y
	oc.mu.Unlock()

	oc.Drag(dx, dy)
}
