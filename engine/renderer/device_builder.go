package renderer

// DeviceBuilderOption is a functional option applied to a device during construction.
type DeviceBuilderOption func(*deviceImpl)

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use; unsupported modes fall back to VSync
//
// Returns:
//   - DeviceBuilderOption: a function that applies the present mode option to a device
func WithPresentMode(mode PresentMode) DeviceBuilderOption {
	return func(d *deviceImpl) {
		d.presentMode = mode
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - DeviceBuilderOption: a function that applies the force software renderer option to a device
func WithForceSoftwareRenderer(force bool) DeviceBuilderOption {
	return func(d *deviceImpl) {
		d.forceFallbackAdapter = force
	}
}

// WithLabel sets the device debug label.
func WithLabel(label string) DeviceBuilderOption {
	return func(d *deviceImpl) {
		if label != "" {
			d.label = label
		}
	}
}
