package common

// Virtual key codes for cross-platform input handling.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyL   = 76  // L key (ASCII), toggles the lighting mode
	KeyEsc = 256 // Escape key (GLFW)

	Key1 = 49 // 1 key (ASCII), final image
	Key2 = 50 // 2 key (ASCII), normal debug view
	Key3 = 51 // 3 key (ASCII), albedo debug view
	Key4 = 52 // 4 key (ASCII), position debug view
	Key5 = 53 // 5 key (ASCII), depth debug view
)

// Navigation keys used to move the point light.
const (
	KeyRight    = 262 // Right arrow (GLFW)
	KeyLeft     = 263 // Left arrow (GLFW)
	KeyDown     = 264 // Down arrow (GLFW)
	KeyUp       = 265 // Up arrow (GLFW)
	KeyPageUp   = 266 // Page Up (GLFW)
	KeyPageDown = 267 // Page Down (GLFW)
)
