package window

// Default window geometry applied by NewWindow before any option.
const (
	DefaultWidth     = 1280
	DefaultHeight    = 720
	DefaultMinWidth  = 320
	DefaultMinHeight = 180
	DefaultMaxWidth  = 3840
	DefaultMaxHeight = 2160
)

// WindowBuilderOption is a functional option for configuring an engineWindow.
// Use the With* functions to create options. Options that take a dimension
// ignore values <= 0 and keep the default.
type WindowBuilderOption func(w *engineWindow)

// WithTitle sets the window title displayed in the title bar.
//
// Parameters:
//   - title: the window title text
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		w.title = title
	}
}

// WithSize sets the initial framebuffer size. The size is clamped into the
// size limits when the window is created.
//
// Parameters:
//   - width: initial width in pixels
//   - height: initial height in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		WithWidth(width)(w)
		WithHeight(height)(w)
	}
}

// WithWidth sets the initial window width.
func WithWidth(width int) WindowBuilderOption {
	return func(w *engineWindow) {
		if width > 0 {
			w.width = width
		}
	}
}

// WithHeight sets the initial window height.
func WithHeight(height int) WindowBuilderOption {
	return func(w *engineWindow) {
		if height > 0 {
			w.height = height
		}
	}
}

// WithSizeLimits sets the range the user may resize the window within. The
// native window enforces it, so every resize the engine sees stays inside it.
//
// Parameters:
//   - minWidth, minHeight: smallest size in pixels
//   - maxWidth, maxHeight: largest size in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSizeLimits(minWidth, minHeight, maxWidth, maxHeight int) WindowBuilderOption {
	return func(w *engineWindow) {
		WithMinWidth(minWidth)(w)
		WithMinHeight(minHeight)(w)
		WithMaxWidth(maxWidth)(w)
		WithMaxHeight(maxHeight)(w)
	}
}

// WithMaxWidth sets the maximum allowed window width.
func WithMaxWidth(maxWidth int) WindowBuilderOption {
	return func(w *engineWindow) {
		if maxWidth > 0 {
			w.maxWidth = maxWidth
		}
	}
}

// WithMaxHeight sets the maximum allowed window height.
func WithMaxHeight(maxHeight int) WindowBuilderOption {
	return func(w *engineWindow) {
		if maxHeight > 0 {
			w.maxHeight = maxHeight
		}
	}
}

// WithMinWidth sets the minimum allowed window width.
func WithMinWidth(minWidth int) WindowBuilderOption {
	return func(w *engineWindow) {
		if minWidth > 0 {
			w.minWidth = minWidth
		}
	}
}

// WithMinHeight sets the minimum allowed window height.
func WithMinHeight(minHeight int) WindowBuilderOption {
	return func(w *engineWindow) {
		if minHeight > 0 {
			w.minHeight = minHeight
		}
	}
}

// newEngineWindow applies the defaults and the options, then makes the geometry
// consistent: a maximum below its minimum is raised to it, and the initial size
// is clamped into the limits.
func newEngineWindow(options ...WindowBuilderOption) *engineWindow {
	w := &engineWindow{
		title:     "oxy-deferred",
		maxWidth:  DefaultMaxWidth,
		maxHeight: DefaultMaxHeight,
		minWidth:  DefaultMinWidth,
		minHeight: DefaultMinHeight,
		width:     DefaultWidth,
		height:    DefaultHeight,
	}
	for _, opt := range options {
		opt(w)
	}
	w.maxWidth = max(w.maxWidth, w.minWidth)
	w.maxHeight = max(w.maxHeight, w.minHeight)
	w.width = min(max(w.width, w.minWidth), w.maxWidth)
	w.height = min(max(w.height, w.minHeight), w.maxHeight)
	return w
}
