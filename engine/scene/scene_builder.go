package scene

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/loader"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithLabel sets the scene name used in logs and errors.
//
// Parameters:
//   - label: the scene name
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLabel(label string) SceneBuilderOption {
	return func(s *scene) {
		s.label = label
	}
}

// WithLight sets the point light. Defaults to light.NewPointLight().
//
// Parameters:
//   - l: the light
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLight(l light.PointLight) SceneBuilderOption {
	return func(s *scene) {
		s.light = l
	}
}

// WithLoader shares a model cache between scenes. Defaults to a fresh loader.
//
// Parameters:
//   - l: the loader
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLoader(l loader.Loader) SceneBuilderOption {
	return func(s *scene) {
		s.loader = l
	}
}

// WithWorkers sets the number of goroutines used to import files and generate
// normals. Defaults to runtime.NumCPU()-1.
//
// Parameters:
//   - n: the number of workers (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		s.workers = max(n, 1)
	}
}
