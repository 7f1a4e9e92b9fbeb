// Package config handles renderer configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// Lighting modes accepted by RenderConfig.Lighting.
const (
	LightingSSGI   = "ssgi"
	LightingDirect = "direct"
)

// DebugViews lists the accepted RenderConfig.DebugView values, in key order 1..5.
var DebugViews = []string{"final", "normal", "albedo", "position", "depth"}

// Config holds all renderer settings.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Render  RenderConfig  `yaml:"render"`
	Camera  CameraConfig  `yaml:"camera"`
	Light   LightConfig   `yaml:"light"`
	Shader  ShaderConfig  `yaml:"shader"`
	Logging LoggingConfig `yaml:"logging"`
	Scene   SceneConfig   `yaml:"scene"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	Title       string `yaml:"title"`
	PresentMode string `yaml:"present_mode"` // fifo, mailbox or immediate
}

// RenderConfig holds pass topology and resource settings.
type RenderConfig struct {
	Lighting         string `yaml:"lighting"`
	DebugView        string `yaml:"debug_view"`
	GBufferAOV       bool   `yaml:"gbuffer_aov"`
	ZQuadLevels      int    `yaml:"zquad_levels"`
	ShadowResolution int    `yaml:"shadow_resolution"`
	Seed             int64  `yaml:"seed"`
}

// CameraConfig holds the initial orbital camera.
type CameraConfig struct {
	Center  [3]float32 `yaml:"center"`
	Radius  float32    `yaml:"radius"`
	Phi     float32    `yaml:"phi"`
	Theta   float32    `yaml:"theta"`
	FovXDeg float32    `yaml:"fovx_deg"`
	Near    float32    `yaml:"near"`
	Far     float32    `yaml:"far"`
}

// LightConfig holds the point light that drives shadows and lighting.
type LightConfig struct {
	Position [3]float32 `yaml:"position"`
	Color    [3]float32 `yaml:"color"`
}

// ShaderConfig holds shader service settings.
type ShaderConfig struct {
	Validate bool `yaml:"validate"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// SceneConfig lists mesh files to load. Empty means the built-in cube on a plane.
type SceneConfig struct {
	Meshes []string `yaml:"meshes,omitempty"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Width:       1280,
			Height:      720,
			Title:       "oxy-deferred",
			PresentMode: "fifo",
		},
		Render: RenderConfig{
			Lighting:         LightingSSGI,
			DebugView:        "final",
			GBufferAOV:       false,
			ZQuadLevels:      5,
			ShadowResolution: 1024,
			Seed:             1,
		},
		Camera: CameraConfig{
			Center:  [3]float32{0, 0, 0},
			Radius:  3,
			Phi:     0.6,
			Theta:   1.1,
			FovXDeg: 90,
			Near:    0.1,
			Far:     100,
		},
		Light: LightConfig{
			Position: [3]float32{0, 2, 0},
			Color:    [3]float32{4, 4, 4},
		},
		Shader: ShaderConfig{
			Validate: true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "",
			MaxSizeMB:  20,
			MaxBackups: 3,
		},
	}
}

// Validate reports the first setting the renderer cannot run with.
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalidConfig, c.Window.Width, c.Window.Height)
	}
	if c.Render.Lighting != LightingSSGI && c.Render.Lighting != LightingDirect {
		return fmt.Errorf("%w: unknown lighting mode %q", ErrInvalidConfig, c.Render.Lighting)
	}
	if !slices.Contains(DebugViews, c.Render.DebugView) {
		return fmt.Errorf("%w: unknown debug view %q", ErrInvalidConfig, c.Render.DebugView)
	}
	if c.Render.ZQuadLevels <= 0 {
		return fmt.Errorf("%w: zquad_levels must be positive, got %d", ErrInvalidConfig, c.Render.ZQuadLevels)
	}
	if c.Render.ShadowResolution <= 0 {
		return fmt.Errorf("%w: shadow_resolution must be positive, got %d", ErrInvalidConfig, c.Render.ShadowResolution)
	}
	if c.Camera.Radius <= 0 {
		return fmt.Errorf("%w: camera radius must be positive", ErrInvalidConfig)
	}
	if c.Camera.FovXDeg <= 0 || c.Camera.FovXDeg >= 180 {
		return fmt.Errorf("%w: fovx_deg %.2f outside (0, 180)", ErrInvalidConfig, c.Camera.FovXDeg)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return fmt.Errorf("%w: near %.4f far %.4f", ErrInvalidConfig, c.Camera.Near, c.Camera.Far)
	}
	return nil
}

// FovX returns the configured horizontal field of view in radians.
func (c CameraConfig) FovX() float32 {
	return c.FovXDeg * math.Pi / 180
}

// DebugViewIndex returns the index of the configured debug view in DebugViews, or 0.
func (r RenderConfig) DebugViewIndex() int {
	if i := slices.Index(DebugViews, r.DebugView); i >= 0 {
		return i
	}
	return 0
}
