package config

import (
	"flag"
	"strings"
)

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagMesh       = flag.String("mesh", "", "Comma separated .obj/.gltf/.glb files to load")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
	flagLighting   = flag.String("lighting", "", "Lighting pass: ssgi or direct")
	flagDebugView  = flag.String("debug-view", "", "Post-process view: final, normal, albedo, position or depth")
	flagScreenshot = flag.String("screenshot", "", "Render one frame headless and write it to this .png, .bmp or .tiff file")
	flagLogLevel   = flag.String("log-level", "", "Log level: debug, info, warn or error")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via -config flag.
func ConfigPath() string {
	return *flagConfig
}

// ScreenshotPath returns the -screenshot output path, empty when running interactively.
func ScreenshotPath() string {
	return *flagScreenshot
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagMesh != "" {
		cfg.Scene.Meshes = nil
		for _, m := range strings.Split(*flagMesh, ",") {
			if m = strings.TrimSpace(m); m != "" {
				cfg.Scene.Meshes = append(cfg.Scene.Meshes, m)
			}
		}
	}
	if *flagWidth > 0 {
		cfg.Window.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Window.Height = *flagHeight
	}
	if *flagLighting != "" {
		cfg.Render.Lighting = *flagLighting
	}
	if *flagDebugView != "" {
		cfg.Render.DebugView = *flagDebugView
	}
	if *flagLogLevel != "" {
		cfg.Logging.Level = *flagLogLevel
	}
}
