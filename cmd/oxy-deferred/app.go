package main

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine"
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/config"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/mesh"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/deferred"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gbuffer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pass"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
	"github.com/Carmen-Shannon/oxy-deferred/engine/window"

	"github.com/go-gl/mathgl/mgl32"
)

// run opens a window and renders until it is closed.
func run(cfg *config.Config) error {
	win, err := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
	)
	if err != nil {
		return err
	}
	defer win.Close()

	mode, err := renderer.ParsePresentMode(cfg.Window.PresentMode)
	if err != nil {
		return err
	}
	dev, err := renderer.NewDevice(win.SurfaceDescriptor(), renderer.WithPresentMode(mode))
	if err != nil {
		return err
	}
	defer dev.Release()

	eng, release, err := build(cfg, dev, common.Size{Width: uint32(win.Width()), Height: uint32(win.Height())}, engine.WithWindow(win), engine.WithProfiling(true))
	if err != nil {
		return err
	}
	defer release()

	return eng.Run()
}

// screenshot renders one frame headless and writes it to path.
func screenshot(cfg *config.Config, path string) error {
	dev, err := renderer.NewHeadlessDevice(renderer.WithLabel("Screenshot Device"))
	if err != nil {
		return err
	}
	defer dev.Release()

	eng, release, err := build(cfg, dev, common.Size{Width: uint32(cfg.Window.Width), Height: uint32(cfg.Window.Height)})
	if err != nil {
		return err
	}
	defer release()

	img, err := eng.Capture()
	if err != nil {
		return err
	}
	return engine.SaveImage(path, img)
}

// build configures the surface and creates the pipeline, scene, camera and engine.
// The returned release function frees the scene and the pipeline.
func build(cfg *config.Config, dev renderer.Device, size common.Size, options ...engine.EngineBuilderOption) (engine.Engine, func(), error) {
	if err := dev.ConfigureSurface(int(size.Width), int(size.Height)); err != nil {
		return nil, nil, err
	}

	lighting, err := deferred.ParseLightingMode(cfg.Render.Lighting)
	if err != nil {
		return nil, nil, err
	}
	gb := gbuffer.Options{Variant: gbuffer.Standard}
	if cfg.Render.GBufferAOV {
		gb.Variant = gbuffer.WithAOV
	}

	pipeline, err := deferred.New(dev.Device(), size, dev.SurfaceFormat(),
		deferred.WithLightingMode(lighting),
		deferred.WithGBufferOptions(gb),
		deferred.WithZQuadLevels(cfg.Render.ZQuadLevels),
		deferred.WithShadowResolution(uint32(cfg.Render.ShadowResolution)),
		deferred.WithSeed(uint64(cfg.Render.Seed)),
		deferred.WithShaderValidation(cfg.Shader.Validate),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("creating pipeline: %w", err)
	}

	l := light.NewPointLight(
		light.WithPosition(cfg.Light.Position[0], cfg.Light.Position[1], cfg.Light.Position[2]),
		light.WithColor(cfg.Light.Color[0], cfg.Light.Color[1], cfg.Light.Color[2]),
	)
	sc, err := scene.Load(dev.Device(), pipeline.MaterialLayout(), sceneSources(cfg.Scene),
		scene.WithLabel("Main Scene"),
		scene.WithLight(l),
	)
	if err != nil {
		pipeline.Release()
		return nil, nil, err
	}
	release := func() {
		sc.Release()
		pipeline.Release()
	}

	cam, err := newCamera(cfg.Camera, size.Aspect())
	if err != nil {
		release()
		return nil, nil, err
	}

	eng, err := engine.NewEngine(append([]engine.EngineBuilderOption{
		engine.WithDevice(dev),
		engine.WithPipeline(pipeline),
		engine.WithScene(sc),
		engine.WithController(camera.NewOrbitController(cam)),
		engine.WithDebugView(pass.DebugView(cfg.Render.DebugViewIndex())),
	}, options...)...)
	if err != nil {
		release()
		return nil, nil, err
	}
	return eng, release, nil
}

// sceneSources lists the configured mesh files, or a unit cube resting on a
// ground plane when none are configured.
func sceneSources(cfg config.SceneConfig) []scene.Source {
	if len(cfg.Meshes) == 0 {
		return []scene.Source{
			{Mesh: mesh.Cube()},
			{Mesh: mesh.Plane(8), Offset: mgl32.Vec3{0, -0.5, 0}},
		}
	}
	sources := make([]scene.Source, len(cfg.Meshes))
	for i, path := range cfg.Meshes {
		sources[i] = scene.Source{Path: path}
	}
	return sources
}

// newCamera builds the orbital camera. The configured field of view is horizontal.
func newCamera(cfg config.CameraConfig, aspect float32) (camera.Orbital, error) {
	persp, err := camera.NewPerspective(aspect, camera.FovxToFovy(cfg.FovX(), aspect), cfg.Near, cfg.Far)
	if err != nil {
		return nil, err
	}
	return camera.NewOrbital(persp,
		camera.WithCenter(mgl32.Vec3(cfg.Center)),
		camera.WithRadius(cfg.Radius),
		camera.WithAngles(cfg.Phi, cfg.Theta),
	)
}
