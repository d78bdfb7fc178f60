package main

import (
	"flag"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"

	"github.com/Carmen-Shannon/oxy-frame/config"
	"github.com/Carmen-Shannon/oxy-frame/engine"
	"github.com/Carmen-Shannon/oxy-frame/engine/cache"
	"github.com/Carmen-Shannon/oxy-frame/engine/device"
	"github.com/Carmen-Shannon/oxy-frame/engine/frame"
	"github.com/Carmen-Shannon/oxy-frame/engine/profiler"
	"github.com/Carmen-Shannon/oxy-frame/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
	log "github.com/sirupsen/logrus"
)

func init() {
	runtime.LockOSThread()
}

var (
	envFile      = flag.String("env", "", "Read configuration from a dotenv or YAML file instead of the environment")
	cpuProfile   = flag.String("cpuprof", "", "Profile CPU usage to file")
	traceProfile = flag.String("trace", "", "Trace output for profiling")
)

const checkerSize = 8

func main() {
	flag.Parse()

	if err := start(); err != nil {
		log.WithError(err).Error("oxyframe: exited with error")
		os.Exit(1)
	}
}

// start runs the application with profiling wrapped around it, so the profiles are flushed on error too.
func start() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Log.Apply(log.StandardLogger()); err != nil {
		return err
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}

	if *traceProfile != "" {
		f, err := os.Create(*traceProfile)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := trace.Start(f); err != nil {
			return err
		}
		defer trace.Stop()
	}

	return run(cfg)
}

func loadConfig() (config.Configuration, error) {
	if *envFile != "" {
		return config.LoadFile(*envFile)
	}
	return config.Load()
}

func run(cfg config.Configuration) error {
	logger := log.StandardLogger()

	win, err := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
		window.WithMinSize(cfg.Window.MinWidth, cfg.Window.MinHeight),
		window.WithResizable(cfg.Window.Resizable),
	)
	if err != nil {
		return err
	}
	defer win.Close()

	presentMode := device.PresentModeVSync
	if cfg.Renderer.PresentMode == config.PresentModeUncapped {
		presentMode = device.PresentModeUncapped
	}
	backend := device.NewBackend(device.BackendTypeWGPU,
		device.WithPresentMode(presentMode),
		device.WithForceSoftwareRenderer(cfg.Renderer.SoftwareRenderer),
		device.WithLogger(logger),
	)

	manager := frame.NewManager(backend,
		frame.WithProjection(cfg.Renderer.FovYRadians(), cfg.Renderer.Near, cfg.Renderer.Far),
		frame.WithClipSpace(frame.ClipSpaceZeroToOne),
		frame.WithLogger(logger),
		frame.WithRebuildCallback(func(p frame.Projection) {
			logger.WithFields(log.Fields{
				"size":   p.Size,
				"aspect": p.Aspect,
			}).Debug("oxyframe: projection updated")
		}),
	)

	newTextures := func() cache.Cache[*wgpu.Texture] {
		return cache.NewCache[*wgpu.Texture](
			cache.WithWorkers(cfg.Engine.PreloadWorkers),
			cache.WithLogger(logger),
		)
	}
	textures := newTextures()

	eng := engine.NewEngine(
		engine.WithWindow(win),
		engine.WithManager(manager),
		engine.WithLogger(logger),
		engine.WithProfiling(cfg.Engine.Profiling),
		engine.WithProfiler(profiler.NewProfiler(profiler.WithLogger(logger))),
		engine.WithRenderFrameLimit(cfg.Engine.FrameLimit),
		engine.WithMaxDeviceResets(cfg.Engine.MaxDeviceResets),
		engine.WithReleaseCallback(func(frame.Manager) {
			// Textures belong to the device being shut down; after a reset they are rebuilt on the next frame.
			textures.Close()
			textures = newTextures()
		}),
		engine.WithRenderCallback(func(f frame.Frame, _ float32) error {
			ctx, ok := f.Context.(*device.Context)
			if !ok {
				return nil
			}
			_, err := textures.Load(checkerSource(ctx))
			return err
		}),
	)

	return eng.Run()
}

// checkerSource describes a small checkerboard texture built on the frame's device.
func checkerSource(ctx *device.Context) cache.Source[*wgpu.Texture] {
	return cache.Source[*wgpu.Texture]{
		Key: "checker",
		Read: func() ([]byte, error) {
			return checkerPixels(checkerSize), nil
		},
		Build: func(data []byte) (*wgpu.Texture, error) {
			return device.UploadTexture(ctx, "Checker Texture", checkerSize, checkerSize, data)
		},
	}
}

func checkerPixels(size int) []byte {
	pixels := make([]byte, 0, size*size*4)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := byte(0x20)
			if (x+y)%2 == 0 {
				v = 0xe0
			}
			pixels = append(pixels, v, v, v, 0xff)
		}
	}
	return pixels
}
