package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/frame"
	"github.com/Carmen-Shannon/oxy-frame/engine/profiler"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNoHost is returned by Run when no Host was configured.
	ErrNoHost = errors.New("engine: no host window configured")

	// ErrNoManager is returned by Run when no frame Manager was configured.
	ErrNoManager = errors.New("engine: no frame manager configured")

	// ErrTooManyDeviceResets is returned by Run when the device was lost more often than allowed.
	ErrTooManyDeviceResets = errors.New("engine: device lost too many times")
)

// Host is the window the engine renders into. It owns the message loop and reports framebuffer
// resizes; window.Window satisfies it.
type Host interface {
	frame.Surface

	// SetUpdateCallback sets the function called once per message loop iteration.
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer is resized.
	SetResizeCallback(callback func(width, height int))

	// ProcessMessages runs the message loop until the host closes.
	ProcessMessages()

	// IsRunning returns true while the host is open.
	IsRunning() bool

	// Close closes the host and ends the message loop.
	Close() error
}

// RenderCallback records the draw commands of one frame. The deltaTime is the time in seconds since
// the previous frame began. Returning an error that wraps frame.ErrDeviceLost triggers a device reset;
// any other error stops the engine.
type RenderCallback func(f frame.Frame, deltaTime float32) error

// engine implements the Engine interface.
// Drives the frame Manager from the host's message loop.
type engine struct {
	host    Host
	manager frame.Manager
	logger  logrus.FieldLogger

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	profiler         *profiler.Profiler
	profilingEnabled bool

	renderCallback      RenderCallback
	deviceResetCallback func(m frame.Manager) error
	releaseCallback     func(m frame.Manager)

	clearColor common.Color
	clearDepth float32

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	maxDeviceResets  int           // negative = unlimited
	deviceResets     int
	lostInARow       int // device losses since the last presented frame

	lastRender time.Time
	err        error
}

// Engine is the main entry point for the engine.
// It owns the render loop that ties the host window to the frame Manager.
type Engine interface {
	// Host returns the window the engine renders into.
	//
	// Returns:
	//   - Host: the host window, or nil if none was configured
	Host() Host

	// Manager returns the frame Manager driven by the engine.
	//
	// Returns:
	//   - frame.Manager: the frame manager, or nil if none was configured
	Manager() frame.Manager

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetRenderCallback registers the function called each render frame.
	//
	// Parameters:
	//   - callback: function recording the frame's draw commands
	SetRenderCallback(callback RenderCallback)

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// DeviceResets returns how many times the device was recreated after being lost.
	DeviceResets() int

	// Run initializes the frame Manager and runs the render loop until the host closes,
	// Quit is called, or a frame fails. The Manager is shut down before Run returns.
	//
	// Returns:
	//   - error: the error that stopped the loop, or nil if the host closed normally
	Run() error

	// Quit asks the render loop to stop and closes the host.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine instance with the provided options.
// Options are applied directly to the engine struct via the option-builder pattern.
//
// Parameters:
//   - options: functional options for engine configuration (host, manager, callbacks, profiling)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		quitChannel:     make(chan struct{}),
		logger:          logrus.StandardLogger(),
		clearColor:      common.DefaultClearColor,
		clearDepth:      1,
		maxDeviceResets: 3,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.profiler == nil {
		e.profiler = profiler.NewProfiler(profiler.WithLogger(e.logger))
	}

	return e
}

func (e *engine) Host() Host {
	return e.host
}

func (e *engine) Manager() frame.Manager {
	return e.manager
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

func (e *engine) SetRenderCallback(callback RenderCallback) {
	e.renderCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	e.renderFrameLimit = frameLimit(fps)
}

func (e *engine) DeviceResets() int {
	return e.deviceResets
}

func (e *engine) Run() error {
	if e.host == nil {
		return ErrNoHost
	}
	if e.manager == nil {
		return ErrNoManager
	}

	if e.manager.State() != frame.StateReady {
		if err := e.manager.Initialize(e.host, e.host.Width(), e.host.Height()); err != nil {
			return fmt.Errorf("engine: initialize frame manager: %w", err)
		}
	}
	defer e.shutdownManager()

	e.host.SetResizeCallback(func(width, height int) {
		e.manager.MarkResized()
	})
	e.host.SetUpdateCallback(e.step)

	e.logger.WithFields(logrus.Fields{
		"size":        e.manager.Size(),
		"frame_limit": e.renderFrameLimit,
	}).Info("engine: render loop started")

	e.lastRender = time.Now()
	e.host.ProcessMessages()

	e.host.SetUpdateCallback(nil)
	e.host.SetResizeCallback(nil)

	if e.err != nil {
		e.logger.WithError(e.err).Error("engine: render loop stopped")
		return e.err
	}
	e.logger.Info("engine: render loop stopped")
	return nil
}

func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal the render loop to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// step runs one iteration of the render loop. It is called from the host's message loop.
func (e *engine) step() {
	select {
	case <-e.quitChannel:
		e.closeHost()
		return
	default:
	}

	now := time.Now()
	dt := float32(now.Sub(e.lastRender).Seconds())
	e.lastRender = now

	err := e.renderFrame(dt)
	if err == nil {
		e.lostInARow = 0
	} else if errors.Is(err, frame.ErrDeviceLost) {
		err = e.resetDevice(err)
	}
	if err != nil {
		e.err = err
		e.signalQuit()
		e.closeHost()
		return
	}

	if e.profilingEnabled && e.profiler != nil {
		e.profiler.Tick()
	}

	// Frame rate limiting
	if e.renderFrameLimit > 0 {
		elapsed := time.Since(now)
		if remaining := e.renderFrameLimit - elapsed; remaining > 0 {
			time.Sleep(remaining)
		}
	}
}

// renderFrame drives one begin/record/present cycle. Skipped frames pass through without error.
func (e *engine) renderFrame(dt float32) error {
	if err := e.manager.BeginFrame(e.clearColor, e.clearDepth); err != nil {
		return err
	}
	if err := e.manager.RunFrame(func(f frame.Frame) error {
		if e.renderCallback == nil {
			return nil
		}
		return e.renderCallback(f, dt)
	}); err != nil {
		return err
	}
	return e.manager.Present()
}

// resetDevice tears down the lost device and builds a new one at the host's current size.
func (e *engine) resetDevice(cause error) error {
	e.deviceResets++
	e.lostInARow++
	if e.maxDeviceResets >= 0 && e.lostInARow > e.maxDeviceResets {
		return fmt.Errorf("%w (%d): %w", ErrTooManyDeviceResets, e.maxDeviceResets, cause)
	}

	e.logger.WithFields(logrus.Fields{
		"reset": e.deviceResets,
		"cause": cause,
	}).Warn("engine: recreating lost device")

	e.shutdownManager()
	if err := e.manager.Initialize(e.host, e.host.Width(), e.host.Height()); err != nil {
		return fmt.Errorf("engine: reinitialize after device loss: %w", err)
	}
	if e.deviceResetCallback != nil {
		if err := e.deviceResetCallback(e.manager); err != nil {
			return fmt.Errorf("engine: device reset callback: %w", err)
		}
	}
	return nil
}

// shutdownManager lets the release callback drop device resources while the device still exists,
// then shuts the manager down.
func (e *engine) shutdownManager() {
	if e.releaseCallback != nil {
		e.releaseCallback(e.manager)
	}
	e.manager.Shutdown()
}

func (e *engine) closeHost() {
	if !e.host.IsRunning() {
		return
	}
	if err := e.host.Close(); err != nil {
		e.logger.WithError(err).Warn("engine: close host")
	}
}

func frameLimit(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}
