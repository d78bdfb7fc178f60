package engine

import (
	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/frame"
	"github.com/Carmen-Shannon/oxy-frame/engine/profiler"
	"github.com/sirupsen/logrus"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithProfiler replaces the default profiler.
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = p
	}
}

// WithWindow sets the host window the engine renders into.
//
// Parameters:
//   - h: a created Host, usually a window.Window
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(h Host) EngineBuilderOption {
	return func(e *engine) {
		e.host = h
	}
}

// WithManager sets the frame Manager the engine drives. An uninitialized Manager is
// initialized against the host when Run starts.
//
// Parameters:
//   - m: the frame Manager
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithManager(m frame.Manager) EngineBuilderOption {
	return func(e *engine) {
		e.manager = m
	}
}

// WithRenderCallback registers the function that records each frame's draw commands.
//
// Parameters:
//   - callback: function called once per non-skipped frame
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderCallback(callback RenderCallback) EngineBuilderOption {
	return func(e *engine) {
		e.renderCallback = callback
	}
}

// WithClearColor sets the color and depth clear values used for every frame.
//
// Parameters:
//   - color: the color clear value
//   - depth: the depth clear value
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithClearColor(color common.Color, depth float32) EngineBuilderOption {
	return func(e *engine) {
		e.clearColor = color
		e.clearDepth = depth
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.renderFrameLimit = frameLimit(fps)
	}
}

// WithMaxDeviceResets bounds how many times in a row a lost device is recreated before Run gives up.
// The count starts over once a frame is presented. Defaults to 3. A negative value allows unlimited
// resets; 0 makes device loss fatal.
func WithMaxDeviceResets(n int) EngineBuilderOption {
	return func(e *engine) {
		e.maxDeviceResets = n
	}
}

// WithDeviceResetCallback registers a function called after the device was recreated, so GPU
// resources bound to the old device can be reloaded. Returning an error stops the engine.
func WithDeviceResetCallback(callback func(m frame.Manager) error) EngineBuilderOption {
	return func(e *engine) {
		e.deviceResetCallback = callback
	}
}

// WithReleaseCallback registers a function called right before the frame Manager shuts the device
// down, both when Run returns and before a lost device is recreated. Release GPU resources created
// on the device here.
func WithReleaseCallback(callback func(m frame.Manager)) EngineBuilderOption {
	return func(e *engine) {
		e.releaseCallback = callback
	}
}

// WithLogger sets the logger for loop events. Defaults to the logrus standard logger.
func WithLogger(logger logrus.FieldLogger) EngineBuilderOption {
	return func(e *engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}
