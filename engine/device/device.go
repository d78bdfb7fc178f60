// Package device provides the GPU backends driven by the frame Manager.
package device

import (
	"github.com/Carmen-Shannon/oxy-frame/engine/frame"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/sirupsen/logrus"
)

// BackendType identifies the GPU backend implementation.
type BackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based backend.
	BackendTypeWGPU BackendType = iota
)

// PresentMode controls how presented frames are delivered to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents immediately without waiting for vertical blank.
	PresentModeUncapped
)

// SurfaceProvider is implemented by windows that can describe their native surface to WebGPU.
type SurfaceProvider interface {
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
}

// Context is the native context handed to frame callbacks by the WebGPU backend.
// Pass is only valid between BeginFrame and Present.
type Context struct {
	Device *wgpu.Device
	Queue  *wgpu.Queue
	Pass   *wgpu.RenderPassEncoder

	// ColorFormat is the swap chain texture format, needed to build compatible render pipelines.
	ColorFormat wgpu.TextureFormat

	// DepthFormat is the depth target format.
	DepthFormat wgpu.TextureFormat
}

// backendConfig is collected from builder options before the backend is created.
type backendConfig struct {
	presentMode          PresentMode
	forceFallbackAdapter bool
	depthFormat          wgpu.TextureFormat
	logger               logrus.FieldLogger
}

// NewBackend creates a frame.Backend of the given type. No GPU objects are created until the
// frame Manager calls CreateDevice.
//
// Parameters:
//   - backendType: the type of backend to create (e.g. WGPU)
//   - options: variadic list of BackendBuilderOption functions to configure the backend
//
// Returns:
//   - frame.Backend: the configured backend
func NewBackend(backendType BackendType, options ...BackendBuilderOption) frame.Backend {
	cfg := backendConfig{
		presentMode: PresentModeVSync,
		depthFormat: wgpu.TextureFormatDepth24Plus,
		logger:      logrus.StandardLogger(),
	}
	for _, opt := range options {
		opt(&cfg)
	}

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		return newWGPUBackend(cfg)
	}
}
