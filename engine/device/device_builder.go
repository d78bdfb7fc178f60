package device

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/sirupsen/logrus"
)

// BackendBuilderOption is a functional option applied to a backend during construction via NewBackend.
type BackendBuilderOption func(*backendConfig)

// WithPresentMode sets the surface present mode. The default is PresentModeVSync.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - BackendBuilderOption: a function that applies the present mode option
func WithPresentMode(mode PresentMode) BackendBuilderOption {
	return func(c *backendConfig) {
		c.presentMode = mode
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - BackendBuilderOption: a function that applies the fallback adapter option
func WithForceSoftwareRenderer(force bool) BackendBuilderOption {
	return func(c *backendConfig) {
		c.forceFallbackAdapter = force
	}
}

// WithDepthFormat sets the depth buffer format. Only depth formats without a stencil aspect
// (Depth16Unorm, Depth24Plus, Depth32Float) are supported. The default is Depth24Plus.
//
// Parameters:
//   - format: the depth texture format
//
// Returns:
//   - BackendBuilderOption: a function that applies the depth format option
func WithDepthFormat(format wgpu.TextureFormat) BackendBuilderOption {
	return func(c *backendConfig) {
		c.depthFormat = format
	}
}

// WithLogger sets the logger for device events. Defaults to the logrus standard logger.
func WithLogger(logger logrus.FieldLogger) BackendBuilderOption {
	return func(c *backendConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}
