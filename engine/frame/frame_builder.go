package frame

import (
	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"
)

// ManagerBuilderOption is a functional option applied to a Manager during construction via NewManager.
type ManagerBuilderOption func(*manager)

// WithProjection sets the lens used to derive the projection on every rebuild.
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
//
// Returns:
//   - ManagerBuilderOption: a function that applies the projection option to a Manager
func WithProjection(fovY, near, far float32) ManagerBuilderOption {
	return func(m *manager) {
		m.fovY = fovY
		m.near = near
		m.far = far
	}
}

// WithClipSpace sets the depth range convention of the backend. The default is ClipSpaceZeroToOne.
//
// Parameters:
//   - clip: the clip space convention
//
// Returns:
//   - ManagerBuilderOption: a function that applies the clip space option to a Manager
func WithClipSpace(clip ClipSpace) ManagerBuilderOption {
	return func(m *manager) {
		m.clipSpace = clip
	}
}

// WithDefaultClear sets the clear values used when RunFrame or Present begin a frame implicitly.
//
// Parameters:
//   - color: the color clear value
//   - depth: the depth clear value
//
// Returns:
//   - ManagerBuilderOption: a function that applies the clear option to a Manager
func WithDefaultClear(color common.Color, depth float32) ManagerBuilderOption {
	return func(m *manager) {
		m.defaultClear = Clear{Color: color, Depth: depth}
	}
}

// WithView sets the initial view matrix handed to render callbacks.
//
// Parameters:
//   - view: the column-major view matrix
//
// Returns:
//   - ManagerBuilderOption: a function that applies the view option to a Manager
func WithView(view mgl32.Mat4) ManagerBuilderOption {
	return func(m *manager) {
		m.view = view
	}
}

// WithLogger sets the logger for lifecycle events. Defaults to the logrus standard logger.
func WithLogger(logger logrus.FieldLogger) ManagerBuilderOption {
	return func(m *manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithRebuildCallback registers a function called with the new projection every time the frame targets
// are built, including the initial build. Use it to keep camera aspect ratios in sync.
//
// Parameters:
//   - callback: function receiving the recomputed Projection
//
// Returns:
//   - ManagerBuilderOption: a function that applies the callback option to a Manager
func WithRebuildCallback(callback func(p Projection)) ManagerBuilderOption {
	return func(m *manager) {
		m.onRebuild = callback
	}
}
