package frame

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-frame/common"
)

// Target identifies one of the size-dependent frame targets owned by the Manager.
type Target int

const (
	// TargetBackBuffer is the swap chain's current presentable buffer.
	TargetBackBuffer Target = iota

	// TargetRenderView is the render-target view over the back buffer.
	TargetRenderView

	// TargetDepthBuffer is the depth/stencil texture sized to the swap chain.
	TargetDepthBuffer

	// TargetDepthView is the depth-stencil view over the depth buffer.
	TargetDepthView

	targetCount
)

// creationOrder lists targets in dependency order: each target only depends on targets before it.
// Targets are released in the reverse of this order.
var creationOrder = [targetCount]Target{
	TargetBackBuffer,
	TargetRenderView,
	TargetDepthBuffer,
	TargetDepthView,
}

func (t Target) String() string {
	switch t {
	case TargetBackBuffer:
		return "back-buffer"
	case TargetRenderView:
		return "render-view"
	case TargetDepthBuffer:
		return "depth-buffer"
	case TargetDepthView:
		return "depth-view"
	default:
		return fmt.Sprintf("target(%d)", int(t))
	}
}

// Clear holds the values the color and depth targets are cleared to at the start of a frame.
type Clear struct {
	Color common.Color
	Depth float32
}

// Surface is the windowing collaborator the Manager renders into.
// Width and Height report the current client (framebuffer) size in pixels.
type Surface interface {
	Width() int
	Height() int
}

// Backend is the graphics API seam driven by the Manager.
// The Manager owns ordering and lifetime; a Backend only performs the individual acquire/release calls
// and must not release anything on its own. All methods are called from the goroutine owning the Manager.
type Backend interface {
	// CreateDevice creates the graphics device and its immediate context for the given surface.
	// An error means no supported adapter or driver could be used.
	//
	// Parameters:
	//   - surface: the windowing collaborator to render into
	//
	// Returns:
	//   - error: an error if device creation fails
	CreateDevice(surface Surface) error

	// ReleaseDevice destroys the graphics device.
	ReleaseDevice()

	// ReleaseContext destroys the immediate context created alongside the device.
	ReleaseContext()

	// CreateSwapChain creates the presentable buffers for the surface at the given size.
	//
	// Parameters:
	//   - size: the back buffer size in pixels
	//
	// Returns:
	//   - error: an error if the swap chain could not be created
	CreateSwapChain(size common.Size) error

	// ResizeSwapChain resizes all swap chain buffers. Every frame target must be released before this is called.
	//
	// Parameters:
	//   - size: the new back buffer size in pixels
	//
	// Returns:
	//   - error: an error if the resize was rejected
	ResizeSwapChain(size common.Size) error

	// ReleaseSwapChain destroys the swap chain.
	ReleaseSwapChain()

	// CreateTarget creates a single frame target at the given size.
	//
	// Parameters:
	//   - target: which frame target to create
	//   - size: the target size in pixels
	//
	// Returns:
	//   - error: an error if the target could not be created
	CreateTarget(target Target, size common.Size) error

	// ReleaseTarget destroys a single frame target.
	//
	// Parameters:
	//   - target: which frame target to release
	ReleaseTarget(target Target)

	// SetViewport sets the rasterizer viewport to cover the full target size with a [0, 1] depth range.
	//
	// Parameters:
	//   - size: the viewport size in pixels
	SetViewport(size common.Size)

	// BeginPass binds the frame targets and clears them.
	//
	// Parameters:
	//   - clear: the color and depth clear values
	//
	// Returns:
	//   - error: an error wrapping ErrSurfaceOutdated if the surface must be reconfigured first,
	//     any other error if the device can no longer start a pass
	BeginPass(clear Clear) error

	// Context returns the native command context handed to frame callbacks during an active pass.
	//
	// Returns:
	//   - any: the backend-specific context
	Context() any

	// Present ends the active pass, submits it and presents the back buffer.
	//
	// Returns:
	//   - error: an error if submission or presentation failed
	Present() error
}
