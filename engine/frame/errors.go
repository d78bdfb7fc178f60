package frame

import "errors"

var (
	// ErrDeviceCreation is returned by Initialize when the backend reports no supported adapter or driver.
	ErrDeviceCreation = errors.New("frame: device creation failed")

	// ErrResizeFailed is returned by BeginFrame when rebuilding size-dependent targets fails.
	// The Manager releases everything it owns and must be initialized again.
	ErrResizeFailed = errors.New("frame: swap chain resize failed")

	// ErrDeviceLost is returned once the device stopped accepting commands.
	// Every frame operation keeps returning it until Initialize is called again.
	ErrDeviceLost = errors.New("frame: device lost")

	// ErrNotInitialized is returned by frame operations before Initialize or after Shutdown.
	ErrNotInitialized = errors.New("frame: manager not initialized")

	// ErrAlreadyInitialized is returned by Initialize while the Manager is Ready.
	ErrAlreadyInitialized = errors.New("frame: manager already initialized")

	// ErrSurfaceOutdated is returned by a Backend's BeginPass when the surface no longer matches its
	// configuration (outdated, timed out). The Manager skips the frame and rebuilds at the next BeginFrame.
	ErrSurfaceOutdated = errors.New("frame: surface outdated")

	// ErrFrameInProgress is returned by BeginFrame when the previous frame was not presented.
	ErrFrameInProgress = errors.New("frame: previous frame not presented")
)
