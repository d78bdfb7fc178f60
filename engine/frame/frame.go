package frame

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"
)

// State is the lifecycle state of a Manager.
type State int

const (
	// StateUninitialized is the state before Initialize and after Shutdown.
	StateUninitialized State = iota

	// StateReady means the device, swap chain and frame targets are usable.
	StateReady

	// StateDeviceLost is terminal until Initialize is called again.
	StateDeviceLost

	// StateFailed follows a failed target rebuild. Everything has been released; Initialize must be called again.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateDeviceLost:
		return "device-lost"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Frame is what a RenderFunc receives for the frame being recorded.
type Frame struct {
	// Context is the backend's native command context (see Backend.Context).
	Context any

	View       mgl32.Mat4
	Projection Projection

	// Size is the size of the targets being rendered to.
	Size common.Size

	// Index counts presented frames since Initialize.
	Index uint64
}

// RenderFunc issues the draw submissions for a single frame.
// Returning an error that wraps ErrDeviceLost moves the Manager into StateDeviceLost.
type RenderFunc func(f Frame) error

type framePhase int

const (
	phaseIdle framePhase = iota
	phaseActive
	phaseSkipped
)

// liveSet tracks which resources are currently acquired so each one has exactly one release path.
type liveSet struct {
	device    bool
	context   bool
	swapChain bool
	targets   [targetCount]bool
}

// manager is the implementation of the Manager interface.
type manager struct {
	backend Backend
	logger  logrus.FieldLogger

	surface Surface
	state   State
	failure error
	live    liveSet

	size            common.Size
	resizeRequested bool
	phase           framePhase
	frameIndex      uint64
	rebuilds        int

	projection Projection
	view       mgl32.Mat4

	// Pre-creation config collected from builder options
	fovY         float32
	near         float32
	far          float32
	clipSpace    ClipSpace
	defaultClear Clear
	onRebuild    func(p Projection)
}

// Manager owns a graphics device, its swap chain and the size-dependent frame targets, and sequences
// the per-frame begin/render/present cycle so that rendering never observes stale-sized targets.
//
// A Manager is single-threaded: every method must be called from the goroutine that owns the window
// message loop. Resize notifications are coalesced and applied at the next BeginFrame.
type Manager interface {
	// Initialize creates the device, swap chain and initial frame targets.
	// A zero-area size only creates the device; the swap chain is built at the first non-empty BeginFrame.
	// May be called again after Shutdown or from StateDeviceLost/StateFailed.
	//
	// Parameters:
	//   - surface: the windowing collaborator providing the current client size
	//   - width: the initial back buffer width in pixels
	//   - height: the initial back buffer height in pixels
	//
	// Returns:
	//   - error: ErrDeviceCreation if no device could be created, ErrAlreadyInitialized if Ready,
	//     or the failure of a later creation step. Nothing stays acquired on error.
	Initialize(surface Surface, width, height int) error

	// MarkResized flags the frame targets for a rebuild at the next BeginFrame.
	// Any number of calls between two frames results in a single rebuild.
	MarkResized()

	// BeginFrame applies a pending resize and clears the color and depth targets.
	// While the surface has zero area the frame is skipped: no device calls are made and the
	// following RunFrame and Present are no-ops.
	//
	// Parameters:
	//   - color: the color clear value
	//   - depth: the depth clear value
	//
	// Returns:
	//   - error: ErrResizeFailed if the rebuild failed, ErrDeviceLost if the pass could not begin,
	//     ErrFrameInProgress if the previous frame was not presented
	BeginFrame(color common.Color, depth float32) error

	// RunFrame invokes render with the current context, view and projection.
	// If no frame has begun, BeginFrame runs first with the default clear values.
	//
	// Parameters:
	//   - render: the callback issuing draw submissions (nil draws nothing)
	//
	// Returns:
	//   - error: the callback error, or the error of the implicit BeginFrame
	RunFrame(render RenderFunc) error

	// Present submits the frame and presents the back buffer.
	// A failed present moves the Manager into StateDeviceLost.
	//
	// Returns:
	//   - error: ErrDeviceLost if presenting failed
	Present() error

	// Shutdown releases every owned resource in reverse acquisition order.
	// Safe to call in any state and more than once.
	Shutdown()

	// State returns the current lifecycle state.
	State() State

	// Size returns the size the frame targets were last built at.
	Size() common.Size

	// Projection returns the projection derived from the current frame targets.
	Projection() Projection

	// View returns the view matrix handed to render callbacks.
	View() mgl32.Mat4

	// SetView sets the view matrix handed to render callbacks.
	//
	// Parameters:
	//   - view: the column-major view matrix
	SetView(view mgl32.Mat4)

	// ResizePending reports whether a resize is flagged and not yet applied.
	ResizePending() bool

	// Rebuilds returns how many times the frame targets were rebuilt after Initialize.
	Rebuilds() int

	// FrameIndex returns the number of frames presented since Initialize.
	FrameIndex() uint64
}

var _ Manager = &manager{}

// NewManager creates a Manager driving the given backend. The Manager is not usable until Initialize.
//
// Parameters:
//   - backend: the graphics API backend
//   - options: functional options to configure the Manager
//
// Returns:
//   - Manager: the configured, uninitialized Manager
func NewManager(backend Backend, options ...ManagerBuilderOption) Manager {
	m := &manager{
		backend:      backend,
		logger:       logrus.StandardLogger(),
		fovY:         DefaultFovY,
		near:         DefaultNear,
		far:          DefaultFar,
		clipSpace:    ClipSpaceZeroToOne,
		defaultClear: Clear{Color: common.DefaultClearColor, Depth: 1},
		view:         DefaultView(),
	}
	for _, opt := range options {
		opt(m)
	}
	m.projection = NewProjection(common.Size{}, m.fovY, m.near, m.far, m.clipSpace)
	return m
}

func (m *manager) Initialize(surface Surface, width, height int) error {
	switch m.state {
	case StateReady:
		return ErrAlreadyInitialized
	case StateDeviceLost, StateFailed:
		m.releaseAll()
	}
	if surface == nil {
		return errors.New("frame: nil surface")
	}

	m.surface = surface
	m.state = StateUninitialized
	m.failure = nil
	m.phase = phaseIdle
	m.resizeRequested = false
	m.frameIndex = 0
	m.rebuilds = 0
	m.size = common.Size{}
	m.projection = m.projection.Resized(common.Size{})

	if err := m.backend.CreateDevice(surface); err != nil {
		return fmt.Errorf("%w: %w", ErrDeviceCreation, err)
	}
	m.live.device = true
	m.live.context = true

	size := common.Size{Width: width, Height: height}
	if size.Empty() {
		m.resizeRequested = true
		m.state = StateReady
		m.logger.WithField("size", size).Info("frame: device created, deferring swap chain until the surface has an area")
		return nil
	}

	if err := m.backend.CreateSwapChain(size); err != nil {
		m.releaseAll()
		return fmt.Errorf("frame: create swap chain %s: %w", size, err)
	}
	m.live.swapChain = true

	if err := m.createTargets(size); err != nil {
		m.releaseAll()
		return err
	}
	m.applySize(size)
	m.state = StateReady

	m.logger.WithFields(logrus.Fields{
		"size":   size,
		"aspect": m.projection.Aspect,
	}).Info("frame: initialized")
	return nil
}

func (m *manager) MarkResized() {
	m.resizeRequested = true
}

func (m *manager) BeginFrame(color common.Color, depth float32) error {
	if err := m.usable(); err != nil {
		return err
	}
	if m.phase != phaseIdle {
		return ErrFrameInProgress
	}

	if m.resizeRequested {
		size := common.Size{Width: m.surface.Width(), Height: m.surface.Height()}
		if size.Empty() {
			m.phase = phaseSkipped
			return nil
		}
		if err := m.rebuild(size); err != nil {
			return err
		}
	}

	if err := m.backend.BeginPass(Clear{Color: color, Depth: depth}); err != nil {
		if errors.Is(err, ErrSurfaceOutdated) {
			m.resizeRequested = true
			m.phase = phaseSkipped
			m.logger.WithError(err).Debug("frame: surface outdated, skipping frame")
			return nil
		}
		return m.markLost(fmt.Errorf("%w: begin pass: %w", ErrDeviceLost, err))
	}
	m.phase = phaseActive
	return nil
}

func (m *manager) RunFrame(render RenderFunc) error {
	if err := m.usable(); err != nil {
		return err
	}
	if m.phase == phaseIdle {
		if err := m.BeginFrame(m.defaultClear.Color, m.defaultClear.Depth); err != nil {
			return err
		}
	}
	if m.phase == phaseSkipped || render == nil {
		return nil
	}

	err := render(Frame{
		Context:    m.backend.Context(),
		View:       m.view,
		Projection: m.projection,
		Size:       m.size,
		Index:      m.frameIndex,
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrDeviceLost) {
		return m.markLost(err)
	}
	return fmt.Errorf("frame: render callback: %w", err)
}

func (m *manager) Present() error {
	if err := m.usable(); err != nil {
		return err
	}
	if m.phase == phaseIdle {
		if err := m.BeginFrame(m.defaultClear.Color, m.defaultClear.Depth); err != nil {
			return err
		}
	}
	if m.phase == phaseSkipped {
		m.phase = phaseIdle
		return nil
	}

	m.phase = phaseIdle
	if err := m.backend.Present(); err != nil {
		return m.markLost(fmt.Errorf("%w: present: %w", ErrDeviceLost, err))
	}
	m.frameIndex++
	return nil
}

func (m *manager) Shutdown() {
	m.releaseAll()
	if m.state != StateUninitialized {
		m.logger.WithFields(logrus.Fields{
			"state":  m.state,
			"frames": m.frameIndex,
		}).Info("frame: shut down")
	}
	m.state = StateUninitialized
	m.failure = nil
	m.surface = nil
	m.resizeRequested = false
}

func (m *manager) State() State {
	return m.state
}

func (m *manager) Size() common.Size {
	return m.size
}

func (m *manager) Projection() Projection {
	return m.projection
}

func (m *manager) View() mgl32.Mat4 {
	return m.view
}

func (m *manager) SetView(view mgl32.Mat4) {
	m.view = view
}

func (m *manager) ResizePending() bool {
	return m.resizeRequested
}

func (m *manager) Rebuilds() int {
	return m.rebuilds
}

func (m *manager) FrameIndex() uint64 {
	return m.frameIndex
}

// usable returns nil when frame operations may run, or the error describing why they may not.
func (m *manager) usable() error {
	switch m.state {
	case StateReady:
		return nil
	case StateDeviceLost, StateFailed:
		return m.failure
	default:
		return ErrNotInitialized
	}
}

// rebuild releases the frame targets, resizes the swap chain and recreates the targets at size.
// Any failure releases everything and leaves the Manager in StateFailed.
func (m *manager) rebuild(size common.Size) error {
	m.releaseTargets()

	var err error
	if m.live.swapChain {
		err = m.backend.ResizeSwapChain(size)
	} else {
		err = m.backend.CreateSwapChain(size)
		m.live.swapChain = err == nil
	}
	if err != nil {
		return m.fail(fmt.Errorf("%w: %s: %w", ErrResizeFailed, size, err))
	}

	if err := m.createTargets(size); err != nil {
		return m.fail(fmt.Errorf("%w: %s: %w", ErrResizeFailed, size, err))
	}

	m.resizeRequested = false
	m.rebuilds++
	m.applySize(size)

	m.logger.WithFields(logrus.Fields{
		"size":     size,
		"aspect":   m.projection.Aspect,
		"rebuilds": m.rebuilds,
	}).Debug("frame: targets rebuilt")
	return nil
}

// createTargets creates every frame target in dependency order.
// On failure the targets created so far are released before returning.
func (m *manager) createTargets(size common.Size) error {
	for _, t := range creationOrder {
		if err := m.backend.CreateTarget(t, size); err != nil {
			m.releaseTargets()
			return fmt.Errorf("frame: create %s %s: %w", t, size, err)
		}
		m.live.targets[t] = true
	}
	return nil
}

// applySize records a successfully built target size and derives the viewport and projection from it.
func (m *manager) applySize(size common.Size) {
	m.size = size
	m.backend.SetViewport(size)
	m.projection = m.projection.Resized(size)
	if m.onRebuild != nil {
		m.onRebuild(m.projection)
	}
}

// releaseTargets releases the live frame targets in reverse dependency order.
func (m *manager) releaseTargets() {
	for i := len(creationOrder) - 1; i >= 0; i-- {
		t := creationOrder[i]
		if !m.live.targets[t] {
			continue
		}
		m.backend.ReleaseTarget(t)
		m.live.targets[t] = false
	}
}

// releaseAll releases everything still acquired: frame targets, swap chain, device, then context.
func (m *manager) releaseAll() {
	m.releaseTargets()
	if m.live.swapChain {
		m.backend.ReleaseSwapChain()
		m.live.swapChain = false
	}
	if m.live.device {
		m.backend.ReleaseDevice()
		m.live.device = false
	}
	if m.live.context {
		m.backend.ReleaseContext()
		m.live.context = false
	}
	m.phase = phaseIdle
}

func (m *manager) fail(err error) error {
	m.releaseAll()
	m.state = StateFailed
	m.failure = err
	m.logger.WithError(err).Error("frame: target rebuild failed")
	return err
}

// markLost moves the Manager into StateDeviceLost. Resources stay acquired until Shutdown or Initialize.
func (m *manager) markLost(err error) error {
	m.phase = phaseIdle
	m.state = StateDeviceLost
	m.failure = err
	m.logger.WithError(err).Warn("frame: device lost")
	return err
}
