// Package frametest provides an in-memory frame.Backend and frame.Surface for testing code built on
// the frame Manager without a GPU. The backend records every call, tracks which resources are
// acquired, reports ordering violations and can be told to fail individual operations.
package frametest

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/frame"
)

// Resource names used by Live and in violation messages.
const (
	ResourceDevice    = "device"
	ResourceContext   = "context"
	ResourceSwapChain = "swap-chain"
)

// Context is the value Backend.Context hands to render callbacks.
type Context struct {
	// Pass counts the passes begun so far, starting at 1.
	Pass int
}

// Backend is a recording frame.Backend. Set the *Err fields to make the matching call fail.
type Backend struct {
	CreateDeviceErr    error
	CreateSwapChainErr error
	ResizeSwapChainErr error
	TargetErr          map[frame.Target]error
	BeginPassErr       error
	PresentErr         error

	// Calls lists every call in order, e.g. "CreateTarget:depth-view".
	Calls []string

	// Violations lists ordering and lifetime mistakes made by the caller.
	Violations []string

	Viewport  common.Size
	LastClear frame.Clear
	Surface   frame.Surface

	live       map[string]bool
	swapSize   common.Size
	passActive bool
	passes     int
}

var _ frame.Backend = &Backend{}

// NewBackend creates a Backend with no injected failures.
func NewBackend() *Backend {
	return &Backend{
		TargetErr: make(map[frame.Target]error),
		live:      make(map[string]bool),
	}
}

// Count returns how many times call was recorded.
func (b *Backend) Count(call string) int {
	n := 0
	for _, c := range b.Calls {
		if c == call {
			n++
		}
	}
	return n
}

// Live returns the sorted names of resources currently acquired.
func (b *Backend) Live() []string {
	names := make([]string, 0, len(b.live))
	for name, ok := range b.live {
		if ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// SwapChainSize returns the size the swap chain was last created or resized to.
func (b *Backend) SwapChainSize() common.Size {
	return b.swapSize
}

// ResetCalls forgets the recorded calls, keeping resource state.
func (b *Backend) ResetCalls() {
	b.Calls = nil
}

func (b *Backend) CreateDevice(surface frame.Surface) error {
	b.record("CreateDevice")
	if b.CreateDeviceErr != nil {
		return b.CreateDeviceErr
	}
	b.acquire(ResourceDevice)
	b.acquire(ResourceContext)
	b.Surface = surface
	return nil
}

func (b *Backend) ReleaseDevice() {
	b.record("ReleaseDevice")
	if b.live[ResourceSwapChain] {
		b.violate("device released before swap chain")
	}
	b.release(ResourceDevice)
}

func (b *Backend) ReleaseContext() {
	b.record("ReleaseContext")
	b.release(ResourceContext)
}

func (b *Backend) CreateSwapChain(size common.Size) error {
	b.record("CreateSwapChain")
	if !b.live[ResourceDevice] {
		b.violate("swap chain created without device")
	}
	if b.CreateSwapChainErr != nil {
		return b.CreateSwapChainErr
	}
	b.acquire(ResourceSwapChain)
	b.swapSize = size
	return nil
}

func (b *Backend) ResizeSwapChain(size common.Size) error {
	b.record("ResizeSwapChain")
	if !b.live[ResourceSwapChain] {
		b.violate("resize without swap chain")
	}
	for _, t := range allTargets() {
		if b.live[t.String()] {
			b.violate(fmt.Sprintf("resize with live %s", t))
		}
	}
	if b.ResizeSwapChainErr != nil {
		return b.ResizeSwapChainErr
	}
	b.swapSize = size
	return nil
}

func (b *Backend) ReleaseSwapChain() {
	b.record("ReleaseSwapChain")
	for _, t := range allTargets() {
		if b.live[t.String()] {
			b.violate(fmt.Sprintf("swap chain released with live %s", t))
		}
	}
	b.release(ResourceSwapChain)
}

func (b *Backend) CreateTarget(target frame.Target, size common.Size) error {
	b.record("CreateTarget:" + target.String())
	if !b.live[ResourceSwapChain] {
		b.violate(fmt.Sprintf("%s created without swap chain", target))
	}
	if size != b.swapSize {
		b.violate(fmt.Sprintf("%s created at %s, swap chain is %s", target, size, b.swapSize))
	}
	switch target {
	case frame.TargetRenderView:
		if !b.live[frame.TargetBackBuffer.String()] {
			b.violate("render view created without back buffer")
		}
	case frame.TargetDepthView:
		if !b.live[frame.TargetDepthBuffer.String()] {
			b.violate("depth view created without depth buffer")
		}
	}
	if err := b.TargetErr[target]; err != nil {
		return err
	}
	b.acquire(target.String())
	return nil
}

func (b *Backend) ReleaseTarget(target frame.Target) {
	b.record("ReleaseTarget:" + target.String())
	switch target {
	case frame.TargetBackBuffer:
		if b.live[frame.TargetRenderView.String()] {
			b.violate("back buffer released before render view")
		}
		b.passActive = false
	case frame.TargetDepthBuffer:
		if b.live[frame.TargetDepthView.String()] {
			b.violate("depth buffer released before depth view")
		}
	}
	b.release(target.String())
}

func (b *Backend) SetViewport(size common.Size) {
	b.record("SetViewport")
	b.Viewport = size
}

func (b *Backend) BeginPass(clear frame.Clear) error {
	b.record("BeginPass")
	if b.passActive {
		b.violate("pass begun twice")
	}
	for _, t := range allTargets() {
		if !b.live[t.String()] {
			b.violate(fmt.Sprintf("pass begun without %s", t))
		}
	}
	if b.Viewport != b.swapSize {
		b.violate(fmt.Sprintf("viewport %s does not match swap chain %s", b.Viewport, b.swapSize))
	}
	if b.BeginPassErr != nil {
		return b.BeginPassErr
	}
	b.LastClear = clear
	b.passActive = true
	b.passes++
	return nil
}

func (b *Backend) Context() any {
	return &Context{Pass: b.passes}
}

func (b *Backend) Present() error {
	b.record("Present")
	if !b.passActive {
		return errors.New("frametest: present without active pass")
	}
	b.passActive = false
	return b.PresentErr
}

func (b *Backend) record(call string) {
	b.Calls = append(b.Calls, call)
}

func (b *Backend) violate(msg string) {
	b.Violations = append(b.Violations, msg)
}

func (b *Backend) acquire(name string) {
	if b.live[name] {
		b.violate(name + " acquired twice")
	}
	b.live[name] = true
}

func (b *Backend) release(name string) {
	if !b.live[name] {
		b.violate(name + " released while not acquired")
	}
	b.live[name] = false
}

func allTargets() []frame.Target {
	return []frame.Target{
		frame.TargetBackBuffer,
		frame.TargetRenderView,
		frame.TargetDepthBuffer,
		frame.TargetDepthView,
	}
}

// Surface is a frame.Surface with a settable size.
type Surface struct {
	W, H int
}

var _ frame.Surface = &Surface{}

// NewSurface creates a Surface of the given size.
func NewSurface(width, height int) *Surface {
	return &Surface{W: width, H: height}
}

func (s *Surface) Width() int  { return s.W }
func (s *Surface) Height() int { return s.H }

// SetSize simulates the window being resized.
func (s *Surface) SetSize(width, height int) {
	s.W, s.H = width, height
}
