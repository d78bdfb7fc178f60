package device

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	qt "github.com/frankban/quicktest"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/frame"
	"github.com/Carmen-Shannon/oxy-frame/engine/frame/frametest"
)

type nilDescriptorSurface struct {
	*frametest.Surface
}

func (nilDescriptorSurface) SurfaceDescriptor() *wgpu.SurfaceDescriptor { return nil }

func TestNewBackendOptions(t *testing.T) {
	tests := []struct {
		name        string
		options     []BackendBuilderOption
		wantPresent wgpu.PresentMode
		wantDepth   wgpu.TextureFormat
		wantForce   bool
	}{
		{
			name:        "defaults",
			wantPresent: wgpu.PresentModeFifo,
			wantDepth:   wgpu.TextureFormatDepth24Plus,
		},
		{
			name: "uncapped software depth32",
			options: []BackendBuilderOption{
				WithPresentMode(PresentModeUncapped),
				WithForceSoftwareRenderer(true),
				WithDepthFormat(wgpu.TextureFormatDepth32Float),
			},
			wantPresent: wgpu.PresentModeImmediate,
			wantDepth:   wgpu.TextureFormatDepth32Float,
			wantForce:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			b, ok := NewBackend(BackendTypeWGPU, tt.options...).(*wgpuBackend)
			c.Assert(ok, qt.IsTrue)
			c.Assert(b.presentMode, qt.Equals, tt.wantPresent)
			c.Assert(b.cfg.depthFormat, qt.Equals, tt.wantDepth)
			c.Assert(b.cfg.forceFallbackAdapter, qt.Equals, tt.wantForce)
		})
	}
}

func TestCreateDeviceRejectsPlainSurface(t *testing.T) {
	c := qt.New(t)
	b := NewBackend(BackendTypeWGPU)

	err := b.CreateDevice(frametest.NewSurface(800, 600))
	c.Assert(err, qt.ErrorMatches, `device: surface \*frametest.Surface cannot describe a WebGPU surface`)

	err = b.CreateDevice(nilDescriptorSurface{frametest.NewSurface(800, 600)})
	c.Assert(err, qt.ErrorMatches, "device: window has no native surface")
}

func TestManagerReportsDeviceCreationError(t *testing.T) {
	c := qt.New(t)
	m := frame.NewManager(NewBackend(BackendTypeWGPU))

	err := m.Initialize(frametest.NewSurface(800, 600), 800, 600)
	c.Assert(err, qt.ErrorIs, frame.ErrDeviceCreation)
	c.Assert(m.State(), qt.Equals, frame.StateUninitialized)
}

func TestOperationsWithoutDevice(t *testing.T) {
	c := qt.New(t)
	b := NewBackend(BackendTypeWGPU)

	c.Assert(b.ResizeSwapChain(common.Size{Width: 10, Height: 10}), qt.ErrorMatches, "device: resize before the surface was configured")
	c.Assert(b.CreateTarget(frame.TargetBackBuffer, common.Size{Width: 10, Height: 10}), qt.IsNotNil)
	c.Assert(b.CreateTarget(frame.TargetRenderView, common.Size{Width: 10, Height: 10}), qt.IsNotNil)
	c.Assert(b.CreateTarget(frame.TargetDepthView, common.Size{Width: 10, Height: 10}), qt.IsNotNil)
	c.Assert(b.BeginPass(frame.Clear{Depth: 1}), qt.ErrorMatches, "device: frame targets not created")
	c.Assert(b.Present(), qt.ErrorMatches, "device: present without an active pass")

	// Releasing unacquired objects is a no-op.
	b.ReleaseTarget(frame.TargetDepthView)
	b.ReleaseTarget(frame.TargetDepthBuffer)
	b.ReleaseTarget(frame.TargetRenderView)
	b.ReleaseTarget(frame.TargetBackBuffer)
	b.ReleaseSwapChain()
	b.ReleaseDevice()
	b.ReleaseContext()

	ctx, ok := b.Context().(*Context)
	c.Assert(ok, qt.IsTrue)
	c.Assert(ctx.Pass == nil, qt.IsTrue)
}

func TestUploadTextureWithoutDevice(t *testing.T) {
	c := qt.New(t)

	_, err := UploadTexture(nil, "checker", 2, 2, make([]byte, 16))
	c.Assert(err, qt.ErrorMatches, "device: texture upload without a device")

	_, err = UploadTexture(&Context{}, "checker", 2, 2, make([]byte, 16))
	c.Assert(err, qt.ErrorMatches, "device: texture upload without a device")
}
