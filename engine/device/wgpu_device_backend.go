package device

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/frame"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/sirupsen/logrus"
)

// wgpuBackend implements frame.Backend on top of WebGPU.
//
// WebGPU has no resizable swap chain object: the configured surface plays that role and hands out
// its current texture once per frame. The back buffer and render-target view are therefore acquired
// in BeginPass and dropped in Present; their CreateTarget/ReleaseTarget calls only gate that.
type wgpuBackend struct {
	cfg    backendConfig
	logger logrus.FieldLogger

	instance *wgpu.Instance
	surface  *wgpu.Surface
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode
	configured    bool
	swapSize      common.Size
	viewport      common.Size

	backBufferReady bool
	renderViewReady bool
	depthTexture    *wgpu.Texture
	depthView       *wgpu.TextureView

	// Frame state for the pass between BeginPass and Present
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
}

var _ frame.Backend = &wgpuBackend{}

func newWGPUBackend(cfg backendConfig) *wgpuBackend {
	b := &wgpuBackend{
		cfg:    cfg,
		logger: cfg.logger,
	}
	switch cfg.presentMode {
	case PresentModeUncapped:
		b.presentMode = wgpu.PresentModeImmediate
	case PresentModeVSync:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeFifo
	}
	return b
}

// CreateDevice must be called from the thread owning the window; the caller locks it.
func (b *wgpuBackend) CreateDevice(surface frame.Surface) error {
	provider, ok := surface.(SurfaceProvider)
	if !ok {
		return fmt.Errorf("device: surface %T cannot describe a WebGPU surface", surface)
	}
	descriptor := provider.SurfaceDescriptor()
	if descriptor == nil {
		return errors.New("device: window has no native surface")
	}

	b.instance = wgpu.CreateInstance(nil)
	b.surface = b.instance.CreateSurface(descriptor)

	adapter, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: b.cfg.forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		b.releaseInstance()
		return fmt.Errorf("device: request adapter: %w", err)
	}
	b.adapter = adapter

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Frame Device",
	})
	if err != nil {
		b.adapter.Release()
		b.adapter = nil
		b.releaseInstance()
		return fmt.Errorf("device: request device: %w", err)
	}
	b.device = device
	b.queue = device.GetQueue()

	b.logger.WithFields(logrus.Fields{
		"fallback": b.cfg.forceFallbackAdapter,
		"present":  b.presentMode,
	}).Info("device: WebGPU device created")
	return nil
}

func (b *wgpuBackend) ReleaseDevice() {
	b.dropFrame()
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	b.releaseInstance()
}

func (b *wgpuBackend) ReleaseContext() {
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
}

func (b *wgpuBackend) CreateSwapChain(size common.Size) error {
	if err := b.configure(size); err != nil {
		return err
	}
	b.configured = true
	return nil
}

func (b *wgpuBackend) ResizeSwapChain(size common.Size) error {
	if !b.configured {
		return errors.New("device: resize before the surface was configured")
	}
	if b.frameSurface != nil {
		return errors.New("device: resize while a surface texture is held")
	}
	return b.configure(size)
}

func (b *wgpuBackend) ReleaseSwapChain() {
	// The surface configuration is dropped together with the surface in ReleaseDevice.
	b.dropFrame()
	b.configured = false
	b.swapSize = common.Size{}
}

func (b *wgpuBackend) CreateTarget(target frame.Target, size common.Size) error {
	switch target {
	case frame.TargetBackBuffer:
		if !b.configured {
			return errors.New("device: back buffer requested before the surface was configured")
		}
		b.backBufferReady = true
	case frame.TargetRenderView:
		if !b.backBufferReady {
			return errors.New("device: render view requested without a back buffer")
		}
		b.renderViewReady = true
	case frame.TargetDepthBuffer:
		texture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label: "Depth Texture",
			Size: wgpu.Extent3D{
				Width:              uint32(size.Width),
				Height:             uint32(size.Height),
				DepthOrArrayLayers: 1,
			},
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     wgpu.TextureDimension2D,
			Format:        b.cfg.depthFormat,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			return err
		}
		b.depthTexture = texture
	case frame.TargetDepthView:
		if b.depthTexture == nil {
			return errors.New("device: depth view requested without a depth texture")
		}
		view, err := b.depthTexture.CreateView(nil)
		if err != nil {
			return err
		}
		b.depthView = view
	default:
		return fmt.Errorf("device: unknown target %s", target)
	}
	return nil
}

func (b *wgpuBackend) ReleaseTarget(target frame.Target) {
	switch target {
	case frame.TargetDepthView:
		if b.depthView != nil {
			b.depthView.Release()
			b.depthView = nil
		}
	case frame.TargetDepthBuffer:
		if b.depthTexture != nil {
			b.depthTexture.Release()
			b.depthTexture = nil
		}
	case frame.TargetRenderView:
		if b.frameView != nil {
			b.frameView.Release()
			b.frameView = nil
		}
		b.renderViewReady = false
	case frame.TargetBackBuffer:
		b.dropFrame()
		b.backBufferReady = false
	}
}

func (b *wgpuBackend) SetViewport(size common.Size) {
	b.viewport = size
}

func (b *wgpuBackend) BeginPass(clear frame.Clear) error {
	if !b.renderViewReady || b.depthView == nil {
		return errors.New("device: frame targets not created")
	}
	// If a previous frame's surface texture is still held, acquiring another one makes
	// wgpu-native fail with "Surface image is already acquired".
	if b.frameSurface != nil {
		return errors.New("device: previous frame surface not yet presented")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("device: acquire surface texture: %w", err)
	}
	// An outdated, lost or timed-out surface hands back no texture and no error.
	if surfaceTexture == nil {
		return fmt.Errorf("device: acquire surface texture: %w", frame.ErrSurfaceOutdated)
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:    view,
				LoadOp:  wgpu.LoadOpClear,
				StoreOp: wgpu.StoreOpStore,
				ClearValue: wgpu.Color{
					R: clear.Color.R, G: clear.Color.G, B: clear.Color.B, A: clear.Color.A,
				},
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: clear.Depth,
		},
	})
	pass.SetViewport(0, 0, float32(b.viewport.Width), float32(b.viewport.Height), 0, 1)

	b.frameEncoder = encoder
	b.framePass = pass
	b.frameSurface = surfaceTexture
	b.frameView = view
	return nil
}

func (b *wgpuBackend) Context() any {
	return &Context{
		Device:      b.device,
		Queue:       b.queue,
		Pass:        b.framePass,
		ColorFormat: b.surfaceFormat,
		DepthFormat: b.cfg.depthFormat,
	}
}

func (b *wgpuBackend) Present() error {
	if b.framePass == nil {
		return errors.New("device: present without an active pass")
	}

	b.framePass.End()
	b.framePass = nil

	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err != nil {
		b.dropFrame()
		return fmt.Errorf("device: finish command encoder: %w", err)
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()

	b.surface.Present()
	b.dropFrame()
	return nil
}

// configure applies the surface configuration for size. Formats are re-queried each time because
// the compositor may change them between configurations.
func (b *wgpuBackend) configure(size common.Size) error {
	if size.Empty() {
		return fmt.Errorf("device: cannot configure a %s surface", size)
	}

	capabilities := b.surface.GetCapabilities(b.adapter)
	if len(capabilities.Formats) == 0 || len(capabilities.AlphaModes) == 0 {
		return errors.New("device: surface reports no supported formats")
	}
	b.surfaceFormat = capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(size.Width),
		Height:      uint32(size.Height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
	b.swapSize = size
	return nil
}

// dropFrame releases whatever per-frame objects are still held.
func (b *wgpuBackend) dropFrame() {
	b.framePass = nil
	if b.frameEncoder != nil {
		b.frameEncoder.Release()
		b.frameEncoder = nil
	}
	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
}

func (b *wgpuBackend) releaseInstance() {
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}
