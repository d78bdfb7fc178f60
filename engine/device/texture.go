package device

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// UploadTexture creates a sampled RGBA8 texture on the context's device and copies pixels into it.
// Use it as the Build step of a cache.Source; the texture belongs to the device that created it
// and must be rebuilt after the device is lost.
//
// Parameters:
//   - ctx: the frame context handed to render callbacks
//   - label: debug label for the texture
//   - width: texture width in pixels
//   - height: texture height in pixels
//   - pixels: tightly packed RGBA8 rows, width*height*4 bytes
//
// Returns:
//   - *wgpu.Texture: the uploaded texture
//   - error: error if the context has no device, the data size is wrong, or creation fails
func UploadTexture(ctx *Context, label string, width, height uint32, pixels []byte) (*wgpu.Texture, error) {
	if ctx == nil || ctx.Device == nil || ctx.Queue == nil {
		return nil, errors.New("device: texture upload without a device")
	}
	if want := int(width * height * 4); width == 0 || height == 0 || len(pixels) != want {
		return nil, fmt.Errorf("device: texture %q: %d bytes for %dx%d RGBA8", label, len(pixels), width, height)
	}

	tex, err := ctx.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     label,
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		Format:        wgpu.TextureFormatRGBA8UnormSrgb,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, err
	}

	ctx.Queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  width * 4,
			RowsPerImage: height,
		},
		&wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
	)
	return tex, nil
}
